// Package validator checks user input before it reaches the upstream service.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// spaceRegexp is compiled once at package init and reused across all Sanitize calls.
var spaceRegexp = regexp.MustCompile(`\s+`)

type InputValidator struct {
	maxLength int
}

func NewInputValidator() *InputValidator {
	return &InputValidator{
		maxLength: 2000,
	}
}

func (v *InputValidator) Validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("message is empty")
	}

	if len(message) > v.maxLength {
		return fmt.Errorf("message too long: maximum %d characters", v.maxLength)
	}

	if !utf8.ValidString(message) {
		return errors.New("invalid UTF-8 encoding")
	}

	return nil
}

func (v *InputValidator) Sanitize(message string) string {
	message = strings.TrimSpace(message)
	message = spaceRegexp.ReplaceAllString(message, " ")
	return message
}
