package tools

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed conditions.yaml
var conditionsYAML []byte

// ConditionEntry maps a comma-joined symptom key to possible conditions.
type ConditionEntry struct {
	Symptoms   string   `yaml:"symptoms"`
	Conditions []string `yaml:"conditions"`
}

var conditionTable = mustLoadConditionTable()

func mustLoadConditionTable() []ConditionEntry {
	var table struct {
		Entries []ConditionEntry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(conditionsYAML, &table); err != nil {
		panic(fmt.Sprintf("parse embedded condition table: %v", err))
	}
	return table.Entries
}

const fallbackCondition = "Unable to determine - Please consult a doctor"

// CalculateBMI computes Body Mass Index and its category.
func CalculateBMI(weightKg, heightCm float64) map[string]any {
	if weightKg <= 0 || heightCm <= 0 {
		return ErrorResult("weight_kg and height_cm must be positive")
	}

	heightM := heightCm / 100
	bmi := round2(weightKg / (heightM * heightM))

	var category string
	switch {
	case bmi < 18.5:
		category = "Underweight"
	case bmi < 25:
		category = "Normal weight"
	case bmi < 30:
		category = "Overweight"
	default:
		category = "Obese"
	}

	return map[string]any{
		"bmi":      bmi,
		"category": category,
		"message":  fmt.Sprintf("Your BMI is %v (%s)", bmi, category),
	}
}

// waterMultipliers scale the 33 ml/kg baseline by activity level.
// Unrecognized levels fall back to 1.0 rather than erroring.
var waterMultipliers = map[string]float64{
	"sedentary": 1.0,
	"moderate":  1.2,
	"active":    1.5,
}

// CalculateDailyWater computes the recommended daily water intake.
func CalculateDailyWater(weightKg float64, activityLevel string) map[string]any {
	if weightKg <= 0 {
		return ErrorResult("weight_kg must be positive")
	}

	multiplier, ok := waterMultipliers[activityLevel]
	if !ok {
		multiplier = 1.0
	}

	totalMl := weightKg * 33 * multiplier
	liters := totalMl / 1000
	cups := totalMl / 240

	return map[string]any{
		"liters": round2(liters),
		"cups":   round1(cups),
		"message": fmt.Sprintf("You should drink approximately %vL (%v cups) of water daily",
			round1(liters), int(math.Round(cups))),
	}
}

// MedicationSchedule computes evenly spaced reminder times over a 24-hour
// clock, wrapping past midnight.
func MedicationSchedule(medicationName string, timesPerDay int, startTime string) map[string]any {
	if timesPerDay <= 0 {
		return ErrorResult("times_per_day must be at least 1")
	}

	var hour, minute int
	if _, err := fmt.Sscanf(startTime, "%d:%d", &hour, &minute); err != nil {
		return ErrorResult(fmt.Sprintf("start_time must be in HH:MM format, got %q", startTime))
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ErrorResult(fmt.Sprintf("start_time out of range: %q", startTime))
	}

	startMinutes := hour*60 + minute
	times := make([]string, 0, timesPerDay)
	for i := 0; i < timesPerDay; i++ {
		// interval = 24/timesPerDay hours; fractional minutes truncate,
		// matching clock display of the offset.
		offset := int(math.Floor(float64(i) * 24 * 60 / float64(timesPerDay)))
		total := (startMinutes + offset) % (24 * 60)
		times = append(times, fmt.Sprintf("%02d:%02d", total/60, total%60))
	}

	return map[string]any{
		"medication": medicationName,
		"times":      times,
		"message":    fmt.Sprintf("Reminders set for %s at: %s", medicationName, strings.Join(times, ", ")),
	}
}

// SearchSymptoms matches the given symptoms against the condition table.
// A table entry matches when any normalized input symptom appears as a
// substring of the entry key; all matched conditions are aggregated and
// deduplicated.
func SearchSymptoms(symptoms []string) map[string]any {
	normalized := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(s)))
	}
	sort.Strings(normalized)

	seen := make(map[string]bool)
	conditions := make([]string, 0)
	for _, entry := range conditionTable {
		matched := false
		for _, s := range normalized {
			if s != "" && strings.Contains(entry.Symptoms, s) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, c := range entry.Conditions {
			if !seen[c] {
				seen[c] = true
				conditions = append(conditions, c)
			}
		}
	}

	if len(conditions) == 0 {
		conditions = append(conditions, fallbackCondition)
	}

	return map[string]any{
		"symptoms":            symptoms,
		"possible_conditions": conditions,
		"message":             "⚠️ These are possible conditions. Please consult a healthcare provider for proper diagnosis.",
	}
}

// ============================================================================
// Tool wrappers
// ============================================================================

// RegisterHealthTools registers the built-in health tools.
func RegisterHealthTools(registry *Registry) {
	registry.MustRegister(&bmiTool{})
	registry.MustRegister(&waterTool{})
	registry.MustRegister(&reminderTool{})
	registry.MustRegister(&symptomTool{})
}

type bmiTool struct{}

func (t *bmiTool) Name() string { return "calculate_bmi" }
func (t *bmiTool) Description() string {
	return "Calculate Body Mass Index given weight and height"
}
func (t *bmiTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "weight_kg", Type: "number", Description: "Weight in kilograms", Required: true},
		{Name: "height_cm", Type: "number", Description: "Height in centimeters", Required: true},
	}
}
func (t *bmiTool) Call(_ context.Context, args map[string]any) map[string]any {
	weight, _ := toFloat(args["weight_kg"])
	height, _ := toFloat(args["height_cm"])
	return CalculateBMI(weight, height)
}

type waterTool struct{}

func (t *waterTool) Name() string { return "calculate_daily_water" }
func (t *waterTool) Description() string {
	return "Calculate recommended daily water intake based on weight and activity level"
}
func (t *waterTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "weight_kg", Type: "number", Description: "Weight in kilograms", Required: true},
		{Name: "activity_level", Type: "string", Description: "Activity level",
			Enum: []string{"sedentary", "moderate", "active"}, Default: "moderate"},
	}
}
func (t *waterTool) Call(_ context.Context, args map[string]any) map[string]any {
	weight, _ := toFloat(args["weight_kg"])
	activity, _ := args["activity_level"].(string)
	return CalculateDailyWater(weight, activity)
}

type reminderTool struct{}

func (t *reminderTool) Name() string { return "set_medication_reminder" }
func (t *reminderTool) Description() string {
	return "Set up medication reminder schedule"
}
func (t *reminderTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "medication_name", Type: "string", Description: "Name of the medication", Required: true},
		{Name: "times_per_day", Type: "integer", Description: "How many times per day to take medication", Required: true},
		{Name: "start_time", Type: "string", Description: "First dose time in HH:MM format", Default: "09:00"},
	}
}
func (t *reminderTool) Call(_ context.Context, args map[string]any) map[string]any {
	name, _ := args["medication_name"].(string)
	timesPerDay, _ := toFloat(args["times_per_day"])
	startTime, _ := args["start_time"].(string)
	return MedicationSchedule(name, int(timesPerDay), startTime)
}

type symptomTool struct{}

func (t *symptomTool) Name() string { return "search_symptoms" }
func (t *symptomTool) Description() string {
	return "Search for possible medical conditions based on symptoms"
}
func (t *symptomTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "symptoms_list", Type: "array", Items: "string", Description: "List of symptoms", Required: true},
	}
}
func (t *symptomTool) Call(_ context.Context, args map[string]any) map[string]any {
	raw, _ := args["symptoms_list"].([]any)
	symptoms := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			symptoms = append(symptoms, s)
		}
	}
	return SearchSymptoms(symptoms)
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
