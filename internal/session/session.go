// Package session owns per-conversation state: the ordered message history,
// the symptom log, and flat-file persistence.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arovik/healthmate/internal/openai"
	"github.com/google/uuid"
)

// SymptomEntry is one logged symptom. The log is append-only; duplicate
// texts produce separate entries.
type SymptomEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Symptom   string    `json:"symptom"`
}

// Session holds the full conversation state for one dialogue. The system
// message is always first and is never removed; messages are never reordered
// or pruned.
type Session struct {
	ID string

	mu       sync.RWMutex
	messages []openai.ChatMessage
	symptoms []SymptomEntry
}

// New creates a session seeded with the system prompt.
func New(id, systemPrompt string) *Session {
	return &Session{
		ID: id,
		messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
		},
	}
}

// Append adds a message to the history.
func (s *Session) Append(msg openai.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// History returns a copy of the message history in chronological order.
func (s *Session) History() []openai.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]openai.ChatMessage, len(s.messages))
	copy(result, s.messages)
	return result
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// LogSymptom appends a symptom with the current timestamp.
func (s *Session) LogSymptom(symptom string) SymptomEntry {
	entry := SymptomEntry{
		Timestamp: time.Now(),
		Symptom:   symptom,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.symptoms = append(s.symptoms, entry)
	return entry
}

// Symptoms returns a copy of the symptom log.
func (s *Session) Symptoms() []SymptomEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]SymptomEntry, len(s.symptoms))
	copy(result, s.symptoms)
	return result
}

// SymptomSummary formats the symptom log for display.
func (s *Session) SymptomSummary() string {
	entries := s.Symptoms()
	if len(entries) == 0 {
		return "No symptoms logged yet."
	}

	var sb strings.Builder
	sb.WriteString("📋 Your Symptom Log:\n")
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("%s: %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Symptom))
	}
	return sb.String()
}

// fileFormat is the persisted session layout.
type fileFormat struct {
	Conversation []openai.ChatMessage `json:"conversation"`
	Symptoms     []SymptomEntry       `json:"symptoms"`
	SavedAt      string               `json:"saved_at"`
}

// Save writes the session to a JSON file.
func (s *Session) Save(path string) error {
	s.mu.RLock()
	data := fileFormat{
		Conversation: make([]openai.ChatMessage, len(s.messages)),
		Symptoms:     make([]SymptomEntry, len(s.symptoms)),
		SavedAt:      time.Now().Format("2006-01-02 15:04:05"),
	}
	copy(data.Conversation, s.messages)
	copy(data.Symptoms, s.symptoms)
	s.mu.RUnlock()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load reads a previously saved session from a JSON file.
func Load(path, id string) (*Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var data fileFormat
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	return &Session{
		ID:       id,
		messages: data.Conversation,
		symptoms: data.Symptoms,
	}, nil
}

// Store maps session IDs to sessions for the serving layer. Each session is
// isolated; nothing is shared unkeyed across clients.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Get retrieves a session by ID.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Create makes a new session with a fresh UUID.
func (st *Store) Create(systemPrompt string) *Session {
	s := New(uuid.NewString(), systemPrompt)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	return s
}

// GetOrCreate returns the session for id, or a new one when id is empty or
// unknown.
func (st *Store) GetOrCreate(id, systemPrompt string) *Session {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s
		}
	}
	return st.Create(systemPrompt)
}

// Len returns the number of active sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
