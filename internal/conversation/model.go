// Package conversation provides conversation, message, and feedback models and their repositories.
package conversation

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/at-ishikawa/lingochat/internal/pattern"
)

// ErrNotFound is returned when a conversation or message does not exist.
var ErrNotFound = errors.New("not found")

type Status string

const (
	StatusActive    Status = "active"
	StatusLearning  Status = "learning"
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusLearning, StatusCompleted:
		return true
	}
	return false
}

type Language string

const (
	LanguageKorean  Language = "ko"
	LanguageEnglish Language = "en"
)

// Counterpart returns the language a message in l is translated into.
func (l Language) Counterpart() Language {
	if l == LanguageKorean {
		return LanguageEnglish
	}
	return LanguageKorean
}

type FeedbackType string

const (
	FeedbackPositive   FeedbackType = "positive"
	FeedbackNegative   FeedbackType = "negative"
	FeedbackSuggestion FeedbackType = "suggestion"
)

// Conversation is a titled thread of messages.
type Conversation struct {
	ID                  int64     `db:"id"`
	Title               string    `db:"title"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
	TotalExchanges      int       `db:"total_exchanges"`
	AccuracyImprovement float64   `db:"accuracy_improvement"`
	Status              Status    `db:"status"`
}

// Message is one turn of a conversation.
// Only FeedbackScore and Metadata change after creation.
type Message struct {
	ID                int64     `db:"id"`
	ConversationID    int64     `db:"conversation_id"`
	Content           string    `db:"content"`
	TranslatedContent *string   `db:"translated_content"`
	IsUser            bool      `db:"is_user"`
	Language          Language  `db:"language"`
	ContextScore      *float64  `db:"context_score"`
	Timestamp         time.Time `db:"timestamp"`
	FeedbackScore     *int      `db:"feedback_score"`
	Metadata          Metadata  `db:"metadata"`
}

// Metadata holds the signals computed for a message.
type Metadata struct {
	Patterns   []pattern.Category `json:"patterns,omitempty"`
	Category   pattern.Category   `json:"category,omitempty"`
	Confidence *float64           `json:"confidence,omitempty"`
	Insights   []string           `json:"insights,omitempty"`
	Fallback   bool               `json:"fallback,omitempty"`
}

// Map returns the metadata as an untyped key-value bag.
func (m Metadata) Map() map[string]any {
	result := make(map[string]any)
	if len(m.Patterns) > 0 {
		patterns := make([]string, 0, len(m.Patterns))
		for _, p := range m.Patterns {
			patterns = append(patterns, string(p))
		}
		result["patterns"] = patterns
	}
	if m.Category != "" {
		result["category"] = string(m.Category)
	}
	if m.Confidence != nil {
		result["confidence"] = *m.Confidence
	}
	if len(m.Insights) > 0 {
		result["insights"] = m.Insights
	}
	if m.Fallback {
		result["fallback"] = true
	}
	return result
}

// Value stores the metadata as a JSON column.
func (m Metadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal(metadata) > %w", err)
	}
	return string(b), nil
}

// Scan reads the metadata from a JSON column.
func (m *Metadata) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", src)
	}
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}
	if err := json.Unmarshal(b, m); err != nil {
		return fmt.Errorf("json.Unmarshal(metadata) > %w", err)
	}
	return nil
}

// FeedbackEntry is a user's judgement of a message.
type FeedbackEntry struct {
	ID           int64        `db:"id"`
	MessageID    int64        `db:"message_id"`
	FeedbackType FeedbackType `db:"feedback_type"`
	Category     *string      `db:"category"`
	Suggestion   *string      `db:"suggestion"`
	CreatedAt    time.Time    `db:"created_at"`
	// Applied is reserved for a curation step; nothing sets it yet.
	Applied bool `db:"applied"`
}

// NewConversation holds the fields a caller supplies when creating a conversation.
type NewConversation struct {
	Title  string
	Status Status
}

// ConversationPatch lists conversation fields to overwrite; nil fields are kept.
type ConversationPatch struct {
	Title  *string
	Status *Status
}

// NewMessage holds the fields a caller supplies when appending a message.
type NewMessage struct {
	ConversationID    int64
	Content           string
	TranslatedContent *string
	IsUser            bool
	Language          Language
	ContextScore      *float64
	Metadata          Metadata
}

// MessagePatch lists message fields to overwrite; nil fields are kept.
type MessagePatch struct {
	FeedbackScore *int
	Metadata      *Metadata
}

// NewFeedback holds the fields a caller supplies when recording feedback.
type NewFeedback struct {
	MessageID    int64
	FeedbackType FeedbackType
	Category     *string
	Suggestion   *string
	// MessageScore, when set, becomes the message's FeedbackScore in the
	// same step that stores the entry.
	MessageScore *int
}
