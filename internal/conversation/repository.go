package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Repository stores conversations, their messages, and message feedback.
type Repository interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
	GetConversation(ctx context.Context, id int64) (*Conversation, error)
	CreateConversation(ctx context.Context, fields NewConversation) (*Conversation, error)
	UpdateConversation(ctx context.Context, id int64, patch ConversationPatch) (*Conversation, error)
	AddAccuracyImprovement(ctx context.Context, id int64, delta float64) error

	// AppendMessage stores a message and, in the same step, increments the
	// owning conversation's TotalExchanges and bumps its UpdatedAt.
	AppendMessage(ctx context.Context, fields NewMessage) (*Message, error)
	GetMessage(ctx context.Context, id int64) (*Message, error)
	// ListMessages returns an empty slice for unknown conversations.
	ListMessages(ctx context.Context, conversationID int64) ([]Message, error)
	PatchMessage(ctx context.Context, id int64, patch MessagePatch) (*Message, error)

	// CreateFeedback stores the entry and applies fields.MessageScore together;
	// on error neither is visible.
	CreateFeedback(ctx context.Context, fields NewFeedback) (*FeedbackEntry, error)
	// ListFeedback returns the feedback of one message, or all feedback when messageID is 0.
	ListFeedback(ctx context.Context, messageID int64) ([]FeedbackEntry, error)
}

// MemoryRepository implements Repository in process memory.
// A single lock guards every collection.
type MemoryRepository struct {
	now func() time.Time

	mu             sync.RWMutex
	conversations  map[int64]*Conversation
	messages       map[int64]*Message
	feedback       map[int64]*FeedbackEntry
	nextConvID     int64
	nextMessageID  int64
	nextFeedbackID int64
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:            time.Now,
		conversations:  make(map[int64]*Conversation),
		messages:       make(map[int64]*Message),
		feedback:       make(map[int64]*FeedbackEntry),
		nextConvID:     1,
		nextMessageID:  1,
		nextFeedbackID: 1,
	}
}

// SetClock replaces the time source. Intended for tests.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// ListConversations returns all conversations, most recently updated first.
func (r *MemoryRepository) ListConversations(ctx context.Context) ([]Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *MemoryRepository) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	copied := *c
	return &copied, nil
}

func (r *MemoryRepository) CreateConversation(ctx context.Context, fields NewConversation) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := fields.Status
	if status == "" {
		status = StatusActive
	}
	now := r.now()
	c := &Conversation{
		ID:        r.nextConvID,
		Title:     fields.Title,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    status,
	}
	r.conversations[c.ID] = c
	r.nextConvID++

	copied := *c
	return &copied, nil
}

func (r *MemoryRepository) UpdateConversation(ctx context.Context, id int64, patch ConversationPatch) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	r.touch(c)

	copied := *c
	return &copied, nil
}

func (r *MemoryRepository) AddAccuracyImprovement(ctx context.Context, id int64, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	c.AccuracyImprovement += delta
	r.touch(c)
	return nil
}

// touch bumps UpdatedAt, never letting it go backwards. Callers hold the lock.
func (r *MemoryRepository) touch(c *Conversation) {
	now := r.now()
	if now.Before(c.UpdatedAt) {
		now = c.UpdatedAt
	}
	c.UpdatedAt = now
}

func (r *MemoryRepository) AppendMessage(ctx context.Context, fields NewMessage) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[fields.ConversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %d: %w", fields.ConversationID, ErrNotFound)
	}

	m := &Message{
		ID:                r.nextMessageID,
		ConversationID:    fields.ConversationID,
		Content:           fields.Content,
		TranslatedContent: fields.TranslatedContent,
		IsUser:            fields.IsUser,
		Language:          fields.Language,
		ContextScore:      fields.ContextScore,
		Timestamp:         r.now(),
		Metadata:          fields.Metadata,
	}
	r.messages[m.ID] = m
	r.nextMessageID++

	c.TotalExchanges++
	r.touch(c)

	copied := *m
	return &copied, nil
}

func (r *MemoryRepository) GetMessage(ctx context.Context, id int64) (*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	copied := *m
	return &copied, nil
}

func (r *MemoryRepository) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Message, 0)
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *MemoryRepository) PatchMessage(ctx context.Context, id int64, patch MessagePatch) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	if patch.FeedbackScore != nil {
		score := *patch.FeedbackScore
		m.FeedbackScore = &score
	}
	if patch.Metadata != nil {
		m.Metadata = *patch.Metadata
	}

	copied := *m
	return &copied, nil
}

func (r *MemoryRepository) CreateFeedback(ctx context.Context, fields NewFeedback) (*FeedbackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[fields.MessageID]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", fields.MessageID, ErrNotFound)
	}
	if fields.MessageScore != nil {
		score := *fields.MessageScore
		m.FeedbackScore = &score
	}

	f := &FeedbackEntry{
		ID:           r.nextFeedbackID,
		MessageID:    fields.MessageID,
		FeedbackType: fields.FeedbackType,
		Category:     fields.Category,
		Suggestion:   fields.Suggestion,
		CreatedAt:    r.now(),
	}
	r.feedback[f.ID] = f
	r.nextFeedbackID++

	copied := *f
	return &copied, nil
}

func (r *MemoryRepository) ListFeedback(ctx context.Context, messageID int64) ([]FeedbackEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]FeedbackEntry, 0)
	for _, f := range r.feedback {
		if messageID == 0 || f.MessageID == messageID {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}
