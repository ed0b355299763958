package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/lingochat/internal/database"
)

// DBRepository implements Repository using MySQL.
type DBRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{
		db: db,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (r *DBRepository) ListConversations(ctx context.Context) ([]Conversation, error) {
	conversations := make([]Conversation, 0)
	if err := r.db.SelectContext(ctx, &conversations,
		"SELECT * FROM conversations ORDER BY updated_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(conversations) > %w", err)
	}
	return conversations, nil
}

func (r *DBRepository) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	return getConversation(ctx, r.db, id, "")
}

func getConversation(ctx context.Context, q sqlx.QueryerContext, id int64, lockClause string) (*Conversation, error) {
	var c Conversation
	err := sqlx.GetContext(ctx, q, &c, "SELECT * FROM conversations WHERE id = ?"+lockClause, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(conversation) > %w", err)
	}
	return &c, nil
}

func (r *DBRepository) CreateConversation(ctx context.Context, fields NewConversation) (*Conversation, error) {
	status := fields.Status
	if status == "" {
		status = StatusActive
	}
	now := r.now()
	c := Conversation{
		Title:     fields.Title,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    status,
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (title, created_at, updated_at, total_exchanges, accuracy_improvement, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Title, c.CreatedAt, c.UpdatedAt, c.TotalExchanges, c.AccuracyImprovement, c.Status)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext(insert conversation) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId() > %w", err)
	}
	c.ID = id
	return &c, nil
}

func (r *DBRepository) UpdateConversation(ctx context.Context, id int64, patch ConversationPatch) (*Conversation, error) {
	var updated *Conversation
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		c, err := getConversation(ctx, tx, id, " FOR UPDATE")
		if err != nil {
			return err
		}
		if patch.Title != nil {
			c.Title = *patch.Title
		}
		if patch.Status != nil {
			c.Status = *patch.Status
		}
		if now := r.now(); now.After(c.UpdatedAt) {
			c.UpdatedAt = now
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE conversations SET title = ?, status = ?, updated_at = ? WHERE id = ?",
			c.Title, c.Status, c.UpdatedAt, c.ID); err != nil {
			return fmt.Errorf("tx.ExecContext(update conversation) > %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *DBRepository) AddAccuracyImprovement(ctx context.Context, id int64, delta float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE conversations
		SET accuracy_improvement = accuracy_improvement + ?, updated_at = GREATEST(updated_at, ?)
		WHERE id = ?`,
		delta, r.now(), id)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update accuracy_improvement) > %w", err)
	}
	return requireAffected(result, "conversation", id)
}

func (r *DBRepository) AppendMessage(ctx context.Context, fields NewMessage) (*Message, error) {
	m := Message{
		ConversationID:    fields.ConversationID,
		Content:           fields.Content,
		TranslatedContent: fields.TranslatedContent,
		IsUser:            fields.IsUser,
		Language:          fields.Language,
		ContextScore:      fields.ContextScore,
		Timestamp:         r.now(),
		Metadata:          fields.Metadata,
	}

	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		// The counter update takes the row lock, so concurrent appends serialize here.
		result, err := tx.ExecContext(ctx,
			`UPDATE conversations
			SET total_exchanges = total_exchanges + 1, updated_at = GREATEST(updated_at, ?)
			WHERE id = ?`,
			m.Timestamp, m.ConversationID)
		if err != nil {
			return fmt.Errorf("tx.ExecContext(update total_exchanges) > %w", err)
		}
		if err := requireAffected(result, "conversation", m.ConversationID); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, content, translated_content, is_user, language, context_score, timestamp, feedback_score, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ConversationID, m.Content, m.TranslatedContent, m.IsUser, m.Language,
			m.ContextScore, m.Timestamp, m.FeedbackScore, m.Metadata)
		if err != nil {
			return fmt.Errorf("tx.ExecContext(insert message) > %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("result.LastInsertId() > %w", err)
		}
		m.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *DBRepository) GetMessage(ctx context.Context, id int64) (*Message, error) {
	return getMessage(ctx, r.db, id, "")
}

func getMessage(ctx context.Context, q sqlx.QueryerContext, id int64, lockClause string) (*Message, error) {
	var m Message
	err := sqlx.GetContext(ctx, q, &m, "SELECT * FROM messages WHERE id = ?"+lockClause, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(message) > %w", err)
	}
	return &m, nil
}

func (r *DBRepository) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	messages := make([]Message, 0)
	if err := r.db.SelectContext(ctx, &messages,
		"SELECT * FROM messages WHERE conversation_id = ? ORDER BY timestamp, id",
		conversationID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(messages by conversation) > %w", err)
	}
	return messages, nil
}

func (r *DBRepository) PatchMessage(ctx context.Context, id int64, patch MessagePatch) (*Message, error) {
	var patched *Message
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		m, err := getMessage(ctx, tx, id, " FOR UPDATE")
		if err != nil {
			return err
		}
		if patch.FeedbackScore != nil {
			score := *patch.FeedbackScore
			m.FeedbackScore = &score
		}
		if patch.Metadata != nil {
			m.Metadata = *patch.Metadata
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE messages SET feedback_score = ?, metadata = ? WHERE id = ?",
			m.FeedbackScore, m.Metadata, m.ID); err != nil {
			return fmt.Errorf("tx.ExecContext(update message) > %w", err)
		}
		patched = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patched, nil
}

func (r *DBRepository) CreateFeedback(ctx context.Context, fields NewFeedback) (*FeedbackEntry, error) {
	f := FeedbackEntry{
		MessageID:    fields.MessageID,
		FeedbackType: fields.FeedbackType,
		Category:     fields.Category,
		Suggestion:   fields.Suggestion,
		CreatedAt:    r.now(),
	}

	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages WHERE id = ?", f.MessageID); err != nil {
			return fmt.Errorf("tx.GetContext(message exists) > %w", err)
		}
		if count == 0 {
			return fmt.Errorf("message %d: %w", f.MessageID, ErrNotFound)
		}
		if fields.MessageScore != nil {
			if _, err := tx.ExecContext(ctx,
				"UPDATE messages SET feedback_score = ? WHERE id = ?",
				*fields.MessageScore, f.MessageID); err != nil {
				return fmt.Errorf("tx.ExecContext(update feedback_score) > %w", err)
			}
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO feedback_entries (message_id, feedback_type, category, suggestion, created_at, applied)
			VALUES (?, ?, ?, ?, ?, ?)`,
			f.MessageID, f.FeedbackType, f.Category, f.Suggestion, f.CreatedAt, f.Applied)
		if err != nil {
			return fmt.Errorf("tx.ExecContext(insert feedback_entry) > %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("result.LastInsertId() > %w", err)
		}
		f.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *DBRepository) ListFeedback(ctx context.Context, messageID int64) ([]FeedbackEntry, error) {
	entries := make([]FeedbackEntry, 0)
	query := "SELECT * FROM feedback_entries ORDER BY id"
	args := []any{}
	if messageID != 0 {
		query = "SELECT * FROM feedback_entries WHERE message_id = ? ORDER BY id"
		args = append(args, messageID)
	}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(feedback_entries) > %w", err)
	}
	return entries, nil
}

func requireAffected(result sql.Result, entity string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}
