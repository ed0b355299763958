package inference

import (
	"context"

	"github.com/at-ishikawa/lingochat/internal/conversation"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client generates text for a conversation turn
type Client interface {
	Generate(ctx context.Context, params GenerateRequest) (GenerateResponse, error)
}

// Turn is one earlier message given to the model as context
type Turn struct {
	Content     string                `json:"content"`
	Translation string                `json:"translation,omitempty"`
	IsUser      bool                  `json:"is_user"`
	Language    conversation.Language `json:"language"`
}

// GenerateRequest asks for Prompt to be rendered from SourceLanguage into TargetLanguage
type GenerateRequest struct {
	Prompt         string                `json:"prompt"`
	SourceLanguage conversation.Language `json:"source_language"`
	TargetLanguage conversation.Language `json:"target_language"`
	History        []Turn                `json:"history,omitempty"`
}

type GenerateResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TurnsFromMessages converts stored messages into history turns, keeping at most the last limit.
// A limit of zero or less keeps none.
func TurnsFromMessages(messages []conversation.Message, limit int) []Turn {
	if limit <= 0 || len(messages) == 0 {
		return nil
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		turn := Turn{
			Content:  m.Content,
			IsUser:   m.IsUser,
			Language: m.Language,
		}
		if m.TranslatedContent != nil {
			turn.Translation = *m.TranslatedContent
		}
		turns = append(turns, turn)
	}
	return turns
}
