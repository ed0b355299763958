// Package chat orchestrates conversations, responder calls and learning metrics.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/at-ishikawa/lingochat/internal/config"
	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/inference"
	"github.com/at-ishikawa/lingochat/internal/insight"
	"github.com/at-ishikawa/lingochat/internal/metrics"
	"github.com/at-ishikawa/lingochat/internal/pattern"
)

const (
	// FallbackConfidence is stored for generated messages when the responder gave no usable answer.
	FallbackConfidence = 0.3

	positiveFeedbackScore = 5
	negativeFeedbackScore = 1
)

var errEmptyResponse = errors.New("responder returned empty text")

// FallbackText is the canned reply written in the target language when the responder fails.
func FallbackText(target conversation.Language) string {
	if target == conversation.LanguageKorean {
		return "죄송합니다. 지금은 번역할 수 없어요. 잠시 후에 다시 시도해 주세요."
	}
	return "Sorry, the translation is not available right now. Please try again later."
}

type CreateConversationInput struct {
	Title  string              `json:"title" validate:"required,max=255"`
	Status conversation.Status `json:"status" validate:"omitempty,oneof=active learning completed"`
}

type UpdateConversationInput struct {
	ID     int64                `json:"id" validate:"gt=0"`
	Title  *string              `json:"title" validate:"omitempty,min=1,max=255"`
	Status *conversation.Status `json:"status" validate:"omitempty,oneof=active learning completed"`
}

type CreateMessageInput struct {
	ConversationID int64                 `json:"conversationId" validate:"gt=0"`
	Content        string                `json:"content" validate:"required,max=4000"`
	Language       conversation.Language `json:"language" validate:"required,oneof=ko en"`
	IsUser         bool                  `json:"isUser"`
}

type SubmitFeedbackInput struct {
	MessageID    int64                     `json:"messageId" validate:"gt=0"`
	FeedbackType conversation.FeedbackType `json:"feedbackType" validate:"required,oneof=positive negative suggestion"`
	Category     *string                   `json:"category" validate:"omitempty,oneof=grammar context tone technical cultural fluency accuracy"`
	Suggestion   *string                   `json:"suggestion" validate:"omitempty,max=2000"`
}

// Service implements the chat operations on top of a Repository and an Aggregator.
type Service struct {
	repo      conversation.Repository
	metrics   *metrics.Aggregator
	insights  *insight.Generator
	responder inference.Client

	timeout     time.Duration
	historySize int
	validator   *inputValidator
}

// NewService creates a Service. A nil responder makes every generated message a fallback.
func NewService(
	repo conversation.Repository,
	aggregator *metrics.Aggregator,
	generator *insight.Generator,
	responder inference.Client,
	cfg config.ResponderConfig,
) (*Service, error) {
	v, err := newInputValidator()
	if err != nil {
		return nil, fmt.Errorf("newInputValidator() > %w", err)
	}
	return &Service{
		repo:        repo,
		metrics:     aggregator,
		insights:    generator,
		responder:   responder,
		timeout:     cfg.Timeout,
		historySize: cfg.HistorySize,
		validator:   v,
	}, nil
}

func (s *Service) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	return s.repo.ListConversations(ctx)
}

func (s *Service) GetConversation(ctx context.Context, id int64) (*conversation.Conversation, error) {
	return s.repo.GetConversation(ctx, id)
}

func (s *Service) CreateConversation(ctx context.Context, input CreateConversationInput) (*conversation.Conversation, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.check(input); err != nil {
		return nil, err
	}
	return s.repo.CreateConversation(ctx, conversation.NewConversation{
		Title:  input.Title,
		Status: input.Status,
	})
}

func (s *Service) UpdateConversation(ctx context.Context, input UpdateConversationInput) (*conversation.Conversation, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}
	if err := s.validator.check(input); err != nil {
		return nil, err
	}
	return s.repo.UpdateConversation(ctx, input.ID, conversation.ConversationPatch{
		Title:  input.Title,
		Status: input.Status,
	})
}

func (s *Service) ListMessages(ctx context.Context, conversationID int64) ([]conversation.Message, error) {
	return s.repo.ListMessages(ctx, conversationID)
}

// CreateMessage classifies the text, asks the responder for a translation when
// the message is not from the user, derives signals, stores the message and
// then updates the learning metrics.
func (s *Service) CreateMessage(ctx context.Context, input CreateMessageInput) (*conversation.Message, error) {
	if err := s.validator.check(input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, invalidField("content", "content must not be blank")
	}
	if _, err := s.repo.GetConversation(ctx, input.ConversationID); err != nil {
		return nil, err
	}

	classified := pattern.Classify(input.Content)

	history, err := s.repo.ListMessages(ctx, input.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("repo.ListMessages() > %w", err)
	}

	metadata := conversation.Metadata{
		Patterns: classified.Tags,
		Category: classified.Dominant,
	}
	var translated *string
	if !input.IsUser {
		response, fallback := s.generate(ctx, input, history)
		text := response.Text
		confidence := response.Confidence
		translated = &text
		metadata.Confidence = &confidence
		metadata.Fallback = fallback
	}

	signals := s.insights.Derive(input.Content, input.IsUser, history)
	score := signals.Score
	metadata.Insights = signals.Insights
	if metadata.Fallback {
		// A canned reply is scored as degraded so it cannot lift the accuracies.
		score = FallbackConfidence
	}

	message, err := s.repo.AppendMessage(ctx, conversation.NewMessage{
		ConversationID:    input.ConversationID,
		Content:           input.Content,
		TranslatedContent: translated,
		IsUser:            input.IsUser,
		Language:          input.Language,
		ContextScore:      &score,
		Metadata:          metadata,
	})
	if err != nil {
		return nil, err
	}

	delta := s.metrics.RecordTranslationEvent()
	s.metrics.RecordContextScore(score)
	s.metrics.UpsertPattern(input.Content, classified.Dominant, score*100)
	if err := s.repo.AddAccuracyImprovement(ctx, message.ConversationID, delta); err != nil {
		slog.Default().Warn("failed to record accuracy improvement",
			"conversationID", message.ConversationID,
			"error", err)
	}

	return message, nil
}

// generate calls the responder under the configured timeout. Any failure or
// unusable answer yields the fallback response and true.
func (s *Service) generate(ctx context.Context, input CreateMessageInput, history []conversation.Message) (inference.GenerateResponse, bool) {
	target := input.Language.Counterpart()
	fallback := inference.GenerateResponse{
		Text:       FallbackText(target),
		Confidence: FallbackConfidence,
	}
	if s.responder == nil {
		slog.Default().Warn("no responder configured, using fallback",
			"conversationID", input.ConversationID)
		return fallback, true
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.responder.Generate(ctx, inference.GenerateRequest{
		Prompt:         input.Content,
		SourceLanguage: input.Language,
		TargetLanguage: target,
		History:        inference.TurnsFromMessages(history, s.historySize),
	})
	if err == nil {
		err = checkResponse(response)
	}
	if err != nil {
		slog.Default().Warn("responder failed, using fallback",
			"conversationID", input.ConversationID,
			"targetLanguage", target,
			"error", err)
		return fallback, true
	}
	response.Text = strings.TrimSpace(response.Text)
	return response, false
}

func checkResponse(response inference.GenerateResponse) error {
	if strings.TrimSpace(response.Text) == "" {
		return errEmptyResponse
	}
	if math.IsNaN(response.Confidence) || response.Confidence < 0 || response.Confidence > 1 {
		return fmt.Errorf("responder confidence %v out of range", response.Confidence)
	}
	return nil
}

// SubmitFeedback stores the feedback together with the message score, then
// counts the feedback type. Metrics are untouched when the store fails.
func (s *Service) SubmitFeedback(ctx context.Context, input SubmitFeedbackInput) (*conversation.FeedbackEntry, error) {
	if err := s.validator.check(input); err != nil {
		return nil, err
	}

	var score *int
	switch input.FeedbackType {
	case conversation.FeedbackPositive:
		v := positiveFeedbackScore
		score = &v
	case conversation.FeedbackNegative:
		v := negativeFeedbackScore
		score = &v
	}

	entry, err := s.repo.CreateFeedback(ctx, conversation.NewFeedback{
		MessageID:    input.MessageID,
		FeedbackType: input.FeedbackType,
		Category:     input.Category,
		Suggestion:   input.Suggestion,
		MessageScore: score,
	})
	if err != nil {
		return nil, err
	}

	// The type was validated above, so this cannot fail after the store succeeded.
	if err := s.metrics.RecordFeedback(input.FeedbackType); err != nil {
		return nil, fmt.Errorf("metrics.RecordFeedback() > %w", err)
	}
	return entry, nil
}

func (s *Service) ListFeedback(ctx context.Context, messageID int64) ([]conversation.FeedbackEntry, error) {
	if messageID < 0 {
		return nil, invalidField("messageId", "messageId must be 0 or greater")
	}
	return s.repo.ListFeedback(ctx, messageID)
}

func (s *Service) GetLearningMetrics(context.Context) metrics.LearningMetrics {
	return s.metrics.Metrics()
}

func (s *Service) GetLearningPatterns(context.Context) []metrics.LearningPattern {
	return s.metrics.Patterns()
}
