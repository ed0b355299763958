// Package server provides Connect RPC handlers for the chat service.
package server

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/chat"
	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/metrics"
)

// ChatHandler implements the ChatServiceHandler interface.
type ChatHandler struct {
	apiv1.UnimplementedChatServiceHandler

	service *chat.Service
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// ListConversations returns every conversation, most recently active first.
func (h *ChatHandler) ListConversations(
	ctx context.Context,
	_ *connect.Request[apiv1.ListConversationsRequest],
) (*connect.Response[apiv1.ListConversationsResponse], error) {
	conversations, err := h.service.ListConversations(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	result := make([]apiv1.Conversation, 0, len(conversations))
	for _, c := range conversations {
		result = append(result, toAPIConversation(c))
	}
	return connect.NewResponse(&apiv1.ListConversationsResponse{Conversations: result}), nil
}

func (h *ChatHandler) GetConversation(
	ctx context.Context,
	req *connect.Request[apiv1.GetConversationRequest],
) (*connect.Response[apiv1.GetConversationResponse], error) {
	c, err := h.service.GetConversation(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.GetConversationResponse{Conversation: toAPIConversation(*c)}), nil
}

func (h *ChatHandler) CreateConversation(
	ctx context.Context,
	req *connect.Request[apiv1.CreateConversationRequest],
) (*connect.Response[apiv1.CreateConversationResponse], error) {
	c, err := h.service.CreateConversation(ctx, chat.CreateConversationInput{
		Title:  req.Msg.Title,
		Status: conversation.Status(req.Msg.Status),
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.CreateConversationResponse{Conversation: toAPIConversation(*c)}), nil
}

func (h *ChatHandler) UpdateConversation(
	ctx context.Context,
	req *connect.Request[apiv1.UpdateConversationRequest],
) (*connect.Response[apiv1.UpdateConversationResponse], error) {
	input := chat.UpdateConversationInput{
		ID:    req.Msg.ID,
		Title: req.Msg.Title,
	}
	if req.Msg.Status != nil {
		status := conversation.Status(*req.Msg.Status)
		input.Status = &status
	}
	c, err := h.service.UpdateConversation(ctx, input)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.UpdateConversationResponse{Conversation: toAPIConversation(*c)}), nil
}

// ListMessages returns the messages of a conversation, oldest first.
// An unknown conversation yields an empty list.
func (h *ChatHandler) ListMessages(
	ctx context.Context,
	req *connect.Request[apiv1.ListMessagesRequest],
) (*connect.Response[apiv1.ListMessagesResponse], error) {
	messages, err := h.service.ListMessages(ctx, req.Msg.ConversationID)
	if err != nil {
		return nil, toConnectError(err)
	}
	result := make([]apiv1.Message, 0, len(messages))
	for _, m := range messages {
		result = append(result, toAPIMessage(m))
	}
	return connect.NewResponse(&apiv1.ListMessagesResponse{Messages: result}), nil
}

func (h *ChatHandler) CreateMessage(
	ctx context.Context,
	req *connect.Request[apiv1.CreateMessageRequest],
) (*connect.Response[apiv1.CreateMessageResponse], error) {
	m, err := h.service.CreateMessage(ctx, chat.CreateMessageInput{
		ConversationID: req.Msg.ConversationID,
		Content:        req.Msg.Content,
		Language:       conversation.Language(req.Msg.Language),
		IsUser:         req.Msg.IsUser,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.CreateMessageResponse{Message: toAPIMessage(*m)}), nil
}

func (h *ChatHandler) SubmitFeedback(
	ctx context.Context,
	req *connect.Request[apiv1.SubmitFeedbackRequest],
) (*connect.Response[apiv1.SubmitFeedbackResponse], error) {
	entry, err := h.service.SubmitFeedback(ctx, chat.SubmitFeedbackInput{
		MessageID:    req.Msg.MessageID,
		FeedbackType: conversation.FeedbackType(req.Msg.FeedbackType),
		Category:     req.Msg.Category,
		Suggestion:   req.Msg.Suggestion,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.SubmitFeedbackResponse{Feedback: toAPIFeedback(*entry)}), nil
}

func (h *ChatHandler) ListFeedback(
	ctx context.Context,
	req *connect.Request[apiv1.ListFeedbackRequest],
) (*connect.Response[apiv1.ListFeedbackResponse], error) {
	entries, err := h.service.ListFeedback(ctx, req.Msg.MessageID)
	if err != nil {
		return nil, toConnectError(err)
	}
	result := make([]apiv1.FeedbackEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, toAPIFeedback(e))
	}
	return connect.NewResponse(&apiv1.ListFeedbackResponse{Feedback: result}), nil
}

func (h *ChatHandler) GetLearningMetrics(
	ctx context.Context,
	_ *connect.Request[apiv1.GetLearningMetricsRequest],
) (*connect.Response[apiv1.GetLearningMetricsResponse], error) {
	m := h.service.GetLearningMetrics(ctx)
	return connect.NewResponse(&apiv1.GetLearningMetricsResponse{Metrics: toAPIMetrics(m)}), nil
}

func (h *ChatHandler) GetLearningPatterns(
	ctx context.Context,
	_ *connect.Request[apiv1.GetLearningPatternsRequest],
) (*connect.Response[apiv1.GetLearningPatternsResponse], error) {
	patterns := h.service.GetLearningPatterns(ctx)
	result := make([]apiv1.LearningPattern, 0, len(patterns))
	for _, p := range patterns {
		result = append(result, toAPIPattern(p))
	}
	return connect.NewResponse(&apiv1.GetLearningPatternsResponse{Patterns: result}), nil
}

func toConnectError(err error) *connect.Error {
	var validationErr *chat.ValidationError
	switch {
	case errors.As(err, &validationErr):
		connectErr := connect.NewError(connect.CodeInvalidArgument, err)
		fieldViolations := make([]*errdetails.BadRequest_FieldViolation, 0, len(validationErr.Violations))
		for _, v := range validationErr.Violations {
			fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field,
				Description: v.Description,
			})
		}
		if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
			FieldViolations: fieldViolations,
		}); detailErr == nil {
			connectErr.AddDetail(detail)
		}
		return connectErr
	case errors.Is(err, conversation.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	slog.Default().Error("chat service failed", "error", err)
	return connect.NewError(connect.CodeInternal, err)
}

func toAPIConversation(c conversation.Conversation) apiv1.Conversation {
	return apiv1.Conversation{
		ID:                  c.ID,
		Title:               c.Title,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		TotalExchanges:      c.TotalExchanges,
		AccuracyImprovement: c.AccuracyImprovement,
		Status:              string(c.Status),
	}
}

func toAPIMessage(m conversation.Message) apiv1.Message {
	return apiv1.Message{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		Content:           m.Content,
		TranslatedContent: m.TranslatedContent,
		IsUser:            m.IsUser,
		Language:          string(m.Language),
		ContextScore:      m.ContextScore,
		Timestamp:         m.Timestamp,
		FeedbackScore:     m.FeedbackScore,
		Metadata:          m.Metadata.Map(),
	}
}

func toAPIFeedback(f conversation.FeedbackEntry) apiv1.FeedbackEntry {
	return apiv1.FeedbackEntry{
		ID:           f.ID,
		MessageID:    f.MessageID,
		FeedbackType: string(f.FeedbackType),
		Category:     f.Category,
		Suggestion:   f.Suggestion,
		CreatedAt:    f.CreatedAt,
		Applied:      f.Applied,
	}
}

func toAPIMetrics(m metrics.LearningMetrics) apiv1.LearningMetrics {
	return apiv1.LearningMetrics{
		TotalTranslations:      m.TotalTranslations,
		AccuracyScore:          m.AccuracyScore,
		ContextAccuracy:        m.ContextAccuracy,
		LearningRate:           m.LearningRate,
		PositiveFeedback:       m.PositiveFeedback,
		NegativeFeedback:       m.NegativeFeedback,
		ImprovementSuggestions: m.ImprovementSuggestions,
	}
}

func toAPIPattern(p metrics.LearningPattern) apiv1.LearningPattern {
	return apiv1.LearningPattern{
		ID:        p.ID,
		Pattern:   p.Pattern,
		Frequency: p.Frequency,
		Accuracy:  p.Accuracy,
		LastSeen:  p.LastSeen,
		Category:  string(p.Category),
	}
}
