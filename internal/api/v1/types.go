// Package apiv1 defines the lingochat.v1 wire messages and the Connect service bindings.
package apiv1

import "time"

type Conversation struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	TotalExchanges      int       `json:"totalExchanges"`
	AccuracyImprovement float64   `json:"accuracyImprovement"`
	Status              string    `json:"status"`
}

type Message struct {
	ID                int64          `json:"id"`
	ConversationID    int64          `json:"conversationId"`
	Content           string         `json:"content"`
	TranslatedContent *string        `json:"translatedContent"`
	IsUser            bool           `json:"isUser"`
	Language          string         `json:"language"`
	ContextScore      *float64       `json:"contextScore"`
	Timestamp         time.Time      `json:"timestamp"`
	FeedbackScore     *int           `json:"feedbackScore"`
	Metadata          map[string]any `json:"metadata"`
}

type FeedbackEntry struct {
	ID           int64     `json:"id"`
	MessageID    int64     `json:"messageId"`
	FeedbackType string    `json:"feedbackType"`
	Category     *string   `json:"category"`
	Suggestion   *string   `json:"suggestion"`
	CreatedAt    time.Time `json:"createdAt"`
	Applied      bool      `json:"applied"`
}

type LearningMetrics struct {
	TotalTranslations      int64   `json:"totalTranslations"`
	AccuracyScore          float64 `json:"accuracyScore"`
	ContextAccuracy        float64 `json:"contextAccuracy"`
	LearningRate           float64 `json:"learningRate"`
	PositiveFeedback       int64   `json:"positiveFeedback"`
	NegativeFeedback       int64   `json:"negativeFeedback"`
	ImprovementSuggestions int64   `json:"improvementSuggestions"`
}

type LearningPattern struct {
	ID        int64     `json:"id"`
	Pattern   string    `json:"pattern"`
	Frequency int       `json:"frequency"`
	Accuracy  float64   `json:"accuracy"`
	LastSeen  time.Time `json:"lastSeen"`
	Category  string    `json:"category"`
}

type ListConversationsRequest struct{}

type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type GetConversationRequest struct {
	ID int64 `json:"id"`
}

type GetConversationResponse struct {
	Conversation Conversation `json:"conversation"`
}

type CreateConversationRequest struct {
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

type CreateConversationResponse struct {
	Conversation Conversation `json:"conversation"`
}

type UpdateConversationRequest struct {
	ID     int64   `json:"id"`
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
}

type UpdateConversationResponse struct {
	Conversation Conversation `json:"conversation"`
}

type ListMessagesRequest struct {
	ConversationID int64 `json:"conversationId"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type CreateMessageRequest struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
	Language       string `json:"language"`
	IsUser         bool   `json:"isUser"`
}

type CreateMessageResponse struct {
	Message Message `json:"message"`
}

type SubmitFeedbackRequest struct {
	MessageID    int64   `json:"messageId"`
	FeedbackType string  `json:"feedbackType"`
	Category     *string `json:"category,omitempty"`
	Suggestion   *string `json:"suggestion,omitempty"`
}

type SubmitFeedbackResponse struct {
	Feedback FeedbackEntry `json:"feedback"`
}

// ListFeedbackRequest filters by message; a zero MessageID lists every entry.
type ListFeedbackRequest struct {
	MessageID int64 `json:"messageId,omitempty"`
}

type ListFeedbackResponse struct {
	Feedback []FeedbackEntry `json:"feedback"`
}

type GetLearningMetricsRequest struct{}

type GetLearningMetricsResponse struct {
	Metrics LearningMetrics `json:"metrics"`
}

type GetLearningPatternsRequest struct{}

type GetLearningPatternsResponse struct {
	Patterns []LearningPattern `json:"patterns"`
}
