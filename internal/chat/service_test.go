package chat

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/lingochat/internal/config"
	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/inference"
	"github.com/at-ishikawa/lingochat/internal/insight"
	"github.com/at-ishikawa/lingochat/internal/metrics"
	mock_inference "github.com/at-ishikawa/lingochat/internal/mocks/inference"
	"github.com/at-ishikawa/lingochat/internal/pattern"
)

var testSeed = metrics.LearningMetrics{AccuracyScore: 85, ContextAccuracy: 80, LearningRate: 10}

type testEnv struct {
	service    *Service
	repo       *conversation.MemoryRepository
	aggregator *metrics.Aggregator
}

func newTestEnv(t *testing.T, responder inference.Client, timeout time.Duration) testEnv {
	t.Helper()

	repo := conversation.NewMemoryRepository()
	aggregator := metrics.NewAggregator(testSeed, metrics.WithStep(func() float64 { return 0.25 }))
	generator := insight.NewGenerator(func(string) float64 { return 0.8 })

	service, err := NewService(repo, aggregator, generator, responder, config.ResponderConfig{
		Timeout:     timeout,
		HistorySize: 2,
	})
	require.NoError(t, err)
	return testEnv{service: service, repo: repo, aggregator: aggregator}
}

func (env testEnv) createConversation(t *testing.T) *conversation.Conversation {
	t.Helper()
	c, err := env.service.CreateConversation(context.Background(), CreateConversationInput{Title: "Business Korean"})
	require.NoError(t, err)
	return c
}

func TestService_CreateMessage_User(t *testing.T) {
	ctrl := gomock.NewController(t)
	// A user message must never reach the responder.
	env := newTestEnv(t, mock_inference.NewMockClient(ctrl), time.Second)
	ctx := context.Background()
	c := env.createConversation(t)

	got, err := env.service.CreateMessage(ctx, CreateMessageInput{
		ConversationID: c.ID,
		Content:        "회의 일정 변경해야 할 것 같아요",
		Language:       conversation.LanguageKorean,
		IsUser:         true,
	})
	require.NoError(t, err)

	assert.Nil(t, got.TranslatedContent)
	require.NotNil(t, got.ContextScore)
	assert.Equal(t, insight.UserScore, *got.ContextScore)
	assert.Equal(t, []pattern.Category{pattern.CategoryBusiness}, got.Metadata.Patterns)
	assert.Equal(t, pattern.CategoryBusiness, got.Metadata.Category)
	assert.Nil(t, got.Metadata.Confidence)
	assert.Equal(t, []string{insight.InsightBasic}, got.Metadata.Insights)
	assert.False(t, got.Metadata.Fallback)

	updated, err := env.repo.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalExchanges)
	assert.InDelta(t, 0.25, updated.AccuracyImprovement, 1e-9)

	m := env.aggregator.Metrics()
	assert.Equal(t, int64(1), m.TotalTranslations)
	assert.InDelta(t, 85.25, m.AccuracyScore, 1e-9)
	assert.InDelta(t, 90, m.ContextAccuracy, 1e-9)

	patterns := env.aggregator.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, pattern.CategoryBusiness, patterns[0].Category)
	assert.Equal(t, 100.0, patterns[0].Accuracy)
	assert.Equal(t, 1, patterns[0].Frequency)
}

func TestService_CreateMessage_Generated(t *testing.T) {
	ctrl := gomock.NewController(t)
	responder := mock_inference.NewMockClient(ctrl)
	env := newTestEnv(t, responder, time.Second)
	ctx := context.Background()
	c := env.createConversation(t)

	for _, content := range []string{"first", "second", "third"} {
		_, err := env.service.CreateMessage(ctx, CreateMessageInput{
			ConversationID: c.ID, Content: content, Language: conversation.LanguageEnglish, IsUser: true,
		})
		require.NoError(t, err)
	}

	responder.EXPECT().
		Generate(gomock.Any(), inference.GenerateRequest{
			Prompt:         "서버 배포는 언제 해요?",
			SourceLanguage: conversation.LanguageKorean,
			TargetLanguage: conversation.LanguageEnglish,
			History: []inference.Turn{
				{Content: "second", IsUser: true, Language: conversation.LanguageEnglish},
				{Content: "third", IsUser: true, Language: conversation.LanguageEnglish},
			},
		}).
		Return(inference.GenerateResponse{Text: " When do we deploy the server? ", Confidence: 0.9}, nil)

	got, err := env.service.CreateMessage(ctx, CreateMessageInput{
		ConversationID: c.ID,
		Content:        "서버 배포는 언제 해요?",
		Language:       conversation.LanguageKorean,
		IsUser:         false,
	})
	require.NoError(t, err)

	require.NotNil(t, got.TranslatedContent)
	assert.Equal(t, "When do we deploy the server?", *got.TranslatedContent)
	require.NotNil(t, got.ContextScore)
	assert.Equal(t, 0.8, *got.ContextScore)
	require.NotNil(t, got.Metadata.Confidence)
	assert.Equal(t, 0.9, *got.Metadata.Confidence)
	assert.False(t, got.Metadata.Fallback)
	assert.Equal(t, []pattern.Category{pattern.CategoryTechnical, pattern.CategoryQuestion}, got.Metadata.Patterns)
	assert.Equal(t, pattern.CategoryTechnical, got.Metadata.Category)

	assert.Equal(t, int64(4), env.aggregator.Metrics().TotalTranslations)
	updated, err := env.repo.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.TotalExchanges)
}

func TestService_CreateMessage_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		response inference.GenerateResponse
		err      error
	}{
		{name: "responder error", err: errors.New("response error 503: unavailable")},
		{name: "empty text", response: inference.GenerateResponse{Text: "  ", Confidence: 0.9}},
		{name: "confidence above one", response: inference.GenerateResponse{Text: "hi", Confidence: 1.5}},
		{name: "negative confidence", response: inference.GenerateResponse{Text: "hi", Confidence: -0.1}},
		{name: "NaN confidence", response: inference.GenerateResponse{Text: "hi", Confidence: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			responder := mock_inference.NewMockClient(ctrl)
			env := newTestEnv(t, responder, time.Second)
			ctx := context.Background()
			c := env.createConversation(t)

			responder.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(tt.response, tt.err)

			got, err := env.service.CreateMessage(ctx, CreateMessageInput{
				ConversationID: c.ID,
				Content:        "hello",
				Language:       conversation.LanguageEnglish,
			})
			require.NoError(t, err)

			require.NotNil(t, got.TranslatedContent)
			assert.Equal(t, FallbackText(conversation.LanguageKorean), *got.TranslatedContent)
			require.NotNil(t, got.Metadata.Confidence)
			assert.Equal(t, FallbackConfidence, *got.Metadata.Confidence)
			assert.True(t, got.Metadata.Fallback)
			require.NotNil(t, got.ContextScore)
			assert.Equal(t, FallbackConfidence, *got.ContextScore)
			assert.Equal(t, []string{insight.InsightBasic}, got.Metadata.Insights)

			m := env.aggregator.Metrics()
			assert.Equal(t, int64(1), m.TotalTranslations)
			assert.InDelta(t, 55, m.ContextAccuracy, 1e-9)

			patterns := env.aggregator.Patterns()
			require.Len(t, patterns, 1)
			assert.InDelta(t, 30, patterns[0].Accuracy, 1e-9)
		})
	}
}

func TestService_CreateMessage_ResponderTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	responder := mock_inference.NewMockClient(ctrl)
	env := newTestEnv(t, responder, 20*time.Millisecond)
	ctx := context.Background()
	c := env.createConversation(t)

	responder.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ inference.GenerateRequest) (inference.GenerateResponse, error) {
			<-ctx.Done()
			return inference.GenerateResponse{}, ctx.Err()
		})

	got, err := env.service.CreateMessage(ctx, CreateMessageInput{
		ConversationID: c.ID,
		Content:        "hello",
		Language:       conversation.LanguageEnglish,
	})
	require.NoError(t, err)
	assert.True(t, got.Metadata.Fallback)
	assert.Equal(t, int64(1), env.aggregator.Metrics().TotalTranslations)
}

func TestService_CreateMessage_WithoutResponder(t *testing.T) {
	env := newTestEnv(t, nil, time.Second)
	c := env.createConversation(t)

	got, err := env.service.CreateMessage(context.Background(), CreateMessageInput{
		ConversationID: c.ID,
		Content:        "안녕하세요",
		Language:       conversation.LanguageKorean,
	})
	require.NoError(t, err)
	require.NotNil(t, got.TranslatedContent)
	assert.Equal(t, FallbackText(conversation.LanguageEnglish), *got.TranslatedContent)
	assert.True(t, got.Metadata.Fallback)
	require.NotNil(t, got.ContextScore)
	assert.Equal(t, FallbackConfidence, *got.ContextScore)
}

func TestService_CreateMessage_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		input      func(conversationID int64) CreateMessageInput
		wantFields []string
		wantErr    error
	}{
		{
			name: "missing content and language",
			input: func(id int64) CreateMessageInput {
				return CreateMessageInput{ConversationID: id, IsUser: true}
			},
			wantFields: []string{"content", "language"},
			wantErr:    ErrValidation,
		},
		{
			name: "blank content",
			input: func(id int64) CreateMessageInput {
				return CreateMessageInput{ConversationID: id, Content: "   ", Language: conversation.LanguageEnglish, IsUser: true}
			},
			wantFields: []string{"content"},
			wantErr:    ErrValidation,
		},
		{
			name: "unsupported language",
			input: func(id int64) CreateMessageInput {
				return CreateMessageInput{ConversationID: id, Content: "bonjour", Language: "fr", IsUser: true}
			},
			wantFields: []string{"language"},
			wantErr:    ErrValidation,
		},
		{
			name: "missing conversation id",
			input: func(int64) CreateMessageInput {
				return CreateMessageInput{Content: "hello", Language: conversation.LanguageEnglish, IsUser: true}
			},
			wantFields: []string{"conversationId"},
			wantErr:    ErrValidation,
		},
		{
			name: "unknown conversation",
			input: func(int64) CreateMessageInput {
				return CreateMessageInput{ConversationID: 999, Content: "hello", Language: conversation.LanguageEnglish}
			},
			wantErr: conversation.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			env := newTestEnv(t, mock_inference.NewMockClient(ctrl), time.Second)
			ctx := context.Background()
			c := env.createConversation(t)

			_, err := env.service.CreateMessage(ctx, tt.input(c.ID))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			if tt.wantFields != nil {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.wantFields, validationErr.Fields())
			}

			// Nothing was stored or counted.
			messages, err := env.repo.ListMessages(ctx, c.ID)
			require.NoError(t, err)
			assert.Empty(t, messages)
			assert.Equal(t, testSeed, env.aggregator.Metrics())
			assert.Empty(t, env.aggregator.Patterns())
		})
	}
}

func TestService_CreateMessage_Concurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	responder := mock_inference.NewMockClient(ctrl)
	env := newTestEnv(t, responder, time.Second)
	ctx := context.Background()
	c := env.createConversation(t)

	const n = 50
	responder.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(inference.GenerateResponse{Text: "translated", Confidence: 0.7}, nil).
		Times(n / 2)

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(isUser bool) {
			defer wg.Done()
			m, err := env.service.CreateMessage(ctx, CreateMessageInput{
				ConversationID: c.ID,
				Content:        "프로젝트 마감 언제예요?",
				Language:       conversation.LanguageKorean,
				IsUser:         isUser,
			})
			if assert.NoError(t, err) {
				ids <- m.ID
			}
		}(i%2 == 0)
	}
	wg.Wait()
	close(ids)

	unique := make(map[int64]struct{})
	for id := range ids {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, n)

	updated, err := env.repo.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, n, updated.TotalExchanges)

	messages, err := env.repo.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, messages, n)

	assert.Equal(t, int64(n), env.aggregator.Metrics().TotalTranslations)
	patterns := env.aggregator.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, n, patterns[0].Frequency)
}

func TestService_SubmitFeedback(t *testing.T) {
	suggestion := "Use 회의 instead of 미팅"
	category := "context"

	tests := []struct {
		name          string
		input         func(messageID int64) SubmitFeedbackInput
		wantScore     *int
		wantPositive  int64
		wantNegative  int64
		wantSuggested int64
	}{
		{
			name: "positive",
			input: func(id int64) SubmitFeedbackInput {
				return SubmitFeedbackInput{MessageID: id, FeedbackType: conversation.FeedbackPositive}
			},
			wantScore:    intPtr(5),
			wantPositive: 1,
		},
		{
			name: "negative",
			input: func(id int64) SubmitFeedbackInput {
				return SubmitFeedbackInput{MessageID: id, FeedbackType: conversation.FeedbackNegative}
			},
			wantScore:    intPtr(1),
			wantNegative: 1,
		},
		{
			name: "suggestion leaves the score untouched",
			input: func(id int64) SubmitFeedbackInput {
				return SubmitFeedbackInput{
					MessageID:    id,
					FeedbackType: conversation.FeedbackSuggestion,
					Category:     &category,
					Suggestion:   &suggestion,
				}
			},
			wantScore:     nil,
			wantSuggested: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, time.Second)
			ctx := context.Background()
			c := env.createConversation(t)
			m, err := env.service.CreateMessage(ctx, CreateMessageInput{
				ConversationID: c.ID, Content: "hello", Language: conversation.LanguageEnglish, IsUser: true,
			})
			require.NoError(t, err)

			entry, err := env.service.SubmitFeedback(ctx, tt.input(m.ID))
			require.NoError(t, err)
			assert.Equal(t, m.ID, entry.MessageID)
			assert.False(t, entry.Applied)

			stored, err := env.repo.GetMessage(ctx, m.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, stored.FeedbackScore)

			got := env.aggregator.Metrics()
			assert.Equal(t, tt.wantPositive, got.PositiveFeedback)
			assert.Equal(t, tt.wantNegative, got.NegativeFeedback)
			assert.Equal(t, tt.wantSuggested, got.ImprovementSuggestions)
			assert.Equal(t, int64(1), got.TotalTranslations)

			entries, err := env.service.ListFeedback(ctx, m.ID)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

type failingFeedbackRepository struct {
	*conversation.MemoryRepository
}

func (r failingFeedbackRepository) CreateFeedback(context.Context, conversation.NewFeedback) (*conversation.FeedbackEntry, error) {
	return nil, errors.New("insert feedback_entry: deadlock")
}

func TestService_SubmitFeedback_StoreFailure(t *testing.T) {
	repo := conversation.NewMemoryRepository()
	aggregator := metrics.NewAggregator(testSeed)
	service, err := NewService(failingFeedbackRepository{repo}, aggregator,
		insight.NewGenerator(func(string) float64 { return 0.8 }), nil, config.ResponderConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	c, err := service.CreateConversation(ctx, CreateConversationInput{Title: "chat"})
	require.NoError(t, err)
	m, err := service.CreateMessage(ctx, CreateMessageInput{
		ConversationID: c.ID, Content: "hello", Language: conversation.LanguageEnglish, IsUser: true,
	})
	require.NoError(t, err)

	_, err = service.SubmitFeedback(ctx, SubmitFeedbackInput{MessageID: m.ID, FeedbackType: conversation.FeedbackNegative})
	require.Error(t, err)

	stored, err := repo.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FeedbackScore)
	entries, err := repo.ListFeedback(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, aggregator.Metrics().NegativeFeedback)
}

func TestService_SubmitFeedback_Rejected(t *testing.T) {
	env := newTestEnv(t, nil, time.Second)
	ctx := context.Background()

	_, err := env.service.SubmitFeedback(ctx, SubmitFeedbackInput{MessageID: 42, FeedbackType: conversation.FeedbackPositive})
	assert.ErrorIs(t, err, conversation.ErrNotFound)

	category := "spelling"
	_, err = env.service.SubmitFeedback(ctx, SubmitFeedbackInput{MessageID: 42, FeedbackType: "neutral", Category: &category})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"feedbackType", "category"}, validationErr.Fields())

	got := env.aggregator.Metrics()
	assert.Zero(t, got.PositiveFeedback)
	assert.Zero(t, got.NegativeFeedback)
	assert.Zero(t, got.ImprovementSuggestions)

	_, err = env.service.ListFeedback(ctx, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Conversations(t *testing.T) {
	env := newTestEnv(t, nil, time.Second)
	ctx := context.Background()

	_, err := env.service.CreateConversation(ctx, CreateConversationInput{Title: "  "})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"title"}, validationErr.Fields())
	assert.Equal(t, "validation failed: title is a required field", validationErr.Error())

	c, err := env.service.CreateConversation(ctx, CreateConversationInput{Title: " Travel phrases "})
	require.NoError(t, err)
	assert.Equal(t, "Travel phrases", c.Title)
	assert.Equal(t, conversation.StatusActive, c.Status)

	status := conversation.StatusCompleted
	updated, err := env.service.UpdateConversation(ctx, UpdateConversationInput{ID: c.ID, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusCompleted, updated.Status)
	assert.Equal(t, "Travel phrases", updated.Title)

	blank := " "
	_, err = env.service.UpdateConversation(ctx, UpdateConversationInput{ID: c.ID, Title: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	title := "renamed"
	_, err = env.service.UpdateConversation(ctx, UpdateConversationInput{ID: 999, Title: &title})
	assert.ErrorIs(t, err, conversation.ErrNotFound)

	list, err := env.service.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.service.GetConversation(ctx, 999)
	assert.ErrorIs(t, err, conversation.ErrNotFound)

	messages, err := env.service.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func intPtr(v int) *int {
	return &v
}
