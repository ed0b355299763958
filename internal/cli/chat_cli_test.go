package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/conversation"
	mock_cli "github.com/at-ishikawa/lingochat/internal/mocks/cli"
)

func ptr[T any](v T) *T { return &v }

func reply(id int64, translation string, metadata map[string]any) *apiv1.CreateMessageResponse {
	return &apiv1.CreateMessageResponse{Message: apiv1.Message{
		ID:                id,
		ConversationID:    1,
		TranslatedContent: ptr(translation),
		Metadata:          metadata,
	}}
}

func TestChatCLI_Run(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name       string
		input      string
		setupMock  func(api *mock_cli.MockChatAPI)
		wantOutput []string
		wantErr    string
	}{
		{
			name:  "translates a line and submits positive feedback",
			input: "good morning\n/good\n/quit\n",
			setupMock: func(api *mock_cli.MockChatAPI) {
				gomock.InOrder(
					api.EXPECT().CreateMessage(gomock.Any(), &apiv1.CreateMessageRequest{
						ConversationID: 1, Content: "good morning", Language: "en", IsUser: true,
					}).Return(&apiv1.CreateMessageResponse{Message: apiv1.Message{ID: 10}}, nil),
					api.EXPECT().CreateMessage(gomock.Any(), &apiv1.CreateMessageRequest{
						ConversationID: 1, Content: "good morning", Language: "en",
					}).Return(reply(11, "좋은 아침이에요", map[string]any{
						"confidence": 0.82,
						"category":   "general",
						"insights":   []any{"basic pattern learning"},
					}), nil),
					api.EXPECT().SubmitFeedback(gomock.Any(), &apiv1.SubmitFeedbackRequest{
						MessageID: 11, FeedbackType: "positive",
					}).Return(&apiv1.SubmitFeedbackResponse{}, nil),
				)
			},
			wantOutput: []string{
				"좋은 아침이에요",
				"confidence 82% · general · basic pattern learning",
				"Thanks for the feedback",
			},
		},
		{
			name:  "fallback reply is flagged",
			input: "hello",
			setupMock: func(api *mock_cli.MockChatAPI) {
				api.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
					Return(&apiv1.CreateMessageResponse{Message: apiv1.Message{ID: 1}}, nil)
				api.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
					Return(reply(2, "죄송합니다", map[string]any{"fallback": true, "confidence": 0.3}), nil)
			},
			wantOutput: []string{"죄송합니다", "fallback reply", "confidence 30%"},
		},
		{
			name:  "switching language changes the request",
			input: "/lang ko\n점심 먹었어\n",
			setupMock: func(api *mock_cli.MockChatAPI) {
				api.EXPECT().CreateMessage(gomock.Any(), &apiv1.CreateMessageRequest{
					ConversationID: 1, Content: "점심 먹었어", Language: "ko", IsUser: true,
				}).Return(&apiv1.CreateMessageResponse{Message: apiv1.Message{ID: 1}}, nil)
				api.EXPECT().CreateMessage(gomock.Any(), &apiv1.CreateMessageRequest{
					ConversationID: 1, Content: "점심 먹었어", Language: "ko",
				}).Return(reply(2, "I had lunch", nil), nil)
			},
			wantOutput: []string{"Now typing in ko", "[ko] > ", "I had lunch"},
		},
		{
			name:       "feedback before any reply",
			input:      "/bad\n",
			setupMock:  func(api *mock_cli.MockChatAPI) {},
			wantOutput: []string{"Nothing to rate yet"},
		},
		{
			name:       "unknown command and bad usage",
			input:      "/foo\n/lang fr\n/suggest\n",
			setupMock:  func(api *mock_cli.MockChatAPI) {},
			wantOutput: []string{"Unknown command /foo", "Usage: /lang ko|en", "Usage: /suggest <text>"},
		},
		{
			name:  "suggestion feedback carries the text",
			input: "hi\n/suggest 안녕\n",
			setupMock: func(api *mock_cli.MockChatAPI) {
				api.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
					Return(&apiv1.CreateMessageResponse{Message: apiv1.Message{ID: 1}}, nil)
				api.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
					Return(reply(2, "안녕하세요", nil), nil)
				api.EXPECT().SubmitFeedback(gomock.Any(), &apiv1.SubmitFeedbackRequest{
					MessageID: 2, FeedbackType: "suggestion", Suggestion: ptr("안녕"),
				}).Return(&apiv1.SubmitFeedbackResponse{}, nil)
			},
			wantOutput: []string{"Thanks for the feedback"},
		},
		{
			name:  "api error ends the session",
			input: "hello\n",
			setupMock: func(api *mock_cli.MockChatAPI) {
				api.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("connection refused"))
			},
			wantErr: "api.CreateMessage(user) > connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			api := mock_cli.NewMockChatAPI(ctrl)
			tt.setupMock(api)

			var stdout bytes.Buffer
			cli := NewChatCLI(api, 1, conversation.LanguageEnglish, strings.NewReader(tt.input), &stdout)
			err := cli.Run(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOutput {
				assert.Contains(t, stdout.String(), want)
			}
		})
	}
}

func TestMetadataStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, metadataStrings([]string{"a", "b"}))
	assert.Equal(t, []string{"a"}, metadataStrings([]any{"a", 1}))
	assert.Nil(t, metadataStrings(nil))
}
