package apiv1

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// ChatServiceClient is a typed client for ChatService.
type ChatServiceClient struct {
	listConversations   *connect.Client[ListConversationsRequest, ListConversationsResponse]
	getConversation     *connect.Client[GetConversationRequest, GetConversationResponse]
	createConversation  *connect.Client[CreateConversationRequest, CreateConversationResponse]
	updateConversation  *connect.Client[UpdateConversationRequest, UpdateConversationResponse]
	listMessages        *connect.Client[ListMessagesRequest, ListMessagesResponse]
	createMessage       *connect.Client[CreateMessageRequest, CreateMessageResponse]
	submitFeedback      *connect.Client[SubmitFeedbackRequest, SubmitFeedbackResponse]
	listFeedback        *connect.Client[ListFeedbackRequest, ListFeedbackResponse]
	getLearningMetrics  *connect.Client[GetLearningMetricsRequest, GetLearningMetricsResponse]
	getLearningPatterns *connect.Client[GetLearningPatternsRequest, GetLearningPatternsResponse]
}

// NewChatServiceClient creates a client for the server at baseURL, e.g. http://localhost:8080.
func NewChatServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ChatServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)

	return &ChatServiceClient{
		listConversations:   connect.NewClient[ListConversationsRequest, ListConversationsResponse](httpClient, baseURL+ChatServiceListConversationsProcedure, opts...),
		getConversation:     connect.NewClient[GetConversationRequest, GetConversationResponse](httpClient, baseURL+ChatServiceGetConversationProcedure, opts...),
		createConversation:  connect.NewClient[CreateConversationRequest, CreateConversationResponse](httpClient, baseURL+ChatServiceCreateConversationProcedure, opts...),
		updateConversation:  connect.NewClient[UpdateConversationRequest, UpdateConversationResponse](httpClient, baseURL+ChatServiceUpdateConversationProcedure, opts...),
		listMessages:        connect.NewClient[ListMessagesRequest, ListMessagesResponse](httpClient, baseURL+ChatServiceListMessagesProcedure, opts...),
		createMessage:       connect.NewClient[CreateMessageRequest, CreateMessageResponse](httpClient, baseURL+ChatServiceCreateMessageProcedure, opts...),
		submitFeedback:      connect.NewClient[SubmitFeedbackRequest, SubmitFeedbackResponse](httpClient, baseURL+ChatServiceSubmitFeedbackProcedure, opts...),
		listFeedback:        connect.NewClient[ListFeedbackRequest, ListFeedbackResponse](httpClient, baseURL+ChatServiceListFeedbackProcedure, opts...),
		getLearningMetrics:  connect.NewClient[GetLearningMetricsRequest, GetLearningMetricsResponse](httpClient, baseURL+ChatServiceGetLearningMetricsProcedure, opts...),
		getLearningPatterns: connect.NewClient[GetLearningPatternsRequest, GetLearningPatternsResponse](httpClient, baseURL+ChatServiceGetLearningPatternsProcedure, opts...),
	}
}

func (c *ChatServiceClient) ListConversations(ctx context.Context, req *ListConversationsRequest) (*ListConversationsResponse, error) {
	return call(ctx, c.listConversations, req)
}

func (c *ChatServiceClient) GetConversation(ctx context.Context, req *GetConversationRequest) (*GetConversationResponse, error) {
	return call(ctx, c.getConversation, req)
}

func (c *ChatServiceClient) CreateConversation(ctx context.Context, req *CreateConversationRequest) (*CreateConversationResponse, error) {
	return call(ctx, c.createConversation, req)
}

func (c *ChatServiceClient) UpdateConversation(ctx context.Context, req *UpdateConversationRequest) (*UpdateConversationResponse, error) {
	return call(ctx, c.updateConversation, req)
}

func (c *ChatServiceClient) ListMessages(ctx context.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	return call(ctx, c.listMessages, req)
}

func (c *ChatServiceClient) CreateMessage(ctx context.Context, req *CreateMessageRequest) (*CreateMessageResponse, error) {
	return call(ctx, c.createMessage, req)
}

func (c *ChatServiceClient) SubmitFeedback(ctx context.Context, req *SubmitFeedbackRequest) (*SubmitFeedbackResponse, error) {
	return call(ctx, c.submitFeedback, req)
}

func (c *ChatServiceClient) ListFeedback(ctx context.Context, req *ListFeedbackRequest) (*ListFeedbackResponse, error) {
	return call(ctx, c.listFeedback, req)
}

func (c *ChatServiceClient) GetLearningMetrics(ctx context.Context, req *GetLearningMetricsRequest) (*GetLearningMetricsResponse, error) {
	return call(ctx, c.getLearningMetrics, req)
}

func (c *ChatServiceClient) GetLearningPatterns(ctx context.Context, req *GetLearningPatternsRequest) (*GetLearningPatternsResponse, error) {
	return call(ctx, c.getLearningPatterns, req)
}

func call[Req, Res any](ctx context.Context, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
