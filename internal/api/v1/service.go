package apiv1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ChatServiceName is the fully-qualified name of the ChatService service.
const ChatServiceName = "lingochat.v1.ChatService"

// Procedure paths of ChatService.
const (
	ChatServiceListConversationsProcedure   = "/lingochat.v1.ChatService/ListConversations"
	ChatServiceGetConversationProcedure     = "/lingochat.v1.ChatService/GetConversation"
	ChatServiceCreateConversationProcedure  = "/lingochat.v1.ChatService/CreateConversation"
	ChatServiceUpdateConversationProcedure  = "/lingochat.v1.ChatService/UpdateConversation"
	ChatServiceListMessagesProcedure        = "/lingochat.v1.ChatService/ListMessages"
	ChatServiceCreateMessageProcedure       = "/lingochat.v1.ChatService/CreateMessage"
	ChatServiceSubmitFeedbackProcedure      = "/lingochat.v1.ChatService/SubmitFeedback"
	ChatServiceListFeedbackProcedure        = "/lingochat.v1.ChatService/ListFeedback"
	ChatServiceGetLearningMetricsProcedure  = "/lingochat.v1.ChatService/GetLearningMetrics"
	ChatServiceGetLearningPatternsProcedure = "/lingochat.v1.ChatService/GetLearningPatterns"
)

// ChatServiceHandler is implemented by the server.
type ChatServiceHandler interface {
	ListConversations(context.Context, *connect.Request[ListConversationsRequest]) (*connect.Response[ListConversationsResponse], error)
	GetConversation(context.Context, *connect.Request[GetConversationRequest]) (*connect.Response[GetConversationResponse], error)
	CreateConversation(context.Context, *connect.Request[CreateConversationRequest]) (*connect.Response[CreateConversationResponse], error)
	UpdateConversation(context.Context, *connect.Request[UpdateConversationRequest]) (*connect.Response[UpdateConversationResponse], error)
	ListMessages(context.Context, *connect.Request[ListMessagesRequest]) (*connect.Response[ListMessagesResponse], error)
	CreateMessage(context.Context, *connect.Request[CreateMessageRequest]) (*connect.Response[CreateMessageResponse], error)
	SubmitFeedback(context.Context, *connect.Request[SubmitFeedbackRequest]) (*connect.Response[SubmitFeedbackResponse], error)
	ListFeedback(context.Context, *connect.Request[ListFeedbackRequest]) (*connect.Response[ListFeedbackResponse], error)
	GetLearningMetrics(context.Context, *connect.Request[GetLearningMetricsRequest]) (*connect.Response[GetLearningMetricsResponse], error)
	GetLearningPatterns(context.Context, *connect.Request[GetLearningPatternsRequest]) (*connect.Response[GetLearningPatternsResponse], error)
}

// NewChatServiceHandler builds an HTTP handler serving every ChatService procedure.
// It returns the path to mount the handler on.
func NewChatServiceHandler(svc ChatServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ChatServiceListConversationsProcedure, connect.NewUnaryHandler(ChatServiceListConversationsProcedure, svc.ListConversations, opts...))
	mux.Handle(ChatServiceGetConversationProcedure, connect.NewUnaryHandler(ChatServiceGetConversationProcedure, svc.GetConversation, opts...))
	mux.Handle(ChatServiceCreateConversationProcedure, connect.NewUnaryHandler(ChatServiceCreateConversationProcedure, svc.CreateConversation, opts...))
	mux.Handle(ChatServiceUpdateConversationProcedure, connect.NewUnaryHandler(ChatServiceUpdateConversationProcedure, svc.UpdateConversation, opts...))
	mux.Handle(ChatServiceListMessagesProcedure, connect.NewUnaryHandler(ChatServiceListMessagesProcedure, svc.ListMessages, opts...))
	mux.Handle(ChatServiceCreateMessageProcedure, connect.NewUnaryHandler(ChatServiceCreateMessageProcedure, svc.CreateMessage, opts...))
	mux.Handle(ChatServiceSubmitFeedbackProcedure, connect.NewUnaryHandler(ChatServiceSubmitFeedbackProcedure, svc.SubmitFeedback, opts...))
	mux.Handle(ChatServiceListFeedbackProcedure, connect.NewUnaryHandler(ChatServiceListFeedbackProcedure, svc.ListFeedback, opts...))
	mux.Handle(ChatServiceGetLearningMetricsProcedure, connect.NewUnaryHandler(ChatServiceGetLearningMetricsProcedure, svc.GetLearningMetrics, opts...))
	mux.Handle(ChatServiceGetLearningPatternsProcedure, connect.NewUnaryHandler(ChatServiceGetLearningPatternsProcedure, svc.GetLearningPatterns, opts...))
	return "/" + ChatServiceName + "/", mux
}

// UnimplementedChatServiceHandler returns CodeUnimplemented from every method.
type UnimplementedChatServiceHandler struct{}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(strings.TrimPrefix(procedure, "/")+" is not implemented"))
}

func (UnimplementedChatServiceHandler) ListConversations(context.Context, *connect.Request[ListConversationsRequest]) (*connect.Response[ListConversationsResponse], error) {
	return nil, unimplemented(ChatServiceListConversationsProcedure)
}

func (UnimplementedChatServiceHandler) GetConversation(context.Context, *connect.Request[GetConversationRequest]) (*connect.Response[GetConversationResponse], error) {
	return nil, unimplemented(ChatServiceGetConversationProcedure)
}

func (UnimplementedChatServiceHandler) CreateConversation(context.Context, *connect.Request[CreateConversationRequest]) (*connect.Response[CreateConversationResponse], error) {
	return nil, unimplemented(ChatServiceCreateConversationProcedure)
}

func (UnimplementedChatServiceHandler) UpdateConversation(context.Context, *connect.Request[UpdateConversationRequest]) (*connect.Response[UpdateConversationResponse], error) {
	return nil, unimplemented(ChatServiceUpdateConversationProcedure)
}

func (UnimplementedChatServiceHandler) ListMessages(context.Context, *connect.Request[ListMessagesRequest]) (*connect.Response[ListMessagesResponse], error) {
	return nil, unimplemented(ChatServiceListMessagesProcedure)
}

func (UnimplementedChatServiceHandler) CreateMessage(context.Context, *connect.Request[CreateMessageRequest]) (*connect.Response[CreateMessageResponse], error) {
	return nil, unimplemented(ChatServiceCreateMessageProcedure)
}

func (UnimplementedChatServiceHandler) SubmitFeedback(context.Context, *connect.Request[SubmitFeedbackRequest]) (*connect.Response[SubmitFeedbackResponse], error) {
	return nil, unimplemented(ChatServiceSubmitFeedbackProcedure)
}

func (UnimplementedChatServiceHandler) ListFeedback(context.Context, *connect.Request[ListFeedbackRequest]) (*connect.Response[ListFeedbackResponse], error) {
	return nil, unimplemented(ChatServiceListFeedbackProcedure)
}

func (UnimplementedChatServiceHandler) GetLearningMetrics(context.Context, *connect.Request[GetLearningMetricsRequest]) (*connect.Response[GetLearningMetricsResponse], error) {
	return nil, unimplemented(ChatServiceGetLearningMetricsProcedure)
}

func (UnimplementedChatServiceHandler) GetLearningPatterns(context.Context, *connect.Request[GetLearningPatternsRequest]) (*connect.Response[GetLearningPatternsResponse], error) {
	return nil, unimplemented(ChatServiceGetLearningPatternsProcedure)
}
