package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/lingochat/internal/inference"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model, baseURL string, retryAttempts uint) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Retry on JSON parsing errors as they might be due to incomplete responses
	errStr := err.Error()
	if strings.Contains(errStr, "json.Unmarshal") || strings.Contains(errStr, "unexpected end of JSON input") {
		return true
	}

	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// 5xx
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Rate limited
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

// Generate implements the inference.Client interface
func (client *Client) Generate(
	ctx context.Context,
	params inference.GenerateRequest,
) (inference.GenerateResponse, error) {
	var result inference.GenerateResponse
	if err := retry.Do(
		func() error {
			response, err := client.generate(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Info("Retrying OpenAI API call",
				"attempt", n+1,
				"error", err)
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.GenerateResponse{}, err
	}
	return result, nil
}

const systemPrompt = `You are a translator helping a learner hold a conversation in Korean and English.

GOAL
Translate the "prompt" text from "source_language" into "target_language".
Use "history" (oldest first) only to resolve references, tone and politeness level.
Keep the register of the original: formal Korean stays formal (습니다/입니다), casual stays casual.

OUTPUT
Return ONLY a JSON object: {"text": "<translation>", "confidence": <number between 0 and 1>}
"confidence" is how sure you are that the translation is accurate in this context.
No text outside the JSON.`

type generateInput struct {
	Prompt         string           `json:"prompt"`
	SourceLanguage string           `json:"source_language"`
	TargetLanguage string           `json:"target_language"`
	History        []inference.Turn `json:"history,omitempty"`
}

func languageName(language string) string {
	switch language {
	case "ko":
		return "Korean"
	case "en":
		return "English"
	}
	return language
}

func (client *Client) getRequestBody(args inference.GenerateRequest) (ChatCompletionRequest, error) {
	userContent := bytes.NewBuffer(nil)
	if err := json.NewEncoder(userContent).Encode(generateInput{
		Prompt:         args.Prompt,
		SourceLanguage: languageName(string(args.SourceLanguage)),
		TargetLanguage: languageName(string(args.TargetLanguage)),
		History:        args.History,
	}); err != nil {
		return ChatCompletionRequest{}, fmt.Errorf("failed to marshal generate input: %w", err)
	}

	return ChatCompletionRequest{
		Model:       client.model,
		Temperature: 0.3,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userContent.String()},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}, nil
}

func (client *Client) generate(
	ctx context.Context,
	args inference.GenerateRequest,
) (inference.GenerateResponse, error) {
	if strings.TrimSpace(args.Prompt) == "" {
		return inference.GenerateResponse{}, fmt.Errorf("empty prompt")
	}

	requestBody, err := client.getRequestBody(args)
	if err != nil {
		return inference.GenerateResponse{}, fmt.Errorf("getRequestBody > %w", err)
	}

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return inference.GenerateResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.GenerateResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return inference.GenerateResponse{}, fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return inference.GenerateResponse{}, fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"model", responseBody.Model,
		"totalTokens", responseBody.Usage.TotalTokens,
		"content", content,
	)

	var decoded inference.GenerateResponse
	if err := json.NewDecoder(strings.NewReader(content)).Decode(&decoded); err != nil {
		slog.Default().Error("Failed to parse OpenAI response as JSON",
			"sourceLanguage", args.SourceLanguage,
			"targetLanguage", args.TargetLanguage,
			"error", err)
		return inference.GenerateResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	return decoded, nil
}
