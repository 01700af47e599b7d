package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// DefaultModel is a free-tier model suitable for short follow-up questions.
const DefaultModel = "deepseek/deepseek-chat-v3-0324:free"

// FallbackQuestion is returned whenever the provider cannot supply
// usable text. Callers always receive a non-empty question.
const FallbackQuestion = "Please elaborate on the main point of your submission."

// Generation is bounded and mildly creative; a follow-up question is a
// sentence or two at most.
const (
	maxTokens   = 70
	temperature = 0.7
)

// FallbackReason tags why a result fell back to the canned question.
type FallbackReason string

const (
	FallbackNoAPIKey      FallbackReason = "no_api_key"
	FallbackRequestFailed FallbackReason = "request_failed"
	FallbackEmptyResponse FallbackReason = "empty_response"
)

// QuestionResult holds either the generated follow-up question or the
// fallback text together with the reason the provider was bypassed.
type QuestionResult struct {
	Question string
	Fallback bool
	Reason   FallbackReason
}

// Client wraps an OpenAI-compatible API client pointed at OpenRouter.
type Client struct {
	api    *openai.Client
	apiKey string
	model  string
}

// New creates a new relay client. An empty baseURL selects OpenRouter,
// an empty modelName selects the default model.
func New(baseURL, apiKey, modelName string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{Transport: attributionTransport{http.DefaultTransport}}
	return &Client{
		api:    openai.NewClientWithConfig(config),
		apiKey: apiKey,
		model:  modelName,
	}
}

// GenerateFollowUp asks the provider for one follow-up question probing
// the student's understanding of their own submission. It is a single
// best-effort attempt: any failure is absorbed into the fallback
// question so the caller always gets usable text.
func (c *Client) GenerateFollowUp(ctx context.Context, assignmentPrompt, submissionContent, systemPrompt string) QuestionResult {
	if c.apiKey == "" {
		slog.Warn("no API key configured, returning fallback question")
		return fallback(FallbackNoAPIKey)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(assignmentPrompt, submissionContent)},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		slog.Error("chat completion request failed", "model", c.model, "error", err)
		return fallback(FallbackRequestFailed)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("chat completion returned no choices", "model", c.model)
		return fallback(FallbackEmptyResponse)
	}

	question := strings.TrimSpace(resp.Choices[0].Message.Content)
	if question == "" {
		slog.Warn("chat completion returned empty content", "model", c.model)
		return fallback(FallbackEmptyResponse)
	}
	return QuestionResult{Question: question}
}

func fallback(reason FallbackReason) QuestionResult {
	return QuestionResult{Question: FallbackQuestion, Fallback: true, Reason: reason}
}

func buildUserMessage(assignmentPrompt, submissionContent string) string {
	var sb strings.Builder
	sb.WriteString("Assignment Prompt:\n")
	sb.WriteString(assignmentPrompt)
	sb.WriteString("\n\nStudent Submission:\n```\n")
	sb.WriteString(submissionContent)
	sb.WriteString("\n```\nGenerate a follow-up question:")
	return sb.String()
}

// attributionTransport adds the app-identification headers OpenRouter
// asks integrations to send.
type attributionTransport struct {
	base http.RoundTripper
}

func (t attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", "https://github.com/thoughtcaptcha/backend")
	req.Header.Set("X-Title", "ThoughtCaptcha")
	return t.base.RoundTrip(req)
}
