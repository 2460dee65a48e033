package report

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Persona is the system role sent with every summarization request.
const Persona = "You are an expert protein scientist specializing in protein engineering and deep mutational scanning."

const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 2000
	defaultTimeout     = 60 * time.Second
)

// Placeholder report texts used when no summary was produced. The bundle
// exporter excludes the report entry whenever one of these applies.
const (
	PlaceholderDisabled = "AI analysis was not enabled."
	PlaceholderNoKey    = "No API key found. Please provide one or set the environment variable."
)

// Summarizer posts constructed prompts to a provider's chat-completions
// endpoint. A failed or slow call degrades only the summary text, never the
// numeric results.
type Summarizer struct {
	Timeout time.Duration

	// newClient is swappable for tests.
	newClient func(p Provider, apiKey string) chatClient
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewSummarizer builds a summarizer with the advisory 60 second timeout.
func NewSummarizer() *Summarizer {
	return &Summarizer{
		Timeout: defaultTimeout,
		newClient: func(p Provider, apiKey string) chatClient {
			cfg := openai.DefaultConfig(apiKey)
			cfg.BaseURL = p.BaseURL
			return openai.NewClientWithConfig(cfg)
		},
	}
}

// Summarize sends the prompt and returns the model's report text.
func (s *Summarizer) Summarize(ctx context.Context, p Provider, apiKey, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: Persona},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	}

	resp, err := s.newClient(p, apiKey).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summarization call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarization returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
