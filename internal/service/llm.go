package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Loquest/Mentl2/internal"
)

// ErrLLMUnavailable is returned when no language model is configured.
var ErrLLMUnavailable = errors.New("AI service not configured")

// Completer is the part of llms.Model the services call.
type Completer interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewLLM builds an OpenAI-compatible chat model. An empty key yields (nil, nil).
func NewLLM(apiKey, baseURL, model string) (llms.Model, error) {
	if apiKey == "" {
		return nil, nil
	}
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return m, nil
}

func textMessage(role llms.ChatMessageType, text string) llms.MessageContent {
	return llms.MessageContent{Role: role, Parts: []llms.ContentPart{llms.TextPart(text)}}
}

func historyMessages(history []internal.ChatMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(history))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		out = append(out, textMessage(role, m.Content))
	}
	return out
}

// generate sends messages and returns the first choice's trimmed text.
func generate(ctx context.Context, llm Completer, messages []llms.MessageContent, options ...llms.CallOption) (string, error) {
	if llm == nil {
		return "", ErrLLMUnavailable
	}
	resp, err := llm.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("generate content: empty response")
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", errors.New("generate content: empty response")
	}
	return text, nil
}
