package insights

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/serroba/podpulse/internal/upstream"
)

const (
	OpenAIService = "openai"

	openAIMaxTokens   = 300
	openAITemperature = 0.5
)

// OpenAI generates takeaways through the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a chat client. baseURL may be empty for the public API.
func NewOpenAI(apiKey, baseURL string, httpClient *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: openai.GPT4}
}

func (o *OpenAI) Generate(ctx context.Context, text string, meta Meta) ([]string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful assistant."},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, meta)},
		},
		MaxTokens:   openAIMaxTokens,
		Temperature: openAITemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", upstream.ErrUnavailable, OpenAIService, err)
	}

	if len(resp.Choices) == 0 {
		return nil, upstream.Invalid(OpenAIService, "no choices")
	}

	lines := splitLines(resp.Choices[0].Message.Content, func(line string) bool {
		return line != "" && !strings.Contains(line, "http")
	})

	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	return lines, nil
}

func buildPrompt(text string, meta Meta) string {
	title := meta.Title
	if title == "" {
		title = "Unknown"
	}

	category := meta.Category
	if category == "" {
		category = "General"
	}

	return fmt.Sprintf(`Podcast Title: %s
Category: %s
Description: %s.
Generate three concise, actionable, and insightful takeaways for this podcast. Ensure that the insights are:
1. Relevant to the topic.
2. Written in a clear and professional tone.
3. Useful for the target audience.`, title, category, strings.TrimSpace(text))
}
