package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/serroba/podpulse/internal/upstream"
)

const (
	HuggingFaceService = "huggingface"

	DefaultGenerateURL  = "https://api-inference.huggingface.co/models/openai-community/gpt2"
	DefaultSummarizeURL = "https://api-inference.huggingface.co/models/facebook/bart-large-cnn"

	minLineLength    = 20
	citationPrefix   = "Citation:"
	summaryMinLength = 50
	summaryMaxLength = 150
)

// HuggingFace calls the hosted inference API for text generation and
// summarization.
type HuggingFace struct {
	api          *upstream.Client
	apiKey       string
	generateURL  string
	summarizeURL string
}

func NewHuggingFace(api *upstream.Client, apiKey, generateURL, summarizeURL string) *HuggingFace {
	if generateURL == "" {
		generateURL = DefaultGenerateURL
	}

	if summarizeURL == "" {
		summarizeURL = DefaultSummarizeURL
	}

	return &HuggingFace{
		api:          api,
		apiKey:       apiKey,
		generateURL:  generateURL,
		summarizeURL: summarizeURL,
	}
}

func (h *HuggingFace) Generate(ctx context.Context, text string, meta Meta) ([]string, error) {
	prompt := fmt.Sprintf("Generate actionable and concise insights for the podcast with ID: %s.", meta.PodcastID)
	if text = strings.TrimSpace(text); text != "" {
		prompt += " Description: " + text
	}

	var resp []struct {
		GeneratedText string `json:"generated_text"`
	}

	if err := h.post(ctx, h.generateURL, map[string]any{"inputs": prompt}, &resp); err != nil {
		return nil, err
	}

	if len(resp) == 0 || resp[0].GeneratedText == "" {
		return nil, ErrEmpty
	}

	return ParseGenerated(resp[0].GeneratedText)
}

// ParseGenerated keeps lines longer than 20 characters that are not citations.
// The first kept line usually echoes the prompt and is dropped when more than
// one line remains; a single line is not enough to be useful.
func ParseGenerated(raw string) ([]string, error) {
	lines := splitLines(raw, func(line string) bool {
		return len(line) > minLineLength && !strings.HasPrefix(line, citationPrefix)
	})

	if len(lines) <= 1 {
		return nil, ErrEmpty
	}

	return lines[1:], nil
}

func (h *HuggingFace) Summarize(ctx context.Context, text string) (string, error) {
	payload := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"max_length": summaryMaxLength,
			"min_length": summaryMinLength,
			"do_sample":  false,
		},
	}

	var resp []struct {
		SummaryText string `json:"summary_text"`
	}

	if err := h.post(ctx, h.summarizeURL, payload, &resp); err != nil {
		return "", err
	}

	if len(resp) == 0 {
		return "", upstream.Invalid(HuggingFaceService, "empty summarization response")
	}

	return strings.TrimSpace(resp[0].SummaryText), nil
}

func (h *HuggingFace) post(ctx context.Context, target string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return h.api.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Authorization", "Bearer "+h.apiKey)
		req.Header.Set("Content-Type", "application/json")

		return req, nil
	}, out)
}
