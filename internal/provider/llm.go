package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seanmking/tradewizard-core/internal/config"
)

const (
	defaultLLMBaseURL = "https://api.openai.com/v1"
	defaultLLMModel   = "gpt-4-turbo-preview"
	defaultMaxTokens  = 1024
	llmTemperature    = 0.3
)

// LLMClient is the generic chat-completion provider used for structured
// classification prompts and insight synthesis.
type LLMClient struct {
	http      *httpClient
	model     string
	maxTokens int
}

// NewLLMClient creates an LLM client from provider configuration.
func NewLLMClient(cfg config.ProviderConfig) *LLMClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultLLMBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultLLMModel
	}

	return &LLMClient{
		model:     model,
		maxTokens: defaultMaxTokens,
		http: newHTTPClient(httpClientOptions{
			name:      "llm",
			baseURL:   baseURL,
			apiKey:    cfg.APIKey,
			authStyle: AuthBearer,
			rateLimit: cfg.RateLimit,
			timeout:   cfg.Timeout,
		}),
	}
}

// Available reports whether a credential is configured.
func (c *LLMClient) Available() bool {
	return c.http.available()
}

// chatResponse mirrors the chat-completion response envelope.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat-completion request and returns the raw content of the
// first choice.
func (c *LLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": llmTemperature,
		"max_tokens":  c.maxTokens,
	}

	var resp chatResponse
	if err := c.http.postJSON(ctx, "/chat/completions", requestBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &Error{
			Provider: "llm",
			Kind:     KindMalformedResponse,
			Message:  "no completion choices returned",
		}
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON sends a chat-completion request whose contract expects
// structured JSON output and unmarshals the content into out. A content parse
// failure is a provider failure, not a caller error.
func (c *LLMClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	content, err := c.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return &Error{
			Provider: "llm",
			Kind:     KindMalformedResponse,
			Message:  fmt.Sprintf("failed to parse JSON content: %v", err),
			Err:      err,
		}
	}

	return nil
}

// Close releases client resources.
func (c *LLMClient) Close() {
	c.http.Close()
}

// cleanMarkdownWrapper strips markdown code fences that models wrap around
// JSON despite instructions not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx != -1 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```json")
			content = strings.TrimPrefix(content, "```")
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}
