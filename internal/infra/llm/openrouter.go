package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"staysearch/internal/domain/search"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "anthropic/claude-3-haiku"
	appTitle       = "AI Airbnb Search"
)

var (
	ErrNotConfigured = errors.New("llm: api key not configured")
	ErrEmptyReply    = errors.New("llm: empty completion")
)

var (
	rankingSchema = jsonschema.MustCompileString("ranking.json", `{
		"type": "object",
		"required": ["ids"],
		"properties": {
			"ids": {"type": "array", "items": {"type": "string", "minLength": 1}, "maxItems": 40}
		}
	}`)
	suggestionsSchema = jsonschema.MustCompileString("suggestions.json", `{
		"type": "array",
		"items": {"type": "string", "minLength": 1}
	}`)
)

// Config for the OpenRouter chat-completions client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	AppURL  string
	Timeout time.Duration
}

// OpenRouter ranks candidates and drafts query suggestions through a hosted model.
type OpenRouter struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewOpenRouter(cfg Config, logger *slog.Logger) *OpenRouter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.AppURL == "" {
		cfg.AppURL = "http://localhost:3000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenRouter{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

// Enabled reports whether an API key was configured.
func (o *OpenRouter) Enabled() bool {
	return o != nil && o.cfg.APIKey != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

const rankingPrompt = `You rank vacation rental listings for a traveller.
You receive the traveller's request, the criteria extracted from it and a list of candidate listings.
Pick the listings that best fit the request, best first, using only ids from the candidate list.
Return ONLY a JSON object of the form {"ids": ["id1", "id2"]} with at most %d ids.`

// SelectBest returns candidate ids in preference order.
func (o *OpenRouter) SelectBest(ctx context.Context, query string, summaries []search.CandidateSummary, criteria search.Criteria) ([]string, error) {
	if !o.Enabled() {
		return nil, ErrNotConfigured
	}
	payload, err := json.Marshal(struct {
		Request    string                    `json:"request"`
		Criteria   search.Criteria           `json:"criteria"`
		Candidates []search.CandidateSummary `json:"candidates"`
	}{Request: query, Criteria: criteria, Candidates: summaries})
	if err != nil {
		return nil, fmt.Errorf("encode candidates: %w", err)
	}
	reply, err := o.complete(ctx, []message{
		{Role: "system", Content: fmt.Sprintf(rankingPrompt, search.ResultSize)},
		{Role: "user", Content: string(payload)},
	}, 300)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := decodeReply(reply, &parsed); err != nil {
		return nil, err
	}
	if err := rankingSchema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("ranking reply rejected: %w", err)
	}
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := decodeReply(reply, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

const suggestPrompt = `Generate 5 helpful Airbnb search suggestions based on the partial query.

Return ONLY a JSON array of strings. Each suggestion should be a complete, natural search query.

Examples:
Input: "beach"
Output: ["Beach house in Malibu", "Beachfront condo in Miami", "Beach cottage for families", "Oceanview villa with pool", "Beach apartment in San Diego"]`

// Suggest completes a partial query into full search phrases.
func (o *OpenRouter) Suggest(ctx context.Context, partial string) ([]string, error) {
	if !o.Enabled() {
		return nil, ErrNotConfigured
	}
	reply, err := o.complete(ctx, []message{
		{Role: "system", Content: suggestPrompt},
		{Role: "user", Content: partial},
	}, 200)
	if err != nil {
		return nil, err
	}
	var parsed any
	if err := decodeReply(reply, &parsed); err != nil {
		return nil, err
	}
	if err := suggestionsSchema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("suggestions reply rejected: %w", err)
	}
	var out []string
	if err := decodeReply(reply, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping lists models, which needs a valid key but costs no tokens.
func (o *OpenRouter) Ping(ctx context.Context) error {
	if !o.Enabled() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"/models", http.NoBody)
	if err != nil {
		return err
	}
	o.setHeaders(req)
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("openrouter ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (o *OpenRouter) complete(ctx context.Context, messages []message, maxTokens int) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	o.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		o.logger.Warn("openrouter request failed", "error", err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("openrouter returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		o.logger.Warn("openrouter returned error", "status", resp.StatusCode, "error", err)
		return "", err
	}
	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	o.logger.Debug("openrouter completion", "model", o.cfg.Model, "took", time.Since(start))
	return decoded.Choices[0].Message.Content, nil
}

func (o *OpenRouter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("HTTP-Referer", o.cfg.AppURL)
	req.Header.Set("X-Title", appTitle)
}

// decodeReply strips markdown code fences before decoding.
func decodeReply(reply string, v any) error {
	if err := json.Unmarshal([]byte(stripFences(reply)), v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
