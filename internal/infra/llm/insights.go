package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"staysearch/internal/domain/search"
)

var (
	insightsSchema = jsonschema.MustCompileString("insights.json", `{
		"type": "object",
		"required": ["ai_highlights", "best_for", "local_tips"],
		"properties": {
			"ai_highlights": {"type": "array", "items": {"type": "string", "minLength": 1}, "minItems": 1, "maxItems": 4},
			"best_for": {"type": "string", "minLength": 1, "maxLength": 200},
			"local_tips": {"type": "array", "items": {"type": "string", "minLength": 1}, "maxItems": 3}
		}
	}`)
	summarySchema = jsonschema.MustCompileString("summary.json", `{
		"type": "object",
		"required": ["ai_summary"],
		"properties": {
			"ai_summary": {"type": "string", "minLength": 1, "maxLength": 400}
		}
	}`)
)

const enhancePrompt = `You are an AI assistant that enhances Airbnb property details with helpful insights.

Return ONLY a JSON object with these fields:
- "ai_highlights": array of 3-4 key selling points
- "best_for": string describing who this property is ideal for
- "local_tips": array of 2-3 local area insights

Be concise.`

// Enhance drafts highlights and local tips for one property.
func (o *OpenRouter) Enhance(ctx context.Context, p search.Property) (search.Insights, error) {
	if !o.Enabled() {
		return search.Insights{}, ErrNotConfigured
	}
	payload, err := json.Marshal(struct {
		search.CandidateSummary
		Description string `json:"description,omitempty"`
	}{CandidateSummary: search.Summarize(p), Description: p.Description})
	if err != nil {
		return search.Insights{}, fmt.Errorf("encode property: %w", err)
	}
	reply, err := o.complete(ctx, []message{
		{Role: "system", Content: enhancePrompt},
		{Role: "user", Content: "Property: " + string(payload)},
	}, 600)
	if err != nil {
		return search.Insights{}, err
	}

	var parsed any
	if err := decodeReply(reply, &parsed); err != nil {
		return search.Insights{}, err
	}
	if err := insightsSchema.Validate(parsed); err != nil {
		return search.Insights{}, fmt.Errorf("insights reply rejected: %w", err)
	}
	var out struct {
		Highlights []string `json:"ai_highlights"`
		BestFor    string   `json:"best_for"`
		LocalTips  []string `json:"local_tips"`
	}
	if err := decodeReply(reply, &out); err != nil {
		return search.Insights{}, err
	}
	return search.Insights{
		Highlights: out.Highlights,
		BestFor:    strings.TrimSpace(out.BestFor),
		LocalTips:  append([]string{}, out.LocalTips...),
	}, nil
}

const summaryPrompt = `You summarise vacation rental search results for a traveller.
You receive the traveller's request and the listings found.
Return ONLY a JSON object of the form {"ai_summary": "..."} with 1-2 sentences about the results.`

// Summarize writes a short overview of the returned properties.
func (o *OpenRouter) Summarize(ctx context.Context, query string, properties []search.Property) (string, error) {
	if !o.Enabled() {
		return "", ErrNotConfigured
	}
	summaries := make([]search.CandidateSummary, 0, len(properties))
	for _, p := range properties {
		summaries = append(summaries, search.Summarize(p))
	}
	payload, err := json.Marshal(struct {
		Request string                    `json:"request"`
		Results []search.CandidateSummary `json:"results"`
	}{Request: query, Results: summaries})
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	reply, err := o.complete(ctx, []message{
		{Role: "system", Content: summaryPrompt},
		{Role: "user", Content: string(payload)},
	}, 200)
	if err != nil {
		return "", err
	}

	var parsed any
	if err := decodeReply(reply, &parsed); err != nil {
		return "", err
	}
	if err := summarySchema.Validate(parsed); err != nil {
		return "", fmt.Errorf("summary reply rejected: %w", err)
	}
	var out struct {
		Summary string `json:"ai_summary"`
	}
	if err := decodeReply(reply, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Summary), nil
}
