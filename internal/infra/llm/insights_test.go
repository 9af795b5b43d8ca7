package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staysearch/internal/domain/search"
	"staysearch/internal/domain/shared/money"
)

var lakehouse = search.Property{
	ID:          "tahoe-1",
	Title:       "Lakefront cabin",
	Description: "Hot tub and kayaks",
	Price:       money.Must(32000, "USD"),
	Location:    search.Location{City: "South Lake Tahoe", Country: "United States"},
	Guests:      8,
	Bedrooms:    4,
}

func TestEnhanceParsesInsights(t *testing.T) {
	reply := "```json\n" + `{"ai_highlights": ["On the lake", "Hot tub"], "best_for": " Families ", "local_tips": ["Rent a kayak"]}` + "\n```"
	srv := completionServer(t, reply, func(_ *http.Request, body completionRequest) {
		require.Len(t, body.Messages, 2)
		assert.Contains(t, body.Messages[1].Content, `"id":"tahoe-1"`)
		assert.Contains(t, body.Messages[1].Content, "Hot tub and kayaks")
		assert.Equal(t, 600, body.MaxTokens)
	})
	defer srv.Close()

	o := NewOpenRouter(Config{APIKey: "key", BaseURL: srv.URL}, nil)
	got, err := o.Enhance(context.Background(), lakehouse)

	require.NoError(t, err)
	assert.Equal(t, search.Insights{
		Highlights: []string{"On the lake", "Hot tub"},
		BestFor:    "Families",
		LocalTips:  []string{"Rent a kayak"},
	}, got)
}

func TestEnhanceRejectsMalformedReplies(t *testing.T) {
	for name, reply := range map[string]string{
		"prose":          "A lovely cabin.",
		"missing fields": `{"ai_highlights": ["Lake"]}`,
		"no highlights":  `{"ai_highlights": [], "best_for": "Families", "local_tips": []}`,
		"wrong type":     `{"ai_highlights": "Lake", "best_for": "Families", "local_tips": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := completionServer(t, reply, nil)
			defer srv.Close()
			o := NewOpenRouter(Config{APIKey: "key", BaseURL: srv.URL}, nil)
			_, err := o.Enhance(context.Background(), lakehouse)
			assert.Error(t, err)
		})
	}
}

func TestSummarize(t *testing.T) {
	srv := completionServer(t, `{"ai_summary": "Two lakefront cabins fit your group. "}`, func(_ *http.Request, body completionRequest) {
		assert.Contains(t, body.Messages[1].Content, `"request":"cabin at tahoe"`)
	})
	defer srv.Close()

	o := NewOpenRouter(Config{APIKey: "key", BaseURL: srv.URL}, nil)
	got, err := o.Summarize(context.Background(), "cabin at tahoe", []search.Property{lakehouse})

	require.NoError(t, err)
	assert.Equal(t, "Two lakefront cabins fit your group.", got)

	bad := completionServer(t, `{"summary": "x"}`, nil)
	defer bad.Close()
	_, err = NewOpenRouter(Config{APIKey: "key", BaseURL: bad.URL}, nil).Summarize(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestInsightsNeedKey(t *testing.T) {
	o := NewOpenRouter(Config{}, nil)
	_, err := o.Enhance(context.Background(), lakehouse)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = o.Summarize(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
