package interpret

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"staysearch/internal/domain/search"
)

var (
	dangerousScheme = regexp.MustCompile(`(?i)\b(javascript|vbscript|data)\s*:`)
	eventAttribute  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
)

// markupPasses bounds how often entity-encoded markup is re-parsed.
const markupPasses = 2

// Sanitize strips markup and script payloads, collapses whitespace and bounds the length.
// Entity-encoded tags are decoded by the first parse and removed by the next.
func Sanitize(raw string) string {
	s := raw
	for i := 0; i < markupPasses && strings.ContainsAny(s, "<&"); i++ {
		s = stripMarkup(s)
	}
	s = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = dangerousScheme.ReplaceAllString(s, " ")
	s = eventAttribute.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > search.MaxQueryRunes {
		s = strings.TrimSpace(string(runes[:search.MaxQueryRunes]))
	}
	return s
}

// stripMarkup parses s as an HTML fragment and keeps the text of every node
// outside script-like elements. Unterminated tags are dropped by the tokenizer.
func stripMarkup(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style, iframe, object, noscript").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}
