// Package catalog searches stored templates by name, industry, and category.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/goliatone/go-reportgen/pkg/store"
)

// Query filters and ranks templates. An empty Text lists every match of the
// filters ordered by name.
type Query struct {
	Text       string
	Industry   string
	Category   string
	PublicOnly bool
	Limit      int
}

// Hit is one ranked result.
type Hit struct {
	Entry store.Entry
	Score int
	// Matched holds rune offsets into the searchable text returned by Haystack.
	Matched []int
}

// Catalog wraps a template store.
type Catalog struct {
	templates store.TemplateStore
}

// New constructs a Catalog.
func New(templates store.TemplateStore) *Catalog {
	return &Catalog{templates: templates}
}

// Search lists templates passing the filters and ranks them against q.Text.
func (c *Catalog) Search(ctx context.Context, q Query) ([]Hit, error) {
	entries, err := c.templates.ListTemplates(ctx, store.ListOptions{
		Industry:   q.Industry,
		Category:   q.Category,
		PublicOnly: q.PublicOnly,
	})
	if err != nil {
		return nil, err
	}
	hits := Rank(entries, q.Text)
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

// Haystack is the text a template is matched against.
func Haystack(e store.Entry) string {
	parts := []string{e.Template.Name, e.Template.Industry, e.Template.Category, e.Template.ReportType}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Rank orders entries by fuzzy score against text; ties keep name order.
func Rank(entries []store.Entry, text string) []Hit {
	sorted := append([]store.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Template.Name) < strings.ToLower(sorted[j].Template.Name)
	})

	text = strings.TrimSpace(text)
	if text == "" {
		hits := make([]Hit, len(sorted))
		for i, e := range sorted {
			hits[i] = Hit{Entry: e}
		}
		return hits
	}

	haystack := make([]string, len(sorted))
	for i, e := range sorted {
		haystack[i] = Haystack(e)
	}
	matches := fuzzy.Find(text, haystack)
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, Hit{Entry: sorted[m.Index], Score: m.Score, Matched: m.MatchedIndexes})
	}
	return hits
}
