// Package suggest builds completion suggester queries and parses candidates.
package suggest

import (
	"context"
	"fmt"

	"github.com/kestrel-sec/detdex/internal/es"
)

// Suggester configuration: a dedicated completion field distinct from the
// main searchable text, fuzzy matching from 3 characters up.
const (
	suggesterName  = "suggestions"
	suggestField   = "name.suggest"
	fuzzyMinLength = 3
)

// Repo executes completion suggest queries against the backend.
type Repo struct {
	backend es.Suggester
}

// New creates a suggestion repository.
func New(backend es.Suggester) *Repo {
	return &Repo{backend: backend}
}

// Suggest returns ranked completion candidates for the prefix.
func (r *Repo) Suggest(ctx context.Context, index, prefix string, limit int) ([]string, error) {
	body := &es.SuggestBody{
		Suggest: map[string]es.CompletionSuggester{
			suggesterName: {
				Prefix: prefix,
				Completion: &es.Completion{
					Field:          suggestField,
					Size:           limit,
					SkipDuplicates: true,
					Fuzzy: &es.Fuzzy{
						Fuzziness: "AUTO",
						MinLength: fuzzyMinLength,
					},
				},
			},
		},
		Source: false,
	}

	resp, err := r.backend.Suggest(ctx, index, body)
	if err != nil {
		return nil, fmt.Errorf("suggest %s: %w", index, err)
	}

	var suggestions []string
	for _, entry := range resp.Suggest[suggesterName] {
		for _, opt := range entry.Options {
			suggestions = append(suggestions, opt.Text)
		}
	}
	return suggestions, nil
}
