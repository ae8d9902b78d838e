package search

import (
	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/es"
)

// Relevance tuning constants.
const (
	boostedNameField        = "name^2.0"
	boostedDescriptionField = "description^1.5"
	boostedContentField     = "content^1.0"
	boostedTagsField        = "tags^1.0"

	// Queries of at most this many tokens reward a single strong field match;
	// longer queries accumulate evidence across fields.
	bestFieldsTokenLimit = 3

	minShouldMatch = "2"
	fuzzinessAuto  = "AUTO"
	fuzzyPrefixLen = 2
	maxExpansions  = 50
	tieBreaker     = 0.3

	recencyScale  = "30d"
	recencyDecay  = 0.5
	qualityFactor = 1.2

	queryTimeout = "1s"

	aggBucketSize = 20
)

// Cache hints let the backend reuse compiled filter bitsets across requests
// with identical facet values.
const (
	platformFilterName = "platform_filter"
	tagsFilterName     = "tags_filter"
	qualityFilterName  = "quality_filter"
)

// Result field projection: only what rendering needs.
var sourceFields = []string{
	"id", "name", "description", "platform_type",
	"quality_score", "created_at", "updated_at", "tags",
}

// BuildSearchBody translates a validated query into a backend search request:
// boosted text relevance, recency and quality scoring, filters, highlighting,
// facet aggregations, and pagination.
func BuildSearchBody(q *query.Query, profile bool) *es.SearchBody {
	textQuery := buildTextQuery(q)

	root := textQuery
	if filters := compileFilters(q); len(filters) > 0 {
		root = &es.Query{
			Bool: &es.BoolQuery{
				Must:   []es.Query{*textQuery},
				Filter: filters,
			},
		}
	}

	body := &es.SearchBody{
		Query:     root,
		From:      q.From(),
		Size:      q.Size(),
		Source:    sourceFields,
		Highlight: buildHighlight(q.Text()),
		Aggs: map[string]es.Agg{
			"platforms": {Terms: &es.AggTerms{Field: "platform_type", Size: aggBucketSize}},
			"tags":      {Terms: &es.AggTerms{Field: "tags", Size: aggBucketSize}},
		},
		Profile: profile,
		Timeout: queryTimeout,
	}
	if q.SortField() != "" {
		body.Sort = []es.SortClause{{Field: q.SortField(), Order: q.SortOrder()}}
	}
	return body
}

// buildTextQuery builds the boosted multi-field text query wrapped in a
// function score that multiplies relevance by the sum of a recency decay and
// a quality boost, favoring documents that are simultaneously relevant,
// recent, and high-quality.
func buildTextQuery(q *query.Query) *es.Query {
	matchType := "most_fields"
	if q.TokenCount() <= bestFieldsTokenLimit {
		matchType = "best_fields"
	}

	return &es.Query{
		FunctionScore: &es.FunctionScore{
			Query: &es.Query{
				MultiMatch: &es.MultiMatch{
					Query: q.Text(),
					Fields: []string{
						boostedNameField,
						boostedDescriptionField,
						boostedContentField,
						boostedTagsField,
					},
					Type:               matchType,
					Operator:           "and",
					MinimumShouldMatch: minShouldMatch,
					Fuzziness:          fuzzinessAuto,
					PrefixLength:       fuzzyPrefixLen,
					MaxExpansions:      maxExpansions,
					TieBreaker:         tieBreaker,
				},
			},
			Functions: []es.ScoreFunction{
				{Exp: &es.DecayFunction{Field: "updated_at", Scale: recencyScale, Decay: recencyDecay}},
				{FieldValueFactor: &es.FieldValueFactor{
					Field:    "quality_score",
					Factor:   qualityFactor,
					Modifier: "sqrt",
					Missing:  1,
				}},
			},
			ScoreMode: "sum",
			BoostMode: "multiply",
		},
	}
}

// compileFilters turns the optional facet constraints into independent,
// named filter clauses. Absent inputs contribute nothing.
func compileFilters(q *query.Query) []es.Query {
	var filters []es.Query

	if platforms := q.Platforms(); len(platforms) > 0 {
		values := make([]string, len(platforms))
		for i, p := range platforms {
			values[i] = string(p)
		}
		filters = append(filters, es.Query{
			Terms: &es.TermsQuery{Name: platformFilterName, Field: "platform_type", Values: values},
		})
	}

	if tags := q.Tags(); len(tags) > 0 {
		filters = append(filters, es.Query{
			Terms: &es.TermsQuery{Name: tagsFilterName, Field: "tags", Values: tags},
		})
	}

	if minQuality := q.MinQuality(); minQuality != nil {
		filters = append(filters, es.Query{
			Range: &es.RangeQuery{Name: qualityFilterName, Field: "quality_score", GTE: minQuality},
		})
	}

	return filters
}

// buildHighlight produces the per-field snippet configuration. Fragments are
// ordered by score, not document position. Content uses a two-pass highlight
// query: exact phrase first, fuzzy match as fallback.
func buildHighlight(text string) *es.Highlight {
	one, two, three := 1, 2, 3
	nameSize, fragSize := 100, 150

	return &es.Highlight{
		PreTags:           []string{"<em>"},
		PostTags:          []string{"</em>"},
		Order:             "score",
		Type:              "unified",
		NumberOfFragments: three,
		FragmentSize:      fragSize,
		Fields: map[string]es.HighlightField{
			"name": {
				NumberOfFragments: &one,
				FragmentSize:      &nameSize,
			},
			"description": {
				NumberOfFragments: &two,
				FragmentSize:      &fragSize,
			},
			"content": {
				NumberOfFragments: &three,
				FragmentSize:      &fragSize,
				HighlightQuery: &es.Query{
					Bool: &es.BoolQuery{
						Should: []es.Query{
							{MatchPhrase: &es.FieldQuery{Field: "content", Query: text}},
							{Match: &es.FieldQuery{Field: "content", Query: text, Fuzziness: fuzzinessAuto}},
						},
					},
				},
			},
		},
	}
}
