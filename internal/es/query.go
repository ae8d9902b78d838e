package es

import "encoding/json"

// SearchBody is the top-level request body for a _search call.
type SearchBody struct {
	Query     *Query         `json:"query,omitempty"`
	From      int            `json:"from"`
	Size      int            `json:"size"`
	Source    []string       `json:"_source,omitempty"`
	Highlight *Highlight     `json:"highlight,omitempty"`
	Aggs      map[string]Agg `json:"aggs,omitempty"`
	Sort      []SortClause   `json:"sort,omitempty"`
	Profile   bool           `json:"profile,omitempty"`
	Timeout   string         `json:"timeout,omitempty"`
}

// Query is a single query-DSL node. Exactly one member should be set.
type Query struct {
	Bool          *BoolQuery     `json:"bool,omitempty"`
	MultiMatch    *MultiMatch    `json:"multi_match,omitempty"`
	FunctionScore *FunctionScore `json:"function_score,omitempty"`
	MatchPhrase   *FieldQuery    `json:"match_phrase,omitempty"`
	Match         *FieldQuery    `json:"match,omitempty"`
	Terms         *TermsQuery    `json:"terms,omitempty"`
	Range         *RangeQuery    `json:"range,omitempty"`
	MatchAll      *MatchAll      `json:"match_all,omitempty"`
}

// MatchAll matches every document.
type MatchAll struct{}

// BoolQuery combines clauses with boolean semantics. Filter clauses do not
// contribute to scoring and are cacheable by the backend.
type BoolQuery struct {
	Must               []Query `json:"must,omitempty"`
	Should             []Query `json:"should,omitempty"`
	MustNot            []Query `json:"must_not,omitempty"`
	Filter             []Query `json:"filter,omitempty"`
	MinimumShouldMatch string  `json:"minimum_should_match,omitempty"`
}

// MultiMatch searches multiple fields with per-field boosts ("name^2.0").
type MultiMatch struct {
	Query              string   `json:"query"`
	Fields             []string `json:"fields"`
	Type               string   `json:"type,omitempty"`
	Operator           string   `json:"operator,omitempty"`
	MinimumShouldMatch string   `json:"minimum_should_match,omitempty"`
	Fuzziness          string   `json:"fuzziness,omitempty"`
	PrefixLength       int      `json:"prefix_length,omitempty"`
	MaxExpansions      int      `json:"max_expansions,omitempty"`
	TieBreaker         float64  `json:"tie_breaker,omitempty"`
}

// FunctionScore combines a base query with independent scoring functions.
type FunctionScore struct {
	Query     *Query          `json:"query,omitempty"`
	Functions []ScoreFunction `json:"functions,omitempty"`
	ScoreMode string          `json:"score_mode,omitempty"`
	BoostMode string          `json:"boost_mode,omitempty"`
}

// ScoreFunction is a single scoring function. Exactly one member should be set.
type ScoreFunction struct {
	Exp              *DecayFunction    `json:"exp,omitempty"`
	FieldValueFactor *FieldValueFactor `json:"field_value_factor,omitempty"`
}

// DecayFunction is a decay curve over a date or numeric field.
// Marshals to {"<field>": {"scale": ..., "decay": ...}}.
type DecayFunction struct {
	Field string
	Scale string
	Decay float64
}

// MarshalJSON renders the field-keyed decay object.
func (d DecayFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		d.Field: map[string]any{"scale": d.Scale, "decay": d.Decay},
	})
}

// FieldValueFactor scores by a document field value.
type FieldValueFactor struct {
	Field    string  `json:"field"`
	Factor   float64 `json:"factor,omitempty"`
	Modifier string  `json:"modifier,omitempty"`
	Missing  float64 `json:"missing,omitempty"`
}

// FieldQuery is a single-field match or match_phrase clause.
// Marshals to {"<field>": {"query": ..., "fuzziness": ...}}.
type FieldQuery struct {
	Field     string
	Query     string
	Fuzziness string
}

// MarshalJSON renders the field-keyed match object.
func (q FieldQuery) MarshalJSON() ([]byte, error) {
	inner := map[string]any{"query": q.Query}
	if q.Fuzziness != "" {
		inner["fuzziness"] = q.Fuzziness
	}
	return json.Marshal(map[string]any{q.Field: inner})
}

// TermsQuery is an exact-match set membership filter. Name, when set, becomes
// the _name cache hint so the backend can reuse compiled filter bitsets.
// Marshals to {"_name": ..., "<field>": [...]}.
type TermsQuery struct {
	Name   string
	Field  string
	Values []string
}

// MarshalJSON renders the field-keyed terms object.
func (q TermsQuery) MarshalJSON() ([]byte, error) {
	m := map[string]any{q.Field: q.Values}
	if q.Name != "" {
		m["_name"] = q.Name
	}
	return json.Marshal(m)
}

// RangeQuery is a numeric range filter with an optional _name cache hint.
// Marshals to {"_name": ..., "<field>": {"gte": ...}}.
type RangeQuery struct {
	Name  string
	Field string
	GTE   *float64
	GT    *float64
	LTE   *float64
	LT    *float64
}

// MarshalJSON renders the field-keyed range object.
func (q RangeQuery) MarshalJSON() ([]byte, error) {
	bounds := map[string]any{}
	if q.GTE != nil {
		bounds["gte"] = *q.GTE
	}
	if q.GT != nil {
		bounds["gt"] = *q.GT
	}
	if q.LTE != nil {
		bounds["lte"] = *q.LTE
	}
	if q.LT != nil {
		bounds["lt"] = *q.LT
	}
	m := map[string]any{q.Field: bounds}
	if q.Name != "" {
		m["_name"] = q.Name
	}
	return json.Marshal(m)
}

// Highlight is the snippet-extraction configuration.
type Highlight struct {
	PreTags           []string                  `json:"pre_tags,omitempty"`
	PostTags          []string                  `json:"post_tags,omitempty"`
	Order             string                    `json:"order,omitempty"`
	Type              string                    `json:"type,omitempty"`
	NumberOfFragments int                       `json:"number_of_fragments,omitempty"`
	FragmentSize      int                       `json:"fragment_size,omitempty"`
	Fields            map[string]HighlightField `json:"fields"`
}

// HighlightField overrides highlight settings per field.
type HighlightField struct {
	NumberOfFragments *int   `json:"number_of_fragments,omitempty"`
	FragmentSize      *int   `json:"fragment_size,omitempty"`
	HighlightQuery    *Query `json:"highlight_query,omitempty"`
}

// Agg is a single aggregation. Only terms aggregations are used.
type Agg struct {
	Terms *AggTerms `json:"terms,omitempty"`
}

// AggTerms is a terms (facet-count) aggregation.
type AggTerms struct {
	Field string `json:"field"`
	Size  int    `json:"size,omitempty"`
}

// SortClause orders results by a field.
// Marshals to {"<field>": {"order": "asc"}}.
type SortClause struct {
	Field string
	Order string
}

// MarshalJSON renders the field-keyed sort object.
func (s SortClause) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{s.Field: map[string]any{"order": s.Order}})
}

// SuggestBody is the top-level request body for a completion suggest call.
type SuggestBody struct {
	Suggest map[string]CompletionSuggester `json:"suggest"`
	Source  bool                           `json:"_source"`
}

// CompletionSuggester is a single named completion suggester.
type CompletionSuggester struct {
	Prefix     string      `json:"prefix"`
	Completion *Completion `json:"completion,omitempty"`
}

// Completion configures fuzzy prefix completion on a dedicated suggest field.
type Completion struct {
	Field          string `json:"field"`
	Size           int    `json:"size,omitempty"`
	SkipDuplicates bool   `json:"skip_duplicates,omitempty"`
	Fuzzy          *Fuzzy `json:"fuzzy,omitempty"`
}

// Fuzzy configures edit-distance tolerance for completion.
type Fuzzy struct {
	Fuzziness string `json:"fuzziness,omitempty"`
	MinLength int    `json:"min_length,omitempty"`
}
