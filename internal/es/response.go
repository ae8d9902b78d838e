package es

import "encoding/json"

// SearchResponse is the backend reply to a _search call. Telemetry fields are
// pointers so that absence is distinguishable from zero; the result assembler
// treats absence as a protocol error.
type SearchResponse struct {
	Took         *int64               `json:"took"`
	TimedOut     bool                 `json:"timed_out"`
	Shards       *ShardStats          `json:"_shards"`
	Hits         HitsEnvelope         `json:"hits"`
	Aggregations map[string]AggResult `json:"aggregations"`
}

// ShardStats is per-shard success/failure telemetry.
type ShardStats struct {
	Total      *int `json:"total"`
	Successful *int `json:"successful"`
	Skipped    int  `json:"skipped"`
	Failed     int  `json:"failed"`
}

// HitsEnvelope wraps matched documents and match statistics.
type HitsEnvelope struct {
	Total    TotalHits     `json:"total"`
	MaxScore *float64      `json:"max_score"`
	Hits     []HitEnvelope `json:"hits"`
}

// TotalHits is the total-match count with its counting relation.
type TotalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// HitEnvelope is a single matched document with its score and highlights.
type HitEnvelope struct {
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    json.RawMessage     `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
}

// AggResult is a terms aggregation reply.
type AggResult struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket is a single facet count.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int64  `json:"doc_count"`
}

// SuggestResponse is the backend reply to a completion suggest call.
type SuggestResponse struct {
	Suggest map[string][]SuggestEntry `json:"suggest"`
}

// SuggestEntry holds the candidates for one suggester invocation.
type SuggestEntry struct {
	Text    string          `json:"text"`
	Options []SuggestOption `json:"options"`
}

// SuggestOption is a single ranked completion candidate.
type SuggestOption struct {
	Text  string  `json:"text"`
	Score float64 `json:"_score"`
}
