// Package rescache memoizes assembled search results keyed by normalized query.
package rescache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/domain/search/result"
)

// DefaultTTL bounds result staleness between writes.
const DefaultTTL = 300 * time.Second

// Key derives the cache key: a stable hash of the fully normalized query.
func Key(q *query.Query) string {
	h := sha256.Sum256([]byte(q.Canonical()))
	return hex.EncodeToString(h[:])
}

// Wire shapes for serializing results into an external cache.

type hitDTO struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Platform    string              `json:"platform_type"`
	Score       float64             `json:"score"`
	Highlights  map[string][]string `json:"highlights"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Metadata    map[string]any      `json:"metadata"`
}

type resultDTO struct {
	Hits         []hitDTO                    `json:"hits"`
	Total        int64                       `json:"total"`
	TookMS       int64                       `json:"took_ms"`
	MaxScore     float64                     `json:"max_score"`
	Aggregations map[string]map[string]int64 `json:"aggregations"`
	Metrics      result.Metrics              `json:"performance_metrics"`
}

func encodeResult(res result.Result) ([]byte, error) {
	hits := make([]hitDTO, len(res.Hits()))
	for i, h := range res.Hits() {
		hits[i] = hitDTO{
			ID:          h.ID(),
			Name:        h.Name(),
			Description: h.Description(),
			Platform:    string(h.Platform()),
			Score:       h.Score(),
			Highlights:  h.Highlights(),
			CreatedAt:   h.CreatedAt(),
			UpdatedAt:   h.UpdatedAt(),
			Metadata:    h.Metadata(),
		}
	}
	return json.Marshal(resultDTO{
		Hits:         hits,
		Total:        res.Total(),
		TookMS:       res.TookMS(),
		MaxScore:     res.MaxScore(),
		Aggregations: res.Aggregations(),
		Metrics:      res.Metrics(),
	})
}

func decodeResult(data []byte) (result.Result, error) {
	var dto resultDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return result.Result{}, err
	}
	hits := make([]result.Hit, len(dto.Hits))
	for i, h := range dto.Hits {
		hits[i] = result.NewHit(
			h.ID, h.Name, h.Description,
			domain.Platform(h.Platform),
			h.Score, h.Highlights,
			h.CreatedAt, h.UpdatedAt,
			h.Metadata,
		)
	}
	return result.New(hits, dto.Total, dto.TookMS, dto.MaxScore, dto.Aggregations, dto.Metrics)
}
