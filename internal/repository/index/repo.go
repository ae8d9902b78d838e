// Package index manages the detection index: health, schema, refresh, writes.
package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/es"
)

// backend is the consumer interface for index administration.
type backend interface {
	es.IndexAdmin
	es.Indexer
}

// Repo wraps index administration and document writes.
type Repo struct {
	backend backend
}

// New creates an index repository.
func New(b backend) *Repo {
	return &Repo{backend: b}
}

// IsHealthy reports whether the index is usable. Only a red cluster status
// counts as unhealthy; yellow still serves.
func (r *Repo) IsHealthy(ctx context.Context, index string) (bool, error) {
	status, err := r.backend.ClusterHealth(ctx, index)
	if err != nil {
		return false, fmt.Errorf("cluster health %s: %w", index, err)
	}
	return status != es.HealthRed, nil
}

// EnsureIndex creates the index with the detection schema when it does not
// exist yet. An existing index is never overwritten.
func (r *Repo) EnsureIndex(ctx context.Context, index string) error {
	exists, err := r.backend.IndexExists(ctx, index)
	if err != nil {
		return fmt.Errorf("index exists %s: %w", index, err)
	}
	if exists {
		return nil
	}
	if err := r.backend.CreateIndex(ctx, index, detectionSchema); err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	return nil
}

// Refresh makes recent writes visible to search.
func (r *Repo) Refresh(ctx context.Context, index string) error {
	if err := r.backend.RefreshIndex(ctx, index); err != nil {
		return fmt.Errorf("refresh %s: %w", index, err)
	}
	return nil
}

// IndexDocument writes a detection document.
func (r *Repo) IndexDocument(ctx context.Context, index string, doc *domain.DetectionDocument) error {
	if err := r.backend.IndexDocument(ctx, index, doc.ID, doc); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	return nil
}

// detectionSchema is the index settings and field mappings for detections.
// name carries a keyword sub-field for exact matching and a completion
// sub-field feeding the suggester.
var detectionSchema = json.RawMessage(`{
  "settings": {
    "number_of_shards": 3,
    "number_of_replicas": 2,
    "refresh_interval": "1s",
    "analysis": {
      "analyzer": {
        "detection_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "stop", "snowball"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "name": {
        "type": "text",
        "analyzer": "detection_analyzer",
        "fields": {
          "keyword": {"type": "keyword"},
          "suggest": {"type": "completion"}
        }
      },
      "description": {"type": "text", "analyzer": "detection_analyzer"},
      "content": {
        "type": "text",
        "analyzer": "detection_analyzer",
        "term_vector": "with_positions_offsets"
      },
      "platform_type": {"type": "keyword"},
      "tags": {"type": "keyword"},
      "quality_score": {"type": "float"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"},
      "metadata": {
        "type": "nested",
        "properties": {
          "mitre_tactics": {"type": "keyword"},
          "mitre_techniques": {"type": "keyword"},
          "severity": {"type": "keyword"},
          "confidence": {"type": "float"}
        }
      }
    }
  }
}`)
