// Package es defines the search backend port and its wire types.
package es

import (
	"context"
	"encoding/json"
	"time"
)

// Backend is the main search backend facade combining all sub-interfaces.
//
// Consumers depend on the narrow sub-interfaces, not on Backend itself.
type Backend interface {
	Pinger
	Searcher
	Suggester
	IndexAdmin
	Indexer
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher executes search queries.
type Searcher interface {
	Search(ctx context.Context, index string, body *SearchBody) (*SearchResponse, error)
}

// Suggester executes completion suggest queries.
type Suggester interface {
	Suggest(ctx context.Context, index string, body *SuggestBody) (*SuggestResponse, error)
}

// IndexAdmin provides cluster health and index lifecycle operations.
type IndexAdmin interface {
	ClusterHealth(ctx context.Context, index string) (string, error)
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, schema json.RawMessage) error
	RefreshIndex(ctx context.Context, index string) error
}

// Indexer writes documents.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc any) error
}

// Cluster health statuses as reported by the backend.
const (
	HealthGreen  = "green"
	HealthYellow = "yellow"
	HealthRed    = "red"
)
