// Package query holds the validated search query value object.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kestrel-sec/detdex/internal/domain"
)

// Query text and pagination limits.
const (
	MinTextLength   = 3
	MaxTextLength   = 500
	MaxTagLength    = 50
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortOrder directions for custom sorting.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Query is a validated, immutable search request.
type Query struct {
	text       string
	platforms  []domain.Platform
	tags       []string
	minQuality *float64
	page       int
	size       int
	sortField  string
	sortOrder  string
}

// Params carries the raw inputs to New. Nil slices mean "unfiltered";
// explicitly empty slices are rejected as excluding everything.
type Params struct {
	Text       string
	Platforms  []string
	Tags       []string
	MinQuality *float64
	Page       int
	Size       int
	SortField  string
	SortOrder  string
}

// New validates and normalizes search parameters.
// Defaults: page=1, size=20. All violations surface as domain.ErrInvalidQuery
// before any backend call is made.
func New(p Params) (Query, error) {
	text := strings.TrimSpace(p.Text)
	textLen := utf8.RuneCountInString(text)
	if textLen < MinTextLength {
		return Query{}, fmt.Errorf("%w: query text must be at least %d characters", domain.ErrInvalidQuery, MinTextLength)
	}
	if textLen > MaxTextLength {
		return Query{}, fmt.Errorf("%w: query text must be at most %d characters", domain.ErrInvalidQuery, MaxTextLength)
	}

	var platforms []domain.Platform
	if p.Platforms != nil {
		if len(p.Platforms) == 0 {
			return Query{}, fmt.Errorf("%w: platforms must not be empty when present", domain.ErrInvalidQuery)
		}
		platforms = make([]domain.Platform, 0, len(p.Platforms))
		for _, raw := range p.Platforms {
			pl, err := domain.ParsePlatform(raw)
			if err != nil {
				return Query{}, err
			}
			platforms = append(platforms, pl)
		}
	}

	var tags []string
	if p.Tags != nil {
		if len(p.Tags) == 0 {
			return Query{}, fmt.Errorf("%w: tags must not be empty when present", domain.ErrInvalidQuery)
		}
		tags = make([]string, 0, len(p.Tags))
		for _, tag := range p.Tags {
			if err := validateTag(tag); err != nil {
				return Query{}, err
			}
			tags = append(tags, tag)
		}
	}

	if p.MinQuality != nil && (*p.MinQuality < 0 || *p.MinQuality > 1) {
		return Query{}, fmt.Errorf("%w: min_quality_score must be between 0 and 1", domain.ErrInvalidQuery)
	}

	page := p.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return Query{}, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidQuery)
	}
	size := p.Size
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 || size > MaxPageSize {
		return Query{}, fmt.Errorf("%w: size must be between 1 and %d", domain.ErrInvalidQuery, MaxPageSize)
	}

	switch p.SortOrder {
	case "", SortAsc, SortDesc:
	default:
		return Query{}, fmt.Errorf("%w: sort order must be %q or %q", domain.ErrInvalidQuery, SortAsc, SortDesc)
	}
	if p.SortOrder != "" && p.SortField == "" {
		return Query{}, fmt.Errorf("%w: sort order requires a sort field", domain.ErrInvalidQuery)
	}

	return Query{
		text:       text,
		platforms:  platforms,
		tags:       tags,
		minQuality: p.MinQuality,
		page:       page,
		size:       size,
		sortField:  p.SortField,
		sortOrder:  p.SortOrder,
	}, nil
}

func validateTag(tag string) error {
	if tag == "" || len(tag) > MaxTagLength {
		return fmt.Errorf("%w: tag must be 1-%d characters", domain.ErrInvalidQuery, MaxTagLength)
	}
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: invalid tag %q", domain.ErrInvalidQuery, tag)
		}
	}
	return nil
}

// Text returns the query text.
func (q *Query) Text() string { return q.text }

// TokenCount returns the number of whitespace-delimited tokens in the text.
func (q *Query) TokenCount() int { return len(strings.Fields(q.text)) }

// Platforms returns the platform filter (nil when unfiltered).
func (q *Query) Platforms() []domain.Platform { return q.platforms }

// Tags returns the tag filter (nil when unfiltered).
func (q *Query) Tags() []string { return q.tags }

// MinQuality returns the minimum quality score bound (nil when unfiltered).
func (q *Query) MinQuality() *float64 { return q.minQuality }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// Size returns the page size.
func (q *Query) Size() int { return q.size }

// From returns the pagination offset: (page-1) * size.
func (q *Query) From() int { return (q.page - 1) * q.size }

// SortField returns the custom sort field ("" for relevance order).
func (q *Query) SortField() string { return q.sortField }

// SortOrder returns the custom sort direction.
func (q *Query) SortOrder() string { return q.sortOrder }

// Canonical returns a stable textual encoding of the query with set-valued
// fields in sorted order. Two queries with equal semantics yield equal
// encodings, which makes it a usable cache key input.
func (q *Query) Canonical() string {
	var b strings.Builder
	b.WriteString("text=")
	b.WriteString(q.text)

	platforms := make([]string, len(q.platforms))
	for i, p := range q.platforms {
		platforms[i] = string(p)
	}
	sort.Strings(platforms)
	b.WriteString("|platforms=")
	b.WriteString(strings.Join(platforms, ","))

	tags := append([]string(nil), q.tags...)
	sort.Strings(tags)
	b.WriteString("|tags=")
	b.WriteString(strings.Join(tags, ","))

	b.WriteString("|min_quality=")
	if q.minQuality != nil {
		b.WriteString(strconv.FormatFloat(*q.minQuality, 'f', -1, 64))
	}

	b.WriteString("|page=")
	b.WriteString(strconv.Itoa(q.page))
	b.WriteString("|size=")
	b.WriteString(strconv.Itoa(q.size))
	b.WriteString("|sort=")
	b.WriteString(q.sortField)
	b.WriteString(":")
	b.WriteString(q.sortOrder)
	return b.String()
}
