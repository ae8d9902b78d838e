package domain

import (
	"fmt"
	"time"
)

// Severity levels for detection metadata.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// DocumentMetadata carries MITRE enrichment for a detection.
type DocumentMetadata struct {
	MitreTactics    []string `json:"mitre_tactics"`
	MitreTechniques []string `json:"mitre_techniques"`
	Severity        string   `json:"severity"`
	Confidence      float64  `json:"confidence"`
}

// DetectionDocument is the indexed representation of a detection rule.
// The indexing caller constructs and owns it; search only reads it back.
type DetectionDocument struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Content      string           `json:"content"`
	PlatformType Platform         `json:"platform_type"`
	Tags         []string         `json:"tags"`
	QualityScore float64          `json:"quality_score"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Metadata     DocumentMetadata `json:"metadata"`
}

// Validate checks required fields and value ranges.
func (d *DetectionDocument) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDocument)
	}
	if d.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidDocument)
	}
	if !d.PlatformType.IsValid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidDocument, d.PlatformType)
	}
	if d.QualityScore < 0 || d.QualityScore > 1 {
		return fmt.Errorf("%w: quality_score must be between 0 and 1", ErrInvalidDocument)
	}
	switch d.Metadata.Severity {
	case "", SeverityLow, SeverityMedium, SeverityHigh:
	default:
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidDocument, d.Metadata.Severity)
	}
	return nil
}

// Normalize fills defaulted fields before indexing: severity falls back to
// medium and missing timestamps are stamped with now.
func (d *DetectionDocument) Normalize(now time.Time) {
	if d.Metadata.Severity == "" {
		d.Metadata.Severity = SeverityMedium
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}
