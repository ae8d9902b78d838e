package domain

import (
	"errors"
	"testing"
	"time"
)

func validDocument() DetectionDocument {
	return DetectionDocument{
		Name:         "Suspicious PowerShell Encoded Command",
		Description:  "Detects base64-encoded PowerShell invocations",
		Content:      "process where process.name == \"powershell.exe\"",
		PlatformType: PlatformEDR,
		Tags:         []string{"execution", "t1059"},
		QualityScore: 0.8,
	}
}

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DetectionDocument)
		wantErr bool
	}{
		{
			name:   "valid document",
			mutate: func(d *DetectionDocument) {},
		},
		{
			name:    "missing name",
			mutate:  func(d *DetectionDocument) { d.Name = "" },
			wantErr: true,
		},
		{
			name:    "missing description",
			mutate:  func(d *DetectionDocument) { d.Description = "" },
			wantErr: true,
		},
		{
			name:    "unknown platform",
			mutate:  func(d *DetectionDocument) { d.PlatformType = "mainframe" },
			wantErr: true,
		},
		{
			name:    "quality score above one",
			mutate:  func(d *DetectionDocument) { d.QualityScore = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative quality score",
			mutate:  func(d *DetectionDocument) { d.QualityScore = -0.1 },
			wantErr: true,
		},
		{
			name:   "known severity",
			mutate: func(d *DetectionDocument) { d.Metadata.Severity = SeverityHigh },
		},
		{
			name:    "unknown severity",
			mutate:  func(d *DetectionDocument) { d.Metadata.Severity = "critical" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(&doc)

			err := doc.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidDocument) {
					t.Errorf("expected ErrInvalidDocument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDocumentNormalize(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	doc := validDocument()
	doc.Normalize(now)

	if doc.Metadata.Severity != SeverityMedium {
		t.Errorf("expected default severity %q, got %q", SeverityMedium, doc.Metadata.Severity)
	}
	if !doc.CreatedAt.Equal(now) {
		t.Errorf("expected created_at stamped to %v, got %v", now, doc.CreatedAt)
	}
	if !doc.UpdatedAt.Equal(now) {
		t.Errorf("expected updated_at stamped to %v, got %v", now, doc.UpdatedAt)
	}
}

func TestDocumentNormalize_KeepsExisting(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	doc := validDocument()
	doc.CreatedAt = created
	doc.Metadata.Severity = SeverityHigh
	doc.Normalize(now)

	if !doc.CreatedAt.Equal(created) {
		t.Errorf("expected created_at preserved as %v, got %v", created, doc.CreatedAt)
	}
	if doc.Metadata.Severity != SeverityHigh {
		t.Errorf("expected severity preserved, got %q", doc.Metadata.Severity)
	}
	if !doc.UpdatedAt.Equal(now) {
		t.Errorf("expected updated_at stamped to %v, got %v", now, doc.UpdatedAt)
	}
}

func TestParsePlatform(t *testing.T) {
	for _, raw := range []string{"SIEM", "EDR", "NSM"} {
		p, err := ParsePlatform(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if string(p) != raw {
			t.Errorf("expected platform %q, got %q", raw, p)
		}
	}

	if _, err := ParsePlatform("SOAR"); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for unknown platform, got %v", err)
	}
}
