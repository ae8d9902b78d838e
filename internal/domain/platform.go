package domain

import "fmt"

// Platform identifies the security platform class a detection targets.
type Platform string

const (
	// PlatformSIEM targets security information and event management systems.
	PlatformSIEM Platform = "SIEM"
	// PlatformEDR targets endpoint detection and response agents.
	PlatformEDR Platform = "EDR"
	// PlatformNSM targets network security monitoring sensors.
	PlatformNSM Platform = "NSM"
)

// IsValid reports whether p is a known platform.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformSIEM, PlatformEDR, PlatformNSM:
		return true
	}
	return false
}

// ParsePlatform validates a raw platform string.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: unknown platform %q", ErrInvalidQuery, s)
	}
	return p, nil
}
