package clang

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted version number such as 10.15 or 13.0.1. A nil Version
// means "not specified".
type Version []int

// ParseVersion parses "10.15", "10_15" or "13.0.1". An empty string yields nil.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '_' })
	v := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q", s)
		}
		v = append(v, n)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("invalid version %q", s)
	}
	return v, nil
}

// String renders the version with dots.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// PlatformAvailability is one per-platform availability entry.
type PlatformAvailability struct {
	Platform    string  `json:"platform" yaml:"platform" toml:"platform"`
	Introduced  Version `json:"introduced,omitempty" yaml:"introduced,omitempty" toml:"introduced,omitempty"`
	Deprecated  Version `json:"deprecated,omitempty" yaml:"deprecated,omitempty" toml:"deprecated,omitempty"`
	Obsoleted   Version `json:"obsoleted,omitempty" yaml:"obsoleted,omitempty" toml:"obsoleted,omitempty"`
	Unavailable bool    `json:"unavailable" yaml:"unavailable" toml:"unavailable"`
	Message     string  `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
}

// Availability is the platform availability of a declaration.
type Availability struct {
	AlwaysUnavailable bool                   `json:"alwaysUnavailable,omitempty" yaml:"alwaysUnavailable,omitempty"`
	AlwaysDeprecated  bool                   `json:"alwaysDeprecated,omitempty" yaml:"alwaysDeprecated,omitempty"`
	Platforms         []PlatformAvailability `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

// IsZero reports whether the availability carries no information.
func (a Availability) IsZero() bool {
	return !a.AlwaysUnavailable && !a.AlwaysDeprecated && len(a.Platforms) == 0
}
