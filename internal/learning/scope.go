package learning

import (
	"fmt"
	"strings"
)

// Scope key defaults and separators.
const (
	DefaultCountry = "global"
	DefaultSource  = "all-sources"
	scopeSep       = "::"
	altScopeSep    = "/"
)

// ScopeKey identifies a learning partition: a country plus a tracker source.
type ScopeKey struct {
	Country string `json:"country"`
	Source  string `json:"source_id"`
}

// NewScopeKey trims its inputs and applies the global/all-sources defaults.
func NewScopeKey(country, source string) ScopeKey {
	c := strings.TrimSpace(country)
	if c == "" {
		c = DefaultCountry
	}
	s := strings.TrimSpace(source)
	if s == "" {
		s = DefaultSource
	}
	return ScopeKey{Country: c, Source: s}
}

// String is the canonical persisted form, "country::source".
func (k ScopeKey) String() string {
	return k.Country + scopeSep + k.Source
}

// ParseScopeKey accepts "country::source" or "country/source". Both halves
// must be non-empty; anything else is malformed.
func ParseScopeKey(raw string) (ScopeKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ScopeKey{}, fmt.Errorf("empty scope key")
	}

	country, source, ok := strings.Cut(raw, scopeSep)
	if !ok {
		country, source, ok = strings.Cut(raw, altScopeSep)
	}
	if !ok {
		return ScopeKey{}, fmt.Errorf("scope key %q has no country/source separator", raw)
	}

	country = strings.TrimSpace(country)
	source = strings.TrimSpace(source)
	if country == "" || source == "" {
		return ScopeKey{}, fmt.Errorf("scope key %q has an empty part", raw)
	}
	if strings.Contains(source, scopeSep) {
		return ScopeKey{}, fmt.Errorf("scope key %q has too many parts", raw)
	}
	return ScopeKey{Country: country, Source: source}, nil
}
