// Package incident defines the canonical incident record and the read-only
// dataset views the analytics packages consume.
package incident

import (
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// Incident is one normalized tracker issue. Analytics never mutates it.
type Incident struct {
	Key        string     `json:"key"`
	Summary    string     `json:"summary"`
	Status     string     `json:"status"`
	Type       string     `json:"type,omitempty"`
	Priority   string     `json:"priority"`
	Assignee   string     `json:"assignee,omitempty"`
	Components []string   `json:"components,omitempty"`
	Labels     []string   `json:"labels,omitempty"`
	Created    time.Time  `json:"created"`
	Updated    *time.Time `json:"updated,omitempty"`
	Resolved   *time.Time `json:"resolved,omitempty"`
	Country    string     `json:"country,omitempty"`
	SourceType string     `json:"sourceType,omitempty"`
	SourceID   string     `json:"sourceId,omitempty"`
	URL        string     `json:"url,omitempty"`
}

// HasCreated reports whether the created timestamp is known.
func (i Incident) HasCreated() bool {
	return !i.Created.IsZero()
}

// AgeDays is the number of whole days between Created and now, or -1 when
// Created is unknown. Future timestamps clamp to 0.
func (i Incident) AgeDays(now time.Time) int {
	if !i.HasCreated() {
		return -1
	}
	return wholeDays(now.Sub(i.Created))
}

// StaleDays is the number of whole days since the last update, or -1 when
// Updated is unknown.
func (i Incident) StaleDays(now time.Time) int {
	if i.Updated == nil || i.Updated.IsZero() {
		return -1
	}
	return wholeDays(now.Sub(*i.Updated))
}

// ResolutionDays is the fractional number of days from Created to Resolved.
// ok is false when either timestamp is missing. Negative spans clamp to 0.
func (i Incident) ResolutionDays() (days float64, ok bool) {
	if !i.HasCreated() || i.Resolved == nil || i.Resolved.IsZero() {
		return 0, false
	}
	d := i.Resolved.Sub(i.Created).Hours() / 24
	if d < 0 {
		d = 0
	}
	return d, true
}

func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// Dataset is an ordered, filtered collection of incidents passed by value
// into every evaluation. Functions in this module never modify it.
type Dataset []Incident

// Open returns the incidents whose status classifies as Open, in order.
func (d Dataset) Open(c status.Classifier) Dataset {
	out := make(Dataset, 0, len(d))
	for _, inc := range d {
		if c.Classify(inc.Status) == status.Open {
			out = append(out, inc)
		}
	}
	return out
}

// Where returns the incidents matching keep, in order.
func (d Dataset) Where(keep func(Incident) bool) Dataset {
	out := make(Dataset, 0, len(d))
	for _, inc := range d {
		if keep(inc) {
			out = append(out, inc)
		}
	}
	return out
}

// Count returns how many incidents match pred.
func (d Dataset) Count(pred func(Incident) bool) int {
	n := 0
	for _, inc := range d {
		if pred(inc) {
			n++
		}
	}
	return n
}
