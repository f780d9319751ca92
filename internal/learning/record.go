package learning

import (
	"encoding/json"
	"time"
)

// Interaction is a user outcome reported for a rendered card.
type Interaction string

const (
	Shown   Interaction = "shown"
	Clicked Interaction = "clicked"
)

// PatternStats are the persisted counters for one insight pattern.
type PatternStats struct {
	Shown            int       `json:"shown"`
	Clicked          int       `json:"clicked"`
	ShownSinceClick  int       `json:"shown_since_click"`
	LastShown        time.Time `json:"last_shown"`
	LastClicked      time.Time `json:"last_clicked"`
	LastShownSession int       `json:"last_shown_session"`
}

// ClickThrough is Clicked/Shown, 0 when never shown.
func (s PatternStats) ClickThrough() float64 {
	if s.Shown <= 0 {
		return 0
	}
	ctr := float64(s.Clicked) / float64(s.Shown)
	if ctr > 1 {
		return 1
	}
	return ctr
}

// Record is the learning state persisted for one scope.
type Record struct {
	Scope        string                   `json:"scope"`
	Country      string                   `json:"country"`
	Source       string                   `json:"source_id"`
	Sessions     int                      `json:"sessions"`
	Interactions int                      `json:"interactions"`
	Patterns     map[string]*PatternStats `json:"patterns"`
	LastSnapshot map[string]float64       `json:"last_snapshot,omitempty"`
	UpdatedAt    time.Time                `json:"updated_at"`

	ephemeral bool
}

// NewRecord returns an empty record for key.
func NewRecord(key ScopeKey) *Record {
	return &Record{
		Scope:    key.String(),
		Country:  key.Country,
		Source:   key.Source,
		Patterns: map[string]*PatternStats{},
	}
}

func newEphemeralRecord(raw string) *Record {
	return &Record{Scope: raw, Patterns: map[string]*PatternStats{}, ephemeral: true}
}

// Ephemeral reports whether the record lives only in memory because its
// scope key could not be parsed.
func (r *Record) Ephemeral() bool {
	return r != nil && r.ephemeral
}

// Stats returns a copy of the counters for id. A nil record or an unseen
// pattern yields zero stats.
func (r *Record) Stats(id string) (PatternStats, bool) {
	if r == nil || r.Patterns == nil {
		return PatternStats{}, false
	}
	s, ok := r.Patterns[id]
	if !ok || s == nil {
		return PatternStats{}, false
	}
	return *s, true
}

// Apply updates counters for one interaction.
func (r *Record) Apply(id string, kind Interaction, now time.Time) {
	if r.Patterns == nil {
		r.Patterns = map[string]*PatternStats{}
	}
	s := r.Patterns[id]
	if s == nil {
		s = &PatternStats{}
		r.Patterns[id] = s
	}
	switch kind {
	case Shown:
		s.Shown++
		s.ShownSinceClick++
		s.LastShown = now
		s.LastShownSession = r.Sessions
	case Clicked:
		s.Clicked++
		s.ShownSinceClick = 0
		s.LastClicked = now
		r.Interactions++
	}
	r.UpdatedAt = now
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Patterns = make(map[string]*PatternStats, len(r.Patterns))
	for id, s := range r.Patterns {
		if s == nil {
			continue
		}
		cp := *s
		out.Patterns[id] = &cp
	}
	if r.LastSnapshot != nil {
		out.LastSnapshot = make(map[string]float64, len(r.LastSnapshot))
		for k, v := range r.LastSnapshot {
			out.LastSnapshot[k] = v
		}
	}
	return &out
}

func decodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Patterns == nil {
		r.Patterns = map[string]*PatternStats{}
	}
	for id, s := range r.Patterns {
		if s == nil {
			delete(r.Patterns, id)
		}
	}
	return &r, nil
}

func encodeRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}
