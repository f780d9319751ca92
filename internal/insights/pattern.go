package insights

import (
	"fmt"
	"sort"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
)

// Category groups patterns for executive tips and chart wiring.
type Category string

const (
	CategoryFlow       Category = "flow"
	CategoryResolution Category = "resolution"
	CategoryAging      Category = "aging"
	CategoryStatus     Category = "status"
	CategoryPriority   Category = "priority"
	CategoryDuplicates Category = "duplicates"
	CategoryTopics     Category = "topics"
	CategoryPeople     Category = "people"
	CategoryOps        Category = "ops"
)

// Finding is what a pattern reports. Signal is a raw strength in [0, 1];
// an empty Filter marks the finding as contextual.
type Finding struct {
	Title  string
	Body   string
	Signal float64
	Filter incident.Filter
}

// EvalFunc computes a finding. Returning nil, nil means no evidence.
type EvalFunc func(c *Context) (*Finding, error)

// Pattern is one registered scoring function.
type Pattern struct {
	ID       string
	Category Category
	// MinSignal is the lowest raw signal that still produces a card.
	MinSignal float64
	Eval      EvalFunc
}

// Registry maps pattern IDs to patterns.
type Registry struct {
	patterns map[string]Pattern
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{patterns: map[string]Pattern{}}
}

// Register adds p. IDs must be unique and Eval must be set.
func (r *Registry) Register(p Pattern) error {
	if p.ID == "" {
		return fmt.Errorf("pattern id is required")
	}
	if p.Eval == nil {
		return fmt.Errorf("pattern %s has no evaluator", p.ID)
	}
	if _, exists := r.patterns[p.ID]; exists {
		return fmt.Errorf("pattern %s already registered", p.ID)
	}
	r.patterns[p.ID] = p
	return nil
}

// MustRegister is Register for built-in patterns.
func (r *Registry) MustRegister(p Pattern) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get looks up a pattern by ID.
func (r *Registry) Get(id string) (Pattern, bool) {
	p, ok := r.patterns[id]
	return p, ok
}

// IDs returns every registered ID in ascending order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.patterns))
	for id := range r.patterns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len is the number of registered patterns.
func (r *Registry) Len() int {
	return len(r.patterns)
}

// DefaultRegistry registers the built-in catalog.
func DefaultRegistry(th Thresholds, themes []Theme) *Registry {
	if len(themes) == 0 {
		themes = DefaultThemes
	}
	r := NewRegistry()
	for _, p := range []Pattern{
		flowPressure(th),
		flowRunway(th),
		flowAcceleration(th),
		resolutionSlow(th),
		agingBacklog(th),
		agingCritical(th),
		agingStale(th),
		statusBottleneck(th),
		statusTriage(th),
		statusBlocked(th),
		priorityCriticalUnassigned(th),
		priorityCriticalTriage(th),
		priorityInflation(th),
		priorityMissing(th),
		duplicatesExact(th),
		duplicatesSimilar(th),
		topicsConcentration(th, themes),
		peopleActiveLoad(th),
		peopleAgedQueue(th),
		opsHealth(th),
	} {
		r.MustRegister(p)
	}
	return r
}
