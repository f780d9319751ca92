package incident

import (
	"strings"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/textnorm"
)

// Filter is a status/priority/assignee predicate. An empty dimension matches
// everything; values within a dimension are OR'ed, dimensions are AND'ed.
type Filter struct {
	Status   []string `json:"status,omitempty" yaml:"status,omitempty" toml:"status,omitempty"`
	Priority []string `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	Assignee []string `json:"assignee,omitempty" yaml:"assignee,omitempty" toml:"assignee,omitempty"`
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool {
	return len(f.Status) == 0 && len(f.Priority) == 0 && len(f.Assignee) == 0
}

// Values returns the values of dim.
func (f Filter) Values(dim Dimension) []string {
	switch dim {
	case DimStatus:
		return f.Status
	case DimPriority:
		return f.Priority
	case DimAssignee:
		return f.Assignee
	default:
		return nil
	}
}

func (f Filter) with(dim Dimension, values []string) Filter {
	switch dim {
	case DimStatus:
		f.Status = values
	case DimPriority:
		f.Priority = values
	case DimAssignee:
		f.Assignee = values
	}
	return f
}

// Match reports whether inc satisfies every constrained dimension.
func (f Filter) Match(inc Incident) bool {
	for _, dim := range Dimensions {
		values := f.Values(dim)
		if len(values) == 0 {
			continue
		}
		if !containsString(values, Label(inc, dim)) {
			return false
		}
	}
	return true
}

// Apply returns the incidents of d matching f.
func (f Filter) Apply(d Dataset) Dataset {
	if f.IsEmpty() {
		return d
	}
	return d.Where(f.Match)
}

// Resolve maps requested values onto labels present in domain: exact match
// first, then folded equality, then dimension aliases (blocked, critical,
// unassigned), then substring matching for values of 3+ characters.
// Unresolvable values are dropped.
func (f Filter) Resolve(domain Domain) Filter {
	var out Filter
	for _, dim := range Dimensions {
		out = out.with(dim, resolveValues(dim, f.Values(dim), domain[dim]))
	}
	return out
}

// ResolveAndRelax resolves f against the domain of open and, when the strict
// combination matches nothing, drops assignee, then priority, then status
// until some incident matches.
func (f Filter) ResolveAndRelax(open Dataset) Filter {
	resolved := f.Resolve(open.Domain())
	if len(open) == 0 || resolved.matchesAny(open) {
		return resolved
	}
	relaxed := resolved
	for i := len(Dimensions) - 1; i >= 0; i-- {
		dim := Dimensions[i]
		if len(relaxed.Values(dim)) == 0 {
			continue
		}
		relaxed = relaxed.with(dim, nil)
		if relaxed.matchesAny(open) {
			return relaxed
		}
	}
	return resolved
}

func (f Filter) matchesAny(d Dataset) bool {
	for _, inc := range d {
		if f.Match(inc) {
			return true
		}
	}
	return false
}

func resolveValues(dim Dimension, requested, available []string) []string {
	var out []string
	push := func(v string) {
		if !containsString(out, v) {
			out = append(out, v)
		}
	}
	for _, raw := range requested {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if containsString(available, raw) {
			push(raw)
			continue
		}
		q := textnorm.Key(raw)
		matched := false
		for _, v := range available {
			if textnorm.Key(v) == q {
				push(v)
				matched = true
			}
		}
		if matched {
			continue
		}
		for _, v := range available {
			if aliasMatch(dim, q, v) {
				push(v)
				matched = true
			}
		}
		if matched || len([]rune(q)) < 3 {
			continue
		}
		for _, v := range available {
			k := textnorm.Key(v)
			if strings.Contains(k, q) || (len([]rune(k)) >= 3 && strings.Contains(q, k)) {
				push(v)
			}
		}
	}
	return out
}

func aliasMatch(dim Dimension, q, candidate string) bool {
	switch dim {
	case DimStatus:
		if q == "blocked" || q == "bloqueado" {
			return status.IsBlocked(candidate)
		}
	case DimPriority:
		if IsCritical(q) {
			return IsCritical(candidate)
		}
	case DimAssignee:
		switch q {
		case "unassigned", "(unassigned)", "sin asignar", "(sin asignar)", "none":
			return candidate == Unassigned
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
