package incident

import (
	"sort"
	"strings"
)

// Placeholder labels used for blank dimension values.
const (
	NoStatus   = "(no status)"
	NoPriority = "(no priority)"
	Unassigned = "(unassigned)"
)

// Dimension is a filter dimension the UI recognizes.
type Dimension string

const (
	DimStatus   Dimension = "status"
	DimPriority Dimension = "priority"
	DimAssignee Dimension = "assignee"
)

// Dimensions lists the filter dimensions in relaxation order (last relaxed first).
var Dimensions = []Dimension{DimStatus, DimPriority, DimAssignee}

// StatusLabel returns the trimmed status or NoStatus.
func StatusLabel(i Incident) string { return label(i.Status, NoStatus) }

// PriorityLabel returns the trimmed priority or NoPriority.
func PriorityLabel(i Incident) string { return label(i.Priority, NoPriority) }

// AssigneeLabel returns the trimmed assignee or Unassigned.
func AssigneeLabel(i Incident) string { return label(i.Assignee, Unassigned) }

// Label returns the label of i for dimension dim.
func Label(i Incident, dim Dimension) string {
	switch dim {
	case DimStatus:
		return StatusLabel(i)
	case DimPriority:
		return PriorityLabel(i)
	case DimAssignee:
		return AssigneeLabel(i)
	default:
		return ""
	}
}

func label(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

// Domain holds the distinct labels observed per dimension.
type Domain map[Dimension][]string

// Domain collects the sorted distinct labels of every filter dimension.
func (d Dataset) Domain() Domain {
	out := make(Domain, len(Dimensions))
	for _, dim := range Dimensions {
		seen := map[string]bool{}
		for _, inc := range d {
			seen[Label(inc, dim)] = true
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		out[dim] = values
	}
	return out
}

// Has reports whether value is an exact member of dim.
func (dm Domain) Has(dim Dimension, value string) bool {
	for _, v := range dm[dim] {
		if v == value {
			return true
		}
	}
	return false
}

// Counts tallies incidents per label of dim.
func (d Dataset) Counts(dim Dimension) map[string]int {
	out := map[string]int{}
	for _, inc := range d {
		out[Label(inc, dim)]++
	}
	return out
}

// LabelCount is one entry of a ranked tally.
type LabelCount struct {
	Label string
	Count int
}

// Ranked sorts a tally by count descending, then label ascending.
func Ranked(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, LabelCount{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
