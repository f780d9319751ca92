// Package kpi aggregates backlog KPIs over a filtered incident dataset.
package kpi

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// Window bounds.
const (
	MinWindowDays     = 1
	MaxWindowDays     = 365
	DefaultWindowDays = 14
	DefaultOverDays   = 30
)

// Window is the analysis window [Now-Days, Now]. Now is always injected.
type Window struct {
	Now  time.Time `json:"now"`
	Days int       `json:"days"`
}

// NewWindow builds a window ending at now with days clamped to [1, 365].
func NewWindow(now time.Time, days int) Window {
	return Window{Now: now, Days: ClampWindowDays(days)}
}

// ClampWindowDays clamps a configured window length.
func ClampWindowDays(days int) int {
	if days < MinWindowDays {
		return MinWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// Start is the inclusive lower bound of the window.
func (w Window) Start() time.Time {
	return w.Now.AddDate(0, 0, -w.Days)
}

// Contains reports whether t lies inside the window. Zero times never do.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(w.Start()) && !t.After(w.Now)
}

// Days is an optional day measure. The zero value is NoData.
type Days struct {
	Value float64
	OK    bool
}

// NoData is the explicit "nothing qualified" sentinel.
var NoData = Days{}

// MarshalJSON renders NoData as null.
func (d Days) MarshalJSON() ([]byte, error) {
	if !d.OK {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value)
}

// BucketCount is the number of open incidents in one age bucket.
type BucketCount struct {
	Bucket
	Count int `json:"count"`
}

// Snapshot is an immutable set of KPIs for one dataset and window.
type Snapshot struct {
	Window Window `json:"window"`

	Total           int `json:"total"`
	Open            int `json:"open"`
	Closed          int `json:"closed"`
	CreatedInWindow int `json:"createdInWindow"`
	ClosedInWindow  int `json:"closedInWindow"`
	NetDelta        int `json:"netDelta"`

	AgeBuckets []BucketCount `json:"ageBuckets"`
	AgeUnknown int           `json:"ageUnknown"`

	MeanResolution           Days            `json:"meanResolutionDays"`
	ResolvedSamples          int             `json:"resolvedSamples"`
	MeanResolutionByPriority map[string]Days `json:"meanResolutionByPriority"`

	OpenByPriority map[string]int `json:"openByPriority"`
	OpenByStatus   map[string]int `json:"openByStatus"`
	OverDays       int            `json:"overDays"`
	OpenOverShare  float64        `json:"openOverShare"`
}

// Options tune Compute. The zero value uses default classifier, buckets and threshold.
type Options struct {
	Classifier status.Classifier
	Buckets    []Bucket
	OverDays   int
}

// Compute aggregates ds over w. It is a pure function of its arguments.
// Open and Closed partition Total by canonical status.
func Compute(ds incident.Dataset, w Window, opts Options) Snapshot {
	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = MustParseBuckets(DefaultBuckets)
	}
	overDays := opts.OverDays
	if overDays <= 0 {
		overDays = DefaultOverDays
	}

	s := Snapshot{
		Window:                   w,
		Total:                    len(ds),
		AgeBuckets:               make([]BucketCount, len(buckets)),
		MeanResolutionByPriority: map[string]Days{},
		OpenByPriority:           map[string]int{},
		OpenByStatus:             map[string]int{},
		OverDays:                 overDays,
	}
	for i, b := range buckets {
		s.AgeBuckets[i] = BucketCount{Bucket: b}
	}

	var resSum float64
	resByPriority := map[string][]float64{}
	openOver := 0

	for _, inc := range ds {
		if w.Contains(inc.Created) {
			s.CreatedInWindow++
		}
		if inc.Resolved != nil && w.Contains(*inc.Resolved) {
			s.ClosedInWindow++
			if days, ok := inc.ResolutionDays(); ok && w.Contains(inc.Created) {
				resSum += days
				s.ResolvedSamples++
				p := incident.PriorityLabel(inc)
				resByPriority[p] = append(resByPriority[p], days)
			}
		}

		if opts.Classifier.Classify(inc.Status) == status.Final {
			s.Closed++
			continue
		}

		s.Open++
		s.OpenByPriority[incident.PriorityLabel(inc)]++
		s.OpenByStatus[incident.StatusLabel(inc)]++

		age := inc.AgeDays(w.Now)
		if age < 0 {
			s.AgeUnknown++
			continue
		}
		if age > overDays {
			openOver++
		}
		for i := range s.AgeBuckets {
			if s.AgeBuckets[i].Contains(age) {
				s.AgeBuckets[i].Count++
				break
			}
		}
	}

	s.NetDelta = s.CreatedInWindow - s.ClosedInWindow
	if s.ResolvedSamples > 0 {
		s.MeanResolution = Days{Value: resSum / float64(s.ResolvedSamples), OK: true}
	}
	for p, values := range resByPriority {
		s.MeanResolutionByPriority[p] = Days{Value: mean(values), OK: true}
	}
	if s.Open > 0 {
		s.OpenOverShare = float64(openOver) / float64(s.Open)
	}
	return s
}

// PriorityResolution is one row of a mean-resolution-by-priority table.
type PriorityResolution struct {
	Priority string
	Days     Days
}

// ResolutionByPriority returns mean resolution rows ordered by priority rank.
func (s Snapshot) ResolutionByPriority() []PriorityResolution {
	out := make([]PriorityResolution, 0, len(s.MeanResolutionByPriority))
	for p, d := range s.MeanResolutionByPriority {
		out = append(out, PriorityResolution{Priority: p, Days: d})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := incident.PriorityRank(out[i].Priority), incident.PriorityRank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
