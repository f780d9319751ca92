package kpi

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBuckets is the age bucket layout used when none is configured.
const DefaultBuckets = "0-7,8-30,31-90,>90"

// Bucket is an inclusive age range in days. Max < 0 means open-ended.
type Bucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// Contains reports whether age (in whole days) falls in the bucket.
func (b Bucket) Contains(age int) bool {
	return age >= b.Min && (b.Max < 0 || age <= b.Max)
}

// ParseBuckets parses "0-7,8-30,31-90,>90". Each part is "lo-hi" or ">lo"
// (which starts at lo, matching the dashboard's labelling).
func ParseBuckets(layout string) ([]Bucket, error) {
	var out []Bucket
	for _, part := range strings.Split(layout, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var b Bucket
		switch {
		case strings.HasPrefix(part, ">"):
			lo, err := strconv.Atoi(strings.TrimSpace(part[1:]))
			if err != nil || lo < 0 {
				return nil, fmt.Errorf("invalid open-ended bucket %q", part)
			}
			b = Bucket{Label: part, Min: lo, Max: -1}
		case strings.Contains(part, "-"):
			loS, hiS, _ := strings.Cut(part, "-")
			lo, errLo := strconv.Atoi(strings.TrimSpace(loS))
			hi, errHi := strconv.Atoi(strings.TrimSpace(hiS))
			if errLo != nil || errHi != nil || lo < 0 || hi < lo {
				return nil, fmt.Errorf("invalid bucket range %q", part)
			}
			b = Bucket{Label: part, Min: lo, Max: hi}
		default:
			return nil, fmt.Errorf("invalid bucket %q", part)
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no buckets in %q", layout)
	}
	return out, nil
}

// MustParseBuckets is ParseBuckets for compile-time constants.
func MustParseBuckets(layout string) []Bucket {
	b, err := ParseBuckets(layout)
	if err != nil {
		panic(err)
	}
	return b
}
