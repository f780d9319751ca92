package insights

import (
	"fmt"
	"strings"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/textnorm"
)

// DuplicateGroup is a set of open incidents sharing one folded summary.
type DuplicateGroup struct {
	Summary string   `json:"summary"`
	Keys    []string `json:"keys"`
}

// ExactDuplicates groups incidents whose folded summaries are identical.
// Groups are ordered by size descending, then summary.
func ExactDuplicates(ds incident.Dataset) []DuplicateGroup {
	byKey := map[string]*DuplicateGroup{}
	counts := map[string]int{}
	for _, inc := range ds {
		k := textnorm.Fold(inc.Summary)
		if k == "" {
			continue
		}
		g := byKey[k]
		if g == nil {
			g = &DuplicateGroup{Summary: strings.TrimSpace(inc.Summary)}
			byKey[k] = g
		}
		g.Keys = append(g.Keys, inc.Key)
		counts[k]++
	}

	var out []DuplicateGroup
	for _, lc := range incident.Ranked(counts) {
		if lc.Count < 2 {
			break
		}
		out = append(out, *byKey[lc.Label])
	}
	return out
}

func duplicatesExact(th Thresholds) Pattern {
	return Pattern{
		ID:        "duplicates.exact",
		Category:  CategoryDuplicates,
		MinSignal: th.DuplicateShare,
		Eval: func(c *Context) (*Finding, error) {
			open := c.Open()
			groups := ExactDuplicates(open)
			if len(groups) == 0 {
				return nil, nil
			}
			issues := 0
			for _, g := range groups {
				issues += len(g.Keys)
			}
			s := share(issues, len(open))
			return &Finding{
				Title:  "Repeated incidents",
				Signal: s,
				Body: fmt.Sprintf("%d open incidents repeat a summary (%d groups, %s of the backlog). "+
					"Most repeated: %q (%d). Consolidating them frees capacity.",
					issues, len(groups), output.FormatPercent(s), groups[0].Summary, len(groups[0].Keys)),
			}, nil
		},
	}
}

func duplicatesSimilar(th Thresholds) Pattern {
	return Pattern{
		ID:        "duplicates.similar",
		Category:  CategoryDuplicates,
		MinSignal: th.SimilarShare,
		Eval: func(c *Context) (*Finding, error) {
			open := c.Open()
			clusters := SimilarClusters(open, SimilarityOptions{
				Threshold:       th.SimilarityThreshold,
				MinSharedTokens: th.MinSharedTokens,
				MaxIssues:       th.MaxSimilarIssues,
			})
			if len(clusters) == 0 {
				return nil, nil
			}
			sample := len(open)
			if th.MaxSimilarIssues > 0 && sample > th.MaxSimilarIssues {
				sample = th.MaxSimilarIssues
			}
			issues := 0
			for _, cl := range clusters {
				issues += cl.Size()
			}
			return &Finding{
				Title:  "Functional recurrence",
				Signal: share(issues, sample),
				Body: fmt.Sprintf("%d open incidents fall into %d clusters of near-identical summaries. "+
					"Largest: %q (%d). A shared root cause is likely.",
					issues, len(clusters), clusters[0].Representative, clusters[0].Size()),
			}, nil
		},
	}
}
