package insights

import (
	"regexp"
	"sort"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/textnorm"
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// stopWords are dropped before comparing summaries (English and Spanish).
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "con": true, "de": true, "del": true, "do": true,
	"el": true, "en": true, "for": true, "from": true, "if": true, "in": true,
	"is": true, "la": true, "las": true, "los": true, "no": true, "of": true,
	"on": true, "or": true, "para": true, "por": true, "que": true, "se": true,
	"sin": true, "the": true, "to": true, "un": true, "una": true, "with": true,
	"y": true,
}

const (
	minTokenLen     = 3
	commonTokenMin  = 25
	commonTokenFrac = 0.25
)

// SimilarityOptions bound near-duplicate clustering.
type SimilarityOptions struct {
	Threshold       float64
	MinSharedTokens int
	MaxIssues       int
}

// Cluster is a group of incidents with near-identical summaries.
type Cluster struct {
	Representative string   `json:"representative"`
	Keys           []string `json:"keys"`
}

// Size is the number of incidents in the cluster.
func (c Cluster) Size() int { return len(c.Keys) }

// summaryTokens folds a summary into its set of significant tokens.
func summaryTokens(summary string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range tokenRe.FindAllString(textnorm.Fold(summary), -1) {
		if len(tok) < minTokenLen || stopWords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

// dsu is a union-find with path halving and union by rank.
type dsu struct {
	parent []int
	rank   []int
}

func newDSU(n int) *dsu {
	d := &dsu{parent: make([]int, n), rank: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

func (d *dsu) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *dsu) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

// SimilarClusters groups the first MaxIssues incidents of ds by Jaccard
// similarity of their summary tokens. Tokens present in too many summaries
// are ignored. Clusters are ordered by size descending, then representative.
func SimilarClusters(ds incident.Dataset, opts SimilarityOptions) []Cluster {
	if opts.MaxIssues > 0 && len(ds) > opts.MaxIssues {
		ds = ds[:opts.MaxIssues]
	}
	n := len(ds)
	if n < 2 {
		return nil
	}

	docs := make([]map[string]bool, n)
	df := map[string]int{}
	for i, inc := range ds {
		docs[i] = summaryTokens(inc.Summary)
		for tok := range docs[i] {
			df[tok]++
		}
	}

	maxDF := commonTokenMin
	if f := int(commonTokenFrac * float64(n)); f > maxDF {
		maxDF = f
	}
	for i, doc := range docs {
		for tok := range doc {
			if df[tok] >= maxDF {
				delete(docs[i], tok)
			}
		}
	}

	index := map[string][]int{}
	for i, doc := range docs {
		for tok := range doc {
			index[tok] = append(index[tok], i)
		}
	}

	sets := newDSU(n)
	for i, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		shared := map[int]int{}
		for tok := range doc {
			for _, j := range index[tok] {
				if j > i {
					shared[j]++
				}
			}
		}
		for j, s := range shared {
			if s < opts.MinSharedTokens {
				continue
			}
			jaccard := float64(s) / float64(len(doc)+len(docs[j])-s)
			if jaccard >= opts.Threshold {
				sets.union(i, j)
			}
		}
	}

	groups := map[int][]int{}
	for i := 0; i < n; i++ {
		root := sets.find(i)
		groups[root] = append(groups[root], i)
	}

	var clusters []Cluster
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		c := Cluster{Keys: make([]string, 0, len(members))}
		summaries := map[string]int{}
		for _, m := range members {
			c.Keys = append(c.Keys, ds[m].Key)
			summaries[ds[m].Summary]++
		}
		sort.Strings(c.Keys)
		c.Representative = incident.Ranked(summaries)[0].Label
		clusters = append(clusters, c)
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Size() != clusters[j].Size() {
			return clusters[i].Size() > clusters[j].Size()
		}
		return clusters[i].Representative < clusters[j].Representative
	})
	return clusters
}
