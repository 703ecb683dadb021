package service

import (
	"sort"
	"time"

	"github.com/mindfoldhq/mindfold/internal/domain"
)

const (
	// defaultTopKItems is how many of a domain's best-matching items
	// feed its relevance score. The top-K mean avoids dilution by large
	// domains full of loosely related items without overfitting to one
	// lucky outlier the way a single max would.
	defaultTopKItems = 5

	// defaultMaxSelected caps how many domains a routing decision selects.
	defaultMaxSelected = 5

	// defaultMinScore is the floor below which a domain is dropped from
	// the selection to suppress noise matches on unrelated queries. It
	// never removes the domain from the audit score map.
	defaultMinScore = 0.15
)

// DomainSimilarity carries one domain's per-item similarities to a
// query embedding. The similarity slice is unordered; scoring must not
// depend on item insertion order.
type DomainSimilarity struct {
	DomainID     string
	Name         string
	CreatedAt    time.Time
	Similarities []float64
}

// RankingConfig tunes domain ranking. Zero values fall back to defaults.
type RankingConfig struct {
	TopKItems   int
	MaxSelected int
	MinScore    float64
}

func (c RankingConfig) withDefaults() RankingConfig {
	if c.TopKItems <= 0 {
		c.TopKItems = defaultTopKItems
	}
	if c.MaxSelected <= 0 {
		c.MaxSelected = defaultMaxSelected
	}
	if c.MinScore <= 0 {
		c.MinScore = defaultMinScore
	}
	return c
}

// Ranking is the outcome of scoring an owner's domains against a query.
// Scores holds every domain, including empty ones at 0 and ones the
// floor filter excluded from Selected.
type Ranking struct {
	Scores     map[string]float64
	Selected   []domain.SelectedDomain
	Confidence float64
}

// RankDomains scores each domain as the mean of its top-K item
// similarities, orders them descending with ties broken by domain
// creation time (oldest first), and derives a margin-based confidence:
// a decisive winner scores high even when the runner-up is strong in
// absolute terms, and a near-tie scores low.
func RankDomains(domains []*DomainSimilarity, cfg RankingConfig) Ranking {
	cfg = cfg.withDefaults()

	ranking := Ranking{Scores: make(map[string]float64, len(domains))}

	type candidate struct {
		sim   *DomainSimilarity
		score float64
	}
	var candidates []candidate

	for _, d := range domains {
		if len(d.Similarities) == 0 {
			ranking.Scores[d.DomainID] = 0
			continue
		}
		score := topKMean(d.Similarities, cfg.TopKItems)
		ranking.Scores[d.DomainID] = score
		candidates = append(candidates, candidate{sim: d, score: score})
	}

	if len(candidates) == 0 {
		return ranking
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].sim.CreatedAt.Equal(candidates[j].sim.CreatedAt) {
			return candidates[i].sim.CreatedAt.Before(candidates[j].sim.CreatedAt)
		}
		return candidates[i].sim.DomainID < candidates[j].sim.DomainID
	})

	if len(candidates) > 1 {
		ranking.Confidence = confidence(candidates[0].score, candidates[1].score, true)
	} else {
		ranking.Confidence = confidence(candidates[0].score, 0, false)
	}

	for i, c := range candidates {
		if i >= cfg.MaxSelected {
			break
		}
		if c.score <= cfg.MinScore {
			break
		}
		ranking.Selected = append(ranking.Selected, domain.SelectedDomain{
			DomainID:       c.sim.DomainID,
			DomainName:     c.sim.Name,
			Rank:           i + 1,
			RelevanceScore: c.score,
		})
	}

	return ranking
}

// topKMean averages the k largest similarities (all of them when the
// domain has fewer than k items). The input slice is left untouched.
func topKMean(similarities []float64, k int) float64 {
	sorted := make([]float64, len(similarities))
	copy(sorted, similarities)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	if k > len(sorted) {
		k = len(sorted)
	}

	var sum float64
	for _, s := range sorted[:k] {
		sum += s
	}
	return sum / float64(k)
}

// confidence maps (top, runnerUp) to [0,1]. A top score of zero means
// nothing matched; a lone qualifying domain keeps its own score as the
// confidence (cosine similarities here are already clamped to [0,1]).
func confidence(top float64, runnerUp float64, hasRunnerUp bool) float64 {
	if top == 0 {
		return 0
	}
	if !hasRunnerUp {
		return clip01(top)
	}
	return clip01((top - runnerUp) / top)
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
