package engine

import "github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"

// Confidence weighting. Mean similarity dominates; coverage rewards a full
// result set; diversity discounts answers drawn from a single page.
const (
	similarityWeight = 0.65
	coverageWeight   = 0.25
	diversityWeight  = 0.10
)

// confidenceScore condenses a retrieval result into a trust signal in
// [0,1]. No hits score 0. The score is monotone in mean similarity when
// the other terms are held fixed.
func confidenceScore(hits []index.Hit, k int) float64 {
	if len(hits) == 0 {
		return 0
	}

	var sum float64
	for _, hit := range hits {
		sum += hit.Score
	}
	mean := sum / float64(len(hits))

	coverage := float64(len(hits)) / float64(k)
	if coverage > 1 {
		coverage = 1
	}

	// Hits spanning at least two distinct pages count as diverse.
	// A single page earns half credit rather than zero: one dense page
	// can legitimately carry the whole answer.
	type pageRef struct {
		doc  string
		page int
	}
	pages := make(map[pageRef]bool, len(hits))
	for _, hit := range hits {
		pages[pageRef{hit.DocumentID, hit.Page}] = true
	}
	diversity := 0.5
	if len(pages) >= 2 {
		diversity = 1.0
	}

	score := similarityWeight*mean + coverageWeight*coverage + diversityWeight*diversity
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
