package engine

import (
	"context"
	"sort"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
)

// retrieve embeds the question and returns the top-k matching chunks,
// deduplicated by chunk ID and ordered by descending similarity with ties
// broken by ascending sequence. Ranks are 1-based. documentID "" searches
// every document.
func (e *Engine) retrieve(ctx context.Context, documentID, question string) ([]index.Hit, error) {
	hits, err := e.index.SearchText(ctx, documentID, question, e.cfg.RetrievalK)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(hits))
	deduped := hits[:0]
	for _, hit := range hits {
		if seen[hit.ID] {
			continue
		}
		seen[hit.ID] = true
		deduped = append(deduped, hit)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Score != deduped[j].Score {
			return deduped[i].Score > deduped[j].Score
		}
		return deduped[i].Seq < deduped[j].Seq
	})
	for i := range deduped {
		deduped[i].Rank = i + 1
	}
	return deduped, nil
}

// sourceNames returns the distinct document names behind the hits, in rank
// order.
func sourceNames(hits []index.Hit, names map[string]string) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, hit := range hits {
		name := names[hit.DocumentID]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}
