// Package eval measures retrieval quality against golden query sets
// using standard information-retrieval metrics.
package eval

import "math"

// PrecisionAtK is the fraction of the top k ranked items that are
// relevant. A k larger than the ranking is treated as len(ranked).
func PrecisionAtK(ranked []string, relevant map[string]bool, k int) float64 {
	if k <= 0 {
		return 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	if k == 0 {
		return 0
	}

	hits := 0
	for _, id := range ranked[:k] {
		if relevant[id] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// RecallAtK is the fraction of relevant items found in the top k.
func RecallAtK(ranked []string, relevant map[string]bool, k int) float64 {
	if len(relevant) == 0 || k <= 0 {
		return 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}

	hits := 0
	for _, id := range ranked[:k] {
		if relevant[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// ReciprocalRank is 1/rank of the first relevant item, or 0 when none
// is ranked. Averaged across queries this gives MRR.
func ReciprocalRank(ranked []string, relevant map[string]bool) float64 {
	for i, id := range ranked {
		if relevant[id] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// NDCGAtK is the normalised discounted cumulative gain at k with
// binary relevance. Items further down the ranking contribute less;
// the result is 1.0 for a perfect ordering.
func NDCGAtK(ranked []string, relevant map[string]bool, k int) float64 {
	if len(relevant) == 0 || k <= 0 {
		return 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}

	dcg := 0.0
	for i, id := range ranked[:k] {
		if relevant[id] {
			dcg += 1 / math.Log2(float64(i)+2)
		}
	}

	ideal := len(relevant)
	if ideal > k {
		ideal = k
	}
	idcg := 0.0
	for i := 0; i < ideal; i++ {
		idcg += 1 / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// toSet converts a relevance list to a lookup set.
func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
