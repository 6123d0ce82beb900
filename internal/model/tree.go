package model

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a CART decision tree. Internal nodes route on
// feature < threshold; leaves hold a class probability distribution.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	probs     []float64 // nil for internal nodes
}

// treeBuilder grows one tree on a bootstrap sample. It accumulates
// per-feature impurity decrease into importances as it splits, weighted
// by node size, which the forest later normalizes into the reported
// feature importances.
type treeBuilder struct {
	rows        [][]float64
	labels      []int
	numClasses  int
	maxDepth    int
	minLeaf     int
	subFeatures int
	rng         *rand.Rand
	importances []float64
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	counts := b.classCounts(indices)
	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf || isPure(counts) {
		return b.leaf(counts, len(indices))
	}

	feature, threshold, gain, ok := b.bestSplit(indices, counts)
	if !ok {
		return b.leaf(counts, len(indices))
	}

	b.importances[feature] += gain * float64(len(indices))

	var left, right []int
	for _, i := range indices {
		if b.rows[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// bestSplit searches a random feature subset for the threshold with the
// highest gini gain. Candidates are evaluated in a deterministic order
// given the seeded rng, so ties always resolve the same way.
func (b *treeBuilder) bestSplit(indices []int, parentCounts []int) (int, float64, float64, bool) {
	parent := gini(parentCounts, len(indices))

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	numFeatures := len(b.rows[0])
	for _, feature := range b.rng.Perm(numFeatures)[:b.subFeatures] {
		ordered := make([]int, len(indices))
		copy(ordered, indices)
		sort.Slice(ordered, func(i, j int) bool {
			return b.rows[ordered[i]][feature] < b.rows[ordered[j]][feature]
		})

		leftCounts := make([]int, b.numClasses)
		rightCounts := append([]int(nil), parentCounts...)

		for i := 0; i < len(ordered)-1; i++ {
			label := b.labels[ordered[i]]
			leftCounts[label]++
			rightCounts[label]--

			v, next := b.rows[ordered[i]][feature], b.rows[ordered[i+1]][feature]
			if v == next {
				continue
			}
			nLeft := i + 1
			nRight := len(ordered) - nLeft
			if nLeft < b.minLeaf || nRight < b.minLeaf {
				continue
			}

			weighted := (float64(nLeft)*gini(leftCounts, nLeft) +
				float64(nRight)*gini(rightCounts, nRight)) / float64(len(ordered))
			if gain := parent - weighted; gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (v + next) / 2
			}
		}
	}

	if bestFeature < 0 || bestGain <= 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

func (b *treeBuilder) leaf(counts []int, total int) *treeNode {
	probs := make([]float64, b.numClasses)
	if total > 0 {
		for class, n := range counts {
			probs[class] = float64(n) / float64(total)
		}
	}
	return &treeNode{probs: probs}
}

func (b *treeBuilder) classCounts(indices []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range indices {
		counts[b.labels[i]]++
	}
	return counts
}

// predictRow descends to a leaf and returns its class distribution.
func (n *treeNode) predictRow(row []float64) []float64 {
	for n.probs == nil {
		if row[n.feature] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.probs
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, n := range counts {
		p := float64(n) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, n := range counts {
		if n > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}
