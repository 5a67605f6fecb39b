package preference

import (
	"fmt"
	"math/rand"
	"sort"
)

// Fixed hyperparameters so that repeated training on identical data produces
// an identical model.
const (
	numTrees        = 100
	forestSeed      = 42
	maxDepth        = 16
	minSamplesSplit = 2
)

// Forest is a multi-output random-forest regressor: an ensemble of regression
// trees fitted on bootstrap samples, predicting the average of the per-tree
// leaf vectors.
type Forest struct {
	Trees       []*node `json:"trees"`
	NumFeatures int     `json:"num_features"`
	NumOutputs  int     `json:"num_outputs"`
}

// node is one tree node. Leaves carry the mean label vector of their
// training rows; internal nodes split on Feature <= Threshold.
type node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *node     `json:"left,omitempty"`
	Right     *node     `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

func (n *node) isLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Fit trains a forest on the given feature and label matrices. Rows must be
// aligned and non-empty; every row must have the same width.
func Fit(features, labels [][]float64) (*Forest, error) {
	if len(features) == 0 || len(labels) == 0 {
		return nil, ErrInsufficientData
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("%w: %d feature rows vs %d label rows", ErrInsufficientData, len(features), len(labels))
	}

	numFeatures := len(features[0])
	numOutputs := len(labels[0])
	for i := range features {
		if len(features[i]) != numFeatures {
			return nil, fmt.Errorf("feature row %d has width %d, want %d", i, len(features[i]), numFeatures)
		}
		if len(labels[i]) != numOutputs {
			return nil, fmt.Errorf("label row %d has width %d, want %d", i, len(labels[i]), numOutputs)
		}
	}

	f := &Forest{
		Trees:       make([]*node, numTrees),
		NumFeatures: numFeatures,
		NumOutputs:  numOutputs,
	}

	n := len(features)
	for t := 0; t < numTrees; t++ {
		// Per-tree seed keeps each tree deterministic on its own.
		rng := rand.New(rand.NewSource(forestSeed + int64(t)))
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		f.Trees[t] = buildTree(features, labels, sample, 0)
	}

	return f, nil
}

// Predict returns the label vector for a single feature vector.
func (f *Forest) Predict(x []float64) ([]float64, error) {
	if len(x) != f.NumFeatures {
		return nil, fmt.Errorf("feature vector has width %d, model expects %d", len(x), f.NumFeatures)
	}

	out := make([]float64, f.NumOutputs)
	for _, tree := range f.Trees {
		leaf := tree
		for !leaf.isLeaf() {
			if x[leaf.Feature] <= leaf.Threshold {
				leaf = leaf.Left
			} else {
				leaf = leaf.Right
			}
		}
		for k, v := range leaf.Value {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(f.Trees))
	}
	return out, nil
}

func buildTree(features, labels [][]float64, idx []int, depth int) *node {
	if depth >= maxDepth || len(idx) < minSamplesSplit {
		return leafNode(labels, idx)
	}

	parentSSE := labelSSE(labels, idx)
	if parentSSE == 0 {
		// All labels identical; nothing left to split on.
		return leafNode(labels, idx)
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := parentSSE

	numFeatures := len(features[0])
	sorted := make([]int, len(idx))

	for f := 0; f < numFeatures; f++ {
		copy(sorted, idx)
		// Ties broken by row index so the ordering is deterministic.
		sort.Slice(sorted, func(a, b int) bool {
			if features[sorted[a]][f] != features[sorted[b]][f] {
				return features[sorted[a]][f] < features[sorted[b]][f]
			}
			return sorted[a] < sorted[b]
		})

		threshold, score, ok := bestSplitOnSorted(features, labels, sorted, f)
		if ok && score < bestScore-1e-12 {
			bestFeature = f
			bestThreshold = threshold
			bestScore = score
		}
	}

	if bestFeature < 0 {
		return leafNode(labels, idx)
	}

	var left, right []int
	for _, i := range idx {
		if features[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leafNode(labels, idx)
	}

	return &node{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      buildTree(features, labels, left, depth+1),
		Right:     buildTree(features, labels, right, depth+1),
	}
}

// bestSplitOnSorted scans every split position of the rows (pre-sorted by
// feature f) and returns the threshold minimizing the summed left/right SSE
// across all outputs.
func bestSplitOnSorted(features, labels [][]float64, sorted []int, f int) (threshold, score float64, ok bool) {
	n := len(sorted)
	numOutputs := len(labels[0])

	totalSum := make([]float64, numOutputs)
	totalSq := make([]float64, numOutputs)
	for _, i := range sorted {
		for k, y := range labels[i] {
			totalSum[k] += y
			totalSq[k] += y * y
		}
	}

	leftSum := make([]float64, numOutputs)
	leftSq := make([]float64, numOutputs)
	best := 0.0
	found := false

	for p := 1; p < n; p++ {
		row := sorted[p-1]
		for k, y := range labels[row] {
			leftSum[k] += y
			leftSq[k] += y * y
		}

		// Can't split between equal feature values.
		if features[sorted[p-1]][f] == features[sorted[p]][f] {
			continue
		}

		sse := 0.0
		nl, nr := float64(p), float64(n-p)
		for k := 0; k < numOutputs; k++ {
			rightSum := totalSum[k] - leftSum[k]
			rightSq := totalSq[k] - leftSq[k]
			sse += leftSq[k] - leftSum[k]*leftSum[k]/nl
			sse += rightSq - rightSum*rightSum/nr
		}

		if !found || sse < best {
			best = sse
			threshold = (features[sorted[p-1]][f] + features[sorted[p]][f]) / 2
			found = true
		}
	}

	return threshold, best, found
}

func leafNode(labels [][]float64, idx []int) *node {
	value := make([]float64, len(labels[0]))
	for _, i := range idx {
		for k, y := range labels[i] {
			value[k] += y
		}
	}
	for k := range value {
		value[k] /= float64(len(idx))
	}
	return &node{Feature: -1, Value: value}
}

// labelSSE is the total sum of squared deviations from the mean, summed over
// outputs. Zero means all label rows in idx are identical.
func labelSSE(labels [][]float64, idx []int) float64 {
	numOutputs := len(labels[0])
	sum := make([]float64, numOutputs)
	sq := make([]float64, numOutputs)
	for _, i := range idx {
		for k, y := range labels[i] {
			sum[k] += y
			sq[k] += y * y
		}
	}
	n := float64(len(idx))
	sse := 0.0
	for k := 0; k < numOutputs; k++ {
		sse += sq[k] - sum[k]*sum[k]/n
	}
	if sse < 0 {
		// Floating-point cancellation can push a uniform set slightly negative.
		return 0
	}
	return sse
}
