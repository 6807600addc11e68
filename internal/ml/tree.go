package ml

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a decision tree. Trees are stored as flat arrays
// with child indices so they serialize portably across runtimes. Internal
// nodes carry a split (LeafLabel -1); leaves carry only the label.
type TreeNode struct {
	FeatureIndex int     `json:"feature_index"`
	Threshold    float64 `json:"threshold"`
	Left         int     `json:"left"`
	Right        int     `json:"right"`
	LeafLabel    int     `json:"leaf_label"`
}

// IsLeaf reports whether the node terminates a path.
func (n TreeNode) IsLeaf() bool { return n.LeafLabel >= 0 }

type treeBuilder struct {
	x          [][]float64
	y          []int
	numClasses int

	maxDepth         int
	minSamplesSplit  int
	featuresPerSplit int

	rng   *rand.Rand
	nodes []TreeNode
}

// build grows a subtree over the given sample indices and returns the index
// of its root within the flat node array.
func (b *treeBuilder) build(indices []int, depth int) int {
	counts := b.classCounts(indices)

	if depth >= b.maxDepth || len(indices) < b.minSamplesSplit || isPure(counts) {
		return b.leaf(counts)
	}

	feature, threshold, ok := b.bestSplit(indices, counts)
	if !ok {
		return b.leaf(counts)
	}

	var left, right []int
	for _, idx := range indices {
		if b.x[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(counts)
	}

	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{})
	leftIdx := b.build(left, depth+1)
	rightIdx := b.build(right, depth+1)
	b.nodes[nodeIdx] = TreeNode{
		FeatureIndex: feature,
		Threshold:    threshold,
		Left:         leftIdx,
		Right:        rightIdx,
		LeafLabel:    -1,
	}
	return nodeIdx
}

func (b *treeBuilder) leaf(counts []int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{
		FeatureIndex: -1,
		Left:         -1,
		Right:        -1,
		LeafLabel:    argmax(counts),
	})
	return idx
}

// bestSplit searches a random feature subset for the threshold with the
// lowest weighted gini impurity. ok is false when no split separates the
// samples at all.
func (b *treeBuilder) bestSplit(indices []int, parentCounts []int) (feature int, threshold float64, ok bool) {
	parentGini := gini(parentCounts, len(indices))
	bestGini := parentGini - 1e-12

	for _, f := range b.sampleFeatures() {
		t, g, found := b.bestThreshold(indices, f)
		if found && g < bestGini {
			bestGini = g
			feature = f
			threshold = t
			ok = true
		}
	}
	return feature, threshold, ok
}

// bestThreshold scans the sorted values of one feature, moving samples from
// the right partition to the left one value at a time.
func (b *treeBuilder) bestThreshold(indices []int, feature int) (threshold, bestGini float64, found bool) {
	type valueClass struct {
		value float64
		class int
	}
	vc := make([]valueClass, len(indices))
	for i, idx := range indices {
		vc[i] = valueClass{b.x[idx][feature], b.y[idx]}
	}
	sort.Slice(vc, func(i, j int) bool { return vc[i].value < vc[j].value })

	total := len(vc)
	leftCounts := make([]int, b.numClasses)
	rightCounts := make([]int, b.numClasses)
	for _, s := range vc {
		rightCounts[s.class]++
	}

	bestGini = 1.0
	for i := 0; i < total-1; i++ {
		leftCounts[vc[i].class]++
		rightCounts[vc[i].class]--
		if vc[i].value == vc[i+1].value {
			continue
		}
		nl, nr := i+1, total-i-1
		weighted := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(total)
		if weighted < bestGini {
			bestGini = weighted
			threshold = (vc[i].value + vc[i+1].value) / 2
			found = true
		}
	}
	return threshold, bestGini, found
}

// sampleFeatures picks the candidate features for one split without
// replacement.
func (b *treeBuilder) sampleFeatures() []int {
	width := len(b.x[0])
	k := b.featuresPerSplit
	if k >= width {
		all := make([]int, width)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := b.rng.Perm(width)
	return perm[:k]
}

func (b *treeBuilder) classCounts(indices []int) []int {
	counts := make([]int, b.numClasses)
	for _, idx := range indices {
		counts[b.y[idx]]++
	}
	return counts
}

// predictTree walks a flat tree from the root until a leaf.
func predictTree(nodes []TreeNode, features []float64) int {
	i := 0
	for !nodes[i].IsLeaf() {
		if features[nodes[i].FeatureIndex] <= nodes[i].Threshold {
			i = nodes[i].Left
		} else {
			i = nodes[i].Right
		}
	}
	return nodes[i].LeafLabel
}

// gini computes the impurity of a class count vector over n samples.
func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum -= p * p
	}
	return sum
}

func isPure(counts []int) bool {
	seen := 0
	for _, c := range counts {
		if c > 0 {
			seen++
		}
	}
	return seen <= 1
}

// argmax returns the first index holding the maximum count, which keeps tie
// breaking deterministic.
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
