// Package ml implements the statistical core of the water quality engine:
// feature standardization, a random forest of decision trees, and the
// versioned artifact files both are persisted to.
package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig holds the random forest hyperparameters. Zero values fall
// back to the documented defaults.
type ForestConfig struct {
	Trees            int   // default 100
	MaxDepth         int   // default 10
	MinSamplesSplit  int   // default 2
	FeaturesPerSplit int   // default sqrt of the feature count
	Seed             int64 // default 42
}

func (cfg ForestConfig) withDefaults(numFeatures int) ForestConfig {
	if cfg.Trees == 0 {
		cfg.Trees = 100
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MinSamplesSplit == 0 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.FeaturesPerSplit == 0 {
		cfg.FeaturesPerSplit = int(math.Sqrt(float64(numFeatures)))
		if cfg.FeaturesPerSplit < 1 {
			cfg.FeaturesPerSplit = 1
		}
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return cfg
}

// Forest is an ensemble of independently trained decision trees over scaled
// features. Immutable after training; safe for concurrent prediction.
type Forest struct {
	Version     int          `json:"version"`
	NumClasses  int          `json:"num_classes"`
	NumFeatures int          `json:"num_features"`
	Trees       [][]TreeNode `json:"trees"`
}

// TrainForest fits the ensemble: each tree is grown on a bootstrap sample of
// the corpus with per-split feature subsampling. Training is deterministic
// for a fixed seed.
func TrainForest(x [][]float64, y []int, numClasses int, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("train forest: empty corpus")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("train forest: %d samples but %d labels", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("train forest: sample %d has %d features, want %d", i, len(row), width)
		}
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("train forest: label %d of sample %d outside [0, %d)", label, i, numClasses)
		}
	}

	cfg = cfg.withDefaults(width)
	rng := rand.New(rand.NewSource(cfg.Seed))
	n := len(x)

	forest := &Forest{
		Version:     ArtifactVersion,
		NumClasses:  numClasses,
		NumFeatures: width,
		Trees:       make([][]TreeNode, 0, cfg.Trees),
	}

	for t := 0; t < cfg.Trees; t++ {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		b := &treeBuilder{
			x:                x,
			y:                y,
			numClasses:       numClasses,
			maxDepth:         cfg.MaxDepth,
			minSamplesSplit:  cfg.MinSamplesSplit,
			featuresPerSplit: cfg.FeaturesPerSplit,
			rng:              rng,
		}
		b.build(indices, 0)
		forest.Trees = append(forest.Trees, b.nodes)
	}
	return forest, nil
}

// Predict runs one scaled feature vector through every tree and tallies the
// votes. It returns the majority label and the per-class vote fractions,
// which sum to 1. Ties break toward the lower label code. Deterministic for
// a fixed trained model.
func (f *Forest) Predict(features []float64) (int, []float64) {
	votes := make([]int, f.NumClasses)
	for _, tree := range f.Trees {
		votes[predictTree(tree, features)]++
	}
	probs := make([]float64, f.NumClasses)
	total := float64(len(f.Trees))
	for i, v := range votes {
		probs[i] = float64(v) / total
	}
	return argmax(votes), probs
}

// Accuracy is the fraction of samples whose majority vote matches the given
// labels.
func (f *Forest) Accuracy(x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i, row := range x {
		if label, _ := f.Predict(row); label == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}

func (f *Forest) validate() error {
	if f.Version != ArtifactVersion {
		return fmt.Errorf("model version %d, want %d", f.Version, ArtifactVersion)
	}
	if f.NumClasses < 2 {
		return fmt.Errorf("model has %d classes", f.NumClasses)
	}
	if f.NumFeatures < 1 {
		return fmt.Errorf("model has %d features", f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for t, tree := range f.Trees {
		if len(tree) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, node := range tree {
			if node.IsLeaf() {
				if node.LeafLabel >= f.NumClasses {
					return fmt.Errorf("tree %d node %d leaf label %d outside [0, %d)", t, i, node.LeafLabel, f.NumClasses)
				}
				continue
			}
			if node.FeatureIndex < 0 || node.FeatureIndex >= f.NumFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d outside [0, %d)", t, i, node.FeatureIndex, f.NumFeatures)
			}
			if node.Left <= i || node.Left >= len(tree) || node.Right <= i || node.Right >= len(tree) {
				return fmt.Errorf("tree %d node %d has child indices %d, %d outside (%d, %d)", t, i, node.Left, node.Right, i, len(tree))
			}
		}
	}
	return nil
}
