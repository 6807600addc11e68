package ml

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusters builds a cleanly separable three-class corpus around fixed
// centers with a little gaussian jitter.
func clusters(n int, seed int64) ([][]float64, []int) {
	centers := [][]float64{
		{0, 0},
		{10, 10},
		{-10, 10},
	}
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		class := i % len(centers)
		x[i] = []float64{
			centers[class][0] + rng.NormFloat64(),
			centers[class][1] + rng.NormFloat64(),
		}
		y[i] = class
	}
	return x, y
}

func TestTrainForest_SeparableData(t *testing.T) {
	x, y := clusters(300, 1)

	f, err := TrainForest(x, y, 3, ForestConfig{Trees: 25, MaxDepth: 6, Seed: 42})
	require.NoError(t, err)
	require.Len(t, f.Trees, 25)

	assert.GreaterOrEqual(t, f.Accuracy(x, y), 0.95)

	for class, center := range [][]float64{{0, 0}, {10, 10}, {-10, 10}} {
		label, _ := f.Predict(center)
		assert.Equal(t, class, label, "center of class %d", class)
	}
}

func TestForest_PredictProbabilities(t *testing.T) {
	x, y := clusters(300, 2)
	f, err := TrainForest(x, y, 3, ForestConfig{Trees: 25, MaxDepth: 6, Seed: 42})
	require.NoError(t, err)

	points := [][]float64{{0, 0}, {10, 10}, {-10, 10}, {5, 5}, {-3, 4}}
	for _, p := range points {
		label, probs := f.Predict(p)

		require.Len(t, probs, 3)
		sum := 0.0
		maxProb := 0.0
		for _, v := range probs {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			sum += v
			maxProb = math.Max(maxProb, v)
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "probabilities must sum to one at %v", p)
		assert.Equal(t, maxProb, probs[label], "majority label must carry the top vote share")
	}
}

func TestTrainForest_Deterministic(t *testing.T) {
	x, y := clusters(200, 3)

	a, err := TrainForest(x, y, 3, ForestConfig{Trees: 15, MaxDepth: 5, Seed: 42})
	require.NoError(t, err)
	b, err := TrainForest(x, y, 3, ForestConfig{Trees: 15, MaxDepth: 5, Seed: 42})
	require.NoError(t, err)

	require.Equal(t, a, b, "same seed must reproduce the forest exactly")

	c, err := TrainForest(x, y, 3, ForestConfig{Trees: 15, MaxDepth: 5, Seed: 7})
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds should grow different forests")
}

func TestTrainForest_SingleClassCorpus(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	y := []int{1, 1, 1}

	f, err := TrainForest(x, y, 3, ForestConfig{Trees: 5, MaxDepth: 4, Seed: 42})
	require.NoError(t, err)

	label, probs := f.Predict([]float64{2, 3})
	assert.Equal(t, 1, label)
	assert.InDelta(t, 1.0, probs[1], 1e-12)
}

func TestTrainForest_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		x    [][]float64
		y    []int
	}{
		{"empty corpus", nil, nil},
		{"length mismatch", [][]float64{{1}, {2}}, []int{0}},
		{"ragged rows", [][]float64{{1, 2}, {3}}, []int{0, 1}},
		{"label out of range", [][]float64{{1}, {2}}, []int{0, 3}},
		{"negative label", [][]float64{{1}, {2}}, []int{0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainForest(tt.x, tt.y, 3, ForestConfig{Trees: 2, Seed: 42})
			assert.Error(t, err)
		})
	}
}

func TestForestConfig_Defaults(t *testing.T) {
	cfg := ForestConfig{}.withDefaults(4)

	assert.Equal(t, 100, cfg.Trees)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, 2, cfg.MinSamplesSplit)
	assert.Equal(t, 2, cfg.FeaturesPerSplit)
	assert.Equal(t, int64(42), cfg.Seed)

	one := ForestConfig{}.withDefaults(1)
	assert.Equal(t, 1, one.FeaturesPerSplit)
}
