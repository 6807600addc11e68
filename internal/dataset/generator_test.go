package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanflow/water-recovery-system/internal/domain"
)

func TestGenerator_Generate_Deterministic(t *testing.T) {
	policy := domain.DefaultQualityPolicy()

	a, err := New(Config{Seed: 42}, policy).Generate()
	require.NoError(t, err)
	b, err := New(Config{Seed: 42}, policy).Generate()
	require.NoError(t, err)

	require.Equal(t, a, b, "same seed must reproduce the corpus exactly")

	c, err := New(Config{Seed: 43}, policy).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds should diverge")
}

func TestGenerator_Generate_Defaults(t *testing.T) {
	samples, err := New(Config{}, domain.DefaultQualityPolicy()).Generate()
	require.NoError(t, err)
	assert.Len(t, samples, 1000)
}

func TestGenerator_Generate_ClassFloor(t *testing.T) {
	samples, err := New(Config{}, domain.DefaultQualityPolicy()).Generate()
	require.NoError(t, err)

	counts := countLabels(samples)
	minCount := len(samples) * 5 / 100
	for label, count := range counts {
		assert.GreaterOrEqual(t, count, minCount,
			"label %s below the 5%% floor", domain.Label(label))
	}
}

func TestGenerator_LabelsFollowPolicy(t *testing.T) {
	policy := domain.DefaultQualityPolicy()
	samples, err := New(Config{Samples: 500}, policy).Generate()
	require.NoError(t, err)

	for _, s := range samples {
		require.Equal(t, policy.Classify(s.Reading), s.Label)
	}
}

func TestGenerator_DrawStaysInDomain(t *testing.T) {
	g := New(Config{Seed: 7}, domain.DefaultQualityPolicy())
	for i := 0; i < 2000; i++ {
		r := g.Draw()
		require.NoError(t, r.Validate(), "draw %d: %+v", i, r)
	}
}

func TestGenerator_Generate_ImbalanceIsFatal(t *testing.T) {
	// Three labels cannot each hold 50% of the corpus, so every attempt
	// fails and the bounded retry loop must give up.
	g := New(Config{Samples: 200, MinClassShare: 0.5, MaxRetries: 3}, domain.DefaultQualityPolicy())

	_, err := g.Generate()
	require.ErrorIs(t, err, ErrClassImbalance)
	assert.Contains(t, err.Error(), "3 attempts")
}
