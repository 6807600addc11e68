package inference

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanflow/water-recovery-system/internal/domain"
	"github.com/cleanflow/water-recovery-system/internal/ml"
	"github.com/cleanflow/water-recovery-system/internal/training"
)

// trainedDir runs a small training pipeline into a temp directory and
// returns it. The corpus is large enough for the forest to pin down the
// boundary rule on the canonical scenarios below.
func trainedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := training.Run(training.Config{
		Samples:     1000,
		Trees:       60,
		MaxDepth:    10,
		ArtifactDir: dir,
	}, domain.DefaultQualityPolicy())
	require.NoError(t, err)
	return dir
}

func TestNew_MissingArtifacts(t *testing.T) {
	_, err := New(t.TempDir())
	assert.ErrorIs(t, err, ml.ErrArtifactMissing)
}

func TestNew_CorruptModel(t *testing.T) {
	dir := trainedDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ml.ModelFileName), []byte("garbage"), 0o644))

	_, err := New(dir)
	assert.ErrorIs(t, err, ml.ErrArtifactCorrupt)
}

func TestClassify_ModelNotLoaded(t *testing.T) {
	var svc Service

	_, err := svc.Classify(domain.SensorReading{PH: 7, Turbidity: 2, Temperature: 22, TDS: 150})
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestClassify_InvalidReading(t *testing.T) {
	svc, err := New(trainedDir(t))
	require.NoError(t, err)

	_, err = svc.Classify(domain.SensorReading{PH: 15, Turbidity: 2, Temperature: 22, TDS: 150})
	assert.ErrorIs(t, err, domain.ErrInvalidReading)
}

func TestClassify_Scenarios(t *testing.T) {
	svc, err := New(trainedDir(t))
	require.NoError(t, err)

	tests := []struct {
		name    string
		reading domain.SensorReading
		want    domain.Label
	}{
		{
			name:    "clean greywater",
			reading: domain.SensorReading{PH: 7.0, Turbidity: 2, Temperature: 22, TDS: 150},
			want:    domain.LabelSafeForReuse,
		},
		{
			name:    "acidic and saturated",
			reading: domain.SensorReading{PH: 3.0, Turbidity: 50, Temperature: 22, TDS: 1200},
			want:    domain.LabelUnsafe,
		},
		{
			name:    "slightly off spec",
			reading: domain.SensorReading{PH: 6.0, Turbidity: 12, Temperature: 22, TDS: 150},
			want:    domain.LabelNeedsTreatment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Classify(tt.reading)
			require.NoError(t, err)

			assert.Equal(t, tt.want, p.Label)
			assert.Equal(t, tt.want.String(), p.LabelText)
			assert.GreaterOrEqual(t, p.Confidence, 0.5)

			sum := 0.0
			maxProb := 0.0
			for _, v := range p.Probabilities {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
				sum += v
				if v > maxProb {
					maxProb = v
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
			assert.Equal(t, maxProb, p.Confidence)
		})
	}
}

func TestClassify_Concurrent(t *testing.T) {
	svc, err := New(trainedDir(t))
	require.NoError(t, err)

	reading := domain.SensorReading{PH: 7.2, Turbidity: 3, Temperature: 24, TDS: 220}
	want, err := svc.Classify(reading)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]domain.Prediction, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.Classify(reading)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		assert.Equal(t, want, p)
	}
}
