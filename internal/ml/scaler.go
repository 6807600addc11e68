package ml

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateFeature reports a zero-variance feature in the training
// corpus. A constant column cannot be standardized; training aborts before
// any artifact is written.
var ErrDegenerateFeature = errors.New("degenerate feature")

// ScalerParams holds the per-feature standardization transform fitted once
// at training time and applied unchanged to every future reading. It is
// persisted alongside the classifier as one artifact pair; the two must come
// from the same training run.
type ScalerParams struct {
	Version      int       `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// FitScaler computes per-feature mean and standard deviation over the
// corpus. names label features in error messages and in the artifact.
func FitScaler(samples [][]float64, names []string) (*ScalerParams, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("fit scaler: empty corpus")
	}
	width := len(names)
	for i, row := range samples {
		if len(row) != width {
			return nil, fmt.Errorf("fit scaler: sample %d has %d features, want %d", i, len(row), width)
		}
	}

	n := float64(len(samples))
	mean := make([]float64, width)
	scale := make([]float64, width)

	for _, row := range samples {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range samples {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] <= 0 {
			return nil, fmt.Errorf("%w: %q has zero variance over %d samples", ErrDegenerateFeature, names[j], len(samples))
		}
	}

	return &ScalerParams{
		Version:      ArtifactVersion,
		FeatureNames: names,
		Mean:         mean,
		Scale:        scale,
	}, nil
}

// Transform standardizes one feature vector: (x - mean) / scale per feature.
// Pure function of the fitted parameters.
func (s *ScalerParams) Transform(features []float64) []float64 {
	out := make([]float64, len(features))
	for i, v := range features {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out
}

func (s *ScalerParams) validate() error {
	if s.Version != ArtifactVersion {
		return fmt.Errorf("scaler version %d, want %d", s.Version, ArtifactVersion)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) || len(s.Mean) != len(s.FeatureNames) {
		return fmt.Errorf("scaler has %d means, %d scales, %d names", len(s.Mean), len(s.Scale), len(s.FeatureNames))
	}
	for i, v := range s.Scale {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scaler feature %q has non-positive scale %v", s.FeatureNames[i], v)
		}
	}
	return nil
}
