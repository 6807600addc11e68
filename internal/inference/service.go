// Package inference serves predictions from a trained artifact pair.
package inference

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cleanflow/water-recovery-system/internal/domain"
	"github.com/cleanflow/water-recovery-system/internal/ml"
)

// ErrModelNotLoaded is returned by Classify when the service holds no
// artifacts. New never returns such a service; the zero value does.
var ErrModelNotLoaded = errors.New("model not loaded")

// Service classifies readings against one immutable artifact pair. All
// state is read-only after construction, so a single Service is safe for
// concurrent use across request handlers and the ingestor.
type Service struct {
	scaler *ml.ScalerParams
	forest *ml.Forest
}

// New loads the scaler and classifier from modelDir and fails fast if the
// pair is missing or corrupt, so a misconfigured process never starts
// half-working. A missing pair satisfies errors.Is with ml.ErrArtifactMissing
// and means no training run has completed yet.
func New(modelDir string) (*Service, error) {
	scaler, err := ml.LoadScaler(filepath.Join(modelDir, ml.ScalerFileName))
	if err != nil {
		return nil, fmt.Errorf("load inference artifacts: %w", err)
	}
	forest, err := ml.LoadModel(filepath.Join(modelDir, ml.ModelFileName))
	if err != nil {
		return nil, fmt.Errorf("load inference artifacts: %w", err)
	}
	if forest.NumFeatures != len(scaler.FeatureNames) {
		return nil, fmt.Errorf("%w: scaler has %d features, model expects %d",
			ml.ErrArtifactCorrupt, len(scaler.FeatureNames), forest.NumFeatures)
	}
	if forest.NumClasses != domain.NumLabels {
		return nil, fmt.Errorf("%w: model emits %d classes, want %d",
			ml.ErrArtifactCorrupt, forest.NumClasses, domain.NumLabels)
	}
	return &Service{scaler: scaler, forest: forest}, nil
}

// Classify validates the reading, standardizes it with the stored scaler and
// returns the forest's vote. The probability vector always sums to one and
// Confidence is its maximum.
func (s *Service) Classify(r domain.SensorReading) (domain.Prediction, error) {
	if s == nil || s.scaler == nil || s.forest == nil {
		return domain.Prediction{}, ErrModelNotLoaded
	}
	if err := r.Validate(); err != nil {
		return domain.Prediction{}, err
	}

	label, probs := s.forest.Predict(s.scaler.Transform(r.Features()))

	p := domain.Prediction{
		Label:     domain.Label(label),
		LabelText: domain.Label(label).String(),
	}
	for i := range p.Probabilities {
		p.Probabilities[i] = probs[i]
	}
	p.Confidence = p.Probabilities[p.Label]
	return p, nil
}
