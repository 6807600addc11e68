// Package training runs the offline pipeline that produces the model
// artifacts consumed by the inference service: synthetic corpus generation,
// train/test split, scaler fit, forest fit and artifact persistence.
package training

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cleanflow/water-recovery-system/internal/dataset"
	"github.com/cleanflow/water-recovery-system/internal/domain"
	"github.com/cleanflow/water-recovery-system/internal/ml"
)

// Config controls one training run. Zero values fall back to the defaults
// used by the stock deployment, so Config{} is a valid full run.
type Config struct {
	Samples      int     // corpus size, default 1000
	TestFraction float64 // held-out share, default 0.2
	Seed         int64   // drives corpus, split and forest, default 42
	Trees        int     // forest size, default 100
	MaxDepth     int     // per-tree depth cap, default 10
	ArtifactDir  string  // destination directory, default "models"
}

func (cfg Config) withDefaults() Config {
	if cfg.Samples <= 0 {
		cfg.Samples = 1000
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "models"
	}
	return cfg
}

// Result summarizes a completed training run.
type Result struct {
	RunID         string                `json:"run_id"`
	TrainSamples  int                   `json:"train_samples"`
	TestSamples   int                   `json:"test_samples"`
	ClassCounts   [domain.NumLabels]int `json:"class_counts"`
	TrainAccuracy float64               `json:"train_accuracy"`
	TestAccuracy  float64               `json:"test_accuracy"`
	ScalerPath    string                `json:"scaler_path"`
	ModelPath     string                `json:"model_path"`
	Duration      time.Duration         `json:"duration"`
}

// Run executes the full pipeline. Both artifacts are written atomically, and
// always as a pair from the same run: a failure before the second write
// leaves the previous pair untouched on disk.
func Run(cfg Config, policy domain.QualityPolicy) (*Result, error) {
	cfg = cfg.withDefaults()
	start := time.Now()
	runID := uuid.NewString()

	gen := dataset.New(dataset.Config{Samples: cfg.Samples, Seed: cfg.Seed}, policy)
	samples, err := gen.Generate()
	if err != nil {
		return nil, fmt.Errorf("training run %s: %w", runID, err)
	}

	var counts [domain.NumLabels]int
	for _, s := range samples {
		counts[s.Label]++
	}
	log.Info().
		Str("run_id", runID).
		Int("samples", len(samples)).
		Int("safe", counts[domain.LabelSafeForReuse]).
		Int("needs_treatment", counts[domain.LabelNeedsTreatment]).
		Int("unsafe", counts[domain.LabelUnsafe]).
		Msg("synthetic corpus generated")

	trainSet, testSet := split(samples, cfg.TestFraction, cfg.Seed)
	if len(trainSet) == 0 || len(testSet) == 0 {
		return nil, fmt.Errorf("training run %s: split produced empty partition (train=%d test=%d)",
			runID, len(trainSet), len(testSet))
	}

	trainX, trainY := matrices(trainSet)
	testX, testY := matrices(testSet)

	// The scaler sees only the training partition so the held-out accuracy
	// is an honest estimate.
	scaler, err := ml.FitScaler(trainX, domain.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("training run %s: %w", runID, err)
	}
	scale := func(x [][]float64) [][]float64 {
		out := make([][]float64, len(x))
		for i, row := range x {
			out[i] = scaler.Transform(row)
		}
		return out
	}
	trainXs, testXs := scale(trainX), scale(testX)

	forest, err := ml.TrainForest(trainXs, trainY, domain.NumLabels, ml.ForestConfig{
		Trees:    cfg.Trees,
		MaxDepth: cfg.MaxDepth,
		Seed:     cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("training run %s: %w", runID, err)
	}

	res := &Result{
		RunID:         runID,
		TrainSamples:  len(trainSet),
		TestSamples:   len(testSet),
		ClassCounts:   counts,
		TrainAccuracy: forest.Accuracy(trainXs, trainY),
		TestAccuracy:  forest.Accuracy(testXs, testY),
		ScalerPath:    filepath.Join(cfg.ArtifactDir, ml.ScalerFileName),
		ModelPath:     filepath.Join(cfg.ArtifactDir, ml.ModelFileName),
	}

	if err := ml.SaveScaler(scaler, res.ScalerPath); err != nil {
		return nil, fmt.Errorf("training run %s: %w", runID, err)
	}
	if err := ml.SaveModel(forest, res.ModelPath); err != nil {
		return nil, fmt.Errorf("training run %s: %w", runID, err)
	}
	res.Duration = time.Since(start)

	log.Info().
		Str("run_id", runID).
		Float64("train_accuracy", res.TrainAccuracy).
		Float64("test_accuracy", res.TestAccuracy).
		Str("model", res.ModelPath).
		Dur("took", res.Duration).
		Msg("training complete")
	return res, nil
}

// split shuffles the corpus with its own seeded source and carves off the
// trailing fraction as the held-out set.
func split(samples []dataset.Sample, testFraction float64, seed int64) (train, test []dataset.Sample) {
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(samples))
	shuffled := make([]dataset.Sample, len(samples))
	for i, j := range order {
		shuffled[i] = samples[j]
	}
	testN := int(float64(len(samples)) * testFraction)
	cut := len(samples) - testN
	return shuffled[:cut], shuffled[cut:]
}

func matrices(samples []dataset.Sample) ([][]float64, []int) {
	x := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		x[i] = s.Reading.Features()
		y[i] = int(s.Label)
	}
	return x, y
}
