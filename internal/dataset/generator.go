// Package dataset produces the labeled synthetic corpus used to train the
// water quality classifier when no real historical corpus exists.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/cleanflow/water-recovery-system/internal/domain"
)

// ErrClassImbalance reports a generated corpus in which some label fell
// under the minimum per-class share even after the bounded retries.
var ErrClassImbalance = errors.New("class imbalance in synthetic corpus")

// Sample is one labeled training tuple. The label is the ground truth
// assigned by the quality policy, so generator and supervised signal agree.
type Sample struct {
	Reading domain.SensorReading
	Label   domain.Label
}

// Config controls corpus generation. Zero values fall back to defaults.
type Config struct {
	Samples       int     // corpus size, default 1000
	Seed          int64   // rng seed, default 42
	NoiseFraction float64 // per-feature chance of a wide-noise draw, default 0.12
	MinClassShare float64 // minimum fraction per label, default 0.05
	MaxRetries    int     // regeneration attempts on imbalance, default 5
}

// Generator draws plausible sensor tuples: each feature comes from a
// gaussian centered inside its safe range, contaminated by occasional wide
// uniform noise so that roughly half the corpus violates at least one safe
// bound. Labels follow the policy deterministically.
type Generator struct {
	cfg    Config
	policy domain.QualityPolicy
	rng    *rand.Rand
}

func New(cfg Config, policy domain.QualityPolicy) *Generator {
	if cfg.Samples == 0 {
		cfg.Samples = 1000
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.NoiseFraction == 0 {
		cfg.NoiseFraction = 0.12
	}
	if cfg.MinClassShare == 0 {
		cfg.MinClassShare = 0.05
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	return &Generator{
		cfg:    cfg,
		policy: policy,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate returns a labeled corpus in which every label holds at least the
// minimum share. Unbalanced corpora are regenerated from the advancing rng
// stream; after MaxRetries the imbalance is surfaced as fatal.
func (g *Generator) Generate() ([]Sample, error) {
	var counts [domain.NumLabels]int
	for attempt := 0; attempt < g.cfg.MaxRetries; attempt++ {
		samples := g.corpus()
		counts = countLabels(samples)
		if g.balanced(counts) {
			return samples, nil
		}
	}
	return nil, fmt.Errorf("%w: label counts %v after %d attempts (min share %.0f%% of %d)",
		ErrClassImbalance, counts, g.cfg.MaxRetries, g.cfg.MinClassShare*100, g.cfg.Samples)
}

func (g *Generator) corpus() []Sample {
	samples := make([]Sample, g.cfg.Samples)
	for i := range samples {
		r := g.Draw()
		samples[i] = Sample{Reading: r, Label: g.policy.Classify(r)}
	}
	return samples
}

// Draw produces a single synthetic reading. Exposed so the sensor simulator
// can publish the same distribution the trainer learned from.
func (g *Generator) Draw() domain.SensorReading {
	p := g.policy

	phMid := (p.PHSafeMin + p.PHSafeMax) / 2
	phHalf := (p.PHSafeMax - p.PHSafeMin) / 2
	tempMid := (p.TemperatureSafeMin + p.TemperatureSafeMax) / 2
	tempHalf := (p.TemperatureSafeMax - p.TemperatureSafeMin) / 2

	return domain.SensorReading{
		PH: clamp(g.feature(phMid, phHalf, domain.PHDomainMin, domain.PHDomainMax),
			domain.PHDomainMin, domain.PHDomainMax),
		Turbidity: clamp(g.feature(p.TurbiditySafeMax/2, p.TurbiditySafeMax/2,
			0, 2*p.TurbiditySevereFactor*p.TurbiditySafeMax), 0, 1e9),
		Temperature: clamp(g.feature(tempMid, tempHalf,
			domain.TemperatureDomainMin, domain.TemperatureDomainMax),
			domain.TemperatureDomainMin, domain.TemperatureDomainMax),
		TDS: clamp(g.feature(p.TDSSafeMax/2, p.TDSSafeMax/2,
			0, 2*p.TDSSevereFactor*p.TDSSafeMax), 0, 1e9),
	}
}

// feature draws one value: usually a gaussian centered in the safe range
// (sigma at 0.7 of the half-width), occasionally wide uniform noise.
func (g *Generator) feature(center, halfWidth, noiseLo, noiseHi float64) float64 {
	if g.rng.Float64() < g.cfg.NoiseFraction {
		return noiseLo + g.rng.Float64()*(noiseHi-noiseLo)
	}
	return center + g.rng.NormFloat64()*0.7*halfWidth
}

func (g *Generator) balanced(counts [domain.NumLabels]int) bool {
	minCount := int(g.cfg.MinClassShare * float64(g.cfg.Samples))
	for _, c := range counts {
		if c < minCount {
			return false
		}
	}
	return true
}

func countLabels(samples []Sample) [domain.NumLabels]int {
	var counts [domain.NumLabels]int
	for _, s := range samples {
		counts[s.Label]++
	}
	return counts
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
