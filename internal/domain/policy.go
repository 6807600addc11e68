package domain

// QualityPolicy is the deterministic class-boundary rule. It labels the
// synthetic training corpus and is the target concept the trained classifier
// approximates. Every reading maps to exactly one label.
//
// A reading is Safe for Reuse when all four parameters sit inside the safe
// bounds. It is Unsafe when pH drifts beyond the safe band by more than
// PHSevereMargin units, or turbidity reaches TurbiditySevereFactor times its
// safe limit, or TDS reaches TDSSevereFactor times its safe limit. Everything
// between is Needs Treatment.
type QualityPolicy struct {
	PHSafeMin          float64
	PHSafeMax          float64
	TurbiditySafeMax   float64
	TemperatureSafeMin float64
	TemperatureSafeMax float64
	TDSSafeMax         float64

	PHSevereMargin        float64
	TurbiditySevereFactor float64
	TDSSevereFactor       float64
}

// DefaultQualityPolicy returns the documented safe ranges (pH 6.5-8.5,
// turbidity < 10 NTU, temperature 15-30 C, TDS < 500 mg/L) with the default
// severity thresholds.
func DefaultQualityPolicy() QualityPolicy {
	return QualityPolicy{
		PHSafeMin:          6.5,
		PHSafeMax:          8.5,
		TurbiditySafeMax:   10,
		TemperatureSafeMin: 15,
		TemperatureSafeMax: 30,
		TDSSafeMax:         500,

		PHSevereMargin:        2.0,
		TurbiditySevereFactor: 3.0,
		TDSSevereFactor:       2.0,
	}
}

// Classify maps a reading to its ground-truth label under the policy.
func (p QualityPolicy) Classify(r SensorReading) Label {
	if p.isSafe(r) {
		return LabelSafeForReuse
	}
	if p.isSevere(r) {
		return LabelUnsafe
	}
	return LabelNeedsTreatment
}

func (p QualityPolicy) isSafe(r SensorReading) bool {
	return r.PH >= p.PHSafeMin && r.PH <= p.PHSafeMax &&
		r.Turbidity < p.TurbiditySafeMax &&
		r.Temperature >= p.TemperatureSafeMin && r.Temperature <= p.TemperatureSafeMax &&
		r.TDS < p.TDSSafeMax
}

func (p QualityPolicy) isSevere(r SensorReading) bool {
	return r.PH < p.PHSafeMin-p.PHSevereMargin || r.PH > p.PHSafeMax+p.PHSevereMargin ||
		r.Turbidity >= p.TurbiditySevereFactor*p.TurbiditySafeMax ||
		r.TDS >= p.TDSSevereFactor*p.TDSSafeMax
}
