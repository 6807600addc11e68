package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidReading marks sensor input outside the documented physical
// domain. No classification is attempted for such readings.
var ErrInvalidReading = errors.New("invalid reading")

// ErrStoreUnavailable wraps every history storage failure, whatever the
// backend, so callers can degrade without matching on driver errors.
var ErrStoreUnavailable = errors.New("history store unavailable")

// Physical domains accepted from sensors. Values outside these are sensor
// faults, not water quality signals.
const (
	PHDomainMin          = 0.0
	PHDomainMax          = 14.0
	TemperatureDomainMin = -10.0
	TemperatureDomainMax = 60.0
)

// SensorReading is one sample of the four water quality parameters.
// Immutable once created.
type SensorReading struct {
	PH          float64 `json:"ph"`
	Turbidity   float64 `json:"turbidity"`
	Temperature float64 `json:"temperature"`
	TDS         float64 `json:"tds"`
}

// FeatureNames lists the model features in their canonical order.
var FeatureNames = []string{"ph", "turbidity", "temperature", "tds"}

// NumFeatures is the width of the feature vector.
const NumFeatures = 4

// Features returns the reading as a feature vector in canonical order.
func (r SensorReading) Features() []float64 {
	return []float64{r.PH, r.Turbidity, r.Temperature, r.TDS}
}

// Validate rejects readings outside the physical sensor domain.
func (r SensorReading) Validate() error {
	switch {
	case r.PH < PHDomainMin || r.PH > PHDomainMax:
		return fmt.Errorf("%w: ph %.2f outside [%.0f, %.0f]", ErrInvalidReading, r.PH, PHDomainMin, PHDomainMax)
	case r.Turbidity < 0:
		return fmt.Errorf("%w: turbidity %.2f is negative", ErrInvalidReading, r.Turbidity)
	case r.Temperature < TemperatureDomainMin || r.Temperature > TemperatureDomainMax:
		return fmt.Errorf("%w: temperature %.2f outside [%.0f, %.0f]", ErrInvalidReading, r.Temperature, TemperatureDomainMin, TemperatureDomainMax)
	case r.TDS < 0:
		return fmt.Errorf("%w: tds %.2f is negative", ErrInvalidReading, r.TDS)
	}
	return nil
}

// Prediction is the classifier output for one reading: the majority label,
// the winning vote fraction, and the full vote distribution over labels.
type Prediction struct {
	Label         Label              `json:"prediction"`
	LabelText     string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities [NumLabels]float64 `json:"probabilities"`
}

// ReadingRecord is a classified reading as persisted in History. Records are
// append-only; identity is the insertion order assigned by the store.
type ReadingRecord struct {
	ID          int64     `db:"id" json:"id"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	PH          float64   `db:"ph" json:"ph"`
	Turbidity   float64   `db:"turbidity" json:"turbidity"`
	Temperature float64   `db:"temperature" json:"temperature"`
	TDS         float64   `db:"tds" json:"tds"`
	Prediction  int       `db:"prediction" json:"prediction"`
	Label       string    `db:"label" json:"label"`
	Confidence  float64   `db:"confidence" json:"confidence"`
}

// NewReadingRecord binds a reading to its prediction at classification time.
// The ID stays zero until the store assigns one.
func NewReadingRecord(r SensorReading, p Prediction, ts time.Time) ReadingRecord {
	return ReadingRecord{
		Timestamp:   ts,
		PH:          r.PH,
		Turbidity:   r.Turbidity,
		Temperature: r.Temperature,
		TDS:         r.TDS,
		Prediction:  int(p.Label),
		Label:       p.Label.String(),
		Confidence:  p.Confidence,
	}
}

// Reading recovers the sensor values of a stored record.
func (rec ReadingRecord) Reading() SensorReading {
	return SensorReading{
		PH:          rec.PH,
		Turbidity:   rec.Turbidity,
		Temperature: rec.Temperature,
		TDS:         rec.TDS,
	}
}

// PredictedLabel recovers the stored label code.
func (rec ReadingRecord) PredictedLabel() Label {
	return Label(rec.Prediction)
}

// Window bounds which History records an aggregation considers, by most
// recent count, by time range, or both. The zero value means full history.
type Window struct {
	Limit int
	From  time.Time
	To    time.Time
}

// IsZero reports whether the window places no bound at all.
func (w Window) IsZero() bool {
	return w.Limit == 0 && w.From.IsZero() && w.To.IsZero()
}

// TrendPoint is one step of a per-parameter historical series.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ParameterTrends carries the ordered historical series of each raw feature
// across the aggregation window.
type ParameterTrends struct {
	PH          []TrendPoint `json:"ph"`
	Turbidity   []TrendPoint `json:"turbidity"`
	Temperature []TrendPoint `json:"temperature"`
	TDS         []TrendPoint `json:"tds"`
}

// DailySummary folds one calendar day of records into a count and feature
// means, mirroring the daily dashboard breakdown.
type DailySummary struct {
	Date           string  `json:"date"`
	Count          int     `json:"count"`
	AvgPH          float64 `json:"avg_ph"`
	AvgTurbidity   float64 `json:"avg_turbidity"`
	AvgTemperature float64 `json:"avg_temperature"`
	AvgTDS         float64 `json:"avg_tds"`
}

// RecoveryMetrics is derived on demand from History. It has no independent
// persistence; computing it twice over the same records yields identical
// output.
type RecoveryMetrics struct {
	TotalReadings  int `json:"total_readings"`
	SafeCount      int `json:"safe_count"`
	TreatmentCount int `json:"treatment_count"`
	UnsafeCount    int `json:"unsafe_count"`

	WaterRecoveredLiters float64 `json:"water_recovered_liters"`
	WaterTreatedLiters   float64 `json:"water_treated_liters"`
	WaterReusedLiters    float64 `json:"water_reused_liters"`

	AvgPH          float64 `json:"avg_ph"`
	AvgTurbidity   float64 `json:"avg_turbidity"`
	AvgTemperature float64 `json:"avg_temperature"`
	AvgTDS         float64 `json:"avg_tds"`

	Trends ParameterTrends `json:"trends"`
	Daily  []DailySummary  `json:"daily"`
}
