// Package analytics derives recovery metrics from classified reading
// history. Everything here is a pure function of its inputs: metrics carry
// no state of their own and recomputing over the same records gives
// identical output.
package analytics

import (
	"sort"

	"github.com/cleanflow/water-recovery-system/internal/domain"
)

// Config sets the volume accounting factors and the daily breakdown horizon.
// Zero values fall back to the stock deployment figures.
type Config struct {
	VolumeRecoveredL float64 // liters credited per safe reading, default 100
	VolumeTreatedL   float64 // liters credited per treatable reading, default 80
	ReusedFraction   float64 // share of recovered+treated water counted as reused, default 0.85
	DailyDays        int     // distinct days in the daily breakdown, default 7
}

func (cfg Config) withDefaults() Config {
	if cfg.VolumeRecoveredL <= 0 {
		cfg.VolumeRecoveredL = 100
	}
	if cfg.VolumeTreatedL <= 0 {
		cfg.VolumeTreatedL = 80
	}
	if cfg.ReusedFraction <= 0 || cfg.ReusedFraction > 1 {
		cfg.ReusedFraction = 0.85
	}
	if cfg.DailyDays <= 0 {
		cfg.DailyDays = 7
	}
	return cfg
}

// Compute folds the windowed records into counts, volume estimates, feature
// averages, per-parameter trends and a daily breakdown. Records are expected
// oldest-first, the order History hands them out in. An empty window means
// no bound; an empty record set yields zero counts and empty, non-nil
// series so callers can encode the result directly.
func Compute(records []domain.ReadingRecord, w domain.Window, cfg Config) domain.RecoveryMetrics {
	cfg = cfg.withDefaults()
	records = Filter(records, w)

	m := domain.RecoveryMetrics{
		Trends: domain.ParameterTrends{
			PH:          []domain.TrendPoint{},
			Turbidity:   []domain.TrendPoint{},
			Temperature: []domain.TrendPoint{},
			TDS:         []domain.TrendPoint{},
		},
		Daily: []domain.DailySummary{},
	}
	if len(records) == 0 {
		return m
	}

	var sumPH, sumTurb, sumTemp, sumTDS float64
	days := map[string]*dayAgg{}
	for _, rec := range records {
		m.TotalReadings++
		switch domain.Label(rec.Prediction) {
		case domain.LabelSafeForReuse:
			m.SafeCount++
		case domain.LabelNeedsTreatment:
			m.TreatmentCount++
		case domain.LabelUnsafe:
			m.UnsafeCount++
		}

		sumPH += rec.PH
		sumTurb += rec.Turbidity
		sumTemp += rec.Temperature
		sumTDS += rec.TDS

		m.Trends.PH = append(m.Trends.PH, domain.TrendPoint{Timestamp: rec.Timestamp, Value: rec.PH})
		m.Trends.Turbidity = append(m.Trends.Turbidity, domain.TrendPoint{Timestamp: rec.Timestamp, Value: rec.Turbidity})
		m.Trends.Temperature = append(m.Trends.Temperature, domain.TrendPoint{Timestamp: rec.Timestamp, Value: rec.Temperature})
		m.Trends.TDS = append(m.Trends.TDS, domain.TrendPoint{Timestamp: rec.Timestamp, Value: rec.TDS})

		date := rec.Timestamp.UTC().Format("2006-01-02")
		d, ok := days[date]
		if !ok {
			d = &dayAgg{}
			days[date] = d
		}
		d.add(rec)
	}

	n := float64(m.TotalReadings)
	m.AvgPH = sumPH / n
	m.AvgTurbidity = sumTurb / n
	m.AvgTemperature = sumTemp / n
	m.AvgTDS = sumTDS / n

	m.WaterRecoveredLiters = cfg.VolumeRecoveredL * float64(m.SafeCount)
	m.WaterTreatedLiters = cfg.VolumeTreatedL * float64(m.TreatmentCount)
	m.WaterReusedLiters = cfg.ReusedFraction * (m.WaterRecoveredLiters + m.WaterTreatedLiters)

	m.Daily = dailySummaries(days, cfg.DailyDays)
	return m
}

// Filter returns the records inside the window, preserving input order.
// From and To are inclusive; Limit keeps the newest records, which for
// oldest-first input is the tail.
func Filter(records []domain.ReadingRecord, w domain.Window) []domain.ReadingRecord {
	if w.IsZero() {
		return records
	}
	out := make([]domain.ReadingRecord, 0, len(records))
	for _, r := range records {
		if !w.From.IsZero() && r.Timestamp.Before(w.From) {
			continue
		}
		if !w.To.IsZero() && r.Timestamp.After(w.To) {
			continue
		}
		out = append(out, r)
	}
	if w.Limit > 0 && len(out) > w.Limit {
		out = out[len(out)-w.Limit:]
	}
	return out
}

type dayAgg struct {
	count                           int
	sumPH, sumTurb, sumTemp, sumTDS float64
}

func (d *dayAgg) add(rec domain.ReadingRecord) {
	d.count++
	d.sumPH += rec.PH
	d.sumTurb += rec.Turbidity
	d.sumTemp += rec.Temperature
	d.sumTDS += rec.TDS
}

// dailySummaries orders days newest-first and keeps the most recent limit
// of them, the shape the dashboard consumes.
func dailySummaries(days map[string]*dayAgg, limit int) []domain.DailySummary {
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}

	out := make([]domain.DailySummary, 0, len(dates))
	for _, date := range dates {
		d := days[date]
		n := float64(d.count)
		out = append(out, domain.DailySummary{
			Date:           date,
			Count:          d.count,
			AvgPH:          d.sumPH / n,
			AvgTurbidity:   d.sumTurb / n,
			AvgTemperature: d.sumTemp / n,
			AvgTDS:         d.sumTDS / n,
		})
	}
	return out
}
