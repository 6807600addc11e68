package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanflow/water-recovery-system/internal/domain"
)

// record builds one stored reading at a day offset from a fixed base time,
// oldest-first when called with increasing offsets.
func record(id int64, dayOffset int, label domain.Label, r domain.SensorReading) domain.ReadingRecord {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.ReadingRecord{
		ID:          id,
		Timestamp:   base.AddDate(0, 0, dayOffset),
		PH:          r.PH,
		Turbidity:   r.Turbidity,
		Temperature: r.Temperature,
		TDS:         r.TDS,
		Prediction:  int(label),
		Label:       label.String(),
		Confidence:  0.9,
	}
}

func sampleHistory() []domain.ReadingRecord {
	return []domain.ReadingRecord{
		record(1, 0, domain.LabelSafeForReuse, domain.SensorReading{PH: 7.0, Turbidity: 2, Temperature: 22, TDS: 150}),
		record(2, 0, domain.LabelSafeForReuse, domain.SensorReading{PH: 7.4, Turbidity: 4, Temperature: 24, TDS: 250}),
		record(3, 1, domain.LabelNeedsTreatment, domain.SensorReading{PH: 6.0, Turbidity: 12, Temperature: 22, TDS: 150}),
		record(4, 1, domain.LabelSafeForReuse, domain.SensorReading{PH: 7.2, Turbidity: 6, Temperature: 26, TDS: 350}),
		record(5, 2, domain.LabelNeedsTreatment, domain.SensorReading{PH: 6.2, Turbidity: 14, Temperature: 28, TDS: 600}),
		record(6, 2, domain.LabelUnsafe, domain.SensorReading{PH: 3.0, Turbidity: 50, Temperature: 22, TDS: 1200}),
	}
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil, domain.Window{}, Config{})

	assert.Zero(t, m.TotalReadings)
	assert.Zero(t, m.SafeCount)
	assert.Zero(t, m.WaterRecoveredLiters)
	assert.Zero(t, m.AvgPH)

	// Non-nil empty series keep the JSON encoding stable.
	require.NotNil(t, m.Trends.PH)
	require.NotNil(t, m.Daily)
	assert.Empty(t, m.Trends.PH)
	assert.Empty(t, m.Daily)
}

func TestCompute_CountsAndVolumes(t *testing.T) {
	m := Compute(sampleHistory(), domain.Window{}, Config{})

	assert.Equal(t, 6, m.TotalReadings)
	assert.Equal(t, 3, m.SafeCount)
	assert.Equal(t, 2, m.TreatmentCount)
	assert.Equal(t, 1, m.UnsafeCount)

	// 3 safe * 100 L, 2 treatable * 80 L, reused 85% of the sum.
	assert.InDelta(t, 300.0, m.WaterRecoveredLiters, 1e-9)
	assert.InDelta(t, 160.0, m.WaterTreatedLiters, 1e-9)
	assert.InDelta(t, 391.0, m.WaterReusedLiters, 1e-9)
}

func TestCompute_Averages(t *testing.T) {
	m := Compute(sampleHistory(), domain.Window{}, Config{})

	assert.InDelta(t, (7.0+7.4+6.0+7.2+6.2+3.0)/6, m.AvgPH, 1e-9)
	assert.InDelta(t, (2.0+4+12+6+14+50)/6, m.AvgTurbidity, 1e-9)
	assert.InDelta(t, (22.0+24+22+26+28+22)/6, m.AvgTemperature, 1e-9)
	assert.InDelta(t, (150.0+250+150+350+600+1200)/6, m.AvgTDS, 1e-9)
}

func TestCompute_Trends(t *testing.T) {
	records := sampleHistory()
	m := Compute(records, domain.Window{}, Config{})

	require.Len(t, m.Trends.PH, len(records))
	require.Len(t, m.Trends.TDS, len(records))
	for i, rec := range records {
		assert.Equal(t, rec.Timestamp, m.Trends.PH[i].Timestamp)
		assert.Equal(t, rec.PH, m.Trends.PH[i].Value)
		assert.Equal(t, rec.TDS, m.Trends.TDS[i].Value)
	}
	for i := 1; i < len(m.Trends.Turbidity); i++ {
		assert.False(t, m.Trends.Turbidity[i].Timestamp.Before(m.Trends.Turbidity[i-1].Timestamp),
			"trends keep the oldest-first record order")
	}
}

func TestCompute_DailyBreakdown(t *testing.T) {
	m := Compute(sampleHistory(), domain.Window{}, Config{})

	require.Len(t, m.Daily, 3)
	assert.Equal(t, "2025-06-03", m.Daily[0].Date)
	assert.Equal(t, "2025-06-02", m.Daily[1].Date)
	assert.Equal(t, "2025-06-01", m.Daily[2].Date)

	first := m.Daily[2]
	assert.Equal(t, 2, first.Count)
	assert.InDelta(t, 7.2, first.AvgPH, 1e-9)
	assert.InDelta(t, 3.0, first.AvgTurbidity, 1e-9)
	assert.InDelta(t, 23.0, first.AvgTemperature, 1e-9)
	assert.InDelta(t, 200.0, first.AvgTDS, 1e-9)
}

func TestCompute_DailyHorizon(t *testing.T) {
	m := Compute(sampleHistory(), domain.Window{}, Config{DailyDays: 2})

	require.Len(t, m.Daily, 2)
	assert.Equal(t, "2025-06-03", m.Daily[0].Date)
	assert.Equal(t, "2025-06-02", m.Daily[1].Date)
}

func TestCompute_CustomVolumes(t *testing.T) {
	m := Compute(sampleHistory(), domain.Window{}, Config{
		VolumeRecoveredL: 10,
		VolumeTreatedL:   5,
		ReusedFraction:   0.5,
	})

	assert.InDelta(t, 30.0, m.WaterRecoveredLiters, 1e-9)
	assert.InDelta(t, 10.0, m.WaterTreatedLiters, 1e-9)
	assert.InDelta(t, 20.0, m.WaterReusedLiters, 1e-9)
}

func TestCompute_Idempotent(t *testing.T) {
	records := sampleHistory()

	a := Compute(records, domain.Window{}, Config{})
	b := Compute(records, domain.Window{}, Config{})
	require.Equal(t, a, b)
}

func TestFilter(t *testing.T) {
	records := sampleHistory()
	day1 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	day1End := time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name    string
		window  domain.Window
		wantIDs []int64
	}{
		{"zero window passes everything", domain.Window{}, []int64{1, 2, 3, 4, 5, 6}},
		{"from bound is inclusive", domain.Window{From: records[2].Timestamp}, []int64{3, 4, 5, 6}},
		{"to bound is inclusive", domain.Window{To: records[3].Timestamp}, []int64{1, 2, 3, 4}},
		{"range", domain.Window{From: day1, To: day1End}, []int64{3, 4}},
		{"limit keeps the newest", domain.Window{Limit: 2}, []int64{5, 6}},
		{"limit over range", domain.Window{From: day1, Limit: 3}, []int64{4, 5, 6}},
		{"limit larger than input", domain.Window{Limit: 50}, []int64{1, 2, 3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, tt.window)
			ids := make([]int64, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
