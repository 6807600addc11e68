package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cleanflow/water-recovery-system/internal/analytics"
	"github.com/cleanflow/water-recovery-system/internal/domain"
	"github.com/cleanflow/water-recovery-system/internal/inference"
)

// HistoryStore is the append-only reading log. Postgres backs it locally,
// DynamoDB in cloud mode; both narrow windows the same way.
type HistoryStore interface {
	Append(ctx context.Context, rec domain.ReadingRecord) (int64, error)
	List(ctx context.Context, w domain.Window) ([]domain.ReadingRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.ReadingRecord, error)
}

// AlertSender publishes notifications for readings flagged unsafe. Nil means
// alerting is disabled.
type AlertSender interface {
	SendUnsafeWaterAlert(ctx context.Context, rec domain.ReadingRecord) error
}

type Services struct {
	Readings *ReadingService
	Metrics  *MetricsService
}

func New(store HistoryStore, model *inference.Service, alerts AlertSender, metricsCfg analytics.Config) *Services {
	return &Services{
		Readings: &ReadingService{store: store, model: model, alerts: alerts},
		Metrics:  &MetricsService{store: store, cfg: metricsCfg},
	}
}

type ReadingService struct {
	store  HistoryStore
	model  *inference.Service
	alerts AlertSender
}

// ClassifyResult is the outcome of classifying one reading: the prediction
// plus whether the reading made it into history.
type ClassifyResult struct {
	domain.Prediction
	Logged   bool  `json:"logged"`
	RecordID int64 `json:"record_id,omitempty"`
}

// Classify runs the model on a validated reading and appends the outcome to
// history. Classification and persistence are decoupled: if the store is
// down the caller still gets the prediction, with Logged false.
func (s *ReadingService) Classify(ctx context.Context, r domain.SensorReading) (ClassifyResult, error) {
	p, err := s.model.Classify(r)
	if err != nil {
		return ClassifyResult{}, err
	}

	rec := domain.NewReadingRecord(r, p, time.Now().UTC())
	res := ClassifyResult{Prediction: p}

	id, err := s.store.Append(ctx, rec)
	if err != nil {
		log.Warn().Err(err).Msg("reading classified but not logged")
	} else {
		rec.ID = id
		res.Logged = true
		res.RecordID = id
	}

	if p.Label == domain.LabelUnsafe {
		s.alertUnsafe(ctx, rec)
	}
	return res, nil
}

// FromMQTT decodes a sensor payload off the broker and classifies it.
func (s *ReadingService) FromMQTT(topic string, payload []byte) error {
	var r domain.SensorReading
	if err := json.Unmarshal(payload, &r); err != nil {
		return fmt.Errorf("decode reading from %s: %w", topic, err)
	}

	res, err := s.Classify(context.Background(), r)
	if err != nil {
		return err
	}
	log.Info().
		Str("topic", topic).
		Str("label", res.LabelText).
		Float64("confidence", res.Confidence).
		Bool("logged", res.Logged).
		Msg("reading ingested")
	return nil
}

// alertUnsafe notifies on unsafe water. Alert delivery is best effort and
// never fails the classification.
func (s *ReadingService) alertUnsafe(ctx context.Context, rec domain.ReadingRecord) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.SendUnsafeWaterAlert(ctx, rec); err != nil {
		log.Error().Err(err).Msg("unsafe water alert failed")
	}
}

type MetricsService struct {
	store HistoryStore
	cfg   analytics.Config
}

// Compute aggregates recovery metrics over the windowed history. The window
// is applied by the store; aggregation itself is a pure function of the
// returned records.
func (s *MetricsService) Compute(ctx context.Context, w domain.Window) (domain.RecoveryMetrics, error) {
	records, err := s.store.List(ctx, w)
	if err != nil {
		return domain.RecoveryMetrics{}, err
	}
	return analytics.Compute(records, domain.Window{}, s.cfg), nil
}

// History returns the newest records, newest first. Non-positive limits fall
// back to 100 and absurd ones are capped at 1000.
func (s *MetricsService) History(ctx context.Context, limit int) ([]domain.ReadingRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.store.Recent(ctx, limit)
}
