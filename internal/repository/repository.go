package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cleanflow/water-recovery-system/internal/domain"
)

const columns = "id, timestamp, ph, turbidity, temperature, tds, prediction, label, confidence"

// History is the append-only reading log backed by Postgres.
type History struct {
	db *sqlx.DB
}

func NewHistory(db *sqlx.DB) *History { return &History{db: db} }

// Append inserts one classified reading and returns the id the store
// assigned. Records are never updated or deleted afterwards.
func (r *History) Append(ctx context.Context, rec domain.ReadingRecord) (int64, error) {
	const q = `INSERT INTO water_quality (timestamp, ph, turbidity, temperature, tds, prediction, label, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id int64
	err := r.db.QueryRowxContext(ctx, q,
		rec.Timestamp, rec.PH, rec.Turbidity, rec.Temperature, rec.TDS,
		rec.Prediction, rec.Label, rec.Confidence).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: append reading: %v", domain.ErrStoreUnavailable, err)
	}
	return id, nil
}

// List returns records oldest-first. A non-zero window narrows the result:
// From/To bound the timestamp inclusively and Limit keeps only the newest
// matching records.
func (r *History) List(ctx context.Context, w domain.Window) ([]domain.ReadingRecord, error) {
	q := "SELECT " + columns + " FROM water_quality"
	var args []any
	var conds []string
	if !w.From.IsZero() {
		args = append(args, w.From)
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if !w.To.IsZero() {
		args = append(args, w.To)
		conds = append(conds, fmt.Sprintf("timestamp <= $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if w.Limit > 0 {
		args = append(args, w.Limit)
		q = fmt.Sprintf("SELECT %s FROM (%s ORDER BY id DESC LIMIT $%d) newest ORDER BY id ASC",
			columns, q, len(args))
	} else {
		q += " ORDER BY id ASC"
	}

	out := []domain.ReadingRecord{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("%w: list history: %v", domain.ErrStoreUnavailable, err)
	}
	return out, nil
}

// Recent returns the newest limit records, newest first.
func (r *History) Recent(ctx context.Context, limit int) ([]domain.ReadingRecord, error) {
	const q = "SELECT " + columns + " FROM water_quality ORDER BY id DESC LIMIT $1"
	out := []domain.ReadingRecord{}
	if err := r.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("%w: recent history: %v", domain.ErrStoreUnavailable, err)
	}
	return out, nil
}
