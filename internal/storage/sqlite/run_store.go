package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cloudsegment/internal/segtool"
)

// RunStore persists classification run records.
type RunStore struct {
	db *sql.DB
}

var _ segtool.RunRecorder = (*RunStore)(nil)

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// RecordRun inserts r. If r.RunID is empty, a new UUID is generated.
func (s *RunStore) RecordRun(r *segtool.Run) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO segmentation_runs (
			run_id, keep_inside, mode, contour_size, point_sets, points,
			visible, hidden, skipped, inside_frustum, duration_ns, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		r.RunID,
		r.KeepInside,
		r.Mode,
		r.ContourSize,
		r.PointSets,
		r.Points,
		r.Visible,
		r.Hidden,
		r.Skipped,
		r.InsideFrustum,
		int64(r.Duration),
		r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first. limit <= 0 means no limit.
func (s *RunStore) ListRuns(limit int) ([]*segtool.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT run_id, keep_inside, mode, contour_size, point_sets, points,
		       visible, hidden, skipped, inside_frustum, duration_ns, created_at
		FROM segmentation_runs
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*segtool.Run
	for rows.Next() {
		r := &segtool.Run{}
		var durationNs, createdAt int64
		err := rows.Scan(
			&r.RunID, &r.KeepInside, &r.Mode, &r.ContourSize, &r.PointSets, &r.Points,
			&r.Visible, &r.Hidden, &r.Skipped, &r.InsideFrustum, &durationNs, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationNs)
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunTotals aggregates all recorded runs.
type RunTotals struct {
	Runs    int `json:"runs"`
	Points  int `json:"points"`
	Visible int `json:"visible"`
	Hidden  int `json:"hidden"`
}

// Totals sums the recorded runs.
func (s *RunStore) Totals() (RunTotals, error) {
	var t RunTotals
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(points), 0), COALESCE(SUM(visible), 0), COALESCE(SUM(hidden), 0)
		FROM segmentation_runs
	`).Scan(&t.Runs, &t.Points, &t.Visible, &t.Hidden)
	if err != nil {
		return RunTotals{}, fmt.Errorf("run totals: %w", err)
	}
	return t, nil
}
