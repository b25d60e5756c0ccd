package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cloudsegment/internal/camera"
	"github.com/banshee-data/cloudsegment/internal/pointset"
	"github.com/banshee-data/cloudsegment/internal/segtool"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// PolylineStore persists exported segmentation polylines.
type PolylineStore struct {
	db *sql.DB
}

var _ segtool.PolylineSaver = (*PolylineStore)(nil)

// NewPolylineStore creates a new PolylineStore.
func NewPolylineStore(db *sql.DB) *PolylineStore {
	return &PolylineStore{db: db}
}

// SavePolyline inserts p. If p.PolylineID is empty, a new UUID is generated.
func (s *PolylineStore) SavePolyline(p *segtool.Polyline) error {
	if p.PolylineID == "" {
		p.PolylineID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	vertices, err := json.Marshal(p.Vertices)
	if err != nil {
		return fmt.Errorf("marshal vertices: %w", err)
	}
	shift, err := marshalOptional(p.Shift)
	if err != nil {
		return fmt.Errorf("marshal shift: %w", err)
	}
	viewport, err := marshalOptional(p.Viewport)
	if err != nil {
		return fmt.Errorf("marshal viewport: %w", err)
	}

	query := `
		INSERT INTO segmentation_polylines (
			polyline_id, name, vertices_json, closed, mode_2d,
			shift_json, viewport_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		p.PolylineID,
		p.Name,
		string(vertices),
		p.Closed,
		p.Mode2D,
		shift,
		viewport,
		p.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert polyline: %w", err)
	}
	return nil
}

const polylineColumns = `polyline_id, name, vertices_json, closed, mode_2d, shift_json, viewport_json, created_at`

// GetPolyline returns the polyline with the given ID.
func (s *PolylineStore) GetPolyline(id string) (*segtool.Polyline, error) {
	row := s.db.QueryRow(`SELECT `+polylineColumns+` FROM segmentation_polylines WHERE polyline_id = ?`, id)
	p, err := scanPolyline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("polyline %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get polyline: %w", err)
	}
	return p, nil
}

// GetPolylineByName returns the most recent polyline with the given name.
func (s *PolylineStore) GetPolylineByName(name string) (*segtool.Polyline, error) {
	row := s.db.QueryRow(`SELECT `+polylineColumns+` FROM segmentation_polylines WHERE name = ? ORDER BY created_at DESC LIMIT 1`, name)
	p, err := scanPolyline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("polyline %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get polyline: %w", err)
	}
	return p, nil
}

// ListPolylines returns polylines newest first. limit <= 0 means no limit.
func (s *PolylineStore) ListPolylines(limit int) ([]*segtool.Polyline, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+polylineColumns+` FROM segmentation_polylines ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list polylines: %w", err)
	}
	defer rows.Close()

	var out []*segtool.Polyline
	for rows.Next() {
		p, err := scanPolyline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan polyline: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePolyline removes a polyline by ID.
func (s *PolylineStore) DeletePolyline(id string) error {
	result, err := s.db.Exec("DELETE FROM segmentation_polylines WHERE polyline_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete polyline: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete polyline rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("polyline %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolyline(row rowScanner) (*segtool.Polyline, error) {
	var (
		p               segtool.Polyline
		vertices        string
		shift, viewport sql.NullString
		createdAt       int64
	)
	if err := row.Scan(&p.PolylineID, &p.Name, &vertices, &p.Closed, &p.Mode2D, &shift, &viewport, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(vertices), &p.Vertices); err != nil {
		return nil, fmt.Errorf("unmarshal vertices: %w", err)
	}
	if p.Vertices == nil {
		p.Vertices = []r3.Vec{}
	}
	if shift.Valid {
		p.Shift = &pointset.Shift{}
		if err := json.Unmarshal([]byte(shift.String), p.Shift); err != nil {
			return nil, fmt.Errorf("unmarshal shift: %w", err)
		}
	}
	if viewport.Valid {
		p.Viewport = &camera.Parameters{}
		if err := json.Unmarshal([]byte(viewport.String), p.Viewport); err != nil {
			return nil, fmt.Errorf("unmarshal viewport: %w", err)
		}
	}
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	return &p, nil
}

func marshalOptional[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
