package segtool

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/visibility"
)

// Run is the record of one classification pass.
type Run struct {
	RunID         string        `json:"run_id"`
	KeepInside    bool          `json:"keep_inside"`
	Mode          string        `json:"mode"`
	ContourSize   int           `json:"contour_size"`
	PointSets     int           `json:"point_sets"`
	Points        int           `json:"points"`
	Visible       int           `json:"visible"`
	Hidden        int           `json:"hidden"`
	Skipped       int           `json:"skipped"`
	InsideFrustum bool          `json:"inside_frustum"`
	Duration      time.Duration `json:"duration_ns"`
	CreatedAt     time.Time     `json:"created_at"`
}

// RunRecorder persists classification runs.
type RunRecorder interface {
	RecordRun(r *Run) error
}

// SegmentIn keeps the points inside the contour and hides the rest.
func (t *Tool) SegmentIn() (visibility.Stats, error) {
	return t.segment(true)
}

// SegmentOut hides the points inside the contour.
func (t *Tool) SegmentOut() (visibility.Stats, error) {
	return t.segment(false)
}

func (t *Tool) segment(keepInside bool) (visibility.Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.view == nil {
		return visibility.Stats{}, fmt.Errorf("%w: no associated view", ErrInvalidState)
	}
	if !t.active {
		return visibility.Stats{}, fmt.Errorf("%w: tool not started", ErrInvalidState)
	}

	poly := t.builder.Snapshot()
	stats, err := t.classifier.Classify(poly, t.pointSetsLocked(), t.view.Camera(), keepInside)
	if err != nil {
		monitoring.Logf("[Segmentation] %v", err)
		return stats, err
	}

	t.changed = true
	t.lastStats = &stats
	t.builder.Pause(true)

	monitoring.Logf("[Segmentation] keep_inside=%t: %d/%d points visible across %d sets (%d hidden, %v)",
		keepInside, stats.Visible, stats.Points, stats.PointSets, stats.Hidden, stats.Duration)

	if t.recorder != nil {
		run := &Run{
			RunID:         uuid.New().String(),
			KeepInside:    keepInside,
			Mode:          poly.Mode.String(),
			ContourSize:   poly.Len(),
			PointSets:     stats.PointSets,
			Points:        stats.Points,
			Visible:       stats.Visible,
			Hidden:        stats.Hidden,
			Skipped:       stats.Skipped,
			InsideFrustum: stats.PolyInsideFrustum,
			Duration:      stats.Duration,
			CreatedAt:     t.clock.Now().UTC(),
		}
		if err := t.recorder.RecordRun(run); err != nil {
			monitoring.Logf("[Segmentation] failed to record run: %v", err)
		}
	}
	return stats, nil
}

// Result is the outcome for one registered entity when the tool is applied.
type Result struct {
	Entity string
	// Kept and Removed are point indices into the entity's cloud.
	Kept    []int
	Removed []int
	// DeleteHidden is true when the session ended with ApplyAndDelete.
	DeleteHidden bool
}

// Apply stops the tool keeping the current flags.
func (t *Tool) Apply() []Result {
	return t.finish(false)
}

// ApplyAndDelete stops the tool keeping the current flags and asks the host to
// delete the hidden parts.
func (t *Tool) ApplyAndDelete() []Result {
	return t.finish(true)
}

// Cancel restores every flag and stops the tool.
func (t *Tool) Cancel() {
	t.mu.Lock()
	t.resetLocked()
	t.deleteHidden = false
	t.stopLocked(false)
	cb := t.onFinished
	t.mu.Unlock()

	if cb != nil {
		cb(false, nil)
	}
}

func (t *Tool) finish(deleteHidden bool) []Result {
	t.mu.Lock()
	t.deleteHidden = deleteHidden
	results := make([]Result, 0, len(t.targets))
	for _, tg := range t.targets {
		kept, removed := visibility.Split(tg.cloud)
		results = append(results, Result{
			Entity:       tg.entity.Name(),
			Kept:         kept,
			Removed:      removed,
			DeleteHidden: deleteHidden,
		})
	}
	t.stopLocked(true)
	cb := t.onFinished
	t.mu.Unlock()

	if cb != nil {
		cb(true, results)
	}
	return results
}

// DeleteHiddenParts reports whether the last session ended with
// ApplyAndDelete.
func (t *Tool) DeleteHiddenParts() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteHidden
}
