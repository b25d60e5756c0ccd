package contour

import (
	"sync"

	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"gonum.org/v1/gonum/spatial/r2"
)

// Builder is a goroutine-safe holder for a Machine. Callers that classify
// while pointer events keep arriving take a Snapshot and never share the live
// vertex slice.
type Builder struct {
	mu sync.Mutex
	m  Machine
}

// NewBuilder returns an idle builder.
func NewBuilder(selected Mode, maxVertices int) *Builder {
	return &Builder{m: NewMachine(selected, maxVertices)}
}

func (b *Builder) apply(next Machine, err error) error {
	b.m = next
	if err != nil {
		monitoring.Logf("[Contour] %v (contour cleared, %d vertices max)", err, next.MaxVertices)
	}
	return err
}

// Begin forwards a left click to the machine.
func (b *Builder) Begin(p r2.Vec, modifier bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apply(b.m.Begin(p, modifier))
}

// UpdateLiveVertex forwards pointer motion to the machine.
func (b *Builder) UpdateLiveVertex(p r2.Vec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apply(b.m.UpdateLiveVertex(p))
}

// CloseRectangle forwards a button release to the machine.
func (b *Builder) CloseRectangle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = b.m.CloseRectangle()
}

// ClosePolyLine forwards a right click to the machine.
func (b *Builder) ClosePolyLine() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = b.m.ClosePolyLine()
}

// Pause suspends or resumes input.
func (b *Builder) Pause(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = b.m.Pause(on)
}

// SetMode changes the selected mode.
func (b *Builder) SetMode(mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = b.m.SetMode(mode)
}

// Clear drops the contour.
func (b *Builder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = b.m.Clear()
}

// Stop drops the contour and returns to Idle.
func (b *Builder) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = b.m.Stop()
}

// Import replaces the contour with c.
func (b *Builder) Import(c Contour) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apply(b.m.Import(c))
}

// Snapshot returns a deep copy of the current contour.
func (b *Builder) Snapshot() Contour {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m.Contour.Clone()
}

// Machine returns a copy of the full machine state.
func (b *Builder) Machine() Machine {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.m
	m.Contour = m.Contour.Clone()
	return m
}

// State returns the current lifecycle state.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m.State
}

// SelectedMode returns the user-selected mode.
func (b *Builder) SelectedMode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m.Selected
}

// ExportAllowed reports whether the current contour may be exported.
func (b *Builder) ExportAllowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m.ExportAllowed
}
