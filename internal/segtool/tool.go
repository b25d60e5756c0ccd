package segtool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/cloudsegment/internal/camera"
	"github.com/banshee-data/cloudsegment/internal/config"
	"github.com/banshee-data/cloudsegment/internal/contour"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/pointset"
	"github.com/banshee-data/cloudsegment/internal/timeutil"
	"github.com/banshee-data/cloudsegment/internal/visibility"
)

var (
	// ErrInvalidState is returned when an operation needs a closed contour or
	// a linked view that is not there.
	ErrInvalidState = visibility.ErrInvalidState
	// ErrOutOfMemory is returned when the contour cannot grow.
	ErrOutOfMemory = contour.ErrOutOfMemory
	// ErrConversionInconsistency is reported when a 3D export cannot be
	// computed and the polyline falls back to 2D.
	ErrConversionInconsistency = errors.New("conversion inconsistency")
	// ErrRejected is returned by AddEntity for entities that cannot be
	// segmented.
	ErrRejected = errors.New("entity rejected")
)

// View is the host display the tool is linked to.
type View interface {
	// Camera returns the current projection snapshot.
	Camera() camera.Camera
	// ForceRectangleHeld reports whether the force-rectangle modifier is
	// currently pressed.
	ForceRectangleHeld() bool
	// IsDisplayed reports whether e is shown in this view.
	IsDisplayed(e pointset.Entity) bool
}

// ViewportSetter is implemented by views that can apply a saved camera.
type ViewportSetter interface {
	SetCameraParameters(p camera.Parameters) error
}

// target is one registered entity and the cloud whose flags it drives.
type target struct {
	entity pointset.Entity
	cloud  *pointset.Cloud
}

// Options configures a Tool.
type Options struct {
	Config *config.SegmentationConfig
	// Recorder receives one Run per classification pass. Optional.
	Recorder RunRecorder
	// OnFinished is called when the tool stops through Apply,
	// ApplyAndDelete or Cancel. Optional.
	OnFinished func(accepted bool, results []Result)
	// Clock stamps runs and exported polylines. Defaults to the wall clock.
	Clock timeutil.Clock
}

// Tool is the segmentation session. All methods are safe for concurrent use;
// classification runs under the tool lock against a contour snapshot.
type Tool struct {
	mu sync.Mutex

	cfg        *config.SegmentationConfig
	builder    *contour.Builder
	classifier *visibility.Classifier
	recorder   RunRecorder
	onFinished func(bool, []Result)
	clock      timeutil.Clock

	view    View
	targets []target
	index   map[*pointset.Cloud]int
	active  bool

	// changed is set once a classification pass has modified flags since the
	// last reset.
	changed      bool
	deleteHidden bool
	lastStats    *visibility.Stats
}

// New returns an unlinked, stopped tool.
func New(opts Options) (*Tool, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptySegmentationConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("segmentation config: %w", err)
	}
	mode, err := contour.ParseMode(cfg.GetDefaultMode())
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	return &Tool{
		cfg:     cfg,
		builder: contour.NewBuilder(mode, cfg.GetMaxContourVertices()),
		classifier: visibility.NewClassifier(visibility.Options{
			Workers:         cfg.GetClassifyWorkers(),
			ChunkSize:       cfg.GetClassifyChunkSize(),
			FrustumShortcut: cfg.GetFrustumShortcut(),
			Clock:           clock,
		}),
		recorder:   opts.Recorder,
		onFinished: opts.OnFinished,
		clock:      clock,
		index:      make(map[*pointset.Cloud]int),
	}, nil
}

// LinkWith attaches the tool to a view. Passing nil unlinks it.
func (t *Tool) LinkWith(v View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view = v
}

// Start arms the tool: any previous contour is dropped, the builder waits for
// a first click and visibility is reset.
func (t *Tool) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.view == nil {
		monitoring.Logf("[Segmentation] No associated view!")
		return fmt.Errorf("%w: no associated view", ErrInvalidState)
	}

	t.builder.Clear()
	t.builder.Pause(false)
	t.active = true
	t.deleteHidden = false
	t.lastStats = nil
	t.changed = true
	t.resetLocked()
	return nil
}

// Stop ends the session. When accepted is false every flag modified since the
// last reset is restored; when true the current flags are kept.
func (t *Tool) Stop(accepted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked(accepted)
}

func (t *Tool) stopLocked(accepted bool) {
	if !accepted {
		t.resetFlagsLocked()
	}
	t.builder.Stop()
	t.active = false
	monitoring.Logf("[Segmentation] Segmentation [OFF] (accepted=%t)", accepted)
}

// Reset restores every registered point to Visible and clears the contour.
func (t *Tool) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *Tool) resetLocked() {
	t.resetFlagsLocked()
	t.builder.Clear()
}

func (t *Tool) resetFlagsLocked() {
	if !t.changed {
		return
	}
	for _, tg := range t.targets {
		tg.cloud.ResetVisibility()
	}
	t.changed = false
}

// Active reports whether the tool has been started and not stopped since.
func (t *Tool) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// AddEntity registers e (and, for clouds and groups, its children) for
// segmentation. It reports whether at least one entity was added. The error is
// ErrRejected when e itself cannot be segmented.
//
// A mesh is segmented through its vertex cloud; selecting that cloud directly
// is refused. Primitives and sub-meshes are refused.
func (t *Tool) AddEntity(e pointset.Entity) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addEntityLocked(e)
}

func (t *Tool) addEntityLocked(e pointset.Entity) (bool, error) {
	if t.view != nil && !t.view.IsDisplayed(e) {
		monitoring.Logf("[Segmentation] Entity [%s] is not visible in the active 3D view!", e.Name())
	}

	switch v := e.(type) {
	case *pointset.Cloud:
		if owner := v.Owner(); owner != nil {
			monitoring.Logf("[Segmentation] Can't segment mesh vertices '%s' directly! Select mesh '%s' instead!", v.Name(), owner.Name())
			return false, fmt.Errorf("%w: %q holds the vertices of mesh %q", ErrRejected, v.Name(), owner.Name())
		}
		v.ResetVisibility()
		t.register(v, v)

		for _, child := range v.Children() {
			_, _ = t.addEntityLocked(child)
		}
		return true, nil

	case *pointset.Mesh:
		if v.Primitive {
			monitoring.Logf("[Segmentation] Can't segment primitives yet! Sorry...")
			return false, fmt.Errorf("%w: %q is a primitive", ErrRejected, v.Name())
		}
		if v.IsSubMesh() {
			monitoring.Logf("[Segmentation] Can't segment sub-meshes! Select the parent mesh...")
			return false, fmt.Errorf("%w: %q is a sub-mesh", ErrRejected, v.Name())
		}
		if v.Vertices() == nil {
			return false, fmt.Errorf("%w: mesh %q has no vertices", ErrRejected, v.Name())
		}
		v.Vertices().ResetVisibility()
		t.register(v, v.Vertices())
		return true, nil

	default:
		added := false
		for _, child := range e.Children() {
			if ok, _ := t.addEntityLocked(child); ok {
				added = true
			}
		}
		return added, nil
	}
}

func (t *Tool) register(e pointset.Entity, c *pointset.Cloud) {
	if _, ok := t.index[c]; ok {
		return
	}
	t.index[c] = len(t.targets)
	t.targets = append(t.targets, target{entity: e, cloud: c})
}

// RemoveAllEntities forgets every registered entity, optionally dropping their
// visibility arrays.
func (t *Tool) RemoveAllEntities(unallocate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if unallocate {
		for _, tg := range t.targets {
			tg.cloud.UnallocateVisibility()
		}
	}
	t.targets = nil
	t.index = make(map[*pointset.Cloud]int)
	t.changed = false
}

// EntityCount returns the number of registered entities.
func (t *Tool) EntityCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.targets)
}

// Entities returns the registered entities in registration order.
func (t *Tool) Entities() []pointset.Entity {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]pointset.Entity, len(t.targets))
	for i, tg := range t.targets {
		out[i] = tg.entity
	}
	return out
}

// PointSets returns the clouds whose flags the tool drives.
func (t *Tool) PointSets() []visibility.PointSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pointSetsLocked()
}

func (t *Tool) pointSetsLocked() []visibility.PointSet {
	out := make([]visibility.PointSet, len(t.targets))
	for i, tg := range t.targets {
		out[i] = tg.cloud
	}
	return out
}

// Contour returns a copy of the current contour.
func (t *Tool) Contour() contour.Contour {
	return t.builder.Snapshot()
}

// Camera returns the linked view's camera, or nil when unlinked.
func (t *Tool) Camera() camera.Camera {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.view == nil {
		return nil
	}
	return t.view.Camera()
}
