// Package pointset holds the in-memory scene entities the segmentation tool
// works on: point clouds, meshes backed by a vertex cloud, and groups.
package pointset

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cloudsegment/internal/visibility"
)

// Entity is a node of the scene tree.
type Entity interface {
	Name() string
	Children() []Entity
}

// Shift is the global shift and scale applied to large coordinates before
// they were loaded. Global = Local/Scale - Offset.
type Shift struct {
	Offset r3.Vec  `json:"offset"`
	Scale  float64 `json:"scale"`
}

// IsIdentity reports whether the shift leaves coordinates unchanged.
func (s Shift) IsIdentity() bool {
	return s.Offset == (r3.Vec{}) && (s.Scale == 1 || s.Scale == 0)
}

// ToGlobal converts a local coordinate to the original global frame.
func (s Shift) ToGlobal(p r3.Vec) r3.Vec {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	return r3.Sub(r3.Scale(1/scale, p), s.Offset)
}

// Shifted is implemented by entities carrying a global shift.
type Shifted interface {
	GlobalShift() Shift
	IsShifted() bool
}

// Cloud is a point cloud with a per-point visibility array.
type Cloud struct {
	name     string
	points   []r3.Vec
	flags    []visibility.Flag
	shift    Shift
	children []Entity

	// owner is set when the cloud is the vertex store of a mesh.
	owner *Mesh
}

var (
	_ Entity              = (*Cloud)(nil)
	_ Shifted             = (*Cloud)(nil)
	_ visibility.PointSet = (*Cloud)(nil)
)

// NewCloud returns a cloud with the given points. The visibility array is
// not allocated until ResetVisibility is called.
func NewCloud(name string, points []r3.Vec) *Cloud {
	return &Cloud{name: name, points: points, shift: Shift{Scale: 1}}
}

func (c *Cloud) Name() string       { return c.name }
func (c *Cloud) Children() []Entity { return c.children }

// AddChild attaches e below c.
func (c *Cloud) AddChild(e Entity) { c.children = append(c.children, e) }

func (c *Cloud) Size() int                          { return len(c.points) }
func (c *Cloud) Point(i int) r3.Vec                 { return c.points[i] }
func (c *Cloud) Points() []r3.Vec                   { return c.points }
func (c *Cloud) VisibilityArray() []visibility.Flag { return c.flags }

// Owner returns the mesh this cloud stores vertices for, or nil.
func (c *Cloud) Owner() *Mesh { return c.owner }

// ResetVisibility allocates the visibility array if needed and marks every
// point Visible.
func (c *Cloud) ResetVisibility() {
	if len(c.flags) != len(c.points) {
		c.flags = make([]visibility.Flag, len(c.points))
		return
	}
	clear(c.flags)
}

// UnallocateVisibility drops the visibility array.
func (c *Cloud) UnallocateVisibility() { c.flags = nil }

// VisibilityAllocated reports whether the visibility array matches the
// point count.
func (c *Cloud) VisibilityAllocated() bool {
	return c.flags != nil && len(c.flags) == len(c.points)
}

// SetGlobalShift records the shift applied when the cloud was loaded.
func (c *Cloud) SetGlobalShift(s Shift) { c.shift = s }

func (c *Cloud) GlobalShift() Shift { return c.shift }
func (c *Cloud) IsShifted() bool    { return !c.shift.IsIdentity() }

// Subset returns a new cloud holding the points whose flag equals f. The
// result carries the same shift and has no visibility array.
func (c *Cloud) Subset(name string, f visibility.Flag) *Cloud {
	var pts []r3.Vec
	for i, p := range c.points {
		if i < len(c.flags) && c.flags[i] == f {
			pts = append(pts, p)
		}
	}
	out := NewCloud(name, pts)
	out.shift = c.shift
	return out
}

// Triangle indexes three mesh vertices.
type Triangle [3]int

// Mesh is a triangle mesh whose vertices live in a Cloud.
type Mesh struct {
	name      string
	vertices  *Cloud
	triangles []Triangle
	children  []Entity

	// Primitive marks parametric shapes (planes, spheres, ...).
	Primitive bool
	// Parent is set for sub-meshes that index into another mesh.
	Parent *Mesh
}

var (
	_ Entity  = (*Mesh)(nil)
	_ Shifted = (*Mesh)(nil)
)

// NewMesh wraps vertices as a mesh and claims them as its vertex store.
func NewMesh(name string, vertices *Cloud, triangles []Triangle) *Mesh {
	m := &Mesh{name: name, vertices: vertices, triangles: triangles}
	if vertices != nil {
		vertices.owner = m
	}
	return m
}

// NewSubMesh returns a mesh sharing parent's vertices.
func NewSubMesh(name string, parent *Mesh, triangles []Triangle) *Mesh {
	return &Mesh{name: name, vertices: parent.vertices, triangles: triangles, Parent: parent}
}

func (m *Mesh) Name() string          { return m.name }
func (m *Mesh) Children() []Entity    { return m.children }
func (m *Mesh) AddChild(e Entity)     { m.children = append(m.children, e) }
func (m *Mesh) Vertices() *Cloud      { return m.vertices }
func (m *Mesh) Triangles() []Triangle { return m.triangles }

// IsSubMesh reports whether m indexes into another mesh.
func (m *Mesh) IsSubMesh() bool { return m.Parent != nil }

func (m *Mesh) GlobalShift() Shift {
	if m.vertices == nil {
		return Shift{Scale: 1}
	}
	return m.vertices.shift
}

func (m *Mesh) IsShifted() bool { return !m.GlobalShift().IsIdentity() }

// Group is a plain container.
type Group struct {
	name     string
	children []Entity
}

var _ Entity = (*Group)(nil)

// NewGroup returns a group holding children.
func NewGroup(name string, children ...Entity) *Group {
	return &Group{name: name, children: children}
}

func (g *Group) Name() string       { return g.name }
func (g *Group) Children() []Entity { return g.children }
func (g *Group) AddChild(e Entity)  { g.children = append(g.children, e) }
