// Package mesh holds the in-memory polygon mesh handed over by an importer
// and flattens it into a per-corner vertex stream with tangent-space bases.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/wmhtool/pkg/math"
)

// Mesh errors.
var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidMesh      = errors.New("invalid mesh")
)

// ObjectKind is the type of a scene object.
type ObjectKind int

const (
	KindEmpty  ObjectKind = iota // No data
	KindMesh                     // Polygon mesh
	KindCamera                   // Camera
	KindLight                    // Light source
)

// String returns a human-readable kind name.
func (k ObjectKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindMesh:
		return "Mesh"
	case KindCamera:
		return "Camera"
	case KindLight:
		return "Light"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Object is a named scene object. Only selected mesh objects can be exported.
type Object struct {
	Name     string
	Kind     ObjectKind
	Selected bool
	Mesh     *Mesh
}

// Vertex is a shared mesh vertex.
type Vertex struct {
	Position  math.Vec3
	Normal    math.Vec3
	HasNormal bool
}

// Face is a triangle or quad, listing vertex indices in winding order.
type Face struct {
	Verts []int
}

// Image is a texture image bound to a face. Name is opaque bytes.
type Image struct {
	Name []byte
}

// FaceUV holds one face's texture coordinates, one per face corner, and
// the image bound to the face, if any.
type FaceUV struct {
	UV    []math.Vec2
	Image *Image
}

// UVLayer is a UV channel with one FaceUV per mesh face.
type UVLayer struct {
	Name  string
	Faces []FaceUV
}

// Mesh is a polygon mesh made of triangles and quads.
// UV is the active UV channel, nil when the mesh has none.
type Mesh struct {
	Vertices []Vertex
	Faces    []Face
	UV       *UVLayer
}

// TriangleCount returns the number of triangles the faces split into.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if len(f.Verts) >= 3 {
			n += len(f.Verts) - 2
		}
	}
	return n
}

// Validate checks face sizes, vertex references and UV layer shape.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		if len(f.Verts) != 3 && len(f.Verts) != 4 {
			return fmt.Errorf("%w: face %d has %d corners", ErrInvalidMesh, i, len(f.Verts))
		}
		for _, vi := range f.Verts {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrInvalidMesh, i, vi, len(m.Vertices))
			}
		}
	}

	if m.UV == nil {
		return nil
	}
	if len(m.UV.Faces) != len(m.Faces) {
		return fmt.Errorf("%w: uv layer %q has %d faces, mesh has %d",
			ErrInvalidMesh, m.UV.Name, len(m.UV.Faces), len(m.Faces))
	}
	for i, fuv := range m.UV.Faces {
		if len(fuv.UV) != len(m.Faces[i].Verts) {
			return fmt.Errorf("%w: face %d has %d uvs for %d corners",
				ErrInvalidMesh, i, len(fuv.UV), len(m.Faces[i].Verts))
		}
	}
	return nil
}

// Options selects the optional attributes written for each vertex.
type Options struct {
	IncludeNormals  bool
	IncludeTangents bool
}
