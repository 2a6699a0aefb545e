package mesh

import (
	"fmt"

	"github.com/Faultbox/wmhtool/pkg/math"
	"github.com/Faultbox/wmhtool/pkg/wmh"
)

// uvDigits is the number of decimal digits UVs are rounded to.
const uvDigits = 6

// Corner emission order per face size. Quads split along the A-C diagonal.
var (
	triangleCorners = []int{0, 1, 2}
	quadCorners     = []int{0, 1, 2, 0, 2, 3}
)

// VertexRecord is the output for one triangle corner.
// Attributes that were not requested stay zero.
type VertexRecord struct {
	Position math.Vec3
	UV       math.Vec2
	Normal   math.Vec3
	Tangent  math.Vec3
	Binormal math.Vec3
}

// Result is a flattened mesh: one record per emitted triangle corner.
type Result struct {
	Records []VertexRecord
	Image   []byte // first image bound to a face, nil if none

	normals  bool
	tangents bool
}

// VertexCount returns the number of records.
func (r *Result) VertexCount() int { return len(r.Records) }

// IndexCount returns the index count, always equal to the vertex count.
func (r *Result) IndexCount() int { return len(r.Records) }

// NormalCount returns the vertex count if normals were written, else 0.
func (r *Result) NormalCount() int { return r.countIf(r.normals) }

// TangentCount returns the vertex count if tangents were written, else 0.
func (r *Result) TangentCount() int { return r.countIf(r.tangents) }

// BinormalCount returns the vertex count if binormals were written, else 0.
// Binormals are always written together with tangents.
func (r *Result) BinormalCount() int { return r.countIf(r.tangents) }

func (r *Result) countIf(present bool) int {
	if present {
		return len(r.Records)
	}
	return 0
}

// Document converts the result into an encodable WMH document.
func (r *Result) Document() (*wmh.Document, error) {
	vertices := make([]wmh.Vertex, len(r.Records))
	for i, rec := range r.Records {
		vertices[i] = wmh.Vertex{
			Position: rec.Position.Array(),
			UV:       rec.UV.Array(),
			Normal:   rec.Normal.Array(),
			Tangent:  rec.Tangent.Array(),
			Binormal: rec.Binormal.Array(),
		}
	}
	return wmh.NewDocument(vertices, r.Image, r.normals, r.tangents)
}

// Flatten walks obj's faces in order and emits one record per triangle corner.
// Triangles emit corners A,B,C; quads emit A,B,C,A,C,D. Tangents are only
// computed when requested and the mesh has an active UV channel.
func Flatten(obj *Object, opts Options) (*Result, error) {
	if err := checkSelection(obj); err != nil {
		return nil, err
	}
	m := obj.Mesh
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("object %q: %w", obj.Name, err)
	}

	hasUV := m.UV != nil
	res := &Result{
		Records:  make([]VertexRecord, 0, m.TriangleCount()*3),
		normals:  opts.IncludeNormals,
		tangents: hasUV && opts.IncludeTangents,
	}

	imageSet := false
	for fi, face := range m.Faces {
		var fuv *FaceUV
		if hasUV {
			fuv = &m.UV.Faces[fi]
			if !imageSet && fuv.Image != nil {
				res.Image = append([]byte(nil), fuv.Image.Name...)
				imageSet = true
			}
		}

		corners := triangleCorners
		if len(face.Verts) == 4 {
			corners = quadCorners
		}

		var bases []Basis
		if res.tangents {
			bases = faceBases(m, face, fuv)
		}

		for slot, c := range corners {
			v := m.Vertices[face.Verts[c]]
			rec := VertexRecord{Position: v.Position}
			if hasUV {
				rec.UV = fuv.UV[c].Round(uvDigits)
			}
			if opts.IncludeNormals {
				rec.Normal = v.Normal
			}
			if bases != nil {
				rec.Tangent = bases[slot].Tangent
				rec.Binormal = bases[slot].Binormal
			}
			res.Records = append(res.Records, rec)
		}
	}

	return res, nil
}

// faceBases returns one basis per emitted record of the face.
// Source UVs are used unrounded.
func faceBases(m *Mesh, face Face, fuv *FaceUV) []Basis {
	if len(face.Verts) == 3 {
		b := TriangleBasis(
			m.Vertices[face.Verts[0]].Position,
			m.Vertices[face.Verts[1]].Position,
			m.Vertices[face.Verts[2]].Position,
			fuv.UV[0], fuv.UV[1], fuv.UV[2],
		)
		return []Basis{b, b, b}
	}

	var p [4]math.Vec3
	var uv [4]math.Vec2
	for i := 0; i < 4; i++ {
		p[i] = m.Vertices[face.Verts[i]].Position
		uv[i] = fuv.UV[i]
	}
	bases := quadBases(p, uv)
	return bases[:]
}

func checkSelection(obj *Object) error {
	switch {
	case obj == nil:
		return fmt.Errorf("%w: no object", ErrInvalidSelection)
	case obj.Kind != KindMesh:
		return fmt.Errorf("%w: object %q is a %s, not a mesh", ErrInvalidSelection, obj.Name, obj.Kind)
	case !obj.Selected:
		return fmt.Errorf("%w: object %q is not selected", ErrInvalidSelection, obj.Name)
	case obj.Mesh == nil:
		return fmt.Errorf("%w: object %q has no mesh data", ErrInvalidSelection, obj.Name)
	}
	return nil
}
