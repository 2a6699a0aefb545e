package mesh

import "github.com/Faultbox/wmhtool/pkg/math"

// Basis is the tangent/binormal pair of a triangle in UV space.
type Basis struct {
	Tangent  math.Vec3
	Binormal math.Vec3
}

// Add returns the component-wise sum of two bases.
func (b Basis) Add(other Basis) Basis {
	return Basis{b.Tangent.Add(other.Tangent), b.Binormal.Add(other.Binormal)}
}

// Normalize normalizes tangent and binormal independently.
func (b Basis) Normalize() Basis {
	return Basis{b.Tangent.Normalize(), b.Binormal.Normalize()}
}

// TriangleBasis derives the UV-aligned tangent and binormal of a triangle.
// When the UV triangle has zero area the unscaled edge combination is
// returned instead of dividing by zero.
func TriangleBasis(p0, p1, p2 math.Vec3, uv0, uv1, uv2 math.Vec2) Basis {
	edge1 := p1.Sub(p0)
	edge2 := p2.Sub(p0)
	edge1uv := uv1.Sub(uv0)
	edge2uv := uv2.Sub(uv0)

	det := edge1uv.Cross(edge2uv)
	scale := float32(1)
	if det != 0 {
		scale = 1 / det
	}

	return Basis{
		Tangent:  edge1.Scale(edge2uv.Y).Sub(edge2.Scale(edge1uv.Y)).Scale(scale),
		Binormal: edge1.Scale(-edge2uv.X).Add(edge2.Scale(edge1uv.X)).Scale(scale),
	}
}

// quadBases returns the basis for each of the six records a quad emits,
// in emission order A,B,C,A,C,D.
//
// Corner A keeps the raw basis of triangle ABC. B and D get the normalized
// basis of their own triangle. The diagonal corner C, shared by both
// triangles, gets the normalized sum of both.
func quadBases(p [4]math.Vec3, uv [4]math.Vec2) [6]Basis {
	first := TriangleBasis(p[0], p[1], p[2], uv[0], uv[1], uv[2])
	second := TriangleBasis(p[0], p[2], p[3], uv[0], uv[2], uv[3])

	smooth := first.Add(second).Normalize()

	return [6]Basis{
		first,
		first.Normalize(),
		smooth,
		first,
		smooth,
		second.Normalize(),
	}
}
