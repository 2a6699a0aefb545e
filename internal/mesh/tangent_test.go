package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/wmhtool/pkg/math"
)

func TestTriangleBasis(t *testing.T) {
	p0 := math.Vec3{}
	p1 := math.Vec3{X: 1}
	p2 := math.Vec3{Y: 1}

	tests := []struct {
		name         string
		uv0, uv1, uv2 math.Vec2
		wantTangent  math.Vec3
		wantBinormal math.Vec3
	}{
		{
			name: "identity mapping",
			uv0:  math.Vec2{}, uv1: math.Vec2{X: 1}, uv2: math.Vec2{Y: 1},
			wantTangent:  math.Vec3{X: 1},
			wantBinormal: math.Vec3{Y: 1},
		},
		{
			name: "half scale",
			uv0:  math.Vec2{}, uv1: math.Vec2{X: 0.5}, uv2: math.Vec2{Y: 0.5},
			wantTangent:  math.Vec3{X: 2},
			wantBinormal: math.Vec3{Y: 2},
		},
		{
			name: "swapped axes",
			uv0:  math.Vec2{}, uv1: math.Vec2{Y: 1}, uv2: math.Vec2{X: 1},
			wantTangent:  math.Vec3{Y: 1},
			wantBinormal: math.Vec3{X: 1},
		},
		{
			name: "zero area falls back to unscaled",
			uv0:  math.Vec2{X: 0.5, Y: 0.5}, uv1: math.Vec2{X: 0.5, Y: 0.5}, uv2: math.Vec2{X: 0.5, Y: 0.5},
			wantTangent:  math.Vec3{},
			wantBinormal: math.Vec3{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := TriangleBasis(p0, p1, p2, tt.uv0, tt.uv1, tt.uv2)
			assertVec3Near(t, tt.wantTangent, b.Tangent)
			assertVec3Near(t, tt.wantBinormal, b.Binormal)
		})
	}
}

func TestBasis_Normalize(t *testing.T) {
	b := Basis{Tangent: math.Vec3{X: 3, Y: 4}, Binormal: math.Vec3{}}.Normalize()

	assertVec3Near(t, math.Vec3{X: 0.6, Y: 0.8}, b.Tangent)
	assert.True(t, b.Binormal.IsZero())
}

func TestQuadBases_PlanarMapping(t *testing.T) {
	// Affine UVs give both triangles the same raw basis.
	p := [4]math.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	uv := [4]math.Vec2{{}, {X: 0.5}, {X: 0.5, Y: 0.5}, {Y: 0.5}}

	bases := quadBases(p, uv)

	raw := Basis{Tangent: math.Vec3{X: 2}, Binormal: math.Vec3{Y: 2}}
	unit := Basis{Tangent: math.Vec3{X: 1}, Binormal: math.Vec3{Y: 1}}

	for _, i := range []int{0, 3} {
		assertVec3Near(t, raw.Tangent, bases[i].Tangent, "slot %d", i)
		assertVec3Near(t, raw.Binormal, bases[i].Binormal, "slot %d", i)
	}
	for _, i := range []int{1, 2, 4, 5} {
		assertVec3Near(t, unit.Tangent, bases[i].Tangent, "slot %d", i)
		assertVec3Near(t, unit.Binormal, bases[i].Binormal, "slot %d", i)
	}
}
