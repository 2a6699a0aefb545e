package mesh

import "github.com/Faultbox/wmhtool/pkg/math"

// ComputeVertexNormals fills in the normal of every vertex that has none with
// the normalized sum of its adjacent face normals. Face normals are left
// unnormalized before summing so larger faces weigh more.
// Vertices that already carry a normal are left untouched.
func ComputeVertexNormals(m *Mesh) {
	sums := make([]math.Vec3, len(m.Vertices))

	addTriangle := func(a, b, c int) {
		p0 := m.Vertices[a].Position
		n := m.Vertices[b].Position.Sub(p0).Cross(m.Vertices[c].Position.Sub(p0))
		sums[a] = sums[a].Add(n)
		sums[b] = sums[b].Add(n)
		sums[c] = sums[c].Add(n)
	}

	for _, f := range m.Faces {
		if !validFace(f, len(m.Vertices)) {
			continue
		}
		addTriangle(f.Verts[0], f.Verts[1], f.Verts[2])
		if len(f.Verts) == 4 {
			addTriangle(f.Verts[0], f.Verts[2], f.Verts[3])
		}
	}

	for i := range m.Vertices {
		if m.Vertices[i].HasNormal {
			continue
		}
		m.Vertices[i].Normal = sums[i].Normalize()
		m.Vertices[i].HasNormal = true
	}
}

func validFace(f Face, vertexCount int) bool {
	if len(f.Verts) != 3 && len(f.Verts) != 4 {
		return false
	}
	for _, vi := range f.Verts {
		if vi < 0 || vi >= vertexCount {
			return false
		}
	}
	return true
}
