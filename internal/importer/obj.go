package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/wmhtool/internal/mesh"
	"github.com/Faultbox/wmhtool/pkg/math"
)

const maxOBJLine = 1 << 20

// OBJCorner references the attributes of one face corner.
// Indices are zero-based; -1 means the attribute is absent.
type OBJCorner struct {
	Position int
	TexCoord int
	Normal   int
}

// OBJFace is a polygon with the material active when it was declared.
type OBJFace struct {
	Corners  []OBJCorner
	Material string
}

// OBJ is a parsed Wavefront OBJ file.
type OBJ struct {
	Name         string
	MaterialLibs []string
	Positions    []math.Vec3
	TexCoords    []math.Vec2
	Normals      []math.Vec3
	Faces        []OBJFace
}

// HasTexCoords returns true if any face corner references a texture coordinate.
func (o *OBJ) HasTexCoords() bool {
	for _, f := range o.Faces {
		for _, c := range f.Corners {
			if c.TexCoord >= 0 {
				return true
			}
		}
	}
	return false
}

// ParseOBJ parses Wavefront OBJ text. Only geometry statements are
// interpreted; lines, points, curves and smoothing groups are ignored.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	obj := &OBJ{}
	material := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxOBJLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		keyword, args := fields[0], fields[1:]

		var err error
		switch keyword {
		case "v":
			var v [3]float32
			if v, err = parseFloats3(args); err == nil {
				obj.Positions = append(obj.Positions, math.V3(v))
			}
		case "vt":
			var uv math.Vec2
			if uv, err = parseTexCoord(args); err == nil {
				obj.TexCoords = append(obj.TexCoords, uv)
			}
		case "vn":
			var n [3]float32
			if n, err = parseFloats3(args); err == nil {
				obj.Normals = append(obj.Normals, math.V3(n))
			}
		case "f":
			var face OBJFace
			if face, err = obj.parseFace(args); err == nil {
				face.Material = material
				obj.Faces = append(obj.Faces, face)
			}
		case "o":
			obj.Name = strings.Join(args, " ")
		case "g":
			if obj.Name == "" {
				obj.Name = strings.Join(args, " ")
			}
		case "mtllib":
			obj.MaterialLibs = append(obj.MaterialLibs, args...)
		case "usemtl":
			material = strings.Join(args, " ")
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %v", ErrMalformedOBJ, lineNo, keyword, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	return obj, nil
}

func (o *OBJ) parseFace(args []string) (OBJFace, error) {
	if len(args) < 3 {
		return OBJFace{}, fmt.Errorf("face has %d corners", len(args))
	}

	face := OBJFace{Corners: make([]OBJCorner, len(args))}
	for i, arg := range args {
		parts := strings.Split(arg, "/")
		if len(parts) > 3 || parts[0] == "" {
			return OBJFace{}, fmt.Errorf("bad corner %q", arg)
		}

		c := OBJCorner{TexCoord: -1, Normal: -1}
		var err error
		if c.Position, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
			return OBJFace{}, err
		}
		if len(parts) > 1 && parts[1] != "" {
			if c.TexCoord, err = resolveIndex(parts[1], len(o.TexCoords)); err != nil {
				return OBJFace{}, err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if c.Normal, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
				return OBJFace{}, err
			}
		}
		face.Corners[i] = c
	}
	return face, nil
}

// resolveIndex converts a one-based or negative (relative) OBJ index into
// a zero-based index into a list of n elements.
func resolveIndex(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", s)
	}

	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx += n
	default:
		return 0, errors.New("index 0 is invalid")
	}

	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("index %s out of range (%d defined)", s, n)
	}
	return idx, nil
}

func parseFloats3(args []string) ([3]float32, error) {
	var v [3]float32
	if len(args) < 3 {
		return v, fmt.Errorf("need 3 components, got %d", len(args))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

func parseTexCoord(args []string) (math.Vec2, error) {
	if len(args) < 1 {
		return math.Vec2{}, errors.New("missing u")
	}
	var uv [2]float32
	for i := 0; i < len(args) && i < 2; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return math.Vec2{}, err
		}
		uv[i] = float32(f)
	}
	return math.Vec2{X: uv[0], Y: uv[1]}, nil
}

// Mesh builds a mesh from the parsed geometry. Positions become shared
// vertices; polygons with more than four corners are fan-triangulated.
// A vertex takes the first normal any of its corners references, the rest
// are computed from the faces. Faces whose material has a diffuse map get
// that map's file name as their image.
func (o *OBJ) Mesh(materials Materials) *mesh.Mesh {
	m := &mesh.Mesh{Vertices: make([]mesh.Vertex, len(o.Positions))}
	for i, p := range o.Positions {
		m.Vertices[i].Position = p
	}

	hasUV := o.HasTexCoords()
	if hasUV {
		m.UV = &mesh.UVLayer{Name: "UVMap"}
	}
	images := make(map[string]*mesh.Image)

	for _, f := range o.Faces {
		for _, c := range f.Corners {
			v := &m.Vertices[c.Position]
			if c.Normal >= 0 && !v.HasNormal {
				v.Normal = o.Normals[c.Normal]
				v.HasNormal = true
			}
		}

		image := materials.image(f.Material, images)
		for _, corners := range splitPolygon(f.Corners) {
			face := mesh.Face{Verts: make([]int, len(corners))}
			fuv := mesh.FaceUV{UV: make([]math.Vec2, len(corners)), Image: image}
			for i, c := range corners {
				face.Verts[i] = c.Position
				if c.TexCoord >= 0 {
					fuv.UV[i] = o.TexCoords[c.TexCoord]
				}
			}
			m.Faces = append(m.Faces, face)
			if hasUV {
				m.UV.Faces = append(m.UV.Faces, fuv)
			}
		}
	}

	mesh.ComputeVertexNormals(m)
	return m
}

// splitPolygon returns triangles and quads unchanged and fans larger polygons
// around their first corner.
func splitPolygon(corners []OBJCorner) [][]OBJCorner {
	if len(corners) <= 4 {
		return [][]OBJCorner{corners}
	}
	tris := make([][]OBJCorner, 0, len(corners)-2)
	for i := 1; i+1 < len(corners); i++ {
		tris = append(tris, []OBJCorner{corners[0], corners[i], corners[i+1]})
	}
	return tris
}

// LoadOBJ reads an OBJ file and the material libraries it references.
// Libraries missing from disk are skipped; their faces get no image.
func LoadOBJ(path string) (*mesh.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()

	obj, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	materials := make(Materials)
	dir := filepath.Dir(path)
	for _, lib := range obj.MaterialLibs {
		lm, err := LoadMTL(filepath.Join(dir, lib))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		materials.merge(lm)
	}

	name := obj.Name
	if name == "" {
		name = objectName(path)
	}
	return newObject(name, obj.Mesh(materials)), nil
}
