package importer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/wmhtool/internal/mesh"
	"github.com/Faultbox/wmhtool/pkg/encoding"
	"github.com/Faultbox/wmhtool/pkg/math"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidRSMCount       = errors.New("invalid RSM element count")
)

const (
	rsmNameLength = 40
	rsmMaxNodes   = 10000
	rsmMaxItems   = 100000

	// Keyframe record sizes; keyframes are skipped.
	rsmPosKeySize   = 4 + 12
	rsmRotKeySize   = 4 + 16
	rsmScaleKeySize = 4 + 12
)

// RSMVersion is the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMFace is a textured triangle of a node.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16 // index into the node's TextureIDs
}

// RSMNode is one node of the model hierarchy with its static transform.
type RSMNode struct {
	Name       string
	Parent     string
	TextureIDs []int32

	Matrix   [9]float32
	Offset   [3]float32
	Position [3]float32
	RotAngle float32
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  []math.Vec3
	TexCoords []math.Vec2
	Faces     []RSMFace

	Animated bool
}

// RSM is a parsed Ragnarok Online model.
type RSM struct {
	Version    RSMVersion
	AnimLength int32
	Textures   []string
	RootNode   string
	Nodes      []RSMNode
}

// rsmReader is a little-endian reader that remembers its first error.
type rsmReader struct {
	r   *bytes.Reader
	err error
}

func (d *rsmReader) read(v any) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		d.err = ErrTruncatedRSMData
	}
}

func (d *rsmReader) skip(n int64) {
	if d.err != nil {
		return
	}
	if int64(d.r.Len()) < n {
		d.err = ErrTruncatedRSMData
		return
	}
	d.r.Seek(n, io.SeekCurrent)
}

// string reads a fixed-length, NUL-padded EUC-KR string.
func (d *rsmReader) string(length int) string {
	buf := make([]byte, length)
	d.read(buf)
	return encoding.FixedStringToUTF8(buf)
}

// count reads an int32 element count and checks it against limit.
func (d *rsmReader) count(what string, limit int32) int {
	var n int32
	d.read(&n)
	if d.err == nil && (n < 0 || n > limit) {
		d.err = fmt.Errorf("%w: %d %s", ErrInvalidRSMCount, n, what)
	}
	if d.err != nil {
		return 0
	}
	return int(n)
}

// ParseRSM parses RSM data from a byte slice.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Version: RSMVersion{Major: data[4], Minor: data[5]}}
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	d := &rsmReader{r: bytes.NewReader(data[6:])}

	var shading int32
	d.read(&rsm.AnimLength)
	d.read(&shading)
	if rsm.Version.AtLeast(1, 4) {
		d.skip(1) // alpha
	}
	d.skip(16) // reserved

	rsm.Textures = make([]string, d.count("textures", rsmMaxItems))
	for i := range rsm.Textures {
		rsm.Textures[i] = d.string(rsmNameLength)
	}

	rsm.RootNode = d.string(rsmNameLength)

	rsm.Nodes = make([]RSMNode, d.count("nodes", rsmMaxNodes))
	for i := range rsm.Nodes {
		d.node(&rsm.Nodes[i], rsm.Version)
		if d.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, d.err)
		}
	}

	// Volume boxes follow; they carry no geometry.
	if d.err != nil {
		return nil, d.err
	}
	return rsm, nil
}

func (d *rsmReader) node(n *RSMNode, version RSMVersion) {
	n.Name = d.string(rsmNameLength)
	n.Parent = d.string(rsmNameLength)

	n.TextureIDs = make([]int32, d.count("texture ids", rsmMaxItems))
	d.read(n.TextureIDs)

	d.read(&n.Matrix)
	d.read(&n.Offset)
	d.read(&n.Position)
	d.read(&n.RotAngle)
	d.read(&n.RotAxis)
	d.read(&n.Scale)

	n.Vertices = make([]math.Vec3, d.count("vertices", rsmMaxItems))
	for i := range n.Vertices {
		var v [3]float32
		d.read(&v)
		n.Vertices[i] = math.V3(v)
	}

	n.TexCoords = make([]math.Vec2, d.count("texcoords", rsmMaxItems))
	for i := range n.TexCoords {
		if version.AtLeast(1, 2) {
			d.skip(4) // vertex color
		}
		var uv [2]float32
		d.read(&uv)
		n.TexCoords[i] = math.Vec2{X: uv[0], Y: uv[1]}
	}

	n.Faces = make([]RSMFace, d.count("faces", rsmMaxItems))
	for i := range n.Faces {
		f := &n.Faces[i]
		d.read(&f.VertexIDs)
		d.read(&f.TexCoordIDs)
		d.read(&f.TextureID)
		d.skip(2 + 4) // padding, two-side flag
		if version.AtLeast(1, 2) {
			d.skip(4) // smooth group
		}
	}

	if !version.AtLeast(1, 5) {
		keys := d.count("position keys", rsmMaxItems)
		d.skip(int64(keys) * rsmPosKeySize)
		n.Animated = n.Animated || keys > 0
	}

	keys := d.count("rotation keys", rsmMaxItems)
	d.skip(int64(keys) * rsmRotKeySize)
	n.Animated = n.Animated || keys > 0

	if version.AtLeast(1, 5) {
		keys := d.count("scale keys", rsmMaxItems)
		d.skip(int64(keys) * rsmScaleKeySize)
		n.Animated = n.Animated || keys > 0
	}
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// NodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// HasAnimation returns true if any node has keyframes.
func (rsm *RSM) HasAnimation() bool {
	for _, n := range rsm.Nodes {
		if n.Animated {
			return true
		}
	}
	return false
}

// NodeMatrix returns the rest-pose transform applied to a node's vertices:
// the inherited hierarchy transform followed by the node's own offset and
// 3x3 matrix, which children do not inherit.
func (rsm *RSM) NodeMatrix(n *RSMNode) math.Mat4 {
	m := rsm.hierarchyMatrix(n, make(map[string]bool))
	m = m.Mul(math.Translate(n.Offset[0], n.Offset[1], n.Offset[2]))
	return m.Mul(math.FromMat3x3(n.Matrix))
}

// hierarchyMatrix returns parent * Position * Rotation * Scale.
func (rsm *RSM) hierarchyMatrix(n *RSMNode, visited map[string]bool) math.Mat4 {
	if visited[n.Name] {
		return math.Identity()
	}
	visited[n.Name] = true

	local := math.Translate(n.Position[0], n.Position[1], n.Position[2])
	if axis := math.V3(n.RotAxis); n.RotAngle != 0 && axis.Length() > 1e-6 {
		local = local.Mul(math.RotateAxis(axis.Normalize(), n.RotAngle))
	}
	local = local.Mul(math.Scale(n.Scale[0], n.Scale[1], n.Scale[2]))

	if n.Parent != "" && n.Parent != n.Name {
		if parent := rsm.NodeByName(n.Parent); parent != nil {
			return rsm.hierarchyMatrix(parent, visited).Mul(local)
		}
	}
	return local
}

// Mesh merges all nodes into one triangle mesh in model space.
// Each face's texture becomes its image. Faces referencing missing vertices
// are dropped; missing texture coordinates read as zero.
func (rsm *RSM) Mesh() *mesh.Mesh {
	m := &mesh.Mesh{UV: &mesh.UVLayer{Name: "UVMap"}}
	images := make(map[int32]*mesh.Image)

	for ni := range rsm.Nodes {
		n := &rsm.Nodes[ni]
		matrix := rsm.NodeMatrix(n)

		base := len(m.Vertices)
		for _, v := range n.Vertices {
			m.Vertices = append(m.Vertices, mesh.Vertex{Position: matrix.TransformPoint(v)})
		}

		for _, f := range n.Faces {
			if !rsmFaceValid(f, len(n.Vertices)) {
				continue
			}

			face := mesh.Face{Verts: make([]int, 3)}
			fuv := mesh.FaceUV{UV: make([]math.Vec2, 3), Image: rsm.faceImage(n, f, images)}
			for c := 0; c < 3; c++ {
				face.Verts[c] = base + int(f.VertexIDs[c])
				if t := int(f.TexCoordIDs[c]); t < len(n.TexCoords) {
					fuv.UV[c] = n.TexCoords[t]
				}
			}
			m.Faces = append(m.Faces, face)
			m.UV.Faces = append(m.UV.Faces, fuv)
		}
	}

	mesh.ComputeVertexNormals(m)
	return m
}

func (rsm *RSM) faceImage(n *RSMNode, f RSMFace, cache map[int32]*mesh.Image) *mesh.Image {
	if int(f.TextureID) >= len(n.TextureIDs) {
		return nil
	}
	id := n.TextureIDs[f.TextureID]
	if id < 0 || int(id) >= len(rsm.Textures) {
		return nil
	}
	if img, ok := cache[id]; ok {
		return img
	}
	img := &mesh.Image{Name: []byte(rsm.Textures[id])}
	cache[id] = img
	return img
}

func rsmFaceValid(f RSMFace, vertexCount int) bool {
	for _, id := range f.VertexIDs {
		if int(id) >= vertexCount {
			return false
		}
	}
	return true
}

// LoadRSM reads an RSM model and merges its nodes into one mesh object
// named after the root node.
func LoadRSM(path string) (*mesh.Object, error) {
	rsm, err := ParseRSMFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rsm.object(path), nil
}

func (rsm *RSM) object(path string) *mesh.Object {
	name := rsm.RootNode
	if name == "" {
		name = objectName(path)
	}
	return newObject(name, rsm.Mesh())
}
