// Package wmh reads and writes WMH vertex-stream files.
//
// A WMH file is a fixed 12-byte header of six little-endian int16 values
// followed by parallel attribute arrays:
//
//	header    version, vertexCount, indexCount, normalCount, tangentCount, binormalCount
//	image     uint32 length + raw name bytes (length 0 when there is no image)
//	positions vertexCount * 3 float32
//	indices   vertexCount int16, always 0..vertexCount-1
//	uvs       vertexCount * 2 float32
//	normals   vertexCount * 3 float32 (only if normalCount > 0)
//	tangents  vertexCount * 3 float32 (only if tangentCount > 0)
//	binormals vertexCount * 3 float32 (only if binormalCount > 0)
//
// Vertices are never welded: the index block is a plain sequence and every
// triangle corner has its own vertex.
package wmh

import (
	"errors"
	"fmt"
	"math"
)

// Extension is the file extension used for WMH files.
const Extension = ".wmh"

// Version is the only format version ever written. Readers do not interpret it.
const Version int16 = 0

// MaxVertices is the largest vertex count representable in the int16 header.
const MaxVertices = math.MaxInt16

// HeaderSize is the encoded size of Header in bytes.
const HeaderSize = 12

// WMH format errors.
var (
	ErrTruncatedData      = errors.New("truncated WMH data")
	ErrInvalidHeader      = errors.New("invalid WMH header")
	ErrNonSequentialIndex = errors.New("WMH index block is not sequential")
	ErrTrailingData       = errors.New("trailing bytes after WMH data")
	ErrTooManyVertices    = errors.New("too many vertices for WMH")
)

// Header is the fixed file header. Field order matches the on-disk order.
type Header struct {
	Version       int16
	VertexCount   int16
	IndexCount    int16
	NormalCount   int16
	TangentCount  int16
	BinormalCount int16
}

// String returns a one-line summary of the header counts.
func (h Header) String() string {
	return fmt.Sprintf("v%d vertices=%d indices=%d normals=%d tangents=%d binormals=%d",
		h.Version, h.VertexCount, h.IndexCount, h.NormalCount, h.TangentCount, h.BinormalCount)
}

// Validate checks the invariants every WMH header must hold.
func (h Header) Validate() error {
	n := h.VertexCount
	if n < 0 {
		return fmt.Errorf("%w: negative vertex count %d", ErrInvalidHeader, n)
	}
	if h.IndexCount != n {
		return fmt.Errorf("%w: index count %d != vertex count %d", ErrInvalidHeader, h.IndexCount, n)
	}
	for _, c := range []struct {
		name  string
		count int16
	}{
		{"normal", h.NormalCount},
		{"tangent", h.TangentCount},
		{"binormal", h.BinormalCount},
	} {
		if c.count != 0 && c.count != n {
			return fmt.Errorf("%w: %s count %d must be 0 or %d", ErrInvalidHeader, c.name, c.count, n)
		}
	}
	return nil
}

// Vertex holds every attribute of one vertex-stream entry.
// Attributes whose header count is zero are left zero-valued.
type Vertex struct {
	Position [3]float32
	UV       [2]float32
	Normal   [3]float32
	Tangent  [3]float32
	Binormal [3]float32
}

// Document is a complete WMH file in memory.
type Document struct {
	Header   Header
	Image    []byte // opaque image identifier, nil when absent
	Vertices []Vertex
}

// NewDocument builds a document for the given vertices, setting every
// header count from the vertex count and the attribute presence flags.
func NewDocument(vertices []Vertex, image []byte, normals, tangents bool) (*Document, error) {
	if len(vertices) > MaxVertices {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyVertices, len(vertices), MaxVertices)
	}
	n := int16(len(vertices))

	h := Header{
		Version:     Version,
		VertexCount: n,
		IndexCount:  n,
	}
	if normals {
		h.NormalCount = n
	}
	if tangents {
		h.TangentCount = n
		h.BinormalCount = n
	}

	return &Document{Header: h, Image: image, Vertices: vertices}, nil
}

// HasNormals reports whether the normal block is present.
func (d *Document) HasNormals() bool { return d.Header.NormalCount > 0 }

// HasTangents reports whether the tangent block is present.
func (d *Document) HasTangents() bool { return d.Header.TangentCount > 0 }

// HasBinormals reports whether the binormal block is present.
func (d *Document) HasBinormals() bool { return d.Header.BinormalCount > 0 }

// ImageName returns the image identifier for display.
// Returns "" when the document has no image.
func (d *Document) ImageName() string {
	return string(d.Image)
}

// Size returns the exact number of bytes Encode writes for this document.
func (d *Document) Size() int {
	n := int(d.Header.VertexCount)
	size := HeaderSize + 4 + len(d.Image)
	size += n * (12 + 2 + 8) // positions, indices, uvs
	if d.HasNormals() {
		size += n * 12
	}
	if d.HasTangents() {
		size += n * 12
	}
	if d.HasBinormals() {
		size += n * 12
	}
	return size
}
