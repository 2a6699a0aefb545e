package wmh

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeVertices returns n distinct vertices with every attribute filled.
func makeVertices(n int) []Vertex {
	vs := make([]Vertex, n)
	for i := range vs {
		f := float32(i)
		vs[i] = Vertex{
			Position: [3]float32{f, f + 0.5, -f},
			UV:       [2]float32{f / 10, 1 - f/10},
			Normal:   [3]float32{0, 0, 1},
			Tangent:  [3]float32{1, 0, 0},
			Binormal: [3]float32{0, 1, 0},
		}
	}
	return vs
}

func readF32(t *testing.T, data []byte, off int) float32 {
	t.Helper()
	require.LessOrEqual(t, off+4, len(data))
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func TestNewDocument_Counts(t *testing.T) {
	tests := []struct {
		name     string
		normals  bool
		tangents bool
		want     Header
	}{
		{"positions only", false, false, Header{0, 3, 3, 0, 0, 0}},
		{"normals", true, false, Header{0, 3, 3, 3, 0, 0}},
		{"tangents", false, true, Header{0, 3, 3, 0, 3, 3}},
		{"everything", true, true, Header{0, 3, 3, 3, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocument(makeVertices(3), nil, tt.normals, tt.tangents)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Header)
			assert.NoError(t, doc.Header.Validate())
		})
	}
}

func TestNewDocument_TooManyVertices(t *testing.T) {
	_, err := NewDocument(make([]Vertex, MaxVertices+1), nil, false, false)
	assert.ErrorIs(t, err, ErrTooManyVertices)

	doc, err := NewDocument(make([]Vertex, MaxVertices), nil, false, false)
	require.NoError(t, err)
	assert.Equal(t, int16(MaxVertices), doc.Header.VertexCount)
}

func TestEncode_HeaderLayout(t *testing.T) {
	doc, err := NewDocument(makeVertices(6), []byte("brick.png"), true, false)
	require.NoError(t, err)

	data, err := doc.MarshalBinary()
	require.NoError(t, err)

	var h [6]int16
	require.NoError(t, binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h))
	assert.Equal(t, [6]int16{0, 6, 6, 6, 0, 0}, h)
}

func TestEncode_ImageBlock(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		doc, err := NewDocument(nil, []byte("stone.tga"), false, false)
		require.NoError(t, err)
		data, err := doc.MarshalBinary()
		require.NoError(t, err)

		assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(data[12:16]))
		assert.Equal(t, []byte("stone.tga"), data[16:25])
		assert.Len(t, data, 25)
	})

	t.Run("absent", func(t *testing.T) {
		doc, err := NewDocument(nil, nil, false, false)
		require.NoError(t, err)
		data, err := doc.MarshalBinary()
		require.NoError(t, err)

		assert.Equal(t, []byte{0, 0, 0, 0}, data[12:16])
		assert.Len(t, data, 16)
	})

	t.Run("opaque bytes", func(t *testing.T) {
		name := []byte{0xff, 0x00, 0xfe, 'a'}
		doc, err := NewDocument(nil, name, false, false)
		require.NoError(t, err)
		data, err := doc.MarshalBinary()
		require.NoError(t, err)

		got, err := Parse(data)
		require.NoError(t, err)
		assert.Equal(t, name, got.Image)
	})
}

func TestEncode_BlockOrder(t *testing.T) {
	vs := makeVertices(3)
	doc, err := NewDocument(vs, nil, true, true)
	require.NoError(t, err)
	data, err := doc.MarshalBinary()
	require.NoError(t, err)

	const n = 3
	off := HeaderSize + 4

	// Positions
	for i := 0; i < n; i++ {
		for c := 0; c < 3; c++ {
			assert.Equal(t, vs[i].Position[c], readF32(t, data, off))
			off += 4
		}
	}

	// Indices
	for i := 0; i < n; i++ {
		assert.Equal(t, int16(i), int16(binary.LittleEndian.Uint16(data[off:])))
		off += 2
	}

	// UVs
	for i := 0; i < n; i++ {
		assert.Equal(t, vs[i].UV[0], readF32(t, data, off))
		assert.Equal(t, vs[i].UV[1], readF32(t, data, off+4))
		off += 8
	}

	// Normals, tangents, binormals
	for _, want := range [][3]float32{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}} {
		for i := 0; i < n; i++ {
			for c := 0; c < 3; c++ {
				assert.Equal(t, want[c], readF32(t, data, off))
				off += 4
			}
		}
	}

	assert.Equal(t, len(data), off)
}

func TestEncode_IndexBlockSequential(t *testing.T) {
	const n = 300
	doc, err := NewDocument(makeVertices(n), nil, false, false)
	require.NoError(t, err)
	data, err := doc.MarshalBinary()
	require.NoError(t, err)

	off := HeaderSize + 4 + n*12
	for i := 0; i < n; i++ {
		require.Equal(t, int16(i), int16(binary.LittleEndian.Uint16(data[off+2*i:])))
	}
}

func TestEncode_Size(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		image    string
		normals  bool
		tangents bool
		want     int
	}{
		{"empty", 0, "", false, false, 12 + 4},
		{"no optional blocks", 6, "", false, false, 12 + 4 + 6*(12+2+8)},
		{"normals only", 3, "a.png", true, false, 12 + 4 + 5 + 3*(12+2+8+12)},
		// 4+L (image) + 12N + 2N + 8N + 12N + 12N + 12N, header fixed at 12
		{"all attributes", 9, "diffuse.tga", true, true, 12 + 4 + 11 + 12*9 + 2*9 + 8*9 + 12*9 + 12*9 + 12*9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var image []byte
			if tt.image != "" {
				image = []byte(tt.image)
			}
			doc, err := NewDocument(makeVertices(tt.n), image, tt.normals, tt.tangents)
			require.NoError(t, err)

			data, err := doc.MarshalBinary()
			require.NoError(t, err)
			assert.Len(t, data, tt.want)
			assert.Equal(t, tt.want, doc.Size())
		})
	}
}

func TestEncode_DoesNotMutate(t *testing.T) {
	vs := makeVertices(4)
	image := []byte("tex.bmp")
	doc, err := NewDocument(vs, image, true, true)
	require.NoError(t, err)

	before := *doc
	beforeVerts := append([]Vertex(nil), vs...)

	first, err := doc.MarshalBinary()
	require.NoError(t, err)
	second, err := doc.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before.Header, doc.Header)
	assert.Equal(t, beforeVerts, doc.Vertices)
	assert.Equal(t, []byte("tex.bmp"), doc.Image)
}

func TestEncode_CountMismatch(t *testing.T) {
	doc := &Document{
		Header:   Header{VertexCount: 3, IndexCount: 3},
		Vertices: makeVertices(2),
	}
	err := Encode(&bytes.Buffer{}, doc)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		normals  bool
		tangents bool
	}{
		{"bare", false, false},
		{"normals", true, false},
		{"tangents", false, true},
		{"all", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := makeVertices(12)
			doc, err := NewDocument(vs, []byte("grass.png"), tt.normals, tt.tangents)
			require.NoError(t, err)

			data, err := doc.MarshalBinary()
			require.NoError(t, err)

			got, err := Parse(data)
			require.NoError(t, err)
			assert.Equal(t, doc.Header, got.Header)
			assert.Equal(t, "grass.png", got.ImageName())

			for i := range vs {
				assert.Equal(t, vs[i].Position, got.Vertices[i].Position)
				assert.Equal(t, vs[i].UV, got.Vertices[i].UV)
				if tt.normals {
					assert.Equal(t, vs[i].Normal, got.Vertices[i].Normal)
				} else {
					assert.Zero(t, got.Vertices[i].Normal)
				}
				if tt.tangents {
					assert.Equal(t, vs[i].Tangent, got.Vertices[i].Tangent)
					assert.Equal(t, vs[i].Binormal, got.Vertices[i].Binormal)
				} else {
					assert.Zero(t, got.Vertices[i].Tangent)
					assert.Zero(t, got.Vertices[i].Binormal)
				}
			}
		})
	}
}

func TestDecode(t *testing.T) {
	doc, err := NewDocument(makeVertices(5), []byte("bark.tga"), true, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	data := buf.Bytes()

	got, err := Decode(iotest.OneByteReader(bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = Decode(bytes.NewReader(data[:len(data)-1]))
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = Decode(iotest.ErrReader(io.ErrClosedPipe))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestParse_Errors(t *testing.T) {
	doc, err := NewDocument(makeVertices(3), []byte("x.png"), true, true)
	require.NoError(t, err)
	valid, err := doc.MarshalBinary()
	require.NoError(t, err)

	withHeader := func(h Header) []byte {
		var buf bytes.Buffer
		binary.Write(&buf, binary.LittleEndian, h)
		buf.Write(valid[HeaderSize:])
		return buf.Bytes()
	}

	badIndex := append([]byte(nil), valid...)
	indexOff := HeaderSize + 4 + 5 + 3*12
	binary.LittleEndian.PutUint16(badIndex[indexOff+2:], 7)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", []byte{}, ErrTruncatedData},
		{"short header", valid[:8], ErrTruncatedData},
		{"truncated image", valid[:HeaderSize+6], ErrTruncatedData},
		{"truncated body", valid[:len(valid)-1], ErrTruncatedData},
		{"negative count", withHeader(Header{0, -1, -1, 0, 0, 0}), ErrInvalidHeader},
		{"index count mismatch", withHeader(Header{0, 3, 2, 3, 3, 3}), ErrInvalidHeader},
		{"partial normal count", withHeader(Header{0, 3, 3, 1, 3, 3}), ErrInvalidHeader},
		{"non-sequential index", badIndex, ErrNonSequentialIndex},
		{"trailing data", append(append([]byte(nil), valid...), 0xAA), ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseFile(t *testing.T) {
	doc, err := NewDocument(makeVertices(3), nil, false, true)
	require.NoError(t, err)
	data, err := doc.MarshalBinary()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tri.wmh")
	require.NoError(t, os.WriteFile(path, data, 0644))

	got, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Header, got.Header)
	assert.Nil(t, got.Image)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.wmh"))
	assert.Error(t, err)
}

func TestHeader_String(t *testing.T) {
	h := Header{0, 6, 6, 6, 0, 0}
	assert.Equal(t, "v0 vertices=6 indices=6 normals=6 tangents=0 binormals=0", h.String())
}
