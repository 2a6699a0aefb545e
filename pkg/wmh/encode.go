package wmh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode writes doc to w in WMH layout.
// The header counts are trusted as given; doc is not modified.
func Encode(w io.Writer, doc *Document) error {
	n := int(doc.Header.VertexCount)
	if n < 0 || n != len(doc.Vertices) {
		return fmt.Errorf("%w: header declares %d vertices, document has %d",
			ErrInvalidHeader, doc.Header.VertexCount, len(doc.Vertices))
	}

	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}

	e.write(doc.Header)

	// Image block
	e.write(uint32(len(doc.Image)))
	if len(doc.Image) > 0 {
		e.writeBytes(doc.Image)
	}

	// Positions
	for i := range doc.Vertices {
		e.write(doc.Vertices[i].Position)
	}

	// Indices: a plain sequence, vertices are not shared
	indices := make([]int16, n)
	for i := range indices {
		indices[i] = int16(i)
	}
	e.write(indices)

	// Texture coordinates
	for i := range doc.Vertices {
		e.write(doc.Vertices[i].UV)
	}

	if doc.HasNormals() {
		for i := range doc.Vertices {
			e.write(doc.Vertices[i].Normal)
		}
	}
	if doc.HasTangents() {
		for i := range doc.Vertices {
			e.write(doc.Vertices[i].Tangent)
		}
	}
	if doc.HasBinormals() {
		for i := range doc.Vertices {
			e.write(doc.Vertices[i].Binormal)
		}
	}

	if e.err != nil {
		return fmt.Errorf("encoding WMH: %w", e.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encoding WMH: %w", err)
	}
	return nil
}

// MarshalBinary returns the encoded document.
func (d *Document) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(d.Size())
	if err := Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encoder keeps the first write error so the block sequence reads straight through.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) write(v any) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) writeBytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}
