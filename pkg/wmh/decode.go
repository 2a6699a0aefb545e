package wmh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Decode reads a WMH document from r. Decode may buffer bytes past the end
// of the document; use Parse to reject trailing data.
func Decode(r io.Reader) (*Document, error) {
	return decode(bufio.NewReader(r))
}

// Parse parses WMH data from a byte slice.
func Parse(data []byte) (*Document, error) {
	if len(data) < HeaderSize {
		return nil, ErrTruncatedData
	}

	br := bufio.NewReader(bytes.NewReader(data))
	doc, err := decode(br)
	if err != nil {
		return nil, err
	}
	if _, err := br.Peek(1); err == nil {
		return nil, ErrTrailingData
	}
	return doc, nil
}

func decode(br *bufio.Reader) (*Document, error) {
	doc := &Document{}

	if err := binary.Read(br, binary.LittleEndian, &doc.Header); err != nil {
		return nil, truncated("header", err)
	}
	if err := doc.Header.Validate(); err != nil {
		return nil, err
	}

	// Image block
	var imageLen uint32
	if err := binary.Read(br, binary.LittleEndian, &imageLen); err != nil {
		return nil, truncated("image length", err)
	}
	if imageLen > 0 {
		var name bytes.Buffer
		if _, err := io.CopyN(&name, br, int64(imageLen)); err != nil {
			return nil, truncated("image name", err)
		}
		doc.Image = name.Bytes()
	}

	n := int(doc.Header.VertexCount)
	doc.Vertices = make([]Vertex, n)

	for i := range doc.Vertices {
		if err := binary.Read(br, binary.LittleEndian, &doc.Vertices[i].Position); err != nil {
			return nil, truncated("positions", err)
		}
	}

	indices := make([]int16, n)
	if err := binary.Read(br, binary.LittleEndian, indices); err != nil {
		return nil, truncated("indices", err)
	}
	for i, idx := range indices {
		if int(idx) != i {
			return nil, fmt.Errorf("%w: index %d is %d", ErrNonSequentialIndex, i, idx)
		}
	}

	for i := range doc.Vertices {
		if err := binary.Read(br, binary.LittleEndian, &doc.Vertices[i].UV); err != nil {
			return nil, truncated("uvs", err)
		}
	}

	if doc.HasNormals() {
		for i := range doc.Vertices {
			if err := binary.Read(br, binary.LittleEndian, &doc.Vertices[i].Normal); err != nil {
				return nil, truncated("normals", err)
			}
		}
	}
	if doc.HasTangents() {
		for i := range doc.Vertices {
			if err := binary.Read(br, binary.LittleEndian, &doc.Vertices[i].Tangent); err != nil {
				return nil, truncated("tangents", err)
			}
		}
	}
	if doc.HasBinormals() {
		for i := range doc.Vertices {
			if err := binary.Read(br, binary.LittleEndian, &doc.Vertices[i].Binormal); err != nil {
				return nil, truncated("binormals", err)
			}
		}
	}

	return doc, nil
}

// ParseFile parses a WMH file from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading WMH file: %w", err)
	}
	return Parse(data)
}

func truncated(section string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedData, section)
	}
	return fmt.Errorf("reading WMH %s: %w", section, err)
}
