// Package importer builds mesh objects from model files on disk.
//
// Supported formats:
//   - Wavefront OBJ (.obj), with materials from the referenced .mtl libraries
//   - Ragnarok Online models (.rsm)
//
// Models may also be read from GRF archives, see LoadFromArchive.
//
// Every imported object is a selected mesh, ready to be flattened.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/wmhtool/internal/mesh"
)

// Importer errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrMalformedOBJ      = errors.New("malformed OBJ data")
)

// Load imports the model at path, picking the parser by file extension.
func Load(path string) (*mesh.Object, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return LoadOBJ(path)
	case ".rsm":
		return LoadRSM(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// objectName derives an object name from a file path.
func objectName(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newObject(name string, m *mesh.Mesh) *mesh.Object {
	return &mesh.Object{
		Name:     name,
		Kind:     mesh.KindMesh,
		Selected: true,
		Mesh:     m,
	}
}
