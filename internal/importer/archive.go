package importer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/Faultbox/wmhtool/internal/mesh"
	"github.com/Faultbox/wmhtool/pkg/encoding"
	"github.com/Faultbox/wmhtool/pkg/grf"
)

// LoadFromArchive imports the model stored under name in a GRF archive.
// Material libraries of an OBJ are read from the same archive directory.
func LoadFromArchive(a *grf.Archive, name string) (*mesh.Object, error) {
	data, err := a.Read(name)
	if err != nil {
		return nil, err
	}
	source := a.Path() + ":" + name

	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".rsm":
		rsm, err := ParseRSM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return rsm.object(name), nil

	case ".obj":
		obj, err := ParseOBJ(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}

		materials := make(Materials)
		dir := path.Dir(encoding.NormalizePath(name))
		for _, lib := range obj.MaterialLibs {
			raw, err := a.Read(path.Join(dir, lib))
			if errors.Is(err, grf.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			lm, err := ParseMTL(bytes.NewReader(raw))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", lib, err)
			}
			materials.merge(lm)
		}

		objName := obj.Name
		if objName == "" {
			objName = objectName(name)
		}
		return newObject(objName, obj.Mesh(materials)), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadWithArchives imports the model at p from disk. When no such file
// exists, the archives are searched in order for an entry named p.
func LoadWithArchives(p string, archives []*grf.Archive) (*mesh.Object, error) {
	if _, err := os.Stat(p); err == nil || len(archives) == 0 {
		return Load(p)
	}

	for _, a := range archives {
		if a.Contains(p) {
			return LoadFromArchive(a, p)
		}
	}
	return nil, fmt.Errorf("%s: %w (searched %d archives)", p, os.ErrNotExist, len(archives))
}
