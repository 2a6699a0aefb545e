package importer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Faultbox/wmhtool/internal/mesh"
)

// Material is an MTL material. Only the diffuse texture map is kept.
type Material struct {
	Name       string
	DiffuseMap string
}

// Materials maps material names to materials.
type Materials map[string]Material

func (ms Materials) merge(other Materials) {
	for name, mat := range other {
		ms[name] = mat
	}
}

// image returns the shared image for a material's diffuse map, or nil.
func (ms Materials) image(name string, cache map[string]*mesh.Image) *mesh.Image {
	mat, ok := ms[name]
	if !ok || mat.DiffuseMap == "" {
		return nil
	}
	if img, ok := cache[mat.DiffuseMap]; ok {
		return img
	}
	img := &mesh.Image{Name: []byte(mat.DiffuseMap)}
	cache[mat.DiffuseMap] = img
	return img
}

// ParseMTL parses a Wavefront material library.
func ParseMTL(r io.Reader) (Materials, error) {
	materials := make(Materials)
	var current *Material

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxOBJLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "newmtl":
			if current != nil {
				materials[current.Name] = *current
			}
			current = &Material{Name: strings.Join(fields[1:], " ")}
		case "map_Kd":
			// Map options precede the file name.
			if current != nil && len(fields) > 1 {
				current.DiffuseMap = fields[len(fields)-1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}

	if current != nil {
		materials[current.Name] = *current
	}
	return materials, nil
}

// LoadMTL parses a material library from disk.
func LoadMTL(path string) (Materials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening MTL file: %w", err)
	}
	defer f.Close()
	return ParseMTL(f)
}
