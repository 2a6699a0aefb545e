package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/Faultbox/wmhtool/pkg/encoding"
	"github.com/Faultbox/wmhtool/pkg/grf"
)

// Texture errors.
var (
	ErrNotFound          = errors.New("texture not found")
	ErrUnsupportedFormat = errors.New("unsupported texture format")
)

// Info describes an image file on disk.
type Info struct {
	Path   string
	Format string
	Width  int
	Height int
}

// String returns "path (format WxH)".
func (i Info) String() string {
	return fmt.Sprintf("%s (%s %dx%d)", i.Path, i.Format, i.Width, i.Height)
}

type format struct {
	name   string
	header int // container bytes before the image stream
	decode func(io.Reader) (image.Config, error)
}

// formats is keyed by lowercase extension. Dispatch is by extension because
// TGA has no magic number.
var formats = map[string]format{
	".png":  {"png", 0, png.DecodeConfig},
	".jpg":  {"jpeg", 0, jpeg.DecodeConfig},
	".jpeg": {"jpeg", 0, jpeg.DecodeConfig},
	".bmp":  {"bmp", 0, bmp.DecodeConfig},
	".webp": {"webp", 0, webp.DecodeConfig},
	".tga":  {"tga", 0, tga.DecodeConfig},
	".ozj":  {"jpeg", 24, jpeg.DecodeConfig}, // MU Online wrapped JPEG
	".ozt":  {"tga", 4, tga.DecodeConfig},    // MU Online wrapped TGA
}

// Supported reports whether the file extension of path can be probed.
func Supported(path string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Probe reads the header of the image at path and returns its dimensions.
func Probe(path string) (Info, error) {
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("texture: read %s: %w", path, err)
	}
	return probe(path, f, raw)
}

// ProbeBytes reads the dimensions of an image held in memory. The format is
// chosen by the extension of name.
func ProbeBytes(name string, raw []byte) (Info, error) {
	f, ok := formats[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return probe(name, f, raw)
}

func probe(path string, f format, raw []byte) (Info, error) {
	if len(raw) <= f.header {
		return Info{}, fmt.Errorf("texture: %s too short", path)
	}

	cfg, err := f.decode(bytes.NewReader(raw[f.header:]))
	if err != nil {
		return Info{}, fmt.Errorf("texture: decode %s: %w", path, err)
	}

	return Info{Path: path, Format: f.name, Width: cfg.Width, Height: cfg.Height}, nil
}

// archiveTextureDir is where RO clients keep model textures.
const archiveTextureDir = "data/texture/"

// Resolver finds image names on disk or in GRF archives and probes them.
type Resolver struct {
	index    *Index
	archives []*grf.Archive
}

// NewResolver indexes the given search directories. Archives are searched
// after the directories, in order.
func NewResolver(dirs []string, archives ...*grf.Archive) *Resolver {
	return &Resolver{index: BuildIndex(dirs), archives: archives}
}

// Lookup resolves an image name and probes the file. A name that is itself
// an existing file path is used directly; otherwise its base name is looked
// up case-insensitively in the search directories. Archives are searched
// for the name under data/texture/, then for the name as given.
func (r *Resolver) Lookup(name string) (Info, error) {
	if name == "" {
		return Info{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	if st, err := os.Stat(name); err == nil && !st.IsDir() {
		return Probe(name)
	}

	if path, ok := r.index.ResolvePath(name); ok {
		return Probe(path)
	}

	for _, a := range r.archives {
		for _, entry := range []string{archiveTextureDir + name, name} {
			if !a.Contains(entry) {
				continue
			}
			raw, err := a.Read(entry)
			if err != nil {
				return Info{}, err
			}
			return ProbeBytes(a.Path()+":"+encoding.NormalizePath(entry), raw)
		}
	}

	return Info{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Len returns the number of indexed images.
func (r *Resolver) Len() int {
	return r.index.Len()
}
