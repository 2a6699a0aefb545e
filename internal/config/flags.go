package config

import (
	"flag"
	"path/filepath"
)

// Flags holds the command-line overrides of one subcommand.
// Only flags given on the command line override the config.
type Flags struct {
	ConfigPath string
	Debug      bool
	Normals    bool
	Tangents   bool
	Skeleton   bool
	Animation  bool
	Textures   string
	Archives   string

	set map[string]bool
}

// Register adds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	def := Default()
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Normals, "normals", def.Export.IncludeNormals, "Write vertex normals")
	fs.BoolVar(&f.Tangents, "tangents", def.Export.IncludeTangents, "Write tangents and binormals")
	fs.BoolVar(&f.Skeleton, "skeleton", def.Export.IncludeSkeleton, "Export skeleton (not supported)")
	fs.BoolVar(&f.Animation, "animation", def.Export.IncludeAnimation, "Export animation (not supported)")
	fs.StringVar(&f.Textures, "textures", "", "Texture search directories, searched before the configured ones")
	fs.StringVar(&f.Archives, "grf", "", "GRF archives to read models and textures from, searched before the configured ones")
}

// Parse parses args with fs and records which flags were given.
func (f *Flags) Parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return nil
}

func (f *Flags) configPath() string {
	if f == nil {
		return ""
	}
	return f.ConfigPath
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.set["normals"] {
		cfg.Export.IncludeNormals = f.Normals
	}
	if f.set["tangents"] {
		cfg.Export.IncludeTangents = f.Tangents
	}
	if f.set["skeleton"] {
		cfg.Export.IncludeSkeleton = f.Skeleton
	}
	if f.set["animation"] {
		cfg.Export.IncludeAnimation = f.Animation
	}
	if f.Textures != "" {
		cfg.Textures.SearchPaths = append(filepath.SplitList(f.Textures), cfg.Textures.SearchPaths...)
	}
	if f.Archives != "" {
		cfg.Textures.Archives = append(filepath.SplitList(f.Archives), cfg.Textures.Archives...)
	}
}
