// Package exporter runs one export: flatten a mesh object, encode it as WMH
// and hand the bytes to a storage sink.
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/wmhtool/internal/config"
	"github.com/Faultbox/wmhtool/internal/logger"
	"github.com/Faultbox/wmhtool/internal/mesh"
	"github.com/Faultbox/wmhtool/internal/storage"
	"github.com/Faultbox/wmhtool/internal/texture"
	"github.com/Faultbox/wmhtool/pkg/grf"
	"github.com/Faultbox/wmhtool/pkg/wmh"
)

// Options selects what an export writes.
type Options struct {
	IncludeNormals   bool
	IncludeTangents  bool
	IncludeSkeleton  bool // accepted and ignored
	IncludeAnimation bool // accepted and ignored
}

// OptionsFromConfig returns the export options configured in c.
func OptionsFromConfig(c config.ExportConfig) Options {
	return Options{
		IncludeNormals:   c.IncludeNormals,
		IncludeTangents:  c.IncludeTangents,
		IncludeSkeleton:  c.IncludeSkeleton,
		IncludeAnimation: c.IncludeAnimation,
	}
}

// Report summarizes a finished export.
type Report struct {
	RunID       string
	Object      string
	Header      wmh.Header
	Image       string        // image identifier written to the file, empty if none
	Texture     *texture.Info // the image on disk, nil if not checked or not found
	Bytes       int64
	Destination string
	ETag        string
}

// SinkOpener returns the sink serving a destination.
type SinkOpener func(ctx context.Context, d storage.Destination) (storage.Sink, error)

// TextureLookup resolves image names on disk or in archives.
type TextureLookup interface {
	Lookup(name string) (texture.Info, error)
}

// Exporter writes mesh objects as WMH files. The zero value is not usable;
// build one with New or fill in Sinks.
type Exporter struct {
	Sinks          SinkOpener
	Textures       TextureLookup // nil skips the texture check
	RequireTexture bool          // fail instead of warn when the image is missing
	DefaultBucket  string        // bucket for s3:/// destinations
	Timeout        time.Duration // bounds object storage uploads; 0 means none
	Log            *zap.Logger   // nil uses the global logger
}

// New builds an exporter from the tool configuration. Textures missing from
// the search paths are looked up in archives.
func New(cfg *config.Config, archives ...*grf.Archive) *Exporter {
	minioCfg := cfg.Storage.MinIO
	textures := texture.NewResolver(cfg.Textures.SearchPaths, archives...)
	logger.Debug("texture index built",
		zap.Strings("search_paths", cfg.Textures.SearchPaths),
		zap.Int("images", textures.Len()),
		zap.Int("archives", len(archives)),
	)

	return &Exporter{
		Sinks: func(ctx context.Context, d storage.Destination) (storage.Sink, error) {
			return storage.Open(ctx, d, minioCfg)
		},
		Textures:       textures,
		RequireTexture: cfg.Textures.Require,
		DefaultBucket:  minioCfg.Bucket,
		Timeout:        cfg.Storage.Timeout,
	}
}

// Export flattens obj, encodes it and stores it at dest, a file path or an
// s3://bucket/key URL. The .wmh extension is appended when missing.
// Nothing is written when flattening, encoding or a required texture check
// fails.
func (e *Exporter) Export(ctx context.Context, obj *mesh.Object, opts Options, dest string) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	if obj != nil {
		report.Object = obj.Name
	}
	log := e.logger().With(zap.String("run_id", report.RunID), zap.String("object", report.Object))

	if opts.IncludeSkeleton {
		log.Warn("skeleton export is not supported, ignoring")
	}
	if opts.IncludeAnimation {
		log.Warn("animation export is not supported, ignoring")
	}

	d, err := storage.ParseDestination(dest, e.DefaultBucket)
	if err != nil {
		return nil, err
	}
	d = d.WithExtension(wmh.Extension)
	report.Destination = d.String()

	res, err := mesh.Flatten(obj, mesh.Options{
		IncludeNormals:  opts.IncludeNormals,
		IncludeTangents: opts.IncludeTangents,
	})
	if err != nil {
		return nil, err
	}
	if opts.IncludeTangents && res.TangentCount() == 0 && res.VertexCount() > 0 {
		log.Warn("mesh has no UV channel, tangents skipped")
	}

	doc, err := res.Document()
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", report.Object, err)
	}
	report.Header = doc.Header
	report.Image = doc.ImageName()

	if err := e.checkTexture(log, report); err != nil {
		return nil, err
	}

	data, err := doc.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}

	if d.IsRemote() && e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	sink, err := e.Sinks(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", d, err)
	}
	info, err := sink.Put(ctx, d.Key, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	report.Bytes = info.Size
	report.ETag = info.ETag
	if info.Location != "" {
		report.Destination = info.Location
	}

	log.Info("export finished",
		zap.Int16("vertices", report.Header.VertexCount),
		zap.Bool("normals", doc.HasNormals()),
		zap.Bool("tangents", doc.HasTangents()),
		zap.String("image", report.Image),
		zap.Int64("bytes", report.Bytes),
		zap.String("dest", report.Destination),
	)
	return report, nil
}

// checkTexture looks up the exported image on disk.
func (e *Exporter) checkTexture(log *zap.Logger, report *Report) error {
	if report.Image == "" || e.Textures == nil {
		return nil
	}

	info, err := e.Textures.Lookup(report.Image)
	if err != nil {
		if e.RequireTexture {
			return fmt.Errorf("image %q: %w", report.Image, err)
		}
		log.Warn("image not found on disk", zap.String("image", report.Image), zap.Error(err))
		return nil
	}

	report.Texture = &info
	log.Debug("image resolved",
		zap.String("path", info.Path),
		zap.String("format", info.Format),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
	)
	return nil
}

func (e *Exporter) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logger.Log
}
