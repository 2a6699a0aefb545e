// wmhtool converts polygon meshes into .wmh vertex streams.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/wmhtool/internal/config"
	"github.com/Faultbox/wmhtool/internal/exporter"
	"github.com/Faultbox/wmhtool/internal/importer"
	"github.com/Faultbox/wmhtool/internal/logger"
	"github.com/Faultbox/wmhtool/pkg/grf"
	"github.com/Faultbox/wmhtool/pkg/wmh"
)

// errUsage is returned after usage has been printed.
var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "export", "x":
		err = cmdExport(ctx, args, os.Stdout)
	case "inspect", "info":
		err = cmdInspect(args, os.Stdout)
	case "models", "ls":
		err = cmdModels(args, os.Stdout)
	case "config":
		err = cmdConfig(args, os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `wmhtool - polygon mesh to .wmh converter

Usage:
  wmhtool <command> [options]

Commands:
  export [flags] <input> <output>    Convert an .obj or .rsm model to .wmh
  inspect [-n N] <file.wmh>          Show header, image and first vertices
  models [-n N] <file.grf> [pattern] List the models stored in a GRF archive
  config [-config path] [-save path] Print or save the effective configuration

Export flags:
  -normals      Write vertex normals (default true)
  -tangents     Write tangents and binormals
  -skeleton     Accepted, not supported
  -animation    Accepted, not supported
  -textures     Extra texture search directories
  -grf          GRF archives to read models and textures from
  -config       Path to config file
  -debug        Enable debug logging

Output may be a file path or s3://bucket/key; .wmh is appended when missing.

Examples:
  wmhtool export -tangents models/crate.obj out/crate.wmh
  wmhtool export data/model/sign.rsm s3://models/props/sign
  wmhtool export -grf data.grf data/model/prontera/fountain.rsm out/fountain
  wmhtool inspect out/crate.wmh`)
}

func cmdExport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var flags config.Flags
	flags.Register(fs)
	if err := flags.Parse(fs, args); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: wmhtool export [flags] <input.obj|input.rsm> <output.wmh|s3://bucket/key>")
		return errUsage
	}
	input, output := fs.Arg(0), fs.Arg(1)

	cfg, err := config.Load(&flags)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	archives, err := openArchives(cfg.Textures.Archives)
	if err != nil {
		return err
	}
	defer closeArchives(archives)

	obj, err := importer.LoadWithArchives(input, archives)
	if err != nil {
		return err
	}
	logger.Debug("model imported",
		zap.String("input", input),
		zap.String("object", obj.Name),
		zap.Int("vertices", len(obj.Mesh.Vertices)),
		zap.Int("faces", len(obj.Mesh.Faces)),
	)

	report, err := exporter.New(cfg, archives...).Export(ctx, obj, exporter.OptionsFromConfig(cfg.Export), output)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Exported %q to %s\n", report.Object, report.Destination)
	fmt.Fprintf(out, "  %s\n", report.Header)
	if report.Image != "" {
		fmt.Fprintf(out, "  image: %s\n", report.Image)
	}
	fmt.Fprintf(out, "  bytes: %d\n", report.Bytes)
	return nil
}

func cmdInspect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	limit := fs.Int("n", 5, "Number of vertices to print (0 = none, -1 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: wmhtool inspect [-n N] <file.wmh>")
		return errUsage
	}

	doc, err := wmh.ParseFile(fs.Arg(0))
	if err != nil {
		return err
	}

	h := doc.Header
	fmt.Fprintf(out, "File:      %s\n", fs.Arg(0))
	fmt.Fprintf(out, "Version:   %d\n", h.Version)
	fmt.Fprintf(out, "Vertices:  %d (%d triangles)\n", h.VertexCount, h.VertexCount/3)
	fmt.Fprintf(out, "Indices:   %d\n", h.IndexCount)
	fmt.Fprintf(out, "Normals:   %d\n", h.NormalCount)
	fmt.Fprintf(out, "Tangents:  %d\n", h.TangentCount)
	fmt.Fprintf(out, "Binormals: %d\n", h.BinormalCount)
	if name := doc.ImageName(); name != "" {
		fmt.Fprintf(out, "Image:     %s\n", name)
	} else {
		fmt.Fprintln(out, "Image:     (none)")
	}
	fmt.Fprintf(out, "Size:      %d bytes\n", doc.Size())

	n := len(doc.Vertices)
	if *limit >= 0 && *limit < n {
		n = *limit
	}
	if n == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Vertices:")
	for i, v := range doc.Vertices[:n] {
		fmt.Fprintf(out, "  %4d pos=%v uv=%v", i, v.Position, v.UV)
		if doc.HasNormals() {
			fmt.Fprintf(out, " n=%v", v.Normal)
		}
		if doc.HasTangents() {
			fmt.Fprintf(out, " t=%v", v.Tangent)
		}
		if doc.HasBinormals() {
			fmt.Fprintf(out, " b=%v", v.Binormal)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func cmdModels(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	limit := fs.Int("n", 0, "Limit output to N models (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wmhtool models [-n N] <file.grf> [pattern]")
		return errUsage
	}

	archive, err := grf.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, f := range archive.List() {
		if ext := filepath.Ext(f); ext != ".rsm" && ext != ".obj" {
			continue
		}
		if pattern != "" {
			matched, _ := filepath.Match(pattern, filepath.Base(f))
			if !matched && !strings.Contains(f, pattern) {
				continue
			}
		}
		fmt.Fprintln(out, f)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	fmt.Fprintf(out, "(%d models)\n", count)
	return nil
}

// openArchives opens every GRF archive in paths, in order.
func openArchives(paths []string) ([]*grf.Archive, error) {
	archives := make([]*grf.Archive, 0, len(paths))
	for _, path := range paths {
		a, err := grf.Open(path)
		if err != nil {
			closeArchives(archives)
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("archive opened", zap.String("path", path), zap.Int("files", a.Len()))
		archives = append(archives, a)
	}
	return archives, nil
}

func closeArchives(archives []*grf.Archive) {
	for _, a := range archives {
		a.Close()
	}
}

func cmdConfig(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var flags config.Flags
	flags.Register(fs)
	savePath := fs.String("save", "", "Write the effective config to this path")
	if err := flags.Parse(fs, args); err != nil {
		return err
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return err
	}

	if *savePath != "" {
		if err := cfg.SaveTo(*savePath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Saved config to %s\n", *savePath)
		return nil
	}

	if cfg.Storage.MinIO.SecretKey != "" {
		cfg.Storage.MinIO.SecretKey = "********"
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
