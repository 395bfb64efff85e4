// Package app wires the loaders, the schema registry, and the build core
// into the command-line compile flow: load a source file, build the
// registered schema, write the bytes out.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/baf"
	"github.com/specialistvlad/baf/internal/ctxlog"
	"github.com/specialistvlad/baf/internal/registry"
)

// App is one configured compile run.
type App struct {
	out io.Writer
	cfg *Config
	reg *registry.Registry
}

// NewApp creates an App writing its primary output to outW and resolving
// schemas against reg.
func NewApp(outW io.Writer, cfg *Config, reg *registry.Registry) *App {
	return &App{out: outW, cfg: cfg, reg: reg}
}

// Run performs the compile: load, build, emit. Log output goes to stderr so
// raw bytes can stream to stdout when no output path is set.
func (a *App) Run(ctx context.Context) error {
	logger := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, os.Stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	model, ok := a.reg.Lookup(a.cfg.Schema)
	if !ok {
		names := a.reg.Names()
		if len(names) == 0 {
			return fmt.Errorf("unknown schema %q: no schemas are registered", a.cfg.Schema)
		}
		return fmt.Errorf("unknown schema %q, registered schemas: %s", a.cfg.Schema, strings.Join(names, ", "))
	}

	format := a.cfg.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(a.cfg.InputPath), ".")
	}
	logger.Debug("Loading source file.", "path", a.cfg.InputPath, "format", format, "schema", a.cfg.Schema)

	var (
		datum baf.Datum
		err   error
	)
	switch format {
	case "toml":
		datum, err = baf.BuildTOML(ctx, model, a.cfg.InputPath)
	case "json":
		datum, err = baf.BuildJSON(ctx, model, a.cfg.InputPath)
	case "hcl":
		datum, err = baf.BuildHCL(ctx, model, a.cfg.InputPath)
	default:
		return fmt.Errorf("unsupported input format %q, expected toml, json, or hcl", format)
	}
	if err != nil {
		return err
	}

	data, err := datum.Bytes()
	if err != nil {
		return err
	}

	if a.cfg.Visualize {
		fmt.Fprint(a.out, baf.Visualize(datum))
	}
	if a.cfg.OutPath != "" {
		if err := os.WriteFile(a.cfg.OutPath, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", a.cfg.OutPath, err)
		}
		logger.Info("Wrote output file.", "path", a.cfg.OutPath, "bytes", len(data))
		return nil
	}
	if !a.cfg.Visualize {
		if _, err := a.out.Write(data); err != nil {
			return err
		}
	}
	return nil
}
