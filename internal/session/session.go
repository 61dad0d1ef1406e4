// Package session runs a complete parse of one scene container: header,
// dependencies, queued effect loads and the resulting job list. The CLI and
// the HTTP service both report through it.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/internal/effect"
	"github.com/samcharles93/scenery/internal/loader"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/parser"
	"github.com/samcharles93/scenery/internal/texture"
	"github.com/samcharles93/scenery/pkg/scene"
)

// Config is shared by every session a caller runs.
type Config struct {
	// Fetcher resolves external dependencies. Nil means every external
	// dependency is missing.
	Fetcher loader.Fetcher

	// Registry carries extension asset types. Nil gets NewRegistry.
	Registry *parser.Registry

	Logger          logger.Logger
	DisposeTextures bool

	// RunJobs executes the job list produced by the parse.
	RunJobs bool
}

// ErrorEntry is one entry of the error channel.
type ErrorEntry struct {
	Code    scene.Code `json:"code"`
	Message string     `json:"message"`
	Cause   string     `json:"cause,omitempty"`
}

// Report summarizes a parse.
type Report struct {
	Name             string             `json:"name"`
	Valid            bool               `json:"valid"`
	Version          string             `json:"version,omitempty"`
	FileSize         uint32             `json:"file_size"`
	HeaderSize       uint16             `json:"header_size"`
	DependenciesSize uint32             `json:"dependencies_size"`
	SceneDataSize    uint32             `json:"scene_data_size"`
	Dependencies     []dependency.Entry `json:"dependencies"`
	Errors           []ErrorEntry       `json:"errors"`
	Jobs             int                `json:"jobs"`
	JobsRun          bool               `json:"jobs_run"`
	Unparsed         []string           `json:"unparsed,omitempty"`
	Duration         time.Duration      `json:"duration_ns"`
}

// NewRegistry returns a registry with the session's default extension
// handlers installed.
func NewRegistry() *parser.Registry {
	r := parser.NewRegistry()
	r.Register(scene.EmbedEffectAsset, embeddedEffect)
	return r
}

// embeddedEffect resolves an effect whose source is stored in the record.
func embeddedEffect(req *parser.AssetRequest) error {
	if req.Deps.EffectExists(req.ID) {
		return nil
	}
	name := fmt.Sprintf("effect_%d", req.ID)
	if err := effect.NewParser().Parse(name, name, req.Options, req.Data, req.Library); err != nil {
		return err
	}
	req.Deps.Register(req.ID, req.Library.Effect(name))
	return nil
}

// Options returns loader options with every reference parser registered.
func Options(cfg Config) *asset.Options {
	opts := texture.Register(effect.Register(asset.DefaultOptions()))
	opts.DisposeTextureAfterLoading = cfg.DisposeTextures
	return opts
}

// Run parses data as the container called name. Relative dependency paths
// resolve against the folder of name. Header failures are returned along
// with a report marked invalid; dependency problems only appear in the
// report.
func Run(ctx context.Context, cfg Config, name string, data []byte) (*Report, error) {
	start := time.Now()
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	lib := asset.NewLibrary()
	opts := Options(cfg)
	ld := loader.New(lib, cfg.Fetcher, opts, log)
	p := parser.New(parser.Config{Registry: reg, Logger: log})

	rep := &Report{Name: name}
	parseErr := p.ParseContext(ctx, name, name, opts, data, lib)
	rep.Errors = errorEntries(p.Errors())
	if parseErr != nil {
		rep.Duration = time.Since(start)
		return rep, parseErr
	}

	h := p.Header()
	rep.Valid = true
	rep.Version = h.Version.String()
	rep.FileSize = h.FileSize
	rep.HeaderSize = h.HeaderSize
	rep.DependenciesSize = h.DependenciesSize
	rep.SceneDataSize = h.SceneDataSize

	if err := ld.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rep, ctxErr
		}
		log.Warn("queued loads failed", "file", name, "error", err)
	}
	rep.Unparsed = slices.Sorted(maps.Keys(ld.Files()))

	rep.Jobs = p.Jobs().Len()
	if cfg.RunJobs && rep.Jobs > 0 {
		if err := p.Jobs().Run(ctx); err != nil {
			return rep, fmt.Errorf("run jobs for %s: %w", name, err)
		}
		rep.JobsRun = true
	}

	rep.Dependencies = p.Dependencies().Snapshot()
	rep.Duration = time.Since(start)
	return rep, nil
}

func errorEntries(errs []*scene.Error) []ErrorEntry {
	out := make([]ErrorEntry, 0, len(errs))
	for _, e := range errs {
		entry := ErrorEntry{Code: e.Code, Message: e.Message}
		if cause := errors.Unwrap(e); cause != nil {
			entry.Cause = cause.Error()
		}
		out = append(out, entry)
	}
	return out
}
