// Package parser implements the scene parse session: header validation,
// dependency extraction and per-type asset dispatch.
//
// A Parser is single-goroutine. It owns its dependency table, job list and
// nested parsers; loads of referenced files go through asset.Loader's
// blocking call. Failures are reported on the error channel (Config.OnError
// and Errors) instead of aborting the parse, except for header errors, which
// stop it.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/internal/geometry"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/material"
	"github.com/samcharles93/scenery/internal/texture"
	"github.com/samcharles93/scenery/pkg/scene"
)

// Extension of scene containers.
const Extension = "scene"

// NestedParser is a geometry or material parser driven by the session. It
// is reset before each use: its jobs are cleared and the session's
// dependency table is handed to it.
type NestedParser interface {
	asset.Parser
	LastParsedAssetName() string
	Jobs() *asset.JobList
	SetDependencies(*dependency.Table)
}

// PackedTextureParser reads packed texture assets.
type PackedTextureParser interface {
	asset.Parser
	SetTextureHeaderSize(n int)
	SetDataEmbed(embed bool)
}

// ErrorFunc receives every error reported during a parse.
type ErrorFunc func(p *Parser, err *scene.Error)

// Config configures a Parser. Zero fields get defaults.
type Config struct {
	Registry *Registry
	Logger   logger.Logger
	OnError  ErrorFunc

	// Loader overrides the library's loader for blocking loads.
	Loader asset.Loader

	Geometry NestedParser
	Material NestedParser
	Texture  PackedTextureParser

	// Dependencies lets a caller share a table across parsers.
	Dependencies *dependency.Table
}

type Parser struct {
	registry *Registry
	log      logger.Logger
	onError  ErrorFunc
	loader   asset.Loader

	geometry NestedParser
	material NestedParser
	texture  PackedTextureParser

	deps *dependency.Table
	jobs asset.JobList
	errs []*scene.Error

	filename         string
	resolvedFilename string
	header           scene.Header
	sceneData        []byte
	last             string
}

func New(cfg Config) *Parser {
	p := &Parser{
		registry: cfg.Registry,
		log:      cfg.Logger,
		onError:  cfg.OnError,
		loader:   cfg.Loader,
		geometry: cfg.Geometry,
		material: cfg.Material,
		texture:  cfg.Texture,
		deps:     cfg.Dependencies,
	}
	if p.registry == nil {
		p.registry = NewRegistry()
	}
	if p.log == nil {
		p.log = logger.Discard()
	}
	p.log = p.log.With("component", "parser")
	if p.geometry == nil {
		p.geometry = geometry.NewParser()
	}
	if p.material == nil {
		p.material = material.NewParser()
	}
	if p.texture == nil {
		p.texture = texture.NewPackedParser()
	}
	if p.deps == nil {
		p.deps = dependency.New()
	}
	return p
}

// Factory returns an asset.ParserFactory creating session parsers that share
// cfg, including its registry.
func Factory(cfg Config) asset.ParserFactory {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	return func() asset.Parser {
		c := cfg
		c.Dependencies = nil
		return New(c)
	}
}

func (p *Parser) Registry() *Registry                { return p.registry }
func (p *Parser) Dependencies() *dependency.Table    { return p.deps }
func (p *Parser) Jobs() *asset.JobList               { return &p.jobs }
func (p *Parser) Header() scene.Header               { return p.header }
func (p *Parser) SceneData() []byte                  { return p.sceneData }
func (p *Parser) SetDependencies(t *dependency.Table) { p.deps = t }

// LastParsedAssetName is the name of the last container parsed.
func (p *Parser) LastParsedAssetName() string { return p.last }

// Errors returns the errors reported so far, in order.
func (p *Parser) Errors() []*scene.Error { return p.errs }

func (p *Parser) report(code scene.Code, message string, cause error) *scene.Error {
	err := scene.NewError(code, message, cause)
	p.reportError(err)
	return err
}

func (p *Parser) reportError(err *scene.Error) {
	p.errs = append(p.errs, err)
	p.log.Warn("parse error", "code", string(err.Code), "message", err.Message, "file", p.filename)
	if p.onError != nil {
		p.onError(p, err)
	}
}

// ReadHeader validates the container header of data and keeps its section
// sizes. It reports InvalidFile and returns false on failure. Readable files
// of a different minor or patch version are accepted with a warning.
func (p *Parser) ReadHeader(filename string, data []byte, extensionTag int) bool {
	h, err := scene.ReadHeader(filename, data, extensionTag)
	if err != nil {
		var se *scene.Error
		if errors.As(err, &se) {
			p.reportError(se)
		} else {
			p.report(scene.CodeInvalidFile, err.Error(), err)
		}
		return false
	}
	if !h.Version.Exact() {
		p.log.Warn("scene version differs from reader",
			"file", filename, "version", h.Version.String(), "reader", scene.CurrentVersion().String())
	}
	p.header = h
	return true
}

// InternalContentOffset is where the linked content of the current
// container starts, relative to the start of the file.
func (p *Parser) InternalContentOffset() int {
	return p.header.LinkedContentOffset()
}

// Parse reads a scene container: its header, its dependency section and the
// scene data that follows. Only header failures are returned; dependency
// problems go to the error channel.
func (p *Parser) Parse(name, resolvedPath string, opts *asset.Options, data []byte, lib *asset.Library) error {
	return p.ParseContext(context.Background(), name, resolvedPath, opts, data, lib)
}

// ParseContext is Parse with a context for blocking loads.
func (p *Parser) ParseContext(ctx context.Context, name, resolvedPath string, opts *asset.Options, data []byte, lib *asset.Library) error {
	p.filename = name
	p.resolvedFilename = resolvedPath
	if opts == nil {
		opts = asset.DefaultOptions()
	}

	if !p.ReadHeader(name, data, scene.ExtensionScene) {
		return p.errs[len(p.errs)-1]
	}
	if int(p.header.FileSize) > len(data) {
		p.log.Debug("container shorter than declared", "file", name, "declared", p.header.FileSize, "have", len(data))
	}

	p.log.Debug("parsing scene", "file", name, "version", p.header.Version.String(),
		"dependencies_size", p.header.DependenciesSize, "scene_data_size", p.header.SceneDataSize)

	if p.header.DependenciesSize > 0 {
		if err := p.ExtractDependencies(ctx, lib, data, p.header.DependenciesOffset(), p.header.DependenciesSize, opts, folderOf(resolvedPath)); err != nil {
			p.log.Debug("dependency extraction stopped", "file", name, "error", err)
		}
	}

	start, end := p.header.SceneDataOffset(), p.header.LinkedContentOffset()
	if start <= len(data) && end <= len(data) {
		p.sceneData = data[start:end]
	} else {
		p.sceneData = nil
	}
	p.last = name
	return nil
}

// folderOf returns the directory part of path, or "" if it has none.
func folderOf(path string) string {
	if !strings.ContainsAny(path, "/\\") {
		return ""
	}
	return scene.ExtractFolderPath(path)
}

// completePath joins an asset path to the folder of the container.
func completePath(basePath, path string) string {
	if basePath == "" {
		return path
	}
	return basePath + "/" + path
}

func (p *Parser) loaderFor(lib *asset.Library) asset.Loader {
	if p.loader != nil {
		return p.loader
	}
	if lib != nil {
		return lib.Loader()
	}
	return nil
}

// loadBlocking fetches a file window through the loader.
func (p *Parser) loadBlocking(ctx context.Context, lib *asset.Library, path string, r asset.Range) ([]byte, error) {
	l := p.loaderFor(lib)
	if l == nil {
		return nil, fmt.Errorf("load %s: no loader", path)
	}
	return l.LoadBlocking(ctx, path, r)
}
