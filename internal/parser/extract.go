package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/pkg/scene"
)

const dependencyParsingMessage = "Error while parsing dependencies"

// ExtractDependencies walks the dependency section starting at dataOffset
// and dispatches every record. A record reaching past the section end, or
// one that can not be decoded, reports DependencyParsingError and stops the
// walk; records already dispatched stay registered. The returned error is
// the reported one.
func (p *Parser) ExtractDependencies(ctx context.Context, lib *asset.Library, data []byte, dataOffset int, dependenciesSize uint32, opts *asset.Options, basePath string) error {
	count, err := scene.ReadUint16(data, dataOffset)
	if err != nil {
		return p.report(scene.CodeDependencyParsingError, dependencyParsingMessage,
			fmt.Errorf("record count at %d: %w", dataOffset, err))
	}

	limit := dataOffset + int(dependenciesSize)
	offset := dataOffset + 2
	for i := range int(count) {
		if offset > limit {
			return p.report(scene.CodeDependencyParsingError, dependencyParsingMessage,
				fmt.Errorf("record %d starts at %d, past section end %d", i, offset, limit))
		}
		size, err := scene.ReadUint32(data, offset)
		if err != nil {
			return p.report(scene.CodeDependencyParsingError, dependencyParsingMessage,
				fmt.Errorf("record %d length at %d: %w", i, offset, err))
		}
		offset += 4

		end := offset + int(size)
		if end > limit || end > len(data) || end < offset {
			return p.report(scene.CodeDependencyParsingError, dependencyParsingMessage,
				fmt.Errorf("record %d of %d bytes at %d overruns section end %d: %w", i, size, offset, limit, scene.ErrShortBuffer))
		}
		rec, err := scene.DecodeRecord(data[offset:end])
		if err != nil {
			return p.report(scene.CodeDependencyParsingError, dependencyParsingMessage,
				fmt.Errorf("record %d: %w", i, err))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.DeserializeAsset(ctx, &rec, lib, opts, basePath)
		offset = end
	}
	return nil
}

// DeserializeAsset resolves one record into the dependency table. Missing
// dependencies are reported and leave the asset unresolved; unknown types
// are ignored. The record payload is released afterwards.
func (p *Parser) DeserializeAsset(ctx context.Context, rec *scene.Record, lib *asset.Library, opts *asset.Options, basePath string) {
	defer rec.Release()

	t, meta := scene.DecodeTypeTag(rec.TypeAndMeta)
	a := assetRecord{
		typ:  t,
		meta: meta,
		id:   rec.ID,
		base: basePath,
		path: basePath,
		data: rec.Payload,
	}
	if t.HasPathPayload() {
		a.resolved = string(rec.Payload)
		a.path = completePath(basePath, a.resolved)
	}
	if opts == nil {
		opts = asset.DefaultOptions()
	}

	switch t {
	case scene.GeometryAsset, scene.EmbedGeometryAsset:
		if p.deps.GeometryExists(a.id) {
			return
		}
		if name, ok := p.runNested(ctx, p.geometry, &a, "geometry_", scene.CodeMissingGeometryDependency, lib, opts); ok {
			p.deps.Register(a.id, lib.Geometry(name))
		}

	case scene.MaterialAsset, scene.EmbedMaterialAsset:
		if p.deps.MaterialExists(a.id) {
			return
		}
		if name, ok := p.runNested(ctx, p.material, &a, "material_", scene.CodeMissingMaterialDependency, lib, opts); ok {
			p.deps.Register(a.id, lib.Material(name))
		}

	case scene.TextureAsset, scene.EmbedTextureAsset:
		if p.deps.TextureResolved(a.id) {
			return
		}
		p.deserializeImageTexture(ctx, &a, lib, opts)

	case scene.EmbedTexturePackAsset:
		if p.deps.TextureResolved(a.id) {
			return
		}
		p.deserializeEmbeddedTexturePack(&a, lib, opts)

	case scene.TexturePackAsset:
		p.deserializeTexture(ctx, a.meta, lib, opts, a.path, a.id)

	case scene.EffectAsset:
		if p.deps.EffectExists(a.id) {
			return
		}
		if l := lib.Loader(); l != nil {
			l.Queue(a.path)
		} else {
			p.log.Warn("no loader to queue effect", "path", a.path)
		}
		p.deps.Register(a.id, lib.EffectPlaceholder(a.path))

	case scene.LinkedAsset:
		p.deserializeLinkedAsset(&a)

	default:
		p.deserializeExtension(&a, lib, opts)
	}
}

// assetRecord is a decoded record with its paths resolved against the
// container folder.
type assetRecord struct {
	typ      scene.AssetType
	meta     scene.Meta
	id       dependency.ID
	base     string
	resolved string
	path     string
	data     []byte
}

// embed names an embedded asset and points its path at that name.
func (a *assetRecord) embed(name string) {
	a.resolved = name
	a.path = completePath(a.base, name)
}

// runNested loads (unless embedded) and parses a geometry or material, then
// takes over the jobs the nested parser produced.
func (p *Parser) runNested(ctx context.Context, np NestedParser, a *assetRecord, prefix string, code scene.Code, lib *asset.Library, opts *asset.Options) (string, bool) {
	data := a.data
	if a.typ.Embedded() {
		a.embed(prefix + strconv.Itoa(int(a.id)))
	} else {
		loaded, err := p.loadBlocking(ctx, lib, a.path, asset.Range{})
		if err != nil {
			p.report(code, a.path, err)
			return "", false
		}
		data = loaded
	}

	np.Jobs().Clear()
	np.SetDependencies(p.deps)
	if err := np.Parse(a.resolved, a.path, opts, data, lib); err != nil {
		p.report(code, a.path, err)
		return "", false
	}
	p.jobs.Splice(np.Jobs())
	return np.LastParsedAssetName(), true
}

// parserFor resolves a parser by extension, preferring the options of the
// library's loader.
func parserFor(lib *asset.Library, opts *asset.Options, ext string) asset.Parser {
	if l := lib.Loader(); l != nil && l.Options() != nil {
		if tp := l.Options().Parser(ext); tp != nil {
			return tp
		}
	}
	return opts.Parser(ext)
}

func (p *Parser) deserializeImageTexture(ctx context.Context, a *assetRecord, lib *asset.Library, opts *asset.Options) {
	data := a.data
	if a.typ == scene.EmbedTextureAsset {
		a.embed(strconv.Itoa(int(a.id)) + "." + a.meta.ImageFormat.Extension())
	} else {
		loaded, err := p.loadBlocking(ctx, lib, a.path, asset.Range{})
		if err != nil {
			p.report(scene.CodeMissingTextureDependency, a.path, err)
			return
		}
		data = loaded
	}

	ext := scene.Extension(a.resolved)
	tp := parserFor(lib, opts, ext)
	if tp == nil {
		p.report(scene.CodeMissingTextureDependency, a.path, fmt.Errorf("%w %q", asset.ErrNoParser, ext))
		return
	}

	name := p.registry.uniqueTextureName(lib, a.resolved)
	if err := tp.Parse(name, a.path, opts, data, lib); err != nil {
		p.report(scene.CodeMissingTextureDependency, a.path, err)
		return
	}
	tex := lib.Texture(name)
	if opts.DisposeTextureAfterLoading {
		tex.DisposeData()
	}
	p.deps.Register(a.id, tex)
}

func (p *Parser) deserializeEmbeddedTexturePack(a *assetRecord, lib *asset.Library, opts *asset.Options) {
	a.embed("texture_" + strconv.Itoa(int(a.id)))
	if lib.Texture(a.resolved) == nil {
		p.texture.SetTextureHeaderSize(int(a.meta.HeaderSize))
		p.texture.SetDataEmbed(true)
		if err := p.texture.Parse(a.resolved, a.path, opts, a.data, lib); err != nil {
			p.report(scene.CodeMissingTextureDependency, a.path, err)
			return
		}
		if opts.DisposeTextureAfterLoading {
			lib.Texture(a.resolved).DisposeData()
		}
	}
	p.deps.Register(a.id, lib.Texture(a.resolved))
}

func (p *Parser) deserializeLinkedAsset(a *assetRecord) {
	tuple, err := scene.DecodeLinkedTuple(a.data)
	if err != nil {
		p.report(scene.CodeDependencyParsingError, fmt.Sprintf("linked asset %d", a.id), err)
		return
	}
	linked := &asset.LinkedAsset{
		Offset:   tuple.Offset,
		Length:   tuple.Length,
		Filename: tuple.Filename,
		Data:     tuple.Data,
		LinkType: tuple.LinkType,
	}
	if tuple.LinkType == scene.LinkInternal {
		linked.Offset += int32(p.InternalContentOffset())
		linked.Filename = completePath(a.base, scene.RemovePrefixPath(p.resolvedFilename))
	}
	p.deps.Register(a.id, linked)
}

func (p *Parser) deserializeExtension(a *assetRecord, lib *asset.Library, opts *asset.Options) {
	f, ok := p.registry.Lookup(a.typ)
	if !ok {
		p.log.Debug("skipping unknown asset type", "type", a.typ.String(), "id", a.id)
		return
	}
	err := f(&AssetRequest{
		Type:    a.typ,
		Meta:    a.meta,
		ID:      a.id,
		Path:    a.path,
		Data:    a.data,
		Library: lib,
		Options: opts,
		Deps:    p.deps,
		Jobs:    &p.jobs,
	})
	if err == nil {
		return
	}
	var se *scene.Error
	if errors.As(err, &se) {
		p.reportError(se)
		return
	}
	p.report(scene.CodeDependencyParsingError, fmt.Sprintf("asset %d of type %s", a.id, a.typ), err)
}
