package parser

import (
	"context"
	"fmt"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/internal/texture"
	"github.com/samcharles93/scenery/pkg/scene"
)

// deserializeTexture resolves an external packed texture. Only the texture
// header is loaded: when the record does not carry the header size, a probe
// of the fixed asset header is loaded first to read it. Either load failing
// reports MissingTextureDependency and registers nothing.
func (p *Parser) deserializeTexture(ctx context.Context, meta scene.Meta, lib *asset.Library, opts *asset.Options, path string, id dependency.ID) {
	if existing := lib.Texture(path); existing != nil {
		p.deps.Register(id, existing)
		return
	}

	headerSize := int(meta.HeaderSize)
	if !meta.HeaderSizeKnown {
		probe, err := p.loadBlocking(ctx, lib, path, asset.Range{Length: scene.AssetHeaderSize})
		if err != nil {
			p.report(scene.CodeMissingTextureDependency, path, err)
			return
		}
		n, err := scene.AssetHeaderLength(probe)
		if err != nil {
			p.report(scene.CodeMissingTextureDependency, path, err)
			return
		}
		headerSize = int(n)
	}

	texOpts := opts.Clone().WithRange(asset.Range{Length: int64(scene.AssetHeaderSize + headerSize)})
	texOpts.LoadAsynchronously = false
	texOpts.StoreDataIfNotParsed = false
	texOpts.ParserFunc = func(ext string) asset.Parser {
		if ext != texture.PackedExtension {
			return nil
		}
		tp := texture.NewPackedParser()
		tp.SetTextureHeaderSize(headerSize)
		tp.SetDataEmbed(false)
		return tp
	}

	data, err := p.loadBlocking(ctx, lib, path, texOpts.Range())
	if err != nil {
		p.report(scene.CodeMissingTextureDependency, path, err)
		return
	}
	tp := texOpts.Parser(scene.Extension(path))
	if tp == nil {
		p.report(scene.CodeMissingTextureDependency, path,
			fmt.Errorf("%w %q", asset.ErrNoParser, scene.Extension(path)))
		return
	}
	if err := tp.Parse(path, path, texOpts, data, lib); err != nil {
		p.report(scene.CodeMissingTextureDependency, path, err)
		return
	}

	tex := lib.Texture(path)
	if texOpts.DisposeTextureAfterLoading {
		tex.DisposeData()
	}
	p.deps.Register(id, tex)
}
