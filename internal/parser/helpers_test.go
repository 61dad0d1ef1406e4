package parser

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/effect"
	"github.com/samcharles93/scenery/internal/geometry"
	"github.com/samcharles93/scenery/internal/loader"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/texture"
	"github.com/samcharles93/scenery/pkg/scene"
)

const scenePath = "levels/main.scene"

type fetchCall struct {
	path string
	r    asset.Range
}

// recordingFetcher remembers every fetch, in order.
type recordingFetcher struct {
	inner loader.Fetcher

	mu    sync.Mutex
	calls []fetchCall
}

func (f *recordingFetcher) Fetch(ctx context.Context, path string, r asset.Range) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{path: path, r: r})
	f.mu.Unlock()
	return f.inner.Fetch(ctx, path, r)
}

func (f *recordingFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

type fixture struct {
	files  *loader.MemoryFetcher
	fetch  *recordingFetcher
	opts   *asset.Options
	lib    *asset.Library
	loader *loader.Loader
	parser *Parser
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	files := loader.NewMemoryFetcher()
	fetch := &recordingFetcher{inner: files}
	opts := texture.Register(effect.Register(asset.DefaultOptions()))
	lib := asset.NewLibrary()
	ld := loader.New(lib, fetch, opts, logger.Discard())
	return &fixture{
		files:  files,
		fetch:  fetch,
		opts:   opts,
		lib:    lib,
		loader: ld,
		parser: New(cfg),
	}
}

func (f *fixture) parse(t *testing.T, data []byte) {
	t.Helper()
	require.NoError(t, f.parser.Parse(scenePath, scenePath, f.opts, data, f.lib))
}

func record(typ scene.AssetType, meta uint16, id int32, payload []byte) scene.Record {
	return scene.Record{TypeAndMeta: scene.EncodeTypeTag(typ, meta), ID: id, Payload: payload}
}

func sceneBytes(t *testing.T, records ...scene.Record) []byte {
	t.Helper()
	w := scene.NewWriter(scene.ExtensionScene)
	for _, r := range records {
		require.NoError(t, w.AddRecord(r))
	}
	w.SetSceneData([]byte("scene-data"))
	b, err := w.Bytes()
	require.NoError(t, err)
	return b
}

func triangle(t *testing.T, name string) []byte {
	t.Helper()
	b, err := geometry.Encode(&asset.Geometry{
		Name:        name,
		VertexCount: 3,
		VertexSize:  3,
		Attributes:  []asset.VertexAttribute{{Name: "position", Size: 3}},
		Vertices:    []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:     []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	return b
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func packedTexture(t *testing.T) ([]byte, uint16) {
	t.Helper()
	b, n, err := texture.EncodePacked(texture.PackHeader{Format: "rgba8", Width: 4, Height: 4, MipLevels: 3}, make([]byte, 64))
	require.NoError(t, err)
	return b, n
}

func codes(errs []*scene.Error) []scene.Code {
	out := make([]scene.Code, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}
