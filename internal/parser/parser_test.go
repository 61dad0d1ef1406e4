package parser

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/internal/geometry"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/material"
	"github.com/samcharles93/scenery/pkg/scene"
)

func TestReadHeaderVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		v     scene.Version
		ok    bool
		warns bool
	}{
		{"exact", scene.Version{Major: 0, Minor: 3, Patch: 1}, true, false},
		{"newer patch", scene.Version{Major: 0, Minor: 3, Patch: 7}, true, true},
		{"older minor", scene.Version{Major: 0, Minor: 2, Patch: 0}, true, true},
		{"older patch", scene.Version{Major: 0, Minor: 3, Patch: 0}, false, false},
		{"newer minor", scene.Version{Major: 0, Minor: 4, Patch: 1}, false, false},
		{"other major", scene.Version{Major: 1, Minor: 3, Patch: 1}, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := scene.NewWriter(scene.ExtensionScene)
			w.SetVersion(tc.v)
			data, err := w.Bytes()
			require.NoError(t, err)

			var logs bytes.Buffer
			var reported []*scene.Error
			p := New(Config{
				Logger:  logger.JSON(&logs, slog.LevelWarn),
				OnError: func(_ *Parser, err *scene.Error) { reported = append(reported, err) },
			})

			require.Equal(t, tc.ok, p.ReadHeader("a.scene", data, scene.ExtensionScene))
			require.Equal(t, tc.warns, bytes.Contains(logs.Bytes(), []byte("scene version differs from reader")))
			if tc.ok {
				require.Empty(t, reported)
				require.Equal(t, uint16(scene.FixedHeaderSize), p.Header().HeaderSize)
				return
			}
			require.Len(t, reported, 1)
			require.Equal(t, scene.CodeInvalidFile, reported[0].Code)
			require.Contains(t, reported[0].Message, "doesn't match serializer version")
			require.Contains(t, reported[0].Message, "v0.3.1")
		})
	}
}

func TestReadHeaderRejectsAnyMagicBitFlip(t *testing.T) {
	t.Parallel()

	data := sceneBytes(t)
	for bit := range 32 {
		corrupt := bytes.Clone(data)
		corrupt[bit/8] ^= 1 << (bit % 8)
		p := New(Config{})
		require.False(t, p.ReadHeader("a.scene", corrupt, scene.ExtensionScene), "bit %d", bit)
		require.ErrorIs(t, p.Errors()[0], scene.ErrInvalidFile)
	}

	p := New(Config{})
	require.False(t, p.ReadHeader("a.scene", data, scene.ExtensionGeometry))
	require.Contains(t, p.Errors()[0].Message, "magic number mismatch")
}

func TestParseStopsOnInvalidHeader(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	data := sceneBytes(t, record(scene.EmbedGeometryAsset, 0, 1, triangle(t, "tri")))
	data[4] = 9

	err := f.parser.Parse(scenePath, scenePath, f.opts, data, f.lib)
	require.ErrorIs(t, err, scene.ErrInvalidFile)
	require.Zero(t, f.parser.Dependencies().Total())
}

type countingNested struct {
	NestedParser
	calls int
}

func (c *countingNested) Parse(name, resolvedPath string, opts *asset.Options, data []byte, lib *asset.Library) error {
	c.calls++
	return c.NestedParser.Parse(name, resolvedPath, opts, data, lib)
}

func TestGeometryRegistrationIsIdempotent(t *testing.T) {
	t.Parallel()

	geo := &countingNested{NestedParser: New(Config{}).geometry}
	f := newFixture(t, Config{Geometry: geo})
	data := sceneBytes(t,
		record(scene.EmbedGeometryAsset, 0, 1, triangle(t, "tri")),
		record(scene.EmbedGeometryAsset, 0, 1, triangle(t, "tri-again")),
	)

	f.parse(t, data)
	f.parse(t, data)

	deps := f.parser.Dependencies()
	require.Equal(t, 1, geo.calls)
	require.Equal(t, 1, deps.Len(asset.KindGeometry))
	require.Same(t, f.lib.Geometry("geometry_1"), deps.Geometry(1))
	require.Equal(t, "tri", deps.Geometry(1).Name)
	require.Empty(t, f.parser.Errors())
}

func TestGeometryJobsAreSpliced(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.files.Put("levels/meshes/crate.geometry", triangle(t, "crate"))
	f.parse(t, sceneBytes(t, record(scene.GeometryAsset, 0, 4, []byte("meshes/crate.geometry"))))

	require.Empty(t, f.parser.Errors())
	require.Equal(t, []fetchCall{{path: "levels/meshes/crate.geometry"}}, f.fetch.Calls())
	require.Zero(t, f.parser.geometry.Jobs().Len())
	require.Equal(t, 1, f.parser.Jobs().Len())

	g := f.parser.Dependencies().Geometry(4)
	require.NotNil(t, g)
	require.Same(t, f.lib.Geometry("meshes/crate.geometry"), g)
	require.False(t, g.Uploaded)
	require.NoError(t, f.parser.Jobs().Run(context.Background()))
	require.True(t, g.Uploaded)
	require.Equal(t, []uint32{0, 1, 2}, g.Indices)
}

func TestMissingDependenciesDoNotStopSiblings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.parse(t, sceneBytes(t,
		record(scene.GeometryAsset, 0, 1, []byte("meshes/missing.geometry")),
		record(scene.MaterialAsset, 0, 2, []byte("materials/missing.material")),
		record(scene.TextureAsset, 0, 3, []byte("textures/missing.png")),
		record(scene.EmbedGeometryAsset, 0, 4, triangle(t, "ok")),
	))

	errs := f.parser.Errors()
	require.Equal(t, []scene.Code{
		scene.CodeMissingGeometryDependency,
		scene.CodeMissingMaterialDependency,
		scene.CodeMissingTextureDependency,
	}, codes(errs))
	require.Equal(t, "levels/meshes/missing.geometry", errs[0].Message)
	require.ErrorIs(t, errs[1], scene.ErrMissingMaterialDependency)

	deps := f.parser.Dependencies()
	require.False(t, deps.GeometryExists(1))
	require.False(t, deps.MaterialExists(2))
	require.False(t, deps.TextureExists(3))
	require.True(t, deps.GeometryExists(4))
}

func TestDependencyOverrun(t *testing.T) {
	t.Parallel()

	recs := []scene.Record{
		record(scene.EmbedGeometryAsset, 0, 1, triangle(t, "a")),
		record(scene.EmbedGeometryAsset, 0, 2, triangle(t, "b")),
		record(scene.EmbedGeometryAsset, 0, 3, triangle(t, "c")),
	}
	first, err := scene.EncodeRecord(recs[0])
	require.NoError(t, err)
	secondLenAt := scene.FixedHeaderSize + 2 + 4 + len(first)

	t.Run("record length", func(t *testing.T) {
		t.Parallel()
		data := sceneBytes(t, recs...)
		n := binary.BigEndian.Uint32(data[secondLenAt:])
		binary.BigEndian.PutUint32(data[secondLenAt:], n+10_000)

		f := newFixture(t, Config{})
		f.parse(t, data)
		assertOverrun(t, f.parser)
	})

	t.Run("section size", func(t *testing.T) {
		t.Parallel()
		data := sceneBytes(t, recs...)
		binary.BigEndian.PutUint32(data[14:], uint32(2+4+len(first)))

		f := newFixture(t, Config{})
		f.parse(t, data)
		assertOverrun(t, f.parser)
	})
}

func assertOverrun(t *testing.T, p *Parser) {
	t.Helper()
	require.Equal(t, []scene.Code{scene.CodeDependencyParsingError}, codes(p.Errors()))
	require.Equal(t, "Error while parsing dependencies", p.Errors()[0].Message)
	require.True(t, p.Dependencies().GeometryExists(1))
	require.False(t, p.Dependencies().GeometryExists(2))
	require.False(t, p.Dependencies().GeometryExists(3))
}

func TestExtractDependenciesAtOffset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	blob, err := scene.EncodeRecord(record(scene.EmbedGeometryAsset, 0, 8, triangle(t, "t")))
	require.NoError(t, err)

	data := []byte("padding!")
	data = binary.BigEndian.AppendUint16(data, 1)
	data = binary.BigEndian.AppendUint32(data, uint32(len(blob)))
	data = append(data, blob...)

	err = f.parser.ExtractDependencies(context.Background(), f.lib, data, 8, uint32(len(data)-8), f.opts, "")
	require.NoError(t, err)
	require.True(t, f.parser.Dependencies().GeometryExists(8))

	err = f.parser.ExtractDependencies(context.Background(), f.lib, data[:9], 8, 1, f.opts, "")
	require.ErrorIs(t, err, scene.ErrDependencyParsing)
}

func TestUnknownTypeIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.parse(t, sceneBytes(t,
		record(scene.AssetType(42), 0x1234, 1, []byte("whatever")),
		record(scene.EmbedEffectAsset, 0, 2, []byte("no handler")),
	))
	require.Zero(t, f.parser.Dependencies().Total())
	require.Empty(t, f.parser.Errors())
	require.Empty(t, f.fetch.Calls())
}

func TestRegistryExtensionTypes(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	var got *AssetRequest
	reg.Register(scene.FirstExtensionAsset, func(req *AssetRequest) error {
		got = req
		req.Deps.Register(req.ID, "light:"+string(req.Data))
		req.Jobs.Push(&asset.Job{Name: "light"})
		return nil
	})
	f := newFixture(t, Config{Registry: reg})
	f.parse(t, sceneBytes(t, record(scene.FirstExtensionAsset, 0x0042, 5, []byte("sun"))))

	require.NotNil(t, got)
	require.Equal(t, uint16(0x42), got.Meta.Raw)
	require.Equal(t, "levels", got.Path)
	v, ok := f.parser.Dependencies().Custom(5)
	require.True(t, ok)
	require.Equal(t, "light:sun", v)
	require.Equal(t, 1, f.parser.Jobs().Len())
	require.Equal(t, []scene.AssetType{scene.FirstExtensionAsset}, reg.Types())

	reg.Register(scene.FirstExtensionAsset, func(*AssetRequest) error { return errors.New("bad light") })
	reg.Register(scene.FirstExtensionAsset+1, func(req *AssetRequest) error {
		return scene.NewError(scene.CodeMissingTextureDependency, "cookie", nil)
	})
	p := New(Config{Registry: reg})
	require.NoError(t, p.Parse(scenePath, scenePath, f.opts, sceneBytes(t,
		record(scene.FirstExtensionAsset, 0, 1, nil),
		record(scene.FirstExtensionAsset+1, 0, 2, nil),
	), f.lib))
	require.Equal(t, []scene.Code{scene.CodeDependencyParsingError, scene.CodeMissingTextureDependency}, codes(p.Errors()))

	reg.Register(scene.FirstExtensionAsset, nil)
	_, ok = reg.Lookup(scene.FirstExtensionAsset)
	require.False(t, ok)
}

func TestLinkedAssets(t *testing.T) {
	t.Parallel()

	internal, err := scene.EncodeLinkedTuple(scene.LinkedTuple{Offset: 5, Length: 3, Filename: "ignored.bin", LinkType: scene.LinkInternal})
	require.NoError(t, err)
	external, err := scene.EncodeLinkedTuple(scene.LinkedTuple{Offset: 128, Length: 64, Filename: "streams/anim.bin", Data: []byte{1, 2}, LinkType: scene.LinkExternal})
	require.NoError(t, err)

	w := scene.NewWriter(scene.ExtensionScene)
	require.NoError(t, w.AddRecord(record(scene.LinkedAsset, 0, 1, internal)))
	require.NoError(t, w.AddRecord(record(scene.LinkedAsset, 0, 2, external)))
	w.SetSceneData([]byte("nodes"))
	linked := []byte("0123456789")
	w.AddLinkedContent(linked)
	data, err := w.Bytes()
	require.NoError(t, err)

	f := newFixture(t, Config{})
	f.parse(t, data)
	require.Empty(t, f.parser.Errors())

	base := len(data) - len(linked)
	require.Equal(t, base, f.parser.InternalContentOffset())

	in := f.parser.Dependencies().LinkedAsset(1)
	require.Equal(t, &asset.LinkedAsset{
		Offset:   int32(5 + base),
		Length:   3,
		Filename: scenePath,
		LinkType: scene.LinkInternal,
	}, in)
	require.Equal(t, "567", string(data[in.Offset:in.Offset+in.Length]))

	ex := f.parser.Dependencies().LinkedAsset(2)
	require.Equal(t, &asset.LinkedAsset{
		Offset:   128,
		Length:   64,
		Filename: "streams/anim.bin",
		Data:     []byte{1, 2},
		LinkType: scene.LinkExternal,
	}, ex)
	require.Equal(t, []byte("nodes"), f.parser.SceneData())
	require.Empty(t, f.fetch.Calls())
}

func TestEffectsAreQueued(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.files.Put("levels/fx/basic.effect", []byte(`{"name":"basic"}`))
	f.parse(t, sceneBytes(t,
		record(scene.EffectAsset, 0, 1, []byte("fx/basic.effect")),
		record(scene.EffectAsset, 0, 1, []byte("fx/other.effect")),
	))

	fx := f.parser.Dependencies().Effect(1)
	require.NotNil(t, fx)
	require.Equal(t, "levels/fx/basic.effect", fx.Name)
	require.False(t, fx.Loaded())
	require.Equal(t, []string{"levels/fx/basic.effect"}, f.loader.Pending())

	require.NoError(t, f.loader.Wait(context.Background()))
	require.True(t, fx.Loaded())
	require.Equal(t, `{"name":"basic"}`, string(fx.Source()))
}

func TestMaterialResolvesTextureSlots(t *testing.T) {
	t.Parallel()

	mat, err := material.Encode("brick", "phong", map[string]any{"shininess": 8}, map[string]dependency.ID{"diffuse": 1, "normal": 9})
	require.NoError(t, err)

	f := newFixture(t, Config{})
	f.parse(t, sceneBytes(t,
		record(scene.EmbedTextureAsset, uint16(scene.ImageFormatSource), 1, pngBytes(t, 2, 2)),
		record(scene.EmbedMaterialAsset, 0, 2, mat),
	))
	require.Empty(t, f.parser.Errors())

	deps := f.parser.Dependencies()
	m := deps.Material(2)
	require.NotNil(t, m)
	require.Same(t, f.lib.Material("material_2"), m)
	require.Equal(t, "brick", m.Name)
	require.Equal(t, "phong", m.Effect)
	require.Contains(t, m.Properties, "shininess")
	require.Same(t, deps.Texture(1), m.Textures["diffuse"])
	require.NotContains(t, m.Textures, "normal")
	require.Equal(t, []string{"material_2/normal"}, f.parser.material.(*material.Parser).Unresolved())
}

func TestFactoryIsRegisteredAsSceneParser(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	reg := NewRegistry()
	f.opts.RegisterParser(Extension, Factory(Config{Registry: reg}))

	p1 := f.opts.Parser("scene").(*Parser)
	p2 := f.opts.Parser("SCENE").(*Parser)
	require.NotSame(t, p1, p2)
	require.Same(t, reg, p1.Registry())
	require.Same(t, p1.Registry(), p2.Registry())
	require.NotSame(t, p1.Dependencies(), p2.Dependencies())
}

func TestOversizedEmbeddedGeometryIsReported(t *testing.T) {
	t.Parallel()

	hdr, err := msgpack.Marshal(&geometry.Header{Name: "huge", VertexCount: 1 << 31, VertexSize: 1 << 31})
	require.NoError(t, err)
	huge, err := scene.EncodeAsset(scene.ExtensionGeometry, hdr, nil)
	require.NoError(t, err)

	f := newFixture(t, Config{})
	f.parse(t, sceneBytes(t,
		record(scene.EmbedGeometryAsset, 0, 1, huge),
		record(scene.EmbedGeometryAsset, 0, 2, triangle(t, "tri")),
	))

	errs := f.parser.Errors()
	require.Equal(t, []scene.Code{scene.CodeMissingGeometryDependency}, codes(errs))
	require.ErrorIs(t, errs[0], scene.ErrShortBuffer)
	require.False(t, f.parser.Dependencies().GeometryExists(1))
	require.True(t, f.parser.Dependencies().GeometryExists(2))
}
