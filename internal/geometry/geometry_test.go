package geometry

import (
	"context"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/pkg/scene"
)

func quad() *asset.Geometry {
	return &asset.Geometry{
		Name:        "quad",
		VertexCount: 4,
		VertexSize:  2,
		Attributes:  []asset.VertexAttribute{{Name: "uv", Size: 2}},
		Vertices:    []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Indices:     []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestParseEncoded(t *testing.T) {
	t.Parallel()

	data, err := Encode(quad())
	if err != nil {
		t.Fatal(err)
	}
	lib := asset.NewLibrary()
	p := NewParser()
	if err := p.Parse("", "meshes/quad.geometry", nil, data, lib); err != nil {
		t.Fatal(err)
	}
	if p.LastParsedAssetName() != "quad" {
		t.Fatalf("last parsed %q", p.LastParsedAssetName())
	}
	g := lib.Geometry("quad")
	if g == nil || g.VertexCount != 4 || len(g.Vertices) != 8 || g.Vertices[5] != 1 || len(g.Indices) != 6 {
		t.Fatalf("unexpected geometry %+v", g)
	}
	if g.Attributes[0].Name != "uv" {
		t.Fatalf("attributes %+v", g.Attributes)
	}

	if p.Jobs().Len() != 1 {
		t.Fatalf("jobs: %d", p.Jobs().Len())
	}
	if err := p.Jobs().Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !g.Uploaded {
		t.Fatal("upload job did not run")
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	data, err := Encode(quad())
	if err != nil {
		t.Fatal(err)
	}

	bad := quad()
	bad.Indices = []uint32{0, 9, 1}
	badIndex, err := Encode(bad)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
		is   error
	}{
		{"truncated payload", data[:len(data)-4], scene.ErrShortBuffer},
		{"not a geometry", append([]byte{0, 0, 0, 0}, data[4:]...), scene.ErrInvalidFile},
		{"index out of range", badIndex, nil},
	}
	for _, tc := range tests {
		err := NewParser().Parse("q", "q.geometry", nil, tc.data, asset.NewLibrary())
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if tc.is != nil && !errors.Is(err, tc.is) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.is, err)
		}
	}
}

func TestParseRejectsOversizedCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hdr  Header
	}{
		{"vertex product wraps", Header{VertexCount: 1 << 31, VertexSize: 1 << 31}},
		{"vertices past payload", Header{VertexCount: 3, VertexSize: 1}},
		{"indices past payload", Header{IndexCount: 1 << 40}},
		{"indices and vertices wrap", Header{VertexCount: 1 << 62, VertexSize: 1, IndexCount: 1 << 62}},
	}
	for _, tc := range tests {
		hdr, err := msgpack.Marshal(&tc.hdr)
		if err != nil {
			t.Fatal(err)
		}
		data, err := scene.EncodeAsset(scene.ExtensionGeometry, hdr, make([]byte, 8))
		if err != nil {
			t.Fatal(err)
		}
		lib := asset.NewLibrary()
		err = NewParser().Parse("huge", "huge.geometry", nil, data, lib)
		if !errors.Is(err, scene.ErrShortBuffer) {
			t.Errorf("%s: expected ErrShortBuffer, got %v", tc.name, err)
		}
		if lib.Geometry("huge") != nil {
			t.Errorf("%s: geometry registered", tc.name)
		}
	}
}

func TestEncodeRejectsMismatchedBuffer(t *testing.T) {
	t.Parallel()

	g := quad()
	g.Vertices = g.Vertices[:7]
	if _, err := Encode(g); err == nil {
		t.Fatal("expected error")
	}
}
