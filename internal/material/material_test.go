package material

import (
	"testing"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
)

func TestParseResolvesTextures(t *testing.T) {
	t.Parallel()

	deps := dependency.New()
	wood := &asset.Texture{Name: "wood.png"}
	deps.Register(3, wood)

	data, err := Encode("floor", "phong", map[string]any{"roughness": 0.5}, map[string]dependency.ID{"diffuse": 3, "bump": 4})
	if err != nil {
		t.Fatal(err)
	}

	lib := asset.NewLibrary()
	p := NewParser()
	p.SetDependencies(deps)
	if err := p.Parse("material_1", "levels/material_1", nil, data, lib); err != nil {
		t.Fatal(err)
	}

	m := lib.Material("material_1")
	if m == nil || m.Name != "floor" || m.Effect != "phong" {
		t.Fatalf("unexpected material %+v", m)
	}
	if m.Textures["diffuse"] != wood {
		t.Fatal("diffuse slot not resolved")
	}
	if _, ok := m.Textures["bump"]; ok {
		t.Fatal("unresolved slot should be absent")
	}
	if got := p.Unresolved(); len(got) != 1 || got[0] != "material_1/bump" {
		t.Fatalf("unresolved: %v", got)
	}
	if p.LastParsedAssetName() != "material_1" || p.Jobs().Len() != 0 {
		t.Fatal("unexpected parser state")
	}
}

func TestParseWithoutDependencies(t *testing.T) {
	t.Parallel()

	data, err := Encode("plain", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	lib := asset.NewLibrary()
	if err := NewParser().Parse("", "plain.material", nil, data, lib); err != nil {
		t.Fatal(err)
	}
	m := lib.Material("plain")
	if m == nil || m.Properties == nil || len(m.Textures) != 0 {
		t.Fatalf("unexpected material %+v", m)
	}
}

func TestParseRejectsGeometryContainer(t *testing.T) {
	t.Parallel()

	if err := NewParser().Parse("x", "x", nil, []byte("short"), asset.NewLibrary()); err == nil {
		t.Fatal("expected error")
	}
}
