package effect

import (
	"testing"

	"github.com/samcharles93/scenery/internal/asset"
)

func TestParseResolvesPlaceholder(t *testing.T) {
	t.Parallel()

	lib := asset.NewLibrary()
	fx := lib.EffectPlaceholder("fx/basic.effect")
	if fx.Loaded() {
		t.Fatal("placeholder should start unloaded")
	}
	opts := Register(asset.DefaultOptions())
	p := opts.Parser("effect")
	if p == nil {
		t.Fatal("effect parser not registered")
	}
	if err := p.Parse("fx/basic.effect", "fx/basic.effect", opts, []byte("technique {}"), lib); err != nil {
		t.Fatal(err)
	}
	if !fx.Loaded() || string(fx.Source()) != "technique {}" {
		t.Fatal("placeholder not resolved")
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	t.Parallel()

	lib := asset.NewLibrary()
	if err := NewParser().Parse("e", "e.effect", nil, []byte(" \n"), lib); err == nil {
		t.Fatal("expected error")
	}
	if lib.Effect("e") != nil {
		t.Fatal("effect created on failure")
	}
}
