// Package material reads standalone material assets.
//
// The asset header of a material file is a msgpack map holding the material
// name, its effect, scalar properties and texture slots. Texture slots refer
// to texture IDs of the enclosing container, so the parser resolves them
// through the session's dependency table.
package material

import (
	"fmt"
	"maps"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/pkg/scene"
)

// Header is the msgpack asset header of a material file.
type Header struct {
	Name       string                   `msgpack:"name"`
	Effect     string                   `msgpack:"effect"`
	Properties map[string]any           `msgpack:"properties"`
	Textures   map[string]dependency.ID `msgpack:"textures"`
}

// Parser decodes material files. Texture slots whose ID is not (yet)
// resolved in the dependency table are left out and listed by Unresolved.
type Parser struct {
	deps       *dependency.Table
	jobs       asset.JobList
	last       string
	unresolved []string
}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) SetDependencies(t *dependency.Table) { p.deps = t }
func (p *Parser) Jobs() *asset.JobList                { return &p.jobs }
func (p *Parser) LastParsedAssetName() string         { return p.last }

// Unresolved lists "material/slot" pairs of the last parse whose texture
// could not be found.
func (p *Parser) Unresolved() []string { return p.unresolved }

func (p *Parser) Parse(name, resolvedPath string, _ *asset.Options, data []byte, lib *asset.Library) error {
	_, hdrBytes, _, err := scene.SplitAsset(resolvedPath, data, scene.ExtensionMaterial)
	if err != nil {
		return err
	}
	var h Header
	if err := msgpack.Unmarshal(hdrBytes, &h); err != nil {
		return fmt.Errorf("material %s: decode header: %w", resolvedPath, err)
	}
	if name == "" {
		name = h.Name
	}

	m := &asset.Material{
		Name:       h.Name,
		Effect:     h.Effect,
		Properties: maps.Clone(h.Properties),
		Textures:   make(map[string]*asset.Texture, len(h.Textures)),
	}
	if m.Name == "" {
		m.Name = name
	}
	if m.Properties == nil {
		m.Properties = make(map[string]any)
	}

	p.unresolved = p.unresolved[:0]
	for slot, id := range h.Textures {
		var tex *asset.Texture
		if p.deps != nil {
			tex = p.deps.Texture(id)
		}
		if tex == nil {
			p.unresolved = append(p.unresolved, name+"/"+slot)
			continue
		}
		m.Textures[slot] = tex
	}

	lib.SetMaterial(name, m)
	p.last = name
	return nil
}

// Encode writes a material file. Texture slots are given as container IDs.
func Encode(name, effect string, props map[string]any, textures map[string]dependency.ID) ([]byte, error) {
	hdr, err := msgpack.Marshal(&Header{Name: name, Effect: effect, Properties: props, Textures: textures})
	if err != nil {
		return nil, fmt.Errorf("material %s: encode header: %w", name, err)
	}
	return scene.EncodeAsset(scene.ExtensionMaterial, hdr, nil)
}
