// Package dependency maps the small integer asset IDs of one container to the
// handles resolved while parsing it.
//
// A Table belongs to a single parse session and is not safe for concurrent
// use. Nested parsers share it by reference. Consumers read it once parsing
// has finished.
package dependency

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/samcharles93/scenery/internal/asset"
)

// ID identifies an asset within one container.
type ID = int32

// Table holds one namespace of IDs per asset kind.
type Table struct {
	geometries map[ID]*asset.Geometry
	materials  map[ID]*asset.Material
	textures   map[ID]*asset.Texture
	effects    map[ID]*asset.Effect
	linked     map[ID]*asset.LinkedAsset
	custom     map[ID]any
}

func New() *Table {
	return &Table{
		geometries: make(map[ID]*asset.Geometry),
		materials:  make(map[ID]*asset.Material),
		textures:   make(map[ID]*asset.Texture),
		effects:    make(map[ID]*asset.Effect),
		linked:     make(map[ID]*asset.LinkedAsset),
		custom:     make(map[ID]any),
	}
}

func (t *Table) GeometryExists(id ID) bool {
	_, ok := t.geometries[id]
	return ok
}

func (t *Table) MaterialExists(id ID) bool {
	_, ok := t.materials[id]
	return ok
}

// TextureExists reports whether id has an entry. The entry may still be nil;
// use TextureResolved to check for a usable handle.
func (t *Table) TextureExists(id ID) bool {
	_, ok := t.textures[id]
	return ok
}

// TextureResolved reports whether id maps to a non-nil texture.
func (t *Table) TextureResolved(id ID) bool {
	return t.textures[id] != nil
}

func (t *Table) EffectExists(id ID) bool {
	_, ok := t.effects[id]
	return ok
}

func (t *Table) LinkedAssetExists(id ID) bool {
	_, ok := t.linked[id]
	return ok
}

func (t *Table) Geometry(id ID) *asset.Geometry       { return t.geometries[id] }
func (t *Table) Material(id ID) *asset.Material       { return t.materials[id] }
func (t *Table) Texture(id ID) *asset.Texture         { return t.textures[id] }
func (t *Table) Effect(id ID) *asset.Effect           { return t.effects[id] }
func (t *Table) LinkedAsset(id ID) *asset.LinkedAsset { return t.linked[id] }

// Custom returns a handle registered by an extension asset function.
func (t *Table) Custom(id ID) (any, bool) {
	v, ok := t.custom[id]
	return v, ok
}

// Register records handle under id in the namespace of its type and reports
// whether the table changed. An ID that already maps to a non-nil handle is
// left untouched. Handles of types other than the built-in asset handles are
// stored in the custom namespace.
func (t *Table) Register(id ID, handle any) bool {
	switch h := handle.(type) {
	case *asset.Geometry:
		return register(t.geometries, id, h)
	case *asset.Material:
		return register(t.materials, id, h)
	case *asset.Texture:
		return register(t.textures, id, h)
	case *asset.Effect:
		return register(t.effects, id, h)
	case *asset.LinkedAsset:
		return register(t.linked, id, h)
	case nil:
		return false
	default:
		if v, ok := t.custom[id]; ok && v != nil {
			return false
		}
		t.custom[id] = h
		return true
	}
}

func register[T any](m map[ID]*T, id ID, h *T) bool {
	if cur, ok := m[id]; ok && cur != nil {
		return false
	}
	m[id] = h
	return true
}

// Len returns the number of entries for a kind.
func (t *Table) Len(k asset.Kind) int {
	switch k {
	case asset.KindGeometry:
		return len(t.geometries)
	case asset.KindMaterial:
		return len(t.materials)
	case asset.KindTexture:
		return len(t.textures)
	case asset.KindEffect:
		return len(t.effects)
	case asset.KindLinkedAsset:
		return len(t.linked)
	default:
		return 0
	}
}

// Total returns the number of entries across all namespaces.
func (t *Table) Total() int {
	return len(t.geometries) + len(t.materials) + len(t.textures) +
		len(t.effects) + len(t.linked) + len(t.custom)
}

// Entry is one row of a Snapshot.
type Entry struct {
	Kind     string `json:"kind"`
	ID       ID     `json:"id"`
	Name     string `json:"name,omitempty"`
	Resolved bool   `json:"resolved"`
	Detail   string `json:"detail,omitempty"`
}

// Snapshot lists every entry ordered by kind then ID.
func (t *Table) Snapshot() []Entry {
	out := make([]Entry, 0, t.Total())
	for id, g := range t.geometries {
		e := Entry{Kind: asset.KindGeometry.String(), ID: id, Resolved: g != nil}
		if g != nil {
			e.Name = g.Name
			e.Detail = fmt.Sprintf("%d vertices, %d indices", g.VertexCount, len(g.Indices))
		}
		out = append(out, e)
	}
	for id, m := range t.materials {
		e := Entry{Kind: asset.KindMaterial.String(), ID: id, Resolved: m != nil}
		if m != nil {
			e.Name = m.Name
			e.Detail = fmt.Sprintf("effect %q, %d textures", m.Effect, len(m.Textures))
		}
		out = append(out, e)
	}
	for id, tex := range t.textures {
		e := Entry{Kind: asset.KindTexture.String(), ID: id, Resolved: tex != nil}
		if tex != nil {
			e.Name = tex.Name
			e.Detail = fmt.Sprintf("%s %dx%d", tex.Format, tex.Width, tex.Height)
		}
		out = append(out, e)
	}
	for id, fx := range t.effects {
		e := Entry{Kind: asset.KindEffect.String(), ID: id, Resolved: fx != nil && fx.Loaded()}
		if fx != nil {
			e.Name = fx.Name
		}
		out = append(out, e)
	}
	for id, l := range t.linked {
		e := Entry{Kind: asset.KindLinkedAsset.String(), ID: id, Resolved: l != nil}
		if l != nil {
			e.Name = l.Filename
			e.Detail = fmt.Sprintf("%s [%d+%d]", l.LinkType, l.Offset, l.Length)
		}
		out = append(out, e)
	}
	for id, v := range t.custom {
		out = append(out, Entry{Kind: "custom", ID: id, Resolved: v != nil, Detail: fmt.Sprintf("%T", v)})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(strings.Compare(a.Kind, b.Kind), cmp.Compare(a.ID, b.ID))
	})
	return out
}
