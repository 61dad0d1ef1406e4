package asset

import (
	"slices"
	"sync"
)

// Library names the assets produced during parsing, one namespace per kind.
// Queued loads complete on worker goroutines, so access is locked.
type Library struct {
	mu         sync.RWMutex
	geometries map[string]*Geometry
	materials  map[string]*Material
	textures   map[string]*Texture
	effects    map[string]*Effect
	loader     Loader
}

func NewLibrary() *Library {
	return &Library{
		geometries: make(map[string]*Geometry),
		materials:  make(map[string]*Material),
		textures:   make(map[string]*Texture),
		effects:    make(map[string]*Effect),
	}
}

// SetLoader attaches the loader used for queued (deferred) loads.
func (l *Library) SetLoader(ld Loader) {
	l.mu.Lock()
	l.loader = ld
	l.mu.Unlock()
}

// Loader returns the attached loader, or nil.
func (l *Library) Loader() Loader {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loader
}

func (l *Library) Geometry(name string) *Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.geometries[name]
}

func (l *Library) SetGeometry(name string, g *Geometry) {
	l.mu.Lock()
	l.geometries[name] = g
	l.mu.Unlock()
}

func (l *Library) Material(name string) *Material {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.materials[name]
}

func (l *Library) SetMaterial(name string, m *Material) {
	l.mu.Lock()
	l.materials[name] = m
	l.mu.Unlock()
}

func (l *Library) Texture(name string) *Texture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.textures[name]
}

func (l *Library) SetTexture(name string, t *Texture) {
	l.mu.Lock()
	l.textures[name] = t
	l.mu.Unlock()
}

// Effect returns the named effect, or nil if it was never requested.
func (l *Library) Effect(name string) *Effect {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.effects[name]
}

// EffectPlaceholder returns the named effect, creating an unloaded
// placeholder when it does not exist yet.
func (l *Library) EffectPlaceholder(name string) *Effect {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.effects[name]; ok {
		return e
	}
	e := &Effect{Name: name}
	l.effects[name] = e
	return e
}

// Names lists the names registered for a kind in sorted order.
func (l *Library) Names(k Kind) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	switch k {
	case KindGeometry:
		out = keys(l.geometries)
	case KindMaterial:
		out = keys(l.materials)
	case KindTexture:
		out = keys(l.textures)
	case KindEffect:
		out = keys(l.effects)
	}
	slices.Sort(out)
	return out
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
