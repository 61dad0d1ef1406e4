package parser

import (
	"slices"
	"strconv"
	"sync"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/pkg/scene"
)

// AssetRequest is everything an extension asset function receives for one
// record.
type AssetRequest struct {
	Type    scene.AssetType
	Meta    scene.Meta
	ID      dependency.ID
	Path    string
	Data    []byte
	Library *asset.Library
	Options *asset.Options
	Deps    *dependency.Table
	Jobs    *asset.JobList
}

// AssetFunc deserializes a record of a plugin-defined asset type. Returning
// a *scene.Error reports it with its own code; other errors are reported as
// DependencyParsingError.
type AssetFunc func(req *AssetRequest) error

// Registry maps extension asset types to their functions. It also owns the
// counter used to derive unique texture names. A registry may be shared by
// several parsers.
type Registry struct {
	mu     sync.RWMutex
	funcs  map[scene.AssetType]AssetFunc
	nameID int
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[scene.AssetType]AssetFunc)}
}

// Register installs f for t, replacing any previous function.
func (r *Registry) Register(t scene.AssetType, f AssetFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f == nil {
		delete(r.funcs, t)
		return
	}
	r.funcs[t] = f
}

// Lookup returns the function registered for t.
func (r *Registry) Lookup(t scene.AssetType) (AssetFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[t]
	return f, ok
}

// Types lists the registered types in ascending order.
func (r *Registry) Types() []scene.AssetType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]scene.AssetType, 0, len(r.funcs))
	for t := range r.funcs {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// uniqueTextureName returns name, or the first "texture<n>" not used in lib
// if name is taken.
func (r *Registry) uniqueTextureName(lib *asset.Library, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for lib.Texture(name) != nil {
		name = "texture" + strconv.Itoa(r.nameID)
		r.nameID++
	}
	return name
}
