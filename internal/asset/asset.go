// Package asset holds the in-memory asset handles produced by parsing, the
// library that names them, and the collaborator interfaces shared by the
// parse session and the nested parsers.
package asset

import (
	"image"
	"sync"

	"github.com/samcharles93/scenery/pkg/scene"
)

// Kind is the class of handle stored in a library or dependency table.
type Kind uint8

const (
	KindGeometry Kind = iota
	KindMaterial
	KindTexture
	KindEffect
	KindLinkedAsset
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindMaterial:
		return "material"
	case KindTexture:
		return "texture"
	case KindEffect:
		return "effect"
	case KindLinkedAsset:
		return "linked-asset"
	default:
		return "unknown"
	}
}

// VertexAttribute describes one interleaved attribute of a vertex buffer.
type VertexAttribute struct {
	Name   string `msgpack:"name" json:"name"`
	Size   int    `msgpack:"size" json:"size"`
	Offset int    `msgpack:"offset" json:"offset"`
}

type Geometry struct {
	Name        string
	VertexCount int
	VertexSize  int
	Attributes  []VertexAttribute
	Vertices    []float32
	Indices     []uint32

	// Uploaded is set by the geometry's upload job.
	Uploaded bool
}

type Material struct {
	Name       string
	Effect     string
	Properties map[string]any
	Textures   map[string]*Texture
}

type Texture struct {
	Name      string
	Format    string
	Width     int
	Height    int
	MipLevels int

	// Packed textures only load their header eagerly; the payload at
	// PayloadOffset is streamed later.
	Packed        bool
	HeaderSize    int
	PayloadOffset int

	Image image.Image
	Data  []byte
}

// DisposeData releases decoded pixel storage once it has been handed off.
func (t *Texture) DisposeData() {
	if t == nil {
		return
	}
	t.Image = nil
	t.Data = nil
}

// Disposed reports whether DisposeData has run or no data was ever kept.
func (t *Texture) Disposed() bool {
	return t.Image == nil && t.Data == nil
}

// Effect is registered before its source has been loaded. Resolve fills it
// once the queued load completes.
type Effect struct {
	Name string

	mu     sync.Mutex
	source []byte
	loaded bool
}

// Resolve stores the loaded effect source.
func (e *Effect) Resolve(source []byte) {
	e.mu.Lock()
	e.source = source
	e.loaded = true
	e.mu.Unlock()
}

// Loaded reports whether the effect source has arrived.
func (e *Effect) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Source returns the loaded effect source, or nil while pending.
func (e *Effect) Source() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// LinkedAsset points at a byte range of some file. It never holds the
// referenced bytes; a later lazy load fetches them.
type LinkedAsset struct {
	Offset   int32
	Length   int32
	Filename string
	Data     []byte
	LinkType scene.LinkType
}
