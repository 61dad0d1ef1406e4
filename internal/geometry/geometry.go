// Package geometry reads standalone geometry assets.
//
// A geometry file is a container with extension tag ExtensionGeometry. Its
// asset header is a msgpack map describing the vertex layout; the payload is
// the big-endian float32 vertex buffer followed by the uint32 index buffer.
package geometry

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/dependency"
	"github.com/samcharles93/scenery/pkg/scene"
)

// Header is the msgpack asset header of a geometry file.
type Header struct {
	Name        string                  `msgpack:"name"`
	VertexCount int                     `msgpack:"vertices"`
	VertexSize  int                     `msgpack:"vertexSize"`
	IndexCount  int                     `msgpack:"indices"`
	Attributes  []asset.VertexAttribute `msgpack:"attributes"`
}

// Parser decodes geometry files into the library and queues one upload job
// per geometry. It is reused across records of one parse session.
type Parser struct {
	deps *dependency.Table
	jobs asset.JobList
	last string
}

func NewParser() *Parser {
	return &Parser{}
}

// SetDependencies shares the session's dependency table.
func (p *Parser) SetDependencies(t *dependency.Table) { p.deps = t }

// Jobs returns the jobs produced since the last reset.
func (p *Parser) Jobs() *asset.JobList { return &p.jobs }

// LastParsedAssetName is the library name of the most recent geometry.
func (p *Parser) LastParsedAssetName() string { return p.last }

func (p *Parser) Parse(name, resolvedPath string, _ *asset.Options, data []byte, lib *asset.Library) error {
	_, hdrBytes, payload, err := scene.SplitAsset(resolvedPath, data, scene.ExtensionGeometry)
	if err != nil {
		return err
	}
	var h Header
	if err := msgpack.Unmarshal(hdrBytes, &h); err != nil {
		return fmt.Errorf("geometry %s: decode header: %w", resolvedPath, err)
	}
	if h.VertexCount < 0 || h.VertexSize < 0 || h.IndexCount < 0 {
		return fmt.Errorf("geometry %s: negative buffer size", resolvedPath)
	}

	// Bound each count by the payload before multiplying.
	words := len(payload) / 4
	if (h.VertexSize != 0 && h.VertexCount > words/h.VertexSize) || h.IndexCount > words {
		return fmt.Errorf("geometry %s: %d vertices of size %d and %d indices exceed %d byte payload: %w",
			resolvedPath, h.VertexCount, h.VertexSize, h.IndexCount, len(payload), scene.ErrShortBuffer)
	}
	nv := h.VertexCount * h.VertexSize
	need := 4*nv + 4*h.IndexCount
	if len(payload) < need {
		return fmt.Errorf("geometry %s: payload is %d bytes, need %d: %w", resolvedPath, len(payload), need, scene.ErrShortBuffer)
	}

	g := &asset.Geometry{
		Name:        h.Name,
		VertexCount: h.VertexCount,
		VertexSize:  h.VertexSize,
		Attributes:  h.Attributes,
		Vertices:    make([]float32, nv),
		Indices:     make([]uint32, h.IndexCount),
	}
	off := 0
	for i := range g.Vertices {
		bits, _ := scene.ReadUint32(payload, off)
		g.Vertices[i] = math.Float32frombits(bits)
		off += 4
	}
	for i := range g.Indices {
		g.Indices[i], _ = scene.ReadUint32(payload, off)
		off += 4
	}
	for _, ix := range g.Indices {
		if h.VertexCount > 0 && int(ix) >= h.VertexCount {
			return fmt.Errorf("geometry %s: index %d out of range (%d vertices)", resolvedPath, ix, h.VertexCount)
		}
	}

	if name == "" {
		name = h.Name
	}
	if g.Name == "" {
		g.Name = name
	}
	lib.SetGeometry(name, g)
	p.last = name

	p.jobs.Push(&asset.Job{
		Name:     "upload " + name,
		Priority: 1,
		Run: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g.Uploaded = true
			return nil
		},
	})
	return nil
}

// Encode writes g as a standalone geometry file.
func Encode(g *asset.Geometry) ([]byte, error) {
	h := Header{
		Name:        g.Name,
		VertexCount: g.VertexCount,
		VertexSize:  g.VertexSize,
		IndexCount:  len(g.Indices),
		Attributes:  g.Attributes,
	}
	if len(g.Vertices) != g.VertexCount*g.VertexSize {
		return nil, fmt.Errorf("geometry %s: %d floats for %d vertices of size %d", g.Name, len(g.Vertices), g.VertexCount, g.VertexSize)
	}
	hdr, err := msgpack.Marshal(&h)
	if err != nil {
		return nil, fmt.Errorf("geometry %s: encode header: %w", g.Name, err)
	}
	payload := make([]byte, 0, 4*(len(g.Vertices)+len(g.Indices)))
	for _, v := range g.Vertices {
		payload = binary.BigEndian.AppendUint32(payload, math.Float32bits(v))
	}
	for _, ix := range g.Indices {
		payload = binary.BigEndian.AppendUint32(payload, ix)
	}
	return scene.EncodeAsset(scene.ExtensionGeometry, hdr, payload)
}
