// Package pack builds scene containers from a YAML manifest.
//
// A manifest lists the dependency records in file order. External records
// carry a path relative to the container; embedded records name a file,
// relative to the manifest, whose bytes become the record payload.
package pack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/scenery/pkg/scene"
)

// Manifest describes one container.
type Manifest struct {
	// Version stamped into the header; empty means the current version.
	Version string `yaml:"version"`

	// SceneData names a file holding the scene-data section.
	SceneData string `yaml:"scene_data"`

	Dependencies []Dependency `yaml:"dependencies"`
}

// Dependency is one record of the manifest.
type Dependency struct {
	// Type is an asset type name ("geometry", "embed-texture", ...) or a
	// numeric type id for extension assets.
	Type string `yaml:"type"`
	ID   int32  `yaml:"id"`

	Path string `yaml:"path"`
	File string `yaml:"file"`

	// Format overrides the image format of an embedded texture, which
	// otherwise follows the file extension.
	Format string `yaml:"format"`

	// HeaderSize of a texture pack. Embedded packs read it from the file
	// when omitted; external packs leave it unknown.
	HeaderSize *uint16 `yaml:"header_size"`

	// Linked assets.
	Link     string `yaml:"link"`
	Filename string `yaml:"filename"`
	Offset   int32  `yaml:"offset"`
	Length   int32  `yaml:"length"`

	// Meta is the raw metadata word of extension records.
	Meta uint16 `yaml:"meta"`
}

type PackOptions struct {
	// ManifestPath is the YAML manifest. Files it names resolve against
	// its directory.
	ManifestPath string

	// OutputPath is the container to create.
	OutputPath string
}

// Pack builds the container described by opts.ManifestPath and writes it to
// opts.OutputPath. It returns the container size.
func Pack(opts PackOptions) (int, error) {
	if opts.ManifestPath == "" {
		return 0, errors.New("pack: ManifestPath required")
	}
	if opts.OutputPath == "" {
		return 0, errors.New("pack: OutputPath required")
	}
	m, err := LoadManifest(opts.ManifestPath)
	if err != nil {
		return 0, err
	}
	data, err := Build(m, filepath.Dir(opts.ManifestPath))
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return 0, fmt.Errorf("pack: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("pack: %w", err)
	}
	return len(data), nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pack: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("pack: decode manifest %s: %w", path, err)
	}
	return &m, nil
}

// Build assembles the container for m. dir is the base of the files m names.
func Build(m *Manifest, dir string) ([]byte, error) {
	w := scene.NewWriter(scene.ExtensionScene)
	if m.Version != "" {
		v, err := parseVersion(m.Version)
		if err != nil {
			return nil, err
		}
		w.SetVersion(v)
	}
	if m.SceneData != "" {
		b, err := os.ReadFile(filepath.Join(dir, m.SceneData))
		if err != nil {
			return nil, fmt.Errorf("pack: scene data: %w", err)
		}
		w.SetSceneData(b)
	}

	for i, d := range m.Dependencies {
		rec, err := buildRecord(w, d, dir)
		if err != nil {
			return nil, fmt.Errorf("pack: dependency %d (%s %d): %w", i, d.Type, d.ID, err)
		}
		if err := w.AddRecord(rec); err != nil {
			return nil, fmt.Errorf("pack: dependency %d: %w", i, err)
		}
	}
	return w.Bytes()
}

func parseVersion(s string) (scene.Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return scene.Version{}, fmt.Errorf("pack: version %q: %w", s, err)
	}
	if sv.Major() > 0xFF || sv.Minor() > 0xFFFF || sv.Patch() > 0xFF {
		return scene.Version{}, fmt.Errorf("pack: version %s does not fit the header", sv)
	}
	return scene.Version{Major: uint8(sv.Major()), Minor: uint16(sv.Minor()), Patch: uint8(sv.Patch())}, nil
}

// ParseType resolves a manifest type: a name printed by AssetType.String or
// a numeric id.
func ParseType(s string) (scene.AssetType, error) {
	s = strings.TrimSpace(s)
	if t, ok := scene.ParseAssetType(s); ok {
		return t, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown asset type %q", s)
	}
	return scene.AssetType(n), nil
}

func buildRecord(w *scene.Writer, d Dependency, dir string) (scene.Record, error) {
	t, err := ParseType(d.Type)
	if err != nil {
		return scene.Record{}, err
	}
	rec := scene.Record{ID: d.ID}
	var meta uint16

	switch t {
	case scene.GeometryAsset, scene.MaterialAsset, scene.TextureAsset, scene.EffectAsset:
		if d.Path == "" {
			return rec, errors.New("path is required")
		}
		rec.Payload = []byte(d.Path)

	case scene.TexturePackAsset:
		if d.Path == "" {
			return rec, errors.New("path is required")
		}
		rec.Payload = []byte(d.Path)
		if d.HeaderSize != nil {
			meta = scene.TextureHeaderMeta(*d.HeaderSize)
		}

	case scene.EmbedGeometryAsset, scene.EmbedMaterialAsset, scene.EmbedEffectAsset:
		if rec.Payload, err = readFile(dir, d.File); err != nil {
			return rec, err
		}

	case scene.EmbedTextureAsset:
		if rec.Payload, err = readFile(dir, d.File); err != nil {
			return rec, err
		}
		format := d.Format
		if format == "" {
			format = strings.ToLower(scene.Extension(d.File))
		}
		f, ok := scene.ImageFormatFromExtension(format)
		if !ok {
			return rec, fmt.Errorf("unknown image format %q", format)
		}
		meta = uint16(f)

	case scene.EmbedTexturePackAsset:
		if rec.Payload, err = readFile(dir, d.File); err != nil {
			return rec, err
		}
		size := d.HeaderSize
		if size == nil {
			n, err := scene.AssetHeaderLength(rec.Payload)
			if err != nil {
				return rec, fmt.Errorf("read texture header size: %w", err)
			}
			size = &n
		}
		if *size > 0x0fff {
			return rec, fmt.Errorf("texture header of %d bytes does not fit the record metadata", *size)
		}
		meta = scene.TextureHeaderMeta(*size)

	case scene.LinkedAsset:
		tuple, err := linkedTuple(w, d, dir)
		if err != nil {
			return rec, err
		}
		if rec.Payload, err = scene.EncodeLinkedTuple(tuple); err != nil {
			return rec, err
		}

	default:
		meta = d.Meta
		switch {
		case d.File != "":
			if rec.Payload, err = readFile(dir, d.File); err != nil {
				return rec, err
			}
		default:
			rec.Payload = []byte(d.Path)
		}
	}

	rec.TypeAndMeta = scene.EncodeTypeTag(t, meta)
	return rec, nil
}

func linkedTuple(w *scene.Writer, d Dependency, dir string) (scene.LinkedTuple, error) {
	switch strings.ToLower(d.Link) {
	case "", "internal":
		b, err := readFile(dir, d.File)
		if err != nil {
			return scene.LinkedTuple{}, err
		}
		return scene.LinkedTuple{
			Offset:   w.AddLinkedContent(b),
			Length:   int32(len(b)),
			LinkType: scene.LinkInternal,
		}, nil
	case "external":
		if d.Filename == "" {
			return scene.LinkedTuple{}, errors.New("filename is required for external links")
		}
		return scene.LinkedTuple{
			Offset:   d.Offset,
			Length:   d.Length,
			Filename: d.Filename,
			LinkType: scene.LinkExternal,
		}, nil
	default:
		return scene.LinkedTuple{}, fmt.Errorf("unknown link type %q", d.Link)
	}
}

func readFile(dir, name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("file is required")
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}
	return os.ReadFile(name)
}
