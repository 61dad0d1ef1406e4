package texture

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/pkg/scene"
)

// PackedExtension is the pseudo-extension of packed texture assets.
const PackedExtension = "texture"

// PackHeader is the msgpack texture header of a packed texture asset.
type PackHeader struct {
	Format    string `msgpack:"format"`
	Width     int    `msgpack:"width"`
	Height    int    `msgpack:"height"`
	MipLevels int    `msgpack:"mipLevels"`
}

// PackedParser reads packed texture assets. With DataEmbed unset only the
// header window of the file is expected; the texture then records where its
// payload starts so it can be streamed later.
type PackedParser struct {
	headerSize int
	dataEmbed  bool
}

func NewPackedParser() *PackedParser { return &PackedParser{} }

// SetTextureHeaderSize fixes the texture header size. Zero reads it from the
// asset header.
func (p *PackedParser) SetTextureHeaderSize(n int) { p.headerSize = n }

// SetDataEmbed tells the parser whether the payload is part of the data.
func (p *PackedParser) SetDataEmbed(embed bool) { p.dataEmbed = embed }

func (p *PackedParser) TextureHeaderSize() int { return p.headerSize }
func (p *PackedParser) DataEmbed() bool        { return p.dataEmbed }

func (p *PackedParser) Parse(name, resolvedPath string, _ *asset.Options, data []byte, lib *asset.Library) error {
	if _, err := scene.ReadHeader(resolvedPath, data, scene.ExtensionTexture); err != nil {
		return err
	}
	size := p.headerSize
	if size == 0 {
		n, err := scene.AssetHeaderLength(data)
		if err != nil {
			return fmt.Errorf("texture %s: %w", resolvedPath, err)
		}
		size = int(n)
	}
	end := scene.AssetHeaderSize + size
	if end > len(data) {
		return fmt.Errorf("texture %s: header needs %d bytes, have %d: %w", resolvedPath, end, len(data), scene.ErrShortBuffer)
	}

	var h PackHeader
	if err := msgpack.Unmarshal(data[scene.AssetHeaderSize:end], &h); err != nil {
		return fmt.Errorf("texture %s: decode header: %w", resolvedPath, err)
	}
	if h.MipLevels == 0 {
		h.MipLevels = 1
	}

	tex := &asset.Texture{
		Name:          name,
		Format:        h.Format,
		Width:         h.Width,
		Height:        h.Height,
		MipLevels:     h.MipLevels,
		Packed:        true,
		HeaderSize:    size,
		PayloadOffset: end,
	}
	if p.dataEmbed {
		tex.Data = data[end:]
	}
	lib.SetTexture(name, tex)
	return nil
}

// EncodePacked writes a packed texture asset and returns it with the size of
// its texture header.
func EncodePacked(h PackHeader, payload []byte) ([]byte, uint16, error) {
	hdr, err := msgpack.Marshal(&h)
	if err != nil {
		return nil, 0, fmt.Errorf("encode texture header: %w", err)
	}
	if len(hdr) > 0x0fff {
		return nil, 0, fmt.Errorf("texture header is %d bytes, limit is %d", len(hdr), 0x0fff)
	}
	out, err := scene.EncodeAsset(scene.ExtensionTexture, hdr, payload)
	if err != nil {
		return nil, 0, err
	}
	return out, uint16(len(hdr)), nil
}
