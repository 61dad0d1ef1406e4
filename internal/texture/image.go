// Package texture holds the texture parsers handed off to by the scene
// parser: ImageParser for plain image files and PackedParser for packed
// ".texture" assets.
package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/pkg/scene"
)

// ImageExtensions are the file extensions served by ImageParser.
var ImageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tga", "tif", "tiff", "webp"}

// ImageParser decodes png, jpeg, gif, bmp, tiff, webp and tga images.
type ImageParser struct{}

func NewImageParser() *ImageParser { return &ImageParser{} }

// Sniff returns the image format of data. Formats without a signature (tga)
// are taken from the file extension.
func Sniff(data []byte, filename string) string {
	if kind, err := filetype.Image(data); err == nil && kind != filetype.Unknown {
		return normalize(kind.Extension)
	}
	return normalize(strings.ToLower(scene.Extension(filename)))
}

func normalize(ext string) string {
	switch ext {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	}
	return ext
}

func (ImageParser) Parse(name, resolvedPath string, _ *asset.Options, data []byte, lib *asset.Library) error {
	format := Sniff(data, resolvedPath)

	var (
		img image.Image
		err error
	)
	switch format {
	case "tga":
		img, err = tga.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return fmt.Errorf("texture %s: decode %s: %w", resolvedPath, format, err)
	}

	b := img.Bounds()
	lib.SetTexture(name, &asset.Texture{
		Name:      name,
		Format:    format,
		Width:     b.Dx(),
		Height:    b.Dy(),
		MipLevels: 1,
		Image:     img,
		Data:      data,
	})
	return nil
}
