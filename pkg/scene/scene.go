// Package scene implements the binary scene container format.
//
// A container is a big-endian, length-prefixed file holding one scene: a fixed
// header, a dependency section of msgpack asset records, a scene-data section
// and optional linked content. The same header is shared by the geometry,
// material and texture sub-formats; they differ only in the extension byte
// folded into the magic number.
package scene

import "fmt"

// Scene global constants must never change.
const (
	// BaseMagic is "MK3" followed by a byte reserved for the extension tag.
	BaseMagic uint32 = 0x4D4B0300

	// Current Major Version: any change indicates a breaking format change.
	CurrentMajor uint8 = 0

	// Current Minor Version: files from older minors stay readable.
	CurrentMinor uint16 = 3

	// Current Patch Version: enforced only for files on CurrentMinor.
	CurrentPatch uint8 = 1

	// FixedHeaderSize covers magic, version, file size, header size and the
	// two section sizes.
	FixedHeaderSize = 22

	// AssetHeaderSize is the fixed prefix of a standalone asset file: the
	// container header, two reserved bytes and the uint16 asset header size.
	AssetHeaderSize = FixedHeaderSize + 2 + 2
)

// Extension tags identify the container sub-format.
const (
	ExtensionScene    = 0
	ExtensionGeometry = 1
	ExtensionMaterial = 2
	ExtensionTexture  = 3
)

// Magic returns the magic number expected for the given extension tag.
func Magic(extensionTag int) uint32 {
	return BaseMagic + uint32(extensionTag&0xFF)
}

// AssetType is the low byte of a record's packed type field.
type AssetType uint8

const (
	GeometryAsset AssetType = iota
	EmbedGeometryAsset
	MaterialAsset
	EmbedMaterialAsset
	TextureAsset
	EmbedTextureAsset
	EffectAsset
	EmbedEffectAsset
	TexturePackAsset
	EmbedTexturePackAsset
	LinkedAsset

	// FirstExtensionAsset is the first type id free for plugin-defined assets.
	FirstExtensionAsset
)

var assetTypeNames = [...]string{
	GeometryAsset:         "geometry",
	EmbedGeometryAsset:    "embed-geometry",
	MaterialAsset:         "material",
	EmbedMaterialAsset:    "embed-material",
	TextureAsset:          "texture",
	EmbedTextureAsset:     "embed-texture",
	EffectAsset:           "effect",
	EmbedEffectAsset:      "embed-effect",
	TexturePackAsset:      "texture-pack",
	EmbedTexturePackAsset: "embed-texture-pack",
	LinkedAsset:           "linked-asset",
}

func (t AssetType) String() string {
	if int(t) < len(assetTypeNames) {
		return assetTypeNames[t]
	}
	return fmt.Sprintf("extension(%d)", uint8(t))
}

// HasPathPayload reports whether records of this type carry a file path
// (relative to the container's folder) as their payload.
func (t AssetType) HasPathPayload() bool {
	return t < LinkedAsset
}

// Embedded reports whether the asset bytes live inside the container.
func (t AssetType) Embedded() bool {
	switch t {
	case EmbedGeometryAsset, EmbedMaterialAsset, EmbedTextureAsset, EmbedEffectAsset, EmbedTexturePackAsset:
		return true
	}
	return false
}

// BuiltinAssetTypes lists every type the dispatcher handles natively.
func BuiltinAssetTypes() []AssetType {
	out := make([]AssetType, 0, len(assetTypeNames))
	for i := range assetTypeNames {
		out = append(out, AssetType(i))
	}
	return out
}

// ParseAssetType resolves a type name as printed by AssetType.String.
func ParseAssetType(name string) (AssetType, bool) {
	for i, n := range assetTypeNames {
		if n == name {
			return AssetType(i), true
		}
	}
	return 0, false
}

// ImageFormat is the source encoding of an embedded texture.
type ImageFormat uint16

const (
	ImageFormatSource ImageFormat = iota // png
	ImageFormatJPEG
	ImageFormatTGA
	ImageFormatBMP
	ImageFormatTIFF
	ImageFormatWebP
	ImageFormatPacked
)

// Extension returns the file extension used to pick a texture parser.
func (f ImageFormat) Extension() string {
	switch f {
	case ImageFormatSource:
		return "png"
	case ImageFormatJPEG:
		return "jpg"
	case ImageFormatTGA:
		return "tga"
	case ImageFormatBMP:
		return "bmp"
	case ImageFormatTIFF:
		return "tiff"
	case ImageFormatWebP:
		return "webp"
	case ImageFormatPacked:
		return "texture"
	default:
		return "png"
	}
}

// ImageFormatFromExtension is the inverse of ImageFormat.Extension.
func ImageFormatFromExtension(ext string) (ImageFormat, bool) {
	switch ext {
	case "png":
		return ImageFormatSource, true
	case "jpg", "jpeg":
		return ImageFormatJPEG, true
	case "tga":
		return ImageFormatTGA, true
	case "bmp":
		return ImageFormatBMP, true
	case "tif", "tiff":
		return ImageFormatTIFF, true
	case "webp":
		return ImageFormatWebP, true
	case "texture":
		return ImageFormatPacked, true
	}
	return 0, false
}
