package scene

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is one serialized entry of the dependency section, encoded as a
// positional msgpack array. The upper 16 bits of TypeAndMeta are per-type
// metadata and the low byte is the AssetType.
type Record struct {
	_msgpack struct{} `msgpack:",as_array"`

	TypeAndMeta uint32
	ID          int32
	Payload     []byte
}

// Meta is the decoded metadata word of a record.
type Meta struct {
	Raw uint16

	// HeaderSizeKnown and HeaderSize describe packed textures: bit 15 flags
	// that the low 12 bits hold the texture header size.
	HeaderSizeKnown bool
	HeaderSize      uint16

	// ImageFormat is the whole word, used by embedded textures.
	ImageFormat ImageFormat
}

const (
	metaHeaderKnownBit = 1 << 15
	metaHeaderSizeMask = 0x0fff
)

// DecodeTypeTag splits a packed type field into its asset type and metadata.
func DecodeTypeTag(v uint32) (AssetType, Meta) {
	raw := uint16((v & 0xFFFF0000) >> 16)
	return AssetType(v & 0xFF), Meta{
		Raw:             raw,
		HeaderSizeKnown: raw&metaHeaderKnownBit != 0,
		HeaderSize:      raw & metaHeaderSizeMask,
		ImageFormat:     ImageFormat(raw),
	}
}

// EncodeTypeTag packs an asset type and a raw metadata word.
func EncodeTypeTag(t AssetType, meta uint16) uint32 {
	return uint32(meta)<<16 | uint32(t)
}

// TextureHeaderMeta builds the metadata word for a packed texture record.
// A zero header size leaves the "known" flag unset.
func TextureHeaderMeta(headerSize uint16) uint16 {
	if headerSize == 0 {
		return 0
	}
	return metaHeaderKnownBit | headerSize&metaHeaderSizeMask
}

// Type returns the decoded asset type.
func (r *Record) Type() AssetType {
	t, _ := DecodeTypeTag(r.TypeAndMeta)
	return t
}

// Meta returns the decoded metadata word.
func (r *Record) Meta() Meta {
	_, m := DecodeTypeTag(r.TypeAndMeta)
	return m
}

// Release drops the payload so the buffer can be collected.
func (r *Record) Release() {
	r.Payload = nil
}

// DecodeRecord unpacks one record blob.
func DecodeRecord(b []byte) (Record, error) {
	var r Record
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("decode asset record: %w", err)
	}
	return r, nil
}

// EncodeRecord packs one record blob.
func EncodeRecord(r Record) ([]byte, error) {
	b, err := msgpack.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("encode asset record: %w", err)
	}
	return b, nil
}

// LinkType tells whether a linked asset points into the current container.
type LinkType int32

const (
	LinkInternal LinkType = iota
	LinkExternal
)

func (l LinkType) String() string {
	switch l {
	case LinkInternal:
		return "internal"
	case LinkExternal:
		return "external"
	default:
		return fmt.Sprintf("LinkType(%d)", int32(l))
	}
}

// LinkedTuple is the payload of a LinkedAsset record.
type LinkedTuple struct {
	_msgpack struct{} `msgpack:",as_array"`

	Offset   int32
	Length   int32
	Filename string
	Data     []byte
	LinkType LinkType
}

// DecodeLinkedTuple unpacks a linked-asset payload.
func DecodeLinkedTuple(b []byte) (LinkedTuple, error) {
	var t LinkedTuple
	if err := msgpack.Unmarshal(b, &t); err != nil {
		return LinkedTuple{}, fmt.Errorf("decode linked asset: %w", err)
	}
	return t, nil
}

// EncodeLinkedTuple packs a linked-asset payload.
func EncodeLinkedTuple(t LinkedTuple) ([]byte, error) {
	b, err := msgpack.Marshal(&t)
	if err != nil {
		return nil, fmt.Errorf("encode linked asset: %w", err)
	}
	return b, nil
}
