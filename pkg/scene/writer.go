package scene

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// Writer builds a container in memory.
//
// The dependency section is laid out as a uint16 record count followed by
// length-prefixed record blobs. Scene data and linked content follow it.
type Writer struct {
	extensionTag int
	version      Version
	records      [][]byte
	sceneData    []byte
	linked       []byte
}

// NewWriter creates a writer for the given extension tag at CurrentVersion.
func NewWriter(extensionTag int) *Writer {
	return &Writer{
		extensionTag: extensionTag,
		version:      CurrentVersion(),
	}
}

// SetVersion overrides the version stamped into the header.
func (w *Writer) SetVersion(v Version) {
	w.version = v
}

// AddRecord encodes and appends a dependency record.
func (w *Writer) AddRecord(r Record) error {
	b, err := EncodeRecord(r)
	if err != nil {
		return err
	}
	return w.AddRawRecord(b)
}

// AddRawRecord appends an already encoded record blob.
func (w *Writer) AddRawRecord(blob []byte) error {
	if len(w.records) == math.MaxUint16 {
		return errors.New("scene: too many dependency records")
	}
	w.records = append(w.records, blob)
	return nil
}

// SetSceneData sets the scene-data section payload.
func (w *Writer) SetSceneData(b []byte) {
	w.sceneData = b
}

// AddLinkedContent appends bytes to the linked-content block and returns
// their offset relative to the start of that block.
func (w *Writer) AddLinkedContent(b []byte) int32 {
	off := int32(len(w.linked))
	w.linked = append(w.linked, b...)
	return off
}

func (w *Writer) dependenciesSize() int {
	n := 2
	for _, r := range w.records {
		n += 4 + len(r)
	}
	return n
}

// Bytes assembles the container.
func (w *Writer) Bytes() ([]byte, error) {
	depSize := w.dependenciesSize()
	total := FixedHeaderSize + depSize + len(w.sceneData) + len(w.linked)
	if int64(total) > math.MaxUint32 {
		return nil, fmt.Errorf("scene: container too large (%d bytes)", total)
	}

	out := make([]byte, total)
	h := Header{
		Magic:            Magic(w.extensionTag),
		Version:          w.version,
		FileSize:         uint32(total),
		HeaderSize:       FixedHeaderSize,
		DependenciesSize: uint32(depSize),
		SceneDataSize:    uint32(len(w.sceneData)),
	}
	h.EncodeTo(out)

	off := FixedHeaderSize
	putUint16(out, off, uint16(len(w.records)))
	off += 2
	for _, r := range w.records {
		putUint32(out, off, uint32(len(r)))
		off += 4
		off += copy(out[off:], r)
	}
	off += copy(out[off:], w.sceneData)
	copy(out[off:], w.linked)
	return out, nil
}

// WriteTo writes the assembled container to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	b, err := w.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := dst.Write(b)
	return int64(n), err
}

// EncodeAsset builds a standalone asset file: a container header for the
// extension tag, two reserved bytes, the uint16 asset header size, the asset
// header and the payload.
func EncodeAsset(extensionTag int, assetHeader, payload []byte) ([]byte, error) {
	if len(assetHeader) > math.MaxUint16 {
		return nil, fmt.Errorf("scene: asset header too large (%d bytes)", len(assetHeader))
	}
	total := AssetHeaderSize + len(assetHeader) + len(payload)
	if int64(total) > math.MaxUint32 {
		return nil, fmt.Errorf("scene: asset too large (%d bytes)", total)
	}
	out := make([]byte, total)
	h := Header{
		Magic:         Magic(extensionTag),
		Version:       CurrentVersion(),
		FileSize:      uint32(total),
		HeaderSize:    AssetHeaderSize,
		SceneDataSize: uint32(len(assetHeader) + len(payload)),
	}
	h.EncodeTo(out)
	putUint16(out, AssetHeaderSize-2, uint16(len(assetHeader)))
	copy(out[AssetHeaderSize:], assetHeader)
	copy(out[AssetHeaderSize+len(assetHeader):], payload)
	return out, nil
}

// AssetHeaderLength reads the uint16 asset header size of a standalone asset
// file. Only the first AssetHeaderSize bytes are required.
func AssetHeaderLength(data []byte) (uint16, error) {
	return ReadUint16(data, AssetHeaderSize-2)
}

// SplitAsset validates a standalone asset file and returns its asset header
// and payload. The payload may be empty when only the header range was
// loaded.
func SplitAsset(filename string, data []byte, extensionTag int) (Header, []byte, []byte, error) {
	h, err := ReadHeader(filename, data, extensionTag)
	if err != nil {
		return Header{}, nil, nil, err
	}
	n, err := AssetHeaderLength(data)
	if err != nil {
		return Header{}, nil, nil, NewError(CodeInvalidFile,
			fmt.Sprintf("Invalid asset file '%s': truncated asset header", filename), err)
	}
	end := AssetHeaderSize + int(n)
	if end > len(data) {
		return Header{}, nil, nil, NewError(CodeInvalidFile,
			fmt.Sprintf("Invalid asset file '%s': asset header exceeds %d bytes", filename, len(data)), ErrShortBuffer)
	}
	return h, data[AssetHeaderSize:end], data[end:], nil
}
