package scene

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the semantic version triple stored at offset 4. Packed holds
// the same four bytes read as one int32.
type Version struct {
	Packed uint32
	Major  uint8
	Minor  uint16
	Patch  uint8
}

// CurrentVersion is the version this reader writes and fully supports.
func CurrentVersion() Version {
	v := Version{Major: CurrentMajor, Minor: CurrentMinor, Patch: CurrentPatch}
	v.Packed = v.pack()
	return v
}

func (v Version) pack() uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<8 | uint32(v.Patch)
}

// Semver returns the triple as a semver value for comparison and display.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
}

func (v Version) String() string {
	return v.Semver().String()
}

// Supported reports whether a file of version v can be read.
// The major must match exactly. Older minors are always accepted; on the
// current minor the patch must be at least CurrentPatch. Newer minors are
// rejected.
func (v Version) Supported() bool {
	if v.Major != CurrentMajor {
		return false
	}
	if v.Minor > CurrentMinor {
		return false
	}
	if v.Minor == CurrentMinor && v.Patch < CurrentPatch {
		return false
	}
	return true
}

// Exact reports whether v is identical to the reader version.
func (v Version) Exact() bool {
	return v.Semver().Equal(CurrentVersion().Semver())
}

// Header is the fixed container header.
type Header struct {
	Magic            uint32
	Version          Version
	FileSize         uint32
	HeaderSize       uint16
	DependenciesSize uint32
	SceneDataSize    uint32
}

// ExtensionTag returns the low byte folded into the magic number.
func (h *Header) ExtensionTag() int {
	return int(h.Magic - BaseMagic)
}

// DependenciesOffset is where the dependency section starts.
func (h *Header) DependenciesOffset() int {
	return int(h.HeaderSize)
}

// SceneDataOffset is where the scene-data section starts.
func (h *Header) SceneDataOffset() int {
	return int(h.HeaderSize) + int(h.DependenciesSize)
}

// LinkedContentOffset is where internally linked content starts.
func (h *Header) LinkedContentOffset() int {
	return h.SceneDataOffset() + int(h.SceneDataSize)
}

// DecodeHeader reads the raw header fields without validating them.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < FixedHeaderSize {
		return Header{}, ErrShortBuffer
	}
	var h Header
	h.Magic, _ = ReadUint32(data, 0)
	h.Version.Packed, _ = ReadUint32(data, 4)
	h.Version.Major = data[4]
	h.Version.Minor, _ = ReadUint16(data, 5)
	h.Version.Patch = data[7]
	h.FileSize, _ = ReadUint32(data, 8)
	h.HeaderSize, _ = ReadUint16(data, 12)
	h.DependenciesSize, _ = ReadUint32(data, 14)
	h.SceneDataSize, _ = ReadUint32(data, 18)
	return h, nil
}

// EncodeTo writes the header into buf, which must be at least
// FixedHeaderSize bytes. The packed version is derived from the triple.
func (h *Header) EncodeTo(buf []byte) {
	putUint32(buf, 0, h.Magic)
	putUint32(buf, 4, h.Version.pack())
	putUint32(buf, 8, h.FileSize)
	putUint16(buf, 12, h.HeaderSize)
	putUint32(buf, 14, h.DependenciesSize)
	putUint32(buf, 18, h.SceneDataSize)
}

// ReadHeader decodes and validates a container header for the expected
// extension tag. Failures are *Error values with CodeInvalidFile.
func ReadHeader(filename string, data []byte, extensionTag int) (Header, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Header{}, NewError(CodeInvalidFile,
			fmt.Sprintf("Invalid scene file '%s': truncated header", filename), err)
	}

	if h.Magic != Magic(extensionTag) {
		return Header{}, NewError(CodeInvalidFile,
			fmt.Sprintf("Invalid scene file '%s': magic number mismatch", filename), nil)
	}

	if !h.Version.Supported() {
		return Header{}, NewError(CodeInvalidFile,
			fmt.Sprintf("File %s doesn't match serializer version (file has v%s while current version is v%s)",
				filename, h.Version, CurrentVersion()), nil)
	}

	return h, nil
}
