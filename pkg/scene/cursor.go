package scene

import "encoding/binary"

// Fixed-width big-endian readers at explicit offsets. They only check that
// the value fits in the buffer; section bounds are the caller's concern.

func ReadInt32(data []byte, off int) (int32, error) {
	v, err := ReadUint32(data, off)
	return int32(v), err
}

func ReadUint32(data []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(data) {
		return 0, ErrShortBuffer
	}
	return binary.BigEndian.Uint32(data[off:]), nil
}

func ReadInt16(data []byte, off int) (int16, error) {
	v, err := ReadUint16(data, off)
	return int16(v), err
}

func ReadUint16(data []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(data) {
		return 0, ErrShortBuffer
	}
	return binary.BigEndian.Uint16(data[off:]), nil
}

func ReadUint8(data []byte, off int) (uint8, error) {
	if off < 0 || off >= len(data) {
		return 0, ErrShortBuffer
	}
	return data[off], nil
}

func putUint32(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:], v)
}

func putUint16(b []byte, off int, v uint16) {
	binary.BigEndian.PutUint16(b[off:], v)
}
