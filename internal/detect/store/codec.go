package store

import "encoding/binary"

// encodeUint16s and decodeUint16s pack/unpack a uint16 slice as a
// little-endian byte blob, used for depth maps and depth feature samples
// that JSON would otherwise bloat by several times over.
func encodeUint16s(v []uint16) []byte {
	buf := make([]byte, len(v)*2)
	for i, x := range v {
		binary.LittleEndian.PutUint16(buf[i*2:], x)
	}
	return buf
}

func decodeUint16s(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return out
}
