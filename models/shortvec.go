package models

import (
	"errors"
	"fmt"
)

// appendCompactU16 appends n in the ledger's compact-u16 encoding: 7 bits per byte,
// little end first, high bit set on every byte but the last
func appendCompactU16(buf []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// readCompactU16 decodes a compact-u16 from the front of data and returns the value
// together with the number of bytes consumed
func readCompactU16(data []byte) (int, int, error) {
	var v int
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, errors.New("compact-u16: unexpected end of data")
		}
		b := data[i]
		v |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if v > 0xffff {
				return 0, 0, fmt.Errorf("compact-u16: value %d overflows", v)
			}
			return v, i + 1, nil
		}
	}
	return 0, 0, errors.New("compact-u16: too many bytes")
}
