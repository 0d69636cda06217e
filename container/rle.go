package container

import (
	"fmt"
)

// EncodeRLE compresses data with PackBits.
//
// Control byte n: 0..127 copies the next n+1 bytes, 129..255 repeats the next
// byte 257-n times, 128 is ignored.
func EncodeRLE(data []byte) []byte {
	out := make([]byte, 0, len(data)/2+2)
	for i := 0; i < len(data); {
		run := 1
		for i+run < len(data) && run < 128 && data[i+run] == data[i] {
			run++
		}
		if run >= 2 {
			out = append(out, byte(257-run), data[i])
			i += run
			continue
		}

		start := i
		for i < len(data) && i-start < 128 {
			if i+1 < len(data) && data[i+1] == data[i] {
				break
			}
			i++
		}
		if i == start {
			// A two-byte run follows; let the run branch take it.
			continue
		}
		out = append(out, byte(i-start-1))
		out = append(out, data[start:i]...)
	}
	return out
}

// DecodeRLE expands PackBits data into dst, which must be exactly the
// decoded size.
func DecodeRLE(dst, src []byte) error {
	o := 0
	for i := 0; i < len(src); {
		n := int(src[i])
		i++
		switch {
		case n < 128:
			count := n + 1
			if i+count > len(src) {
				return fmt.Errorf("%w: literal run past end of payload", ErrBadFrame)
			}
			if o+count > len(dst) {
				return fmt.Errorf("%w: literal run overflows picture", ErrBadFrame)
			}
			copy(dst[o:], src[i:i+count])
			i += count
			o += count
		case n > 128:
			count := 257 - n
			if i >= len(src) {
				return fmt.Errorf("%w: repeat run past end of payload", ErrBadFrame)
			}
			if o+count > len(dst) {
				return fmt.Errorf("%w: repeat run overflows picture", ErrBadFrame)
			}
			b := src[i]
			i++
			for k := 0; k < count; k++ {
				dst[o+k] = b
			}
			o += count
		}
	}
	if o != len(dst) {
		return fmt.Errorf("%w: decoded %d bytes, expected %d", ErrBadFrame, o, len(dst))
	}
	return nil
}
