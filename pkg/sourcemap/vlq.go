package sourcemap

import (
	"gitlab.com/tozd/go/errors"
)

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		t[base64Chars[i]] = int8(i)
	}
	return t
}()

// ErrInvalidMappings reports a mappings string that does not decode.
var ErrInvalidMappings = errors.Base("invalid source map mappings")

// EncodeVLQ appends the base64 VLQ form of v to dst. The sign is stored in
// the lowest bit of the first digit.
func EncodeVLQ(dst []byte, v int) []byte {
	var n uint64
	if v < 0 {
		n = uint64(-v)<<1 | 1
	} else {
		n = uint64(v) << 1
	}

	for {
		digit := n & vlqBaseMask
		n >>= vlqBaseShift
		if n > 0 {
			digit |= vlqContinuationBit
		}
		dst = append(dst, base64Chars[digit])
		if n == 0 {
			return dst
		}
	}
}

// DecodeVLQ reads one value from the front of s and returns it with the rest
// of s.
func DecodeVLQ(s string) (int, string, error) {
	var (
		n     uint64
		shift uint
	)

	for i := 0; i < len(s); i++ {
		digit := base64Values[s[i]]
		if digit < 0 {
			return 0, s, errors.Errorf("%w: invalid base64 digit %q", ErrInvalidMappings, s[i])
		}
		if shift > 60 {
			return 0, s, errors.Errorf("%w: value overflows", ErrInvalidMappings)
		}

		n += uint64(digit&vlqBaseMask) << shift
		shift += vlqBaseShift

		if digit&vlqContinuationBit == 0 {
			v := int(n >> 1)
			if n&1 == 1 {
				v = -v
			}
			return v, s[i+1:], nil
		}
	}

	return 0, s, errors.Errorf("%w: truncated value", ErrInvalidMappings)
}
