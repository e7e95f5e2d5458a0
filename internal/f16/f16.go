// Package f16 implements the IEEE-754 binary16 half precision format.
//
// A Number holds the raw 16 bit pattern: 1 sign bit, 5 exponent bits with a
// bias of 15 and 10 mantissa bits. Conversion from float32 or float64 rounds
// once to nearest, ties to even, and handles subnormals, infinities and NaN.
package f16

import "math"

// Number is a half precision float stored as its bit pattern.
type Number uint16

const (
	signMask = 0x8000
	expMask  = 0x7c00
	mantMask = 0x03ff
	quietNaN = 0x0200
)

// Inf returns positive infinity if sign >= 0, negative infinity otherwise.
func Inf(sign int) Number {
	if sign < 0 {
		return Number(signMask | expMask)
	}
	return Number(expMask)
}

// NaN returns a quiet NaN.
func NaN() Number {
	return Number(expMask | quietNaN)
}

// From converts f to the nearest half precision value.
func From(f float32) Number {
	// widening can quiet a signalling NaN, so NaN payloads come from the float32 bits
	if b := math.Float32bits(f); b&0x7f800000 == 0x7f800000 && b&0x7fffff != 0 {
		return nan(uint16(b>>16)&signMask, uint16((b&0x7fffff)>>13))
	}
	return FromFloat64(float64(f))
}

// FromFloat64 converts f to the nearest half precision value, rounding once
// from the float64 bits.
func FromFloat64(f float64) Number {
	b := math.Float64bits(f)
	sign := uint16(b>>48) & signMask
	exp := int64(b>>52) & 0x7ff
	mant := b & (1<<52 - 1)

	if exp == 0x7ff {
		if mant == 0 {
			return Number(sign | expMask)
		}
		return nan(sign, uint16(mant>>42))
	}

	e := exp - 1023 + 15
	if e >= 0x1f {
		return Number(sign | expMask)
	}

	if e <= 0 {
		if e < -10 {
			return Number(sign)
		}
		full := mant | 1<<52
		return Number(sign | uint16(roundShift(full, uint64(43-e))))
	}

	h := uint64(sign) | uint64(e)<<10 | mant>>42
	rem := mant & (1<<42 - 1)
	if rem > 1<<41 || (rem == 1<<41 && h&1 == 1) {
		// a carry out of the mantissa bumps the exponent, up to infinity
		h++
	}
	return Number(h)
}

// nan keeps the top payload bits, forcing a non-zero mantissa.
func nan(sign, payload uint16) Number {
	if payload == 0 {
		payload = quietNaN
	}
	return Number(sign | expMask | payload)
}

func roundShift(v, shift uint64) uint64 {
	result := v >> shift
	rem := v & (1<<shift - 1)
	half := uint64(1) << (shift - 1)
	if rem > half || (rem == half && result&1 == 1) {
		result++
	}
	return result
}

// Float32 widens n to a float32. Every half value is exactly representable.
func (n Number) Float32() float32 {
	sign := uint32(n&signMask) << 16
	exp := uint32(n&expMask) >> 10
	mant := uint32(n & mantMask)

	var bits uint32
	switch exp {
	case 0x1f:
		bits = sign | 0x7f800000 | mant<<13
	case 0:
		if mant == 0 {
			bits = sign
			break
		}
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		bits = sign | e<<23 | (mant&mantMask)<<13
	default:
		bits = sign | (exp+127-15)<<23 | mant<<13
	}
	return math.Float32frombits(bits)
}

// Bits returns the raw bit pattern.
func (n Number) Bits() uint16 {
	return uint16(n)
}

// IsNaN reports whether n is a NaN.
func (n Number) IsNaN() bool {
	return n&expMask == expMask && n&mantMask != 0
}

// IsInf reports whether n is an infinity. sign > 0 checks for positive
// infinity, sign < 0 for negative, and 0 for either.
func (n Number) IsInf(sign int) bool {
	if n&expMask != expMask || n&mantMask != 0 {
		return false
	}
	neg := n&signMask != 0
	return sign == 0 || (sign > 0 && !neg) || (sign < 0 && neg)
}
