package ethval

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// UInt is a 53-bit unsigned integer, the largest magnitude JavaScript's
// Number type can represent exactly. The upstream protocol this library
// was distilled from used it for quantities (request counts, sample
// sizes) that never need the full 64-bit range but do need an explicit
// upper bound distinct from UInt64's.
type UInt struct{ v uint64 }

// MaxUInt is 2^53 - 1.
const MaxUInt = uint64(1)<<53 - 1

// NewUInt validates v against the 53-bit bound.
func NewUInt(v uint64) (UInt, error) {
	if v > MaxUInt {
		return UInt{}, fmt.Errorf("ethval: %d exceeds UInt max %d", v, MaxUInt)
	}
	return UInt{v}, nil
}

// Value returns the underlying uint64.
func (u UInt) Value() uint64 { return u.v }

// UInt16 is a 16-bit unsigned integer, used for in-block ordinals
// (logIndex, transactionIndex) which Ethereum encodes as hex but which
// never exceed a block's transaction/log count.
type UInt16 struct{ v uint16 }

// NewUInt16 validates v fits in 16 bits.
func NewUInt16(v uint64) (UInt16, error) {
	if v > uint64(^uint16(0)) {
		return UInt16{}, fmt.Errorf("ethval: %d exceeds UInt16 max %d", v, ^uint16(0))
	}
	return UInt16{uint16(v)}, nil
}

// Value returns the underlying uint16.
func (u UInt16) Value() uint16 { return u.v }

// UInt64 is a plain 64-bit unsigned integer — block numbers, gas
// values, and other quantities with no narrower natural bound.
type UInt64 struct{ v uint64 }

// NewUInt64 always succeeds; it exists so every value type in this
// package shares the same constructor shape, and so a later narrowing
// of the bound (there is none today) has one call site to change.
func NewUInt64(v uint64) (UInt64, error) { return UInt64{v}, nil }

// Value returns the underlying uint64.
func (u UInt64) Value() uint64 { return u.v }

// Timestamp is milliseconds since the Unix epoch.
type Timestamp struct{ v uint64 }

// NewTimestamp wraps a millisecond epoch value.
func NewTimestamp(v uint64) Timestamp { return Timestamp{v} }

// Value returns milliseconds since epoch.
func (t Timestamp) Value() uint64 { return t.v }

// Add returns t advanced by d.
func (t Timestamp) Add(d Timespan) Timestamp { return Timestamp{t.v + d.v} }

// Before reports whether t is strictly earlier than other.
func (t Timestamp) Before(other Timestamp) bool { return t.v < other.v }

// Sub returns the Timespan between t and an earlier timestamp other.
// If other is after t, the result is zero (timestamps never go
// negative in this model).
func (t Timestamp) Sub(other Timestamp) Timespan {
	if other.v >= t.v {
		return Timespan{0}
	}
	return Timespan{t.v - other.v}
}

// Timespan is a duration in milliseconds.
type Timespan struct{ v uint64 }

// NewTimespan wraps a millisecond duration.
func NewTimespan(v uint64) Timespan { return Timespan{v} }

// Value returns the duration in milliseconds.
func (t Timespan) Value() uint64 { return t.v }

// DataSize is a byte count.
type DataSize struct{ v uint64 }

// NewDataSize wraps a byte count.
func NewDataSize(v uint64) DataSize { return DataSize{v} }

// Value returns the byte count.
func (d DataSize) Value() uint64 { return d.v }

// ParseHexUint64 parses a "0x"-prefixed hex string into a UInt64,
// accepting leading zeros ("0x00ab" == "0xab"). Unlike byte-string
// decoding, numeric hex has no even-digit-count requirement: "0x1b4"
// is a valid quantity on the wire.
func ParseHexUint64(h string) (UInt64, error) {
	if !strings.HasPrefix(h, "0x") && !strings.HasPrefix(h, "0X") {
		return UInt64{}, fmt.Errorf("ethval: %q is missing the 0x prefix", h)
	}
	digits := h[2:]
	if digits == "" {
		return UInt64{}, fmt.Errorf("ethval: %q has no digits", h)
	}
	for _, r := range digits {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return UInt64{}, fmt.Errorf("ethval: %q is not valid hex", h)
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return UInt64{0}, nil
	}
	if len(digits) > 16 {
		return UInt64{}, fmt.Errorf("ethval: %q overflows 64 bits", h)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return UInt64{}, fmt.Errorf("ethval: %q is not valid hex: %w", h, err)
	}
	return UInt64{v}, nil
}

// ToHex renders v as a "0x"-prefixed lowercase hex string with no
// leading zeros (besides a single "0x0" for the zero value).
func (u UInt64) ToHex() string {
	if u.v == 0 {
		return "0x0"
	}
	return "0x" + strconv.FormatUint(u.v, 16)
}

// BitLen reports the number of bits needed to represent u, used by
// callers that want to sanity-check a value fits some narrower field.
func (u UInt64) BitLen() int { return bits.Len64(u.v) }
