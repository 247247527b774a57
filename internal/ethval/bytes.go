package ethval

import "fmt"

// ByteData is a variable-length byte string. Two "0x"-decode entry
// points exist: FromHex is strict and rejects the literal "0x" (empty
// digits) as malformed, while FromBadHex tolerates it as the empty
// byte string. Within the library only Log decoding (the `data` field)
// uses the tolerant form; outside it, the ethlogctl call command also
// uses it to decode eth_call results.
type ByteData struct{ b []byte }

// FromHex decodes h strictly: "0x" with no following digits is an
// error, not an empty result.
func FromHex(h string) (ByteData, error) {
	digits, ok := hexDigits(h)
	if !ok {
		return ByteData{}, fmt.Errorf("ethval: %q is not valid hex", h)
	}
	if digits == "" {
		return ByteData{}, fmt.Errorf("ethval: %q has no digits", h)
	}
	b, err := decodeHex(h)
	if err != nil {
		return ByteData{}, err
	}
	return ByteData{b}, nil
}

// FromBadHex decodes h the way Log.Data is decoded on the wire: the
// literal "0x" is accepted as the empty byte string. In the library,
// the Log data decoder is its only caller; every other library decode
// path uses FromHex.
func FromBadHex(h string) (ByteData, error) {
	b, err := decodeHex(h)
	if err != nil {
		return ByteData{}, err
	}
	return ByteData{b}, nil
}

// NewByteData wraps a raw byte slice that is already known-valid
// (e.g. produced internally, not parsed from the wire). The slice is
// copied so the resulting ByteData stays immutable.
func NewByteData(b []byte) ByteData {
	cp := make([]byte, len(b))
	copy(cp, b)
	return ByteData{cp}
}

// Bytes returns a copy of the underlying bytes.
func (d ByteData) Bytes() []byte {
	cp := make([]byte, len(d.b))
	copy(cp, d.b)
	return cp
}

// Len reports the byte length.
func (d ByteData) Len() int { return len(d.b) }

// ToHex renders d as a "0x"-prefixed lowercase hex string.
func (d ByteData) ToHex() string { return encodeHex(d.b) }

// Equal reports value equality.
func (d ByteData) Equal(other ByteData) bool {
	if len(d.b) != len(other.b) {
		return false
	}
	for i := range d.b {
		if d.b[i] != other.b[i] {
			return false
		}
	}
	return true
}

// ByteData32 is a fixed 32-byte string — block hashes, transaction
// hashes, and log topics.
type ByteData32 struct{ b [32]byte }

// FromHex32 decodes h, requiring exactly 64 hex digits (32 bytes).
func FromHex32(h string) (ByteData32, error) {
	b, err := decodeHex(h)
	if err != nil {
		return ByteData32{}, err
	}
	if len(b) != 32 {
		return ByteData32{}, fmt.Errorf("ethval: %q is not 32 bytes (got %d)", h, len(b))
	}
	var out ByteData32
	copy(out.b[:], b)
	return out, nil
}

// Bytes returns a copy of the 32 bytes.
func (d ByteData32) Bytes() []byte {
	cp := make([]byte, 32)
	copy(cp, d.b[:])
	return cp
}

// ToHex renders d as a "0x"-prefixed lowercase hex string.
func (d ByteData32) ToHex() string { return encodeHex(d.b[:]) }

// Equal reports value equality.
func (d ByteData32) Equal(other ByteData32) bool { return d.b == other.b }

// Address is a fixed 20-byte Ethereum account/contract address.
type Address struct{ b [20]byte }

// FromHexAddress decodes h, requiring exactly 40 hex digits (20 bytes).
func FromHexAddress(h string) (Address, error) {
	b, err := decodeHex(h)
	if err != nil {
		return Address{}, err
	}
	if len(b) != 20 {
		return Address{}, fmt.Errorf("ethval: %q is not 20 bytes (got %d)", h, len(b))
	}
	var out Address
	copy(out.b[:], b)
	return out, nil
}

// Bytes returns a copy of the 20 bytes.
func (a Address) Bytes() []byte {
	cp := make([]byte, 20)
	copy(cp, a.b[:])
	return cp
}

// ToHex renders a as a "0x"-prefixed lowercase hex string.
func (a Address) ToHex() string { return encodeHex(a.b[:]) }

// Equal reports value equality.
func (a Address) Equal(other Address) bool { return a.b == other.b }

// String satisfies fmt.Stringer for logging/display.
func (a Address) String() string { return a.ToHex() }
