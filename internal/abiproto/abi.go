// Package abiproto provides a small ABI event/function coder:
// event_topic(name), parse_log(topics, data), encode_call(method, args),
// decode_result(method, data). It is intentionally narrow — enough to
// compute event topics and encode/decode a single-address-argument,
// single-uint256-result call shape — not a general-purpose ABI
// library. A consumer needing richer ABI coding supplies their own
// Coder implementation; ethlog only depends on the interface.
package abiproto

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/dmagro/ethlog/internal/ethval"
)

// Coder is the boundary interface Node's generic Call path and the
// demo `cmd` binaries depend on.
type Coder interface {
	EventTopic(signature string) ethval.ByteData32
	ParseLog(topics []ethval.ByteData32, data ethval.ByteData) (map[string]any, error)
	EncodeCall(method string, args ...any) (ethval.ByteData, error)
	DecodeResult(method string, data ethval.ByteData) (any, error)
}

// Keccak256Coder is the default Coder, using sha3.NewLegacyKeccak256
// for selector and topic computation.
type Keccak256Coder struct{}

// EventTopic returns keccak256(signature) as the ByteData32 logged in
// topics[0] for any event matching that signature — Ethereum's
// standard "topic 0" derivation.
func (Keccak256Coder) EventTopic(signature string) ethval.ByteData32 {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	sum := h.Sum(nil)
	b32, _ := ethval.FromHex32("0x" + hex.EncodeToString(sum))
	return b32
}

// ParseLog decodes a log's topics/data into a generic field map. Only
// the common "address indexed, uint256 value" event shape (e.g. ERC-20
// Transfer) is understood: every topic after topic0 appears under
// indexedN, as an address when zero-padded and as raw hex otherwise;
// the first 32 bytes of data appear as the decimal "value". Data past
// the first 32 bytes is not included in the map.
func (c Keccak256Coder) ParseLog(topics []ethval.ByteData32, data ethval.ByteData) (map[string]any, error) {
	out := make(map[string]any)
	if len(topics) == 0 {
		return out, nil
	}
	out["topic0"] = topics[0].ToHex()
	for i, t := range topics[1:] {
		b := t.Bytes()
		if len(b) == 32 && isZeroPadded(b) {
			addr, err := ethval.FromHexAddress("0x" + hex.EncodeToString(b[12:]))
			if err == nil {
				out[fmt.Sprintf("indexed%d", i+1)] = addr.ToHex()
				continue
			}
		}
		out[fmt.Sprintf("indexed%d", i+1)] = t.ToHex()
	}
	if data.Len() >= 32 {
		out["value"] = new(big.Int).SetBytes(data.Bytes()[:32]).String()
	}
	return out, nil
}

func isZeroPadded(b []byte) bool {
	for _, c := range b[:12] {
		if c != 0 {
			return false
		}
	}
	return true
}

// EncodeCall builds calldata for a function signature taking zero or
// one address argument, e.g. "balanceOf(address)".
func (Keccak256Coder) EncodeCall(method string, args ...any) (ethval.ByteData, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(method))
	selector := h.Sum(nil)[:4]

	calldata := append([]byte{}, selector...)
	for _, arg := range args {
		addr, ok := arg.(ethval.Address)
		if !ok {
			return ethval.ByteData{}, fmt.Errorf("abiproto: unsupported call argument type %T", arg)
		}
		padded := make([]byte, 32)
		copy(padded[12:], addr.Bytes())
		calldata = append(calldata, padded...)
	}
	return ethval.NewByteData(calldata), nil
}

// DecodeResult decodes a single uint256 return value: leading zeros
// are tolerated, and the literal "0x" result decodes to zero.
func (Keccak256Coder) DecodeResult(method string, data ethval.ByteData) (any, error) {
	h := data.ToHex()
	digits := strings.TrimPrefix(h, "0x")
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return big.NewInt(0), nil
	}
	result := new(big.Int)
	if _, ok := result.SetString(digits, 16); !ok {
		return nil, fmt.Errorf("abiproto: cannot decode result of %s: %q is not valid hex", method, h)
	}
	return result, nil
}
