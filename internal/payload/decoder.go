// Package payload decodes per-position payload weights and folds them into a
// per-document score contribution.
package payload

import (
	"encoding/binary"
	"math"
)

// Size is the length in bytes of an encoded payload weight.
const Size = 4

// DefaultWeight is used for an occurrence that carries no payload at all.
// It neither boosts nor penalises the match.
const DefaultWeight float32 = 1.0

// Occurrence is one payload-carrying position of a term in a document field.
type Occurrence struct {
	DocumentID string
	Field      string
	Start      int
	End        int
	Raw        []byte
}

// Decode reinterprets raw as a big-endian IEEE-754 single precision float.
// No rounding or clamping is applied.
func Decode(raw []byte) (float32, error) {
	if len(raw) != Size {
		return 0, &DecodeError{Length: len(raw)}
	}
	return math.Float32frombits(binary.BigEndian.Uint32(raw)), nil
}

// Weight returns DefaultWeight when raw is nil (no payload stored for the
// occurrence) and the decoded value otherwise.
func Weight(raw []byte) (float32, error) {
	if raw == nil {
		return DefaultWeight, nil
	}
	return Decode(raw)
}

// Encode is the inverse of Decode.
func Encode(w float32) []byte {
	buf := make([]byte, Size)
	binary.BigEndian.PutUint32(buf, math.Float32bits(w))
	return buf
}
