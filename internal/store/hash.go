package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes the content address used as the dedup key.
// The kind tag is folded into the digest so identical bytes of different
// kinds never collide.
func Hash(kind Kind, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
