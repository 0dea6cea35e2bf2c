package rdf

import (
	"crypto/sha256"
	"encoding/hex"
)

// CanonicalHash computes a stable, content-addressed key for a triple,
// suitable for use as an inference cache key. No third-party library in the
// corpus offers triple canonicalization, so this uses the standard library
// hashing primitives directly.
func CanonicalHash(t Triple) string {
	h := sha256.New()
	h.Write([]byte(t.Subject))
	h.Write([]byte{0})
	h.Write([]byte(t.Predicate))
	h.Write([]byte{0})
	h.Write([]byte(t.Object))
	return hex.EncodeToString(h.Sum(nil))
}
