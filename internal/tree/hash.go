package tree

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashDomainDoc is the domain prefix for document content hashes.
// The version suffix allows a future algorithm migration without
// colliding with hashes computed today.
const hashDomainDoc = "revdoc/doc/v1"

// Hash computes the content hash of a value: SHA-256 over the canonical
// JSON form with a domain prefix and a NUL separator to prevent
// prefix/payload boundary ambiguity.
func Hash(v Value) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(hashDomainDoc))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
