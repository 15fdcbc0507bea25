package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// digestSize is the width of content fingerprints in bytes (BLAKE2b-256).
const digestSize = 32

// HashBytes computes the content fingerprint of raw bytes as a fixed-width
// hexadecimal digest. Collision resistance matters more than speed here:
// digests double as file identity for deduplication.
func HashBytes(raw []byte) string {
	h, _ := blake2b.New(digestSize, nil)
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

// HashText computes the content fingerprint of text after normalization,
// so two chunks differing only in case, punctuation, or whitespace hash
// identically.
func HashText(text string) string {
	return HashBytes([]byte(NormalizeText(text)))
}
