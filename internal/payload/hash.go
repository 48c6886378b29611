package payload

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainDocument prefixes document content hashes.
// The version suffix leaves room for algorithm changes.
const DomainDocument = "mailblocks/document/v1"

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
