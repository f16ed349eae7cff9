package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint is a content-derived identifier used to detect duplicate
// documents within a tenant.
type Fingerprint struct {
	Value string
	Weak  bool
}

// ComputeFingerprint hashes the raw file bytes with SHA-256. This is the
// preferred, collision-safe fingerprint.
func ComputeFingerprint(fileBytes []byte) Fingerprint {
	sum := sha256.Sum256(fileBytes)
	return Fingerprint{Value: hex.EncodeToString(sum[:])}
}

// FallbackFingerprint derives a fingerprint from vendor and invoice number
// when file bytes are unavailable. Two distinct files sharing an invoice
// number collide under this scheme, so the result is marked weak.
func FallbackFingerprint(vendor, invoiceNumber string) Fingerprint {
	key := strings.ToLower(strings.TrimSpace(vendor)) + "|" + strings.ToLower(strings.TrimSpace(invoiceNumber))
	sum := sha256.Sum256([]byte(key))
	return Fingerprint{Value: hex.EncodeToString(sum[:]), Weak: true}
}
