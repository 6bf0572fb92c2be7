package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short hex digest of a public key's encoded form,
// suitable for logs and status reporting
func Fingerprint(key PublicKey) string {
	sum := sha256.Sum256(key.Encode())
	return hex.EncodeToString(sum[:8])
}
