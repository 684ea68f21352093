package service

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashToken keeps caller-supplied identifiers out of redis key names.
func hashToken(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
