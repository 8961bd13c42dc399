// Package sign computes the request signature expected by the HNTV API.
package sign

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Signature returns the lowercase hex SHA-256 digest of the shared secret
// concatenated with the decimal form of the Unix timestamp. The upstream API
// validates this exact construction, so it must never change.
func Signature(secret string, timestamp int64) string {
	sum := sha256.Sum256([]byte(secret + strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(sum[:])
}
