// Package fizzbuzz implements the sequence generation core: the request
// value object, substitution rules, and the generator.
package fizzbuzz

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Request holds the parameters of a sequence request. The six fields together
// form the request identity used for caching and statistics.
type Request struct {
	Start    int    `json:"start"`
	Limit    int    `json:"limit"`
	Divisor1 int    `json:"divisor1"`
	Divisor2 int    `json:"divisor2"`
	Str1     string `json:"str1"`
	Str2     string `json:"str2"`
}

// Fingerprint returns a deterministic key for the request. The JSON encoding
// of the struct is stable (field order follows the struct definition), so
// equal requests always hash to the same value.
func (r Request) Fingerprint() string {
	encoded, _ := json.Marshal(r)
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
