package util

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// GenerateID generates a time-prefixed unique identifier.
func GenerateID() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return time.Now().UTC().Format("20060102150405") + "-" + hex.EncodeToString(suffix)
}
