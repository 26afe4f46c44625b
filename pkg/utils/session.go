package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID derives a coarse session ID from input. It changes every
// hour.
func GenerateSessionID(input string) string {
	hash := md5.Sum([]byte(input + fmt.Sprintf("%d", time.Now().Unix()/3600)))
	return hex.EncodeToString(hash[:])[:16]
}

// MD5Hash generates MD5 hash of input string
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// GenerateRequestID returns a random UUID string.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ValidateSessionID validates if a session ID format is correct
func ValidateSessionID(sessionID string) bool {
	if len(sessionID) != 16 {
		return false
	}

	_, err := hex.DecodeString(sessionID)
	return err == nil
}
