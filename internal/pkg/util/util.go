package util

import (
	"github.com/google/uuid"
)

// GenerateOpaqueCode returns a random opaque code, used for ticket
// identifiers and access token codes.
func GenerateOpaqueCode() string {
	return uuid.NewString()
}
