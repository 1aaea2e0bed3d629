package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// GenerateRegistrationID returns a UUID v4. Registration identifiers are
// generated before the store is touched, never by the database.
func GenerateRegistrationID() string {
	return uuid.NewString()
}

// GenerateUniqueHash returns a random token for QR payload salting. Falls
// back to raw random hex if UUID generation is unavailable.
func GenerateUniqueHash() string {
	id, err := uuid.NewRandom()
	if err != nil {
		buf := make([]byte, 16)
		rand.Read(buf)
		return fmt.Sprintf("%x", buf)
	}
	return id.String()
}
