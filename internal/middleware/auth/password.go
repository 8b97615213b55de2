package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when a user does not exist so a failed login
// takes the same time either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("libhub-dummy-password"), bcrypt.DefaultCost)

// HashPassword creates a bcrypt hash from the given plaintext password.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyPassword checks if the provided plaintext password matches the stored bcrypt hash.
func VerifyPassword(hashedPassword, providedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(providedPassword))
}

// BurnCompare spends one bcrypt comparison on a throwaway hash.
func BurnCompare(providedPassword string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(providedPassword))
}
