package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	mrand "math/rand/v2"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// GenerateSalt returns a random per-account salt
func GenerateSalt() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// passwordDigest keeps the bcrypt input at 64 bytes, under its 72 byte limit,
// whatever the password length
func passwordDigest(password, salt string) []byte {
	sum := sha256.Sum256([]byte(salt + password))
	digest := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(digest, sum[:])
	return digest
}

func HashPassword(password, salt string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordDigest(password, salt), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func ValidatePassword(password, hash, salt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordDigest(password, salt)) == nil
}

// GenerateOTP returns a six digit code
func GenerateOTP() int {
	return 100000 + mrand.IntN(900000)
}

// GenerateOrderCode returns a display code in [1000, 89999]
func GenerateOrderCode() string {
	return fmt.Sprintf("%d", 1000+mrand.IntN(89000))
}

func newCredentials(password string) (hash, salt string, err error) {
	salt, err = GenerateSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = HashPassword(password, salt)
	return hash, salt, err
}
