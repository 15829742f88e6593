// Package admin manages administrator accounts: registration, credential
// checks and password rotation.
//
// Passwords are hashed with bcrypt at bcrypt.DefaultCost. The plain-text
// password never leaves this package and the hash is never serialized.
package admin

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for new password hashes.
const BcryptCost = bcrypt.DefaultCost

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash
// never matches.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
