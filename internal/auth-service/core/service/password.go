package service

import (
	"golang.org/x/crypto/bcrypt"
)

const HashFactor = 10

func hashPassword(password string) ([]byte, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashFactor)
	return bytes, err
}

// checkPassword reports whether password matches hashed. A mismatch is
// a normal negative result, not an error.
func checkPassword(hashed []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hashed, []byte(password)) == nil
}
