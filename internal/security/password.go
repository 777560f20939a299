package security

import (
	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt cost used for new hashes. Tests lower it to keep runs fast.
var hashCost = bcrypt.DefaultCost

// HashPassword hashes a secret using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a secret with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
