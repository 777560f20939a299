package credentials

import (
	"crypto/rand"
	"math/big"
)

// secretChars omits look-alike characters and '&' so generated secrets are always encodable
const secretChars = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// SecretLength is the length of secrets produced by GenerateSecret
const SecretLength = 10

// GenerateSecret generates a random initial secret for a member registered at the front desk
func GenerateSecret() (string, error) {
	secret := make([]byte, SecretLength)
	max := big.NewInt(int64(len(secretChars)))

	for i := range secret {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		secret[i] = secretChars[num.Int64()]
	}

	return string(secret), nil
}
