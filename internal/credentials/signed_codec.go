package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
)

// tokenClaims is the JWT payload. The secret travels sealed, bound to the name.
type tokenClaims struct {
	SealedSecret string `json:"sec"`
	jwt.RegisteredClaims
}

// SignedCodec carries the pair in a short-lived HS256 JWT. The secret claim is sealed with
// XChaCha20-Poly1305 so a photographed code reveals nothing and stops working after ttl.
type SignedCodec struct {
	signingKey []byte
	sealKey    [32]byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// NewSignedCodec creates a signed codec. key must be non-empty; ttl bounds how long a shown code is accepted.
func NewSignedCodec(key, issuer string, ttl time.Duration) (*SignedCodec, error) {
	if key == "" {
		return nil, errors.New("token signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &SignedCodec{
		signingKey: []byte(key),
		sealKey:    sha256.Sum256([]byte("gymdesk-credential-seal:" + key)),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// Encode produces a signed token for name and secret. It accepts exactly the pairs PlainCodec
// accepts, so the two codecs stay interchangeable.
func (c *SignedCodec) Encode(name, secret string) (string, error) {
	if err := checkParts(name, secret); err != nil {
		return "", err
	}

	sealed, err := c.seal(name, secret)
	if err != nil {
		return "", fmt.Errorf("failed to seal secret: %w", err)
	}

	now := c.now()
	claims := tokenClaims{
		SealedSecret: sealed,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Decode verifies and opens a token produced by Encode. Every failure is ErrMalformedToken.
func (c *SignedCodec) Decode(token string) (string, string, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	name := claims.Subject
	if name == "" || claims.SealedSecret == "" {
		return "", "", fmt.Errorf("%w: missing claims", ErrMalformedToken)
	}

	secret, err := c.open(name, claims.SealedSecret)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return name, secret, nil
}

func (c *SignedCodec) seal(name, secret string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.sealKey[:])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(secret)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(secret), []byte(name))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *SignedCodec) open(name, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("sealed secret: %w", err)
	}
	aead, err := chacha20poly1305.NewX(c.sealKey[:])
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed secret too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	secret, err := aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return "", fmt.Errorf("sealed secret: %w", err)
	}
	return string(secret), nil
}
