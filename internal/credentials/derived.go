package credentials

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// New returns the codec for format ("plain" or "signed")
func New(format, signingKey, issuer string, ttl time.Duration) (Codec, error) {
	switch strings.ToLower(format) {
	case "", "plain":
		return NewPlainCodec(), nil
	case "signed":
		return NewSignedCodec(signingKey, issuer, ttl)
	default:
		return nil, fmt.Errorf("unknown token format %q", format)
	}
}

// DerivedToken holds the token a member device displays. The host calls Update whenever the
// name or secret changes; the token is recomputed then and only then.
type DerivedToken struct {
	codec Codec

	mu     sync.Mutex
	name   string
	secret string
	token  string
	valid  bool
}

// NewDerivedToken creates an empty holder around codec
func NewDerivedToken(codec Codec) *DerivedToken {
	return &DerivedToken{codec: codec}
}

// Update records the current identity and returns the token to display. A changed pair always
// yields a freshly encoded token; an unchanged pair returns the cached one.
func (d *DerivedToken) Update(name, secret string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.valid && name == d.name && secret == d.secret {
		return d.token, nil
	}

	d.valid = false
	d.token = ""
	d.name, d.secret = name, secret

	token, err := d.codec.Encode(name, secret)
	if err != nil {
		return "", err
	}
	d.token = token
	d.valid = true
	return token, nil
}

// Token returns the current token and whether one is available
func (d *DerivedToken) Token() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.token, d.valid
}

// Invalidate drops the cached token, e.g. after logout or after a time-limited token was shown
func (d *DerivedToken) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token = ""
	d.valid = false
}
