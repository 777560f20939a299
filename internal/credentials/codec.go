// Package credentials turns a member's login name and secret into a single string that a member
// device can show as an optical code and a kiosk can scan back.
//
// The plain format carries the secret in cleartext. Anyone who can photograph the screen can replay
// it, so it is only suitable for co-located, single-use pairing between devices in the same room.
// It is not a credential exchange protocol. SignedCodec is a drop-in replacement with the same
// Decode shape that adds integrity and a short expiry; swap codecs through configuration, callers
// depend only on the Codec interface.
package credentials

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates name and secret in the plain token format. It may not appear in either part.
const Delimiter = "&&"

var (
	// ErrMalformedToken is returned by Decode for any token that does not yield a name and a secret
	ErrMalformedToken = errors.New("malformed credential token")
	// ErrReservedDelimiter is returned by Encode when an input contains Delimiter
	ErrReservedDelimiter = errors.New("credential contains reserved delimiter")
	// ErrEmptyField is returned by Encode when name or secret is empty
	ErrEmptyField = errors.New("credential name and secret are required")
)

// Codec converts a (name, secret) pair to an opaque token and back
type Codec interface {
	Encode(name, secret string) (string, error)
	Decode(token string) (name, secret string, err error)
}

// PlainCodec implements the "name&&secret" format
type PlainCodec struct{}

// NewPlainCodec creates the plaintext codec
func NewPlainCodec() PlainCodec {
	return PlainCodec{}
}

// Encode joins name and secret with Delimiter. Besides Delimiter itself, a single '&' next to the
// delimiter is reserved: a name ending in '&' or a secret starting with '&' yields ErrReservedDelimiter,
// because "a&" + "&&" + "b" cannot be told apart from "a" + "&&" + "&b".
func (PlainCodec) Encode(name, secret string) (string, error) {
	if err := checkParts(name, secret); err != nil {
		return "", err
	}
	return name + Delimiter + secret, nil
}

// Decode splits a token produced by Encode on the first delimiter. The delimiter must occur
// exactly once and both sides must be non-empty.
func (PlainCodec) Decode(token string) (string, string, error) {
	name, secret, found := strings.Cut(token, Delimiter)
	if !found {
		return "", "", fmt.Errorf("%w: delimiter not found", ErrMalformedToken)
	}
	if strings.Contains(secret, Delimiter) || strings.HasPrefix(secret, "&") {
		return "", "", fmt.Errorf("%w: delimiter occurs more than once", ErrMalformedToken)
	}
	if name == "" || secret == "" {
		return "", "", fmt.Errorf("%w: empty name or secret", ErrMalformedToken)
	}
	return name, secret, nil
}

// ValidatePart reports whether s can be carried as a name or secret
func ValidatePart(s string) error {
	if s == "" {
		return ErrEmptyField
	}
	if strings.Contains(s, Delimiter) {
		return ErrReservedDelimiter
	}
	return nil
}

func checkParts(name, secret string) error {
	if err := ValidatePart(name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if err := ValidatePart(secret); err != nil {
		return fmt.Errorf("secret: %w", err)
	}
	// "a&" + "&&" + "b" would decode as ("a", "&b")
	if strings.HasSuffix(name, "&") || strings.HasPrefix(secret, "&") {
		return fmt.Errorf("%w: '&' adjacent to the delimiter", ErrReservedDelimiter)
	}
	return nil
}
