package service

import (
	"context"
	"log/slog"

	"gymdesk/internal/credentials"
	"gymdesk/internal/models"
)

// QRLoginService turns a scanned credential token into a login session
type QRLoginService struct {
	codec  credentials.Codec
	auth   Authenticator
	logger *slog.Logger
}

// NewQRLoginService creates a scanner-side login service
func NewQRLoginService(codec credentials.Codec, auth Authenticator, logger *slog.Logger) *QRLoginService {
	return &QRLoginService{codec: codec, auth: auth, logger: logger}
}

// Scan decodes raw and authenticates with the embedded pair. An undecodable token yields
// credentials.ErrMalformedToken without contacting the authenticator; otherwise the
// authenticator is called exactly once and its error is returned as is.
func (s *QRLoginService) Scan(ctx context.Context, raw string) (*models.Session, error) {
	name, secret, err := s.codec.Decode(raw)
	if err != nil {
		s.logger.Debug("rejected malformed credential token", "error", err)
		return nil, err
	}

	session, err := s.auth.Authenticate(ctx, name, secret)
	if err != nil {
		return nil, err
	}
	return session, nil
}
