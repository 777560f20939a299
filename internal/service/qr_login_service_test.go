package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/credentials"
	"gymdesk/internal/logging"
	"gymdesk/internal/models"
)

type fakeAuthenticator struct {
	calls   int
	name    string
	secret  string
	session *models.Session
	err     error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, name, secret string) (*models.Session, error) {
	f.calls++
	f.name, f.secret = name, secret
	return f.session, f.err
}

var errAccountLocked = errors.New("account locked")

func TestQRLoginScan(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		authErr   error
		wantCalls int
		wantErr   error
	}{
		{name: "valid token", token: "Alice&&p@ss", wantCalls: 1},
		{name: "malformed token", token: "no-delimiter-here", wantCalls: 0, wantErr: credentials.ErrMalformedToken},
		{name: "empty secret", token: "Alice&&", wantCalls: 0, wantErr: credentials.ErrMalformedToken},
		{name: "rejected credentials", token: "Alice&&wrong", authErr: ErrInvalidCredentials, wantCalls: 1, wantErr: ErrInvalidCredentials},
		{name: "collaborator error passes through", token: "Alice&&p@ss", authErr: errAccountLocked, wantCalls: 1, wantErr: errAccountLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuthenticator{session: &models.Session{ID: "s-1"}, err: tt.authErr}
			if tt.authErr != nil {
				auth.session = nil
			}
			svc := NewQRLoginService(credentials.NewPlainCodec(), auth, logging.Discard())

			session, err := svc.Scan(context.Background(), tt.token)
			assert.Equal(t, tt.wantCalls, auth.calls)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
				if tt.authErr != nil {
					assert.Same(t, tt.authErr, err, "authenticator errors are returned unchanged")
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s-1", session.ID)
			assert.Equal(t, "Alice", auth.name)
			assert.Equal(t, "p@ss", auth.secret)
		})
	}
}

func TestQRLoginScanSignedCodec(t *testing.T) {
	codec, err := credentials.NewSignedCodec("kiosk-key", "gymdesk", time.Minute)
	require.NoError(t, err)
	auth := &fakeAuthenticator{session: &models.Session{ID: "s-2"}}
	svc := NewQRLoginService(codec, auth, logging.Discard())

	token, err := codec.Encode("Alice", "p@ss")
	require.NoError(t, err)

	session, err := svc.Scan(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "s-2", session.ID)
	assert.Equal(t, 1, auth.calls)

	_, err = svc.Scan(context.Background(), "Alice&&p@ss")
	assert.ErrorIs(t, err, credentials.ErrMalformedToken)
	assert.Equal(t, 1, auth.calls)
}

func TestQRLoginEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.memberService().RegisterMember(ctx, RegisterMemberInput{Username: "alice", TaxNumber: "123456789"})
	require.NoError(t, err)

	svc := NewQRLoginService(credentials.NewPlainCodec(), env.auth, logging.Discard())
	session, err := svc.Scan(ctx, registered.CredentialToken)
	require.NoError(t, err)

	user, err := env.auth.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, user.ID)

	_, err = svc.Scan(ctx, "alice&&not-the-secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
