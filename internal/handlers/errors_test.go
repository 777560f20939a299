package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/credentials"
	"gymdesk/internal/logging"
	"gymdesk/internal/service"
	"gymdesk/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(logging.Discard(), recorder, 418, "Teapot", "", nil)

	assert.Equal(t, 418, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Teapot", body.Error)
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "info", "text")
	recorder := httptest.NewRecorder()

	respondWithError(logger, recorder, 500, "Internal server error", "", errors.New("boom"))

	logOutput := buf.String()
	assert.Contains(t, logOutput, "Internal server error")
	assert.Contains(t, logOutput, "boom")
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: validation.ValidationError{Field: "date", Message: "bad"}, status: http.StatusBadRequest},
		{name: "malformed token", err: fmt.Errorf("%w: delimiter not found", credentials.ErrMalformedToken), status: http.StatusBadRequest},
		{name: "invalid credentials", err: service.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{name: "expired session", err: service.ErrSessionExpired, status: http.StatusUnauthorized},
		{name: "username taken", err: service.ErrUsernameTaken, status: http.StatusConflict},
		{name: "tax number taken", err: service.ErrTaxNumberTaken, status: http.StatusConflict},
		{name: "duplicate completion", err: fmt.Errorf("%w: session 1", service.ErrDuplicateCompletion), status: http.StatusConflict},
		{name: "unknown reference", err: service.ErrUnknownReference, status: http.StatusUnprocessableEntity},
		{name: "reason required", err: service.ErrReasonRequired, status: http.StatusUnprocessableEntity},
		{name: "member not found", err: service.ErrMemberNotFound, status: http.StatusNotFound},
		{name: "workout not found", err: service.ErrWorkoutNotFound, status: http.StatusNotFound},
		{name: "unexpected", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(logging.Discard(), recorder, tt.err, "")
			assert.Equal(t, tt.status, recorder.Code)
			assert.NotContains(t, recorder.Body.String(), "disk on fire")
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"a&&b","extra":1}`))
	var body qrLoginRequest
	err := decodeJSON(httptest.NewRecorder(), req, &body)
	assert.True(t, validation.IsValidationError(err))
}
