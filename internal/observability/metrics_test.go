package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCompletion(t *testing.T) {
	before := testutil.ToFloat64(completionsRecorded.WithLabelValues("false"))
	ts := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	RecordCompletion(false, ts)

	assert.Equal(t, before+1, testutil.ToFloat64(completionsRecorded.WithLabelValues("false")))
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(completionPersistGauge))
}

func TestRecordCompletionConflict(t *testing.T) {
	before := testutil.ToFloat64(completionConflicts)
	RecordCompletionConflict()
	assert.Equal(t, before+1, testutil.ToFloat64(completionConflicts))
}

func TestRecordLogin(t *testing.T) {
	before := testutil.ToFloat64(logins.WithLabelValues(LoginMethodQR, LoginMalformed))
	RecordLogin(LoginMethodQR, LoginMalformed)
	assert.Equal(t, before+1, testutil.ToFloat64(logins.WithLabelValues(LoginMethodQR, LoginMalformed)))
}

func TestObserveHTTPRequest(t *testing.T) {
	ObserveHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(httpDuration, "gymdesk_http_request_duration_seconds"))
}
