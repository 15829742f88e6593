package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/blog", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/blog", 200, 7*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)
	m.AuthFailure("invalid_token")
	m.NotificationFailed()
	m.NotificationSent()
	m.NotificationSent()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/blog", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("invalid_token")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.AuthFailure("expired")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `bcon_auth_failures_total{reason="expired"} 1`))
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.NotificationSent()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.notifications.WithLabelValues("sent")))
}
