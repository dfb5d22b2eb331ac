package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "api")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/transaction/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/transaction/a", "/api/transaction/b", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/transaction/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/health", "200")))
}

func TestObserveVerification(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "api")

	m.ObserveVerification("success")
	m.ObserveVerification("already_used")
	m.ObserveVerification("already_used")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QRVerifications.WithLabelValues("already_used")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "api")
	m.ObserveVerification("success")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "qless_api_qr_verifications_total"))
}
