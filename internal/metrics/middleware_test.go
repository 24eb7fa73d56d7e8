package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	r.Post("/functions/v1/rag-search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	return r
}

func serve(h http.Handler, method, path string) int {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr.Code
}

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	h := newTestRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/search", "200"))

	if code := serve(h, http.MethodPost, "/search"); code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/search", "200"))
	if after != before+1 {
		t.Errorf("http_requests_total = %f, want %f", after, before+1)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_ImplicitOKStatus(t *testing.T) {
	// The /search handler writes a body without calling WriteHeader.
	h := newTestRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/search", "200"))
	serve(h, http.MethodPost, "/search")
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/search", "200")); got != before+1 {
		t.Errorf("implicit 200 not recorded: %f", got)
	}
}

func TestMetricsMiddleware_StatusPerRoute(t *testing.T) {
	h := newTestRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/functions/v1/rag-search", "400"))

	if code := serve(h, http.MethodPost, "/functions/v1/rag-search"); code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/functions/v1/rag-search", "400"))
	if after != before+1 {
		t.Errorf("400 counter = %f, want %f", after, before+1)
	}
}

func TestMetricsMiddleware_UnknownRouteLabel(t *testing.T) {
	h := newTestRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404"))

	serve(h, http.MethodGet, "/random/path/12345")

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404"))
	if after != before+1 {
		t.Errorf("unknown route counter = %f, want %f", after, before+1)
	}
}

func TestMetricsMiddleware_InFlightReturnsToZero(t *testing.T) {
	h := newTestRouter()
	serve(h, http.MethodPost, "/search")

	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Errorf("http_requests_in_flight = %f after request, want 0", got)
	}
}

func TestRouteLabel_NoRouteContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	if got := routeLabel(req); got != "unknown" {
		t.Errorf("routeLabel() = %q, want unknown", got)
	}
}
