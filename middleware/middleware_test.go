package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"adaptlyAPI/internal/identity"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(ctx context.Context, token string) (string, error) {
	sub, ok := f[token]
	if !ok {
		return "", errors.New("token rejected")
	}
	return sub, nil
}

type fixedProvider struct{ id identity.Identity }

func (p fixedProvider) CurrentIdentity() identity.Identity     { return p.id }
func (p fixedProvider) OnIdentityChange(fn identity.ChangeFunc) {}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetIdentity(r.Context())
		w.Write([]byte(id.ID))
	})
}

func TestSessionMiddleware(t *testing.T) {
	verifier := fakeVerifier{"good": "user_1", "other": "user_2"}

	cases := []struct {
		name   string
		id     identity.Identity
		header string
		status int
		body   string
	}{
		{"anonymous", identity.Anonymous, "", http.StatusUnauthorized, ""},
		{"guest without token", identity.Guest("guest_1"), "", http.StatusOK, "guest_1"},
		{"account without token", identity.Account("user_1"), "", http.StatusUnauthorized, ""},
		{"account bad format", identity.Account("user_1"), "good", http.StatusUnauthorized, ""},
		{"account rejected token", identity.Account("user_1"), "Bearer nope", http.StatusUnauthorized, ""},
		{"account wrong subject", identity.Account("user_1"), "Bearer other", http.StatusForbidden, ""},
		{"account ok", identity.Account("user_1"), "Bearer good", http.StatusOK, "user_1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := SessionMiddleware(fixedProvider{tc.id}, verifier)(echoIdentity())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestClerkAuthMiddlewareWithoutVerifier(t *testing.T) {
	h := ClerkAuthMiddleware(nil)(echoIdentity())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-in", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error": "Account sign-in is not configured"}`, rec.Body.String())
}

func TestClerkAuthMiddlewareStoresSubject(t *testing.T) {
	h := ClerkAuthMiddleware(fakeVerifier{"good": "user_1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, ok := GetClerkID(r.Context())
		assert.True(t, ok)
		w.Write([]byte(sub))
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-in", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "user_1", rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 2)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	l.prune(0)
	assert.Empty(t, l.visitors)
}

func TestMonitorMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MonitorMiddleware)
	r.HandleFunc("/api/v1/tasks/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tasks/{id}/complete", routeLabel(r))
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tasks/abc/complete", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsTotal.WithLabelValues("/api/v1/tasks/{id}/complete", http.MethodPost, "418")))
}

func TestBasicAuthMiddleware(t *testing.T) {
	h := BasicAuthMiddleware("ops", "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	closed := BasicAuthMiddleware("", "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("", "")
	rec = httptest.NewRecorder()
	closed.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInitPrometheusRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { InitPrometheus(reg) })

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
