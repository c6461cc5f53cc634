package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/menagerie/menagerie/internal/auth"
	"github.com/menagerie/menagerie/internal/service"
)

// stubVerifier returns a canned verdict for a single known key.
type stubVerifier struct {
	key     string
	verdict service.KeyVerdict
	err     error
}

func (s *stubVerifier) VerifyAPIKey(_ context.Context, key string) (service.KeyVerdict, error) {
	if s.err != nil {
		return service.KeyVerdict{}, s.err
	}
	if key == s.key {
		return s.verdict, nil
	}
	return service.KeyVerdict{Reason: service.KeyUnknown}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func assertForbiddenBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["detail"] != "Wrong, revoked, or expired API key." {
		t.Errorf("unexpected detail: %q", body["detail"])
	}
}

func TestAPIKeyGate_ValidKeyViaHeader(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{
		key:     "mk_live_7a9b3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		verdict: service.KeyVerdict{KeyID: "key-1", Reason: service.KeyOK},
	}

	var called bool
	var gotKeyID string
	handler := APIKeyGate(verifier, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotKeyID = auth.KeyIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/secure-data/", nil)
	req.Header.Set(APIKeyHeader, verifier.key)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called")
	}
	if gotKeyID != "key-1" {
		t.Errorf("expected key id in context, got %q", gotKeyID)
	}
}

func TestAPIKeyGate_ValidKeyViaQueryParam(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{
		key:     "mk_live_7a9b3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		verdict: service.KeyVerdict{KeyID: "key-1", Reason: service.KeyOK},
	}

	var called bool
	handler := APIKeyGate(verifier, discardLogger())(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/secure-data/?api-key="+verifier.key, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called")
	}
}

func TestAPIKeyGate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verdict service.KeyVerdict
	}{
		{"unknown", service.KeyVerdict{Reason: service.KeyUnknown}},
		{"revoked", service.KeyVerdict{KeyID: "key-1", Reason: service.KeyRevoked}},
		{"expired", service.KeyVerdict{KeyID: "key-1", Reason: service.KeyExpired}},
		{"malformed", service.KeyVerdict{Reason: service.KeyMalformed}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &stubVerifier{key: "the-key", verdict: tt.verdict}

			var called bool
			handler := APIKeyGate(verifier, discardLogger())(okHandler(t, &called))

			req := httptest.NewRequest(http.MethodGet, "/secure-data/", nil)
			req.Header.Set(APIKeyHeader, "the-key")
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if called {
				t.Error("expected handler not to be called")
			}
			assertForbiddenBody(t, rec)
		})
	}
}

func TestAPIKeyGate_MissingKey(t *testing.T) {
	t.Parallel()

	var called bool
	handler := APIKeyGate(&stubVerifier{}, discardLogger())(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/secure-data/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if called {
		t.Error("expected handler not to be called")
	}
	assertForbiddenBody(t, rec)
}

func TestAPIKeyGate_RegistryFailureFailsClosed(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{err: errors.New("connection refused")}

	var called bool
	handler := APIKeyGate(verifier, discardLogger())(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/secure-data/", nil)
	req.Header.Set(APIKeyHeader, "mk_live_7a9b3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if called {
		t.Error("expected handler not to be called on registry failure")
	}
	assertForbiddenBody(t, rec)
}

func TestRequireAdminSecret(t *testing.T) {
	t.Parallel()

	var called bool
	handler := RequireAdminSecret("sekrit", discardLogger())(okHandler(t, &called))

	// Wrong secret
	req := httptest.NewRequest(http.MethodPost, "/auth/keys", nil)
	req.Header.Set(AdminSecretHeader, "guess")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if called {
		t.Error("expected handler not to be called with wrong secret")
	}
	assertForbiddenBody(t, rec)

	// Correct secret
	req = httptest.NewRequest(http.MethodPost, "/auth/keys", nil)
	req.Header.Set(AdminSecretHeader, "sekrit")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !called {
		t.Error("expected handler to be called with correct secret")
	}
}

func TestRequireAdminSecret_EmptyConfiguredSecretFailsClosed(t *testing.T) {
	t.Parallel()

	var called bool
	handler := RequireAdminSecret("", discardLogger())(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodPost, "/auth/keys", nil)
	req.Header.Set(AdminSecretHeader, "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("expected gate to fail closed when no secret is configured")
	}
}
