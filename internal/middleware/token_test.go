package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/menagerie/menagerie/internal/auth"
)

func TestRequireToken_ValidToken(t *testing.T) {
	t.Parallel()

	issuer, err := auth.NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	signed, err := issuer.Issue("admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var subject string
	handler := RequireToken(issuer, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = auth.SubjectFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if subject != "admin" {
		t.Errorf("expected subject admin in context, got %q", subject)
	}
}

func TestRequireToken_Rejections(t *testing.T) {
	t.Parallel()

	issuer, err := auth.NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	otherIssuer, _ := auth.NewTokenIssuer("other-secret", "HS256", 30*time.Minute)
	forged, _ := otherIssuer.Issue("admin")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong signature", "Bearer " + forged},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var called bool
			handler := RequireToken(issuer, discardLogger())(okHandler(t, &called))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if called {
				t.Error("expected handler not to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}
		})
	}
}
