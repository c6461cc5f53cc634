package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/menagerie/menagerie/internal/auth"
	"github.com/menagerie/menagerie/internal/service"
)

// APIKeyHeader and APIKeyQueryParam are the two places a key may be
// presented. Both are checked, header first.
const (
	APIKeyHeader     = "api-key"
	APIKeyQueryParam = "api-key"
)

// AdminSecretHeader carries the registry admin secret for key management.
const AdminSecretHeader = "X-Admin-Secret"

// forbiddenBody is the single fixed rejection body for the key gate.
// One message for every failure mode, so callers cannot probe which
// check tripped.
const forbiddenBody = `{"detail": "Wrong, revoked, or expired API key."}`

// KeyVerifier verifies a presented API key against the registry.
type KeyVerifier interface {
	VerifyAPIKey(ctx context.Context, key string) (service.KeyVerdict, error)
}

// APIKeyGate returns a middleware that admits only requests carrying a
// valid, active API key. Everything else gets 403 with a fixed body.
func APIKeyGate(verifier KeyVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				logKeyRejection(logger, r, "missing_key")
				writeForbidden(w)
				return
			}

			verdict, err := verifier.VerifyAPIKey(r.Context(), key)
			if err != nil {
				// Registry failure: fail closed, but log as a fault.
				logger.Error("API key verification error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeForbidden(w)
				return
			}

			if !verdict.Valid() {
				logKeyRejection(logger, r, string(verdict.Reason))
				writeForbidden(w)
				return
			}

			ctx := auth.ContextWithKeyID(r.Context(), verdict.KeyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminSecret returns a middleware guarding key-management routes.
// The presented header is compared in constant time against the
// configured registry secret.
func RequireAdminSecret(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(AdminSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				logKeyRejection(logger, r, "bad_admin_secret")
				writeForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKey pulls the key from the api-key header or query parameter.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	return r.URL.Query().Get(APIKeyQueryParam)
}

func logKeyRejection(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("API key rejected",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(forbiddenBody))
}
