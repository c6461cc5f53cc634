package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// keyIDContextKey is the context key for the verified API key's ID.
	keyIDContextKey contextKey = "api_key_id"
	// subjectContextKey is the context key for a verified token subject.
	subjectContextKey contextKey = "token_subject"
)

// ContextWithKeyID records the verified API key's ID on the context.
func ContextWithKeyID(ctx context.Context, keyID string) context.Context {
	return context.WithValue(ctx, keyIDContextKey, keyID)
}

// KeyIDFromContext retrieves the verified API key ID from the context.
// Returns empty string if the request was not key-authenticated.
func KeyIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(keyIDContextKey).(string)
	return id
}

// ContextWithSubject records a verified bearer-token subject on the context.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext retrieves the verified token subject from the context.
// Returns empty string if the request was not token-authenticated.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectContextKey).(string)
	return subject
}
