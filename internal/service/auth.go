package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/menagerie/menagerie/internal/auth"
	"github.com/menagerie/menagerie/internal/model"
	"github.com/menagerie/menagerie/internal/repository"
)

// Auth service errors.
var (
	ErrBadCredentials  = errors.New("incorrect username or password")
	ErrAPIKeyNotFound  = errors.New("API key not found")
	ErrKeyNotRenewable = errors.New("API key cannot be renewed")
)

// KeyReason classifies the outcome of an API key verification.
type KeyReason string

const (
	KeyOK        KeyReason = "ok"
	KeyMalformed KeyReason = "malformed"
	KeyUnknown   KeyReason = "not_found"
	KeyRevoked   KeyReason = "revoked"
	KeyExpired   KeyReason = "expired"
)

// KeyVerdict is the result of verifying a presented API key.
type KeyVerdict struct {
	KeyID  string
	Reason KeyReason
}

// Valid reports whether the key was accepted.
func (v KeyVerdict) Valid() bool {
	return v.Reason == KeyOK
}

// KeyStore is the persistence contract for the API key registry.
// *repository.Repository satisfies it.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
	RenewAPIKey(ctx context.Context, id string, expiresAt time.Time) error
}

// VerdictCache caches positive key verdicts keyed by a quick hash of the
// plaintext. Negative verdicts are never cached.
type VerdictCache interface {
	GetKeyVerdict(ctx context.Context, cacheKey string) (string, bool)
	SetKeyVerdict(ctx context.Context, cacheKey, keyID string) error
}

// AuthService owns both credential mechanisms: the bearer-token login and
// the API-key gate. The two share no state.
type AuthService struct {
	issuer   *auth.TokenIssuer
	username string
	password string
	keys     KeyStore
	cache    VerdictCache
	keyTTL   time.Duration
	now      func() time.Time
}

// AuthConfig bundles the AuthService dependencies.
type AuthConfig struct {
	Issuer        *auth.TokenIssuer
	Username      string
	Password      string
	Keys          KeyStore
	Cache         VerdictCache // optional
	KeyDefaultTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthConfig) *AuthService {
	ttl := cfg.KeyDefaultTTL
	if ttl <= 0 {
		ttl = 360 * time.Hour
	}
	return &AuthService{
		issuer:   cfg.Issuer,
		username: cfg.Username,
		password: cfg.Password,
		keys:     cfg.Keys,
		cache:    cfg.Cache,
		keyTTL:   ttl,
		now:      time.Now,
	}
}

// Login compares the credentials against the configured pair and issues a
// signed token on match. The comparison is constant time and the error
// never says which field was wrong.
func (s *AuthService) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return "", ErrBadCredentials
	}

	token, err := s.issuer.Issue(username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// VerifyToken checks a bearer token and returns its subject.
func (s *AuthService) VerifyToken(token string) (string, error) {
	return s.issuer.Verify(token)
}

// TokenTTL returns the configured token validity window.
func (s *AuthService) TokenTTL() time.Duration {
	return s.issuer.TTL()
}

// VerifyAPIKey checks a presented key against the registry and returns a
// verdict. A non-nil error means the registry itself failed; all
// caller-attributable outcomes are verdict reasons, not errors.
func (s *AuthService) VerifyAPIKey(ctx context.Context, key string) (KeyVerdict, error) {
	parsed, err := auth.ParseAPIKey(key)
	if err != nil {
		return KeyVerdict{Reason: KeyMalformed}, nil
	}

	// Positive verdicts are cached; anything else falls through to the
	// registry so revocation takes effect within the cache TTL at worst.
	cacheKey := auth.QuickHash(key)
	if s.cache != nil {
		if keyID, ok := s.cache.GetKeyVerdict(ctx, cacheKey); ok {
			return KeyVerdict{KeyID: keyID, Reason: KeyOK}, nil
		}
	}

	candidates, err := s.keys.GetAPIKeysByPrefix(ctx, parsed.Prefix)
	if err != nil {
		return KeyVerdict{}, fmt.Errorf("look up API key: %w", err)
	}

	// Verify against each candidate (handles prefix collisions).
	var matched *model.APIKey
	for _, candidate := range candidates {
		ok, err := auth.VerifyKey(key, candidate.KeyHash)
		if err != nil {
			continue
		}
		if ok {
			matched = candidate
			break
		}
	}

	if matched == nil {
		return KeyVerdict{Reason: KeyUnknown}, nil
	}
	if matched.IsRevoked() {
		return KeyVerdict{KeyID: matched.ID, Reason: KeyRevoked}, nil
	}
	if matched.IsExpired(s.now()) {
		return KeyVerdict{KeyID: matched.ID, Reason: KeyExpired}, nil
	}

	if s.cache != nil {
		_ = s.cache.SetKeyVerdict(ctx, cacheKey, matched.ID)
	}

	return KeyVerdict{KeyID: matched.ID, Reason: KeyOK}, nil
}

// MintedKey pairs a new registry record with its plaintext, which is
// returned to the caller once and never stored.
type MintedKey struct {
	Record    *model.APIKey
	Plaintext string
}

// MintKey creates a new API key record. Unless neverExpires is set the key
// expires after the configured default window.
func (s *AuthService) MintKey(ctx context.Context, name string, neverExpires bool) (*MintedKey, error) {
	generated, err := auth.GenerateAPIKey(auth.EnvLive)
	if err != nil {
		return nil, fmt.Errorf("generate API key: %w", err)
	}

	record := &model.APIKey{
		ID:        ulid.Make().String(),
		KeyHash:   generated.Hash,
		KeyPrefix: generated.Prefix,
		Name:      name,
		CreatedAt: s.now(),
	}
	if !neverExpires {
		expiresAt := record.CreatedAt.Add(s.keyTTL)
		record.ExpiresAt = &expiresAt
	}

	if err := s.keys.CreateAPIKey(ctx, record); err != nil {
		return nil, fmt.Errorf("store API key: %w", err)
	}

	return &MintedKey{Record: record, Plaintext: generated.Plaintext}, nil
}

// ListKeys returns all registry records.
func (s *AuthService) ListKeys(ctx context.Context) ([]*model.APIKey, error) {
	keys, err := s.keys.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list API keys: %w", err)
	}
	return keys, nil
}

// RevokeKey marks a key as revoked.
func (s *AuthService) RevokeKey(ctx context.Context, id string) error {
	if err := s.keys.RevokeAPIKey(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return ErrAPIKeyNotFound
		}
		return fmt.Errorf("revoke API key: %w", err)
	}
	return nil
}

// RenewKey pushes a key's expiry out by the default window. Revoked keys
// and never-expiring keys are not renewable.
func (s *AuthService) RenewKey(ctx context.Context, id string) (*model.APIKey, error) {
	key, err := s.keys.GetAPIKeyByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("get API key: %w", err)
	}

	if key.IsRevoked() || key.ExpiresAt == nil {
		return nil, ErrKeyNotRenewable
	}

	expiresAt := s.now().Add(s.keyTTL)
	if err := s.keys.RenewAPIKey(ctx, id, expiresAt); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("renew API key: %w", err)
	}

	key.ExpiresAt = &expiresAt
	return key, nil
}
