package model

import "time"

// APIKey represents an API key record in the registry.
type APIKey struct {
	ID        string     `json:"id"`
	KeyHash   string     `json:"-"` // Never serialize
	KeyPrefix string     `json:"key_prefix"`
	Name      string     `json:"name,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil means never expires
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsRevoked returns true if the key has been revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// IsExpired returns true if the key has an expiry in the past.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// APIKeyCreateRequest represents a request to mint a new API key.
type APIKeyCreateRequest struct {
	Name         string `json:"name,omitempty"`
	NeverExpires bool   `json:"never_expires,omitempty"`
}

// APIKeyResponse represents an API key record without secrets.
type APIKeyResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	KeyPrefix string     `json:"key_prefix"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Revoked   bool       `json:"revoked"`
}

// ToResponse converts an APIKey to APIKeyResponse.
func (k *APIKey) ToResponse() APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		ExpiresAt: k.ExpiresAt,
		CreatedAt: k.CreatedAt,
		Revoked:   k.IsRevoked(),
	}
}

// APIKeyCreateResponse includes the plaintext key (shown only once).
type APIKeyCreateResponse struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"` // Plaintext - display once only!
	Name      string     `json:"name,omitempty"`
	KeyPrefix string     `json:"key_prefix"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
