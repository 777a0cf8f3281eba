// Package auth provides validation of the static API key carried by incoming routing requests.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// HeaderAPIKey is the request header carrying the caller's API key.
const HeaderAPIKey = "X-Api-Key"

var (
	// ErrMissingAPIKey is returned when the request carries no API key header.
	ErrMissingAPIKey = errors.New("x-api-key header missing")
	// ErrAPIKeyMismatch is returned when the API key header does not match the configured key.
	ErrAPIKeyMismatch = errors.New("x-api-key mismatch")
)

// APIKey represents the shared secret callers must present in the X-Api-Key header.
type APIKey string

// NewAPIKey creates a new APIKey instance from the provided secret string and returns its address.
func NewAPIKey(secret string) *APIKey {
	k := APIKey(secret)
	return &k
}

// IsEmpty reports whether no secret has been configured.
func (k *APIKey) IsEmpty() bool {
	return k == nil || *k == ""
}

// Validate checks the X-Api-Key header against the configured key.
// Headers are expected with lower-cased names. An empty configured key is compared like any other value.
func (k *APIKey) Validate(headers map[string]string) error {
	provided, found := headers[strings.ToLower(HeaderAPIKey)]
	if !found {
		return ErrMissingAPIKey
	}

	var expected string
	if k != nil {
		expected = string(*k)
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return ErrAPIKeyMismatch
	}
	return nil
}
