// Package credential keeps the API signing secret in the system keyring.
package credential

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName  = "nudge"
	apiSecretKey = "api-secret"
)

// Vault reads and writes secrets in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// NewVault wraps an already opened keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Open returns a Vault over the platform keyring, falling back to an
// encrypted file store.
func Open() (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/nudge/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("nudge-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewVault(ring), nil
}

// Get retrieves a credential value by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key, value string) error {
	if err := v.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// APISecret returns the HS256 secret for the HTTP API, generating and
// storing one on first use.
func (v *Vault) APISecret() ([]byte, error) {
	secret, err := v.Get(apiSecretKey)
	if err == nil && secret != "" {
		return []byte(secret), nil
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating api secret: %w", err)
	}
	secret = hex.EncodeToString(buf)
	if err := v.Set(apiSecretKey, secret); err != nil {
		return nil, err
	}
	return []byte(secret), nil
}
