// Package secrets stores the model endpoint credential in the OS
// keychain so it never has to live in the config file.
package secrets

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	service = "deskpilot"
	account = "anthropic-api-key"

	// EnvAPIKey is consulted before the keychain.
	EnvAPIKey = "DESKPILOT_API_KEY"
)

// SetAPIKey stores the credential in the keychain.
func SetAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}
	return keyring.Set(service, account, key)
}

// ClearAPIKey removes the credential from the keychain.
func ClearAPIKey() error {
	err := keyring.Delete(service, account)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// keychainGet is swapped out in tests.
var keychainGet = func() (string, error) {
	return keyring.Get(service, account)
}

// ResolveAPIKey returns the credential, checking the explicit config
// value first, then the environment, then the keychain.
func ResolveAPIKey(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if env := os.Getenv(EnvAPIKey); env != "" {
		return env, nil
	}
	key, err := keychainGet()
	if err == keyring.ErrNotFound || (err == nil && key == "") {
		return "", fmt.Errorf("no API key configured: set agent.apiKey, %s, or run \"deskpilot key set\"", EnvAPIKey)
	}
	if err != nil {
		return "", fmt.Errorf("read keychain: %w", err)
	}
	return key, nil
}
