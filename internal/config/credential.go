package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables consulted for credentials.
const (
	// EnvMachineToken overrides the stored credential entirely.
	EnvMachineToken = "PANTHEON_MACHINE_TOKEN"

	// EnvCredentialKey is the passphrase protecting the credential file.
	EnvCredentialKey = "PANTHEON_CREDENTIAL_KEY"
)

// credentialPrefix versions the on-disk credential format.
const credentialPrefix = "enc:v1:"

// CredentialSource supplies the machine token, preferring the environment
// over the encrypted credential file. It implements pantheon.TokenSource.
// An absent credential yields an empty token, which the client maps to its
// no-credential error.
type CredentialSource struct {
	path string
}

// TokenSource returns the credential source for this configuration.
func (c *Config) TokenSource() *CredentialSource {
	return &CredentialSource{path: c.CredentialFile}
}

// MachineToken returns the configured machine token, or "" when none is
// configured.
func (s *CredentialSource) MachineToken() (string, error) {
	if token := os.Getenv(EnvMachineToken); token != "" {
		return token, nil
	}

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading credential file: %w", err)
	}

	stored := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(stored, credentialPrefix) {
		return "", fmt.Errorf("credential file %s has an unrecognized format", s.path)
	}

	token, err := decryptToken(strings.TrimPrefix(stored, credentialPrefix))
	if err != nil {
		return "", fmt.Errorf("error decrypting credential: %w", err)
	}
	return token, nil
}

// Save encrypts the machine token and writes it to the credential file,
// creating the parent directory if needed.
func (s *CredentialSource) Save(token string) error {
	encrypted, err := encryptToken(token)
	if err != nil {
		return fmt.Errorf("error encrypting credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("error creating credential directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(credentialPrefix+encrypted+"\n"), 0o600); err != nil {
		return fmt.Errorf("error writing credential file: %w", err)
	}
	return nil
}

// Delete removes the stored credential. Deleting an absent credential is
// not an error.
func (s *CredentialSource) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error deleting credential file: %w", err)
	}
	return nil
}

// credentialKey derives the AES key from the passphrase environment
// variable.
func credentialKey() ([]byte, error) {
	passphrase := os.Getenv(EnvCredentialKey)
	if passphrase == "" {
		return nil, fmt.Errorf("%s is not set", EnvCredentialKey)
	}
	key := sha256.Sum256([]byte(passphrase))
	return key[:], nil
}

func encryptToken(token string) (string, error) {
	key, err := credentialKey()
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(token), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decryptToken(encoded string) (string, error) {
	key, err := credentialKey()
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid credential encoding: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(sealed) < gcm.NonceSize() {
		return "", fmt.Errorf("credential ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	token, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("credential decryption failed (wrong %s?): %w", EnvCredentialKey, err)
	}
	return string(token), nil
}
