// Package vault seals and opens tenant credential blobs.
//
// Values are JSON-encoded, sealed with NaCl secretbox under a random
// 24-byte nonce, and base64-encoded for storage. The key is a 32-byte
// secret supplied by configuration (ENCRYPTION_KEY); a process without a
// key refuses to start, so plaintext credentials are never persisted.
//
// Decryption is authenticated: a tampered ciphertext or a wrong key fails
// with ErrDecryption rather than producing garbage output.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// ErrDecryption indicates the ciphertext could not be authenticated,
// either because it was tampered with or sealed under a different key.
var ErrDecryption = errors.New("decryption failed")

const (
	keySize   = 32
	nonceSize = 24
)

// Vault seals and opens credential blobs under a fixed key
type Vault struct {
	key [keySize]byte
}

// New creates a Vault from a 32-byte key
func New(key []byte) (*Vault, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", keySize, len(key))
	}
	v := &Vault{}
	copy(v.key[:], key)
	return v, nil
}

// GenerateKey returns a fresh random key, base64-encoded for use as
// ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt marshals value to JSON and seals it. The output is base64 and
// differs between calls for identical input because the nonce is random.
func (v *Vault) Encrypt(value any) (string, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &v.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed blob into value. Tampered or wrong-key input
// returns ErrDecryption and leaves value untouched.
func (v *Vault) Decrypt(ciphertext string, value any) error {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return fmt.Errorf("%w: invalid base64", ErrDecryption)
	}
	if len(raw) < nonceSize {
		return fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &v.key)
	if !ok {
		return ErrDecryption
	}

	if err := json.Unmarshal(plaintext, value); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	return nil
}
