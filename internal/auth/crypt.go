package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// Player API credentials are stored encrypted at rest. The key is derived
// from the configured secret; rotating the secret makes old ciphertexts
// undecryptable, which callers must treat as "no password set".

var secretBoxKey *[32]byte

// InitSecretBox derives the credential encryption key from the app secret
func InitSecretBox(secret string) {
	key := sha256.Sum256([]byte(secret))
	secretBoxKey = &key
}

// EncryptSecret encrypts a plain text secret for storage. Empty input
// yields an empty ciphertext.
func EncryptSecret(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	if secretBoxKey == nil {
		return "", fmt.Errorf("secretbox key not initialized")
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, secretBoxKey)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptSecret decrypts a secret produced by EncryptSecret. An empty or
// undecryptable ciphertext yields an empty string (secret rotation case).
func DecryptSecret(encrypted string) string {
	if encrypted == "" || secretBoxKey == nil {
		return ""
	}

	sealed, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil || len(sealed) < 24 {
		return ""
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, secretBoxKey)
	if !ok {
		return ""
	}
	return string(plain)
}
