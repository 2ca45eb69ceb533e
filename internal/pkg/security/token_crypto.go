package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"github.com/ManuelReschke/BookFox/internal/pkg/env"
)

// Processor OAuth tokens are encrypted at rest with AES-GCM. The key is
// derived from TOKEN_ENC_KEY; without it linking payment accounts fails
// closed instead of writing plaintext credentials to the database.

var ErrNoEncryptionKey = errors.New("TOKEN_ENC_KEY is not configured")

func encryptionKey() ([]byte, error) {
	secret := env.GetEnv("TOKEN_ENC_KEY", "")
	if secret == "" {
		return nil, ErrNoEncryptionKey
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

// EncryptToken encrypts a credential for storage. The nonce is prepended to
// the ciphertext and the whole blob is base64-encoded.
func EncryptToken(plaintext string) (string, error) {
	key, err := encryptionKey()
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
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptToken reverses EncryptToken.
func DecryptToken(encoded string) (string, error) {
	key, err := encryptionKey()
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
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
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
