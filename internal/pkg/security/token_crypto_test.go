package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCrypto_RoundTrip(t *testing.T) {
	t.Setenv("TOKEN_ENC_KEY", "unit-test-key")

	enc, err := EncryptToken("APP_USR-secret-token")
	require.NoError(t, err)
	assert.NotEqual(t, "APP_USR-secret-token", enc)

	plain, err := DecryptToken(enc)
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-secret-token", plain)
}

func TestTokenCrypto_NoncesDiffer(t *testing.T) {
	t.Setenv("TOKEN_ENC_KEY", "unit-test-key")

	a, err := EncryptToken("same-input")
	require.NoError(t, err)
	b, err := EncryptToken("same-input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenCrypto_MissingKeyFailsClosed(t *testing.T) {
	_, err := EncryptToken("anything")
	assert.ErrorIs(t, err, ErrNoEncryptionKey)
}

func TestTokenCrypto_TamperedCiphertextRejected(t *testing.T) {
	t.Setenv("TOKEN_ENC_KEY", "unit-test-key")

	enc, err := EncryptToken("APP_USR-secret-token")
	require.NoError(t, err)

	raw := []byte(enc)
	raw[len(raw)-5] ^= 0x01
	_, err = DecryptToken(string(raw))
	assert.Error(t, err)
}
