package cryptoutil

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestAESGCMEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey(t))
	require.NoError(t, err)

	plaintext := []byte(`{"access_token":"at-1","refresh_token":"rt-1"}`)
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)

	assert.True(t, len(ciphertext) > len(cipherPrefixV1))
	assert.Contains(t, ciphertext, cipherPrefixV1)
	assert.NotContains(t, ciphertext, "at-1")

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAESGCMEncryptor_DecryptsNoopValues(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey(t))
	require.NoError(t, err)

	// Tokens written before a key was configured carry the noop prefix.
	plaintext := []byte("pre-key token payload")
	noopCiphertext := noopPrefix + base64.StdEncoding.EncodeToString(plaintext)

	decrypted, err := enc.Decrypt(noopCiphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAESGCMEncryptor_RejectsBadKeyLengths(t *testing.T) {
	_, err := NewAESGCMEncryptor([]byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")

	_, err = NewAESGCMEncryptor(make([]byte, 64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")
}

func TestAESGCMEncryptor_RejectsBadCiphertext(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey(t))
	require.NoError(t, err)

	_, err = enc.Decrypt("v2:somedata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ciphertext version")

	_, err = enc.Decrypt("v1:!!!invalid!!!")
	require.Error(t, err)

	_, err = enc.Decrypt("v1:" + base64.StdEncoding.EncodeToString([]byte("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ciphertext too short")
}

func TestNoopEncryptor(t *testing.T) {
	enc := NoopEncryptor{}

	plaintext := []byte("token payload")
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.Contains(t, ciphertext, noopPrefix)

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)

	_, err = enc.Decrypt("v1:somedata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid noop ciphertext")
}
