package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenEncryption_GenerateKey(t *testing.T) {
	key, err := GenerateEncryptionKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	key2, err := GenerateEncryptionKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, key2, "keys should be random")
}

func TestTokenEncryption_EncryptDecrypt(t *testing.T) {
	key, err := GenerateEncryptionKey()
	require.NoError(t, err)
	enc, err := NewTokenEncryption(key)
	require.NoError(t, err)
	require.True(t, enc.Enabled())

	tests := []struct {
		name      string
		plaintext string
	}{
		{"jwt", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.sig"},
		{"empty", ""},
		{"unicode", "tök€n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := enc.Encrypt(tt.plaintext)
			require.NoError(t, err)
			if tt.plaintext == "" {
				assert.Empty(t, sealed)
				return
			}
			assert.NotEqual(t, tt.plaintext, sealed)

			opened, err := enc.Decrypt(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestTokenEncryption_NonceIsRandom(t *testing.T) {
	key, _ := GenerateEncryptionKey()
	enc, _ := NewTokenEncryption(key)

	a, err := enc.Encrypt("same")
	require.NoError(t, err)
	b, err := enc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenEncryption_Disabled(t *testing.T) {
	enc, err := NewTokenEncryption(nil)
	require.NoError(t, err)
	assert.False(t, enc.Enabled())

	sealed, err := enc.Encrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", sealed)

	var nilEnc *TokenEncryption
	assert.False(t, nilEnc.Enabled())
	opened, err := nilEnc.Decrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", opened)
}

func TestTokenEncryption_WrongKey(t *testing.T) {
	k1, _ := GenerateEncryptionKey()
	k2, _ := GenerateEncryptionKey()
	e1, _ := NewTokenEncryption(k1)
	e2, _ := NewTokenEncryption(k2)

	sealed, err := e1.Encrypt("secret")
	require.NoError(t, err)
	_, err = e2.Decrypt(sealed)
	assert.Error(t, err)
}

func TestNewTokenEncryption_InvalidKeyLength(t *testing.T) {
	_, err := NewTokenEncryption([]byte("short"))
	assert.Error(t, err)
}

func TestEncryptionKeyBase64(t *testing.T) {
	key, _ := GenerateEncryptionKey()
	decoded, err := EncryptionKeyFromBase64(EncryptionKeyToBase64(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	empty, err := EncryptionKeyFromBase64("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = EncryptionKeyFromBase64("not base64!")
	assert.Error(t, err)

	_, err = EncryptionKeyFromBase64("c2hvcnQ=")
	assert.Error(t, err)
}
