package crypto2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptGCM(t *testing.T) {
	key, err := GenerateEncryptKey([]byte("seed"), Hash256([]byte("seed")))
	require.NoError(t, err)

	plain := []byte(`{"type":"PaymentSigningKeyShelley_ed25519","cborHex":"5820aa"}`)
	sealed, err := EncryptGCM(plain, key)
	require.NoError(t, err)
	require.NotEqual(t, plain, sealed)

	got, err := DecryptGCM(sealed, key)
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

func TestDecryptGCMRejectsTampering(t *testing.T) {
	key, err := GenerateEncryptKey([]byte("seed"), Hash256([]byte("seed")))
	require.NoError(t, err)

	sealed, err := EncryptGCM([]byte("secret"), key)
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = DecryptGCM(sealed, key)
	require.Error(t, err)
}

func TestDecryptGCMTooShort(t *testing.T) {
	key, err := GenerateEncryptKey([]byte("seed"), Hash256([]byte("seed")))
	require.NoError(t, err)

	_, err = DecryptGCM([]byte("short"), key)
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestGenerateEncryptKeyDeterministic(t *testing.T) {
	k1, err := GenerateEncryptKey([]byte("seed"), Hash256([]byte("seed")))
	require.NoError(t, err)
	k2, err := GenerateEncryptKey([]byte("seed"), Hash256([]byte("seed")))
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	k3, err := GenerateEncryptKey([]byte("other"), Hash256([]byte("other")))
	require.NoError(t, err)
	require.NotEqual(t, k1, k3)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hashed)

	require.True(t, VerifyPassword("hunter2", hashed))
	require.False(t, VerifyPassword("hunter3", hashed))
}
