package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretBox_EncryptDecryptRoundTrip(t *testing.T) {
	box, err := NewSecretBox(DeriveKeyFromSecret("super-secret-process-key"))
	require.NoError(t, err)

	ciphertext, err := box.Encrypt("shhh this is a webhook bearer token")
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "shhh")

	plaintext, err := box.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "shhh this is a webhook bearer token", plaintext)
}

func TestSecretBox_TamperedCiphertextFailsToDecrypt(t *testing.T) {
	box, err := NewSecretBox(DeriveKeyFromSecret("key-a"))
	require.NoError(t, err)

	ciphertext, err := box.Encrypt("payload")
	require.NoError(t, err)

	tampered := ciphertext[:len(ciphertext)-2] + "zz"
	_, err = box.Decrypt(tampered)
	assert.Error(t, err)
}

func TestSecretBox_WrongKeyFailsToDecrypt(t *testing.T) {
	boxA, err := NewSecretBox(DeriveKeyFromSecret("key-a"))
	require.NoError(t, err)
	boxB, err := NewSecretBox(DeriveKeyFromSecret("key-b"))
	require.NoError(t, err)

	ciphertext, err := boxA.Encrypt("payload")
	require.NoError(t, err)

	_, err = boxB.Decrypt(ciphertext)
	assert.Error(t, err)
}
