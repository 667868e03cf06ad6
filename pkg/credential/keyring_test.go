package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPISecretIsGeneratedOnce(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	first, err := v.APISecret()
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := v.APISecret()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAPISecretUsesStoredValue(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring([]keyring.Item{{Key: apiSecretKey, Data: []byte("s3cret")}}))

	secret, err := v.APISecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), secret)
}

func TestGetMissing(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	_, err := v.Get("nope")
	assert.True(t, errors.Is(err, keyring.ErrKeyNotFound))

	require.NoError(t, v.Set("nope", "yes"))
	got, err := v.Get("nope")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)
}
