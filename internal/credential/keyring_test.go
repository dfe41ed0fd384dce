package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := opener
	opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { opener = prev })
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)

	_, err := Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Set("k", "v"))
	got, err := Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, Delete("k"))
	require.NoError(t, Delete("k"))

	_, err = Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionToken(t *testing.T) {
	useArrayKeyring(t)
	t.Setenv(SessionTokenEnv, "")

	_, err := SessionToken()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SaveSessionToken("from-keyring"))
	token, err := SessionToken()
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", token)

	t.Setenv(SessionTokenEnv, "from-env")
	token, err = SessionToken()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
}
