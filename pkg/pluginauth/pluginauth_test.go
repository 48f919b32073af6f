package pluginauth

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/memri/pod/pkg/apierr"
	"github.com/stretchr/testify/require"
)

func TestIssueExtractRoundtrip(t *testing.T) {
	pk, err := NewProcessKey()
	require.NoError(t, err)

	dbKeyHex := strings.Repeat("ab", 32)
	token, err := pk.Issue(dbKeyHex)
	require.NoError(t, err)

	key, err := pk.Extract(token)
	require.NoError(t, err)
	require.Equal(t, strings.ToUpper(dbKeyHex), key.String())
}

func TestIssueExtractEmptyKeyMode(t *testing.T) {
	pk, err := NewProcessKey()
	require.NoError(t, err)

	token, err := pk.Issue("")
	require.NoError(t, err)

	key, err := pk.Extract(token)
	require.NoError(t, err)
	require.Equal(t, "", key.String())
}

func TestExtractRejectsWrongProcessKey(t *testing.T) {
	pk1, err := NewProcessKey()
	require.NoError(t, err)
	pk2, err := NewProcessKey()
	require.NoError(t, err)

	token, err := pk1.Issue(strings.Repeat("cd", 32))
	require.NoError(t, err)

	_, err = pk2.Extract(token)
	require.Error(t, err)
	require.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
}

func TestExtractRejectsBadNonceLength(t *testing.T) {
	pk, err := NewProcessKey()
	require.NoError(t, err)

	token, err := pk.Issue(strings.Repeat("ab", 32))
	require.NoError(t, err)
	token.Nonce = hex.EncodeToString([]byte("short"))

	_, err = pk.Extract(token)
	require.Error(t, err)
	require.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
}

func TestNewKeyRejectsLowercase(t *testing.T) {
	_, err := newKey("abc123")
	require.Error(t, err)
	require.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
}

func TestKeyDestroyZeroesBacking(t *testing.T) {
	k, err := newKey("DEADBEEF")
	require.NoError(t, err)
	k.Destroy()
	require.Equal(t, "\x00\x00\x00\x00\x00\x00\x00\x00", k.String())
}
