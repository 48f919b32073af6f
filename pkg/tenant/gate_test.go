package tenant

import (
	"encoding/hex"
	"testing"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/cryptoutil"
	"github.com/stretchr/testify/require"
)

func TestCheckOwnerAllowsAny(t *testing.T) {
	g := New(t.TempDir(), t.TempDir(), "ANY")
	require.NoError(t, g.CheckOwner("not-even-hex"))
}

func TestCheckOwnerRejectsUnknown(t *testing.T) {
	g := New(t.TempDir(), t.TempDir(), "")
	err := g.CheckOwner(hex.EncodeToString([]byte("owner-key")))
	require.Error(t, err)
	require.Equal(t, apierr.Forbidden, apierr.CodeOf(err))
}

func TestCheckOwnerRejectsBadHex(t *testing.T) {
	g := New(t.TempDir(), t.TempDir(), "ANY")
	// ANY bypasses the hex check entirely; rebuild with a real allow-list
	// to exercise the BadRequest path.
	g2 := New(t.TempDir(), t.TempDir(), "deadbeef")
	err := g2.CheckOwner("not-hex!!")
	require.Error(t, err)
	require.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
}

func TestCheckOwnerAllowsMatchingHash(t *testing.T) {
	ownerKey := []byte("super-secret-owner-key-material")
	ownerHex := hex.EncodeToString(ownerKey)
	hash, err := cryptoutil.Blake2b256Hex(ownerKey)
	require.NoError(t, err)

	g := New(t.TempDir(), t.TempDir(), hash)
	require.NoError(t, g.CheckOwner(ownerHex))
}

func TestOpenCachesConnectionPerOwner(t *testing.T) {
	g := New(t.TempDir(), t.TempDir(), "ANY")

	e1, err := g.Open("abcd", "")
	require.NoError(t, err)
	e2, err := g.Open("abcd", "")
	require.NoError(t, err)
	require.Same(t, e1, e2)
}
