package files

import (
	"database/sql"
	"testing"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/cryptoutil"
	"github.com/memri/pod/pkg/db"
	"github.com/memri/pod/pkg/store"
	"github.com/stretchr/testify/require"
)

func withTestStore(t *testing.T, fn func(*store.SQLStore)) {
	t.Helper()
	e, err := db.Open("file::memory:?cache=shared", "")
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	require.NoError(t, db.Migrate(e))

	err = e.Write(func(tx *sql.Tx) error {
		fn(store.New(e, tx))
		return nil
	})
	require.NoError(t, err)
}

func TestUploadRequiresExistingItem(t *testing.T) {
	fs, err := NewStore(t.TempDir())
	require.NoError(t, err)

	body := []byte("hello")
	withTestStore(t, func(s *store.SQLStore) {
		err := fs.Upload(s, "owner1", cryptoutil.SHA256Hex(body), body)
		require.Error(t, err)
		require.Equal(t, apierr.NotFound, apierr.CodeOf(err))
	})
}

func TestUploadRejectsHashMismatch(t *testing.T) {
	fs, err := NewStore(t.TempDir())
	require.NoError(t, err)

	withTestStore(t, func(s *store.SQLStore) {
		rowid, err := s.InsertItemBase("photo1", "Photo", 1, 1, 1, false)
		require.NoError(t, err)
		require.NoError(t, s.InsertString(rowid, "sha256", "wrong"))

		err = fs.Upload(s, "owner1", "wrong", []byte("hello"))
		require.Error(t, err)
		require.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
	})
}

func TestUploadAndGetRoundtrip(t *testing.T) {
	fs, err := NewStore(t.TempDir())
	require.NoError(t, err)

	body := []byte("hello, pod")

	withTestStore(t, func(s *store.SQLStore) {
		actual := cryptoutil.SHA256Hex(body)
		rowid, err := s.InsertItemBase("photo1", "Photo", 1, 1, 1, false)
		require.NoError(t, err)
		require.NoError(t, s.InsertString(rowid, "sha256", actual))

		require.NoError(t, fs.Upload(s, "owner1", actual, body))

		got, err := fs.Get(s, "owner1", actual)
		require.NoError(t, err)
		require.Equal(t, body, got)
	})
}

func TestUploadConflictsOnReupload(t *testing.T) {
	fs, err := NewStore(t.TempDir())
	require.NoError(t, err)

	body := []byte("duplicate me")
	withTestStore(t, func(s *store.SQLStore) {
		actual := cryptoutil.SHA256Hex(body)
		rowid, err := s.InsertItemBase("photo1", "Photo", 1, 1, 1, false)
		require.NoError(t, err)
		require.NoError(t, s.InsertString(rowid, "sha256", actual))
		require.NoError(t, fs.Upload(s, "owner1", actual, body))

		err = fs.Upload(s, "owner1", actual, body)
		require.Error(t, err)
		require.Equal(t, apierr.Conflict, apierr.CodeOf(err))
	})
}
