package store

import (
	"database/sql"
	"testing"

	"github.com/memri/pod/pkg/db"
	"github.com/stretchr/testify/require"
)

// openTestEngine opens a throwaway in-memory SQLite database with the
// migration applied, for use by a single test.
func openTestEngine(t *testing.T) *db.Engine {
	t.Helper()
	e, err := db.Open("file::memory:?cache=shared", "")
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	require.NoError(t, db.Migrate(e))
	return e
}

func withStore(t *testing.T, fn func(*SQLStore)) {
	t.Helper()
	e := openTestEngine(t)
	err := e.Write(func(tx *sql.Tx) error {
		fn(New(e, tx))
		return nil
	})
	require.NoError(t, err)
}

func TestInsertAndGetItemBase(t *testing.T) {
	withStore(t, func(s *SQLStore) {
		rowid, err := s.InsertItemBase("p1", "Person", 100, 100, 100, false)
		require.NoError(t, err)

		base, err := s.GetItemBase(rowid)
		require.NoError(t, err)
		require.Equal(t, "p1", base.ID)
		require.Equal(t, "Person", base.Type)
		require.False(t, base.Deleted)
	})
}

func TestPropertyInsertReplacesPriorValue(t *testing.T) {
	withStore(t, func(s *SQLStore) {
		rowid, err := s.InsertItemBase("p1", "Person", 100, 100, 100, false)
		require.NoError(t, err)

		require.NoError(t, s.InsertInteger(rowid, "age", 30))
		require.NoError(t, s.InsertInteger(rowid, "age", 31))

		ints, err := s.GetIntegersForItem(rowid)
		require.NoError(t, err)
		require.Equal(t, int64(31), ints["age"])
		require.Len(t, ints, 1)
	})
}

func TestPropertyInsertIsExclusiveAcrossTables(t *testing.T) {
	withStore(t, func(s *SQLStore) {
		rowid, err := s.InsertItemBase("p1", "Person", 100, 100, 100, false)
		require.NoError(t, err)

		require.NoError(t, s.InsertString(rowid, "name", "Alice"))
		require.NoError(t, s.InsertInteger(rowid, "name", 1))

		strs, err := s.GetStringsForItem(rowid)
		require.NoError(t, err)
		require.NotContains(t, strs, "name")

		ints, err := s.GetIntegersForItem(rowid)
		require.NoError(t, err)
		require.Equal(t, int64(1), ints["name"])
	})
}

func TestSearchItemsByType(t *testing.T) {
	withStore(t, func(s *SQLStore) {
		_, err := s.InsertItemBase("p1", "Person", 100, 100, 100, false)
		require.NoError(t, err)
		_, err = s.InsertItemBase("d1", "Dog", 100, 100, 100, false)
		require.NoError(t, err)

		personType := "Person"
		results, err := s.SearchItems(SearchCriteria{Type: &personType})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, "p1", results[0].ID)
	})
}

func TestDangerousPermanentRemoveItem(t *testing.T) {
	withStore(t, func(s *SQLStore) {
		rowid, err := s.InsertItemBase("p1", "Person", 100, 100, 100, false)
		require.NoError(t, err)
		require.NoError(t, s.InsertString(rowid, "name", "Alice"))

		require.NoError(t, s.DangerousPermanentRemoveItem(rowid))

		_, err = s.GetItemBase(rowid)
		require.Error(t, err)
	})
}

func TestInsertEdgeAndSearchBySource(t *testing.T) {
	withStore(t, func(s *SQLStore) {
		src, err := s.InsertItemBase("p1", "Person", 100, 100, 100, false)
		require.NoError(t, err)
		tgt, err := s.InsertItemBase("p2", "Person", 100, 100, 100, false)
		require.NoError(t, err)

		_, err = s.InsertEdgeUnchecked(src, "friend", tgt, "e1", 100)
		require.NoError(t, err)

		edges, err := s.SearchEdgesBySource(src)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		require.Equal(t, "friend", edges[0].Name)
		require.Equal(t, tgt, edges[0].Target)
	})
}

func TestSearchStringsForContentAddress(t *testing.T) {
	withStore(t, func(s *SQLStore) {
		rowid, err := s.InsertItemBase("ph1", "Photo", 100, 100, 100, false)
		require.NoError(t, err)
		require.NoError(t, s.InsertString(rowid, "sha256", "abc123"))

		rowids, err := s.SearchStrings("sha256", "abc123")
		require.NoError(t, err)
		require.Equal(t, []int64{rowid}, rowids)
	})
}
