package pod

import (
	"database/sql"
	"testing"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/db"
	"github.com/memri/pod/pkg/types"
	"github.com/stretchr/testify/require"
)

func openTestFacade(t *testing.T) (*db.Engine, func(func(*Facade) error) error) {
	t.Helper()
	e, err := db.Open("file::memory:?cache=shared", "")
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	require.NoError(t, db.Migrate(e))

	withFacade := func(fn func(*Facade) error) error {
		return e.Write(func(tx *sql.Tx) error {
			f, err := Open(e, tx)
			if err != nil {
				return err
			}
			return fn(f)
		})
	}
	return e, withFacade
}

func declareProperty(t *testing.T, withFacade func(func(*Facade) error) error, itemType, name, valueType string) {
	t.Helper()
	err := withFacade(func(f *Facade) error {
		_, err := f.Create(map[string]any{
			"type":         "ItemPropertySchema",
			"itemType":     itemType,
			"propertyName": name,
			"valueType":    valueType,
		})
		return err
	})
	require.NoError(t, err)
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	_, withFacade := openTestFacade(t)

	var created map[string]any
	err := withFacade(func(f *Facade) error {
		var err error
		created, err = f.Create(map[string]any{"type": "Person"})
		return err
	})
	require.NoError(t, err)
	require.NotEmpty(t, created["id"])
	require.NotZero(t, created["dateServerModified"])
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	_, withFacade := openTestFacade(t)

	err := withFacade(func(f *Facade) error {
		if _, err := f.Create(map[string]any{"id": "p1", "type": "Person"}); err != nil {
			return err
		}
		_, err := f.Create(map[string]any{"id": "p1", "type": "Person"})
		return err
	})
	require.Error(t, err)
	require.Equal(t, apierr.Conflict, apierr.CodeOf(err))
}

func TestCreateRejectsUnknownProperty(t *testing.T) {
	_, withFacade := openTestFacade(t)

	err := withFacade(func(f *Facade) error {
		_, err := f.Create(map[string]any{"type": "Person", "nickname": "Al"})
		return err
	})
	require.Error(t, err)
	require.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
}

func TestUpdateAndGetRoundtrip(t *testing.T) {
	_, withFacade := openTestFacade(t)
	declareProperty(t, withFacade, "Person", "age", "Integer")

	err := withFacade(func(f *Facade) error {
		if _, err := f.Create(map[string]any{"id": "p1", "type": "Person", "age": float64(30)}); err != nil {
			return err
		}
		updated, err := f.Update("p1", map[string]any{"age": float64(31)})
		if err != nil {
			return err
		}
		require.EqualValues(t, 31, updated["age"])
		return nil
	})
	require.NoError(t, err)

	err = withFacade(func(f *Facade) error {
		got, err := f.Get("p1")
		require.NoError(t, err)
		require.EqualValues(t, 31, got["age"])
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateOnMissingItemFails(t *testing.T) {
	_, withFacade := openTestFacade(t)
	err := withFacade(func(f *Facade) error {
		_, err := f.Update("missing", map[string]any{})
		return err
	})
	require.Error(t, err)
	require.Equal(t, apierr.NotFound, apierr.CodeOf(err))
}

func TestDeleteIsSoft(t *testing.T) {
	_, withFacade := openTestFacade(t)
	err := withFacade(func(f *Facade) error {
		if _, err := f.Create(map[string]any{"id": "p1", "type": "Person"}); err != nil {
			return err
		}
		return f.Delete("p1")
	})
	require.NoError(t, err)

	err = withFacade(func(f *Facade) error {
		got, err := f.Get("p1")
		require.NoError(t, err)
		require.Equal(t, true, got["deleted"])
		return nil
	})
	require.NoError(t, err)
}

func TestCreateEdgeAndGetItemsWithEdges(t *testing.T) {
	_, withFacade := openTestFacade(t)

	err := withFacade(func(f *Facade) error {
		if _, err := f.Create(map[string]any{"id": "p1", "type": "Person"}); err != nil {
			return err
		}
		if _, err := f.Create(map[string]any{"id": "p2", "type": "Person"}); err != nil {
			return err
		}
		_, err := f.CreateEdge(types.EdgeSpec{Source: "p1", Target: "p2", Name: "friend"})
		return err
	})
	require.NoError(t, err)

	err = withFacade(func(f *Facade) error {
		results, err := f.GetItemsWithEdges([]string{"p1"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		edges := results[0]["allEdges"].([]map[string]any)
		require.Len(t, edges, 1)
		require.Equal(t, "friend", edges[0]["name"])
		require.Equal(t, "p2", edges[0]["target"].(map[string]any)["id"])
		return nil
	})
	require.NoError(t, err)
}

func TestSearchByTypeAndProperty(t *testing.T) {
	_, withFacade := openTestFacade(t)
	declareProperty(t, withFacade, "Person", "age", "Integer")

	err := withFacade(func(f *Facade) error {
		if _, err := f.Create(map[string]any{"id": "p1", "type": "Person", "age": float64(30)}); err != nil {
			return err
		}
		if _, err := f.Create(map[string]any{"id": "p2", "type": "Person", "age": float64(40)}); err != nil {
			return err
		}
		if _, err := f.Create(map[string]any{"id": "d1", "type": "Dog"}); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)

	err = withFacade(func(f *Facade) error {
		results, err := f.Search(map[string]any{"type": "Person", "age": float64(30)})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, "p1", results[0]["id"])
		return nil
	})
	require.NoError(t, err)
}
