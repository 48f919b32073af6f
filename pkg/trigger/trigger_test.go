package trigger

import (
	"testing"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	byProperty map[string][]int64
	items      map[int64]types.ItemBase
	removed    []int64
}

func (f *fakeStore) SearchPropertyEquals(name string, value any) ([]int64, error) {
	return f.byProperty[name+"="+value.(string)], nil
}

func (f *fakeStore) GetItemBase(rowid int64) (*types.ItemBase, error) {
	b, ok := f.items[rowid]
	if !ok {
		return nil, apierr.Newf(apierr.NotFound, "no item %d", rowid)
	}
	return &b, nil
}

func (f *fakeStore) DangerousPermanentRemoveItem(rowid int64) error {
	f.removed = append(f.removed, rowid)
	return nil
}

func TestRunItemPropertySchemaRemovesPriorDeclaration(t *testing.T) {
	f := &fakeStore{
		byProperty: map[string][]int64{
			"itemType=Person":     {1, 2},
			"propertyName=age": {1, 3},
		},
		items: map[int64]types.ItemBase{
			1: {Rowid: 1, Type: types.SchemaItemType},
			2: {Rowid: 2, Type: types.SchemaItemType},
			3: {Rowid: 3, Type: "Other"},
		},
	}

	err := RunItemPropertySchema(f, map[string]any{
		"itemType":     "Person",
		"propertyName": "age",
		"valueType":    "Integer",
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, f.removed)
}

func TestRunItemPropertySchemaRejectsInvalidPropertyName(t *testing.T) {
	f := &fakeStore{}
	err := RunItemPropertySchema(f, map[string]any{
		"itemType":     "Person",
		"propertyName": "1bad",
		"valueType":    "Integer",
	})
	require.Error(t, err)
	assert.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
}

func TestRunItemPropertySchemaRejectsUnknownValueType(t *testing.T) {
	f := &fakeStore{}
	err := RunItemPropertySchema(f, map[string]any{
		"itemType":     "Person",
		"propertyName": "age",
		"valueType":    "Nonsense",
	})
	require.Error(t, err)
	assert.Equal(t, apierr.BadRequest, apierr.CodeOf(err))
}
