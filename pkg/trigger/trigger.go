// Package trigger implements Pod's one synchronous side effect: schema
// evolution when an ItemPropertySchema item is created.
package trigger

import (
	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/schema"
	"github.com/memri/pod/pkg/types"
)

// Store is the subset of pkg/store.SQLStore the schema trigger needs. Kept
// narrow, the way pkg/schema.Reader is, so trigger can be exercised against a
// fake in tests without depending on a live database.
type Store interface {
	SearchPropertyEquals(name string, value any) ([]int64, error)
	GetItemBase(rowid int64) (*types.ItemBase, error)
	DangerousPermanentRemoveItem(rowid int64) error
}

// RunItemPropertySchema is invoked by create and by each create element of
// bulk, before the row for item is inserted, whenever item's type is
// ItemPropertySchema. It re-parses item as a {itemType, propertyName,
// valueType} record, validates propertyName, and permanently removes every
// existing ItemPropertySchema entry declaring the same (itemType,
// propertyName) pair — this is the mechanism by which the schema evolves:
// subsequent reads pick up the new definition.
func RunItemPropertySchema(s Store, item map[string]any) error {
	itemType, _ := item["itemType"].(string)
	propertyName, _ := item["propertyName"].(string)
	valueType, _ := item["valueType"].(string)

	if itemType == "" {
		return apierr.New(apierr.BadRequest, "ItemPropertySchema requires itemType")
	}
	if err := schema.ValidatePropertyName(propertyName); err != nil {
		return err
	}
	if _, err := schema.ParseValueType(valueType); err != nil {
		return apierr.Newf(apierr.BadRequest, "ItemPropertySchema has invalid valueType %q", valueType)
	}

	byItemType, err := s.SearchPropertyEquals("itemType", itemType)
	if err != nil {
		return err
	}
	byPropertyName, err := s.SearchPropertyEquals("propertyName", propertyName)
	if err != nil {
		return err
	}

	matching := intersect(byItemType, byPropertyName)
	for _, rowid := range matching {
		base, err := s.GetItemBase(rowid)
		if err != nil {
			return err
		}
		if base.Type != types.SchemaItemType {
			continue
		}
		if err := s.DangerousPermanentRemoveItem(rowid); err != nil {
			return err
		}
	}
	return nil
}

func intersect(a, b []int64) []int64 {
	set := make(map[int64]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []int64
	for _, v := range b {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
