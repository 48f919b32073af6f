package pod

import (
	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/store"
	"github.com/memri/pod/pkg/types"
)

// Search runs criteria against the store: reserved keys select base-column
// filters (id, type, dateServerModified>=, dateServerModified<, deleted,
// _sortOrder, _limit), and every other key is an AND-conjoined
// property-equality filter. Results are full item JSONs sorted by
// dateServerModified then rowid, ascending by default.
func (f *Facade) Search(criteria map[string]any) ([]map[string]any, error) {
	var c store.SearchCriteria
	desc := false
	limit := -1
	propertyFilters := make(map[string]any)

	for key, raw := range criteria {
		switch key {
		case types.KeyID:
			s, ok := raw.(string)
			if !ok {
				return nil, apierr.New(apierr.BadRequest, "id filter must be a string")
			}
			c.ID = &s
		case types.KeyType:
			s, ok := raw.(string)
			if !ok {
				return nil, apierr.New(apierr.BadRequest, "type filter must be a string")
			}
			c.Type = &s
		case "dateServerModified>=":
			v, ok := raw.(float64)
			if !ok {
				return nil, apierr.New(apierr.BadRequest, "dateServerModified>= filter must be a number")
			}
			i := int64(v)
			c.DSMGte = &i
		case "dateServerModified<":
			v, ok := raw.(float64)
			if !ok {
				return nil, apierr.New(apierr.BadRequest, "dateServerModified< filter must be a number")
			}
			i := int64(v)
			c.DSMLt = &i
		case types.KeyDeleted:
			b, ok := raw.(bool)
			if !ok {
				return nil, apierr.New(apierr.BadRequest, "deleted filter must be a boolean")
			}
			c.Deleted = &b
		case types.KeySortOrder:
			s, ok := raw.(string)
			if !ok {
				return nil, apierr.New(apierr.BadRequest, "_sortOrder must be a string")
			}
			switch types.SortOrder(s) {
			case types.SortAsc:
				desc = false
			case types.SortDesc:
				desc = true
			default:
				return nil, apierr.Newf(apierr.BadRequest, "invalid _sortOrder %q", s)
			}
		case types.KeyLimit:
			v, ok := raw.(float64)
			if !ok {
				return nil, apierr.New(apierr.BadRequest, "_limit must be a number")
			}
			limit = int(v)
		default:
			propertyFilters[key] = raw
		}
	}

	baseItems, err := f.store.SearchItems(c)
	if err != nil {
		return nil, err
	}
	baseByRowid := make(map[int64]*types.ItemBase, len(baseItems))
	allowed := make(map[int64]struct{}, len(baseItems))
	for i := range baseItems {
		baseByRowid[baseItems[i].Rowid] = &baseItems[i]
		allowed[baseItems[i].Rowid] = struct{}{}
	}

	for name, raw := range propertyFilters {
		if raw == nil {
			return nil, apierr.Newf(apierr.BadRequest, "search predicate %q must not be null", name)
		}
		converted, err := convertFilterValue(f.schema, name, raw)
		if err != nil {
			return nil, err
		}
		rowids, err := f.store.SearchPropertyEquals(name, converted)
		if err != nil {
			return nil, err
		}
		matched := make(map[int64]struct{}, len(rowids))
		for _, r := range rowids {
			matched[r] = struct{}{}
		}
		for rowid := range allowed {
			if _, ok := matched[rowid]; !ok {
				delete(allowed, rowid)
			}
		}
	}

	matchedBase := make([]types.ItemBase, 0, len(allowed))
	for rowid := range allowed {
		matchedBase = append(matchedBase, *baseByRowid[rowid])
	}
	sortItemBases(matchedBase, desc)
	if limit >= 0 && limit < len(matchedBase) {
		matchedBase = matchedBase[:limit]
	}

	out := make([]map[string]any, 0, len(matchedBase))
	for _, b := range matchedBase {
		item, err := f.getByRowid(b.Rowid)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func sortItemBases(items []types.ItemBase, desc bool) {
	less := func(i, j int) bool {
		if items[i].DateServerModified != items[j].DateServerModified {
			if desc {
				return items[i].DateServerModified > items[j].DateServerModified
			}
			return items[i].DateServerModified < items[j].DateServerModified
		}
		if desc {
			return items[i].Rowid > items[j].Rowid
		}
		return items[i].Rowid < items[j].Rowid
	}
	insertionSortItemBases(items, less)
}

func insertionSortItemBases(items []types.ItemBase, less func(i, j int) bool) {
	for i := 1; i < len(items); i++ {
		j := i
		for j > 0 && less(j, j-1) {
			items[j], items[j-1] = items[j-1], items[j]
			j--
		}
	}
}
