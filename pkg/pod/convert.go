package pod

import (
	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/log"
	"github.com/memri/pod/pkg/schema"
	"github.com/memri/pod/pkg/store"
	"github.com/memri/pod/pkg/types"
)

// isReservedKey reports whether key is one of the external item JSON's
// top-level base columns rather than a schema-constrained property.
func isReservedKey(key string) bool {
	switch key {
	case types.KeyID, types.KeyType, types.KeyDateCreated, types.KeyDateModified,
		types.KeyDateServerModified, types.KeyDeleted:
		return true
	default:
		return false
	}
}

// applyProperties schema-checks and writes every non-reserved key of fields
// onto rowid, dispatching each value to the side table its declared
// valueType names.
func applyProperties(s *store.SQLStore, sch *schema.Schema, rowid int64, fields map[string]any) error {
	for name, raw := range fields {
		if isReservedKey(name) {
			continue
		}
		if err := schema.ValidatePropertyName(name); err != nil {
			return err
		}
		vt, ok := sch.ValueTypeOf(name)
		if !ok {
			return apierr.Newf(apierr.BadRequest, "unknown property %q", name)
		}
		if raw == nil {
			return apierr.Newf(apierr.BadRequest, "property %q must not be null", name)
		}
		if err := writeProperty(s, rowid, name, vt, raw); err != nil {
			return err
		}
	}
	return nil
}

func writeProperty(s *store.SQLStore, rowid int64, name string, vt types.ValueType, raw any) error {
	switch vt {
	case types.Text:
		v, ok := raw.(string)
		if !ok {
			return apierr.Newf(apierr.BadRequest, "property %q must be a string", name)
		}
		return s.InsertString(rowid, name, v)

	case types.Integer:
		v, ok := asExactInt64(raw)
		if !ok {
			return apierr.Newf(apierr.BadRequest, "property %q must be an integer", name)
		}
		return s.InsertInteger(rowid, name, v)

	case types.Real:
		v, ok := raw.(float64)
		if !ok {
			return apierr.Newf(apierr.BadRequest, "property %q must be a number", name)
		}
		return s.InsertReal(rowid, name, v)

	case types.Bool:
		v, ok := raw.(bool)
		if !ok {
			return apierr.Newf(apierr.BadRequest, "property %q must be a boolean", name)
		}
		return s.InsertInteger(rowid, name, boolToInt64(v))

	case types.DateTime:
		v, err := asDateTimeMillis(name, raw)
		if err != nil {
			return err
		}
		return s.InsertInteger(rowid, name, v)

	default:
		return apierr.Newf(apierr.InternalServerError, "property %q has unknown declared valueType %q", name, vt)
	}
}

// asExactInt64 accepts a JSON number only when it has no fractional part.
func asExactInt64(raw any) (int64, bool) {
	f, ok := raw.(float64)
	if !ok {
		return 0, false
	}
	i := int64(f)
	if float64(i) != f {
		return 0, false
	}
	return i, true
}

// asDateTimeMillis accepts an integer millisecond epoch, or a float epoch
// rounded to the nearest millisecond: tolerated and rounded rather than
// rejected outright.
func asDateTimeMillis(name string, raw any) (int64, error) {
	f, ok := raw.(float64)
	if !ok {
		return 0, apierr.Newf(apierr.BadRequest, "property %q must be a number", name)
	}
	i := int64(f)
	if float64(i) != f {
		log.Logger.Warn().Str("property", name).Float64("value", f).Msg("rounding non-integral DateTime property")
		i = int64(f + 0.5)
	}
	return i, nil
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// buildExternalJSON assembles an item's full external representation: base
// columns plus every typed property, with Bool/DateTime properties
// re-expanded from their raw integer storage using the live schema.
func buildExternalJSON(sch *schema.Schema, base *types.ItemBase, strs map[string]string, ints map[string]int64, reals map[string]float64) map[string]any {
	out := map[string]any{
		types.KeyID:                base.ID,
		types.KeyType:              base.Type,
		types.KeyDateCreated:       base.DateCreated,
		types.KeyDateModified:      base.DateModified,
		types.KeyDateServerModified: base.DateServerModified,
		types.KeyDeleted:           base.Deleted,
	}
	for name, v := range strs {
		out[name] = v
	}
	for name, v := range ints {
		vt, _ := sch.ValueTypeOf(name)
		switch vt {
		case types.Bool:
			out[name] = v != 0
		default:
			out[name] = v
		}
	}
	for name, v := range reals {
		out[name] = v
	}
	return out
}

// convertFilterValue converts a search() property-equality filter value into
// the Go type store.SearchPropertyEquals dispatches on, following the same
// valueType table applyProperties uses for writes.
func convertFilterValue(sch *schema.Schema, name string, raw any) (any, error) {
	vt, ok := sch.ValueTypeOf(name)
	if !ok {
		return nil, apierr.Newf(apierr.BadRequest, "unknown property %q", name)
	}
	switch vt {
	case types.Text:
		v, ok := raw.(string)
		if !ok {
			return nil, apierr.Newf(apierr.BadRequest, "property %q must be a string", name)
		}
		return v, nil
	case types.Integer:
		v, ok := asExactInt64(raw)
		if !ok {
			return nil, apierr.Newf(apierr.BadRequest, "property %q must be an integer", name)
		}
		return v, nil
	case types.Real:
		v, ok := raw.(float64)
		if !ok {
			return nil, apierr.Newf(apierr.BadRequest, "property %q must be a number", name)
		}
		return v, nil
	case types.Bool:
		v, ok := raw.(bool)
		if !ok {
			return nil, apierr.Newf(apierr.BadRequest, "property %q must be a boolean", name)
		}
		return v, nil
	case types.DateTime:
		return asDateTimeMillis(name, raw)
	default:
		return nil, apierr.Newf(apierr.InternalServerError, "property %q has unknown declared valueType %q", name, vt)
	}
}

// requireString extracts a required string field, failing BadRequest when
// absent or the wrong type.
func requireString(fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", apierr.Newf(apierr.BadRequest, "missing required field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", apierr.Newf(apierr.BadRequest, "field %q must be a string", key)
	}
	return s, nil
}
