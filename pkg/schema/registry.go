// Package schema maintains the live mapping from property name to value type
// for the lifetime of one transaction, and validates property names against
// Pod's naming rules.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/types"
)

// nameRe matches a legal property name: starts with a letter or underscore,
// 2-31 characters total.
var nameRe = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]{1,30}$`)

// Seed is the built-in schema every owner database carries before any
// ItemPropertySchema item has ever been written — the fields that make the
// schema-declaring item type itself describable, plus the base columns
// SPEC_FULL.md §3 additionally exposes to the generic property-equality path.
var Seed = []types.SchemaEntry{
	{ItemType: "", PropertyName: "itemType", ValueType: types.Text},
	{ItemType: "", PropertyName: "propertyName", ValueType: types.Text},
	{ItemType: "", PropertyName: "valueType", ValueType: types.Text},
	{ItemType: "", PropertyName: "dateCreated", ValueType: types.DateTime},
	{ItemType: "", PropertyName: "dateModified", ValueType: types.DateTime},
	{ItemType: "", PropertyName: "dateServerModified", ValueType: types.DateTime},
	{ItemType: "", PropertyName: "deleted", ValueType: types.Bool},
}

// Schema is the set of property-name -> value-type mappings live in one
// transaction. A property name maps to at most one ValueType regardless of
// how many item types declare it, matching the source's flat
// (propertyName -> valueType) registry.
type Schema struct {
	byName map[string]types.ValueType
}

// Reader is the minimal store capability schema.Load needs: the ability to
// list every ItemPropertySchema entry currently stored. pkg/store's SQLStore
// satisfies it; schema does not otherwise depend on pkg/store, avoiding an
// import cycle between the two packages.
type Reader interface {
	ListSchemaEntries() ([]types.SchemaEntry, error)
}

// Load builds the live Schema: the built-in seed unioned with every
// ItemPropertySchema entry currently stored.
func Load(r Reader) (*Schema, error) {
	s := &Schema{byName: make(map[string]types.ValueType, len(Seed))}
	for _, e := range Seed {
		s.byName[e.PropertyName] = e.ValueType
	}

	entries, err := r.ListSchemaEntries()
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to load schema entries", err)
	}
	for _, e := range entries {
		vt, err := ParseValueType(string(e.ValueType))
		if err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, fmt.Sprintf("corrupt schema entry for %s.%s", e.ItemType, e.PropertyName), err)
		}
		s.byName[e.PropertyName] = vt
	}
	return s, nil
}

// ValueTypeOf reports the declared value type of name, if any.
func (s *Schema) ValueTypeOf(name string) (types.ValueType, bool) {
	vt, ok := s.byName[name]
	return vt, ok
}

// ParseValueType parses the stored valueType string into the enum, failing
// with InternalServerError for unrecognized values: an unknown valueType
// string is treated as a corrupt-schema condition, not a client error.
func ParseValueType(s string) (types.ValueType, error) {
	switch types.ValueType(s) {
	case types.Text, types.Integer, types.Real, types.Bool, types.DateTime:
		return types.ValueType(s), nil
	default:
		return "", apierr.Newf(apierr.InternalServerError, "unknown value type %q", s)
	}
}

// ValidatePropertyName enforces the property naming rule: the regex above,
// and not a member of the reserved SQL keyword set in keywords.go.
func ValidatePropertyName(name string) error {
	if !nameRe.MatchString(name) {
		return apierr.Newf(apierr.BadRequest, "invalid property name %q", name)
	}
	if _, reserved := reservedKeywords[strings.ToLower(name)]; reserved {
		return apierr.Newf(apierr.BadRequest, "property name %q is a reserved SQL keyword", name)
	}
	return nil
}

// ValidateTypeName enforces the rule that item type names may not start
// with an underscore (reserved for internal/edge bookkeeping types).
func ValidateTypeName(name string) error {
	if name == "" {
		return apierr.New(apierr.BadRequest, "item type must not be empty")
	}
	if strings.HasPrefix(name, "_") {
		return apierr.Newf(apierr.BadRequest, "item type %q must not start with '_'", name)
	}
	return nil
}
