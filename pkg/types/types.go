// Package types holds the data-model structs shared across Pod's packages.
package types

// ValueType is the set of scalar kinds a schema-declared property may hold.
type ValueType string

const (
	Text     ValueType = "Text"
	Integer  ValueType = "Integer"
	Real     ValueType = "Real"
	Bool     ValueType = "Bool"
	DateTime ValueType = "DateTime"
)

// SchemaItemType is the reserved item type that declares schema entries.
const SchemaItemType = "ItemPropertySchema"

// Reserved top-level keys on the external item JSON representation.
const (
	KeyID                = "id"
	KeyType              = "type"
	KeyDateCreated       = "dateCreated"
	KeyDateModified      = "dateModified"
	KeyDateServerModified = "dateServerModified"
	KeyDeleted           = "deleted"
)

// Reserved keys in a search() criteria object beyond the base-column filters.
const (
	KeySortOrder = "_sortOrder"
	KeyLimit     = "_limit"
)

// SortOrder is the search() result ordering direction.
type SortOrder string

const (
	SortAsc  SortOrder = "Asc"
	SortDesc SortOrder = "Desc"
)

// ItemBase is the set of base columns every item row carries, independent of
// its typed properties.
type ItemBase struct {
	Rowid              int64
	ID                 string
	Type               string
	DateCreated        int64
	DateModified       int64
	DateServerModified int64
	Deleted            bool
}

// Edge is a directed, named relationship between two items. Every edge is
// itself backed by an item row (the edge-item), which is what SelfRowid
// names.
type Edge struct {
	SelfRowid int64
	Source    int64
	Name      string
	Target    int64
}

// EdgeWithTarget is the shape returned by traversal operations: an edge plus
// the full external JSON of its target item.
type EdgeWithTarget struct {
	Name   string
	Target map[string]any
}

// SchemaEntry is one declared (itemType, propertyName) -> valueType mapping.
type SchemaEntry struct {
	ItemType     string
	PropertyName string
	ValueType    ValueType
}

// EdgeSpec describes a createEdge/bulk createEdges request.
type EdgeSpec struct {
	Source string
	Target string
	Name   string
}

// BulkRequest is the payload for a bulk_action operation; sub-operations run
// in this field order inside one transaction.
type BulkRequest struct {
	CreateItems []map[string]any
	UpdateItems []map[string]any
	DeleteItems []string
	CreateEdges []EdgeSpec
}

// PluginAuthToken is the opaque, hex-encoded envelope a handler hands to an
// external plugin process in place of the raw database key.
type PluginAuthToken struct {
	Nonce                string `json:"nonce"`
	EncryptedPermissions string `json:"encryptedPermissions"`
}

// ClientAuth carries the raw database key a client presents directly.
type ClientAuth struct {
	DatabaseKey string `json:"databaseKey"`
}

// PluginAuth carries the encrypted envelope a plugin presents on callback.
type PluginAuth struct {
	Data PluginAuthToken `json:"data"`
}

// PluginRun describes one invocation of an external plugin container,
// assembled by a run_downloader/run_importer/run_indexer handler.
type PluginRun struct {
	Image          string
	TriggerID      string
	Network        string
	FullAddress    string
	TargetItemJSON string
	Owner          string
	AuthJSON       string
}
