// Package pod is the store façade: it translates between an item's external
// JSON representation and its internal split (base columns + typed
// property tables) representation, enforces the live schema on every write,
// and implements the bulk, edge, search, and traversal operations. No
// business logic lives above this package except dispatch.
package pod

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/db"
	"github.com/memri/pod/pkg/schema"
	"github.com/memri/pod/pkg/store"
	"github.com/memri/pod/pkg/trigger"
	"github.com/memri/pod/pkg/types"
)

// Facade is one owner's store façade, bound to a single in-flight
// transaction. pkg/api constructs one per request, inside the transaction
// the tenant gate's Engine opened.
type Facade struct {
	store  *store.SQLStore
	schema *schema.Schema
}

// Open loads the live schema and returns a Facade bound to tx. Callers run
// exactly one façade operation per transaction.
func Open(engine *db.Engine, tx *sql.Tx) (*Facade, error) {
	s := store.New(engine, tx)
	sch, err := schema.Load(s)
	if err != nil {
		return nil, err
	}
	return &Facade{store: s, schema: sch}, nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// Create assigns a fresh id when absent, defaults the creation timestamps,
// always stamps dateServerModified, fires the schema trigger when
// appropriate, and writes every declared property. It returns the item's
// full external JSON.
func (f *Facade) Create(fields map[string]any) (map[string]any, error) {
	itemType, err := requireString(fields, types.KeyType)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateTypeName(itemType); err != nil {
		return nil, err
	}

	id, _ := fields[types.KeyID].(string)
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := f.store.GetItemRowid(id); err == nil {
		return nil, apierr.Newf(apierr.Conflict, "item with id %q already exists", id)
	} else if apierr.CodeOf(err) != apierr.NotFound {
		return nil, err
	}

	now := nowMillis()
	dateCreated := intFieldOrDefault(fields, types.KeyDateCreated, now)
	dateModified := intFieldOrDefault(fields, types.KeyDateModified, now)

	if itemType == types.SchemaItemType {
		if err := trigger.RunItemPropertySchema(f.store, fields); err != nil {
			return nil, err
		}
	}

	rowid, err := f.store.InsertItemBase(id, itemType, dateCreated, dateModified, now, false)
	if err != nil {
		return nil, err
	}
	if err := applyProperties(f.store, f.schema, rowid, fields); err != nil {
		return nil, err
	}
	return f.getByRowid(rowid)
}

// Update requires the item exist and not be deleted, schema-checks and
// replaces every given property, and stamps dateModified/dateServerModified.
func (f *Facade) Update(id string, fields map[string]any) (map[string]any, error) {
	rowid, err := f.store.GetItemRowid(id)
	if err != nil {
		return nil, err
	}
	base, err := f.store.GetItemBase(rowid)
	if err != nil {
		return nil, err
	}
	if base.Deleted {
		return nil, apierr.Newf(apierr.NotFound, "item %q is deleted", id)
	}

	now := nowMillis()
	dateModified := intFieldOrDefault(fields, types.KeyDateModified, now)

	if err := applyProperties(f.store, f.schema, rowid, fields); err != nil {
		return nil, err
	}
	if err := f.store.UpdateItemBase(rowid, dateModified, now, false); err != nil {
		return nil, err
	}
	return f.getByRowid(rowid)
}

// Delete soft-deletes: sets deleted=true and stamps dateServerModified.
func (f *Facade) Delete(id string) error {
	rowid, err := f.store.GetItemRowid(id)
	if err != nil {
		return err
	}
	base, err := f.store.GetItemBase(rowid)
	if err != nil {
		return err
	}
	return f.store.UpdateItemBase(rowid, base.DateModified, nowMillis(), true)
}

// Bulk runs createItems, updateItems, deleteItems, then createEdges, in that
// field order, inside the caller's transaction. Any failure aborts the
// whole batch (the caller's transaction rollback makes it all-or-nothing).
func (f *Facade) Bulk(req types.BulkRequest) error {
	for _, item := range req.CreateItems {
		if _, err := f.Create(item); err != nil {
			return err
		}
	}
	for _, item := range req.UpdateItems {
		id, err := requireString(item, types.KeyID)
		if err != nil {
			return err
		}
		if _, err := f.Update(id, item); err != nil {
			return err
		}
	}
	for _, id := range req.DeleteItems {
		if err := f.Delete(id); err != nil {
			return err
		}
	}
	for _, spec := range req.CreateEdges {
		if _, err := f.CreateEdge(spec); err != nil {
			return err
		}
	}
	return nil
}

// CreateEdge verifies both endpoints exist and inserts an edge-item of
// type=name plus the edges-table row.
func (f *Facade) CreateEdge(spec types.EdgeSpec) (map[string]any, error) {
	if err := schema.ValidateTypeName(spec.Name); err != nil {
		return nil, err
	}
	sourceRowid, err := f.store.GetItemRowid(spec.Source)
	if err != nil {
		return nil, err
	}
	targetRowid, err := f.store.GetItemRowid(spec.Target)
	if err != nil {
		return nil, err
	}

	now := nowMillis()
	edgeID := uuid.New().String()
	edgeRowid, err := f.store.InsertEdgeUnchecked(sourceRowid, spec.Name, targetRowid, edgeID, now)
	if err != nil {
		return nil, err
	}
	return f.getByRowid(edgeRowid)
}

// getByRowid assembles one item's full external JSON from its base columns
// and every typed property table.
func (f *Facade) getByRowid(rowid int64) (map[string]any, error) {
	base, err := f.store.GetItemBase(rowid)
	if err != nil {
		return nil, err
	}
	strs, err := f.store.GetStringsForItem(rowid)
	if err != nil {
		return nil, err
	}
	ints, err := f.store.GetIntegersForItem(rowid)
	if err != nil {
		return nil, err
	}
	reals, err := f.store.GetRealsForItem(rowid)
	if err != nil {
		return nil, err
	}
	return buildExternalJSON(f.schema, base, strs, ints, reals), nil
}

// Get returns one item's full external JSON by client-visible id.
func (f *Facade) Get(id string) (map[string]any, error) {
	rowid, err := f.store.GetItemRowid(id)
	if err != nil {
		return nil, err
	}
	return f.getByRowid(rowid)
}

// GetItemsWithEdges returns, for each id, {item..., allEdges:
// [{name, target: {item...}}]}, with edges in store.SearchEdgesBySource's
// order (the edge-item's sequence property when present, else edge rowid).
func (f *Facade) GetItemsWithEdges(ids []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		rowid, err := f.store.GetItemRowid(id)
		if err != nil {
			return nil, err
		}
		item, err := f.getByRowid(rowid)
		if err != nil {
			return nil, err
		}

		edges, err := f.store.SearchEdgesBySource(rowid)
		if err != nil {
			return nil, err
		}
		allEdges := make([]map[string]any, 0, len(edges))
		for _, e := range edges {
			target, err := f.getByRowid(e.Target)
			if err != nil {
				return nil, err
			}
			allEdges = append(allEdges, map[string]any{
				"name":   e.Name,
				"target": target,
			})
		}
		item["allEdges"] = allEdges
		out = append(out, item)
	}
	return out, nil
}

// InsertTree accepts an item with an optional "_edges" array of {type,
// target: <item-with-possibly-more-_edges>}, and recursively inserts
// depth-first; each edge's "type" becomes the edge's name.
func (f *Facade) InsertTree(nested map[string]any) (map[string]any, error) {
	rawEdges, hasEdges := nested["_edges"]
	fields := make(map[string]any, len(nested))
	for k, v := range nested {
		if k != "_edges" {
			fields[k] = v
		}
	}

	created, err := f.Create(fields)
	if err != nil {
		return nil, err
	}
	if !hasEdges {
		return created, nil
	}

	edgeList, ok := rawEdges.([]any)
	if !ok {
		return nil, apierr.New(apierr.BadRequest, "_edges must be an array")
	}
	for _, rawEdge := range edgeList {
		edge, ok := rawEdge.(map[string]any)
		if !ok {
			return nil, apierr.New(apierr.BadRequest, "each _edges entry must be an object")
		}
		edgeType, err := requireString(edge, "type")
		if err != nil {
			return nil, err
		}
		rawTarget, ok := edge["target"].(map[string]any)
		if !ok {
			return nil, apierr.New(apierr.BadRequest, "_edges entry missing target object")
		}
		target, err := f.InsertTree(rawTarget)
		if err != nil {
			return nil, err
		}
		targetID, _ := target[types.KeyID].(string)
		createdID, _ := created[types.KeyID].(string)
		if _, err := f.CreateEdge(types.EdgeSpec{Source: createdID, Target: targetID, Name: edgeType}); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func intFieldOrDefault(fields map[string]any, key string, def int64) int64 {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	f, ok := raw.(float64)
	if !ok {
		return def
	}
	return int64(f)
}
