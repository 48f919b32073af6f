package store

import (
	"database/sql"
	"fmt"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/types"
)

// InsertItemBase inserts a new item row and returns its assigned rowid.
func (s *SQLStore) InsertItemBase(id, itemType string, dateCreated, dateModified, dateServerModified int64, deleted bool) (int64, error) {
	stmt, err := s.stmt(`INSERT INTO items (id, type, dateCreated, dateModified, dateServerModified, deleted) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, apierr.Wrap(apierr.InternalServerError, "failed to prepare item insert", err)
	}
	res, err := stmt.Exec(id, itemType, dateCreated, dateModified, dateServerModified, boolToInt(deleted))
	if err != nil {
		return 0, apierr.Wrap(apierr.InternalServerError, fmt.Sprintf("failed to insert item %s", id), err)
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return 0, apierr.Wrap(apierr.InternalServerError, "failed to read inserted rowid", err)
	}
	return rowid, nil
}

// UpdateItemBase rewrites the mutable base columns of an existing item row.
func (s *SQLStore) UpdateItemBase(rowid int64, dateModified, dateServerModified int64, deleted bool) error {
	stmt, err := s.stmt(`UPDATE items SET dateModified = ?, dateServerModified = ?, deleted = ? WHERE rowid = ?`)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to prepare item update", err)
	}
	if _, err := stmt.Exec(dateModified, dateServerModified, boolToInt(deleted), rowid); err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to update item", err)
	}
	return nil
}

func scanItemBase(row interface{ Scan(...any) error }) (*types.ItemBase, error) {
	var b types.ItemBase
	var deletedInt int64
	if err := row.Scan(&b.Rowid, &b.ID, &b.Type, &b.DateCreated, &b.DateModified, &b.DateServerModified, &deletedInt); err != nil {
		return nil, err
	}
	b.Deleted = intToBool(deletedInt)
	return &b, nil
}

// GetItemBase fetches one item's base columns by rowid.
func (s *SQLStore) GetItemBase(rowid int64) (*types.ItemBase, error) {
	stmt, err := s.stmt(`SELECT rowid, id, type, dateCreated, dateModified, dateServerModified, deleted FROM items WHERE rowid = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare item lookup", err)
	}
	base, err := scanItemBase(stmt.QueryRow(rowid))
	if err == sql.ErrNoRows {
		return nil, apierr.Newf(apierr.NotFound, "item with rowid %d not found", rowid)
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to read item", err)
	}
	return base, nil
}

// GetItemRowid resolves a client-visible id to its rowid.
func (s *SQLStore) GetItemRowid(id string) (int64, error) {
	stmt, err := s.stmt(`SELECT rowid FROM items WHERE id = ?`)
	if err != nil {
		return 0, apierr.Wrap(apierr.InternalServerError, "failed to prepare id lookup", err)
	}
	var rowid int64
	err = stmt.QueryRow(id).Scan(&rowid)
	if err == sql.ErrNoRows {
		return 0, apierr.Newf(apierr.NotFound, "item %q not found", id)
	}
	if err != nil {
		return 0, apierr.Wrap(apierr.InternalServerError, "failed to look up item id", err)
	}
	return rowid, nil
}

// DangerousPermanentRemoveItem deletes an item row and all of its property
// rows. Only schema maintenance (the ItemPropertySchema trigger) may call
// this; ordinary deletes are soft (UpdateItemBase with deleted=true).
func (s *SQLStore) DangerousPermanentRemoveItem(rowid int64) error {
	for _, q := range []string{
		`DELETE FROM integers WHERE item = ?`,
		`DELETE FROM reals WHERE item = ?`,
		`DELETE FROM strings WHERE item = ?`,
		`DELETE FROM items WHERE rowid = ?`,
	} {
		stmt, err := s.stmt(q)
		if err != nil {
			return apierr.Wrap(apierr.InternalServerError, "failed to prepare purge statement", err)
		}
		if _, err := stmt.Exec(rowid); err != nil {
			return apierr.Wrap(apierr.InternalServerError, "failed to purge item row", err)
		}
	}
	return nil
}

// ListSchemaEntries returns every live ItemPropertySchema declaration,
// satisfying schema.Reader.
func (s *SQLStore) ListSchemaEntries() ([]types.SchemaEntry, error) {
	items, err := s.SearchItems(SearchCriteria{Type: strPtr(types.SchemaItemType), Deleted: boolPtr(false)})
	if err != nil {
		return nil, err
	}

	entries := make([]types.SchemaEntry, 0, len(items))
	for _, item := range items {
		strs, err := s.GetStringsForItem(item.Rowid)
		if err != nil {
			return nil, err
		}
		entries = append(entries, types.SchemaEntry{
			ItemType:     strs["itemType"],
			PropertyName: strs["propertyName"],
			ValueType:    types.ValueType(strs["valueType"]),
		})
	}
	return entries, nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
