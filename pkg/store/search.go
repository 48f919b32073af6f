package store

import (
	"strings"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/types"
)

// SearchCriteria is the dynamic, AND-composed set of base-column predicates.
// Nil fields are omitted from the query entirely.
type SearchCriteria struct {
	Rowid    *int64
	ID       *string
	Type     *string
	DSMGte   *int64
	DSMLt    *int64
	Deleted  *bool
}

// SearchItems runs a dynamic AND-composition of whichever predicates in c
// are set, ordered by rowid ascending.
func (s *SQLStore) SearchItems(c SearchCriteria) ([]types.ItemBase, error) {
	var clauses []string
	var args []any

	if c.Rowid != nil {
		clauses = append(clauses, "rowid = ?")
		args = append(args, *c.Rowid)
	}
	if c.ID != nil {
		clauses = append(clauses, "id = ?")
		args = append(args, *c.ID)
	}
	if c.Type != nil {
		clauses = append(clauses, "type = ?")
		args = append(args, *c.Type)
	}
	if c.DSMGte != nil {
		clauses = append(clauses, "dateServerModified >= ?")
		args = append(args, *c.DSMGte)
	}
	if c.DSMLt != nil {
		clauses = append(clauses, "dateServerModified < ?")
		args = append(args, *c.DSMLt)
	}
	if c.Deleted != nil {
		clauses = append(clauses, "deleted = ?")
		args = append(args, boolToInt(*c.Deleted))
	}

	query := `SELECT rowid, id, type, dateCreated, dateModified, dateServerModified, deleted FROM items`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY rowid ASC"

	stmt, err := s.stmt(query)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare item search", err)
	}
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to search items", err)
	}
	defer rows.Close()

	var out []types.ItemBase
	for rows.Next() {
		base, err := scanItemBase(rows)
		if err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to scan item", err)
		}
		out = append(out, *base)
	}
	return out, rows.Err()
}
