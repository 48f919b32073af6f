package store

import (
	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/types"
)

// InsertEdgeUnchecked creates the edge-item (an ordinary item of type name)
// and its edges-table row. The caller (pkg/pod) is responsible for verifying
// both endpoints exist and for the (source, target, name) uniqueness
// constraint the edges table itself also enforces.
func (s *SQLStore) InsertEdgeUnchecked(source int64, name string, target int64, id string, date int64) (int64, error) {
	edgeRowid, err := s.InsertItemBase(id, name, date, date, date, false)
	if err != nil {
		return 0, err
	}

	stmt, err := s.stmt(`INSERT INTO edges (self, source, name, target) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, apierr.Wrap(apierr.InternalServerError, "failed to prepare edge insert", err)
	}
	if _, err := stmt.Exec(edgeRowid, source, name, target); err != nil {
		return 0, apierr.Wrap(apierr.Conflict, "edge already exists for (source, target, name)", err)
	}
	return edgeRowid, nil
}

// edgeRow is one row of the edges table plus the optional sequence property
// used to order siblings (SPEC_FULL.md §3).
type edgeRow struct {
	types.Edge
	sequence    int64
	hasSequence bool
}

// SearchEdgesBySource returns every edge whose source is sourceRowid, sorted
// by the edge-item's sequence property ascending when present, else by edge
// rowid ascending.
func (s *SQLStore) SearchEdgesBySource(sourceRowid int64) ([]types.Edge, error) {
	stmt, err := s.stmt(`SELECT e.self, e.source, e.name, e.target, i.deleted FROM edges e JOIN items i ON i.rowid = e.self WHERE e.source = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare edge search", err)
	}
	rows, err := stmt.Query(sourceRowid)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to search edges", err)
	}
	defer rows.Close()

	var raw []edgeRow
	for rows.Next() {
		var e types.Edge
		var deletedInt int64
		if err := rows.Scan(&e.SelfRowid, &e.Source, &e.Name, &e.Target, &deletedInt); err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to scan edge", err)
		}
		// An edge is deleted iff its underlying edge-item is deleted.
		if intToBool(deletedInt) {
			continue
		}
		raw = append(raw, edgeRow{Edge: e})
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to read edges", err)
	}

	for i := range raw {
		seqStmt, err := s.stmt(`SELECT value FROM integers WHERE item = ? AND name = 'sequence'`)
		if err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare sequence lookup", err)
		}
		var seq int64
		switch err := seqStmt.QueryRow(raw[i].SelfRowid).Scan(&seq); err {
		case nil:
			raw[i].sequence = seq
			raw[i].hasSequence = true
		default:
			// No sequence property: fall through, edge keeps rowid order.
		}
	}

	sortEdges(raw)

	out := make([]types.Edge, len(raw))
	for i, r := range raw {
		out[i] = r.Edge
	}
	return out, nil
}

func sortEdges(edges []edgeRow) {
	// Insertion sort: edge counts per item are small, and this keeps the
	// tie-break rule (sequence asc, else rowid asc) explicit and obviously
	// correct rather than threading a custom less-func through sort.Slice.
	for i := 1; i < len(edges); i++ {
		j := i
		for j > 0 && edgeLess(edges[j], edges[j-1]) {
			edges[j], edges[j-1] = edges[j-1], edges[j]
			j--
		}
	}
}

// sortKey is an edge's effective ordering value: its sequence property when
// present, else its own rowid. The tie-break rule collapses to a single
// ascending sort over this value.
func (e edgeRow) sortKey() int64 {
	if e.hasSequence {
		return e.sequence
	}
	return e.SelfRowid
}

func edgeLess(a, b edgeRow) bool {
	if ak, bk := a.sortKey(), b.sortKey(); ak != bk {
		return ak < bk
	}
	return a.SelfRowid < b.SelfRowid
}
