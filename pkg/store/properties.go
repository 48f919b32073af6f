package store

import (
	"database/sql"

	"github.com/memri/pod/pkg/apierr"
)

// InsertInteger sets an item's integer (or Bool/DateTime, both stored as
// integers) property, replacing any prior value for (item, name) across all
// three side tables so at most one value ever exists per (item, name).
func (s *SQLStore) InsertInteger(rowid int64, name string, value int64) error {
	if err := s.DeleteProperty(rowid, name); err != nil {
		return err
	}
	stmt, err := s.stmt(`INSERT INTO integers (item, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to prepare integer insert", err)
	}
	if _, err := stmt.Exec(rowid, name, value); err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to insert integer property", err)
	}
	return nil
}

// InsertReal sets an item's real-valued property.
func (s *SQLStore) InsertReal(rowid int64, name string, value float64) error {
	if err := s.DeleteProperty(rowid, name); err != nil {
		return err
	}
	stmt, err := s.stmt(`INSERT INTO reals (item, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to prepare real insert", err)
	}
	if _, err := stmt.Exec(rowid, name, value); err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to insert real property", err)
	}
	return nil
}

// InsertString sets an item's text-valued property.
func (s *SQLStore) InsertString(rowid int64, name string, value string) error {
	if err := s.DeleteProperty(rowid, name); err != nil {
		return err
	}
	stmt, err := s.stmt(`INSERT INTO strings (item, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to prepare string insert", err)
	}
	if _, err := stmt.Exec(rowid, name, value); err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to insert string property", err)
	}
	return nil
}

// DeleteProperty removes any value for (item, name) across all three side
// tables, regardless of which table actually held it.
func (s *SQLStore) DeleteProperty(rowid int64, name string) error {
	for _, table := range []string{"integers", "reals", "strings"} {
		stmt, err := s.stmt(`DELETE FROM ` + table + ` WHERE item = ? AND name = ?`)
		if err != nil {
			return apierr.Wrap(apierr.InternalServerError, "failed to prepare property delete", err)
		}
		if _, err := stmt.Exec(rowid, name); err != nil {
			return apierr.Wrap(apierr.InternalServerError, "failed to delete property", err)
		}
	}
	return nil
}

// GetStringsForItem returns every string-valued property of an item.
func (s *SQLStore) GetStringsForItem(rowid int64) (map[string]string, error) {
	stmt, err := s.stmt(`SELECT name, value FROM strings WHERE item = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare strings lookup", err)
	}
	rows, err := stmt.Query(rowid)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to read strings", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to scan string property", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// GetIntegersForItem returns every integer-valued property of an item
// (including Bool/DateTime properties, still in their raw integer form).
func (s *SQLStore) GetIntegersForItem(rowid int64) (map[string]int64, error) {
	stmt, err := s.stmt(`SELECT name, value FROM integers WHERE item = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare integers lookup", err)
	}
	rows, err := stmt.Query(rowid)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to read integers", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to scan integer property", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// GetRealsForItem returns every real-valued property of an item.
func (s *SQLStore) GetRealsForItem(rowid int64) (map[string]float64, error) {
	stmt, err := s.stmt(`SELECT name, value FROM reals WHERE item = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare reals lookup", err)
	}
	rows, err := stmt.Query(rowid)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to read reals", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to scan real property", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// CheckIntegerExists reports whether (item, name) holds exactly value in the
// integers table.
func (s *SQLStore) CheckIntegerExists(rowid int64, name string, value int64) (bool, error) {
	return s.checkExists(`SELECT 1 FROM integers WHERE item = ? AND name = ? AND value = ?`, rowid, name, value)
}

// CheckRealExists reports whether (item, name) holds exactly value in the
// reals table.
func (s *SQLStore) CheckRealExists(rowid int64, name string, value float64) (bool, error) {
	return s.checkExists(`SELECT 1 FROM reals WHERE item = ? AND name = ? AND value = ?`, rowid, name, value)
}

// CheckStringExists reports whether (item, name) holds exactly value in the
// strings table.
func (s *SQLStore) CheckStringExists(rowid int64, name string, value string) (bool, error) {
	return s.checkExists(`SELECT 1 FROM strings WHERE item = ? AND name = ? AND value = ?`, rowid, name, value)
}

func (s *SQLStore) checkExists(query string, args ...any) (bool, error) {
	stmt, err := s.stmt(query)
	if err != nil {
		return false, apierr.Wrap(apierr.InternalServerError, "failed to prepare existence check", err)
	}
	var one int
	err = stmt.QueryRow(args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apierr.Wrap(apierr.InternalServerError, "failed to run existence check", err)
	}
	return true, nil
}

// SearchStrings returns the rowids of every item whose (name) string
// property equals value — the content-address lookup primitive the file
// store uses to find the item(s) declaring a given sha256.
func (s *SQLStore) SearchStrings(name, value string) ([]int64, error) {
	stmt, err := s.stmt(`SELECT item FROM strings WHERE name = ? AND value = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare string search", err)
	}
	rows, err := stmt.Query(name, value)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to search strings", err)
	}
	defer rows.Close()

	var rowids []int64
	for rows.Next() {
		var rowid int64
		if err := rows.Scan(&rowid); err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to scan string search result", err)
		}
		rowids = append(rowids, rowid)
	}
	return rowids, rows.Err()
}

// SearchPropertyEquals returns the rowids of every item whose (name)
// property equals value, dispatching to the side table the value type
// declares. It is the primitive pkg/pod's search() façade uses to
// AND-compose arbitrary property-equality filters.
func (s *SQLStore) SearchPropertyEquals(name string, raw any) ([]int64, error) {
	switch v := raw.(type) {
	case string:
		return s.SearchStrings(name, v)
	case int64:
		return s.searchIntegers(name, v)
	case float64:
		return s.searchReals(name, v)
	case bool:
		return s.searchIntegers(name, boolToInt(v))
	default:
		return nil, apierr.Newf(apierr.InternalServerError, "unsupported property search value type %T", raw)
	}
}

func (s *SQLStore) searchIntegers(name string, value int64) ([]int64, error) {
	stmt, err := s.stmt(`SELECT item FROM integers WHERE name = ? AND value = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare integer search", err)
	}
	rows, err := stmt.Query(name, value)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to search integers", err)
	}
	defer rows.Close()
	return scanRowids(rows)
}

func (s *SQLStore) searchReals(name string, value float64) ([]int64, error) {
	stmt, err := s.stmt(`SELECT item FROM reals WHERE name = ? AND value = ?`)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to prepare real search", err)
	}
	rows, err := stmt.Query(name, value)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to search reals", err)
	}
	defer rows.Close()
	return scanRowids(rows)
}

func scanRowids(rows *sql.Rows) ([]int64, error) {
	var rowids []int64
	for rows.Next() {
		var rowid int64
		if err := rows.Scan(&rowid); err != nil {
			return nil, apierr.Wrap(apierr.InternalServerError, "failed to scan rowid", err)
		}
		rowids = append(rowids, rowid)
	}
	return rowids, rows.Err()
}
