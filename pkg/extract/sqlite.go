package extract

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// fromSQLite dumps every table as a "Table: <name>" block with a header
// line and one ", "-joined line per row, blank-line separated, the shape
// the table-dump chunking strategy expects. The driver needs a real file,
// so the upload is spilled to a temp path first.
func fromSQLite(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*.sqlite")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	db, err := sql.Open("sqlite", tmp.Name())
	if err != nil {
		return "", err
	}
	defer db.Close()

	tables, err := tableNames(db)
	if err != nil {
		return "", err
	}

	var blocks []string
	for _, table := range tables {
		block, err := dumpTable(db, table)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), nil
}

func tableNames(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func dumpTable(db *sql.DB, table string) (string, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %q", table))
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("Table: %s", table),
		strings.Join(columns, ", "),
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return "", err
		}
		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = stringify(v)
		}
		lines = append(lines, strings.Join(fields, ", "))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
