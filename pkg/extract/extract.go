// Package extract turns uploaded file bytes into plain text for chunking.
// Extraction failures are absorbed per file: a file that cannot be parsed
// contributes empty text instead of aborting the upload batch.
package extract

import (
	"path/filepath"
	"strings"
)

// Extract dispatches on the file extension. Unknown extensions are treated
// as plain text.
func Extract(data []byte, filename string) string {
	var (
		text string
		err  error
	)
	switch ext(filename) {
	case "pdf":
		text, err = fromPDF(data)
	case "docx":
		text, err = fromDocx(data)
	case "csv":
		text, err = fromCSV(data)
	case "xlsx", "xls":
		text, err = fromExcel(data)
	case "sqlite", "db":
		text, err = fromSQLite(data)
	default:
		text = string(data)
	}
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
