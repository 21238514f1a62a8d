package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"
)

// fromCSV re-serializes records as ", "-joined rows, header first, the
// shape the tabular chunking strategy expects.
func fromCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, strings.Join(record, ", "))
	}
	return strings.Join(lines, "\n"), nil
}

// fromExcel serializes the first sheet the same way as fromCSV.
func fromExcel(data []byte) (string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return "", errors.New("workbook has no sheets")
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, ", "))
	}
	return strings.Join(lines, "\n"), nil
}
