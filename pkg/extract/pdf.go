package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("create pdf reader: %w", err)
	}

	body, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf content: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", err
	}
	return buf.String(), nil
}
