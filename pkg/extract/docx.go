package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// fromDocx reads word/document.xml out of the docx zip container and
// collects the text runs, one paragraph per line.
func fromDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var document io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if document == nil {
		return "", errors.New("docx archive has no word/document.xml")
	}
	defer document.Close()

	var (
		builder strings.Builder
		inText  bool
	)
	decoder := xml.NewDecoder(document)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := token.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(el)
			}
		}
	}
	return builder.String(), nil
}
