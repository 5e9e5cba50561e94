// Package export renders customer rows into downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes a header row followed by the data rows. Fields containing
// delimiters, quotes, or newlines are quoted per RFC 4180.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV renders the rows as a CSV document.
func CSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, header, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
