package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVContentType is the media type of RenderCSV output.
const CSVContentType = "text/csv; charset=utf-8"

// RenderCSV writes the header line followed by every row. Title and subtitle are not emitted.
func RenderCSV(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
