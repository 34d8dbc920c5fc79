package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// parseExcel flattens every sheet into lines of tab-joined cells, with a
// sheet-name header, so spreadsheet content (test matrices, field tables)
// is retrievable as text.
func parseExcel(content []byte, filename string) (*ParsedDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("error parsing XLSX %s: %w", filename, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var b strings.Builder
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("error parsing XLSX %s: sheet %s: %w", filename, sheet, err)
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}

	metadata := baseMetadata(filename, "spreadsheet", "xlsx")
	metadata["sheets"] = len(sheets)
	return &ParsedDocument{
		Text:     strings.TrimSpace(b.String()),
		Metadata: metadata,
	}, nil
}
