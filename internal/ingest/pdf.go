package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF extracts plain text per page, labeling page boundaries so chunk
// metadata can be traced back to a page.
func parsePDF(content []byte, filename string) (*ParsedDocument, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("error parsing PDF %s: %w", filename, err)
	}

	numPages := r.NumPage()
	var parts []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("error parsing PDF %s: page %d: %w", filename, i, err)
		}
		parts = append(parts, pageSeparator(i)+text)
	}

	metadata := baseMetadata(filename, "pdf", "pdf")
	metadata["pages"] = numPages
	return &ParsedDocument{
		Text:     strings.Join(parts, "\n"),
		Metadata: metadata,
	}, nil
}
