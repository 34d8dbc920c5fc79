// Package ingest parses support documents and feeds them through the
// chunking and retrieval pipeline.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ParsedDocument is the text and metadata extracted from one document.
type ParsedDocument struct {
	Text     string
	Metadata map[string]interface{}
}

var (
	htmlIDPattern   = regexp.MustCompile(`id=["']([^"']+)["']`)
	htmlNamePattern = regexp.MustCompile(`name=["']([^"']+)["']`)
	htmlTextPattern = regexp.MustCompile(`>([^<]+)<`)
)

// Supported reports whether the ingester can parse files with ext
// (including the leading dot).
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".md", ".txt", ".json", ".pdf", ".html", ".xlsx":
		return true
	}
	return false
}

// ParseDocument extracts text and metadata from content based on the
// filename's extension. Unsupported extensions are an error.
func ParseDocument(content []byte, filename string) (*ParsedDocument, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md":
		return parsePlain(content, filename, "markdown", "md")
	case ".txt":
		return parsePlain(content, filename, "text", "txt")
	case ".json":
		return parseJSON(content, filename)
	case ".pdf":
		return parsePDF(content, filename)
	case ".html":
		return parseHTML(content, filename)
	case ".xlsx":
		return parseExcel(content, filename)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(filename))
	}
}

// parsePlain passes content through as UTF-8 text.
func parsePlain(content []byte, filename, docType, format string) (*ParsedDocument, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	return &ParsedDocument{
		Text:     text,
		Metadata: baseMetadata(filename, docType, format),
	}, nil
}

// parseJSON validates the document and re-indents it into readable text.
func parseJSON(content []byte, filename string) (*ParsedDocument, error) {
	var data interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", filename, err)
	}
	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("re-encode JSON in %s: %w", filename, err)
	}
	return &ParsedDocument{
		Text:     string(text),
		Metadata: baseMetadata(filename, "json", "json"),
	}, nil
}

// parseHTML extracts visible text plus the id/name attributes UI-automation
// consumers need for selectors, without a structural HTML parse.
func parseHTML(content []byte, filename string) (*ParsedDocument, error) {
	html := string(content)
	ids := uniqueMatches(htmlIDPattern, html)
	names := uniqueMatches(htmlNamePattern, html)

	var textParts []string
	for _, m := range htmlTextPattern.FindAllStringSubmatch(html, -1) {
		if t := strings.TrimSpace(m[1]); t != "" {
			textParts = append(textParts, t)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HTML Structure Analysis for %s:\n\n", filename)
	b.WriteString("TEXT CONTENT:\n")
	b.WriteString(strings.Join(textParts, "\n"))
	b.WriteString("\n\nAVAILABLE SELECTORS:\n")
	fmt.Fprintf(&b, "IDs: %s\n", strings.Join(ids, ", "))
	fmt.Fprintf(&b, "Names: %s\n", strings.Join(names, ", "))
	b.WriteString("\nFULL HTML:\n")
	b.WriteString(html)

	metadata := baseMetadata(filename, "html", "html")
	metadata["available_ids"] = ids
	metadata["available_names"] = names
	return &ParsedDocument{Text: b.String(), Metadata: metadata}, nil
}

// uniqueMatches returns the distinct first submatches of re in s, in order
// of first appearance.
func uniqueMatches(re *regexp.Regexp, s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

func baseMetadata(filename, docType, format string) map[string]interface{} {
	return map[string]interface{}{
		"source_document": filename,
		"type":            docType,
		"format":          format,
	}
}

// pageSeparator labels page boundaries in extracted PDF text.
func pageSeparator(page int) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "--- Page %d ---\n", page)
	return b.String()
}
