// Package docid derives deterministic document IDs for ingested files.
package docid

import (
	"crypto/md5"
	"encoding/hex"
)

// contentPrefixLen is how much of the content participates in the ID.
const contentPrefixLen = 100

// DocumentID returns a stable ID for a document derived from its source
// path (or name) and a prefix of its content. Re-ingesting the same file
// yields the same ID, so the registry records one entry per document.
func DocumentID(path string, content []byte) string {
	prefix := content
	if len(prefix) > contentPrefixLen {
		prefix = prefix[:contentPrefixLen]
	}
	h := md5.New()
	h.Write([]byte(path))
	h.Write([]byte(":"))
	h.Write(prefix)
	return hex.EncodeToString(h.Sum(nil))
}
