// Package fileid derives deterministic document IDs for records imported from files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
)

const prefix = "file:"

// RecordID returns a stable document ID for the record at index within the
// file at absolutePath. Re-importing the same file yields the same IDs, so
// records are replaced rather than duplicated.
func RecordID(absolutePath string, index int) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized + "#" + strconv.Itoa(index)))
	return prefix + hex.EncodeToString(hash[:16])
}
