package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint identifies card content for import deduplication: both sides
// are lowercased, trimmed and newline-normalized, joined with a newline, and
// hashed with SHA-256. Cosmetic edits (case, surrounding whitespace, CRLF)
// keep the fingerprint stable; content edits change it.
func Fingerprint(front, back string) string {
	normalized := normalize(front) + "\n" + normalize(back)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, "\r\n", "\n")
}
