package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"time"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// Extra metadata keys set by the service.
const (
	MetaHash     = "sha256"
	MetaURL      = "url"
	MetaPlatform = "platform"
	MetaTitle    = "title"

	// MetaInjection lists instruction-like phrases found in the text.
	MetaInjection = "injection_keywords"
)

// NewMetadata builds document metadata, recording the content hash next to the caller's extra keys.
func NewMetadata(content, filename string, extra map[string]string, now time.Time) types.DocumentMetadata {
	merged := make(map[string]string, len(extra)+1)
	maps.Copy(merged, extra)
	merged[MetaHash] = computeHash(content)

	return types.DocumentMetadata{
		Filename:   filename,
		UploadedAt: now.UTC(),
		Extra:      merged,
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
