package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// Cache is a byte-oriented key/value store with per-entry expiry
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ExtractionKey derives the cache key for a document's text under a pattern set version.
// Changing the pattern version invalidates every earlier extraction.
func ExtractionKey(patternVersion, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "claimfix:extract:" + patternVersion + ":" + hex.EncodeToString(hash[:])
}

// ExtractionCache stores extracted fields keyed by pattern version and text
type ExtractionCache struct {
	store Cache
	ttl   time.Duration
}

// NewExtractionCache wraps a byte cache
func NewExtractionCache(store Cache, ttl time.Duration) *ExtractionCache {
	return &ExtractionCache{store: store, ttl: ttl}
}

// Get returns cached fields for the text, if present and decodable
func (c *ExtractionCache) Get(patternVersion, text string) (model.ExtractedFields, bool) {
	data, ok := c.store.Get(ExtractionKey(patternVersion, text))
	if !ok {
		return nil, false
	}
	var fields model.ExtractedFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// Put stores extracted fields for the text
func (c *ExtractionCache) Put(patternVersion, text string, fields model.ExtractedFields) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.store.Set(ExtractionKey(patternVersion, text), data, c.ttl)
}
