// Package cache provides content-addressed stores for expensive judge results
// such as structured postings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Store maps content keys to opaque values. Implementations bound either the
// number of entries or their lifetime.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key derives a content address from the namespace and the normalised content.
// Leading and trailing whitespace does not change the key.
func Key(namespace, content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return namespace + ":" + hex.EncodeToString(sum[:])
}
