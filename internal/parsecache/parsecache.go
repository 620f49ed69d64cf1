// Package parsecache implements the §6 "parsed cache" layer:
// parsed/<source>/<org>/<pathway-id>.parsed, a cached RawPathway keyed by a
// hash of the raw source document so a re-run that re-fetches an unchanged
// document skips re-parsing it, and a changed document is transparently
// invalidated.
//
// Grounded on the same write-temp-then-rename discipline as
// internal/fetchcache and internal/indexstore; the cache entry is a small
// JSON envelope carrying the source document's hash alongside the parsed
// (not yet normalized) RawPathway.
package parsecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

// HashDoc returns the content hash used to key a parsed-cache entry.
func HashDoc(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

type envelope struct {
	DocHash string                  `json:"doc_hash"`
	Raw     pathwayindex.RawPathway `json:"raw"`
}

// Load returns the cached RawPathway at path if it exists and its stored
// doc_hash matches docHash; otherwise it reports a cache miss (never an
// error — a miss or a hash mismatch just means the caller re-parses).
func Load(path, docHash string) (*pathwayindex.RawPathway, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	if env.DocHash != docHash {
		return nil, false
	}
	return &env.Raw, true
}

// Save writes raw to path under docHash, atomically.
func Save(path, docHash string, raw pathwayindex.RawPathway) error {
	data, err := json.Marshal(envelope{DocHash: docHash, Raw: raw})
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "marshal parsed-cache entry", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "create parsed-cache directory", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
