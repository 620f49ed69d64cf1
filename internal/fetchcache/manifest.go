package fetchcache

import (
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/jmoiron/sqlx"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
)

// manifest is a small sqlite-backed ledger of what has been fetched: one row
// per URL, recording where it landed on disk, its size, and when it was
// fetched. It exists purely for operator visibility through Cache.Records
// (no CLI flag exposes it); nothing in the build path reads it back, so a
// manifest failure is logged
// and ignored rather than failing the fetch.
type manifest struct {
	db *sqlx.DB
}

const manifestSchema = `
CREATE TABLE IF NOT EXISTS fetches (
	url        TEXT PRIMARY KEY,
	cache_path TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	fetched_at TEXT NOT NULL
);
`

func openManifest(path string) (*manifest, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pkerrors.Wrap(pkerrors.BadInput, path, "open fetch manifest", err)
	}
	if _, err := db.Exec(manifestSchema); err != nil {
		db.Close()
		return nil, pkerrors.Wrap(pkerrors.BadInput, path, "create fetch manifest schema", err)
	}
	return &manifest{db: db}, nil
}

func (m *manifest) record(url, cachePath string, sizeBytes int, fetchedAt time.Time) error {
	_, err := m.db.Exec(
		`INSERT INTO fetches (url, cache_path, size_bytes, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET cache_path=excluded.cache_path, size_bytes=excluded.size_bytes, fetched_at=excluded.fetched_at`,
		url, cachePath, sizeBytes, fetchedAt.Format(time.RFC3339),
	)
	return err
}

// fetchRecord is one row of the manifest, as returned by Cache.Records.
type fetchRecord struct {
	URL       string `db:"url"`
	CachePath string `db:"cache_path"`
	SizeBytes int    `db:"size_bytes"`
	FetchedAt string `db:"fetched_at"`
}

// Records returns every entry in the fetch manifest, ordered by URL. It
// returns an empty slice (not an error) when no manifest is configured.
func (c *Cache) Records() ([]fetchRecord, error) {
	if c.manifest == nil {
		return nil, nil
	}
	var out []fetchRecord
	err := c.manifest.db.Select(&out, `SELECT url, cache_path, size_bytes, fetched_at FROM fetches ORDER BY url`)
	if err != nil {
		return nil, pkerrors.Wrap(pkerrors.InternalInvariant, "", "query fetch manifest", err)
	}
	return out, nil
}

func (m *manifest) close() error {
	return m.db.Close()
}
