package registry

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gircore/girbind/internal/model"
)

// HeaderFacts are the repository facts discovery needs before the full
// decode: identity and declared dependencies.
type HeaderFacts struct {
	Namespace string
	Version   string
	Includes  []model.Dependency
}

// Cache memoizes header facts per repository file, keyed by path and
// invalidated on size or mtime change. Repeated runs skip re-decoding
// unchanged repositories.
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS header_cache (
	path      TEXT PRIMARY KEY,
	size      INTEGER NOT NULL,
	mtime     INTEGER NOT NULL,
	namespace TEXT NOT NULL,
	version   TEXT NOT NULL,
	includes  TEXT NOT NULL
);`

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached facts for path when the file on disk still
// matches the recorded size and mtime.
func (c *Cache) Lookup(path string) (HeaderFacts, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return HeaderFacts{}, false
	}
	row := c.db.QueryRow(
		`SELECT namespace, version, includes FROM header_cache WHERE path = ? AND size = ? AND mtime = ?`,
		path, info.Size(), info.ModTime().UnixNano())
	var facts HeaderFacts
	var includes string
	if err := row.Scan(&facts.Namespace, &facts.Version, &includes); err != nil {
		return HeaderFacts{}, false
	}
	facts.Includes = decodeIncludes(includes)
	return facts, true
}

// Store records the facts for path against its current size and mtime.
func (c *Cache) Store(path string, facts HeaderFacts) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	_, err = c.db.Exec(
		`INSERT INTO header_cache (path, size, mtime, namespace, version, includes)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   size = excluded.size, mtime = excluded.mtime,
		   namespace = excluded.namespace, version = excluded.version,
		   includes = excluded.includes`,
		path, info.Size(), info.ModTime().UnixNano(),
		facts.Namespace, facts.Version, encodeIncludes(facts.Includes))
	if err != nil {
		return fmt.Errorf("storing header facts for %s: %w", path, err)
	}
	return nil
}

// Includes are stored as "Name-Version" units joined with commas;
// namespace names never contain either character.
func encodeIncludes(deps []model.Dependency) string {
	units := make([]string, len(deps))
	for i, dep := range deps {
		units[i] = dep.Name + "-" + dep.Version
	}
	return strings.Join(units, ",")
}

func decodeIncludes(s string) []model.Dependency {
	if s == "" {
		return nil
	}
	var deps []model.Dependency
	for _, unit := range strings.Split(s, ",") {
		if name, version, ok := splitUnit(unit); ok {
			deps = append(deps, model.Dependency{Name: name, Version: version})
		}
	}
	return deps
}
