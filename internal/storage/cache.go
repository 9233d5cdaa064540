package storage

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// DocumentEntry is one cached extraction. Document is the uncompressed JSON
// encoding of the extracted document.
type DocumentEntry struct {
	Key       string
	Header    string
	Provider  string
	Args      []string
	RunID     string
	Document  []byte
	Files     []FileChecksum
	CreatedAt time.Time
	ExpiresAt time.Time // zero when the entry never expires
}

// FileChecksum records the content hash of one input file.
type FileChecksum struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Path              string `json:"path"`
	Documents         int    `json:"documents"`
	Files             int    `json:"files"`
	Failures          int    `json:"failures"`
	CompressedBytes   int64  `json:"compressedBytes"`
	UncompressedBytes int64  `json:"uncompressedBytes"`
	Expired           int    `json:"expired"`
}

// DocumentCache stores extracted documents keyed by provider, header and
// arguments. An entry is served only while every file it was built from
// still has the recorded checksum.
type DocumentCache struct {
	db  *DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// NewDocumentCache creates a document cache on db.
func NewDocumentCache(db *DB) (*DocumentCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &DocumentCache{
		db:  db,
		enc: enc,
		dec: dec,
		now: time.Now,
	}, nil
}

// Close releases the codecs and the underlying database.
func (c *DocumentCache) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		return err
	}
	return c.db.Close()
}

// Key derives the cache key of an extraction request.
func Key(provider, header string, args []string) string {
	if abs, err := filepath.Abs(header); err == nil {
		header = abs
	}
	h, _ := blake2b.New256(nil)
	io.WriteString(h, provider)
	h.Write([]byte{0})
	io.WriteString(h, header)
	for _, arg := range args {
		h.Write([]byte{0})
		io.WriteString(h, arg)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Checksum returns the blake2b-256 hash of a file's contents.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, _ := blake2b.New256(nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Checksums hashes every path.
func Checksums(paths []string) ([]FileChecksum, error) {
	out := make([]FileChecksum, 0, len(paths))
	for _, p := range paths {
		sum, err := Checksum(p)
		if err != nil {
			return nil, fmt.Errorf("failed to checksum %s: %w", p, err)
		}
		out = append(out, FileChecksum{Path: p, Checksum: sum})
	}
	return out, nil
}

// Get returns the entry for key. Expired entries and entries whose input
// files changed are deleted and reported as a miss.
func (c *DocumentCache) Get(key string) (*DocumentEntry, bool, error) {
	var (
		entry     DocumentEntry
		argsJSON  string
		createdAt string
		expiresAt sql.NullString
		blob      []byte
	)
	err := c.db.QueryRow(`
		SELECT key, header, provider, args_json, run_id, created_at, expires_at, blob
		FROM documents
		WHERE key = ?
	`, key).Scan(&entry.Key, &entry.Header, &entry.Provider, &argsJSON, &entry.RunID, &createdAt, &expiresAt, &blob)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if expiresAt.Valid {
		entry.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt.String)
		if !entry.ExpiresAt.After(c.now()) {
			c.db.logger.Debug("Cache entry expired", "key", key)
			return nil, false, c.delete(key)
		}
	}

	files, err := c.files(key)
	if err != nil {
		return nil, false, err
	}
	if stale, path := staleFile(files); stale {
		c.db.logger.Debug("Cache entry stale", "key", key, "path", path)
		return nil, false, c.delete(key)
	}
	entry.Files = files

	if err := json.Unmarshal([]byte(argsJSON), &entry.Args); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached args: %w", err)
	}
	entry.Document, err = c.dec.DecodeAll(blob, nil)
	if err != nil {
		c.db.logger.Warn("Dropping corrupt cache entry", "key", key, "error", err.Error())
		return nil, false, c.delete(key)
	}

	return &entry, true, nil
}

// Put stores entry, replacing any previous entry with the same key. A ttl
// of zero or less stores an entry that never expires.
func (c *DocumentCache) Put(entry *DocumentEntry, ttl time.Duration) error {
	argsJSON, err := json.Marshal(entry.Args)
	if err != nil {
		return fmt.Errorf("failed to encode args: %w", err)
	}
	if entry.Args == nil {
		argsJSON = []byte("[]")
	}

	now := c.now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	var expiresAt interface{}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
		expiresAt = entry.ExpiresAt.Format(time.RFC3339)
	}

	blob := c.enc.EncodeAll(entry.Document, nil)

	return c.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO documents
			(key, header, provider, args_json, run_id, created_at, expires_at, blob, size)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.Key, entry.Header, entry.Provider, string(argsJSON), entry.RunID,
			entry.CreatedAt.UTC().Format(time.RFC3339), expiresAt, blob, len(entry.Document))
		if err != nil {
			return fmt.Errorf("failed to store cache entry: %w", err)
		}

		if _, err := tx.Exec("DELETE FROM document_files WHERE key = ?", entry.Key); err != nil {
			return fmt.Errorf("failed to reset cache entry files: %w", err)
		}
		for _, f := range entry.Files {
			if _, err := tx.Exec(`
				INSERT OR REPLACE INTO document_files (key, path, checksum)
				VALUES (?, ?, ?)
			`, entry.Key, f.Path, f.Checksum); err != nil {
				return fmt.Errorf("failed to store cache entry file: %w", err)
			}
		}
		return nil
	})
}

// Delete removes the entry for key.
func (c *DocumentCache) Delete(key string) error {
	return c.delete(key)
}

func (c *DocumentCache) delete(key string) error {
	if _, err := c.db.Exec("DELETE FROM documents WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every document and recorded failure. It returns the number
// of documents removed.
func (c *DocumentCache) Clear() (int64, error) {
	var removed int64
	err := c.db.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM documents")
		if err != nil {
			return fmt.Errorf("failed to clear documents: %w", err)
		}
		removed, _ = res.RowsAffected()
		if _, err := tx.Exec("DELETE FROM parse_failures"); err != nil {
			return fmt.Errorf("failed to clear parse failures: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.db.logger.Info("Cache cleared", "documents", removed)
	return removed, nil
}

// Prune removes expired documents and failures, and documents whose input
// files changed or disappeared. It returns the number of documents removed.
func (c *DocumentCache) Prune() (int64, error) {
	now := c.now().UTC().Format(time.RFC3339)

	res, err := c.db.Exec("DELETE FROM documents WHERE expires_at IS NOT NULL AND expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired documents: %w", err)
	}
	removed, _ := res.RowsAffected()

	if _, err := c.db.Exec("DELETE FROM parse_failures WHERE expires_at <= ?", now); err != nil {
		return removed, fmt.Errorf("failed to prune parse failures: %w", err)
	}

	keys, err := c.keys()
	if err != nil {
		return removed, err
	}
	for _, key := range keys {
		files, err := c.files(key)
		if err != nil {
			return removed, err
		}
		if stale, _ := staleFile(files); !stale {
			continue
		}
		if err := c.delete(key); err != nil {
			return removed, err
		}
		removed++
	}

	c.db.logger.Debug("Cache pruned", "documents", removed)
	return removed, nil
}

// Stats returns a summary of the cache contents.
func (c *DocumentCache) Stats() (CacheStats, error) {
	stats := CacheStats{Path: c.db.Path()}
	now := c.now().UTC().Format(time.RFC3339)

	err := c.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(LENGTH(blob)), 0), COALESCE(SUM(size), 0)
		FROM documents
	`).Scan(&stats.Documents, &stats.CompressedBytes, &stats.UncompressedBytes)
	if err != nil {
		return stats, fmt.Errorf("failed to count documents: %w", err)
	}

	queries := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{"SELECT COUNT(*) FROM document_files", nil, &stats.Files},
		{"SELECT COUNT(*) FROM parse_failures", nil, &stats.Failures},
		{"SELECT COUNT(*) FROM documents WHERE expires_at IS NOT NULL AND expires_at <= ?", []interface{}{now}, &stats.Expired},
	}
	for _, q := range queries {
		if err := c.db.QueryRow(q.query, q.args...).Scan(q.dest); err != nil {
			return stats, fmt.Errorf("failed to read cache stats: %w", err)
		}
	}

	return stats, nil
}

func (c *DocumentCache) keys() ([]string, error) {
	rows, err := c.db.Query("SELECT key FROM documents")
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan cache key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (c *DocumentCache) files(key string) ([]FileChecksum, error) {
	rows, err := c.db.Query("SELECT path, checksum FROM document_files WHERE key = ? ORDER BY rowid", key)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry files: %w", err)
	}
	defer rows.Close()

	var files []FileChecksum
	for rows.Next() {
		var f FileChecksum
		if err := rows.Scan(&f.Path, &f.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// staleFile reports the first file whose contents no longer match.
func staleFile(files []FileChecksum) (bool, string) {
	for _, f := range files {
		sum, err := Checksum(f.Path)
		if err != nil || sum != f.Checksum {
			return true, f.Path
		}
	}
	return false, ""
}
