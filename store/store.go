// Package store persists canonical entity index snapshots in SQLite, keyed
// by the content hash of the reference collection they were built from.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/goprovenance/index"
)

// FormatVersion is bumped whenever the persisted layout or the meaning of a
// stored field changes. Snapshots written under another version are misses.
const FormatVersion = 1

var (
	ErrSnapshotNotFound = errors.New("store: snapshot not found")
	ErrClosed           = errors.New("store: closed")
)

// Snapshot describes one cached index build.
type Snapshot struct {
	ID            int64     `json:"id"`
	ContentHash   string    `json:"content_hash"`
	FormatVersion int       `json:"format_version"`
	EntityCount   int       `json:"entity_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store wraps the SQLite snapshot cache.
type Store struct {
	db     *sql.DB
	log    *slog.Logger
	closed atomic.Bool
}

// New opens (or creates) a SQLite database at dbPath and applies the
// schema and pending migrations.
func New(dbPath string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, log: log}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database. Further calls fail with ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// SaveIndex writes idx as the snapshot for hash, replacing any snapshot
// already stored under that hash. The write is a single transaction.
func (s *Store) SaveIndex(ctx context.Context, hash string, idx *index.Index) error {
	if err := s.check(); err != nil {
		return err
	}
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE content_hash = ?", hash); err != nil {
		return fmt.Errorf("store: replacing snapshot: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (content_hash, format_version, entity_count) VALUES (?, ?, ?)",
		hash, FormatVersion, idx.Len())
	if err != nil {
		return fmt.Errorf("store: inserting snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := writeEntities(ctx, tx, id, idx.Entities()); err != nil {
		return err
	}
	if err := writeIndexes(ctx, tx, id, idx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: committing snapshot: %w", err)
	}

	s.log.Info("store: snapshot saved",
		"content_hash", hash, "entities", idx.Len(), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func writeEntities(ctx context.Context, tx *sql.Tx, snapshot int64, entities []index.Entity) error {
	entStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (snapshot_id, position, canonical_id, canonical_name, entity_type,
			period_start, period_end, description, source_identifier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: preparing entity insert: %w", err)
	}
	defer entStmt.Close()
	aliasStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO entity_aliases (snapshot_id, canonical_id, position, alias) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: preparing alias insert: %w", err)
	}
	defer aliasStmt.Close()
	refStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO cross_refs (snapshot_id, source_id, position, target_id) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: preparing cross reference insert: %w", err)
	}
	defer refStmt.Close()

	for pos, e := range entities {
		var start, end sql.NullInt64
		if e.Period != nil {
			start = sql.NullInt64{Int64: int64(e.Period.Start), Valid: true}
			end = sql.NullInt64{Int64: int64(e.Period.End), Valid: true}
		}
		if _, err := entStmt.ExecContext(ctx, snapshot, pos, e.ID, e.Name, string(e.Type),
			start, end, e.Description, e.Source); err != nil {
			return fmt.Errorf("store: inserting entity %s: %w", e.ID, err)
		}
		for i, a := range e.Aliases {
			if _, err := aliasStmt.ExecContext(ctx, snapshot, e.ID, i, a); err != nil {
				return fmt.Errorf("store: inserting alias of %s: %w", e.ID, err)
			}
		}
		for i, ref := range e.CrossRefs {
			if _, err := refStmt.ExecContext(ctx, snapshot, e.ID, i, ref); err != nil {
				return fmt.Errorf("store: inserting cross reference of %s: %w", e.ID, err)
			}
		}
	}
	return nil
}

func writeIndexes(ctx context.Context, tx *sql.Tx, snapshot int64, idx *index.Index) error {
	nameStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO name_index (snapshot_id, normalized_name, canonical_id) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: preparing name insert: %w", err)
	}
	defer nameStmt.Close()
	for name, id := range idx.NameIndex() {
		if _, err := nameStmt.ExecContext(ctx, snapshot, name, id); err != nil {
			return fmt.Errorf("store: inserting name %q: %w", name, err)
		}
	}

	aliasStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO alias_index (snapshot_id, normalized_alias, position, canonical_id) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: preparing alias index insert: %w", err)
	}
	defer aliasStmt.Close()
	for alias, ids := range idx.AliasIndex() {
		for i, id := range ids {
			if _, err := aliasStmt.ExecContext(ctx, snapshot, alias, i, id); err != nil {
				return fmt.Errorf("store: inserting alias %q: %w", alias, err)
			}
		}
	}
	return nil
}

// LoadIndex restores the snapshot stored under hash. A missing snapshot or
// one written under another FormatVersion returns ErrSnapshotNotFound.
func (s *Store) LoadIndex(ctx context.Context, hash string) (*index.Index, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	snap, err := s.snapshotBy(ctx, "content_hash = ?", hash)
	if err != nil {
		return nil, err
	}
	if snap.FormatVersion != FormatVersion {
		s.log.Warn("store: snapshot format mismatch",
			"content_hash", hash, "version", snap.FormatVersion, "want", FormatVersion)
		return nil, fmt.Errorf("%w: %s has format version %d", ErrSnapshotNotFound, hash, snap.FormatVersion)
	}
	return s.load(ctx, snap)
}

// LatestSnapshot returns the most recently written snapshot of the current
// format version.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.snapshotBy(ctx, "format_version = ? ORDER BY id DESC LIMIT 1", FormatVersion)
}

// LoadLatest restores the snapshot LatestSnapshot describes.
func (s *Store) LoadLatest(ctx context.Context) (*index.Index, *Snapshot, error) {
	snap, err := s.LatestSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	idx, err := s.load(ctx, snap)
	if err != nil {
		return nil, nil, err
	}
	return idx, snap, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_hash, format_version, entity_count, created_at
		FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.ContentHash, &snap.FormatVersion, &snap.EntityCount, &snap.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes the snapshot stored under hash and all its rows.
func (s *Store) DeleteSnapshot(ctx context.Context, hash string) error {
	if err := s.check(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE content_hash = ?", hash)
	if err != nil {
		return fmt.Errorf("store: deleting snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, hash)
	}
	return nil
}

// Prune deletes all but the keep most recent snapshots and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("store: pruning snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) snapshotBy(ctx context.Context, where string, args ...any) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, content_hash, format_version, entity_count, created_at
		FROM snapshots WHERE `+where, args...).
		Scan(&snap.ID, &snap.ContentHash, &snap.FormatVersion, &snap.EntityCount, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) load(ctx context.Context, snap *Snapshot) (*index.Index, error) {
	start := time.Now()
	entities, err := s.readEntities(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	names, err := s.readNames(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	aliases, err := s.readAliasIndex(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	idx, err := index.Restore(entities, names, aliases)
	if err != nil {
		return nil, fmt.Errorf("store: restoring snapshot %s: %w", snap.ContentHash, err)
	}
	s.log.Info("store: snapshot loaded",
		"content_hash", snap.ContentHash, "entities", idx.Len(), "elapsed", time.Since(start).Round(time.Millisecond))
	return idx, nil
}

func (s *Store) readEntities(ctx context.Context, snapshot int64) ([]index.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_id, canonical_name, entity_type, period_start, period_end, description, source_identifier
		FROM entities WHERE snapshot_id = ? ORDER BY position`, snapshot)
	if err != nil {
		return nil, fmt.Errorf("store: reading entities: %w", err)
	}
	defer rows.Close()

	var entities []index.Entity
	pos := make(map[string]int)
	for rows.Next() {
		var (
			e          index.Entity
			typ        string
			start, end sql.NullInt64
			desc       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &typ, &start, &end, &desc, &e.Source); err != nil {
			return nil, err
		}
		e.Type = index.EntityType(typ)
		e.Description = desc.String
		if start.Valid || end.Valid {
			e.Period = &index.Period{Start: int(start.Int64), End: int(end.Int64)}
		}
		e.Aliases = []string{}
		e.CrossRefs = []string{}
		pos[e.ID] = len(entities)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.eachPair(ctx, `SELECT canonical_id, alias FROM entity_aliases
		WHERE snapshot_id = ? ORDER BY canonical_id, position`, snapshot, func(id, alias string) error {
		i, ok := pos[id]
		if !ok {
			return fmt.Errorf("%w: alias owner %s", index.ErrDanglingReference, id)
		}
		entities[i].Aliases = append(entities[i].Aliases, alias)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := s.eachPair(ctx, `SELECT source_id, target_id FROM cross_refs
		WHERE snapshot_id = ? ORDER BY source_id, position`, snapshot, func(id, target string) error {
		i, ok := pos[id]
		if !ok {
			return fmt.Errorf("%w: cross reference source %s", index.ErrDanglingReference, id)
		}
		entities[i].CrossRefs = append(entities[i].CrossRefs, target)
		return nil
	}); err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *Store) readNames(ctx context.Context, snapshot int64) (map[string]string, error) {
	names := make(map[string]string)
	err := s.eachPair(ctx, "SELECT normalized_name, canonical_id FROM name_index WHERE snapshot_id = ?",
		snapshot, func(name, id string) error {
			names[name] = id
			return nil
		})
	return names, err
}

func (s *Store) readAliasIndex(ctx context.Context, snapshot int64) (map[string][]string, error) {
	aliases := make(map[string][]string)
	err := s.eachPair(ctx, `SELECT normalized_alias, canonical_id FROM alias_index
		WHERE snapshot_id = ? ORDER BY normalized_alias, position`, snapshot, func(alias, id string) error {
		aliases[alias] = append(aliases[alias], id)
		return nil
	})
	return aliases, err
}

// eachPair runs a two-column string query and feeds each row to fn.
func (s *Store) eachPair(ctx context.Context, query string, snapshot int64, fn func(a, b string) error) error {
	rows, err := s.db.QueryContext(ctx, query, snapshot)
	if err != nil {
		return fmt.Errorf("store: querying: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return err
		}
		if err := fn(a, b); err != nil {
			return err
		}
	}
	return rows.Err()
}
