package store

// schemaSQL is the DDL for the snapshot cache. Every row below snapshots is
// owned by exactly one snapshot and goes with it.
const schemaSQL = `
-- One row per cached index build, keyed by the reference collection hash
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY,
    content_hash TEXT NOT NULL UNIQUE,
    format_version INTEGER NOT NULL,
    entity_count INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entities (
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    canonical_id TEXT NOT NULL,
    canonical_name TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    period_start INTEGER,
    period_end INTEGER,
    description TEXT,
    source_identifier TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, canonical_id)
);

-- Declared aliases in generation order
CREATE TABLE IF NOT EXISTS entity_aliases (
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    canonical_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    alias TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, canonical_id, position)
);

-- Ordered cross_reference_ids
CREATE TABLE IF NOT EXISTS cross_refs (
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    source_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    target_id TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, source_id, position)
);

CREATE TABLE IF NOT EXISTS name_index (
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    normalized_name TEXT NOT NULL,
    canonical_id TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, normalized_name)
);

-- Candidates per alias in priority order
CREATE TABLE IF NOT EXISTS alias_index (
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    normalized_alias TEXT NOT NULL,
    position INTEGER NOT NULL,
    canonical_id TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, normalized_alias, position)
);

CREATE INDEX IF NOT EXISTS idx_entities_snapshot ON entities(snapshot_id, position);
CREATE INDEX IF NOT EXISTS idx_snapshots_version ON snapshots(format_version, id);
`
