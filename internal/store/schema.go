package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS usage_records (
    file_path        TEXT NOT NULL,
    ts               TEXT NOT NULL,
    provider         TEXT NOT NULL,
    model            TEXT NOT NULL,
    input_tokens     INTEGER NOT NULL DEFAULT 0,
    output_tokens    INTEGER NOT NULL DEFAULT 0,
    cache_read       INTEGER NOT NULL DEFAULT 0,
    cache_write      INTEGER NOT NULL DEFAULT 0,
    explicit_cost    REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path        TEXT PRIMARY KEY,
    mtime_ns         INTEGER NOT NULL,
    size_bytes       INTEGER NOT NULL,
    parsed_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_file ON usage_records(file_path);
CREATE INDEX IF NOT EXISTS idx_records_provider ON usage_records(provider, ts);
`
