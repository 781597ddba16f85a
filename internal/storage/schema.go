package storage

const schemaSQL = `
-- One cached analysis per domain. The result column holds the full
-- serialized analysis result; the scalar columns exist for listing and
-- freshness checks without deserializing.
CREATE TABLE IF NOT EXISTS analyses (
    domain TEXT PRIMARY KEY NOT NULL,
    session_id TEXT NOT NULL,
    pages_analyzed INTEGER NOT NULL DEFAULT 0,
    result TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
`
