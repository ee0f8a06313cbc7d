package jobs

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS render_jobs (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    error TEXT,
    meta_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_render_jobs_client ON render_jobs (client_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_render_jobs_updated ON render_jobs (updated_at DESC);
`
