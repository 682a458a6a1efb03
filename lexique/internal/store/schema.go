package store

import "database/sql"

// Schema is the corpus schema. The vtq and observability tables are applied
// separately by their own packages.
const Schema = `
-- Paragraphs: the append-only text corpus
CREATE TABLE IF NOT EXISTS paragraphs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    content     TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_paragraphs_created ON paragraphs(created_at DESC);

-- Fetch log: one row per upstream fetch or import attempt
CREATE TABLE IF NOT EXISTS fetch_log (
    id            TEXT PRIMARY KEY,
    source_url    TEXT NOT NULL,
    paragraph_id  INTEGER REFERENCES paragraphs(id) ON DELETE SET NULL,
    status        TEXT NOT NULL,
    status_code   INTEGER NOT NULL DEFAULT 0,
    bytes         INTEGER NOT NULL DEFAULT 0,
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    fetched_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_time ON fetch_log(fetched_at DESC);
`

// ApplySchema applies the corpus schema to the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
