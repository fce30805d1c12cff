package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT,
    label TEXT,
    language TEXT,
    sentence_count INTEGER,
    score INTEGER,
    level TEXT,
    word REAL,
    phrase REAL,
    sentence REAL,
    style REAL,
    semantic REAL,
    syntax REAL,
    phrase_available INTEGER,
    syntax_available INTEGER
);

CREATE TABLE IF NOT EXISTS diagnoses (
    id INTEGER PRIMARY KEY,
    run_id TEXT,
    sentence TEXT,
    start_offset INTEGER,
    end_offset INTEGER,
    issues TEXT
);
`

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
