package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"draftcheck/internal/analyzer"
	"draftcheck/internal/detect"
	"draftcheck/internal/score"
	"draftcheck/internal/segment"
)

// RunSummary is the list view of a persisted analysis run.
type RunSummary struct {
	ID            string
	CreatedAt     time.Time
	Label         string
	Language      string
	SentenceCount int
	Score         int
	Level         string
}

// Run is one fully loaded analysis run including its diagnoses.
type Run struct {
	RunSummary
	Result analyzer.Result
}

// SaveRun persists one analysis result under a fresh run id.
func SaveRun(dbPath, label string, res *analyzer.Result) (string, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO runs(id, created_at, label, language, sentence_count, score, level,
		    word, phrase, sentence, style, semantic, syntax, phrase_available, syntax_available)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id,
		time.Now().UTC().Format(time.RFC3339),
		label,
		res.Language.String(),
		res.SentenceCount,
		res.Report.Score,
		string(res.Report.Level),
		res.Report.Word,
		res.Report.Phrase,
		res.Report.Sentence,
		res.Report.Style,
		res.Report.Semantic,
		res.Report.Syntax,
		boolInt(res.Report.PhraseAvailable),
		boolInt(res.Report.SyntaxAvailable),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, d := range res.Diagnoses {
		issues, err := json.Marshal(d.Issues)
		if err != nil {
			return "", fmt.Errorf("marshal issues: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO diagnoses(run_id, sentence, start_offset, end_offset, issues) VALUES(?,?,?,?,?)`,
			id,
			d.Sentence,
			d.Start,
			d.End,
			string(issues),
		); err != nil {
			return "", fmt.Errorf("insert diagnosis: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

// ListRuns returns all persisted runs, newest first.
func ListRuns(dbPath string) ([]RunSummary, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(
		`SELECT id, created_at, label, language, sentence_count, score, level
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var created string
		if err := rows.Scan(&s.ID, &created, &s.Label, &s.Language, &s.SentenceCount, &s.Score, &s.Level); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadRun loads one run and its diagnoses by id.
func LoadRun(dbPath, id string) (*Run, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	row := conn.QueryRow(
		`SELECT id, created_at, label, language, sentence_count, score, level,
		    word, phrase, sentence, style, semantic, syntax, phrase_available, syntax_available
		 FROM runs WHERE id = ?`, id)

	var r Run
	var created, language string
	var phraseAvail, syntaxAvail int
	if err := row.Scan(
		&r.ID, &created, &r.Label, &language, &r.SentenceCount, &r.Score, &r.Level,
		&r.Result.Report.Word, &r.Result.Report.Phrase, &r.Result.Report.Sentence,
		&r.Result.Report.Style, &r.Result.Report.Semantic, &r.Result.Report.Syntax,
		&phraseAvail, &syntaxAvail,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	r.Language = language
	r.Result.Language = segment.ParseLanguage(language)
	r.Result.Report.Score = r.Score
	r.Result.Report.Level = score.Level(r.Level)
	r.Result.Report.PhraseAvailable = phraseAvail != 0
	r.Result.Report.SyntaxAvailable = syntaxAvail != 0
	r.Result.SentenceCount = r.SentenceCount

	rows, err := conn.Query(
		`SELECT sentence, start_offset, end_offset, issues FROM diagnoses WHERE run_id = ? ORDER BY start_offset`, id)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d detect.Diagnosis
		var issues string
		if err := rows.Scan(&d.Sentence, &d.Start, &d.End, &issues); err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		if err := json.Unmarshal([]byte(issues), &d.Issues); err != nil {
			return nil, fmt.Errorf("unmarshal issues: %w", err)
		}
		r.Result.Diagnoses = append(r.Result.Diagnoses, d)
	}
	return &r, rows.Err()
}

func CountRows(dbPath, table string) (int, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	row := conn.QueryRow(`SELECT COUNT(*) FROM ` + table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
