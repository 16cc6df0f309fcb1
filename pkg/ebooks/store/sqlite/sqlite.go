package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
	"github.com/cognicore/ebooks/pkg/ebooks/ngram"
	"github.com/cognicore/ebooks/pkg/ebooks/sentences"
	"github.com/cognicore/ebooks/pkg/ebooks/store"
)

// formatVersion is bumped whenever the schema changes incompatibly.
const formatVersion = "1"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewBuildID returns a fresh, time-ordered build identifier.
func NewBuildID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// sqliteStore implements store.Store over a published model file
type sqliteStore struct {
	db *sql.DB
}

// Open opens a published model read-only. A missing or unreadable file, or
// one without the model schema, is reported as ErrStoreUnavailable.
func Open(ctx context.Context, path string) (store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open model %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	var version string
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'format_version'`).Scan(&version)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open model %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}
	if version != formatVersion {
		db.Close()
		return nil, fmt.Errorf("open model %s: format %q, want %q: %w", path, version, formatVersion, internalerr.ErrStoreUnavailable)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tokens (
	token_id INTEGER PRIMARY KEY,
	token TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sentences (
	sentence_id INTEGER PRIMARY KEY,
	tikis TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS keywords (
	rank INTEGER PRIMARY KEY,
	keyword TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS unigrams (
	tiki INTEGER NOT NULL,
	sentence_id INTEGER NOT NULL,
	position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS unigrams_tiki ON unigrams(tiki);

CREATE TABLE IF NOT EXISTS bigrams (
	prev INTEGER NOT NULL,
	tiki INTEGER NOT NULL,
	sentence_id INTEGER NOT NULL,
	position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS bigrams_pair ON bigrams(prev, tiki);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Meta returns the build metadata.
func (s *sqliteStore) Meta(ctx context.Context) (store.Meta, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return store.Meta{}, err
	}
	defer rows.Close()

	var m store.Meta
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return store.Meta{}, err
		}
		switch k {
		case "build_id":
			m.BuildID = v
		case "created_at":
			m.CreatedAt, _ = time.Parse(time.RFC3339, v)
		case "token_count":
			m.Tokens, _ = strconv.Atoi(v)
		case "sentence_count":
			m.Sentences, _ = strconv.Atoi(v)
		}
	}
	return m, rows.Err()
}

// Tokens returns the token arena ordered by id.
func (s *sqliteStore) Tokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token_id, token FROM tokens ORDER BY token_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id int
		var tok string
		if err := rows.Scan(&id, &tok); err != nil {
			return nil, err
		}
		if id != len(out) {
			return nil, fmt.Errorf("token ids not dense at %d: %w", id, internalerr.ErrStoreUnavailable)
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

// Sentences returns the sentence log ordered by id.
func (s *sqliteStore) Sentences(ctx context.Context) ([][]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sentence_id, tikis FROM sentences ORDER BY sentence_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]int
	for rows.Next() {
		var id int
		var enc string
		if err := rows.Scan(&id, &enc); err != nil {
			return nil, err
		}
		if id != len(out) {
			return nil, fmt.Errorf("sentence ids not dense at %d: %w", id, internalerr.ErrStoreUnavailable)
		}
		tikis, err := sentences.Decode(enc)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", id, err)
		}
		out = append(out, tikis)
	}
	return out, rows.Err()
}

// Keywords returns the ranked keyword list.
func (s *sqliteStore) Keywords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT keyword FROM keywords ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, err
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// Index loads the persisted unigram and bigram tables. Occurrences keep the
// order they were written in.
func (s *sqliteStore) Index(ctx context.Context) (*ngram.Index, error) {
	idx := ngram.New()

	rows, err := s.db.QueryContext(ctx, `SELECT tiki, sentence_id, position FROM unigrams ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var tiki int
		var occ ngram.Occurrence
		if err := rows.Scan(&tiki, &occ.Sentence, &occ.Pos); err != nil {
			rows.Close()
			return nil, err
		}
		idx.AddUnigram(tiki, occ)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT prev, tiki, sentence_id, position FROM bigrams ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ngram.Pair
		var occ ngram.Occurrence
		if err := rows.Scan(&p.Prev, &p.Tiki, &occ.Sentence, &occ.Pos); err != nil {
			return nil, err
		}
		idx.AddBigram(p, occ)
	}
	return idx, rows.Err()
}

// Unigrams returns the persisted continuations of tiki.
func (s *sqliteStore) Unigrams(ctx context.Context, tiki int) ([]ngram.Occurrence, error) {
	return s.occurrences(ctx, `SELECT sentence_id, position FROM unigrams WHERE tiki = ? ORDER BY rowid`, tiki)
}

// Bigrams returns the persisted continuations of the pair (prev, tiki).
func (s *sqliteStore) Bigrams(ctx context.Context, prev, tiki int) ([]ngram.Occurrence, error) {
	return s.occurrences(ctx, `SELECT sentence_id, position FROM bigrams WHERE prev = ? AND tiki = ? ORDER BY rowid`, prev, tiki)
}

func (s *sqliteStore) occurrences(ctx context.Context, query string, args ...any) ([]ngram.Occurrence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ngram.Occurrence
	for rows.Next() {
		var occ ngram.Occurrence
		if err := rows.Scan(&occ.Sentence, &occ.Pos); err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	return out, rows.Err()
}

// SentencesContaining returns the ids of sentences that contain tiki. The
// delimiters around the id keep |2| from matching |23|.
func (s *sqliteStore) SentencesContaining(ctx context.Context, tiki int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sentence_id FROM sentences WHERE instr(tikis, ?) > 0 ORDER BY sentence_id`,
		"|"+strconv.Itoa(tiki)+"|",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Publish writes snap into a fresh database next to path and renames it over
// path once complete, so readers see either the old model or the new one.
// It returns the build id.
func Publish(ctx context.Context, path string, snap store.Snapshot) (string, error) {
	buildID := snap.BuildID
	if buildID == "" {
		buildID = NewBuildID()
	}
	if snap.Index == nil {
		snap.Index = ngram.Build(snap.Sentences)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating model directory: %w", err)
		}
	}
	tmpPath := fmt.Sprintf("%s.%s.tmp", path, buildID)
	_ = os.Remove(tmpPath)

	if err := build(ctx, tmpPath, buildID, snap); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming model file: %w", err)
	}
	return buildID, nil
}

func build(ctx context.Context, path, buildID string, snap store.Snapshot) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	// A rollback journal leaves nothing behind once closed; WAL would leave
	// side files next to the renamed database.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		return err
	}
	if err := initSchema(ctx, db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta := map[string]string{
		"format_version": formatVersion,
		"build_id":       buildID,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
		"token_count":    strconv.Itoa(len(snap.Tokens)),
		"sentence_count": strconv.Itoa(len(snap.Sentences)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
	}

	if err := insertEach(ctx, tx, `INSERT INTO tokens (token_id, token) VALUES (?, ?)`, len(snap.Tokens),
		func(i int) []any { return []any{i, snap.Tokens[i]} }); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	if err := insertEach(ctx, tx, `INSERT INTO sentences (sentence_id, tikis) VALUES (?, ?)`, len(snap.Sentences),
		func(i int) []any { return []any{i, sentences.Encode(snap.Sentences[i])} }); err != nil {
		return fmt.Errorf("write sentences: %w", err)
	}
	if err := insertEach(ctx, tx, `INSERT INTO keywords (rank, keyword) VALUES (?, ?)`, len(snap.Keywords),
		func(i int) []any { return []any{i, snap.Keywords[i]} }); err != nil {
		return fmt.Errorf("write keywords: %w", err)
	}
	if err := writeIndex(ctx, tx, snap.Index); err != nil {
		return err
	}

	return tx.Commit()
}

func insertEach(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

func writeIndex(ctx context.Context, tx *sql.Tx, idx *ngram.Index) error {
	uni, err := tx.PrepareContext(ctx, `INSERT INTO unigrams (tiki, sentence_id, position) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer uni.Close()
	err = idx.EachUnigram(func(tiki int, occs []ngram.Occurrence) error {
		for _, o := range occs {
			if _, err := uni.ExecContext(ctx, tiki, o.Sentence, o.Pos); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write unigrams: %w", err)
	}

	bi, err := tx.PrepareContext(ctx, `INSERT INTO bigrams (prev, tiki, sentence_id, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer bi.Close()
	err = idx.EachBigram(func(p ngram.Pair, occs []ngram.Occurrence) error {
		for _, o := range occs {
			if _, err := bi.ExecContext(ctx, p.Prev, p.Tiki, o.Sentence, o.Pos); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write bigrams: %w", err)
	}
	return nil
}
