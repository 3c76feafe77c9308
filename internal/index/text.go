package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// TextIndex ranks records with SQLite FTS5 bm25 over a flattened field text.
type TextIndex struct {
	db     *sql.DB
	source model.UserSource
	mu     sync.Mutex
}

// NewTextIndex opens (or creates) the index database. An empty path keeps the
// index in memory for the life of the process.
func NewTextIndex(dbPath string, source model.UserSource) (*TextIndex, error) {
	dsn := dbPath
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	// every :memory: connection is its own database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS user_docs USING fts5(
		email UNINDEXED,
		body,
		doc UNINDEXED
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create fts table: %w", err)
	}
	return &TextIndex{db: db, source: source}, nil
}

// Refresh reloads the source and atomically replaces the indexed documents.
// The previous contents survive a failed refresh.
func (x *TextIndex) Refresh(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	users, err := x.source.ListUsers(ctx)
	if err != nil {
		return &model.RefreshError{Backend: BackendText, Err: err}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.RefreshError{Backend: BackendText, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_docs`); err != nil {
		return &model.RefreshError{Backend: BackendText, Err: err}
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO user_docs (email, body, doc) VALUES (?, ?, ?)`)
	if err != nil {
		return &model.RefreshError{Backend: BackendText, Err: err}
	}
	defer stmt.Close()
	for _, u := range users {
		if _, err := stmt.ExecContext(ctx, u.Email, searchableText(u), document(u)); err != nil {
			return &model.RefreshError{Backend: BackendText, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &model.RefreshError{Backend: BackendText, Err: err}
	}

	logx.Debug().Str("component", "text_index").Int("documents", len(users)).Msg("index refreshed")
	return nil
}

// RetrieveContext returns up to n records ranked by bm25. When nothing matches
// it returns up to n arbitrary records so prompts still see the record shape.
func (x *TextIndex) RetrieveContext(ctx context.Context, query string, n int) []model.User {
	n = clampTopK(n)
	x.mu.Lock()
	defer x.mu.Unlock()

	var users []model.User
	if expr := matchExpression(query); expr != "" {
		found, err := x.query(ctx, `SELECT doc FROM user_docs WHERE user_docs MATCH ? ORDER BY rank LIMIT ?`, expr, n)
		if err != nil {
			logx.Warn().Err(errx.WrapIndex(err)).Str("component", "text_index").Msg("retrieval failed")
			return []model.User{}
		}
		users = found
	}
	if len(users) > 0 {
		return users
	}

	fallback, err := x.query(ctx, `SELECT doc FROM user_docs ORDER BY email LIMIT ?`, n)
	if err != nil {
		logx.Warn().Err(errx.WrapIndex(err)).Str("component", "text_index").Msg("fallback retrieval failed")
		return []model.User{}
	}
	return fallback
}

func (x *TextIndex) query(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var u model.User
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (x *TextIndex) Close() error {
	return x.db.Close()
}

// matchExpression ORs every query token as a quoted FTS5 string so user
// punctuation can never break the MATCH syntax.
func matchExpression(query string) string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(tokens))
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

var _ model.ContextIndex = (*TextIndex)(nil)
