// Package index maintains a refreshable retrieval index that mirrors the user
// collection. Two backends share the model.ContextIndex contract: a SQLite
// FTS5 text index and an embedding-similarity index.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

const (
	BackendText      = "text"
	BackendEmbedding = "embedding"
)

// DefaultTopK is the number of records retrieved when a caller passes n <= 0.
const DefaultTopK = 2

// New builds the backend named by cfg.Backend and performs the initial refresh.
// A failed initial refresh leaves an empty index and is logged by the caller.
func New(ctx context.Context, cfg model.IndexConfig, source model.UserSource, embedder Embedder) (model.ContextIndex, error) {
	var idx model.ContextIndex
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendText, "":
		text, err := NewTextIndex(cfg.DBPath, source)
		if err != nil {
			return nil, err
		}
		idx = text
	case BackendEmbedding:
		if embedder == nil {
			return nil, fmt.Errorf("embedding index requires an embedder")
		}
		idx = NewEmbeddingIndex(embedder, source)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
	return idx, idx.Refresh(ctx)
}

// document renders a user as the JSON text stored in the index.
func document(u model.User) string {
	b, err := json.Marshal(u)
	if err != nil {
		return u.Email
	}
	return string(b)
}

// searchableText flattens a user into "key value" pairs for full-text search.
func searchableText(u model.User) string {
	fields := u.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %v\n", k, fields[k])
	}
	return b.String()
}

// tokenize splits text the way the FTS5 unicode61 tokenizer does: runs of
// letters and digits, lower-cased.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func clampTopK(n int) int {
	if n <= 0 {
		return DefaultTopK
	}
	return n
}
