package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// Embedder generates embedding vectors for a batch of texts.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type entry struct {
	user   model.User
	vector []float32
}

// EmbeddingIndex keeps one vector per record in memory and ranks by cosine similarity.
type EmbeddingIndex struct {
	embedder Embedder
	source   model.UserSource

	mu      sync.RWMutex
	entries []entry
}

func NewEmbeddingIndex(embedder Embedder, source model.UserSource) *EmbeddingIndex {
	return &EmbeddingIndex{embedder: embedder, source: source}
}

// Refresh re-embeds every record from the source and swaps the snapshot in
// one step. The previous snapshot survives a failed refresh.
func (x *EmbeddingIndex) Refresh(ctx context.Context) error {
	users, err := x.source.ListUsers(ctx)
	if err != nil {
		return &model.RefreshError{Backend: BackendEmbedding, Err: err}
	}

	entries := make([]entry, 0, len(users))
	if len(users) > 0 {
		docs := make([]string, len(users))
		for i, u := range users {
			docs[i] = document(u)
		}
		vectors, err := x.embedder.EmbedBatch(ctx, docs)
		if err != nil {
			return &model.RefreshError{Backend: BackendEmbedding, Err: err}
		}
		if len(vectors) != len(users) {
			return &model.RefreshError{Backend: BackendEmbedding, Err: fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(users))}
		}
		for i, u := range users {
			entries = append(entries, entry{user: u, vector: vectors[i]})
		}
	}

	x.mu.Lock()
	x.entries = entries
	x.mu.Unlock()

	logx.Debug().Str("component", "embedding_index").Int("documents", len(entries)).Msg("index refreshed")
	return nil
}

// RetrieveContext returns the n records nearest to query.
func (x *EmbeddingIndex) RetrieveContext(ctx context.Context, query string, n int) []model.User {
	n = clampTopK(n)
	x.mu.RLock()
	entries := x.entries
	x.mu.RUnlock()
	if len(entries) == 0 {
		return []model.User{}
	}

	vectors, err := x.embedder.EmbedBatch(ctx, []string{query})
	if err == nil && len(vectors) == 0 {
		err = fmt.Errorf("no embeddings returned")
	}
	if err != nil {
		logx.Warn().Err(errx.WrapIndex(err)).Str("component", "embedding_index").Msg("query embedding failed")
		return []model.User{}
	}
	qv := vectors[0]

	type scored struct {
		user  model.User
		score float64
	}
	ranked := make([]scored, len(entries))
	for i, e := range entries {
		ranked[i] = scored{user: e.user, score: CosineSimilarity(qv, e.vector)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]model.User, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].user
	}
	return out
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ model.ContextIndex = (*EmbeddingIndex)(nil)
