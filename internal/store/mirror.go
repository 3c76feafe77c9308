package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	afsurl "github.com/viant/afs/url"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// Mirror decorates a UserRepository and keeps a JSON array of every record
// in sync after each successful mutation. Mirror failures are logged and never
// fail the store operation.
type Mirror struct {
	model.UserRepository
	fs  afs.Service
	url string
	mu  sync.Mutex
}

// NewMirror mirrors repo into location, a plain path or any afs URL (file://, mem://, s3://, gs://).
func NewMirror(repo model.UserRepository, fs afs.Service, location string) *Mirror {
	return &Mirror{UserRepository: repo, fs: fs, url: NormalizeURL(location)}
}

// NormalizeURL turns a plain path into a file:// URL and leaves URLs alone.
func NormalizeURL(location string) string {
	if afsurl.Scheme(location, "") != "" {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		location = abs
	}
	return "file://" + filepath.ToSlash(location)
}

func (m *Mirror) URL() string { return m.url }

func (m *Mirror) CreateUser(ctx context.Context, user model.User) (string, error) {
	id, err := m.UserRepository.CreateUser(ctx, user)
	if err != nil {
		return id, err
	}
	m.apply(ctx, "create", func(records []map[string]any) []map[string]any {
		return append(records, user.Fields())
	})
	return id, nil
}

func (m *Mirror) UpdateUser(ctx context.Context, email string, patch map[string]any) (bool, error) {
	ok, err := m.UserRepository.UpdateUser(ctx, email, patch)
	if err != nil || !ok {
		return ok, err
	}
	clean := withoutIdentity(patch)
	m.apply(ctx, "update", func(records []map[string]any) []map[string]any {
		for _, rec := range records {
			if rec["email"] == email {
				for k, v := range clean {
					rec[k] = v
				}
			}
		}
		return records
	})
	return true, nil
}

func (m *Mirror) DeleteUser(ctx context.Context, email string) (bool, error) {
	ok, err := m.UserRepository.DeleteUser(ctx, email)
	if err != nil || !ok {
		return ok, err
	}
	m.apply(ctx, "delete", func(records []map[string]any) []map[string]any {
		kept := records[:0]
		for _, rec := range records {
			if rec["email"] != email {
				kept = append(kept, rec)
			}
		}
		return kept
	})
	return true, nil
}

// ListUsers reads the mirror file, so a Mirror can serve as an index source.
func (m *Mirror) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	records, err := m.load(ctx)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(records))
	for _, rec := range records {
		users = append(users, model.UserFromFields(rec))
	}
	return users, nil
}

// Sync rewrites the mirror from the current store contents.
func (m *Mirror) Sync(ctx context.Context) error {
	users, err := m.UserRepository.GetUsers(ctx, nil)
	if err != nil {
		return err
	}
	records := make([]map[string]any, 0, len(users))
	for _, u := range users {
		records = append(records, u.Fields())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(ctx, records)
}

func (m *Mirror) apply(ctx context.Context, op string, mutate func([]map[string]any) []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records, err := m.load(ctx)
	if err != nil {
		logx.Warn().Err(err).Str("mirror", m.url).Str("operation", op).Msg("failed to load user mirror")
		return
	}
	if err := m.save(ctx, mutate(records)); err != nil {
		logx.Warn().Err(err).Str("mirror", m.url).Str("operation", op).Msg("failed to write user mirror")
	}
}

// load returns the mirrored records with store-internal ids stripped. A
// missing or empty file is an empty collection.
func (m *Mirror) load(ctx context.Context) ([]map[string]any, error) {
	exists, err := m.fs.Exists(ctx, m.url)
	if err != nil {
		return nil, fmt.Errorf("stat mirror: %w", err)
	}
	if !exists {
		return []map[string]any{}, nil
	}
	data, err := m.fs.DownloadWithURL(ctx, m.url)
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []map[string]any{}, nil
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode mirror: %w", err)
	}
	for _, rec := range records {
		delete(rec, model.InternalIDField)
	}
	return records, nil
}

func (m *Mirror) save(ctx context.Context, records []map[string]any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	return m.fs.Upload(ctx, m.url, file.DefaultFileOsMode, bytes.NewReader(data))
}

var (
	_ model.UserRepository = (*Mirror)(nil)
	_ model.UserSource     = (*Mirror)(nil)
)
