package model

import (
	"context"
	"fmt"
)

// UserRepository is the record store adapter, keyed by email.
type UserRepository interface {
	// Ping verifies connectivity; called once at startup.
	Ping(ctx context.Context) error

	// CreateUser inserts a record and returns its store id.
	CreateUser(ctx context.Context, user User) (string, error)

	// GetUsers returns records whose fields equal every filter entry; a nil or
	// empty filter returns all records.
	GetUsers(ctx context.Context, filter map[string]any) ([]User, error)

	// UpdateUser applies patch to the record with email. false means no record matched.
	UpdateUser(ctx context.Context, email string, patch map[string]any) (bool, error)

	// DeleteUser removes the record with email. false means no record matched.
	DeleteUser(ctx context.Context, email string) (bool, error)

	Close() error
}

// UserSource lists the records an index mirrors.
type UserSource interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// ContextIndex retrieves records relevant to a query. RetrieveContext never
// fails: an unavailable backend yields an empty list.
type ContextIndex interface {
	RetrieveContext(ctx context.Context, query string, n int) []User
	// Refresh drops and rebuilds the index from its source. A non-nil error
	// is always a *RefreshError.
	Refresh(ctx context.Context) error
}

// RefreshError reports a failed index rebuild. Callers log it and move on.
type RefreshError struct {
	Backend string
	Err     error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh %s index: %v", e.Backend, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Oracle is a stateless text completion: system instruction plus user message in, text out.
type Oracle interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
