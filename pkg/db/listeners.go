package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrListenerNotFound = errors.New("listener not found")

// ListenerKind names the transport a listener configures.
type ListenerKind string

const (
	// ListenerHTTP is the REST/SSE/WebSocket listen address (host:port).
	ListenerHTTP ListenerKind = "http"
	// ListenerMQTT is the broker address the bridge connects to.
	ListenerMQTT ListenerKind = "mqtt"
)

// Valid reports whether k is a known kind.
func (k ListenerKind) Valid() bool {
	return k == ListenerHTTP || k == ListenerMQTT
}

// Listener is one transport endpoint of a profile.
type Listener struct {
	ID        int64
	ProfileID int64
	Kind      ListenerKind
	Address   string
	CreatedAt time.Time
}

// ListenerStore provides listener CRUD operations.
type ListenerStore interface {
	Get(ctx context.Context, profileID int64, kind ListenerKind) (*Listener, error)
	List(ctx context.Context, profileID int64) ([]*Listener, error)
	Upsert(ctx context.Context, l *Listener) error
	Delete(ctx context.Context, profileID int64, kind ListenerKind) error
}

// Listeners returns a ListenerStore for this database.
func (db *DB) Listeners() ListenerStore {
	return &listenerStore{db: db}
}

type listenerStore struct {
	db *DB
}

func scanListener(row rowScanner) (*Listener, error) {
	l := &Listener{}
	var createdAt string
	err := row.Scan(&l.ID, &l.ProfileID, &l.Kind, &l.Address, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListenerNotFound
	}
	if err != nil {
		return nil, err
	}
	l.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return l, nil
}

func (s *listenerStore) Get(ctx context.Context, profileID int64, kind ListenerKind) (*Listener, error) {
	return scanListener(s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, kind, address, created_at
		FROM listeners WHERE profile_id = ? AND kind = ?
	`, profileID, string(kind)))
}

func (s *listenerStore) List(ctx context.Context, profileID int64) ([]*Listener, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, kind, address, created_at
		FROM listeners WHERE profile_id = ? ORDER BY kind
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var listeners []*Listener
	for rows.Next() {
		l, err := scanListener(rows)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, l)
	}
	return listeners, rows.Err()
}

// Upsert creates the listener or replaces the address of the existing one.
func (s *listenerStore) Upsert(ctx context.Context, l *Listener) error {
	if !l.Kind.Valid() {
		return fmt.Errorf("invalid listener kind %q", l.Kind)
	}
	if l.Address == "" {
		return fmt.Errorf("listener %s: address is required", l.Kind)
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO listeners (profile_id, kind, address)
		VALUES (?, ?, ?)
		ON CONFLICT (profile_id, kind) DO UPDATE SET address = excluded.address
		RETURNING id
	`, l.ProfileID, string(l.Kind), l.Address).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to save %s listener: %w", l.Kind, err)
	}
	return nil
}

func (s *listenerStore) Delete(ctx context.Context, profileID int64, kind ListenerKind) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM listeners WHERE profile_id = ? AND kind = ?`, profileID, string(kind))
	if err != nil {
		return err
	}
	return requireAffected(result, ErrListenerNotFound)
}
