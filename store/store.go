package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nmcp-sl/supervise/config"
	"github.com/nmcp-sl/supervise/log"
)

// Namespace names one of the persisted collections. Each namespace is stored
// as a single JSON blob under a single key, replaced wholesale on every put.
type Namespace string

const (
	Drafts      Namespace = "supervisionDrafts"
	Pending     Namespace = "supervisionPending"
	Submissions Namespace = "supervisionSubmissions"
)

type Store struct {
	db *sql.DB
}

func Open(cfg config.Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBUrl)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, err
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for the credential tables, which share
// the same database file but are not part of the KV namespaces.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Get decodes the collection stored under ns into out. An absent namespace
// leaves out untouched. A corrupt blob is treated as "no prior data": it is
// logged and out is left untouched, never an error at startup.
func (s *Store) Get(ctx context.Context, ns Namespace, out any) error {
	var blob string
	err := s.db.
		QueryRowContext(ctx, "SELECT value FROM kv WHERE name = ?", string(ns)).
		Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	err = json.Unmarshal([]byte(blob), out)
	if err != nil {
		log.Warnf("store.get.%s: corrupt blob, treating as empty: %s", ns, err)
		return nil
	}
	return nil
}

// Put replaces the whole collection stored under ns.
func (s *Store) Put(ctx context.Context, ns Namespace, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`,
		string(ns),
		string(blob),
	)
	return err
}
