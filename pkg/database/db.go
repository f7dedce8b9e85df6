package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnavailable marks connection failures so callers can surface them as a
// user-visible message instead of a crash.
var ErrUnavailable = errors.New("database unavailable")

type Config struct {
	Path string
}

func DefaultConfig() Config {
	if p := os.Getenv("WATCHPLAN_DB_PATH"); p != "" {
		return Config{Path: p}
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		Path: filepath.Join(home, ".watchplan", "data.db"),
	}
}

func EnsureDataDir(cfg Config) error {
	return os.MkdirAll(filepath.Dir(cfg.Path), 0o755)
}

func Open(cfg Config) (*sql.DB, error) {
	if err := EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", ErrUnavailable)
	}

	return db, nil
}

func MustOpen(cfg Config) *sql.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	return db
}

// Manager owns the session's database handle. The first successful Acquire
// pins a connection; later calls reuse it while it still answers a ping and
// reopen it when it has gone stale.
type Manager struct {
	mu  sync.Mutex
	cfg Config
	db  *sql.DB
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

func (m *Manager) Acquire(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		if err := m.db.PingContext(ctx); err == nil {
			return m.db, nil
		}
		_ = m.db.Close()
		m.db = nil
	}

	db, err := Open(m.cfg)
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}

	m.db = db
	return m.db, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
