// Package store persists the linked-device credentials so a restart resumes
// the existing WhatsApp session without pairing again.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/openclaw/wa-gateway-go/internal/config"
	"github.com/openclaw/wa-gateway-go/internal/database"
)

const sqliteFile = "whatsapp.db"

type SessionStore struct {
	dir    string
	driver string
	dsn    string
	logger zerolog.Logger

	mu        sync.Mutex
	db        *database.DB
	container *sqlstore.Container
}

// New describes a session store. Nothing is opened until Devices is called.
// For the postgres driver dsn is the connection URL; for sqlite it is
// derived from dir.
func New(dir, driver, dsn string, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		dir:    dir,
		driver: driver,
		dsn:    dsn,
		logger: logger.With().Str("component", "session_store").Logger(),
	}
}

// EnsureDir creates the session directory if it is missing.
func (s *SessionStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return nil
}

// DSN returns the data source name the store connects with.
func (s *SessionStore) DSN() string {
	if s.driver == config.StoreDriverSQLite {
		return fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(s.dir, sqliteFile))
	}
	return s.dsn
}

// Devices opens the store on first use and returns the device container.
// A failed open is not cached, so the next call retries.
func (s *SessionStore) Devices(ctx context.Context) (*sqlstore.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.container != nil {
		return s.container, nil
	}

	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	db, err := database.Connect(s.driver, s.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect session store: %w", err)
	}

	container := sqlstore.NewWithDB(db.DB.DB, s.driver, waLog.Zerolog(s.logger))
	if err := container.Upgrade(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upgrade session store: %w", err)
	}

	s.db = db
	s.container = container
	s.logger.Info().Str("driver", s.driver).Msg("session store opened")
	return container, nil
}

func (s *SessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.container = nil
	return err
}
