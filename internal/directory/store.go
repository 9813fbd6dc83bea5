package directory

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/perchlabs/boothboard/internal/common/config"
)

// Store serves authentication and scope lookups from an in-memory snapshot
// of the CSV tables. Reloads swap the snapshot atomically so a request never
// observes a half-reloaded table pair.
type Store struct {
	cfg    config.TablesConfig
	logger *zap.Logger

	mu   sync.RWMutex
	snap *snapshot

	cron *cron.Cron

	// ReloadHook, when set, observes the outcome of every reload attempt.
	ReloadHook func(err error)
}

// NewStore loads both tables and fails on any validation error; a service
// should not come up on a broken table.
func NewStore(cfg config.TablesConfig, logger *zap.Logger) (*Store, error) {
	snap, err := loadSnapshot(cfg.LoginCSV, cfg.ClientsCSV)
	if err != nil {
		return nil, err
	}
	for user, client := range snap.dangling {
		logger.Warn("credential references unknown client",
			zap.String("username", user),
			zap.String("client_name", client))
	}
	return &Store{
		cfg:    cfg,
		logger: logger,
		snap:   snap,
	}, nil
}

// Authenticate verifies a username/password pair against the login table.
// Unknown usernames and wrong passwords return the same error.
func (s *Store) Authenticate(username, password string) (Scope, error) {
	s.mu.RLock()
	cred, ok := s.snap.credentials[username]
	s.mu.RUnlock()

	if !ok {
		// burn a comparison so the miss costs the same as a mismatch
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0xB09BD1sVxLGCjSdlqSmbhnbG2"), []byte(password))
		return Scope{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.Password), []byte(password)); err != nil {
		return Scope{}, ErrInvalidCredentials
	}
	return Scope{Role: cred.Role, ClientName: cred.ClientName}, nil
}

// EntriesForScope returns the directory rows the scope may view, in table
// order. An empty slice is a valid result for a client with no booths yet.
// A client scope naming a client absent from the directory is a ConfigError.
func (s *Store) EntriesForScope(scope Scope) ([]Entry, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	if scope.Admin() {
		out := make([]Entry, len(snap.entries))
		copy(out, snap.entries)
		return out, nil
	}

	if !snap.clients[scope.ClientName] {
		return nil, &ConfigError{
			Table:  s.cfg.ClientsCSV,
			Reason: fmt.Sprintf("client %q is not in the directory", scope.ClientName),
		}
	}

	var out []Entry
	for _, e := range snap.entries {
		if e.ClientName == scope.ClientName {
			out = append(out, e)
		}
	}
	if out == nil {
		out = []Entry{}
	}
	return out, nil
}

// Entries returns every booth row in table order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.snap.entries))
	copy(out, s.snap.entries)
	return out
}

// Reload re-reads both tables and swaps in the new snapshot. On any error
// the previous snapshot stays in service.
func (s *Store) Reload() error {
	snap, err := loadSnapshot(s.cfg.LoginCSV, s.cfg.ClientsCSV)
	if s.ReloadHook != nil {
		s.ReloadHook(err)
	}
	if err != nil {
		s.logger.Error("table reload failed, keeping previous snapshot", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("tables reloaded",
		zap.Int("credentials", len(snap.credentials)),
		zap.Int("booths", len(snap.entries)),
		zap.Int("dangling_credentials", len(snap.dangling)))
	return nil
}

// StartAutoReload schedules periodic table reloads at the configured
// interval. Requests running during a reload keep their snapshot.
func (s *Store) StartAutoReload() error {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.cfg.ReloadInterval), func() {
		_ = s.Reload()
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Info("table auto-reload scheduled", zap.Duration("interval", s.cfg.ReloadInterval))
	return nil
}

// StopAutoReload cancels the reload schedule. Safe to call when auto-reload
// was never started.
func (s *Store) StopAutoReload() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}
