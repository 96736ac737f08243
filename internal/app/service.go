package app

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/shrimpsizemoose/bensin/internal/notify"
	"github.com/shrimpsizemoose/bensin/internal/store"
)

const (
	ActionAdd      = "add"
	ActionSubtract = "subtract"
)

// Service bundles the ledger store with config, auth and the push
// notifier, and orchestrates the multi-statement point operations.
type Service struct {
	Config   *Config
	Store    store.LedgerStore
	Auth     *Auth
	Notifier *notify.Notifier

	mu         sync.Mutex
	groupLocks map[int64]*sync.Mutex
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	migrationsDir := config.Database.MigrationsDir
	if migrationsDir == "" {
		migrationsDir = "./migrations"
	}

	store, err := NewStore(config.Database.DSN, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Service{
		Config:     config,
		Store:      store,
		Auth:       auth,
		Notifier:   notify.New(config.Notify.OneSignalAppID, config.Notify.OneSignalAPIKey),
		groupLocks: make(map[int64]*sync.Mutex),
	}, nil
}

// lockGroup serializes mutating operations per group. The ledger writes
// of one logical operation are plain sequential statements, so without
// this two concurrent bulk operations could interleave their
// read-then-write of current totals.
func (s *Service) lockGroup(groupID int64) func() {
	s.mu.Lock()
	if s.groupLocks == nil {
		s.groupLocks = make(map[int64]*sync.Mutex)
	}
	lock, ok := s.groupLocks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		s.groupLocks[groupID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// ValidateAuth resolves the bearer token of a request when auth is
// enabled. Returns nil session with nil error when auth is off.
func (s *Service) ValidateAuth(r *http.Request) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	_, err := s.Auth.ValidateToken(r.Context(), token)
	return err
}

func validateAction(action string) error {
	if action != ActionAdd && action != ActionSubtract {
		return fmt.Errorf("%w: action must be add or subtract, got %q", ErrInvalidArgument, action)
	}
	return nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Auth != nil {
		if err := s.Auth.Close(); err != nil {
			errs = append(errs, fmt.Errorf("auth: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
