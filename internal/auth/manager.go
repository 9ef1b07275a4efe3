// Package auth holds the single signed-in identity and the mock login policy.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/models"
)

// ErrNotSignedIn is returned by operations that need an identity.
var ErrNotSignedIn = errors.New("not signed in")

// Manager owns at most one identity and mirrors it to the key-value store.
// Storage failures are logged; the in-memory identity stays authoritative.
type Manager struct {
	store kv.Store

	// writeMu keeps the persisted identity in the order of the in-memory changes.
	writeMu sync.Mutex

	mu   sync.RWMutex
	user *models.User
}

// NewManager returns a manager with no identity. Call Restore to load one.
func NewManager(store kv.Store) *Manager {
	return &Manager{store: store}
}

// Restore loads the persisted identity. A missing or invalid record leaves
// the manager signed out.
func (m *Manager) Restore(ctx context.Context) {
	logger := logging.FromContext(ctx)

	raw, err := m.store.Get(ctx, models.KeyCurrentUser)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			metrics.PersistenceErrors.WithLabelValues(models.KeyCurrentUser, "load").Inc()
			logger.Warn("load identity", slog.String("error", err.Error()))
		}
		return
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		logger.Warn("discarding persisted identity", slog.String("error", err.Error()))
		return
	}
	if err := user.Validate(); err != nil {
		logger.Warn("discarding persisted identity", slog.String("error", err.Error()))
		return
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	logger.Info("identity restored", slog.String("user_id", user.ID))
}

// Current returns the signed-in identity.
func (m *Manager) Current() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

// Login replaces the identity and persists it.
func (m *Manager) Login(ctx context.Context, user models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()

	m.persist(ctx, user)
	logging.FromContext(ctx).Info("signed in", slog.String("user_id", user.ID))
	return nil
}

// Logout clears the identity and its persisted copy.
func (m *Manager) Logout(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	if err := m.store.Delete(ctx, models.KeyCurrentUser); err != nil {
		metrics.PersistenceErrors.WithLabelValues(models.KeyCurrentUser, "delete").Inc()
		logging.FromContext(ctx).Warn("clear persisted identity", slog.String("error", err.Error()))
	}
}

// ProfileUpdate carries the channel images a user may change. Empty fields are left as they are.
type ProfileUpdate struct {
	Avatar string `json:"avatar"`
	Banner string `json:"banner"`
}

// UpdateProfile replaces the avatar and banner of the signed-in user.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.User, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return models.User{}, ErrNotSignedIn
	}
	if v := strings.TrimSpace(update.Avatar); v != "" {
		m.user.Avatar = v
	}
	if v := strings.TrimSpace(update.Banner); v != "" {
		m.user.Banner = v
	}
	user := *m.user
	m.mu.Unlock()

	m.persist(ctx, user)
	return user, nil
}

func (m *Manager) persist(ctx context.Context, user models.User) {
	err := func() error {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("encode identity: %w", err)
		}
		return m.store.Put(ctx, models.KeyCurrentUser, raw)
	}()
	if err != nil {
		metrics.PersistenceErrors.WithLabelValues(models.KeyCurrentUser, "save").Inc()
		logging.FromContext(ctx).Warn("persist identity", slog.String("error", err.Error()))
	}
}
