package saves

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates save access. Unused per-save mutexes are reclaimed by
// reference counting.
type Manager struct {
	store ports.AttributeStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock lease.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given attribute store.
func NewManager(store ports.AttributeStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking.
func (m *Manager) acquire(saveID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[saveID]
	if !exists {
		entry = &lockEntry{}
		m.locks[saveID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(saveID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[saveID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, saveID)
	}
}

// Load returns the attributes of an existing save.
func (m *Manager) Load(ctx context.Context, saveID string) (map[string]domain.Value, error) {
	var attrs map[string]domain.Value
	err := m.WithLock(ctx, saveID, func(ctx context.Context) error {
		var err error
		attrs, err = m.store.Load(ctx, saveID)
		return err
	})
	return attrs, err
}

// Save replaces the attributes of a save.
func (m *Manager) Save(ctx context.Context, saveID string, attrs map[string]domain.Value) error {
	return m.WithLock(ctx, saveID, func(ctx context.Context) error {
		return m.store.Save(ctx, saveID, attrs)
	})
}

// Update runs fn on the current attributes (empty for a new save) while
// holding the save lock. A nil map returned by fn leaves the save untouched.
func (m *Manager) Update(ctx context.Context, saveID string, fn func(context.Context, map[string]domain.Value) (map[string]domain.Value, error)) error {
	return m.WithLock(ctx, saveID, func(ctx context.Context) error {
		attrs, err := m.store.Load(ctx, saveID)
		if err != nil {
			if !errors.Is(err, domain.ErrSaveNotFound) {
				return fmt.Errorf("failed to load save %q: %w", saveID, err)
			}
			attrs = map[string]domain.Value{}
		}

		next, err := fn(ctx, attrs)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if err := m.store.Save(ctx, saveID, next); err != nil {
			return fmt.Errorf("failed to persist save %q: %w", saveID, err)
		}
		return nil
	})
}

// Delete removes the save from the store.
func (m *Manager) Delete(ctx context.Context, saveID string) error {
	return m.WithLock(ctx, saveID, func(ctx context.Context) error {
		return m.store.Delete(ctx, saveID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// LockTTL returns the distributed lock lease.
func (m *Manager) LockTTL() time.Duration {
	return m.lockTTL
}

// Store returns the underlying attribute store.
func (m *Manager) Store() ports.AttributeStore {
	return m.store
}

// WithLock executes fn while holding the lock for the save.
// fn must not call other locking Manager methods for the same save.
func (m *Manager) WithLock(ctx context.Context, saveID string, fn func(context.Context) error) error {
	entry := m.acquire(saveID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(saveID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, saveID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// release even when ctx was cancelled by fn's caller
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"save_id", saveID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
