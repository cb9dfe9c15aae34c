package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock is held if the holder dies.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates document access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL passed to the distributed locker.
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

// NewManager creates a new Session Manager with the given document store.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(docID) after unlocking.
func (m *Manager) acquire(docID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[docID]
	if !exists {
		entry = &lockEntry{}
		m.locks[docID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(docID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[docID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, docID)
	}
}

// Load retrieves an existing document from the store.
func (m *Manager) Load(ctx context.Context, docID string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, docID, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, docID)
		return err
	})
	return doc, err
}

// LoadOrCreate tries to load a document. If not found, it persists an empty one.
func (m *Manager) LoadOrCreate(ctx context.Context, docID string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, docID, func(ctx context.Context) error {
		var err error
		doc, err = m.loadOrNew(ctx, docID)
		if err != nil || len(doc.RootNodes) > 0 || len(doc.Templates) > 0 {
			return err
		}
		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, docID, doc); err != nil {
			return fmt.Errorf("failed to initialize document: %w", err)
		}
		return nil
	})
	return doc, err
}

// Update runs a read-modify-write cycle under the document lock.
// A missing document starts empty. Nothing is saved when fn fails.
func (m *Manager) Update(ctx context.Context, docID string, fn func(*domain.Document) error) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, docID, func(ctx context.Context) error {
		var err error
		doc, err = m.loadOrNew(ctx, docID)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return m.store.Save(ctx, docID, doc)
	})
	return doc, err
}

func (m *Manager) loadOrNew(ctx context.Context, docID string) (*domain.Document, error) {
	doc, err := m.store.Load(ctx, docID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, fmt.Errorf("failed to check document existence: %w", err)
	}
	return domain.NewDocument(), nil
}

// Save persists the document.
func (m *Manager) Save(ctx context.Context, docID string, doc *domain.Document) error {
	return m.WithLock(ctx, docID, func(ctx context.Context) error {
		return m.store.Save(ctx, docID, doc)
	})
}

// Delete removes the document from the store.
func (m *Manager) Delete(ctx context.Context, docID string) error {
	return m.WithLock(ctx, docID, func(ctx context.Context) error {
		return m.store.Delete(ctx, docID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// WithLock executes a function while holding the lock for the document.
// It is not reentrant: fn must use the store directly, not the Manager.
func (m *Manager) WithLock(ctx context.Context, docID string, fn func(context.Context) error) error {
	entry := m.acquire(docID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(docID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, docID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"doc_id", docID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
