package cart

import (
	"context"
	"sync"

	"giftkart/internal/store"

	"github.com/rs/zerolog"
)

// Manager hands out one ledger per signed-in account, loading the account's
// durable cart slot on first use and dropping the ledger at sign-out.
type Manager struct {
	mu      sync.Mutex
	durable store.Durable
	logger  zerolog.Logger
	ledgers map[string]*Ledger
}

// NewManager creates a ledger manager over the durable store.
func NewManager(durable store.Durable, logger zerolog.Logger) *Manager {
	return &Manager{
		durable: durable,
		logger:  logger,
		ledgers: make(map[string]*Ledger),
	}
}

// Ledger returns the account's ledger, creating and loading it on first use.
func (m *Manager) Ledger(ctx context.Context, accountID string) (*Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ledger, ok := m.ledgers[accountID]; ok {
		return ledger, nil
	}

	ledger := NewLedger(m.durable, m.logger)
	if err := ledger.Bind(ctx, accountID); err != nil {
		return nil, err
	}

	m.ledgers[accountID] = ledger
	return ledger, nil
}

// Drop tears down the account's ledger at sign-out. The durable slot stays
// so the cart is back on the next sign-in.
func (m *Manager) Drop(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.ledgers, accountID)
}
