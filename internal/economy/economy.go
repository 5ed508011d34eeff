// Package economy abstracts the currency backend and models single-trade
// transactions with fail-safe commit and rollback.
package economy

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Backend is the external economy collaborator. Currencies are scoped to a
// world; an empty currency means the world's default.
type Backend interface {
	Balance(actor uuid.UUID, world, currency string) (float64, error)
	Deposit(actor uuid.UUID, amount float64, world, currency string) error
	Withdraw(actor uuid.UUID, amount float64, world, currency string) error
}

type acctKey struct {
	actor    uuid.UUID
	world    string
	currency string
}

// MemoryBackend is a mutex-guarded in-process ledger. It backs the standalone
// server and the tests; real deployments plug in their economy service.
type MemoryBackend struct {
	mu       sync.Mutex
	balances map[acctKey]float64
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{balances: map[acctKey]float64{}}
}

func (m *MemoryBackend) Balance(actor uuid.UUID, world, currency string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[acctKey{actor, world, currency}], nil
}

func (m *MemoryBackend) Deposit(actor uuid.UUID, amount float64, world, currency string) error {
	if amount < 0 {
		return fmt.Errorf("deposit %v: negative amount", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[acctKey{actor, world, currency}] += amount
	return nil
}

func (m *MemoryBackend) Withdraw(actor uuid.UUID, amount float64, world, currency string) error {
	if amount < 0 {
		return fmt.Errorf("withdraw %v: negative amount", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := acctKey{actor, world, currency}
	if m.balances[k] < amount {
		return fmt.Errorf("withdraw %v: balance %v", amount, m.balances[k])
	}
	m.balances[k] -= amount
	return nil
}

// SetBalance seeds an account. Test/bootstrap helper.
func (m *MemoryBackend) SetBalance(actor uuid.UUID, world, currency string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[acctKey{actor, world, currency}] = v
}
