package economy

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

// flakyBackend wraps the memory ledger and fails deposits to chosen accounts.
type flakyBackend struct {
	*MemoryBackend
	failDeposit map[uuid.UUID]bool
}

func (f *flakyBackend) Deposit(actor uuid.UUID, amount float64, world, currency string) error {
	if f.failDeposit[actor] {
		return fmt.Errorf("deposit rejected for %s", actor)
	}
	return f.MemoryBackend.Deposit(actor, amount, world, currency)
}

func balance(t *testing.T, b Backend, actor uuid.UUID) float64 {
	t.Helper()
	v, err := b.Balance(actor, "world", "")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return v
}

func TestTransaction_CommitSplitsTax(t *testing.T) {
	eco := NewMemoryBackend()
	from := uuid.New()
	to := uuid.New()
	taxAcct := uuid.New()
	eco.SetBalance(from, "world", "", 100)

	tx := NewTransaction(Spec{
		Core:        eco,
		From:        &from,
		To:          &to,
		Amount:      40,
		TaxModifier: 0.1,
		TaxAccount:  &taxAcct,
		World:       "world",
	})
	if !tx.CheckBalance() {
		t.Fatalf("checkBalance = false, want true")
	}
	if !tx.Commit() {
		t.Fatalf("commit failed: %s", tx.LastError())
	}
	if got := balance(t, eco, from); got != 60 {
		t.Fatalf("payer balance = %v, want 60", got)
	}
	if got := balance(t, eco, to); got != 36 {
		t.Fatalf("payee balance = %v, want 36", got)
	}
	if got := balance(t, eco, taxAcct); got != 4 {
		t.Fatalf("tax balance = %v, want 4", got)
	}
	if tx.State() != StateCommitted {
		t.Fatalf("state = %v, want COMMITTED", tx.State())
	}
}

func TestTransaction_CheckBalanceInsufficient(t *testing.T) {
	eco := NewMemoryBackend()
	from := uuid.New()
	to := uuid.New()
	eco.SetBalance(from, "world", "", 5)

	tx := NewTransaction(Spec{Core: eco, From: &from, To: &to, Amount: 10, World: "world"})
	if tx.CheckBalance() {
		t.Fatalf("checkBalance = true with balance 5 and amount 10")
	}
	// Loans flip the verdict without touching balances.
	loan := NewTransaction(Spec{Core: eco, From: &from, To: &to, Amount: 10, World: "world", AllowLoan: true})
	if !loan.CheckBalance() {
		t.Fatalf("checkBalance = false with loans allowed")
	}
	if got := balance(t, eco, from); got != 5 {
		t.Fatalf("checkBalance mutated balance to %v", got)
	}
}

func TestTransaction_FailSafeCommitReversesLegs(t *testing.T) {
	inner := NewMemoryBackend()
	from := uuid.New()
	to := uuid.New()
	taxAcct := uuid.New()
	inner.SetBalance(from, "world", "", 100)
	eco := &flakyBackend{MemoryBackend: inner, failDeposit: map[uuid.UUID]bool{taxAcct: true}}

	tx := NewTransaction(Spec{
		Core:        eco,
		From:        &from,
		To:          &to,
		Amount:      40,
		TaxModifier: 0.25,
		TaxAccount:  &taxAcct,
		World:       "world",
	})
	if tx.FailSafeCommit() {
		t.Fatalf("failSafeCommit succeeded with a failing tax leg")
	}
	// The withdraw and payee deposit both happened, then got reversed.
	if got := balance(t, eco, from); got != 100 {
		t.Fatalf("payer balance = %v, want 100 after reversal", got)
	}
	if got := balance(t, eco, to); got != 0 {
		t.Fatalf("payee balance = %v, want 0 after reversal", got)
	}
	if tx.State() != StateFailed {
		t.Fatalf("state = %v, want FAILED", tx.State())
	}
}

func TestTransaction_RollbackCommitted(t *testing.T) {
	eco := NewMemoryBackend()
	from := uuid.New()
	to := uuid.New()
	eco.SetBalance(from, "world", "", 50)

	tx := NewTransaction(Spec{Core: eco, From: &from, To: &to, Amount: 20, World: "world"})
	if !tx.Commit() {
		t.Fatalf("commit failed: %s", tx.LastError())
	}
	if !tx.Rollback(false) {
		t.Fatalf("rollback failed: %s", tx.LastError())
	}
	if got := balance(t, eco, from); got != 50 {
		t.Fatalf("payer balance = %v, want 50", got)
	}
	if got := balance(t, eco, to); got != 0 {
		t.Fatalf("payee balance = %v, want 0", got)
	}
	if tx.State() != StateRolledBack {
		t.Fatalf("state = %v, want ROLLED_BACK", tx.State())
	}
}

func TestTransaction_RollbackUncommittedNoop(t *testing.T) {
	eco := NewMemoryBackend()
	from := uuid.New()
	eco.SetBalance(from, "world", "", 50)

	tx := NewTransaction(Spec{Core: eco, From: &from, Amount: 20, World: "world"})
	if !tx.Rollback(false) {
		t.Fatalf("rollback of a NEW transaction should be a successful no-op")
	}
	if got := balance(t, eco, from); got != 50 {
		t.Fatalf("no-op rollback changed balance to %v", got)
	}
}

func TestTransaction_SourcelessLeg(t *testing.T) {
	eco := NewMemoryBackend()
	to := uuid.New()

	// Unlimited-shop payout: nobody is debited.
	tx := NewTransaction(Spec{Core: eco, To: &to, Amount: 15, World: "world"})
	if !tx.CheckBalance() {
		t.Fatalf("sourceless checkBalance = false")
	}
	if !tx.Commit() {
		t.Fatalf("commit failed: %s", tx.LastError())
	}
	if got := balance(t, eco, to); got != 15 {
		t.Fatalf("payee balance = %v, want 15", got)
	}
}
