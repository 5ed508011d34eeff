package economy

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type State int

const (
	StateNew State = iota
	StateCommitted
	StateFailed
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateCommitted:
		return "COMMITTED"
	case StateFailed:
		return "FAILED"
	case StateRolledBack:
		return "ROLLED_BACK"
	}
	return "UNKNOWN"
}

// Spec describes one currency movement. A nil From means a sourceless leg
// (nobody is debited); a nil To means a sinkless leg. TaxModifier must be in
// [0,1): the payer always pays the full amount, the payee receives
// amount-tax, and the tax account (if any) receives the tax.
type Spec struct {
	Core        Backend
	From        *uuid.UUID
	To          *uuid.UUID
	Amount      float64
	TaxModifier float64
	TaxAccount  *uuid.UUID
	World       string
	Currency    string
	AllowLoan   bool
}

// Transaction is transient: built, committed (or not) once, then discarded.
// It records every leg that succeeded so a failed or rolled-back commit can
// reverse exactly what happened.
type Transaction struct {
	spec      Spec
	tax       float64
	payout    float64
	state     State
	lastError string
	legs      []leg
}

type leg struct {
	actor  uuid.UUID
	amount float64
	credit bool
}

func NewTransaction(spec Spec) *Transaction {
	amount := decimal.NewFromFloat(spec.Amount)
	tax := amount.Mul(decimal.NewFromFloat(spec.TaxModifier))
	return &Transaction{
		spec:   spec,
		tax:    tax.InexactFloat64(),
		payout: amount.Sub(tax).InexactFloat64(),
	}
}

func (t *Transaction) State() State      { return t.state }
func (t *Transaction) Tax() float64      { return t.tax }
func (t *Transaction) LastError() string { return t.lastError }

// CheckBalance is pure and repeatable: true iff the payer (if any) can cover
// the amount, or loans are allowed.
func (t *Transaction) CheckBalance() bool {
	if t.spec.From == nil || t.spec.AllowLoan {
		return true
	}
	bal, err := t.spec.Core.Balance(*t.spec.From, t.spec.World, t.spec.Currency)
	if err != nil {
		return false
	}
	return bal >= t.spec.Amount
}

// Commit runs debit, credit and tax-credit in one attempt. On any leg failure
// it returns false with state Failed; legs that already succeeded are NOT
// undone. Use FailSafeCommit for all-or-nothing semantics.
func (t *Transaction) Commit() bool {
	if t.state != StateNew {
		t.lastError = fmt.Sprintf("commit in state %s", t.state)
		return false
	}
	if t.spec.From != nil {
		if err := t.spec.Core.Withdraw(*t.spec.From, t.spec.Amount, t.spec.World, t.spec.Currency); err != nil {
			t.fail(fmt.Sprintf("withdraw %v from %s: %v", t.spec.Amount, *t.spec.From, err))
			return false
		}
		t.legs = append(t.legs, leg{actor: *t.spec.From, amount: t.spec.Amount, credit: false})
	}
	if t.spec.To != nil {
		if err := t.spec.Core.Deposit(*t.spec.To, t.payout, t.spec.World, t.spec.Currency); err != nil {
			t.fail(fmt.Sprintf("deposit %v to %s: %v", t.payout, *t.spec.To, err))
			return false
		}
		t.legs = append(t.legs, leg{actor: *t.spec.To, amount: t.payout, credit: true})
	}
	if t.spec.TaxAccount != nil && t.tax > 0 {
		if err := t.spec.Core.Deposit(*t.spec.TaxAccount, t.tax, t.spec.World, t.spec.Currency); err != nil {
			t.fail(fmt.Sprintf("deposit tax %v to %s: %v", t.tax, *t.spec.TaxAccount, err))
			return false
		}
		t.legs = append(t.legs, leg{actor: *t.spec.TaxAccount, amount: t.tax, credit: true})
	}
	t.state = StateCommitted
	return true
}

// FailSafeCommit wraps Commit: on failure it reverses every leg that did
// succeed, so the net observable balance change is zero. Call at most once.
func (t *Transaction) FailSafeCommit() bool {
	if t.Commit() {
		return true
	}
	if err := t.reverseLegs(); err != nil {
		t.lastError = fmt.Sprintf("%s; reversal incomplete: %v", t.lastError, err)
	}
	return false
}

// Rollback reverses a committed transaction's net effect. On a non-committed
// instance it is a successful no-op unless force is set, in which case it
// attempts best-effort reversal anyway.
func (t *Transaction) Rollback(force bool) bool {
	if t.state != StateCommitted && !force {
		return true
	}
	err := t.reverseLegs()
	t.state = StateRolledBack
	if err != nil {
		t.lastError = fmt.Sprintf("rollback incomplete: %v", err)
		return false
	}
	return true
}

// reverseLegs undoes succeeded legs newest-first: credits are withdrawn,
// debits re-deposited. Continues past individual failures and reports the
// first one.
func (t *Transaction) reverseLegs() error {
	var firstErr error
	for i := len(t.legs) - 1; i >= 0; i-- {
		l := t.legs[i]
		var err error
		if l.credit {
			err = t.spec.Core.Withdraw(l.actor, l.amount, t.spec.World, t.spec.Currency)
		} else {
			err = t.spec.Core.Deposit(l.actor, l.amount, t.spec.World, t.spec.Currency)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("reverse leg for %s: %w", l.actor, err)
		}
	}
	t.legs = nil
	return firstErr
}

func (t *Transaction) fail(msg string) {
	t.state = StateFailed
	t.lastError = msg
}
