package market

import "github.com/google/uuid"

// Decision is the tagged result of a cancellable hook: either proceed
// (possibly with an overridden total) or cancel with a reason.
type Decision struct {
	Cancelled bool
	Reason    string
	Total     float64
}

func Proceed(total float64) Decision { return Decision{Total: total} }

func Cancel(reason string) Decision { return Decision{Cancelled: true, Reason: reason} }

// PurchaseEvent is handed to the pre-commit hook before any money moves.
// This is the only veto point: once the commit starts, the trade runs to a
// definite outcome.
type PurchaseEvent struct {
	Shop   *Shop
	Actor  uuid.UUID
	Amount int
	Total  float64
}

type PurchaseHook func(PurchaseEvent) Decision

type PreCreateHook func(actor uuid.UUID, pos BlockPos) Decision

type CreateHook func(shop *Shop, creator uuid.UUID) Decision

// SuccessEvent reports a completed trade after commit and goods movement.
type SuccessEvent struct {
	Shop   *Shop
	Actor  uuid.UUID
	Amount int
	Total  float64
	Tax    float64
}

type SuccessHook func(SuccessEvent)

// Hooks bundles the optional lifecycle callbacks. Nil members are skipped.
type Hooks struct {
	PreCreate PreCreateHook
	Create    CreateHook
	Purchase  PurchaseHook
	Tax       TaxHook
	Success   SuccessHook
}
