package market

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"chestshop.dev/internal/config"
	"chestshop.dev/internal/economy"
)

// A chat answer must come from near the shop it answers for.
const maxInteractDistanceSq = 25

// Deps are the external collaborators a Manager is wired with. World and
// Economy are required; everything else may be nil.
type Deps struct {
	World        WorldAccess
	Economy      economy.Backend
	Store        Store
	Messenger    Messenger
	Capabilities CapabilityChecker
	Protection   ProtectionChecker
	Blacklist    func(Item) bool
	Hooks        Hooks
	Audit        TradeAuditor
	Logger       *log.Logger
}

// Manager owns every shop loaded in the process. All mutation runs on the
// single coordinator goroutine driving Run; callers elsewhere hand work over
// with Submit. Lookups against the index, the runtime cache and the loaded
// set are safe from any goroutine.
type Manager struct {
	cfg   config.Config
	log   *log.Logger
	world WorldAccess
	eco   economy.Backend
	store Store
	msg   Messenger
	caps  CapabilityChecker
	prot  ProtectionChecker
	hooks Hooks
	audit TradeAuditor

	blacklisted func(Item) bool

	index   *Index
	cache   *RuntimeCache
	tracker *Tracker
	limiter *PriceLimiter
	taxer   *TaxCalculator

	loaded sync.Map // runtime id -> *Shop

	inbox chan func()
	stop  chan struct{}
	once  sync.Once

	taxAccount       *uuid.UUID
	unlimitedAccount *uuid.UUID
	allWord          string
}

func NewManager(cfg config.Config, deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[market] ", log.LstdFlags|log.Lmicroseconds)
	}
	msg := deps.Messenger
	if msg == nil {
		msg = NopMessenger{}
	}
	m := &Manager{
		cfg:         cfg,
		log:         logger,
		world:       deps.World,
		eco:         deps.Economy,
		store:       deps.Store,
		msg:         msg,
		caps:        deps.Capabilities,
		prot:        deps.Protection,
		hooks:       deps.Hooks,
		audit:       deps.Audit,
		blacklisted: deps.Blacklist,
		index:       NewIndex(),
		cache:       NewRuntimeCache(),
		tracker:     NewTracker(),
		limiter:     NewPriceLimiter(cfg),
		inbox:       make(chan func(), 1024),
		stop:        make(chan struct{}),
	}
	m.taxer = NewTaxCalculator(cfg.Tax, cfg.TaxFreeForUnlimitedShop, deps.Capabilities, deps.Hooks.Tax, logger)
	m.initAccounts()
	return m
}

func (m *Manager) initAccounts() {
	if acct := strings.TrimSpace(m.cfg.TaxAccount); acct != "" {
		id := accountID(acct)
		m.taxAccount = &id
	}
	if m.cfg.UnlimitedShopOwnerChange {
		acct := strings.TrimSpace(m.cfg.UnlimitedShopOwnerChangeAccount)
		if acct == "" {
			acct = "chestshop"
			m.log.Printf("unlimited_shop_owner_change_account is empty, defaulting to %q", acct)
		}
		id := accountID(acct)
		m.unlimitedAccount = &id
	}
	m.allWord = m.cfg.Shop.WordForTradeAllItems
	if m.allWord == "" {
		m.allWord = "all"
	}
}

// accountID resolves a configured account to a stable id: either a literal
// uuid or a name-derived one.
func accountID(s string) uuid.UUID {
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("account:"+s))
}

// Run drains the coordinator inbox until the context ends or Stop is called.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		case fn := <-m.inbox:
			fn()
		}
	}
}

func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

// Submit hands a mutation to the coordinator. Per-submitter order is
// preserved; there is no cross-submitter ordering guarantee.
func (m *Manager) Submit(fn func()) {
	select {
	case m.inbox <- fn:
	case <-m.stop:
	}
}

func (m *Manager) Index() *Index                 { return m.index }
func (m *Manager) Tracker() *Tracker             { return m.tracker }
func (m *Manager) PriceLimiter() *PriceLimiter   { return m.limiter }
func (m *Manager) TaxCalculator() *TaxCalculator { return m.taxer }

// TaxAccountFor resolves the tax leg destination: shop override, then the
// configured global account, then none.
func (m *Manager) TaxAccountFor(shop *Shop) *uuid.UUID {
	if shop.TaxAccount != nil {
		return shop.TaxAccount
	}
	return m.taxAccount
}

// LoadShop registers an already-persisted shop into the directory and bakes
// its runtime id. Coordinator only.
func (m *Manager) LoadShop(shop *Shop) {
	m.index.Register(shop)
	m.loaded.Store(shop.RuntimeID(), shop)
	m.cache.Put(shop.RuntimeID(), shop)
}

// UnloadShop drops the shop from memory without touching persistence.
func (m *Manager) UnloadShop(shop *Shop) {
	m.index.Remove(shop)
	m.loaded.Delete(shop.RuntimeID())
	m.cache.Remove(shop.RuntimeID())
}

// DeleteShop removes the shop from memory and asks the store to forget it.
func (m *Manager) DeleteShop(shop *Shop) {
	m.UnloadShop(shop)
	if m.store != nil {
		m.store.RemoveShop(shop.Pos.World, shop.Pos.X, shop.Pos.Y, shop.Pos.Z, func(err error) {
			if err != nil {
				m.log.Printf("remove shop at %v from store: %v", shop.Pos, err)
			}
		})
	}
}

// FindByRuntimeID resolves a runtime id through the cache, falling back to a
// linear scan of the loaded set. Returns nil when the id is unknown.
func (m *Manager) FindByRuntimeID(id uuid.UUID, includeInvalid bool) *Shop {
	if shop := m.cache.Get(id, includeInvalid); shop != nil {
		return shop
	}
	var found *Shop
	m.loaded.Range(func(k, v any) bool {
		if k.(uuid.UUID) == id {
			found = v.(*Shop)
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	if !includeInvalid && !found.Valid() {
		return nil
	}
	return found
}

// AllShops collects every registered shop. Safe from any goroutine, but the
// slice is a point-in-time view.
func (m *Manager) AllShops() []*Shop {
	var out []*Shop
	it := m.index.Iterator()
	for s := it.Next(); s != nil; s = it.Next() {
		out = append(out, s)
	}
	return out
}

// PlayerShops lists the shops owned by one actor.
func (m *Manager) PlayerShops(owner uuid.UUID) []*Shop {
	var out []*Shop
	for _, s := range m.AllShops() {
		if s.Owner == owner {
			out = append(out, s)
		}
	}
	return out
}

// ShopsInWorld lists the shops registered in one world.
func (m *Manager) ShopsInWorld(world string) []*Shop {
	var out []*Shop
	for _, s := range m.AllShops() {
		if s.Pos.World == world {
			out = append(out, s)
		}
	}
	return out
}

// reachedLimit applies the ownership quota. The old algorithm counts
// unlimited shops against the quota; the new one skips them.
func (m *Manager) reachedLimit(actor uuid.UUID) bool {
	if !m.cfg.Limits.Enabled {
		return false
	}
	owned := 0
	for _, shop := range m.PlayerShops(actor) {
		if m.cfg.Limits.OldAlgorithm || !shop.Unlimited {
			owned++
		}
	}
	return owned+1 > m.cfg.Limits.Max
}

// MigrateToUnlimitedAccount reassigns an unlimited shop's owner to the
// configured server account. No-op unless the account is configured.
// Coordinator only.
func (m *Manager) MigrateToUnlimitedAccount(shop *Shop) {
	if m.unlimitedAccount == nil {
		return
	}
	shop.Owner = *m.unlimitedAccount
}

// SetUnlimited toggles a shop's unlimited flag, migrates ownership to the
// server account when enabling, and re-persists the shop. Coordinator only.
func (m *Manager) SetUnlimited(shop *Shop, unlimited bool) {
	shop.Unlimited = unlimited
	if unlimited {
		m.MigrateToUnlimitedAccount(shop)
	}
	m.world.RefreshDisplay(shop)
	if m.store == nil {
		return
	}
	m.store.CreateShop(RecordOf(shop), func(err error) {
		if err != nil {
			m.log.Printf("persist unlimited change at %v: %v", shop.Pos, err)
		}
	})
}

// Clear drops all shops and pending actions from memory. Does not touch the
// store; shutdown path only.
func (m *Manager) Clear() {
	m.tracker.Clear()
	m.index.Clear()
	m.loaded.Range(func(k, _ any) bool {
		m.loaded.Delete(k)
		return true
	})
}

// HandleInteract registers the two-phase question for a block interaction.
// Safe from any goroutine; the mutation runs on the coordinator.
func (m *Manager) HandleInteract(actor uuid.UUID, pos BlockPos, kind ActionKind, item Item) {
	m.Submit(func() { m.handleInteract(actor, pos, kind, item) })
}

func (m *Manager) handleInteract(actor uuid.UUID, pos BlockPos, kind ActionKind, item Item) {
	shop := m.index.Lookup(pos)
	switch kind {
	case ActionTrade:
		if shop == nil || !m.world.CanHostShop(pos) {
			m.msg.Send(actor, MsgChestWasRemoved)
			return
		}
		m.tracker.Register(PendingAction{
			Actor:    actor,
			Pos:      pos,
			Kind:     ActionTrade,
			Snapshot: SnapshotOf(shop),
		})
		if shop.IsBuying() {
			m.msg.Send(actor, MsgHowManySell, shop.Item.ID, shop.Price)
		} else {
			m.msg.Send(actor, MsgHowManyBuy, shop.Item.ID, shop.Price)
		}
	case ActionCreate:
		if shop != nil {
			m.msg.Send(actor, MsgShopAlreadyOwned)
			return
		}
		if item.ID == "" {
			m.msg.Send(actor, MsgNothingInHand)
			return
		}
		if m.world.ContainerAt(pos) == nil {
			m.msg.Send(actor, MsgInvalidContainer)
			return
		}
		m.tracker.Register(PendingAction{
			Actor: actor,
			Pos:   pos,
			Kind:  ActionCreate,
			Item:  item,
		})
		m.msg.Send(actor, MsgHowMuchToTradeFor, item.ID)
	}
}

// HandleChat feeds a raw chat line into the pending-action protocol. Safe
// from any goroutine. Lines from actors with nothing pending are ignored.
func (m *Manager) HandleChat(actor uuid.UUID, raw string) {
	if !m.tracker.Peek(actor) {
		return
	}
	text := StripFormatting(raw)
	m.Submit(func() { m.handleChat(actor, text) })
}

func (m *Manager) handleChat(actor uuid.UUID, text string) {
	info, ok := m.tracker.Consume(actor)
	if !ok {
		// Lost the delivery race; the other consumer is handling it.
		return
	}
	pos, ok := m.world.PositionOf(actor)
	if !ok {
		return
	}
	if d := DistanceSquared(info.Pos, pos); d < 0 || d > maxInteractDistanceSq {
		m.msg.Send(actor, MsgNotLookingAtShop)
		return
	}
	switch info.Kind {
	case ActionCreate:
		m.actionCreate(actor, info, text)
	case ActionTrade:
		m.actionTrade(actor, info, text)
	}
}

// StripFormatting removes legacy chat color/formatting codes (section-sign
// and ampersand pairs) before protocol matching.
func StripFormatting(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '§' || runes[i] == '&' {
			if i+1 < len(runes) && isFormatCode(runes[i+1]) {
				i++
				continue
			}
		}
		b.WriteRune(runes[i])
	}
	return strings.TrimSpace(b.String())
}

func isFormatCode(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		return true
	case r == 'k' || r == 'l' || r == 'm' || r == 'n' || r == 'o' || r == 'r':
		return true
	case r == 'K' || r == 'L' || r == 'M' || r == 'N' || r == 'O' || r == 'R':
		return true
	}
	return false
}
