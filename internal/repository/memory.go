package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"billdesk/internal/domain"
)

// MemoryStore объединённое in-memory хранилище и простой генератор ID
type MemoryStore struct {
	mu             sync.RWMutex
	nextProdID     int64
	nextPurchaseID int64
	productsByID   map[int64]domain.Product
	denominations  map[int64]domain.Denomination
	purchasesByID  map[int64]domain.Purchase
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextProdID:     1,
		nextPurchaseID: 1,
		productsByID:   make(map[int64]domain.Product),
		denominations:  make(map[int64]domain.Denomination),
		purchasesByID:  make(map[int64]domain.Purchase),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	for _, existing := range m.productsByID {
		if existing.Code == p.Code {
			return ErrDuplicate
		}
	}
	p.ID = m.nextProdID
	m.nextProdID++
	m.productsByID[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := p
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[p.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.productsByID {
		if id != p.ID && existing.Code == p.Code {
			return ErrDuplicate
		}
	}
	m.productsByID[p.ID] = *p
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.productsByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range m.productsByID {
		if matchesProduct(p, f) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, id int64, qty int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock = max(0, p.Stock-qty)
	m.productsByID[id] = p
	return nil
}

// DenominationRepository implementation on wrapper type
type MemoryDenominations struct{ store *MemoryStore }

func NewMemoryDenominations(store *MemoryStore) *MemoryDenominations {
	return &MemoryDenominations{store: store}
}

var _ DenominationRepository = (*MemoryDenominations)(nil)

func (md *MemoryDenominations) ListDesc(ctx context.Context) ([]domain.Denomination, error) {
	md.store.rlock(ctx)
	defer md.store.runlock(ctx)
	out := make([]domain.Denomination, 0, len(md.store.denominations))
	for _, d := range md.store.denominations {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Denomination) int { return cmp.Compare(b.Value, a.Value) })
	return out, nil
}

func (md *MemoryDenominations) Upsert(ctx context.Context, d domain.Denomination) error {
	md.store.wlock(ctx)
	defer md.store.wunlock(ctx)
	md.store.denominations[d.Value] = d
	return nil
}

func (md *MemoryDenominations) Decrement(ctx context.Context, value int64, count int64) error {
	md.store.wlock(ctx)
	defer md.store.wunlock(ctx)
	d, ok := md.store.denominations[value]
	if !ok {
		return ErrNotFound
	}
	if d.Count < count {
		return ErrInsufficientDenomination
	}
	d.Count -= count
	md.store.denominations[value] = d
	return nil
}

// PurchaseRepository implementation on wrapper type
type MemoryPurchases struct{ store *MemoryStore }

func NewMemoryPurchases(store *MemoryStore) *MemoryPurchases {
	return &MemoryPurchases{store: store}
}

var _ PurchaseRepository = (*MemoryPurchases)(nil)

func (mp *MemoryPurchases) Create(ctx context.Context, p *domain.Purchase) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	p.ID = mp.store.nextPurchaseID
	mp.store.nextPurchaseID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	mp.store.purchasesByID[p.ID] = clonePurchase(*p)
	return nil
}

func (mp *MemoryPurchases) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	p, ok := mp.store.purchasesByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := clonePurchase(p)
	return &cp, nil
}

func (mp *MemoryPurchases) List(ctx context.Context, f PurchaseFilter) ([]domain.Purchase, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	out := make([]domain.Purchase, 0)
	for _, p := range mp.store.purchasesByID {
		if f.CustomerEmail != "" && p.CustomerEmail != f.CustomerEmail {
			continue
		}
		out = append(out, clonePurchase(p))
	}
	slices.SortFunc(out, func(a, b domain.Purchase) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func clonePurchase(p domain.Purchase) domain.Purchase {
	p.Items = slices.Clone(p.Items)
	p.Change.Dispensed = slices.Clone(p.Change.Dispensed)
	return p
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

// WithTransaction runs fn under the store write lock. If fn fails or panics the
// store is restored to the state it had before fn ran.
func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if isTx(ctx) {
		return fn(ctx)
	}
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	snap := tx.store.snapshot()
	defer func() {
		if r := recover(); r != nil {
			tx.store.restore(snap)
			panic(r)
		}
		if err != nil {
			tx.store.restore(snap)
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, true))
}

type memorySnapshot struct {
	nextProdID     int64
	nextPurchaseID int64
	products       map[int64]domain.Product
	denominations  map[int64]domain.Denomination
	purchases      map[int64]domain.Purchase
}

// snapshot must be called with mu held. Stored values are never mutated in
// place, so shallow map copies are enough.
func (m *MemoryStore) snapshot() memorySnapshot {
	return memorySnapshot{
		nextProdID:     m.nextProdID,
		nextPurchaseID: m.nextPurchaseID,
		products:       maps.Clone(m.productsByID),
		denominations:  maps.Clone(m.denominations),
		purchases:      maps.Clone(m.purchasesByID),
	}
}

func (m *MemoryStore) restore(s memorySnapshot) {
	m.nextProdID = s.nextProdID
	m.nextPurchaseID = s.nextPurchaseID
	m.productsByID = s.products
	m.denominations = s.denominations
	m.purchasesByID = s.purchases
}
