package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billdesk/internal/domain"
	"billdesk/internal/idempotency"
	"billdesk/internal/repository"
)

type fixture struct {
	store     *repository.MemoryStore
	denoms    *repository.MemoryDenominations
	purchases *repository.MemoryPurchases
	bills     *BillService
	rice      *domain.Product
}

func setup(t *testing.T, opts BillOptions) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	f := &fixture{
		store:     store,
		denoms:    repository.NewMemoryDenominations(store),
		purchases: repository.NewMemoryPurchases(store),
	}
	f.bills = NewBillService(store, f.denoms, f.purchases, repository.NewMemoryTx(store), opts)

	rice := domain.Product{Code: "RICE", Name: "Rice", Price: price("100.00"), TaxPercent: price("5"), Stock: 10}
	require.NoError(t, store.Create(ctx, &rice))
	f.rice = &rice
	for _, d := range []domain.Denomination{{Value: 100, Count: 0}, {Value: 50, Count: 2}, {Value: 20, Count: 1}, {Value: 10, Count: 5}} {
		require.NoError(t, f.denoms.Upsert(ctx, d))
	}
	return f
}

func (f *fixture) counts(t *testing.T) map[int64]int64 {
	t.Helper()
	list, err := f.denoms.ListDesc(context.Background())
	require.NoError(t, err)
	out := make(map[int64]int64, len(list))
	for _, d := range list {
		out[d.Value] = d.Count
	}
	return out
}

func (f *fixture) stock(t *testing.T) int64 {
	t.Helper()
	p, err := f.store.GetByID(context.Background(), f.rice.ID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) req(cash string) BillRequest {
	return BillRequest{
		CustomerEmail: "buyer@example.com",
		Items:         []domain.BillItem{{ProductID: f.rice.ID, Quantity: 2}},
		CashPaid:      price(cash),
	}
}

func TestGenerateBill_DispensesChange(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})

	p, err := f.bills.GenerateBill(ctx, f.req("300"))
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "200.00", p.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", p.TaxTotal.StringFixed(2))
	assert.Equal(t, "210.00", p.Total.StringFixed(2))
	assert.Equal(t, "90.00", p.ChangeGiven.StringFixed(2))
	assert.Equal(t, domain.Dispensed([]domain.DispensedNote{{Value: 50, Count: 1}, {Value: 20, Count: 1}, {Value: 10, Count: 2}}), p.Change)

	require.Len(t, p.Items, 1)
	assert.Equal(t, "RICE", p.Items[0].ProductCode)
	assert.Equal(t, "210.00", p.Items[0].LineTotal.StringFixed(2))

	assert.Equal(t, map[int64]int64{100: 0, 50: 1, 20: 0, 10: 3}, f.counts(t))
	assert.Equal(t, int64(8), f.stock(t))

	stored, err := f.purchases.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Change, stored.Change)
}

func TestGenerateBill_InfeasibleChangeStillRecordsSale(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})
	before := f.counts(t)

	p, err := f.bills.GenerateBill(ctx, f.req("215"))
	require.NoError(t, err)
	assert.Equal(t, "5.00", p.ChangeGiven.StringFixed(2))
	assert.True(t, p.Change.IsInfeasible())
	assert.Equal(t, int64(5), p.Change.Remaining)
	assert.Equal(t, domain.ChangeInfeasibleMessage, p.Change.Error)

	assert.Equal(t, before, f.counts(t))
	assert.Equal(t, int64(8), f.stock(t))
	_, err = f.purchases.GetByID(ctx, p.ID)
	assert.NoError(t, err)
}

func TestGenerateBill_UnderpaymentLenientByDefault(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})

	p, err := f.bills.GenerateBill(ctx, f.req("200"))
	require.NoError(t, err)
	assert.Equal(t, "0.00", p.ChangeGiven.StringFixed(2))
	assert.Equal(t, domain.ChangeNone, p.Change.Kind)
	assert.Empty(t, p.Change.Dispensed)
}

func TestGenerateBill_UnderpaymentRejected(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{RejectUnderpayment: true})

	_, err := f.bills.GenerateBill(ctx, f.req("200"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cash_paid", ve.Field)
	assert.Equal(t, int64(10), f.stock(t))

	all, _ := f.purchases.List(ctx, repository.PurchaseFilter{})
	assert.Empty(t, all)
}

func TestGenerateBill_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})

	cases := map[string]BillRequest{
		"customer_email": {Items: f.req("1").Items},
		"items":          {CustomerEmail: "a@b.io"},
		"cash_paid":      {CustomerEmail: "a@b.io", Items: f.req("1").Items, CashPaid: price("1e20")},
	}
	for field, req := range cases {
		_, err := f.bills.GenerateBill(ctx, req)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}

	bad := f.req("300")
	bad.CustomerEmail = "not-an-email"
	_, err := f.bills.GenerateBill(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad = f.req("300")
	bad.Items = []domain.BillItem{{ProductID: f.rice.ID, Quantity: 0}}
	_, err = f.bills.GenerateBill(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad.Items = []domain.BillItem{{ProductID: -1, Quantity: 1}}
	_, err = f.bills.GenerateBill(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateBill_CashAboveLimitRejected(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})

	for _, cash := range []string{"1e20", "18446744073709551826", "1000000000000000.01"} {
		_, err := f.bills.GenerateBill(ctx, f.req(cash))
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, cash)
		assert.Equal(t, "cash_paid", ve.Field)
	}
	all, _ := f.purchases.List(ctx, repository.PurchaseFilter{})
	assert.Empty(t, all)
	assert.Equal(t, int64(10), f.stock(t))

	// the limit itself still fits whole-unit change in an int64
	p, err := f.bills.GenerateBill(ctx, f.req("1000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "999999999999790.00", p.ChangeGiven.StringFixed(2))
	assert.True(t, p.Change.IsInfeasible())
	assert.Equal(t, int64(999999999999790-170), p.Change.Remaining)
}

func TestGenerateBill_NegativeCashIsUnderpayment(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})

	p, err := f.bills.GenerateBill(ctx, f.req("-5"))
	require.NoError(t, err)
	assert.Equal(t, "-5.00", p.CashPaid.StringFixed(2))
	assert.Equal(t, "0.00", p.ChangeGiven.StringFixed(2))
	assert.Equal(t, domain.ChangeNone, p.Change.Kind)
	assert.Empty(t, p.Change.Dispensed)

	strict := setup(t, BillOptions{RejectUnderpayment: true})
	_, err = strict.bills.GenerateBill(ctx, strict.req("-5"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cash_paid", ve.Field)
}

func TestGenerateBill_UnknownProductRollsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})
	before := f.counts(t)

	req := f.req("300")
	req.Items = append(req.Items, domain.BillItem{ProductID: 999, Quantity: 1})
	_, err := f.bills.GenerateBill(ctx, req)
	require.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, before, f.counts(t))
	assert.Equal(t, int64(10), f.stock(t))
}

type failingPurchases struct{ repository.PurchaseRepository }

var errDiskFull = errors.New("disk full")

func (failingPurchases) Create(context.Context, *domain.Purchase) error { return errDiskFull }

func TestGenerateBill_PersistFailureRollsBackDrawer(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})
	before := f.counts(t)
	bills := NewBillService(f.store, f.denoms, failingPurchases{f.purchases}, repository.NewMemoryTx(f.store), BillOptions{})

	_, err := bills.GenerateBill(ctx, f.req("300"))
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, before, f.counts(t))
	assert.Equal(t, int64(10), f.stock(t))
}

type failingProducts struct{ repository.ProductRepository }

func (failingProducts) DecrementStock(context.Context, int64, int64) error { return errDiskFull }

func TestGenerateBill_StockFailureRollsBackWholeSale(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})
	before := f.counts(t)
	bills := NewBillService(failingProducts{f.store}, f.denoms, f.purchases, repository.NewMemoryTx(f.store), BillOptions{})

	_, err := bills.GenerateBill(ctx, f.req("300"))
	require.ErrorIs(t, err, errDiskFull)

	assert.Equal(t, before, f.counts(t), "dispensed notes returned to the drawer")
	all, err := f.purchases.List(ctx, repository.PurchaseFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "purchase record discarded")
	assert.Equal(t, int64(10), f.stock(t))

	// purchase ids were not consumed by the failed sale
	p, err := f.bills.GenerateBill(ctx, f.req("300"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
}

func TestGenerateBill_StockFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})

	req := f.req("5000")
	req.Items[0].Quantity = 15
	p, err := f.bills.GenerateBill(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(15), p.Items[0].Quantity)
	assert.Equal(t, int64(0), f.stock(t))
}

func TestGenerateBill_PriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})
	p, err := f.bills.GenerateBill(ctx, f.req("210"))
	require.NoError(t, err)

	changed := *f.rice
	changed.Price = price("999")
	require.NoError(t, f.store.Update(ctx, &changed))

	stored, err := f.purchases.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", stored.Items[0].UnitPrice.StringFixed(2))
}

func TestGenerateBillOnce_ReplaysByKey(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{Idempotency: idempotency.NewMemoryStore(time.Hour)})

	first, replayed, err := f.bills.GenerateBillOnce(ctx, "k-1", f.req("300"))
	require.NoError(t, err)
	assert.False(t, replayed)

	again, replayed, err := f.bills.GenerateBillOnce(ctx, "k-1", f.req("300"))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(8), f.stock(t))

	other, replayed, err := f.bills.GenerateBillOnce(ctx, "k-2", f.req("210"))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, first.ID, other.ID)

	_, _, err = f.bills.GenerateBillOnce(ctx, "   ", f.req("210"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateBillOnce_StaleKeyIsRepointed(t *testing.T) {
	ctx := context.Background()
	keys := idempotency.NewMemoryStore(time.Hour)
	f := setup(t, BillOptions{Idempotency: keys})

	// key left behind by a purchase this store no longer has
	require.NoError(t, keys.Remember(ctx, "k-old", 4242))

	first, replayed, err := f.bills.GenerateBillOnce(ctx, "k-old", f.req("210"))
	require.NoError(t, err)
	assert.False(t, replayed)

	id, ok, err := keys.Lookup(ctx, "k-old")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, id)

	again, replayed, err := f.bills.GenerateBillOnce(ctx, "k-old", f.req("210"))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)

	all, _ := f.purchases.List(ctx, repository.PurchaseFilter{})
	assert.Len(t, all, 1)
	assert.Equal(t, int64(8), f.stock(t))
}

func TestGenerateBillOnce_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{Idempotency: idempotency.NewMemoryStore(time.Hour)})

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, _, err := f.bills.GenerateBillOnce(ctx, "same", f.req("210"))
			if err == nil {
				ids[i] = p.ID
			}
		}()
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, _ := f.purchases.List(ctx, repository.PurchaseFilter{})
	assert.Len(t, all, 1)
}

func TestPairItems(t *testing.T) {
	items, err := PairItems([]string{"1", " 2"}, []string{"3", "4 "})
	require.NoError(t, err)
	assert.Equal(t, []domain.BillItem{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 4}}, items)

	_, err = PairItems([]string{"1"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = PairItems(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = PairItems([]string{"x"}, []string{"1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPurchaseService_History(t *testing.T) {
	ctx := context.Background()
	f := setup(t, BillOptions{})
	ps := NewPurchaseService(f.purchases)

	a, err := f.bills.GenerateBill(ctx, f.req("210"))
	require.NoError(t, err)
	other := f.req("210")
	other.CustomerEmail = "other@example.com"
	_, err = f.bills.GenerateBill(ctx, other)
	require.NoError(t, err)

	mine, err := ps.List(ctx, " buyer@example.com ")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	all, err := ps.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = ps.Get(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ps.Get(ctx, 12345)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
