package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"billdesk/internal/billing"
	"billdesk/internal/domain"
	"billdesk/internal/idempotency"
	"billdesk/internal/metrics"
	"billdesk/internal/repository"
	logx "billdesk/pkg/logger"
)

// BillRequest is a cart checked out against cash tendered.
type BillRequest struct {
	CustomerEmail string
	Items         []domain.BillItem
	CashPaid      decimal.Decimal
}

type BillOptions struct {
	// RejectUnderpayment turns cash_paid < total into a validation error.
	RejectUnderpayment bool
	// Idempotency is optional; nil disables key replay.
	Idempotency idempotency.Store
}

// BillService prices a cart, works out the change and records the sale atomically.
type BillService struct {
	products  repository.ProductRepository
	denoms    repository.DenominationRepository
	purchases repository.PurchaseRepository
	tx        repository.TxManager
	validate  *validator.Validate
	opts      BillOptions
	now       func() time.Time
	keys      keyLocks
}

func NewBillService(
	products repository.ProductRepository,
	denoms repository.DenominationRepository,
	purchases repository.PurchaseRepository,
	tx repository.TxManager,
	opts BillOptions,
) *BillService {
	return &BillService{
		products:  products,
		denoms:    denoms,
		purchases: purchases,
		tx:        tx,
		validate:  validator.New(),
		opts:      opts,
		now:       time.Now,
		keys:      keyLocks{held: make(map[string]chan struct{})},
	}
}

func (s *BillService) validateRequest(req BillRequest) (BillRequest, error) {
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	if req.CustomerEmail == "" {
		return req, invalid("customer_email", "required")
	}
	if err := s.validate.Var(req.CustomerEmail, "email"); err != nil {
		return req, invalid("customer_email", "must be a valid email address")
	}
	if err := billing.ValidateItems(req.Items); err != nil {
		if errors.Is(err, billing.ErrNoItems) {
			return req, invalid("items", "at least one item is required")
		}
		return req, invalid("items", err.Error())
	}
	for i, it := range req.Items {
		if it.ProductID <= 0 {
			return req, invalid(fmt.Sprintf("items[%d].product_id", i), "must be positive")
		}
	}
	if req.CashPaid.GreaterThan(billing.MaxCashPaid) {
		return req, invalid("cash_paid", "exceeds "+billing.MaxCashPaid.String())
	}
	req.CashPaid = billing.Round2(req.CashPaid)
	return req, nil
}

// GenerateBill validates req, then in one transaction prices the items, dispenses
// change, stores the purchase and lowers stock. Change that cannot be made exactly
// does not fail the sale; the purchase records it and the drawer is left alone.
func (s *BillService) GenerateBill(ctx context.Context, req BillRequest) (*domain.Purchase, error) {
	req, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	var created *domain.Purchase
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		items, err := billing.PriceLines(ctx, s.products, req.Items)
		if err != nil {
			return err
		}
		inventory, err := s.denoms.ListDesc(ctx)
		if err != nil {
			return err
		}
		bill := billing.Compute(items, req.CashPaid, inventory)
		if s.opts.RejectUnderpayment && bill.Totals.Underpaid() {
			return invalid("cash_paid", fmt.Sprintf("%s does not cover total %s",
				bill.Totals.CashPaid.StringFixed(billing.Scale), bill.Totals.Total.StringFixed(billing.Scale)))
		}

		for _, n := range bill.Change.Dispensed {
			if err := s.denoms.Decrement(ctx, n.Value, n.Count); err != nil {
				return fmt.Errorf("dispense %d x %d: %w", n.Count, n.Value, err)
			}
		}

		p := domain.Purchase{
			CustomerEmail: req.CustomerEmail,
			CreatedAt:     s.now().UTC(),
			Subtotal:      bill.Totals.Subtotal,
			TaxTotal:      bill.Totals.TaxTotal,
			Total:         bill.Totals.Total,
			CashPaid:      bill.Totals.CashPaid,
			ChangeGiven:   bill.Totals.ChangeGiven(),
			Change:        bill.Change,
			Items:         bill.Items,
		}
		if err := s.purchases.Create(ctx, &p); err != nil {
			return err
		}

		for _, it := range bill.Items {
			if err := s.products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("product %d stock: %w", it.ProductID, err)
			}
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveBill(created.Change.Kind)
	if created.Change.IsInfeasible() {
		logx.Warn().
			Int64("purchase_id", created.ID).
			Str("change_given", created.ChangeGiven.StringFixed(billing.Scale)).
			Int64("remaining", created.Change.Remaining).
			Msg("exact change not possible")
	}
	logx.Info().
		Int64("purchase_id", created.ID).
		Str("total", created.Total.StringFixed(billing.Scale)).
		Str("change", string(created.Change.Kind)).
		Msg("bill generated")
	return created, nil
}

// GenerateBillOnce is GenerateBill keyed by a client Idempotency-Key. A key seen
// before replays the stored purchase and reports replayed=true.
func (s *BillService) GenerateBillOnce(ctx context.Context, key string, req BillRequest) (p *domain.Purchase, replayed bool, err error) {
	if s.opts.Idempotency == nil || key == "" {
		p, err = s.GenerateBill(ctx, req)
		return p, false, err
	}
	key, err = idempotency.NormalizeKey(key)
	if err != nil {
		return nil, false, invalid("Idempotency-Key", err.Error())
	}

	unlock := s.keys.lock(key)
	defer unlock()

	id, ok, err := s.opts.Idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		prev, err := s.purchases.GetByID(ctx, id)
		switch {
		case err == nil:
			return prev, true, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, false, err
		}
		// key outlived its purchase; drop it so the new sale can claim it
		if err := s.opts.Idempotency.Forget(ctx, key); err != nil {
			return nil, false, err
		}
	}

	p, err = s.GenerateBill(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if err := s.opts.Idempotency.Remember(ctx, key, p.ID); err != nil {
		// the sale is committed; a retry will sell again
		logx.Error().Err(err).Str("key", key).Int64("purchase_id", p.ID).Msg("idempotency remember failed")
	}
	return p, false, nil
}

// keyLocks serializes callers sharing a key within this process.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func (k *keyLocks) lock(key string) (unlock func()) {
	for {
		k.mu.Lock()
		wait, busy := k.held[key]
		if !busy {
			done := make(chan struct{})
			k.held[key] = done
			k.mu.Unlock()
			return func() {
				k.mu.Lock()
				delete(k.held, key)
				k.mu.Unlock()
				close(done)
			}
		}
		k.mu.Unlock()
		<-wait
	}
}

// PairItems zips the parallel product[] and qty[] form lists into bill items.
func PairItems(productIDs, quantities []string) ([]domain.BillItem, error) {
	if len(productIDs) != len(quantities) {
		return nil, invalid("items", "product and quantity lists differ in length")
	}
	if len(productIDs) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	items := make([]domain.BillItem, 0, len(productIDs))
	for i := range productIDs {
		id, err := strconv.ParseInt(strings.TrimSpace(productIDs[i]), 10, 64)
		if err != nil {
			return nil, invalid(fmt.Sprintf("product[%d]", i), "not a number")
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(quantities[i]), 10, 64)
		if err != nil {
			return nil, invalid(fmt.Sprintf("qty[%d]", i), "not a number")
		}
		items = append(items, domain.BillItem{ProductID: id, Quantity: qty})
	}
	return items, nil
}
