package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"billdesk/internal/domain"
)

var (
	ErrNoItems         = errors.New("no items")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// ProductLookup resolves a catalog entry by id.
type ProductLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// ValidateItems rejects an empty cart and non-positive quantities.
func ValidateItems(items []domain.BillItem) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for i, it := range items {
		if it.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
	}
	return nil
}

// PriceLine prices qty units of p using its current price and tax rate.
func PriceLine(p domain.Product, qty int64) domain.PurchaseItem {
	unit := Round2(p.Price)
	subtotal := Round2(unit.Mul(decimal.NewFromInt(qty)))
	tax := Round2(subtotal.Mul(p.TaxPercent).Div(hundred))
	return domain.PurchaseItem{
		ProductID:    p.ID,
		ProductCode:  p.Code,
		ProductName:  p.Name,
		Quantity:     qty,
		UnitPrice:    unit,
		TaxPercent:   p.TaxPercent,
		LineSubtotal: subtotal,
		LineTax:      tax,
		LineTotal:    Round2(subtotal.Add(tax)),
	}
}

// PriceLines resolves every item through products and prices it, keeping cart order.
func PriceLines(ctx context.Context, products ProductLookup, items []domain.BillItem) ([]domain.PurchaseItem, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}
	out := make([]domain.PurchaseItem, 0, len(items))
	for _, it := range items {
		p, err := products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, err)
		}
		out = append(out, PriceLine(*p, it.Quantity))
	}
	return out, nil
}
