package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"billdesk/internal/domain"
)

// DemoProducts and DemoDenominations fill an empty store for local runs.
var (
	DemoProducts = []domain.Product{
		{Code: "RICE-5KG", Name: "Basmati rice 5kg", Price: decimal.RequireFromString("450.00"), TaxPercent: decimal.RequireFromString("5"), Stock: 40},
		{Code: "OIL-1L", Name: "Sunflower oil 1L", Price: decimal.RequireFromString("155.50"), TaxPercent: decimal.RequireFromString("12"), Stock: 60},
		{Code: "TEA-250", Name: "Assam tea 250g", Price: decimal.RequireFromString("120.00"), TaxPercent: decimal.RequireFromString("5"), Stock: 80},
		{Code: "SOAP-3", Name: "Soap pack of 3", Price: decimal.RequireFromString("99.99"), TaxPercent: decimal.RequireFromString("18"), Stock: 100},
	}
	DemoDenominations = []domain.Denomination{
		{Value: 500, Count: 10}, {Value: 200, Count: 10}, {Value: 100, Count: 20}, {Value: 50, Count: 20},
		{Value: 20, Count: 30}, {Value: 10, Count: 50}, {Value: 5, Count: 50}, {Value: 2, Count: 50}, {Value: 1, Count: 100},
	}
)

// Seed inserts the demo catalog and drawer. Products whose code already exists are skipped.
func Seed(ctx context.Context, products ProductRepository, denoms DenominationRepository) error {
	for _, p := range DemoProducts {
		cp := p
		if err := products.Create(ctx, &cp); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed product %s: %w", p.Code, err)
		}
	}
	existing, err := denoms.ListDesc(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, d := range DemoDenominations {
		if err := denoms.Upsert(ctx, d); err != nil {
			return fmt.Errorf("seed denomination %d: %w", d.Value, err)
		}
	}
	return nil
}
