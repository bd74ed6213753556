package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"billdesk/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrInsufficientDenomination is returned when a decrement would drive a count below zero.
	ErrInsufficientDenomination = errors.New("insufficient denomination count")
	// ErrDuplicate is returned on a product code or denomination value clash.
	ErrDuplicate = errors.New("duplicate")
)

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
}

// PurchaseFilter narrows purchase history. Empty email means all purchases.
type PurchaseFilter struct {
	CustomerEmail string
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	// DecrementStock lowers stock by qty, stopping at zero.
	DecrementStock(ctx context.Context, id int64, qty int64) error
}

// DenominationRepository holds the cash drawer inventory.
type DenominationRepository interface {
	// ListDesc returns denominations ordered by value, highest first.
	ListDesc(ctx context.Context) ([]domain.Denomination, error)
	Upsert(ctx context.Context, d domain.Denomination) error
	Decrement(ctx context.Context, value int64, count int64) error
}

// PurchaseRepository stores sale records together with their line items.
type PurchaseRepository interface {
	Create(ctx context.Context, p *domain.Purchase) error
	GetByID(ctx context.Context, id int64) (*domain.Purchase, error)
	// List returns purchases newest first.
	List(ctx context.Context, f PurchaseFilter) ([]domain.Purchase, error)
}

// TxManager абстракция транзакции. Either every write made through ctx inside fn
// is kept, or none is.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matchesProduct(p domain.Product, f ProductFilter) bool {
	if !containsIgnoreCase(p.Name, f.NameSubstring) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}
