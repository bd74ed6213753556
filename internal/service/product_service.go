package service

import (
	"context"
	"strings"

	"billdesk/internal/billing"
	"billdesk/internal/domain"
	"billdesk/internal/repository"
)

// ProductService инкапсулирует бизнес-логику вокруг товаров
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// normalizeProduct trims text fields, rounds money to two places and checks ranges.
func normalizeProduct(p domain.Product) (domain.Product, error) {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Code == "":
		return p, invalid("code", "required")
	case p.Name == "":
		return p, invalid("name", "required")
	case p.Price.IsNegative():
		return p, invalid("price", "must not be negative")
	case p.TaxPercent.IsNegative():
		return p, invalid("tax_percent", "must not be negative")
	case p.Stock < 0:
		return p, invalid("stock", "must not be negative")
	}
	p.Price = billing.Round2(p.Price)
	p.TaxPercent = billing.Round2(p.TaxPercent)
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	cp, err := normalizeProduct(p)
	if err != nil {
		return nil, err
	}
	cp.ID = 0
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, invalid("id", "must be positive")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID <= 0 {
		return nil, invalid("id", "must be positive")
	}
	cp, err := normalizeProduct(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalid("id", "must be positive")
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, invalid("min_price", "greater than max_price")
	}
	return s.repo.List(ctx, f)
}
