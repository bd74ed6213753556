package service

import (
	"context"
	"strings"

	"billdesk/internal/domain"
	"billdesk/internal/repository"
)

// PurchaseService reads sale history.
type PurchaseService struct {
	repo repository.PurchaseRepository
}

func NewPurchaseService(repo repository.PurchaseRepository) *PurchaseService {
	return &PurchaseService{repo: repo}
}

func (s *PurchaseService) Get(ctx context.Context, id int64) (*domain.Purchase, error) {
	if id <= 0 {
		return nil, invalid("id", "must be positive")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns purchases newest first, optionally only those of one customer.
func (s *PurchaseService) List(ctx context.Context, email string) ([]domain.Purchase, error) {
	return s.repo.List(ctx, repository.PurchaseFilter{CustomerEmail: strings.TrimSpace(email)})
}
