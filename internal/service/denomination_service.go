package service

import (
	"context"

	"billdesk/internal/domain"
	"billdesk/internal/repository"
)

// DenominationService manages the cash drawer.
type DenominationService struct {
	repo repository.DenominationRepository
}

func NewDenominationService(repo repository.DenominationRepository) *DenominationService {
	return &DenominationService{repo: repo}
}

// List returns the drawer highest value first.
func (s *DenominationService) List(ctx context.Context) ([]domain.Denomination, error) {
	return s.repo.ListDesc(ctx)
}

// SetCount sets how many notes of value are on hand, adding the denomination if it is new.
func (s *DenominationService) SetCount(ctx context.Context, value, count int64) (*domain.Denomination, error) {
	if value <= 0 {
		return nil, invalid("value", "must be a positive whole amount")
	}
	if count < 0 {
		return nil, invalid("count", "must not be negative")
	}
	d := domain.Denomination{Value: value, Count: count}
	if err := s.repo.Upsert(ctx, d); err != nil {
		return nil, err
	}
	return &d, nil
}
