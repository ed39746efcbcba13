package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// TaxService handles tax operations
type TaxService struct {
	taxRepo ports.TaxRepository
	logger  *logger.Logger
}

// NewTaxService creates a new tax service
func NewTaxService(taxRepo ports.TaxRepository, logger *logger.Logger) *TaxService {
	return &TaxService{taxRepo: taxRepo, logger: logger}
}

func (s *TaxService) ListTaxes(ctx context.Context) ([]entities.Tax, error) {
	taxes, err := s.taxRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list taxes: %w", err)
	}
	return taxes, nil
}

func (s *TaxService) CreateTax(ctx context.Context, req ports.CreateTaxRequest) (*entities.Tax, error) {
	tax := &entities.Tax{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Rate:         req.Rate,
		ApplicableTo: req.ApplicableTo,
	}

	if err := s.taxRepo.Create(ctx, tax); err != nil {
		return nil, fmt.Errorf("failed to create tax: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaTaxes, "create", tax.ID, "applicable_to", tax.ApplicableTo)
	return tax, nil
}
