package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// FlowService handles financial flow operations
type FlowService struct {
	flowRepo    ports.FlowRepository
	boycottRepo ports.BoycottRepository
	taxRepo     ports.TaxRepository
	treasury    ports.TreasuryService
	logger      *logger.Logger
}

// NewFlowService creates a new financial flow service
func NewFlowService(flowRepo ports.FlowRepository, boycottRepo ports.BoycottRepository, taxRepo ports.TaxRepository, treasury ports.TreasuryService, logger *logger.Logger) *FlowService {
	return &FlowService{
		flowRepo:    flowRepo,
		boycottRepo: boycottRepo,
		taxRepo:     taxRepo,
		treasury:    treasury,
		logger:      logger,
	}
}

// TaxAmount sums amount × rate over the taxes levied on financial flows
func TaxAmount(amount float64, taxes []entities.Tax) float64 {
	var total float64
	for _, tax := range taxes {
		if tax.ApplicableTo == entities.TaxTargetFinancialFlows {
			total += amount * tax.Rate
		}
	}
	return total
}

func taxRate(taxes []entities.Tax, id string) float64 {
	for _, tax := range taxes {
		if tax.ID == id {
			return tax.Rate
		}
	}
	return 0
}

// ListFlows returns every recorded flow
func (s *FlowService) ListFlows(ctx context.Context) ([]entities.FinancialFlow, error) {
	flows, err := s.flowRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial flows: %w", err)
	}
	return flows, nil
}

// CreateFlow records a flow with its tax amount. A flow towards a boycotted entity
// sends its VAT share to the treasury.
func (s *FlowService) CreateFlow(ctx context.Context, req ports.CreateFlowRequest) (*entities.FinancialFlow, error) {
	taxes, err := s.taxRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxes: %w", err)
	}

	flow := &entities.FinancialFlow{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Amount:          req.Amount,
		Description:     req.Description,
		Type:            req.Type,
		IsSuspicious:    req.IsSuspicious,
		IsVATApplicable: req.IsVATApplicable,
		TaxAmount:       TaxAmount(req.Amount, taxes),
		Timestamp:       time.Now().UTC(),
		Extra:           req.Extra.Unmodelled(),
	}

	boycotted, err := s.isBoycotted(ctx, flow.Name)
	if err != nil {
		return nil, err
	}

	if boycotted {
		vat := flow.Amount * taxRate(taxes, entities.TaxVAT)
		_, err := s.treasury.ReceiveFunds(ctx, ports.ReceiveFundsRequest{Amount: vat})
		if err != nil {
			s.logger.Errorw("Failed to reallocate VAT of boycotted flow", "flow_id", flow.ID, "amount", vat, "error", err)
			flow.BlockchainStatus = entities.BlockchainVATFailed
		} else {
			s.logger.Infow("VAT of boycotted flow sent to the treasury", "flow_id", flow.ID, "amount", vat)
			flow.BlockchainStatus = entities.BlockchainVATAllocated
		}
	}

	if err := s.flowRepo.Create(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to create financial flow: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaFinancialFlows, "create", flow.ID, "name", flow.Name, "boycotted", boycotted)
	return flow, nil
}

func (s *FlowService) isBoycotted(ctx context.Context, name string) (bool, error) {
	boycotts, err := s.boycottRepo.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load boycotts: %w", err)
	}
	for _, b := range boycotts {
		if strings.EqualFold(b.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// UpdateFlow merges the provided fields into a flow
func (s *FlowService) UpdateFlow(ctx context.Context, id string, req ports.UpdateFlowRequest) (*entities.FinancialFlow, error) {
	flow, err := s.flowRepo.Update(ctx, id, func(f *entities.FinancialFlow) {
		if req.Name != nil {
			f.Name = *req.Name
		}
		if req.Amount != nil {
			f.Amount = *req.Amount
		}
		if req.Description != nil {
			f.Description = *req.Description
		}
		if req.Type != nil {
			f.Type = *req.Type
		}
		if req.IsSuspicious != nil {
			f.IsSuspicious = *req.IsSuspicious
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update financial flow: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaFinancialFlows, "update", id)
	return flow, nil
}

// DeleteFlow removes a flow
func (s *FlowService) DeleteFlow(ctx context.Context, id string) error {
	if err := s.flowRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete financial flow: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaFinancialFlows, "delete", id)
	return nil
}
