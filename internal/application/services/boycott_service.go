package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// BoycottService handles boycott list operations
type BoycottService struct {
	boycottRepo ports.BoycottRepository
	logger      *logger.Logger
}

// NewBoycottService creates a new boycott service
func NewBoycottService(boycottRepo ports.BoycottRepository, logger *logger.Logger) *BoycottService {
	return &BoycottService{
		boycottRepo: boycottRepo,
		logger:      logger,
	}
}

func (s *BoycottService) ListBoycotts(ctx context.Context) ([]entities.Boycott, error) {
	boycotts, err := s.boycottRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boycotts: %w", err)
	}
	return boycotts, nil
}

func (s *BoycottService) CreateBoycott(ctx context.Context, req ports.CreateBoycottRequest) (*entities.Boycott, error) {
	boycott := &entities.Boycott{
		ID:          "ent_" + uuid.NewString(),
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		TaxID:       req.TaxID,
		Locations:   req.Locations,
	}

	if err := s.boycottRepo.Create(ctx, boycott); err != nil {
		return nil, fmt.Errorf("failed to create boycott: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaBoycotts, "create", boycott.ID, "name", boycott.Name)
	return boycott, nil
}

// UpdateBoycott merges the provided fields into an entity
func (s *BoycottService) UpdateBoycott(ctx context.Context, id string, req ports.UpdateBoycottRequest) (*entities.Boycott, error) {
	boycott, err := s.boycottRepo.Update(ctx, id, func(b *entities.Boycott) {
		if req.Name != nil {
			b.Name = *req.Name
		}
		if req.Type != nil {
			b.Type = *req.Type
		}
		if req.Description != nil {
			b.Description = *req.Description
		}
		if req.TaxID != nil {
			b.TaxID = *req.TaxID
		}
		if req.Locations != nil {
			b.Locations = req.Locations
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update boycott: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaBoycotts, "update", id)
	return boycott, nil
}

func (s *BoycottService) DeleteBoycott(ctx context.Context, id string) error {
	if err := s.boycottRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete boycott: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaBoycotts, "delete", id)
	return nil
}
