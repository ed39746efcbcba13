package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/ports"
)

// BeneficiaryRepository implements ports.BeneficiaryRepository
type BeneficiaryRepository struct {
	items collection[entities.Beneficiary]
}

// newBeneficiaryRepository creates a new beneficiary repository
func newBeneficiaryRepository(b base) ports.BeneficiaryRepository {
	return &BeneficiaryRepository{items: collection[entities.Beneficiary]{
		base:     b,
		area:     entities.AreaBeneficiaries,
		id:       func(e *entities.Beneficiary) string { return e.ID },
		notFound: entities.ErrNotFound,
	}}
}

func (r *BeneficiaryRepository) List(ctx context.Context) ([]entities.Beneficiary, error) {
	return r.items.list()
}

// Register checks the email and appends under the same store lock, so two
// concurrent registrations of one address cannot both succeed
func (r *BeneficiaryRepository) Register(ctx context.Context, beneficiary *entities.Beneficiary) error {
	return r.items.commit(ctx, func(items *[]entities.Beneficiary) error {
		for _, existing := range *items {
			if strings.EqualFold(existing.Email, beneficiary.Email) {
				return fmt.Errorf("beneficiary %s: %w", beneficiary.Email, entities.ErrAlreadyExists)
			}
		}
		*items = append(*items, *beneficiary)
		return nil
	})
}

// CameraPointRepository implements ports.CameraPointRepository
type CameraPointRepository struct {
	items collection[entities.CameraPoint]
}

// newCameraPointRepository creates a new camera point repository
func newCameraPointRepository(b base) ports.CameraPointRepository {
	return &CameraPointRepository{items: collection[entities.CameraPoint]{
		base:     b,
		area:     entities.AreaCameraPoints,
		id:       func(e *entities.CameraPoint) string { return e.ID },
		notFound: entities.ErrNotFound,
	}}
}

func (r *CameraPointRepository) List(ctx context.Context) ([]entities.CameraPoint, error) {
	return r.items.list()
}

func (r *CameraPointRepository) Create(ctx context.Context, point *entities.CameraPoint) error {
	if err := r.items.add(ctx, point); err != nil {
		return fmt.Errorf("create camera point: %w", err)
	}
	return nil
}

// JournalRepository implements ports.JournalRepository
type JournalRepository struct {
	items collection[entities.JournalPost]
}

// newJournalRepository creates a new journal repository
func newJournalRepository(b base) ports.JournalRepository {
	return &JournalRepository{items: collection[entities.JournalPost]{
		base:     b,
		area:     entities.AreaJournalPosts,
		id:       func(e *entities.JournalPost) string { return e.ID },
		notFound: entities.ErrNotFound,
	}}
}

func (r *JournalRepository) List(ctx context.Context) ([]entities.JournalPost, error) {
	return r.items.list()
}

func (r *JournalRepository) Create(ctx context.Context, post *entities.JournalPost) error {
	if err := r.items.add(ctx, post); err != nil {
		return fmt.Errorf("create journal post: %w", err)
	}
	return nil
}

// MissionRepository implements ports.MissionRepository
type MissionRepository struct {
	items collection[entities.Mission]
}

// newMissionRepository creates a new mission repository
func newMissionRepository(b base) ports.MissionRepository {
	return &MissionRepository{items: collection[entities.Mission]{
		base:     b,
		area:     entities.AreaMissions,
		id:       func(e *entities.Mission) string { return e.ID },
		notFound: entities.ErrMissionNotFound,
	}}
}

func (r *MissionRepository) List(ctx context.Context) ([]entities.Mission, error) {
	return r.items.list()
}

func (r *MissionRepository) Create(ctx context.Context, mission *entities.Mission) error {
	if err := r.items.add(ctx, mission); err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	return nil
}

func (r *MissionRepository) Update(ctx context.Context, id string, fn func(*entities.Mission)) (*entities.Mission, error) {
	return r.items.update(ctx, id, func(m *entities.Mission) error {
		fn(m)
		return nil
	})
}

// RICRepository implements ports.RICRepository
type RICRepository struct {
	items collection[entities.RIC]
}

// newRICRepository creates a new referendum repository
func newRICRepository(b base) ports.RICRepository {
	return &RICRepository{items: collection[entities.RIC]{
		base:     b,
		area:     entities.AreaRICs,
		id:       func(e *entities.RIC) string { return e.ID },
		notFound: entities.ErrRICNotFound,
	}}
}

func (r *RICRepository) List(ctx context.Context) ([]entities.RIC, error) {
	return r.items.list()
}

func (r *RICRepository) Create(ctx context.Context, ric *entities.RIC) error {
	if err := r.items.add(ctx, ric); err != nil {
		return fmt.Errorf("create referendum: %w", err)
	}
	return nil
}

func (r *RICRepository) Update(ctx context.Context, id string, fn func(*entities.RIC) error) (*entities.RIC, error) {
	return r.items.update(ctx, id, fn)
}

// AffaireRepository implements ports.AffaireRepository
type AffaireRepository struct {
	base
}

// newAffaireRepository creates a new affaires repository
func newAffaireRepository(b base) ports.AffaireRepository {
	return &AffaireRepository{base: b}
}

func (r *AffaireRepository) Get(ctx context.Context) (*entities.Affaires, error) {
	affaires, err := jsonstore.Get[entities.Affaires](r.store, entities.AreaAffaires)
	if err != nil {
		return nil, fmt.Errorf("get affaires: %w", err)
	}
	return &affaires, nil
}

func (r *AffaireRepository) AddEvent(ctx context.Context, event *entities.AffaireEvent) error {
	err := apply(ctx, r.base, entities.AreaAffaires, func(a *entities.Affaires) error {
		a.Chronology = append(a.Chronology, *event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("add affaire event: %w", err)
	}
	return nil
}
