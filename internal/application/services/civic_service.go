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

const defaultMissionStatus = "À venir"

// CivicRepositories groups the repositories behind CivicService
type CivicRepositories struct {
	Beneficiaries ports.BeneficiaryRepository
	CameraPoints  ports.CameraPointRepository
	Journal       ports.JournalRepository
	Missions      ports.MissionRepository
	RICs          ports.RICRepository
	Affaires      ports.AffaireRepository
}

// CivicService handles the participative areas: beneficiaries, camera points,
// journal, missions, referendums and the case chronology
type CivicService struct {
	repos  CivicRepositories
	logger *logger.Logger
}

// NewCivicService creates a new civic service
func NewCivicService(repos CivicRepositories, logger *logger.Logger) *CivicService {
	return &CivicService{repos: repos, logger: logger}
}

func (s *CivicService) ListBeneficiaries(ctx context.Context) ([]entities.Beneficiary, error) {
	list, err := s.repos.Beneficiaries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	return list, nil
}

// RegisterBeneficiary fails with entities.ErrAlreadyExists for a known email
func (s *CivicService) RegisterBeneficiary(ctx context.Context, req ports.RegisterBeneficiaryRequest) (*entities.Beneficiary, error) {
	beneficiary := &entities.Beneficiary{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Email:            strings.TrimSpace(req.Email),
		RegistrationDate: time.Now().UTC(),
	}
	if req.CVScore != nil {
		beneficiary.CVScore = *req.CVScore
	}

	if err := s.repos.Beneficiaries.Register(ctx, beneficiary); err != nil {
		return nil, fmt.Errorf("failed to register beneficiary: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaBeneficiaries, "register", beneficiary.ID)
	return beneficiary, nil
}

func (s *CivicService) ListCameraPoints(ctx context.Context) ([]entities.CameraPoint, error) {
	list, err := s.repos.CameraPoints.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list camera points: %w", err)
	}
	return list, nil
}

func (s *CivicService) CreateCameraPoint(ctx context.Context, req ports.CreateCameraPointRequest) (*entities.CameraPoint, error) {
	point := &entities.CameraPoint{
		ID:        uuid.NewString(),
		Name:      req.Name,
		City:      req.City,
		Lat:       req.Lat,
		Lon:       req.Lon,
		Timestamp: req.Timestamp,
		VideoLink: req.VideoLink,
	}
	if point.Timestamp == "" {
		point.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if err := s.repos.CameraPoints.Create(ctx, point); err != nil {
		return nil, fmt.Errorf("failed to create camera point: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaCameraPoints, "create", point.ID, "city", point.City)
	return point, nil
}

func (s *CivicService) ListJournalPosts(ctx context.Context) ([]entities.JournalPost, error) {
	list, err := s.repos.Journal.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal posts: %w", err)
	}
	return list, nil
}

func (s *CivicService) CreateJournalPost(ctx context.Context, req ports.CreateJournalPostRequest) (*entities.JournalPost, error) {
	post := &entities.JournalPost{
		ID:      uuid.NewString(),
		Title:   req.Title,
		Media:   req.Media,
		Article: req.Content,
		Date:    time.Now().UTC(),
	}

	if err := s.repos.Journal.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create journal post: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaJournalPosts, "create", post.ID)
	return post, nil
}

func (s *CivicService) ListMissions(ctx context.Context) ([]entities.Mission, error) {
	list, err := s.repos.Missions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	return list, nil
}

func (s *CivicService) CreateMission(ctx context.Context, req ports.CreateMissionRequest) (*entities.Mission, error) {
	mission := &entities.Mission{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if mission.Status == "" {
		mission.Status = defaultMissionStatus
	}

	if err := s.repos.Missions.Create(ctx, mission); err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaMissions, "create", mission.ID)
	return mission, nil
}

func (s *CivicService) UpdateMission(ctx context.Context, id string, req ports.UpdateMissionRequest) (*entities.Mission, error) {
	mission, err := s.repos.Missions.Update(ctx, id, func(m *entities.Mission) {
		if req.Title != nil {
			m.Title = *req.Title
		}
		if req.Description != nil {
			m.Description = *req.Description
		}
		if req.Status != nil {
			m.Status = *req.Status
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update mission: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaMissions, "update", id, "status", mission.Status)
	return mission, nil
}

func (s *CivicService) ListRICs(ctx context.Context) ([]entities.RIC, error) {
	list, err := s.repos.RICs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referendums: %w", err)
	}
	return list, nil
}

func (s *CivicService) CreateRIC(ctx context.Context, req ports.CreateRICRequest) (*entities.RIC, error) {
	ric := &entities.RIC{
		ID:          uuid.NewString(),
		Question:    req.Question,
		Description: req.Description,
		Deadline:    req.Deadline,
		VoteMethod:  req.VoteMethod,
		Level:       req.Level,
		Locations:   req.Locations,
		Status:      entities.RICStatusActive,
	}

	if err := s.repos.RICs.Create(ctx, ric); err != nil {
		return nil, fmt.Errorf("failed to create referendum: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaRICs, "create", ric.ID)
	return ric, nil
}

// SetRICVotes overwrites the tallies and status provided in req
func (s *CivicService) SetRICVotes(ctx context.Context, id string, req ports.UpdateRICVotesRequest) (*entities.RIC, error) {
	ric, err := s.repos.RICs.Update(ctx, id, func(r *entities.RIC) error {
		if req.VotesFor != nil {
			r.VotesFor = *req.VotesFor
		}
		if req.VotesAgainst != nil {
			r.VotesAgainst = *req.VotesAgainst
		}
		if req.Status != nil {
			r.Status = *req.Status
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update referendum: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaRICs, "set_votes", id)
	return ric, nil
}

// VoteRIC counts one vote on an active referendum
func (s *CivicService) VoteRIC(ctx context.Context, id string, req ports.VoteRequest) (*entities.RIC, error) {
	ric, err := s.repos.RICs.Update(ctx, id, func(r *entities.RIC) error {
		if r.Status == entities.RICStatusClosed {
			return fmt.Errorf("%w: referendum is closed", entities.ErrInvalidOperation)
		}
		switch req.Choice {
		case "for":
			r.VotesFor++
		case "against":
			r.VotesAgainst++
		default:
			return fmt.Errorf("%w: unknown choice %q", entities.ErrInvalidOperation, req.Choice)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to vote: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaRICs, "vote", id, "choice", req.Choice)
	return ric, nil
}

func (s *CivicService) GetAffaires(ctx context.Context) (*entities.Affaires, error) {
	affaires, err := s.repos.Affaires.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get affaires: %w", err)
	}
	return affaires, nil
}

func (s *CivicService) AddAffaireEvent(ctx context.Context, req ports.CreateAffaireEventRequest) (*entities.AffaireEvent, error) {
	event := &entities.AffaireEvent{
		ID:          uuid.NewString(),
		Date:        req.Date,
		Title:       req.Title,
		Description: req.Description,
		Source:      req.Source,
	}

	if err := s.repos.Affaires.AddEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to add affaire event: %w", err)
	}

	s.logger.LogAreaChange(entities.AreaAffaires, "add_event", event.ID)
	return event, nil
}
