package ports

import (
	"context"

	"github.com/mobilize/core/internal/domain/entities"
)

// AuthService interface for operator authentication
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	IssueToken(subject string) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// FlowService interface for financial flow operations
type FlowService interface {
	ListFlows(ctx context.Context) ([]entities.FinancialFlow, error)
	CreateFlow(ctx context.Context, req CreateFlowRequest) (*entities.FinancialFlow, error)
	UpdateFlow(ctx context.Context, id string, req UpdateFlowRequest) (*entities.FinancialFlow, error)
	DeleteFlow(ctx context.Context, id string) error
}

// BoycottService interface for boycott list operations
type BoycottService interface {
	ListBoycotts(ctx context.Context) ([]entities.Boycott, error)
	CreateBoycott(ctx context.Context, req CreateBoycottRequest) (*entities.Boycott, error)
	UpdateBoycott(ctx context.Context, id string, req UpdateBoycottRequest) (*entities.Boycott, error)
	DeleteBoycott(ctx context.Context, id string) error
}

// TaxService interface for tax operations
type TaxService interface {
	ListTaxes(ctx context.Context) ([]entities.Tax, error)
	CreateTax(ctx context.Context, req CreateTaxRequest) (*entities.Tax, error)
}

// TreasuryService interface for the strike fund and the simulated ledger
type TreasuryService interface {
	GetCaisse(ctx context.Context) (*entities.Caisse, error)
	GetLedger(ctx context.Context) (*entities.Ledger, error)
	RecordTransaction(ctx context.Context, req CaisseTransactionRequest) (*entities.CaisseTransaction, error)
	RecordBlock(ctx context.Context, req BlockchainTransactionRequest) (*entities.BlockchainTransaction, error)
	ReceiveFunds(ctx context.Context, req ReceiveFundsRequest) (*entities.BlockchainTransaction, error)
	SimulateDisbursement(ctx context.Context) (*entities.Allocation, error)
}

// CivicService interface for the participative areas of the movement
type CivicService interface {
	ListBeneficiaries(ctx context.Context) ([]entities.Beneficiary, error)
	RegisterBeneficiary(ctx context.Context, req RegisterBeneficiaryRequest) (*entities.Beneficiary, error)
	ListCameraPoints(ctx context.Context) ([]entities.CameraPoint, error)
	CreateCameraPoint(ctx context.Context, req CreateCameraPointRequest) (*entities.CameraPoint, error)
	ListJournalPosts(ctx context.Context) ([]entities.JournalPost, error)
	CreateJournalPost(ctx context.Context, req CreateJournalPostRequest) (*entities.JournalPost, error)
	ListMissions(ctx context.Context) ([]entities.Mission, error)
	CreateMission(ctx context.Context, req CreateMissionRequest) (*entities.Mission, error)
	UpdateMission(ctx context.Context, id string, req UpdateMissionRequest) (*entities.Mission, error)
	ListRICs(ctx context.Context) ([]entities.RIC, error)
	CreateRIC(ctx context.Context, req CreateRICRequest) (*entities.RIC, error)
	SetRICVotes(ctx context.Context, id string, req UpdateRICVotesRequest) (*entities.RIC, error)
	VoteRIC(ctx context.Context, id string, req VoteRequest) (*entities.RIC, error)
	GetAffaires(ctx context.Context) (*entities.Affaires, error)
	AddAffaireEvent(ctx context.Context, req CreateAffaireEventRequest) (*entities.AffaireEvent, error)
}

// DashboardService interface for aggregated counters
type DashboardService interface {
	Summary(ctx context.Context) (*entities.DashboardSummary, error)
}

// Request/Response Types

// Auth related types
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
}

// Financial flow related types
type CreateFlowRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Description     string  `json:"description" validate:"omitempty,max=2000"`
	Type            string  `json:"type" validate:"omitempty,max=100"`
	IsSuspicious    bool    `json:"is_suspicious"`
	IsVATApplicable bool    `json:"isVatApplicable"`

	// Extra holds the body fields not listed above; they are stored with the flow
	Extra *entities.Extra `json:"-"`
}

// UnmarshalJSON keeps the fields of the body the request does not model
func (r *CreateFlowRequest) UnmarshalJSON(data []byte) error {
	type plain CreateFlowRequest
	extra, err := entities.UnmarshalRecord(data, (*plain)(r))
	r.Extra = extra
	return err
}

type UpdateFlowRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=200"`
	Amount       *float64 `json:"amount" validate:"omitempty,gt=0"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
	Type         *string  `json:"type" validate:"omitempty,max=100"`
	IsSuspicious *bool    `json:"is_suspicious"`
}

// Boycott related types
type CreateBoycottRequest struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Type        string              `json:"type" validate:"omitempty,max=100"`
	Description string              `json:"description" validate:"omitempty,max=2000"`
	TaxID       string              `json:"tax_id" validate:"omitempty,max=100"`
	Locations   []entities.Location `json:"locations" validate:"omitempty,dive"`
}

type UpdateBoycottRequest struct {
	Name        *string             `json:"name" validate:"omitempty,max=200"`
	Type        *string             `json:"type" validate:"omitempty,max=100"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	TaxID       *string             `json:"tax_id" validate:"omitempty,max=100"`
	Locations   []entities.Location `json:"locations" validate:"omitempty,dive"`
}

// Tax related types
type CreateTaxRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Description  string  `json:"description" validate:"omitempty,max=2000"`
	Rate         float64 `json:"rate" validate:"gte=0,lte=1"`
	ApplicableTo string  `json:"applicable_to" validate:"required,max=100"`
}

// Treasury related types
type CaisseTransactionRequest struct {
	Type        entities.CaisseTransactionType `json:"type" validate:"required,oneof=entrée sortie"`
	Montant     float64                        `json:"montant" validate:"required,gt=0"`
	Description string                         `json:"description" validate:"omitempty,max=500"`
}

type BlockchainTransactionRequest struct {
	Type        string  `json:"type" validate:"required,max=100"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	From        string  `json:"from" validate:"omitempty,max=200"`
	To          string  `json:"to" validate:"omitempty,max=200"`
	Description string  `json:"description" validate:"omitempty,max=500"`
}

type ReceiveFundsRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Civic related types
type RegisterBeneficiaryRequest struct {
	Name    string   `json:"name" validate:"required,max=200"`
	Email   string   `json:"email" validate:"required,email"`
	CVScore *float64 `json:"cv_score" validate:"required"`
}

type CreateCameraPointRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	City      string  `json:"city" validate:"required,max=200"`
	Lat       float64 `json:"lat" validate:"required,latitude"`
	Lon       float64 `json:"lon" validate:"required,longitude"`
	Timestamp string  `json:"timestamp"`
	VideoLink *string `json:"video_link" validate:"omitempty,url"`
}

type CreateJournalPostRequest struct {
	Title   string `json:"title" validate:"required,max=300"`
	Content string `json:"content" validate:"required"`
	Media   string `json:"media" validate:"required"`
}

type CreateMissionRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Status      string `json:"status" validate:"omitempty,max=50"`
}

type UpdateMissionRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,max=50"`
}

type CreateRICRequest struct {
	Question    string   `json:"question" validate:"required,max=500"`
	Description string   `json:"description" validate:"omitempty,max=5000"`
	Deadline    string   `json:"deadline"`
	VoteMethod  string   `json:"voteMethod" validate:"omitempty,max=100"`
	Level       string   `json:"level" validate:"omitempty,max=100"`
	Locations   []string `json:"locations"`
}

type UpdateRICVotesRequest struct {
	VotesFor     *int    `json:"votes_for" validate:"omitempty,gte=0"`
	VotesAgainst *int    `json:"votes_against" validate:"omitempty,gte=0"`
	Status       *string `json:"status" validate:"omitempty,oneof=active closed"`
}

type VoteRequest struct {
	Choice string `json:"choice" validate:"required,oneof=for against"`
}

type CreateAffaireEventRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Date        string `json:"date"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Source      string `json:"source" validate:"omitempty,max=500"`
}
