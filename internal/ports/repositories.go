package ports

import (
	"context"
	"encoding/json"

	"github.com/mobilize/core/internal/domain/entities"
)

// FlowRepository defines the interface for financial flow data operations
type FlowRepository interface {
	List(ctx context.Context) ([]entities.FinancialFlow, error)
	GetByID(ctx context.Context, id string) (*entities.FinancialFlow, error)
	Create(ctx context.Context, flow *entities.FinancialFlow) error
	Update(ctx context.Context, id string, fn func(*entities.FinancialFlow)) (*entities.FinancialFlow, error)
	Delete(ctx context.Context, id string) error
}

// BoycottRepository defines the interface for boycott list operations
type BoycottRepository interface {
	List(ctx context.Context) ([]entities.Boycott, error)
	Create(ctx context.Context, boycott *entities.Boycott) error
	Update(ctx context.Context, id string, fn func(*entities.Boycott)) (*entities.Boycott, error)
	Delete(ctx context.Context, id string) error
}

// TaxRepository defines the interface for tax data operations
type TaxRepository interface {
	List(ctx context.Context) ([]entities.Tax, error)
	Create(ctx context.Context, tax *entities.Tax) error
}

// TreasuryRepository covers the strike fund and the simulated ledger
type TreasuryRepository interface {
	Caisse(ctx context.Context) (*entities.Caisse, error)
	Ledger(ctx context.Context) (*entities.Ledger, error)
	RecordTransaction(ctx context.Context, tx entities.CaisseTransaction) (*entities.Caisse, error)
	AppendBlock(ctx context.Context, tx entities.BlockchainTransaction) error
	// ReceiveFunds records the ledger entry and credits the fund as one persisted change
	ReceiveFunds(ctx context.Context, tx entities.BlockchainTransaction) (*entities.Caisse, error)
}

// BeneficiaryRepository defines the interface for beneficiary data operations
type BeneficiaryRepository interface {
	List(ctx context.Context) ([]entities.Beneficiary, error)
	// Register fails with entities.ErrAlreadyExists when the email is already registered
	Register(ctx context.Context, beneficiary *entities.Beneficiary) error
}

// CameraPointRepository defines the interface for camera point data operations
type CameraPointRepository interface {
	List(ctx context.Context) ([]entities.CameraPoint, error)
	Create(ctx context.Context, point *entities.CameraPoint) error
}

// JournalRepository defines the interface for journal data operations
type JournalRepository interface {
	List(ctx context.Context) ([]entities.JournalPost, error)
	Create(ctx context.Context, post *entities.JournalPost) error
}

// MissionRepository defines the interface for mission data operations
type MissionRepository interface {
	List(ctx context.Context) ([]entities.Mission, error)
	Create(ctx context.Context, mission *entities.Mission) error
	Update(ctx context.Context, id string, fn func(*entities.Mission)) (*entities.Mission, error)
}

// RICRepository defines the interface for referendum data operations
type RICRepository interface {
	List(ctx context.Context) ([]entities.RIC, error)
	Create(ctx context.Context, ric *entities.RIC) error
	Update(ctx context.Context, id string, fn func(*entities.RIC) error) (*entities.RIC, error)
}

// AffaireRepository defines the interface for the case chronology
type AffaireRepository interface {
	Get(ctx context.Context) (*entities.Affaires, error)
	AddEvent(ctx context.Context, event *entities.AffaireEvent) error
}

// ReferenceRepository exposes areas served as stored, without a typed model
type ReferenceRepository interface {
	Raw(ctx context.Context, area string) (json.RawMessage, error)
	Count(ctx context.Context, area string) (int, error)
	Items(ctx context.Context, area string) ([]map[string]interface{}, error)
	Snapshot(ctx context.Context) ([]byte, error)
}
