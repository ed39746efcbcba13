package entities

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Not found errors per area; each wraps ErrNotFound
var (
	ErrFlowNotFound    = fmt.Errorf("financial flow %w", ErrNotFound)
	ErrBoycottNotFound = fmt.Errorf("boycott entity %w", ErrNotFound)
	ErrRICNotFound     = fmt.Errorf("referendum %w", ErrNotFound)
	ErrMissionNotFound = fmt.Errorf("mission %w", ErrNotFound)
)

// Domain areas: the top-level keys of the store document
const (
	AreaFinancialFlows      = "financial_flows"
	AreaAffaires            = "affaires"
	AreaRICs                = "rics"
	AreaTaxes               = "taxes"
	AreaBoycotts            = "boycotts"
	AreaEntities            = "entities"
	AreaCaisse              = "caisse_manifestation"
	AreaBlockchain          = "blockchain"
	AreaPolls               = "polls"
	AreaOrganizers          = "organizers"
	AreaBeneficiaries       = "beneficiaries"
	AreaCVContracts         = "cv_contracts"
	AreaCameraPoints        = "cameras_points"
	AreaJournalPosts        = "journal_posts"
	AreaMissions            = "missions"
	AreaDemocratiePosts     = "democratie_posts"
	AreaPrefectures         = "prefectures"
	AreaMairies             = "mairies"
	AreaRoundaboutPoints    = "roundabout_points"
	AreaPortePoints         = "porte_points"
	AreaStrategicLocations  = "strategic_locations"
	AreaSyndicats           = "syndicats"
	AreaTelecoms            = "telecoms"
	AreaTelegramGroups      = "telegram_groups"
	AreaManifestationPoints = "manifestation_points"
)

// Well-known tax identifiers
const (
	TaxTFA        = "tax_tfa"
	TaxProduction = "tax_production"
	TaxVAT        = "tax_vat"
	TaxCampaign   = "tax_campaign"

	// TaxTargetFinancialFlows marks taxes levied on every recorded financial flow
	TaxTargetFinancialFlows = "financial_flows"
)

// Blockchain status values set on boycotted financial flows
const (
	BlockchainVATAllocated = "TVA_AFFECTEE"
	BlockchainVATFailed    = "ECHEC_AFFECTATION"
)

// CaisseTransactionType is the direction of a treasury movement
type CaisseTransactionType string

const (
	CaisseIn  CaisseTransactionType = "entrée"
	CaisseOut CaisseTransactionType = "sortie"
)

// RIC status values
const (
	RICStatusActive = "active"
	RICStatusClosed = "closed"
)

// FinancialFlow is a recorded money movement towards a named entity
type FinancialFlow struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Amount           float64   `json:"amount"`
	Description      string    `json:"description,omitempty"`
	Type             string    `json:"type,omitempty"`
	IsSuspicious     bool      `json:"is_suspicious"`
	IsVATApplicable  bool      `json:"isVatApplicable,omitempty"`
	TaxAmount        float64   `json:"tax_amount"`
	BlockchainStatus string    `json:"blockchain_status,omitempty"`
	Timestamp        time.Time `json:"timestamp"`

	Extra *Extra `json:"-"`
}

// Tax is a levy modelled on some category of transactions
type Tax struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Rate         float64 `json:"rate"`
	ApplicableTo string  `json:"applicable_to"`

	Extra *Extra `json:"-"`
}

// Location is a geographic point attached to an entity
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Address string  `json:"address,omitempty"`

	Extra *Extra `json:"-"`
}

// Boycott is an entity the movement calls to boycott
type Boycott struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type,omitempty"`
	Description string     `json:"description,omitempty"`
	TaxID       string     `json:"tax_id,omitempty"`
	Locations   []Location `json:"locations,omitempty"`

	Extra *Extra `json:"-"`
}

// CaisseTransaction is one movement of the strike fund
type CaisseTransaction struct {
	ID          string                `json:"id"`
	Type        CaisseTransactionType `json:"type"`
	Montant     float64               `json:"montant"`
	Description string                `json:"description,omitempty"`
	Date        time.Time             `json:"date"`

	Extra *Extra `json:"-"`
}

// Caisse is the strike fund: a balance and its movements
type Caisse struct {
	Solde        float64             `json:"solde"`
	Transactions []CaisseTransaction `json:"transactions"`

	Extra *Extra `json:"-"`
}

// Normalize keeps the transactions list encoded as an array
func (c *Caisse) Normalize() {
	if c.Transactions == nil {
		c.Transactions = []CaisseTransaction{}
	}
}

// Apply records a transaction and moves the balance accordingly
func (c *Caisse) Apply(tx CaisseTransaction) {
	c.Transactions = append(c.Transactions, tx)
	if tx.Type == CaisseIn {
		c.Solde += tx.Montant
	} else {
		c.Solde -= tx.Montant
	}
}

// BlockchainTransaction is an entry of the simulated smart-contract ledger
type BlockchainTransaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Description string    `json:"description,omitempty"`
	Hash        string    `json:"hash"`
	Timestamp   time.Time `json:"timestamp"`

	Extra *Extra `json:"-"`
}

// Ledger is the simulated smart-contract ledger
type Ledger struct {
	Transactions []BlockchainTransaction `json:"transactions"`

	Extra *Extra `json:"-"`
}

// Normalize keeps the transactions list encoded as an array
func (l *Ledger) Normalize() {
	if l.Transactions == nil {
		l.Transactions = []BlockchainTransaction{}
	}
}

// Beneficiary is a citizen registered for allocations
type Beneficiary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	CVScore          float64   `json:"cv_score"`
	RegistrationDate time.Time `json:"registration_date"`

	Extra *Extra `json:"-"`
}

// CameraPoint is a reported surveillance camera or live stream location
type CameraPoint struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Timestamp string  `json:"timestamp"`
	VideoLink *string `json:"video_link"`

	Extra *Extra `json:"-"`
}

// JournalPost is an article of the movement's journal
type JournalPost struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Media   string    `json:"media"`
	Article string    `json:"article"`
	Date    time.Time `json:"date"`

	Extra *Extra `json:"-"`
}

// Mission is a volunteer task
type Mission struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`

	Extra *Extra `json:"-"`
}

// RIC is a citizens' initiative referendum
type RIC struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	Description  string   `json:"description,omitempty"`
	Deadline     string   `json:"deadline,omitempty"`
	VoteMethod   string   `json:"voteMethod,omitempty"`
	Level        string   `json:"level,omitempty"`
	Locations    []string `json:"locations,omitempty"`
	VotesFor     int      `json:"votes_for"`
	VotesAgainst int      `json:"votes_against"`
	Status       string   `json:"status"`

	Extra *Extra `json:"-"`
}

// AffaireEvent is one dated event in the chronology of a case
type AffaireEvent struct {
	ID          string `json:"id"`
	Date        string `json:"date,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`

	Extra *Extra `json:"-"`
}

// Affaires holds the chronology of investigated cases
type Affaires struct {
	Chronology []AffaireEvent `json:"chronology"`

	Extra *Extra `json:"-"`
}

// Normalize keeps the chronology encoded as an array
func (a *Affaires) Normalize() {
	if a.Chronology == nil {
		a.Chronology = []AffaireEvent{}
	}
}

// DashboardSummary aggregates counters shown on the dashboard
type DashboardSummary struct {
	TotalTransactions         int     `json:"totalTransactions"`
	ActiveAlerts              int     `json:"activeAlerts"`
	RiskyEntities             int     `json:"riskyEntities"`
	CaisseSolde               float64 `json:"caisseSolde"`
	BoycottCount              int     `json:"boycottCount"`
	RICCount                  int     `json:"ricCount"`
	BeneficiaryCount          int     `json:"beneficiaryCount"`
	MonthlyAllocation         float64 `json:"monthlyAllocation"`
	PrefectureCount           int     `json:"prefectureCount"`
	TelegramGroupCount        int     `json:"telegramGroupCount"`
	EstimatedManifestantCount int     `json:"estimatedManifestantCount"`
	MairiesCount              int     `json:"mairiesCount"`
	RoundaboutCount           int     `json:"roundaboutCount"`
	UniversityCount           int     `json:"universityCount"`
	CarrefourCount            int     `json:"carrefourCount"`
	BankCount                 int     `json:"bankCount"`
	TVACommerceCount          int     `json:"tvaCommerceCount"`
}

// Allocation is the outcome of a simulated disbursement
type Allocation struct {
	Solde            float64 `json:"solde"`
	BeneficiaryCount int     `json:"beneficiaryCount"`
	PerBeneficiary   float64 `json:"perBeneficiary"`
	Message          string  `json:"message"`
}
