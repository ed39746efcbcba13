package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

const (
	blockTypeReceiveFunds = "recevoirFonds"
	disbursementMessage   = "Décaissement des allocations en cours..."
)

// TreasuryService handles the strike fund and the simulated smart-contract ledger
type TreasuryService struct {
	treasuryRepo    ports.TreasuryRepository
	beneficiaryRepo ports.BeneficiaryRepository
	logger          *logger.Logger
}

// NewTreasuryService creates a new treasury service
func NewTreasuryService(treasuryRepo ports.TreasuryRepository, beneficiaryRepo ports.BeneficiaryRepository, logger *logger.Logger) *TreasuryService {
	return &TreasuryService{
		treasuryRepo:    treasuryRepo,
		beneficiaryRepo: beneficiaryRepo,
		logger:          logger,
	}
}

func (s *TreasuryService) GetCaisse(ctx context.Context) (*entities.Caisse, error) {
	caisse, err := s.treasuryRepo.Caisse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get caisse: %w", err)
	}
	return caisse, nil
}

func (s *TreasuryService) GetLedger(ctx context.Context) (*entities.Ledger, error) {
	ledger, err := s.treasuryRepo.Ledger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return ledger, nil
}

// RecordTransaction adds an entrée to the balance or subtracts a sortie from it
func (s *TreasuryService) RecordTransaction(ctx context.Context, req ports.CaisseTransactionRequest) (*entities.CaisseTransaction, error) {
	if req.Montant <= 0 {
		return nil, entities.ErrInvalidAmount
	}
	if req.Type != entities.CaisseIn && req.Type != entities.CaisseOut {
		return nil, fmt.Errorf("%w: unknown transaction type %q", entities.ErrInvalidOperation, req.Type)
	}

	tx := entities.CaisseTransaction{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Montant:     req.Montant,
		Description: req.Description,
		Date:        time.Now().UTC(),
	}

	caisse, err := s.treasuryRepo.RecordTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.logger.LogTreasuryMovement(entities.AreaCaisse, string(tx.Type), tx.ID, tx.Montant, caisse.Solde)
	return &tx, nil
}

// RecordBlock appends a hashed transaction to the ledger
func (s *TreasuryService) RecordBlock(ctx context.Context, req ports.BlockchainTransactionRequest) (*entities.BlockchainTransaction, error) {
	tx := newBlock(req.Type, req.Amount, req.From, req.To, req.Description)

	if err := s.treasuryRepo.AppendBlock(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record blockchain transaction: %w", err)
	}

	s.logger.Infow("Blockchain transaction recorded", "transaction_id", tx.ID, "type", tx.Type, "hash", tx.Hash)
	return &tx, nil
}

// ReceiveFunds records the incoming funds on the ledger and credits the caisse
func (s *TreasuryService) ReceiveFunds(ctx context.Context, req ports.ReceiveFundsRequest) (*entities.BlockchainTransaction, error) {
	if req.Amount <= 0 {
		return nil, entities.ErrInvalidAmount
	}

	tx := newBlock(blockTypeReceiveFunds, req.Amount, "", "", "")

	caisse, err := s.treasuryRepo.ReceiveFunds(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to receive funds: %w", err)
	}

	s.logger.LogTreasuryMovement(entities.AreaBlockchain, tx.Type, tx.ID, tx.Amount, caisse.Solde)
	return &tx, nil
}

// SimulateDisbursement computes the allocation each beneficiary would receive.
// Nothing is written.
func (s *TreasuryService) SimulateDisbursement(ctx context.Context) (*entities.Allocation, error) {
	caisse, err := s.treasuryRepo.Caisse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get caisse: %w", err)
	}
	beneficiaries, err := s.beneficiaryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}

	allocation := &entities.Allocation{
		Solde:            caisse.Solde,
		BeneficiaryCount: len(beneficiaries),
		Message:          disbursementMessage,
	}
	if len(beneficiaries) > 0 {
		allocation.PerBeneficiary = caisse.Solde / float64(len(beneficiaries))
	}

	s.logger.Infow("Disbursement simulated", "beneficiaries", allocation.BeneficiaryCount, "per_beneficiary", allocation.PerBeneficiary)
	return allocation, nil
}

func newBlock(txType string, amount float64, from, to, description string) entities.BlockchainTransaction {
	tx := entities.BlockchainTransaction{
		ID:          uuid.NewString(),
		Type:        txType,
		Amount:      amount,
		From:        from,
		To:          to,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
	tx.Hash = blockHash(tx)
	return tx
}

func blockHash(tx entities.BlockchainTransaction) string {
	h := sha256.New()
	for _, part := range []string{
		tx.ID,
		tx.Type,
		strconv.FormatFloat(tx.Amount, 'f', -1, 64),
		tx.From,
		tx.To,
		tx.Timestamp.Format(time.RFC3339Nano),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
