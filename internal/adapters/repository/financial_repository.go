package repository

import (
	"context"
	"fmt"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/ports"
)

// FlowRepository implements ports.FlowRepository over the financial_flows area
type FlowRepository struct {
	items collection[entities.FinancialFlow]
}

// newFlowRepository creates a new financial flow repository
func newFlowRepository(b base) ports.FlowRepository {
	return &FlowRepository{items: collection[entities.FinancialFlow]{
		base:     b,
		area:     entities.AreaFinancialFlows,
		id:       func(f *entities.FinancialFlow) string { return f.ID },
		notFound: entities.ErrFlowNotFound,
	}}
}

func (r *FlowRepository) List(ctx context.Context) ([]entities.FinancialFlow, error) {
	return r.items.list()
}

func (r *FlowRepository) GetByID(ctx context.Context, id string) (*entities.FinancialFlow, error) {
	return r.items.get(id)
}

func (r *FlowRepository) Create(ctx context.Context, flow *entities.FinancialFlow) error {
	if err := r.items.add(ctx, flow); err != nil {
		return fmt.Errorf("create financial flow: %w", err)
	}
	return nil
}

func (r *FlowRepository) Update(ctx context.Context, id string, fn func(*entities.FinancialFlow)) (*entities.FinancialFlow, error) {
	return r.items.update(ctx, id, func(f *entities.FinancialFlow) error {
		fn(f)
		return nil
	})
}

func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	return r.items.remove(ctx, id)
}

// BoycottRepository implements ports.BoycottRepository over the boycotts area
type BoycottRepository struct {
	items collection[entities.Boycott]
}

// newBoycottRepository creates a new boycott repository
func newBoycottRepository(b base) ports.BoycottRepository {
	return &BoycottRepository{items: collection[entities.Boycott]{
		base:     b,
		area:     entities.AreaBoycotts,
		id:       func(e *entities.Boycott) string { return e.ID },
		notFound: entities.ErrBoycottNotFound,
	}}
}

func (r *BoycottRepository) List(ctx context.Context) ([]entities.Boycott, error) {
	return r.items.list()
}

func (r *BoycottRepository) Create(ctx context.Context, boycott *entities.Boycott) error {
	if err := r.items.add(ctx, boycott); err != nil {
		return fmt.Errorf("create boycott: %w", err)
	}
	return nil
}

func (r *BoycottRepository) Update(ctx context.Context, id string, fn func(*entities.Boycott)) (*entities.Boycott, error) {
	return r.items.update(ctx, id, func(e *entities.Boycott) error {
		fn(e)
		return nil
	})
}

func (r *BoycottRepository) Delete(ctx context.Context, id string) error {
	return r.items.remove(ctx, id)
}

// TaxRepository implements ports.TaxRepository over the taxes area
type TaxRepository struct {
	items collection[entities.Tax]
}

// newTaxRepository creates a new tax repository
func newTaxRepository(b base) ports.TaxRepository {
	return &TaxRepository{items: collection[entities.Tax]{
		base:     b,
		area:     entities.AreaTaxes,
		id:       func(t *entities.Tax) string { return t.ID },
		notFound: entities.ErrNotFound,
	}}
}

func (r *TaxRepository) List(ctx context.Context) ([]entities.Tax, error) {
	return r.items.list()
}

func (r *TaxRepository) Create(ctx context.Context, tax *entities.Tax) error {
	if err := r.items.add(ctx, tax); err != nil {
		return fmt.Errorf("create tax: %w", err)
	}
	return nil
}

// TreasuryRepository implements ports.TreasuryRepository over the
// caisse_manifestation and blockchain areas
type TreasuryRepository struct {
	base
}

// newTreasuryRepository creates a new treasury repository
func newTreasuryRepository(b base) ports.TreasuryRepository {
	return &TreasuryRepository{base: b}
}

func (r *TreasuryRepository) Caisse(ctx context.Context) (*entities.Caisse, error) {
	caisse, err := jsonstore.Get[entities.Caisse](r.store, entities.AreaCaisse)
	if err != nil {
		return nil, fmt.Errorf("get caisse: %w", err)
	}
	return &caisse, nil
}

func (r *TreasuryRepository) Ledger(ctx context.Context) (*entities.Ledger, error) {
	ledger, err := jsonstore.Get[entities.Ledger](r.store, entities.AreaBlockchain)
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return &ledger, nil
}

func (r *TreasuryRepository) RecordTransaction(ctx context.Context, tx entities.CaisseTransaction) (*entities.Caisse, error) {
	var result entities.Caisse
	err := apply(ctx, r.base, entities.AreaCaisse, func(c *entities.Caisse) error {
		c.Apply(tx)
		result = *c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record caisse transaction: %w", err)
	}
	return &result, nil
}

func (r *TreasuryRepository) AppendBlock(ctx context.Context, tx entities.BlockchainTransaction) error {
	err := apply(ctx, r.base, entities.AreaBlockchain, func(l *entities.Ledger) error {
		l.Transactions = append(l.Transactions, tx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append blockchain transaction: %w", err)
	}
	return nil
}

func (r *TreasuryRepository) ReceiveFunds(ctx context.Context, tx entities.BlockchainTransaction) (*entities.Caisse, error) {
	err := jsonstore.Mutate(r.store, entities.AreaBlockchain, func(l *entities.Ledger) error {
		l.Transactions = append(l.Transactions, tx)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append blockchain transaction: %w", err)
	}

	var result entities.Caisse
	err = jsonstore.Mutate(r.store, entities.AreaCaisse, func(c *entities.Caisse) error {
		c.Solde += tx.Amount
		result = *c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("credit caisse: %w", err)
	}

	if err := r.persist(ctx, entities.AreaBlockchain, entities.AreaCaisse); err != nil {
		return nil, err
	}
	return &result, nil
}
