package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// FinancialHandler handles financial flows, boycotts, taxes and the treasury
type FinancialHandler struct {
	flows    ports.FlowService
	boycotts ports.BoycottService
	taxes    ports.TaxService
	treasury ports.TreasuryService
	logger   *logger.Logger
}

// NewFinancialHandler creates a new financial handler
func NewFinancialHandler(flows ports.FlowService, boycotts ports.BoycottService, taxes ports.TaxService, treasury ports.TreasuryService, logger *logger.Logger) *FinancialHandler {
	return &FinancialHandler{
		flows:    flows,
		boycotts: boycotts,
		taxes:    taxes,
		treasury: treasury,
		logger:   logger,
	}
}

func (h *FinancialHandler) ListFlows(c echo.Context) error {
	flows, err := h.flows.ListFlows(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List financial flows failed", err)
	}
	return c.JSON(http.StatusOK, flows)
}

func (h *FinancialHandler) CreateFlow(c echo.Context) error {
	var req ports.CreateFlowRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	flow, err := h.flows.CreateFlow(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Create financial flow failed", err)
	}
	return c.JSON(http.StatusCreated, flow)
}

func (h *FinancialHandler) UpdateFlow(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateFlowRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	flow, err := h.flows.UpdateFlow(c.Request().Context(), id, req)
	if err != nil {
		return failure(h.logger, "Update financial flow failed", err, "flow_id", id)
	}
	return c.JSON(http.StatusOK, flow)
}

func (h *FinancialHandler) DeleteFlow(c echo.Context) error {
	id := c.Param("id")

	if err := h.flows.DeleteFlow(c.Request().Context(), id); err != nil {
		return failure(h.logger, "Delete financial flow failed", err, "flow_id", id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FinancialHandler) ListBoycotts(c echo.Context) error {
	boycotts, err := h.boycotts.ListBoycotts(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List boycotts failed", err)
	}
	return c.JSON(http.StatusOK, boycotts)
}

func (h *FinancialHandler) CreateBoycott(c echo.Context) error {
	var req ports.CreateBoycottRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	boycott, err := h.boycotts.CreateBoycott(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Create boycott failed", err)
	}
	return c.JSON(http.StatusCreated, boycott)
}

func (h *FinancialHandler) UpdateBoycott(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateBoycottRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	boycott, err := h.boycotts.UpdateBoycott(c.Request().Context(), id, req)
	if err != nil {
		return failure(h.logger, "Update boycott failed", err, "boycott_id", id)
	}
	return c.JSON(http.StatusOK, boycott)
}

func (h *FinancialHandler) DeleteBoycott(c echo.Context) error {
	id := c.Param("id")

	if err := h.boycotts.DeleteBoycott(c.Request().Context(), id); err != nil {
		return failure(h.logger, "Delete boycott failed", err, "boycott_id", id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FinancialHandler) ListTaxes(c echo.Context) error {
	taxes, err := h.taxes.ListTaxes(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List taxes failed", err)
	}
	return c.JSON(http.StatusOK, taxes)
}

func (h *FinancialHandler) CreateTax(c echo.Context) error {
	var req ports.CreateTaxRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tax, err := h.taxes.CreateTax(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Create tax failed", err)
	}
	return c.JSON(http.StatusCreated, tax)
}

func (h *FinancialHandler) GetCaisse(c echo.Context) error {
	caisse, err := h.treasury.GetCaisse(c.Request().Context())
	if err != nil {
		return failure(h.logger, "Get caisse failed", err)
	}
	return c.JSON(http.StatusOK, caisse)
}

func (h *FinancialHandler) RecordTransaction(c echo.Context) error {
	var req ports.CaisseTransactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tx, err := h.treasury.RecordTransaction(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Record caisse transaction failed", err)
	}
	return c.JSON(http.StatusCreated, tx)
}

func (h *FinancialHandler) GetLedger(c echo.Context) error {
	ledger, err := h.treasury.GetLedger(c.Request().Context())
	if err != nil {
		return failure(h.logger, "Get ledger failed", err)
	}
	return c.JSON(http.StatusOK, ledger)
}

func (h *FinancialHandler) RecordBlock(c echo.Context) error {
	var req ports.BlockchainTransactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tx, err := h.treasury.RecordBlock(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Record blockchain transaction failed", err)
	}
	return c.JSON(http.StatusCreated, tx)
}

func (h *FinancialHandler) ReceiveFunds(c echo.Context) error {
	var req ports.ReceiveFundsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tx, err := h.treasury.ReceiveFunds(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Receive funds failed", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     fmt.Sprintf("Fonds de %v€ reçus avec succès sur le smart contract (simulé).", req.Amount),
		"transaction": tx,
	})
}

func (h *FinancialHandler) DisburseAllocations(c echo.Context) error {
	allocation, err := h.treasury.SimulateDisbursement(c.Request().Context())
	if err != nil {
		return failure(h.logger, "Disbursement simulation failed", err)
	}
	return c.JSON(http.StatusOK, allocation)
}
