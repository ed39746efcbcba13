package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// CivicHandler handles beneficiaries, camera points, journal, missions,
// referendums and the case chronology
type CivicHandler struct {
	civic  ports.CivicService
	logger *logger.Logger
}

// NewCivicHandler creates a new civic handler
func NewCivicHandler(civic ports.CivicService, logger *logger.Logger) *CivicHandler {
	return &CivicHandler{civic: civic, logger: logger}
}

func (h *CivicHandler) ListBeneficiaries(c echo.Context) error {
	list, err := h.civic.ListBeneficiaries(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List beneficiaries failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CivicHandler) RegisterBeneficiary(c echo.Context) error {
	var req ports.RegisterBeneficiaryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	beneficiary, err := h.civic.RegisterBeneficiary(c.Request().Context(), req)
	if errors.Is(err, entities.ErrAlreadyExists) {
		return echo.NewHTTPError(http.StatusConflict, "Cet email est déjà enregistré.")
	}
	if err != nil {
		return failure(h.logger, "Register beneficiary failed", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":     "Citoyen enregistré avec succès.",
		"beneficiary": beneficiary,
	})
}

func (h *CivicHandler) ListCameraPoints(c echo.Context) error {
	list, err := h.civic.ListCameraPoints(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List camera points failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CivicHandler) CreateCameraPoint(c echo.Context) error {
	var req ports.CreateCameraPointRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	point, err := h.civic.CreateCameraPoint(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Create camera point failed", err)
	}
	return c.JSON(http.StatusCreated, point)
}

func (h *CivicHandler) ListJournalPosts(c echo.Context) error {
	list, err := h.civic.ListJournalPosts(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List journal posts failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CivicHandler) CreateJournalPost(c echo.Context) error {
	var req ports.CreateJournalPostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.civic.CreateJournalPost(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Create journal post failed", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Article enregistré avec succès.",
		"post":    post,
	})
}

func (h *CivicHandler) ListMissions(c echo.Context) error {
	list, err := h.civic.ListMissions(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List missions failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CivicHandler) CreateMission(c echo.Context) error {
	var req ports.CreateMissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	mission, err := h.civic.CreateMission(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Create mission failed", err)
	}
	return c.JSON(http.StatusCreated, mission)
}

func (h *CivicHandler) UpdateMission(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateMissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	mission, err := h.civic.UpdateMission(c.Request().Context(), id, req)
	if err != nil {
		return failure(h.logger, "Update mission failed", err, "mission_id", id)
	}
	return c.JSON(http.StatusOK, mission)
}

func (h *CivicHandler) ListRICs(c echo.Context) error {
	list, err := h.civic.ListRICs(c.Request().Context())
	if err != nil {
		return failure(h.logger, "List referendums failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CivicHandler) CreateRIC(c echo.Context) error {
	var req ports.CreateRICRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ric, err := h.civic.CreateRIC(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Create referendum failed", err)
	}
	return c.JSON(http.StatusCreated, ric)
}

func (h *CivicHandler) UpdateRIC(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateRICVotesRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ric, err := h.civic.SetRICVotes(c.Request().Context(), id, req)
	if err != nil {
		return failure(h.logger, "Update referendum failed", err, "ric_id", id)
	}
	return c.JSON(http.StatusOK, ric)
}

func (h *CivicHandler) VoteRIC(c echo.Context) error {
	id := c.Param("id")

	var req ports.VoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ric, err := h.civic.VoteRIC(c.Request().Context(), id, req)
	if err != nil {
		return failure(h.logger, "Vote failed", err, "ric_id", id)
	}
	return c.JSON(http.StatusOK, ric)
}

func (h *CivicHandler) GetAffaires(c echo.Context) error {
	affaires, err := h.civic.GetAffaires(c.Request().Context())
	if err != nil {
		return failure(h.logger, "Get affaires failed", err)
	}
	return c.JSON(http.StatusOK, affaires)
}

func (h *CivicHandler) AddAffaireEvent(c echo.Context) error {
	var req ports.CreateAffaireEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := h.civic.AddAffaireEvent(c.Request().Context(), req)
	if err != nil {
		return failure(h.logger, "Add affaire event failed", err)
	}
	return c.JSON(http.StatusCreated, event)
}
