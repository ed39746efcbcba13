package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// a point described as "plusieurs milliers" without a figure counts as this many
const severalThousand = 2000

var firstNumber = regexp.MustCompile(`\d+`)

// DashboardRepositories groups the repositories read by DashboardService
type DashboardRepositories struct {
	Flows         ports.FlowRepository
	Boycotts      ports.BoycottRepository
	Treasury      ports.TreasuryRepository
	RICs          ports.RICRepository
	Beneficiaries ports.BeneficiaryRepository
	Reference     ports.ReferenceRepository
}

// DashboardService computes the dashboard counters
type DashboardService struct {
	repos  DashboardRepositories
	logger *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repos DashboardRepositories, logger *logger.Logger) *DashboardService {
	return &DashboardService{repos: repos, logger: logger}
}

// Summary aggregates the counters shown on the dashboard
func (s *DashboardService) Summary(ctx context.Context) (*entities.DashboardSummary, error) {
	flows, err := s.repos.Flows.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial flows: %w", err)
	}
	boycotts, err := s.repos.Boycotts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boycotts: %w", err)
	}
	caisse, err := s.repos.Treasury.Caisse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get caisse: %w", err)
	}
	rics, err := s.repos.RICs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referendums: %w", err)
	}
	beneficiaries, err := s.repos.Beneficiaries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}

	summary := &entities.DashboardSummary{
		TotalTransactions: len(flows),
		CaisseSolde:       caisse.Solde,
		BoycottCount:      len(boycotts),
		RICCount:          len(rics),
		BeneficiaryCount:  len(beneficiaries),
	}

	for _, f := range flows {
		if f.IsSuspicious {
			summary.ActiveAlerts++
		}
	}

	names := make(map[string]struct{}, len(boycotts))
	for _, b := range boycotts {
		names[b.Name] = struct{}{}
		if b.Name == "Carrefour" {
			summary.CarrefourCount++
		}
		if b.Type == "Banque" {
			summary.BankCount++
		}
		if b.TaxID == entities.TaxVAT {
			summary.TVACommerceCount++
		}
	}
	summary.RiskyEntities = len(names)

	if summary.BeneficiaryCount > 0 {
		summary.MonthlyAllocation = caisse.Solde / float64(summary.BeneficiaryCount)
	}

	counts := []struct {
		area string
		dst  *int
	}{
		{entities.AreaPrefectures, &summary.PrefectureCount},
		{entities.AreaTelegramGroups, &summary.TelegramGroupCount},
		{entities.AreaMairies, &summary.MairiesCount},
		{entities.AreaRoundaboutPoints, &summary.RoundaboutCount},
	}
	for _, c := range counts {
		n, err := s.repos.Reference.Count(ctx, c.area)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.area, err)
		}
		*c.dst = n
	}

	locations, err := s.repos.Reference.Items(ctx, entities.AreaStrategicLocations)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategic locations: %w", err)
	}
	for _, l := range locations {
		if l["type"] == "Université" {
			summary.UniversityCount++
		}
	}

	points, err := s.repos.Reference.Items(ctx, entities.AreaManifestationPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifestation points: %w", err)
	}
	for _, p := range points {
		summary.EstimatedManifestantCount += EstimateCount(p["count"])
	}

	return summary, nil
}

// EstimateCount reads the headcount of a manifestation point: a number, the first
// figure of a text, or the numeric fields of an object
func EstimateCount(v interface{}) int {
	switch count := v.(type) {
	case float64:
		return int(count)
	case string:
		if m := firstNumber.FindString(count); m != "" {
			n, err := strconv.Atoi(m)
			if err == nil {
				return n
			}
			return 0
		}
		if strings.Contains(strings.ToLower(count), "plusieurs milliers") {
			return severalThousand
		}
	case map[string]interface{}:
		total := 0
		for _, field := range count {
			if n, ok := field.(float64); ok {
				total += int(n)
			}
		}
		return total
	}
	return 0
}
