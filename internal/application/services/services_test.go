package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mobilize/core/internal/adapters/repository"
	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/config"
	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

const dbPath = "data/database.json"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store     *jsonstore.Store
	repos     *repository.Repositories
	flows     *FlowService
	boycotts  *BoycottService
	taxes     *TaxService
	treasury  *TreasuryService
	civic     *CivicService
	dashboard *DashboardService
}

func newFixture(t *testing.T, extra map[string]interface{}) *fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	if extra != nil {
		doc := repository.Skeleton()
		for k, v := range extra {
			doc[k] = v
		}
		data, err := json.Marshal(doc)
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fs, dbPath, data, 0o644))
	}

	store, err := jsonstore.Open(context.Background(), dbPath, jsonstore.Options{Fs: fs, Skeleton: repository.Skeleton})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	log := logger.NewNop()
	repos := repository.New(store, time.Second, log)
	treasury := NewTreasuryService(repos.Treasury, repos.Beneficiaries, log)

	return &fixture{
		store:    store,
		repos:    repos,
		flows:    NewFlowService(repos.Flows, repos.Boycotts, repos.Taxes, treasury, log),
		boycotts: NewBoycottService(repos.Boycotts, log),
		taxes:    NewTaxService(repos.Taxes, log),
		treasury: treasury,
		civic: NewCivicService(CivicRepositories{
			Beneficiaries: repos.Beneficiaries,
			CameraPoints:  repos.CameraPoints,
			Journal:       repos.Journal,
			Missions:      repos.Missions,
			RICs:          repos.RICs,
			Affaires:      repos.Affaires,
		}, log),
		dashboard: NewDashboardService(DashboardRepositories{
			Flows:         repos.Flows,
			Boycotts:      repos.Boycotts,
			Treasury:      repos.Treasury,
			RICs:          repos.RICs,
			Beneficiaries: repos.Beneficiaries,
			Reference:     repos.Reference,
		}, log),
	}
}

type failingTreasury struct {
	ports.TreasuryService
}

func (failingTreasury) ReceiveFunds(context.Context, ports.ReceiveFundsRequest) (*entities.BlockchainTransaction, error) {
	return nil, errors.New("contract unreachable")
}

func TestTaxAmount(t *testing.T) {
	taxes := repository.DefaultTaxes()
	assert.InDelta(t, 20.0, TaxAmount(100, taxes), 1e-9)

	taxes = append(taxes, entities.Tax{ID: "extra", Rate: 0.1, ApplicableTo: entities.TaxTargetFinancialFlows})
	assert.InDelta(t, 30.0, TaxAmount(100, taxes), 1e-9)

	assert.Zero(t, TaxAmount(100, nil))
}

func TestCreateFlowToBoycottedEntitySendsVAT(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.boycotts.CreateBoycott(ctx, ports.CreateBoycottRequest{Name: "Carrefour", Type: "Supermarché", TaxID: entities.TaxVAT})
	require.NoError(t, err)

	flow, err := f.flows.CreateFlow(ctx, ports.CreateFlowRequest{Name: "carrefour", Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, entities.BlockchainVATAllocated, flow.BlockchainStatus)
	assert.InDelta(t, 20.0, flow.TaxAmount, 1e-9)
	assert.NotEmpty(t, flow.ID)

	caisse, err := f.treasury.GetCaisse(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, caisse.Solde, 1e-9)

	ledger, err := f.treasury.GetLedger(ctx)
	require.NoError(t, err)
	require.Len(t, ledger.Transactions, 1)
	assert.Equal(t, "recevoirFonds", ledger.Transactions[0].Type)
	assert.Len(t, ledger.Transactions[0].Hash, 64)

	flows, err := f.flows.ListFlows(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, flow.ID, flows[0].ID)
}

func TestCreateFlowWithoutBoycott(t *testing.T) {
	f := newFixture(t, nil)

	flow, err := f.flows.CreateFlow(context.Background(), ports.CreateFlowRequest{Name: "Boulangerie", Amount: 10})
	require.NoError(t, err)
	assert.Empty(t, flow.BlockchainStatus)

	caisse, err := f.treasury.GetCaisse(context.Background())
	require.NoError(t, err)
	assert.Zero(t, caisse.Solde)
}

func TestCreateFlowRecordsFailedReallocation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	flows := NewFlowService(f.repos.Flows, f.repos.Boycotts, f.repos.Taxes, failingTreasury{}, logger.NewNop())

	_, err := f.boycotts.CreateBoycott(ctx, ports.CreateBoycottRequest{Name: "BNP", Type: "Banque"})
	require.NoError(t, err)

	flow, err := flows.CreateFlow(ctx, ports.CreateFlowRequest{Name: "BNP", Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, entities.BlockchainVATFailed, flow.BlockchainStatus)
}

func TestUpdateAndDeleteFlow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	flow, err := f.flows.CreateFlow(ctx, ports.CreateFlowRequest{Name: "Total", Amount: 10, Description: "plein"})
	require.NoError(t, err)

	suspicious := true
	updated, err := f.flows.UpdateFlow(ctx, flow.ID, ports.UpdateFlowRequest{IsSuspicious: &suspicious})
	require.NoError(t, err)
	assert.True(t, updated.IsSuspicious)
	assert.Equal(t, "plein", updated.Description)

	require.NoError(t, f.flows.DeleteFlow(ctx, flow.ID))
	assert.ErrorIs(t, f.flows.DeleteFlow(ctx, flow.ID), entities.ErrFlowNotFound)

	_, err = f.flows.UpdateFlow(ctx, flow.ID, ports.UpdateFlowRequest{IsSuspicious: &suspicious})
	assert.ErrorIs(t, err, entities.ErrFlowNotFound)
}

func TestBoycottUpdateMergesFields(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	b, err := f.boycotts.CreateBoycott(ctx, ports.CreateBoycottRequest{Name: "Carrefour", Type: "Supermarché"})
	require.NoError(t, err)
	assert.Contains(t, b.ID, "ent_")

	taxID := entities.TaxVAT
	updated, err := f.boycotts.UpdateBoycott(ctx, b.ID, ports.UpdateBoycottRequest{TaxID: &taxID})
	require.NoError(t, err)
	assert.Equal(t, "Supermarché", updated.Type)
	assert.Equal(t, entities.TaxVAT, updated.TaxID)

	require.NoError(t, f.boycotts.DeleteBoycott(ctx, b.ID))
	assert.ErrorIs(t, f.boycotts.DeleteBoycott(ctx, b.ID), entities.ErrBoycottNotFound)
}

func TestCreateTax(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tax, err := f.taxes.CreateTax(ctx, ports.CreateTaxRequest{Name: "Taxe carbone", Rate: 0.1, ApplicableTo: entities.TaxTargetFinancialFlows})
	require.NoError(t, err)

	taxes, err := f.taxes.ListTaxes(ctx)
	require.NoError(t, err)
	require.Len(t, taxes, 5)
	assert.Equal(t, tax.ID, taxes[4].ID)

	flow, err := f.flows.CreateFlow(ctx, ports.CreateFlowRequest{Name: "Total", Amount: 100})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, flow.TaxAmount, 1e-9)
}

func TestRecordTransaction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.treasury.RecordTransaction(ctx, ports.CaisseTransactionRequest{Type: entities.CaisseIn, Montant: 80, Description: "collecte"})
	require.NoError(t, err)
	tx, err := f.treasury.RecordTransaction(ctx, ports.CaisseTransactionRequest{Type: entities.CaisseOut, Montant: 30})
	require.NoError(t, err)
	assert.Equal(t, entities.CaisseOut, tx.Type)

	caisse, err := f.treasury.GetCaisse(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, caisse.Solde, 1e-9)
	assert.Len(t, caisse.Transactions, 2)

	_, err = f.treasury.RecordTransaction(ctx, ports.CaisseTransactionRequest{Type: entities.CaisseIn, Montant: 0})
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	_, err = f.treasury.RecordTransaction(ctx, ports.CaisseTransactionRequest{Type: "don", Montant: 5})
	assert.ErrorIs(t, err, entities.ErrInvalidOperation)
}

func TestRecordBlockHashesTransaction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, err := f.treasury.RecordBlock(ctx, ports.BlockchainTransactionRequest{Type: "don", Amount: 5, From: "alice"})
	require.NoError(t, err)
	b, err := f.treasury.RecordBlock(ctx, ports.BlockchainTransactionRequest{Type: "don", Amount: 5, From: "alice"})
	require.NoError(t, err)

	assert.Len(t, a.Hash, 64)
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, blockHash(*a), a.Hash)
}

func TestReceiveFundsRejectsEmptyAmount(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.treasury.ReceiveFunds(context.Background(), ports.ReceiveFundsRequest{})
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
}

func TestSimulateDisbursementDoesNotMutate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	score := 0.8
	for _, email := range []string{"a@example.org", "b@example.org"} {
		_, err := f.civic.RegisterBeneficiary(ctx, ports.RegisterBeneficiaryRequest{Name: "x", Email: email, CVScore: &score})
		require.NoError(t, err)
	}
	_, err := f.treasury.ReceiveFunds(ctx, ports.ReceiveFundsRequest{Amount: 100})
	require.NoError(t, err)

	version := f.store.Version()
	allocation, err := f.treasury.SimulateDisbursement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, allocation.BeneficiaryCount)
	assert.InDelta(t, 50.0, allocation.PerBeneficiary, 1e-9)
	assert.Equal(t, version, f.store.Version())
}

func TestRegisterBeneficiaryRejectsDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	score := 1.0

	b, err := f.civic.RegisterBeneficiary(ctx, ports.RegisterBeneficiaryRequest{Name: "Ana", Email: "ana@example.org", CVScore: &score})
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.CVScore)

	_, err = f.civic.RegisterBeneficiary(ctx, ports.RegisterBeneficiaryRequest{Name: "Ana", Email: "ana@example.org", CVScore: &score})
	assert.ErrorIs(t, err, entities.ErrAlreadyExists)
}

func TestCameraPointDefaultsTimestamp(t *testing.T) {
	f := newFixture(t, nil)

	point, err := f.civic.CreateCameraPoint(context.Background(), ports.CreateCameraPointRequest{Name: "Pont", City: "Lyon", Lat: 45.76, Lon: 4.83})
	require.NoError(t, err)
	assert.NotEmpty(t, point.Timestamp)
	assert.Nil(t, point.VideoLink)
}

func TestJournalPostKeepsContentAsArticle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	post, err := f.civic.CreateJournalPost(ctx, ports.CreateJournalPostRequest{Title: "Grève", Content: "Texte", Media: "img.png"})
	require.NoError(t, err)
	assert.Equal(t, "Texte", post.Article)

	posts, err := f.civic.ListJournalPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
}

func TestMissions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	mission, err := f.civic.CreateMission(ctx, ports.CreateMissionRequest{Title: "Tractage"})
	require.NoError(t, err)
	assert.Equal(t, "À venir", mission.Status)

	status := "Terminée"
	updated, err := f.civic.UpdateMission(ctx, "1", ports.UpdateMissionRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Terminée", updated.Status)
	assert.Equal(t, "Collecte de données sur le terrain", updated.Title)

	_, err = f.civic.UpdateMission(ctx, "nope", ports.UpdateMissionRequest{Status: &status})
	assert.ErrorIs(t, err, entities.ErrMissionNotFound)

	missions, err := f.civic.ListMissions(ctx)
	require.NoError(t, err)
	assert.Len(t, missions, 4)
}

func TestReferendumVoting(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	ric, err := f.civic.CreateRIC(ctx, ports.CreateRICRequest{Question: "Pour le RIC ?", Level: "national"})
	require.NoError(t, err)
	assert.Equal(t, entities.RICStatusActive, ric.Status)

	ric, err = f.civic.VoteRIC(ctx, ric.ID, ports.VoteRequest{Choice: "for"})
	require.NoError(t, err)
	ric, err = f.civic.VoteRIC(ctx, ric.ID, ports.VoteRequest{Choice: "against"})
	require.NoError(t, err)
	assert.Equal(t, 1, ric.VotesFor)
	assert.Equal(t, 1, ric.VotesAgainst)

	votes := 10
	closed := entities.RICStatusClosed
	ric, err = f.civic.SetRICVotes(ctx, ric.ID, ports.UpdateRICVotesRequest{VotesFor: &votes, Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, 10, ric.VotesFor)
	assert.Equal(t, 1, ric.VotesAgainst)

	_, err = f.civic.VoteRIC(ctx, ric.ID, ports.VoteRequest{Choice: "for"})
	assert.ErrorIs(t, err, entities.ErrInvalidOperation)

	_, err = f.civic.VoteRIC(ctx, "missing", ports.VoteRequest{Choice: "for"})
	assert.ErrorIs(t, err, entities.ErrRICNotFound)
}

func TestAffaireEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	event, err := f.civic.AddAffaireEvent(ctx, ports.CreateAffaireEventRequest{Title: "Audition", Date: "2025-09-10"})
	require.NoError(t, err)

	affaires, err := f.civic.GetAffaires(ctx)
	require.NoError(t, err)
	require.Len(t, affaires.Chronology, 1)
	assert.Equal(t, event.ID, affaires.Chronology[0].ID)
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t, map[string]interface{}{
		entities.AreaPrefectures:      []interface{}{map[string]interface{}{"name": "Paris"}, map[string]interface{}{"name": "Lyon"}},
		entities.AreaTelegramGroups:   []interface{}{map[string]interface{}{"name": "groupe"}},
		entities.AreaMairies:          []interface{}{},
		entities.AreaRoundaboutPoints: []interface{}{map[string]interface{}{"name": "rond-point"}},
		entities.AreaStrategicLocations: []interface{}{
			map[string]interface{}{"name": "Sorbonne", "type": "Université"},
			map[string]interface{}{"name": "Gare", "type": "Transport"},
		},
		entities.AreaManifestationPoints: []interface{}{
			map[string]interface{}{"count": 150},
			map[string]interface{}{"count": "environ 300 personnes"},
			map[string]interface{}{"count": "Plusieurs milliers"},
			map[string]interface{}{"count": map[string]interface{}{"matin": 10, "soir": 20, "note": "x"}},
			map[string]interface{}{"name": "sans comptage"},
		},
	})
	ctx := context.Background()

	for _, req := range []ports.CreateBoycottRequest{
		{Name: "Carrefour", TaxID: entities.TaxVAT},
		{Name: "Carrefour", Type: "Supermarché"},
		{Name: "BNP", Type: "Banque"},
	} {
		_, err := f.boycotts.CreateBoycott(ctx, req)
		require.NoError(t, err)
	}
	_, err := f.flows.CreateFlow(ctx, ports.CreateFlowRequest{Name: "Total", Amount: 10, IsSuspicious: true})
	require.NoError(t, err)
	_, err = f.flows.CreateFlow(ctx, ports.CreateFlowRequest{Name: "Boulangerie", Amount: 10})
	require.NoError(t, err)
	_, err = f.treasury.RecordTransaction(ctx, ports.CaisseTransactionRequest{Type: entities.CaisseIn, Montant: 90})
	require.NoError(t, err)
	score := 0.5
	for _, email := range []string{"a@example.org", "b@example.org", "c@example.org"} {
		_, err := f.civic.RegisterBeneficiary(ctx, ports.RegisterBeneficiaryRequest{Name: "x", Email: email, CVScore: &score})
		require.NoError(t, err)
	}

	summary, err := f.dashboard.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalTransactions)
	assert.Equal(t, 1, summary.ActiveAlerts)
	assert.Equal(t, 2, summary.RiskyEntities)
	assert.Equal(t, 3, summary.BoycottCount)
	assert.InDelta(t, 90.0, summary.CaisseSolde, 1e-9)
	assert.Equal(t, 3, summary.BeneficiaryCount)
	assert.InDelta(t, 30.0, summary.MonthlyAllocation, 1e-9)
	assert.Equal(t, 2, summary.PrefectureCount)
	assert.Equal(t, 1, summary.TelegramGroupCount)
	assert.Equal(t, 0, summary.MairiesCount)
	assert.Equal(t, 1, summary.RoundaboutCount)
	assert.Equal(t, 1, summary.UniversityCount)
	assert.Equal(t, 2, summary.CarrefourCount)
	assert.Equal(t, 1, summary.BankCount)
	assert.Equal(t, 1, summary.TVACommerceCount)
	assert.Equal(t, 150+300+2000+30, summary.EstimatedManifestantCount)
}

func TestDashboardSummaryOnEmptyStore(t *testing.T) {
	f := newFixture(t, nil)

	summary, err := f.dashboard.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.MonthlyAllocation)
	assert.Zero(t, summary.PrefectureCount)
	assert.Zero(t, summary.EstimatedManifestantCount)
}

func TestEstimateCount(t *testing.T) {
	tests := []struct {
		name  string
		count interface{}
		want  int
	}{
		{"number", 120.0, 120},
		{"figure in text", "entre 40 et 60", 40},
		{"several thousand", "plusieurs milliers de personnes", 2000},
		{"text without figure", "beaucoup", 0},
		{"object", map[string]interface{}{"a": 1.0, "b": 2.0, "c": "3"}, 3},
		{"missing", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateCount(tt.count))
		})
	}
}

func newAuth(t *testing.T, password string, expiresIn time.Duration) *AuthService {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	return NewAuthService(
		config.AuthConfig{Enabled: true, OperatorPasswordHash: hash},
		config.JWTConfig{Secret: "test-secret-with-enough-length", ExpiresIn: expiresIn, Issuer: "mobilize-test"},
		logger.NewNop(),
	)
}

func TestLoginIssuesOperatorToken(t *testing.T) {
	auth := newAuth(t, "s3cret-password", time.Hour)

	resp, err := auth.Login(context.Background(), ports.LoginRequest{Password: "s3cret-password"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := auth.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, OperatorRole, claims.Role)
	assert.Equal(t, OperatorRole, claims.Subject)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := newAuth(t, "s3cret-password", time.Hour)

	_, err := auth.Login(context.Background(), ports.LoginRequest{Password: "nope"})
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	noHash := NewAuthService(config.AuthConfig{}, config.JWTConfig{Secret: "x"}, logger.NewNop())
	_, err = noHash.Login(context.Background(), ports.LoginRequest{Password: "anything"})
	assert.ErrorIs(t, err, entities.ErrUnauthorized)
}

func TestValidateTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	auth := newAuth(t, "pw", time.Hour)

	other := NewAuthService(config.AuthConfig{}, config.JWTConfig{Secret: "another-secret", ExpiresIn: time.Hour, Issuer: "mobilize-test"}, logger.NewNop())
	foreign, err := other.IssueToken("cli")
	require.NoError(t, err)
	_, err = auth.ValidateToken(foreign.AccessToken)
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	expiredIssuer := newAuth(t, "pw", -time.Minute)
	expired, err := expiredIssuer.IssueToken("cli")
	require.NoError(t, err)
	_, err = auth.ValidateToken(expired.AccessToken)
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	_, err = auth.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, entities.ErrUnauthorized)
}
