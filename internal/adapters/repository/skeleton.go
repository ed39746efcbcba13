package repository

import (
	"github.com/mobilize/core/internal/domain/entities"
)

// Skeleton returns the content of a freshly initialised store. Areas missing from an
// existing file are backfilled from it on load.
func Skeleton() map[string]interface{} {
	return map[string]interface{}{
		entities.AreaFinancialFlows: []entities.FinancialFlow{},
		entities.AreaAffaires:       entities.Affaires{Chronology: []entities.AffaireEvent{}},
		entities.AreaRICs:           []entities.RIC{},
		entities.AreaTaxes:          DefaultTaxes(),
		entities.AreaBoycotts:       []entities.Boycott{},
		entities.AreaEntities:       []interface{}{},
		entities.AreaCaisse: entities.Caisse{
			Solde:        0,
			Transactions: []entities.CaisseTransaction{},
		},
		entities.AreaBlockchain:      entities.Ledger{Transactions: []entities.BlockchainTransaction{}},
		entities.AreaPolls:           []interface{}{},
		entities.AreaOrganizers:      []interface{}{},
		entities.AreaBeneficiaries:   []entities.Beneficiary{},
		entities.AreaCVContracts:     []interface{}{},
		entities.AreaCameraPoints:    []entities.CameraPoint{},
		entities.AreaJournalPosts:    []entities.JournalPost{},
		entities.AreaMissions:        DefaultMissions(),
		entities.AreaDemocratiePosts: []interface{}{},
	}
}

// DefaultTaxes returns the taxes every new store starts with
func DefaultTaxes() []entities.Tax {
	return []entities.Tax{
		{
			ID:           entities.TaxTFA,
			Name:         "Taxe sur les Transactions Financières (TFA)",
			Description:  "Taxe sur les flux financiers et les mouvements de capitaux.",
			Rate:         0.2,
			ApplicableTo: entities.TaxTargetFinancialFlows,
		},
		{
			ID:           entities.TaxProduction,
			Name:         "Taxe sur les Facteurs de Production",
			Description:  "Taxe basée sur les coûts de production des entreprises.",
			Rate:         0.05,
			ApplicableTo: "company_data",
		},
		{
			ID:           entities.TaxVAT,
			Name:         "Taxe sur la Valeur Ajoutée",
			Description:  "Modélisation de l'impact de la TVA sur les transactions.",
			Rate:         0.2,
			ApplicableTo: "transactions",
		},
		{
			ID:           entities.TaxCampaign,
			Name:         "Taxe sur les Excédents de Comptes de Campagne",
			Description:  "Taxe sur les excédents de financement des partis politiques, d'après les données de la CNCCFP.FR.",
			Rate:         0.5,
			ApplicableTo: "campaign_finance",
		},
	}
}

// DefaultMissions returns the missions every new store starts with
func DefaultMissions() []entities.Mission {
	return []entities.Mission{
		{
			ID:          "1",
			Title:       "Collecte de données sur le terrain",
			Description: "Relevez les positions des caméras de surveillance dans votre ville.",
			Status:      "En cours",
		},
		{
			ID:          "2",
			Title:       "Analyse des articles de loi",
			Description: "Examinez les modifications proposées aux articles L3121-1 et L4331-1.",
			Status:      "En cours",
		},
		{
			ID:          "3",
			Title:       "Cartographie des points de ralliement",
			Description: "Identifiez et enregistrez les lieux de manifestation potentiels.",
			Status:      "À venir",
		},
	}
}
