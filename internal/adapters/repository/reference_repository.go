package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

var emptyArray = json.RawMessage("[]")

// ReferenceRepository serves areas that are read as stored: prefectures, mairies,
// telegram groups and other reference lists imported into the file by hand
type ReferenceRepository struct {
	base
}

func newReferenceRepository(b base) ports.ReferenceRepository {
	return &ReferenceRepository{base: b}
}

// Raw returns the stored JSON of an area, or an empty array when it is absent
func (r *ReferenceRepository) Raw(ctx context.Context, area string) (json.RawMessage, error) {
	raw, ok := r.store.Raw(area)
	if !ok {
		return emptyArray, nil
	}
	return raw, nil
}

// Count returns the number of items of an array area; other values count as zero
func (r *ReferenceRepository) Count(ctx context.Context, area string) (int, error) {
	raw, ok := r.store.Raw(area)
	if !ok || !isArray(raw) {
		return 0, nil
	}
	items, err := jsonstore.Get[[]json.RawMessage](r.store, area)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", area, err)
	}
	return len(items), nil
}

// Items decodes an array area into generic objects. Non-object items are skipped.
func (r *ReferenceRepository) Items(ctx context.Context, area string) ([]map[string]interface{}, error) {
	raw, ok := r.store.Raw(area)
	if !ok || !isArray(raw) {
		return []map[string]interface{}{}, nil
	}

	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", area, err)
	}

	items := make([]map[string]interface{}, 0, len(values))
	for _, value := range values {
		var item map[string]interface{}
		if err := json.Unmarshal(value, &item); err != nil || item == nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Snapshot returns the whole store document
func (r *ReferenceRepository) Snapshot(ctx context.Context) ([]byte, error) {
	return r.store.Snapshot()
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Repositories bundles every store-backed repository
type Repositories struct {
	Flows         ports.FlowRepository
	Boycotts      ports.BoycottRepository
	Taxes         ports.TaxRepository
	Treasury      ports.TreasuryRepository
	Beneficiaries ports.BeneficiaryRepository
	CameraPoints  ports.CameraPointRepository
	Journal       ports.JournalRepository
	Missions      ports.MissionRepository
	RICs          ports.RICRepository
	Affaires      ports.AffaireRepository
	Reference     ports.ReferenceRepository
}

// New creates the repositories of one store. flushTimeout bounds how long a
// mutating call waits for its write; zero leaves it to the caller's context.
func New(store *jsonstore.Store, flushTimeout time.Duration, log *logger.Logger) *Repositories {
	if log == nil {
		log = logger.NewNop()
	}
	b := base{
		store:        store,
		flushTimeout: flushTimeout,
		logger:       log.WithComponent("repository"),
	}

	return &Repositories{
		Flows:         newFlowRepository(b),
		Boycotts:      newBoycottRepository(b),
		Taxes:         newTaxRepository(b),
		Treasury:      newTreasuryRepository(b),
		Beneficiaries: newBeneficiaryRepository(b),
		CameraPoints:  newCameraPointRepository(b),
		Journal:       newJournalRepository(b),
		Missions:      newMissionRepository(b),
		RICs:          newRICRepository(b),
		Affaires:      newAffaireRepository(b),
		Reference:     newReferenceRepository(b),
	}
}
