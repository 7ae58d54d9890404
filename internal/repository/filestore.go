package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// fileRateDocument is the on-disk layout of a rates file: a flat list of
// rate records with the payer-specific data kept as raw JSON until the
// payer type is known.
type fileRateDocument struct {
	Rates []fileRateRecord `json:"rates"`
}

type fileRateRecord struct {
	ID            string           `json:"id"`
	FacilityID    string           `json:"facility_id"`
	PayerID       string           `json:"payer_id"`
	PayerType     domain.PayerType `json:"payer_type"`
	RateData      json.RawMessage  `json:"rate_data"`
	EffectiveDate time.Time        `json:"effective_date"`
	EndDate       *time.Time       `json:"end_date,omitempty"`
}

// FileRateStore serves payer rates from a JSON file. It backs the
// standalone deployment mode, where single-facility sites maintain their
// contract rates by hand instead of running PostgreSQL.
type FileRateStore struct {
	mu      sync.RWMutex
	records []domain.RateRecord
	path    string
	log     *logrus.Logger
}

// NewFileRateStore loads and validates a rates file.
func NewFileRateStore(path string, logger *logrus.Logger) (*FileRateStore, error) {
	store := &FileRateStore{path: path, log: logger}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Reload re-reads the rates file, replacing the in-memory records.
func (s *FileRateStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading rates file: %w", err)
	}

	var doc fileRateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing rates file %s: %w", s.path, err)
	}

	records := make([]domain.RateRecord, 0, len(doc.Rates))
	for i, raw := range doc.Rates {
		rateData, err := domain.UnmarshalRateData(raw.PayerType, raw.RateData)
		if err != nil {
			return fmt.Errorf("rates file entry %d: %w", i, err)
		}
		record := domain.RateRecord{
			ID:            raw.ID,
			FacilityID:    raw.FacilityID,
			PayerID:       raw.PayerID,
			PayerType:     raw.PayerType,
			RateData:      rateData,
			EffectiveDate: raw.EffectiveDate,
			EndDate:       raw.EndDate,
		}
		if err := record.Validate(); err != nil {
			return fmt.Errorf("rates file entry %d: %w", i, err)
		}
		records = append(records, record)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"path":  s.path,
		"rates": len(records),
	}).Info("Loaded payer rates from file")
	return nil
}

// CurrentRate returns the latest-effective active record for the facility
// and payer, matching the database store's resolution rule.
func (s *FileRateStore) CurrentRate(ctx context.Context, facilityID, payerID string, asOf time.Time) (*domain.RateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.RateRecord
	for i := range s.records {
		r := &s.records[i]
		if r.FacilityID != facilityID || r.PayerID != payerID || !r.ActiveOn(asOf) {
			continue
		}
		if best == nil || r.EffectiveDate.After(best.EffectiveDate) {
			best = r
		}
	}
	if best == nil {
		return nil, fmt.Errorf("rate not found: %w", domain.ErrNotFound)
	}

	record := *best
	return &record, nil
}

// fileCostModelDocument is the on-disk layout of a cost models file.
type fileCostModelDocument struct {
	CostModels []domain.CostModel `json:"cost_models"`
}

// FileCostModelStore serves facility cost models from a JSON file.
type FileCostModelStore struct {
	mu     sync.RWMutex
	models map[string]domain.CostModel
	path   string
	log    *logrus.Logger
}

// NewFileCostModelStore loads and validates a cost models file.
func NewFileCostModelStore(path string, logger *logrus.Logger) (*FileCostModelStore, error) {
	store := &FileCostModelStore{path: path, log: logger}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Reload re-reads the cost models file.
func (s *FileCostModelStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading cost models file: %w", err)
	}

	var doc fileCostModelDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing cost models file %s: %w", s.path, err)
	}

	models := make(map[string]domain.CostModel, len(doc.CostModels))
	for i, model := range doc.CostModels {
		if !model.AcuityBand.IsValid() {
			return fmt.Errorf("cost models file entry %d: invalid acuity band %q", i, model.AcuityBand)
		}
		models[costModelKey(model.FacilityID, model.AcuityBand)] = model
	}

	s.mu.Lock()
	s.models = models
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"path":   s.path,
		"models": len(models),
	}).Info("Loaded cost models from file")
	return nil
}

// CostModel returns the cost model for the facility and acuity band.
func (s *FileCostModelStore) CostModel(ctx context.Context, facilityID string, band domain.AcuityBand) (*domain.CostModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model, ok := s.models[costModelKey(facilityID, band)]
	if !ok {
		return nil, fmt.Errorf("cost model not found: %w", domain.ErrNotFound)
	}
	return &model, nil
}

func costModelKey(facilityID string, band domain.AcuityBand) string {
	return facilityID + "|" + string(band)
}
