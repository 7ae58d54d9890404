package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// RateRepository resolves payer rate records from Postgres. The rate_data
// column is JSONB whose shape depends on the payer type tag.
type RateRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewRateRepository creates a new rate repository
func NewRateRepository(db *pgxpool.Pool, logger *logrus.Logger) *RateRepository {
	return &RateRepository{
		db:  db,
		log: logger,
	}
}

// CurrentRate returns the rate record effective for the facility and payer
// on the given date. When several records have started by that date the
// latest effective one wins, which keeps at most one record active per
// (facility, payer) on any date.
func (r *RateRepository) CurrentRate(ctx context.Context, facilityID, payerID string, asOf time.Time) (*domain.RateRecord, error) {
	query := `
		SELECT id, facility_id, payer_id, payer_type, rate_data, effective_date, end_date
		FROM payer_rates
		WHERE facility_id = $1
		  AND payer_id = $2
		  AND effective_date <= $3
		  AND (end_date IS NULL OR end_date >= $3)
		ORDER BY effective_date DESC
		LIMIT 1`

	var (
		record  domain.RateRecord
		rawData []byte
	)
	err := r.db.QueryRow(ctx, query, facilityID, payerID, asOf).Scan(
		&record.ID,
		&record.FacilityID,
		&record.PayerID,
		&record.PayerType,
		&rawData,
		&record.EffectiveDate,
		&record.EndDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("rate not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"facility_id": facilityID,
			"payer_id":    payerID,
			"as_of":       asOf,
			"error":       err,
		}).Error("Failed to query payer rate")
		return nil, fmt.Errorf("querying payer rate: %w", err)
	}

	rateData, err := domain.UnmarshalRateData(record.PayerType, rawData)
	if err != nil {
		return nil, fmt.Errorf("decoding rate %s: %w", record.ID, err)
	}
	record.RateData = rateData

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("validating rate %s: %w", record.ID, err)
	}

	r.log.WithFields(logrus.Fields{
		"rate_id":     record.ID,
		"facility_id": facilityID,
		"payer_type":  record.PayerType,
	}).Debug("Resolved current payer rate")

	return &record, nil
}

// SaveRate inserts a new rate record. The concrete rate data is stored as
// JSONB tagged by payer type.
func (r *RateRepository) SaveRate(ctx context.Context, record *domain.RateRecord, rateData []byte) error {
	if err := record.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO payer_rates (
			id, facility_id, payer_id, payer_type, rate_data, effective_date, end_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.FacilityID,
		record.PayerID,
		record.PayerType,
		rateData,
		record.EffectiveDate,
		record.EndDate,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"rate_id":     record.ID,
			"facility_id": record.FacilityID,
			"error":       err,
		}).Error("Failed to save payer rate")
		return fmt.Errorf("saving payer rate: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"rate_id":     record.ID,
		"facility_id": record.FacilityID,
		"payer_type":  record.PayerType,
	}).Info("Payer rate saved successfully")

	return nil
}
