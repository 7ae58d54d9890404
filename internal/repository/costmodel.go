package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// CostModelRepository resolves facility cost models from Postgres.
type CostModelRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewCostModelRepository creates a new cost model repository
func NewCostModelRepository(db *pgxpool.Pool, logger *logrus.Logger) *CostModelRepository {
	return &CostModelRepository{
		db:  db,
		log: logger,
	}
}

// CostModel returns the cost model for the facility and acuity band.
// Callers treat ErrNotFound as a configuration gap and price with the
// documented fallback model.
func (r *CostModelRepository) CostModel(ctx context.Context, facilityID string, band domain.AcuityBand) (*domain.CostModel, error) {
	query := `
		SELECT facility_id, acuity_band, nursing_hours, hourly_rate,
		       supply_cost, pharmacy_addon, transport_cost
		FROM cost_models
		WHERE facility_id = $1 AND acuity_band = $2`

	var model domain.CostModel
	err := r.db.QueryRow(ctx, query, facilityID, band).Scan(
		&model.FacilityID,
		&model.AcuityBand,
		&model.NursingHours,
		&model.HourlyRate,
		&model.SupplyCost,
		&model.PharmacyAddon,
		&model.TransportCost,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("cost model not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"facility_id": facilityID,
			"acuity_band": band,
			"error":       err,
		}).Error("Failed to query cost model")
		return nil, fmt.Errorf("querying cost model: %w", err)
	}

	return &model, nil
}

// SaveCostModel upserts a facility cost model for one acuity band.
func (r *CostModelRepository) SaveCostModel(ctx context.Context, model *domain.CostModel) error {
	query := `
		INSERT INTO cost_models (
			facility_id, acuity_band, nursing_hours, hourly_rate,
			supply_cost, pharmacy_addon, transport_cost
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (facility_id, acuity_band) DO UPDATE SET
			nursing_hours = EXCLUDED.nursing_hours,
			hourly_rate = EXCLUDED.hourly_rate,
			supply_cost = EXCLUDED.supply_cost,
			pharmacy_addon = EXCLUDED.pharmacy_addon,
			transport_cost = EXCLUDED.transport_cost`

	_, err := r.db.Exec(ctx, query,
		model.FacilityID,
		model.AcuityBand,
		model.NursingHours,
		model.HourlyRate,
		model.SupplyCost,
		model.PharmacyAddon,
		model.TransportCost,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"facility_id": model.FacilityID,
			"acuity_band": model.AcuityBand,
			"error":       err,
		}).Error("Failed to save cost model")
		return fmt.Errorf("saving cost model: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"facility_id": model.FacilityID,
		"acuity_band": model.AcuityBand,
	}).Info("Cost model saved successfully")

	return nil
}
