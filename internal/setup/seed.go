// Package setup provides operational tooling for the admission engine:
// schema migration, demo data seeding, status checks, and audit export.
package setup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
	"github.com/snf-admission-engine/internal/repository"
)

// float64Ptr returns a pointer to v; used when building optional rate fields.
func float64Ptr(v float64) *float64 { return &v }

// seedRates returns demo rate records covering all four supported payer
// types for a facility. Values track the documented default schedules.
func seedRates(facilityID string, effective time.Time) []domain.RateRecord {
	return []domain.RateRecord{
		{
			ID:            uuid.New().String(),
			FacilityID:    facilityID,
			PayerID:       "medicare",
			PayerType:     domain.MedicareFFS,
			RateData:      domain.DefaultMedicareFFSRates(),
			EffectiveDate: effective,
		},
		{
			ID:         uuid.New().String(),
			FacilityID: facilityID,
			PayerID:    "ma-contract-a",
			PayerType:  domain.MACommercial,
			RateData: domain.MACommercialRates{
				ContractType: domain.ContractPerDiem,
				DayTiers: &domain.DayTierSchedule{
					Days1To30:   475,
					Days31To60:  430,
					Days61To100: 395,
				},
			},
			EffectiveDate: effective,
		},
		{
			ID:         uuid.New().String(),
			FacilityID: facilityID,
			PayerID:    "medicaid-wi",
			PayerType:  domain.MedicaidWI,
			RateData: domain.MedicaidWIRates{
				PerDiemRate: float64Ptr(245.50),
			},
			EffectiveDate: effective,
		},
		{
			ID:         uuid.New().String(),
			FacilityID: facilityID,
			PayerID:    "family-care-wi",
			PayerType:  domain.FamilyCareWI,
			RateData: domain.FamilyCareWIRates{
				NursingMatrix: map[domain.NursingGroup]float64{
					domain.NursingES1:  420,
					domain.NursingES2:  385,
					domain.NursingHBS1: 340,
					domain.NursingHBS2: 325,
					domain.NursingLBS1: 290,
					domain.NursingLBS2: 280,
				},
				NTAMatrix: map[string]float64{
					domain.NTABracketLow:  70,
					domain.NTABracketMid:  85,
					domain.NTABracketHigh: 100,
				},
			},
			EffectiveDate: effective,
		},
	}
}

// seedCostModels returns demo cost models for all four acuity bands.
func seedCostModels(facilityID string) []domain.CostModel {
	return []domain.CostModel{
		{FacilityID: facilityID, AcuityBand: domain.AcuityLow, NursingHours: 3.0, HourlyRate: 33, SupplyCost: 35},
		{FacilityID: facilityID, AcuityBand: domain.AcuityMedium, NursingHours: 4.0, HourlyRate: 35, SupplyCost: 50},
		{FacilityID: facilityID, AcuityBand: domain.AcuityHigh, NursingHours: 5.5, HourlyRate: 38, SupplyCost: 80},
		{FacilityID: facilityID, AcuityBand: domain.AcuityComplex, NursingHours: 7.5, HourlyRate: 42, SupplyCost: 120, PharmacyAddon: 40},
	}
}

// ApplySeed writes the demo rates and cost models for one facility.
func ApplySeed(ctx context.Context, rates *repository.RateRepository, costModels *repository.CostModelRepository, facilityID string, logger *logrus.Logger) error {
	effective := time.Date(time.Now().UTC().Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	for _, record := range seedRates(facilityID, effective) {
		rateData, err := json.Marshal(record.RateData)
		if err != nil {
			return fmt.Errorf("marshaling seed rate for %s: %w", record.PayerID, err)
		}
		if err := rates.SaveRate(ctx, &record, rateData); err != nil {
			return fmt.Errorf("seeding rate for %s: %w", record.PayerID, err)
		}
	}

	for _, model := range seedCostModels(facilityID) {
		if err := costModels.SaveCostModel(ctx, &model); err != nil {
			return fmt.Errorf("seeding cost model %s/%s: %w", model.FacilityID, model.AcuityBand, err)
		}
	}

	logger.WithField("facility_id", facilityID).Info("Seed data applied")
	return nil
}
