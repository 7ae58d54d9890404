package service

import (
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// Daily supply add-ons for special services.
const (
	woundVacSupplyDaily    = 75.00
	oxygenSupplyDaily      = 25.00
	feedingTubeSupplyDaily = 40.00
)

// Daily pharmacy add-ons for special services.
const (
	ivAbxPharmacyDaily = 150.00
	woundMedsDaily     = 50.00
)

// denialRiskTable maps payer type and authorization status to a denial
// probability. Unmatched combinations fall back to the policy default.
var denialRiskTable = map[domain.PayerType]map[domain.AuthStatus]float64{
	domain.MedicareFFS: {
		domain.AuthGranted: 0.02,
		domain.AuthPending: 0.15,
		domain.AuthUnknown: 0.25,
	},
	domain.MACommercial: {
		domain.AuthGranted: 0.05,
		domain.AuthPending: 0.20,
		domain.AuthUnknown: 0.35,
	},
	domain.MedicaidWI: {
		domain.AuthGranted: 0.03,
		domain.AuthPending: 0.10,
		domain.AuthUnknown: 0.15,
	},
	domain.FamilyCareWI: {
		domain.AuthGranted: 0.03,
		domain.AuthPending: 0.12,
		domain.AuthUnknown: 0.18,
	},
}

// Estimator projects the cost of a stay including overhead and expected
// denial loss. Policy constants are injected at construction.
type Estimator struct {
	logger *logrus.Logger
	policy domain.CostPolicy
}

// NewEstimator creates a cost estimator with the given policy constants.
func NewEstimator(logger *logrus.Logger, policy domain.CostPolicy) *Estimator {
	return &Estimator{logger: logger, policy: policy}
}

// DenialProbability resolves the denial probability for a payer and
// authorization status. Any unmatched combination returns the configured
// default so the projection stays deterministic.
func (e *Estimator) DenialProbability(payerType domain.PayerType, authStatus domain.AuthStatus) float64 {
	if byAuth, ok := denialRiskTable[payerType]; ok {
		if p, ok := byAuth[authStatus]; ok {
			return p
		}
	}
	return e.policy.DefaultDenialRisk
}

// Estimate projects the total cost of the stay: nursing, supplies, pharmacy,
// one-time transport, overhead on direct costs, and the expected loss from
// payer denials against the projected revenue.
func (e *Estimator) Estimate(model domain.CostModel, los int, services domain.SpecialServices,
	needsTransport bool, transportType domain.TransportType, projectedRevenue float64,
	payerType domain.PayerType, authStatus domain.AuthStatus) (*domain.CostBreakdown, error) {

	if los <= 0 {
		return nil, domain.NewValidationError("los", "length of stay must be positive", los)
	}

	days := float64(los)

	nursing := domain.NursingCost{
		HoursPerDay: model.NursingHours,
		HourlyRate:  model.HourlyRate,
	}
	nursing.DailyCost = nursing.HoursPerDay * nursing.HourlyRate
	nursing.TotalCost = nursing.DailyCost * days

	supplies := e.estimateSupplies(model.SupplyCost, days, services)
	pharmacy := e.estimatePharmacy(days, services)
	transport := e.transportCost(needsTransport, transportType)

	directCost := nursing.TotalCost + supplies.TotalCost + pharmacy.TotalCost + transport
	overheadCost := directCost * e.policy.OverheadRate

	prob := e.DenialProbability(payerType, authStatus)
	denial := domain.DenialRisk{
		Probability:   prob,
		AvgLossPct:    e.policy.AvgDenialLossPct,
		ExpectedLoss:  projectedRevenue * prob * e.policy.AvgDenialLossPct,
		RevenueAtRisk: projectedRevenue * e.policy.AvgDenialLossPct,
	}

	totalNoRisk := directCost + overheadCost
	totalCost := totalNoRisk + denial.ExpectedLoss

	breakdown := &domain.CostBreakdown{
		AcuityBand:      model.AcuityBand,
		LOS:             los,
		Nursing:         nursing,
		Supplies:        supplies,
		Pharmacy:        pharmacy,
		TransportCost:   transport,
		TotalDirectCost: directCost,
		OverheadRate:    e.policy.OverheadRate,
		OverheadCost:    overheadCost,
		DenialRisk:      denial,
		TotalCost:       totalCost,
		TotalCostNoRisk: totalNoRisk,
		PerDiemCost:     totalCost / days,
	}

	e.logger.WithFields(logrus.Fields{
		"acuity_band":   model.AcuityBand,
		"los":           los,
		"total_cost":    totalCost,
		"denial_prob":   prob,
		"expected_loss": denial.ExpectedLoss,
	}).Debug("Estimated admission cost")

	return breakdown, nil
}

func (e *Estimator) estimateSupplies(baseDaily, days float64, services domain.SpecialServices) domain.SupplyCost {
	breakdown := map[string]float64{"base_supplies": baseDaily}
	daily := baseDaily

	if services.WoundVac {
		breakdown["wound_vac"] = woundVacSupplyDaily
		daily += woundVacSupplyDaily
	}
	if services.Oxygen {
		breakdown["oxygen"] = oxygenSupplyDaily
		daily += oxygenSupplyDaily
	}
	if services.FeedingTube {
		breakdown["feeding_tube"] = feedingTubeSupplyDaily
		daily += feedingTubeSupplyDaily
	}

	return domain.SupplyCost{
		DailyCost: daily,
		TotalCost: daily * days,
		Breakdown: breakdown,
	}
}

// estimatePharmacy prices daily medications. The base medication cost
// applies to every patient regardless of special services.
func (e *Estimator) estimatePharmacy(days float64, services domain.SpecialServices) domain.PharmacyCost {
	breakdown := map[string]float64{"base_medications": e.policy.BaseMedsCostPerDay}
	daily := e.policy.BaseMedsCostPerDay

	if services.IVAbx {
		breakdown["iv_antibiotics"] = ivAbxPharmacyDaily
		daily += ivAbxPharmacyDaily
	}
	if services.WoundVac {
		breakdown["wound_medications"] = woundMedsDaily
		daily += woundMedsDaily
	}

	return domain.PharmacyCost{
		DailyCost: daily,
		TotalCost: daily * days,
		Breakdown: breakdown,
	}
}

// transportCost is a one-time charge, never multiplied by LOS. An
// unrecognized transport type prices as a wheelchair van.
func (e *Estimator) transportCost(needsTransport bool, transportType domain.TransportType) float64 {
	if !needsTransport {
		return 0
	}
	if transportType == domain.TransportAmbulance {
		return e.policy.AmbulanceCost
	}
	return e.policy.WheelchairVanCost
}

// AcuityBandFor derives the cost-model acuity band from the classification
// and special services. The band selects which facility cost model prices
// the stay; extensive-service and dialysis/trach patients price as complex.
func AcuityBandFor(groups *domain.PDPMGroups, services domain.SpecialServices) domain.AcuityBand {
	switch {
	case groups.NursingGroup.IsExtensiveServices() || services.Dialysis || services.Trach:
		return domain.AcuityComplex
	case services.WoundVac || services.IVAbx:
		return domain.AcuityHigh
	case groups.NursingGroup == domain.NursingHBS1 || groups.NursingGroup == domain.NursingHBS2:
		return domain.AcuityMedium
	default:
		return domain.AcuityLow
	}
}
