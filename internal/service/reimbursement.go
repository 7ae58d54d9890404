package service

import (
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// laborPortion is the labor share of the wage-index-adjusted PDPM
// components (PT, OT, SLP, nursing). The remaining share, and all of the
// NTA and non-case-mix components, are wage-index-invariant.
const laborPortion = 0.713

// Fallbacks when a Family Care matrix has no entry for the looked-up key.
const (
	familyCareNursingFallback = 275.00
	familyCareNTALowFallback  = 70.00
	familyCareNTAMidFallback  = 85.00
	familyCareNTAHighFallback = 100.00
)

// vpdFactor returns the Medicare variable per diem factor for a 1-indexed
// stay day. The schedule front-loads therapy payment: days 19 and 20 share
// the 0.85 floor with all later days, a documented boundary of the published
// schedule that is preserved as-is.
func vpdFactor(day int) float64 {
	switch {
	case day <= 3:
		return 1.00
	case day <= 6:
		return 0.98
	case day <= 10:
		return 0.95
	case day <= 14:
		return 0.92
	case day <= 18:
		return 0.88
	default:
		return 0.85
	}
}

// Calculator projects stay revenue for each supported payer contract.
// All lookup tables it reads are immutable, so it is safe for concurrent use.
type Calculator struct {
	logger *logrus.Logger
}

// NewCalculator creates a reimbursement calculator.
func NewCalculator(logger *logrus.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Calculate dispatches to the payer-specific revenue algorithm selected by
// the rate data's payer type. An unrecognized payer type fails with
// UnsupportedPayerTypeError rather than defaulting to any algorithm.
func (c *Calculator) Calculate(groups *domain.PDPMGroups, rates domain.RateData, los int, facility domain.FacilityContext) (*domain.RevenueBreakdown, error) {
	if los <= 0 {
		return nil, domain.NewValidationError("los", "length of stay must be positive", los)
	}
	if rates == nil {
		return nil, domain.NewValidationError("rate_data", "rate data is required", nil)
	}

	var (
		breakdown *domain.RevenueBreakdown
		err       error
	)
	switch r := rates.(type) {
	case domain.MedicareFFSRates:
		breakdown = c.calculateMedicareFFS(groups, r, los, facility)
	case domain.MACommercialRates:
		breakdown, err = c.calculateMACommercial(groups, r, los)
	case domain.MedicaidWIRates:
		breakdown, err = c.calculateMedicaidWI(r, los)
	case domain.FamilyCareWIRates:
		breakdown = c.calculateFamilyCareWI(groups, r, los)
	default:
		return nil, &domain.UnsupportedPayerTypeError{PayerType: string(rates.PayerType())}
	}
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"payer_type":    breakdown.PayerType,
		"los":           los,
		"total_revenue": breakdown.TotalRevenue,
		"per_diem_rate": breakdown.PerDiemRate,
	}).Debug("Calculated projected revenue")

	return breakdown, nil
}

// calculateMedicareFFS runs the PDPM per-diem accrual. PT and OT accrue
// under the variable per diem schedule every day; SLP accrues only when an
// SLP group is assigned. Nursing, NTA, and non-case-mix accrue flat. The
// wage index applies to the labor portion of the PT/OT/SLP/nursing sum, and
// the VBP multiplier scales the grand total.
func (c *Calculator) calculateMedicareFFS(groups *domain.PDPMGroups, rates domain.MedicareFFSRates, los int, facility domain.FacilityContext) *domain.RevenueBreakdown {
	var ptRevenue, otRevenue, slpRevenue float64
	for day := 1; day <= los; day++ {
		factor := vpdFactor(day)
		ptRevenue += rates.PTComponent * factor
		otRevenue += rates.OTComponent * factor
		if groups.SLPGroup != domain.SLPGroupNone {
			slpRevenue += rates.SLPComponent * factor
		}
	}

	nursingRevenue := rates.NursingComponent * float64(los)
	ntaRevenue := rates.NTAComponent * float64(los)
	nonCaseMixRevenue := rates.NonCaseMix * float64(los)

	wageAdjust := func(v float64) float64 {
		return v*laborPortion*facility.WageIndex + v*(1-laborPortion)
	}

	caseMixTotal := ptRevenue + otRevenue + slpRevenue + nursingRevenue
	totalBeforeVBP := wageAdjust(caseMixTotal) + ntaRevenue + nonCaseMixRevenue
	totalRevenue := totalBeforeVBP * facility.VBPMultiplier

	return &domain.RevenueBreakdown{
		PayerType:    domain.MedicareFFS,
		LOS:          los,
		TotalRevenue: totalRevenue,
		PerDiemRate:  totalRevenue / float64(los),
		MedicareFFS: &domain.MedicareFFSRevenue{
			PTRevenue:         wageAdjust(ptRevenue),
			OTRevenue:         wageAdjust(otRevenue),
			SLPRevenue:        wageAdjust(slpRevenue),
			NursingRevenue:    wageAdjust(nursingRevenue),
			NTARevenue:        ntaRevenue,
			NonCaseMixRevenue: nonCaseMixRevenue,
			TotalBeforeVBP:    totalBeforeVBP,
			VBPAdjustment:     totalRevenue - totalBeforeVBP,
			WageIndex:         facility.WageIndex,
			VBPMultiplier:     facility.VBPMultiplier,
		},
	}
}

// calculateMACommercial handles both MA/Commercial contract shapes: a
// day-tiered per-diem schedule, or the Medicare FFS computation at neutral
// facility modifiers scaled by a contract multiplier.
func (c *Calculator) calculateMACommercial(groups *domain.PDPMGroups, rates domain.MACommercialRates, los int) (*domain.RevenueBreakdown, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}

	switch rates.ContractType {
	case domain.ContractPerDiem:
		var total float64
		for day := 1; day <= los; day++ {
			total += rates.DayTiers.RateForDay(day)
		}
		return &domain.RevenueBreakdown{
			PayerType:    domain.MACommercial,
			LOS:          los,
			TotalRevenue: total,
			PerDiemRate:  total / float64(los),
			MACommercial: &domain.MACommercialRevenue{ContractType: domain.ContractPerDiem},
		}, nil

	case domain.ContractPDPMMapped:
		// MA plans typically pay a contracted percentage of the Medicare
		// FFS equivalent, computed at neutral wage index and VBP.
		base := c.calculateMedicareFFS(groups, *rates.ComponentRates, los, domain.DefaultFacilityContext())
		total := base.TotalRevenue * rates.PDPMMultiplier
		return &domain.RevenueBreakdown{
			PayerType:    domain.MACommercial,
			LOS:          los,
			TotalRevenue: total,
			PerDiemRate:  total / float64(los),
			MACommercial: &domain.MACommercialRevenue{
				ContractType:        domain.ContractPDPMMapped,
				BaseMedicareRevenue: base.TotalRevenue,
				Multiplier:          rates.PDPMMultiplier,
			},
		}, nil

	default:
		return nil, &domain.UnsupportedPayerTypeError{PayerType: string(domain.MACommercial)}
	}
}

// calculateMedicaidWI handles the two Wisconsin Medicaid rate shapes:
// a facility flat per-diem, or nursing/therapy/room component rates.
func (c *Calculator) calculateMedicaidWI(rates domain.MedicaidWIRates, los int) (*domain.RevenueBreakdown, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}

	if rates.PerDiemRate != nil {
		total := *rates.PerDiemRate * float64(los)
		return &domain.RevenueBreakdown{
			PayerType:    domain.MedicaidWI,
			LOS:          los,
			TotalRevenue: total,
			PerDiemRate:  *rates.PerDiemRate,
			MedicaidWI:   &domain.MedicaidWIRevenue{RateShape: "per_diem"},
		}, nil
	}

	comp := rates.Components
	total := (comp.Nursing + comp.Therapy + comp.Room) * float64(los)
	return &domain.RevenueBreakdown{
		PayerType:    domain.MedicaidWI,
		LOS:          los,
		TotalRevenue: total,
		PerDiemRate:  total / float64(los),
		MedicaidWI: &domain.MedicaidWIRevenue{
			RateShape:      "component",
			NursingRevenue: comp.Nursing * float64(los),
			TherapyRevenue: comp.Therapy * float64(los),
			RoomRevenue:    comp.Room * float64(los),
		},
	}, nil
}

// calculateFamilyCareWI prices the stay from the MCO nursing-group and
// NTA-bracket matrices. Matrix misses fall back to fixed constants so the
// projection stays deterministic when a contract omits a row.
func (c *Calculator) calculateFamilyCareWI(groups *domain.PDPMGroups, rates domain.FamilyCareWIRates, los int) *domain.RevenueBreakdown {
	nursingRate, ok := rates.NursingMatrix[groups.NursingGroup]
	if !ok {
		nursingRate = familyCareNursingFallback
	}

	bracket, fallback := ntaBracket(groups.NTAScore)
	ntaRate, ok := rates.NTAMatrix[bracket]
	if !ok {
		ntaRate = fallback
	}

	total := (nursingRate + ntaRate) * float64(los)
	return &domain.RevenueBreakdown{
		PayerType:    domain.FamilyCareWI,
		LOS:          los,
		TotalRevenue: total,
		PerDiemRate:  total / float64(los),
		FamilyCareWI: &domain.FamilyCareWIRevenue{
			NursingGroup:   groups.NursingGroup,
			NTABracket:     bracket,
			NursingRevenue: nursingRate * float64(los),
			NTARevenue:     ntaRate * float64(los),
		},
	}
}

// ntaBracket maps an NTA score to its Family Care matrix bracket and the
// fallback rate for that bracket.
func ntaBracket(score int) (string, float64) {
	switch {
	case score >= 12:
		return domain.NTABracketHigh, familyCareNTAHighFallback
	case score >= 6:
		return domain.NTABracketMid, familyCareNTAMidFallback
	default:
		return domain.NTABracketLow, familyCareNTALowFallback
	}
}
