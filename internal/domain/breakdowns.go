package domain

import "time"

// RevenueBreakdown is the reimbursement projection for one assessment.
// Exactly one payer-specific section is populated, matching PayerType.
// The record is a pure function of its inputs and never mutated.
type RevenueBreakdown struct {
	PayerType    PayerType `json:"payer_type"`
	LOS          int       `json:"los"`
	TotalRevenue float64   `json:"total_revenue"`
	PerDiemRate  float64   `json:"per_diem_rate"`

	MedicareFFS  *MedicareFFSRevenue  `json:"medicare_ffs,omitempty"`
	MACommercial *MACommercialRevenue `json:"ma_commercial,omitempty"`
	MedicaidWI   *MedicaidWIRevenue   `json:"medicaid_wi,omitempty"`
	FamilyCareWI *FamilyCareWIRevenue `json:"family_care_wi,omitempty"`
}

// MedicareFFSRevenue is the component-level Medicare FFS audit breakdown.
// Component revenues for the case-mix components are shown wage-adjusted.
type MedicareFFSRevenue struct {
	PTRevenue         float64 `json:"pt_revenue"`
	OTRevenue         float64 `json:"ot_revenue"`
	SLPRevenue        float64 `json:"slp_revenue"`
	NursingRevenue    float64 `json:"nursing_revenue"`
	NTARevenue        float64 `json:"nta_revenue"`
	NonCaseMixRevenue float64 `json:"non_case_mix_revenue"`
	TotalBeforeVBP    float64 `json:"total_before_vbp"`
	VBPAdjustment     float64 `json:"vbp_adjustment"`
	WageIndex         float64 `json:"wage_index"`
	VBPMultiplier     float64 `json:"vbp_multiplier"`
}

// MACommercialRevenue is the MA/Commercial audit breakdown.
type MACommercialRevenue struct {
	ContractType        MACommercialContractType `json:"contract_type"`
	BaseMedicareRevenue float64                  `json:"base_medicare_revenue,omitempty"`
	Multiplier          float64                  `json:"multiplier,omitempty"`
}

// MedicaidWIRevenue is the Wisconsin Medicaid audit breakdown.
type MedicaidWIRevenue struct {
	RateShape      string  `json:"rate_shape"` // "per_diem" or "component"
	NursingRevenue float64 `json:"nursing_revenue,omitempty"`
	TherapyRevenue float64 `json:"therapy_revenue,omitempty"`
	RoomRevenue    float64 `json:"room_revenue,omitempty"`
}

// FamilyCareWIRevenue is the Wisconsin Family Care audit breakdown.
type FamilyCareWIRevenue struct {
	NursingGroup   NursingGroup `json:"nursing_group"`
	NTABracket     string       `json:"nta_bracket"`
	NursingRevenue float64      `json:"nursing_revenue"`
	NTARevenue     float64      `json:"nta_revenue"`
}

// NursingCost is the nursing component of the cost projection.
type NursingCost struct {
	HoursPerDay float64 `json:"hours_per_day"`
	HourlyRate  float64 `json:"hourly_rate"`
	DailyCost   float64 `json:"daily_cost"`
	TotalCost   float64 `json:"total_cost"`
}

// SupplyCost is the supply component, including special-service add-ons.
type SupplyCost struct {
	DailyCost float64            `json:"daily_cost"`
	TotalCost float64            `json:"total_cost"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// PharmacyCost is the pharmacy component, including special-service add-ons.
type PharmacyCost struct {
	DailyCost float64            `json:"daily_cost"`
	TotalCost float64            `json:"total_cost"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// DenialRisk is the expected-loss projection from payer denials.
type DenialRisk struct {
	Probability   float64 `json:"probability"`
	AvgLossPct    float64 `json:"avg_loss_pct"`
	ExpectedLoss  float64 `json:"expected_loss"`
	RevenueAtRisk float64 `json:"revenue_at_risk"`
}

// CostBreakdown is the cost projection for one assessment.
type CostBreakdown struct {
	AcuityBand      AcuityBand   `json:"acuity_band"`
	LOS             int          `json:"los"`
	Nursing         NursingCost  `json:"nursing"`
	Supplies        SupplyCost   `json:"supplies"`
	Pharmacy        PharmacyCost `json:"pharmacy"`
	TransportCost   float64      `json:"transport_cost"`
	TotalDirectCost float64      `json:"total_direct_cost"`
	OverheadRate    float64      `json:"overhead_rate"`
	OverheadCost    float64      `json:"overhead_cost"`
	DenialRisk      DenialRisk   `json:"denial_risk"`
	TotalCost       float64      `json:"total_cost"`
	TotalCostNoRisk float64      `json:"total_cost_no_risk"`
	PerDiemCost     float64      `json:"per_diem_cost"`
}

// MarginSummary holds the base financial margin metrics.
type MarginSummary struct {
	TotalMargin      float64 `json:"total_margin"`
	MarginPercentage float64 `json:"margin_percentage"`
	PerDiemMargin    float64 `json:"per_diem_margin"`
	ProjectedRevenue float64 `json:"projected_revenue"`
	ProjectedCost    float64 `json:"projected_cost"`
	LOS              int     `json:"los"`
}

// Adjustment carries one score adjustment with raw and weighted values and
// the weight applied, so reviewers can reproduce the arithmetic.
type Adjustment struct {
	RawValue      float64 `json:"raw_value"`
	WeightedValue float64 `json:"weighted_value"`
	Weight        float64 `json:"weight"`
	Description   string  `json:"description"`
}

// Adjustments groups the four score adjustments by name.
type Adjustments struct {
	Census      Adjustment `json:"census_factor"`
	DenialRisk  Adjustment `json:"denial_risk"`
	Complexity  Adjustment `json:"complexity"`
	ReadmitRisk Adjustment `json:"readmit_risk"`
}

// Explanation is the full audit trail for one margin score. Every
// intermediate value of the calculation is carried; it is a required output,
// not an optional log.
type Explanation struct {
	BaseMargin  MarginSummary `json:"base_margin"`
	BaseScore   float64       `json:"base_score"`
	Adjustments Adjustments   `json:"adjustments"`
	FinalScore  float64       `json:"final_score"`
}

// ScoreInput is the full input to one margin-score calculation.
type ScoreInput struct {
	ProjectedRevenue  float64         `json:"projected_revenue"`
	ProjectedCost     float64         `json:"projected_cost"`
	LOS               int             `json:"los"`
	Groups            *PDPMGroups     `json:"groups"`
	SpecialServices   SpecialServices `json:"special_services"`
	DenialProbability float64         `json:"denial_probability"`
	CurrentCensusPct  float64         `json:"current_census_pct"`
	TargetCensusPct   float64         `json:"target_census_pct"`
	ClinicalNotes     string          `json:"clinical_notes"`
	PriorReadmission  bool            `json:"prior_readmission"`
}

// MarginScore is the scoring engine output: the 0-100 score, the
// recommendation thresholds applied to it, and the explanation.
type MarginScore struct {
	FinalScore     float64        `json:"final_score"`
	Recommendation Recommendation `json:"recommendation"`
	Rationale      string         `json:"rationale"`
	Explanation    Explanation    `json:"explanation"`
}

// AssessmentResult is the complete result of one admission assessment as
// handed to the audit layer.
type AssessmentResult struct {
	ID              string           `json:"id"`
	FacilityID      string           `json:"facility_id"`
	PayerID         string           `json:"payer_id"`
	PayerType       PayerType        `json:"payer_type"`
	PatientInitials string           `json:"patient_initials"`
	Groups          PDPMGroups       `json:"pdpm_groups"`
	Revenue         RevenueBreakdown `json:"revenue"`
	Cost            CostBreakdown    `json:"cost"`
	ProjectedLOS    int              `json:"projected_los"`
	MarginScore     float64          `json:"margin_score"`
	Recommendation  Recommendation   `json:"recommendation"`
	Rationale       string           `json:"rationale"`
	Explanation     Explanation      `json:"explanation"`
	CreatedAt       time.Time        `json:"created_at"`
}
