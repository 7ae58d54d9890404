// Package domain contains core business entities and types for post-acute
// admission margin assessment under PDPM (Patient-Driven Payment Model).
//
// The pipeline classifies clinical features into PDPM payment groups,
// projects reimbursement per payer contract, projects cost, and produces an
// auditable 0-100 margin score with an accept/defer/decline recommendation.
package domain

import (
	"fmt"
	"time"
)

// PayerType identifies the reimbursement algorithm that applies to a rate
// record. Every calculation is payer-specific; an unknown payer type is a
// hard error, never a silent default.
type PayerType string

const (
	MedicareFFS  PayerType = "medicare_ffs"
	MACommercial PayerType = "ma_commercial"
	MedicaidWI   PayerType = "medicaid_wi"
	FamilyCareWI PayerType = "family_care_wi"
)

// PayerTypes lists every supported payer type.
var PayerTypes = []PayerType{MedicareFFS, MACommercial, MedicaidWI, FamilyCareWI}

// NursingGroup is the PDPM nursing case-mix group.
type NursingGroup string

const (
	NursingES1  NursingGroup = "ES1"
	NursingES2  NursingGroup = "ES2"
	NursingHBS1 NursingGroup = "HBS1"
	NursingHBS2 NursingGroup = "HBS2"
	NursingLBS1 NursingGroup = "LBS1"
	NursingLBS2 NursingGroup = "LBS2"
)

// TherapyGroup is the PDPM PT/OT clinical group.
type TherapyGroup string

const (
	TherapyTA TherapyGroup = "TA" // major joint replacement or spinal surgery
	TherapyTB TherapyGroup = "TB" // non-surgical orthopedic
	TherapyTC TherapyGroup = "TC" // acute infections, non-orthopedic surgery
	TherapyTD TherapyGroup = "TD" // medical management (cardiovascular, pulmonary)
	TherapyTE TherapyGroup = "TE" // other
)

// SLPGroupNone is the sentinel for stays with no SLP component.
const SLPGroupNone = "None"

// SLPGroup is the value assigned when SLP services are indicated.
const SLPGroup = "SLP"

// AcuityBand is the coarse cost tier used to select a facility cost model.
type AcuityBand string

const (
	AcuityLow     AcuityBand = "low"
	AcuityMedium  AcuityBand = "medium"
	AcuityHigh    AcuityBand = "high"
	AcuityComplex AcuityBand = "complex"
)

// AuthStatus is the prior-authorization status of the referral.
type AuthStatus string

const (
	AuthGranted AuthStatus = "granted"
	AuthPending AuthStatus = "pending"
	AuthUnknown AuthStatus = "unknown"
)

// TransportType selects the one-time transport cost.
type TransportType string

const (
	TransportAmbulance     TransportType = "ambulance"
	TransportWheelchairVan TransportType = "wheelchair_van"
)

// Recommendation is the admission decision derived from the margin score.
type Recommendation string

const (
	RecommendAccept  Recommendation = "Accept"
	RecommendDefer   Recommendation = "Defer"
	RecommendDecline Recommendation = "Decline"
)

// IsValid reports whether the payer type is one of the supported algorithms.
func (p PayerType) IsValid() bool {
	switch p {
	case MedicareFFS, MACommercial, MedicaidWI, FamilyCareWI:
		return true
	default:
		return false
	}
}

func (p PayerType) String() string { return string(p) }

// IsValid reports whether the nursing group is a recognized PDPM group.
func (g NursingGroup) IsValid() bool {
	switch g {
	case NursingES1, NursingES2, NursingHBS1, NursingHBS2, NursingLBS1, NursingLBS2:
		return true
	default:
		return false
	}
}

// IsExtensiveServices reports whether the group is an extensive-services
// level, which carries a complexity penalty in scoring.
func (g NursingGroup) IsExtensiveServices() bool {
	return g == NursingES1 || g == NursingES2
}

func (g NursingGroup) String() string { return string(g) }

// IsValid reports whether the therapy group is a recognized PDPM group.
func (g TherapyGroup) IsValid() bool {
	switch g {
	case TherapyTA, TherapyTB, TherapyTC, TherapyTD, TherapyTE:
		return true
	default:
		return false
	}
}

func (g TherapyGroup) String() string { return string(g) }

// IsValid reports whether the acuity band is recognized.
func (a AcuityBand) IsValid() bool {
	switch a {
	case AcuityLow, AcuityMedium, AcuityHigh, AcuityComplex:
		return true
	default:
		return false
	}
}

func (a AcuityBand) String() string { return string(a) }

// IsValid reports whether the auth status is recognized.
func (a AuthStatus) IsValid() bool {
	switch a {
	case AuthGranted, AuthPending, AuthUnknown:
		return true
	default:
		return false
	}
}

func (a AuthStatus) String() string { return string(a) }

func (r Recommendation) String() string { return string(r) }

// SpecialServices holds the boolean special-service flags extracted from
// clinical documents. The flags feed NTA scoring, cost add-ons, and the
// scoring engine's complexity penalty.
type SpecialServices struct {
	IVAbx       bool `json:"iv_abx"`
	WoundVac    bool `json:"wound_vac"`
	Dialysis    bool `json:"dialysis"`
	Trach       bool `json:"trach"`
	FeedingTube bool `json:"feeding_tube"`
	Oxygen      bool `json:"oxygen"`
	Bariatric   bool `json:"bariatric"`
}

// TherapyNeeds holds explicit therapy indications from the referral.
type TherapyNeeds struct {
	PT  bool `json:"pt"`
	OT  bool `json:"ot"`
	SLP bool `json:"slp"`
}

// FunctionalStatus holds functional and cognitive assessment scores.
// Scores are pointers because referrals frequently omit them; absent scores
// fall back to documented classification defaults.
type FunctionalStatus struct {
	ADLScore       *int `json:"adl_score,omitempty"`
	CognitiveScore *int `json:"cognitive_score,omitempty"`
}

// ClinicalFeatures is the structured clinical record produced by the
// external extraction service. It is read-only input to the pipeline.
type ClinicalFeatures struct {
	PrimaryDiagnosis string           `json:"primary_diagnosis"`
	Comorbidities    []string         `json:"comorbidities"`
	FunctionalStatus FunctionalStatus `json:"functional_status"`
	TherapyNeeds     TherapyNeeds     `json:"therapy_needs"`
	SpecialServices  SpecialServices  `json:"special_services"`
	ClinicalNotes    string           `json:"clinical_notes"`
	EstimatedLOS     int              `json:"estimated_los"`
	PriorReadmission bool             `json:"prior_readmission"`
}

// PDPMGroups is the payment-group classification for one assessment.
// Created once per assessment and immutable thereafter.
type PDPMGroups struct {
	PTGroup          TherapyGroup `json:"pt_group"`
	OTGroup          TherapyGroup `json:"ot_group"`
	SLPGroup         string       `json:"slp_group"`
	NursingGroup     NursingGroup `json:"nursing_group"`
	NTAScore         int          `json:"nta_score"`
	ClinicalCategory string       `json:"clinical_category"`
}

// Validate enforces the PDPM classification invariants.
func (g *PDPMGroups) Validate() error {
	if !g.PTGroup.IsValid() {
		return fmt.Errorf("pdpm groups validation: invalid pt_group %q", g.PTGroup)
	}
	if !g.NursingGroup.IsValid() {
		return fmt.Errorf("pdpm groups validation: invalid nursing_group %q", g.NursingGroup)
	}
	if g.NTAScore < 0 || g.NTAScore > 12 {
		return fmt.Errorf("pdpm groups validation: nta_score %d out of range [0,12]", g.NTAScore)
	}
	return nil
}

// FacilityContext carries the facility-level payment modifiers applied to
// Medicare FFS calculations.
type FacilityContext struct {
	WageIndex     float64 `json:"wage_index"`
	VBPMultiplier float64 `json:"vbp_multiplier"`
}

// DefaultFacilityContext returns the neutral facility modifiers.
func DefaultFacilityContext() FacilityContext {
	return FacilityContext{WageIndex: 1.0, VBPMultiplier: 1.0}
}

// CostModel holds the facility cost parameters for one acuity band.
type CostModel struct {
	FacilityID    string     `json:"facility_id"`
	AcuityBand    AcuityBand `json:"acuity_band"`
	NursingHours  float64    `json:"nursing_hours"`
	HourlyRate    float64    `json:"hourly_rate"`
	SupplyCost    float64    `json:"supply_cost"`
	PharmacyAddon float64    `json:"pharmacy_addon"`
	TransportCost float64    `json:"transport_cost"`
}

// DefaultCostModel returns the documented fallback cost model used when a
// facility has no model configured for the requested acuity band.
func DefaultCostModel() CostModel {
	return CostModel{
		AcuityBand:   AcuityMedium,
		NursingHours: 4.0,
		HourlyRate:   35.00,
		SupplyCost:   50.00,
	}
}

// ScoringWeights are the business weights applied to score adjustments.
// They are explicit configuration, injected into the scoring engine at
// construction; there is no hidden global.
type ScoringWeights struct {
	Margin      float64 `json:"margin" mapstructure:"margin"`
	Census      float64 `json:"census" mapstructure:"census"`
	DenialRisk  float64 `json:"denial_risk" mapstructure:"denial_risk"`
	Complexity  float64 `json:"complexity" mapstructure:"complexity"`
	ReadmitRisk float64 `json:"readmit_risk" mapstructure:"readmit_risk"`
}

// DefaultScoringWeights returns the standard business weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Margin:      0.6,
		Census:      0.2,
		DenialRisk:  0.3,
		Complexity:  0.2,
		ReadmitRisk: 0.1,
	}
}

// DefaultTargetCensusPct is the occupancy target used when no facility
// override is configured.
const DefaultTargetCensusPct = 90.0

// ScoreThresholds map the final margin score to a recommendation.
type ScoreThresholds struct {
	Accept float64 `json:"accept" mapstructure:"accept"`
	Defer  float64 `json:"defer" mapstructure:"defer"`
}

// DefaultScoreThresholds returns the standard decision thresholds:
// score >= 70 accepts, 40-69 defers, below 40 declines.
func DefaultScoreThresholds() ScoreThresholds {
	return ScoreThresholds{Accept: 70, Defer: 40}
}

// Recommend converts a final score into a recommendation.
func (t ScoreThresholds) Recommend(score float64) Recommendation {
	switch {
	case score >= t.Accept:
		return RecommendAccept
	case score >= t.Defer:
		return RecommendDefer
	default:
		return RecommendDecline
	}
}

// CostPolicy holds the cost-estimation policy constants. The overhead rate
// and the average partial-denial loss fraction are configuration, not values
// to re-derive.
type CostPolicy struct {
	OverheadRate       float64 `json:"overhead_rate" mapstructure:"overhead_rate"`
	AvgDenialLossPct   float64 `json:"avg_denial_loss_pct" mapstructure:"avg_denial_loss_pct"`
	DefaultDenialRisk  float64 `json:"default_denial_risk" mapstructure:"default_denial_risk"`
	AmbulanceCost      float64 `json:"ambulance_cost" mapstructure:"ambulance_cost"`
	WheelchairVanCost  float64 `json:"wheelchair_van_cost" mapstructure:"wheelchair_van_cost"`
	BaseMedsCostPerDay float64 `json:"base_meds_cost_per_day" mapstructure:"base_meds_cost_per_day"`
}

// DefaultCostPolicy returns the documented policy constants.
func DefaultCostPolicy() CostPolicy {
	return CostPolicy{
		OverheadRate:       0.22,
		AvgDenialLossPct:   0.30,
		DefaultDenialRisk:  0.25,
		AmbulanceCost:      500.00,
		WheelchairVanCost:  150.00,
		BaseMedsCostPerDay: 30.00,
	}
}

// AssessmentRequest is the full input to one admission assessment.
type AssessmentRequest struct {
	FacilityID       string           `json:"facility_id"`
	PayerID          string           `json:"payer_id"`
	PayerType        PayerType        `json:"payer_type"`
	PatientInitials  string           `json:"patient_initials"`
	Features         ClinicalFeatures `json:"features"`
	AuthStatus       AuthStatus       `json:"auth_status"`
	NeedsTransport   bool             `json:"needs_transport"`
	TransportType    TransportType    `json:"transport_type"`
	CurrentCensusPct float64          `json:"current_census_pct"`
	AsOf             time.Time        `json:"as_of"`

	// Facility carries the facility's payment modifiers (CMS wage index,
	// VBP multiplier). Nil means neutral modifiers.
	Facility *FacilityContext `json:"facility,omitempty"`
}
