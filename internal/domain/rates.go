package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MACommercialContractType selects the MA/Commercial contract shape.
type MACommercialContractType string

const (
	ContractPerDiem    MACommercialContractType = "per_diem"
	ContractPDPMMapped MACommercialContractType = "pdpm_mapped"
)

// NTA bracket keys for the Family Care rate matrix.
const (
	NTABracketLow  = "0-5"
	NTABracketMid  = "6-11"
	NTABracketHigh = "12+"
)

// RateData is the payer-specific rate structure carried by a RateRecord.
// Each payer type has exactly one concrete shape; the sum type makes an
// invalid payer/shape combination unrepresentable after construction.
type RateData interface {
	PayerType() PayerType
	Validate() error
}

// MedicareFFSRates carries the six PDPM per-diem component rates.
type MedicareFFSRates struct {
	PTComponent      float64 `json:"pt_component"`
	OTComponent      float64 `json:"ot_component"`
	SLPComponent     float64 `json:"slp_component"`
	NursingComponent float64 `json:"nursing_component"`
	NTAComponent     float64 `json:"nta_component"`
	NonCaseMix       float64 `json:"non_case_mix"`
}

func (r MedicareFFSRates) PayerType() PayerType { return MedicareFFS }

func (r MedicareFFSRates) Validate() error {
	for name, v := range map[string]float64{
		"pt_component":      r.PTComponent,
		"ot_component":      r.OTComponent,
		"slp_component":     r.SLPComponent,
		"nursing_component": r.NursingComponent,
		"nta_component":     r.NTAComponent,
		"non_case_mix":      r.NonCaseMix,
	} {
		if v < 0 {
			return fmt.Errorf("medicare ffs rates: %s must be non-negative", name)
		}
	}
	return nil
}

// DefaultMedicareFFSRates returns the published urban base component rates
// used for seeding and as a reference in tests.
func DefaultMedicareFFSRates() MedicareFFSRates {
	return MedicareFFSRates{
		PTComponent:      64.89,
		OTComponent:      64.38,
		SLPComponent:     26.43,
		NursingComponent: 105.81,
		NTAComponent:     86.72,
		NonCaseMix:       98.13,
	}
}

// DayTierSchedule is the per-diem tier schedule for MA/Commercial per_diem
// contracts. Days beyond the last tier boundary clamp to the last tier.
type DayTierSchedule struct {
	Days1To30   float64 `json:"days_1_30"`
	Days31To60  float64 `json:"days_31_60"`
	Days61To100 float64 `json:"days_61_100"`
}

// RateForDay returns the contracted per-diem rate for a 1-indexed stay day.
func (s DayTierSchedule) RateForDay(day int) float64 {
	switch {
	case day <= 30:
		return s.Days1To30
	case day <= 60:
		return s.Days31To60
	default:
		return s.Days61To100
	}
}

// MACommercialRates carries one of the two MA/Commercial contract shapes:
// a day-tiered per-diem schedule, or a PDPM-mapped contract expressed as a
// multiplier over the Medicare FFS computation.
type MACommercialRates struct {
	ContractType   MACommercialContractType `json:"contract_type"`
	DayTiers       *DayTierSchedule         `json:"day_tiers,omitempty"`
	PDPMMultiplier float64                  `json:"pdpm_multiplier,omitempty"`
	ComponentRates *MedicareFFSRates        `json:"component_rates,omitempty"`
}

func (r MACommercialRates) PayerType() PayerType { return MACommercial }

func (r MACommercialRates) Validate() error {
	switch r.ContractType {
	case ContractPerDiem:
		if r.DayTiers == nil {
			return fmt.Errorf("ma/commercial rates: per_diem contract requires day_tiers")
		}
	case ContractPDPMMapped:
		if r.ComponentRates == nil {
			return fmt.Errorf("ma/commercial rates: pdpm_mapped contract requires component_rates")
		}
		if r.PDPMMultiplier <= 0 {
			return fmt.Errorf("ma/commercial rates: pdpm_mapped contract requires a positive pdpm_multiplier")
		}
		return r.ComponentRates.Validate()
	default:
		return fmt.Errorf("ma/commercial rates: unknown contract_type %q", r.ContractType)
	}
	return nil
}

// MedicaidComponents are the three Wisconsin Medicaid component rates.
type MedicaidComponents struct {
	Nursing float64 `json:"nursing"`
	Therapy float64 `json:"therapy"`
	Room    float64 `json:"room"`
}

// MedicaidWIRates carries one of the two Wisconsin Medicaid shapes:
// a facility flat per-diem, or the three named component rates.
type MedicaidWIRates struct {
	PerDiemRate *float64            `json:"per_diem_rate,omitempty"`
	Components  *MedicaidComponents `json:"components,omitempty"`
}

func (r MedicaidWIRates) PayerType() PayerType { return MedicaidWI }

func (r MedicaidWIRates) Validate() error {
	if (r.PerDiemRate == nil) == (r.Components == nil) {
		return fmt.Errorf("medicaid wi rates: exactly one of per_diem_rate or components is required")
	}
	return nil
}

// FamilyCareWIRates carries the Wisconsin Family Care MCO rate matrices:
// a nursing-group-keyed per-diem matrix and an NTA-bracket-keyed matrix.
// Matrix misses fall back to named constants in the calculator.
type FamilyCareWIRates struct {
	NursingMatrix map[NursingGroup]float64 `json:"nursing_matrix"`
	NTAMatrix     map[string]float64       `json:"nta_matrix"`
}

func (r FamilyCareWIRates) PayerType() PayerType { return FamilyCareWI }

func (r FamilyCareWIRates) Validate() error {
	for group := range r.NursingMatrix {
		if !group.IsValid() {
			return fmt.Errorf("family care wi rates: unknown nursing group %q in matrix", group)
		}
	}
	for bracket := range r.NTAMatrix {
		switch bracket {
		case NTABracketLow, NTABracketMid, NTABracketHigh:
		default:
			return fmt.Errorf("family care wi rates: unknown NTA bracket %q in matrix", bracket)
		}
	}
	return nil
}

// RateRecord is one payer rate configuration for a facility, bounded by
// effective/end dates. At most one record is active per (facility, payer,
// payer type) on any date; the store enforces this by selecting the latest
// effective record.
type RateRecord struct {
	ID            string     `json:"id"`
	FacilityID    string     `json:"facility_id"`
	PayerID       string     `json:"payer_id"`
	PayerType     PayerType  `json:"payer_type"`
	RateData      RateData   `json:"rate_data"`
	EffectiveDate time.Time  `json:"effective_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// ActiveOn reports whether the record is effective on the given date.
func (r *RateRecord) ActiveOn(date time.Time) bool {
	if date.Before(r.EffectiveDate) {
		return false
	}
	return r.EndDate == nil || !date.After(*r.EndDate)
}

// Validate checks the record's tag and shape agree.
func (r *RateRecord) Validate() error {
	if !r.PayerType.IsValid() {
		return &UnsupportedPayerTypeError{PayerType: string(r.PayerType)}
	}
	if r.RateData == nil {
		return fmt.Errorf("rate record validation: rate_data is required")
	}
	if r.RateData.PayerType() != r.PayerType {
		return fmt.Errorf("rate record validation: rate_data shape %q does not match payer_type %q",
			r.RateData.PayerType(), r.PayerType)
	}
	return r.RateData.Validate()
}

// UnmarshalRateData decodes a stored rate_data document into the concrete
// shape for the given payer type. The payer type tag selects the variant;
// a mismatched or unknown tag fails instead of guessing.
func UnmarshalRateData(payerType PayerType, raw []byte) (RateData, error) {
	var (
		data RateData
		err  error
	)
	switch payerType {
	case MedicareFFS:
		var r MedicareFFSRates
		err = json.Unmarshal(raw, &r)
		data = r
	case MACommercial:
		var r MACommercialRates
		err = json.Unmarshal(raw, &r)
		data = r
	case MedicaidWI:
		var r MedicaidWIRates
		err = json.Unmarshal(raw, &r)
		data = r
	case FamilyCareWI:
		var r FamilyCareWIRates
		err = json.Unmarshal(raw, &r)
		data = r
	default:
		return nil, &UnsupportedPayerTypeError{PayerType: string(payerType)}
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s rate data: %w", payerType, err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}
