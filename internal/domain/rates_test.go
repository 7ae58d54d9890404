package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalRateData(t *testing.T) {
	tests := []struct {
		name      string
		payerType PayerType
		raw       string
		wantErr   bool
	}{
		{
			name:      "medicare ffs components",
			payerType: MedicareFFS,
			raw:       `{"pt_component":64.89,"ot_component":64.38,"slp_component":26.43,"nursing_component":105.81,"nta_component":86.72,"non_case_mix":98.13}`,
		},
		{
			name:      "ma per diem tiers",
			payerType: MACommercial,
			raw:       `{"contract_type":"per_diem","day_tiers":{"days_1_30":485.00,"days_31_60":425.00,"days_61_100":385.00}}`,
		},
		{
			name:      "ma pdpm mapped",
			payerType: MACommercial,
			raw:       `{"contract_type":"pdpm_mapped","pdpm_multiplier":0.95,"component_rates":{"pt_component":64.89,"ot_component":64.38,"slp_component":26.43,"nursing_component":105.81,"nta_component":86.72,"non_case_mix":98.13}}`,
		},
		{
			name:      "ma per diem missing tiers",
			payerType: MACommercial,
			raw:       `{"contract_type":"per_diem"}`,
			wantErr:   true,
		},
		{
			name:      "ma unknown contract type",
			payerType: MACommercial,
			raw:       `{"contract_type":"capitated"}`,
			wantErr:   true,
		},
		{
			name:      "medicaid flat per diem",
			payerType: MedicaidWI,
			raw:       `{"per_diem_rate":245.50}`,
		},
		{
			name:      "medicaid components",
			payerType: MedicaidWI,
			raw:       `{"components":{"nursing":150.00,"therapy":60.00,"room":45.00}}`,
		},
		{
			name:      "medicaid both shapes set",
			payerType: MedicaidWI,
			raw:       `{"per_diem_rate":245.50,"components":{"nursing":150.00,"therapy":60.00,"room":45.00}}`,
			wantErr:   true,
		},
		{
			name:      "medicaid neither shape set",
			payerType: MedicaidWI,
			raw:       `{}`,
			wantErr:   true,
		},
		{
			name:      "family care matrices",
			payerType: FamilyCareWI,
			raw:       `{"nursing_matrix":{"ES1":320.00,"HBS1":290.00},"nta_matrix":{"0-5":70.00,"6-11":85.00,"12+":100.00}}`,
		},
		{
			name:      "family care bad bracket",
			payerType: FamilyCareWI,
			raw:       `{"nursing_matrix":{"ES1":320.00},"nta_matrix":{"13+":110.00}}`,
			wantErr:   true,
		},
		{
			name:      "unknown payer type",
			payerType: PayerType("tricare"),
			raw:       `{}`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := UnmarshalRateData(tt.payerType, []byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.payerType, data.PayerType())
		})
	}
}

func TestUnmarshalRateDataUnsupportedPayerError(t *testing.T) {
	_, err := UnmarshalRateData(PayerType("workers_comp"), []byte(`{}`))
	require.Error(t, err)

	var unsupported *UnsupportedPayerTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "workers_comp", unsupported.PayerType)
}

func TestDayTierScheduleRateForDay(t *testing.T) {
	s := DayTierSchedule{Days1To30: 485, Days31To60: 425, Days61To100: 385}

	tests := []struct {
		day      int
		expected float64
	}{
		{1, 485},
		{30, 485},
		{31, 425},
		{60, 425},
		{61, 385},
		{100, 385},
		{150, 385}, // days beyond the schedule clamp to the last tier
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, s.RateForDay(tt.day), "day %d", tt.day)
	}
}

func TestRateRecordActiveOn(t *testing.T) {
	effective := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	openEnded := RateRecord{EffectiveDate: effective}
	assert.False(t, openEnded.ActiveOn(effective.AddDate(0, 0, -1)))
	assert.True(t, openEnded.ActiveOn(effective))
	assert.True(t, openEnded.ActiveOn(effective.AddDate(5, 0, 0)))

	bounded := RateRecord{EffectiveDate: effective, EndDate: &end}
	assert.True(t, bounded.ActiveOn(end))
	assert.False(t, bounded.ActiveOn(end.AddDate(0, 0, 1)))
}

func TestRateRecordValidateShapeMismatch(t *testing.T) {
	rec := RateRecord{
		ID:            "rate-1",
		FacilityID:    "fac-1",
		PayerID:       "payer-1",
		PayerType:     MedicareFFS,
		RateData:      MedicaidWIRates{PerDiemRate: float64Ptr(245.50)},
		EffectiveDate: time.Now(),
	}
	err := rec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match payer_type")
}

func float64Ptr(v float64) *float64 { return &v }
