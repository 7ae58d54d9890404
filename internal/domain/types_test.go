package domain

import (
	"testing"
)

func TestPayerTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    PayerType
		expected string
	}{
		{"Medicare FFS", MedicareFFS, "medicare_ffs"},
		{"MA Commercial", MACommercial, "ma_commercial"},
		{"Medicaid WI", MedicaidWI, "medicaid_wi"},
		{"Family Care WI", FamilyCareWI, "family_care_wi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
			if !tt.value.IsValid() {
				t.Errorf("Expected %s to be valid", tt.value)
			}
		})
	}

	if PayerType("tricare").IsValid() {
		t.Error("Expected unknown payer type to be invalid")
	}
}

func TestNursingGroupExtensiveServices(t *testing.T) {
	tests := []struct {
		name      string
		group     NursingGroup
		extensive bool
	}{
		{"ES1", NursingES1, true},
		{"ES2", NursingES2, true},
		{"HBS1", NursingHBS1, false},
		{"HBS2", NursingHBS2, false},
		{"LBS1", NursingLBS1, false},
		{"LBS2", NursingLBS2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.group.IsExtensiveServices() != tt.extensive {
				t.Errorf("Expected IsExtensiveServices()=%v for %s", tt.extensive, tt.group)
			}
		})
	}
}

func TestPDPMGroupsValidateNTABounds(t *testing.T) {
	base := PDPMGroups{
		PTGroup:      TherapyTA,
		OTGroup:      TherapyTA,
		SLPGroup:     SLPGroupNone,
		NursingGroup: NursingLBS1,
	}

	tests := []struct {
		name    string
		nta     int
		wantErr bool
	}{
		{"lower bound", 0, false},
		{"upper bound", 12, false},
		{"mid range", 6, false},
		{"negative", -1, true},
		{"above cap", 13, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base
			g.NTAScore = tt.nta
			err := g.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for NTA score %d", tt.nta)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error for NTA score %d: %v", tt.nta, err)
			}
		})
	}
}

func TestScoreThresholdsRecommend(t *testing.T) {
	th := DefaultScoreThresholds()

	tests := []struct {
		name     string
		score    float64
		expected Recommendation
	}{
		{"well above accept", 92.5, RecommendAccept},
		{"exactly accept", 70, RecommendAccept},
		{"just below accept", 69.99, RecommendDefer},
		{"exactly defer", 40, RecommendDefer},
		{"just below defer", 39.99, RecommendDecline},
		{"zero", 0, RecommendDecline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Recommend(tt.score); got != tt.expected {
				t.Errorf("Recommend(%v) = %s, want %s", tt.score, got, tt.expected)
			}
		})
	}
}

func TestDefaultScoringWeights(t *testing.T) {
	w := DefaultScoringWeights()
	if w.Margin != 0.6 || w.Census != 0.2 || w.DenialRisk != 0.3 || w.Complexity != 0.2 || w.ReadmitRisk != 0.1 {
		t.Errorf("Unexpected default weights: %+v", w)
	}
}

func TestDefaultCostModelFallback(t *testing.T) {
	m := DefaultCostModel()
	if m.AcuityBand != AcuityMedium {
		t.Errorf("Expected medium acuity fallback, got %s", m.AcuityBand)
	}
	if m.NursingHours != 4.0 || m.HourlyRate != 35.00 || m.SupplyCost != 50.00 {
		t.Errorf("Unexpected fallback cost model: %+v", m)
	}
}
