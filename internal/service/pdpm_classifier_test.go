package service

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snf-admission-engine/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func intPtr(v int) *int { return &v }

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(testLogger())

	tests := []struct {
		name         string
		features     domain.ClinicalFeatures
		wantCategory string
		wantTherapy  domain.TherapyGroup
		wantNursing  domain.NursingGroup
		wantSLP      string
	}{
		{
			name: "hip osteoarthritis maps to non-surgical ortho",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "M16.11",
				Comorbidities:    []string{"I50.9", "E11.9"},
			},
			wantCategory: "non_surgical_ortho",
			wantTherapy:  domain.TherapyTB,
			wantNursing:  domain.NursingLBS1,
			wantSLP:      domain.SLPGroupNone,
		},
		{
			name: "joint replacement aftercare maps to major joint",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "Z47.1",
			},
			wantCategory: "major_joint",
			wantTherapy:  domain.TherapyTA,
			wantNursing:  domain.NursingHBS1,
			wantSLP:      domain.SLPGroupNone,
		},
		{
			name: "sepsis maps to acute infections",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "A41.9",
			},
			wantCategory: "acute_infections",
			wantTherapy:  domain.TherapyTC,
			wantNursing:  domain.NursingLBS2,
			wantSLP:      domain.SLPGroupNone,
		},
		{
			name: "heart failure maps to cardiovascular medical management",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "I50.23",
			},
			wantCategory: "cardiovascular",
			wantTherapy:  domain.TherapyTD,
			wantNursing:  domain.NursingHBS2,
			wantSLP:      domain.SLPGroupNone,
		},
		{
			name: "unmatched diagnosis defaults to TE and LBS2",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "K21.9",
			},
			wantCategory: "other",
			wantTherapy:  domain.TherapyTE,
			wantNursing:  domain.NursingLBS2,
			wantSLP:      domain.SLPGroupNone,
		},
		{
			name: "dysphagia comorbidity assigns SLP group",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "I50.9",
				Comorbidities:    []string{"R13.12"},
			},
			wantCategory: "cardiovascular",
			wantTherapy:  domain.TherapyTD,
			wantNursing:  domain.NursingHBS2,
			wantSLP:      domain.SLPGroup,
		},
		{
			name: "explicit SLP therapy need assigns SLP group",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "M17.0",
				TherapyNeeds:     domain.TherapyNeeds{SLP: true},
			},
			wantCategory: "non_surgical_ortho",
			wantTherapy:  domain.TherapyTB,
			wantNursing:  domain.NursingLBS1,
			wantSLP:      domain.SLPGroup,
		},
		{
			name:         "empty features fall back to documented defaults",
			features:     domain.ClinicalFeatures{},
			wantCategory: "other",
			wantTherapy:  domain.TherapyTE,
			wantNursing:  domain.NursingLBS2,
			wantSLP:      domain.SLPGroupNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := classifier.Classify(&tt.features)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCategory, groups.ClinicalCategory)
			assert.Equal(t, tt.wantTherapy, groups.PTGroup)
			assert.Equal(t, tt.wantTherapy, groups.OTGroup, "PT and OT groups must match")
			assert.Equal(t, tt.wantNursing, groups.NursingGroup)
			assert.Equal(t, tt.wantSLP, groups.SLPGroup)
			require.NoError(t, groups.Validate())
		})
	}
}

func TestClassifier_CategoryOrderBreaksTies(t *testing.T) {
	classifier := NewClassifier(testLogger())

	// Z47.1 (major_joint) and I50 (cardiovascular) both match; major_joint
	// appears first in the table and must win regardless of code position.
	features := domain.ClinicalFeatures{
		PrimaryDiagnosis: "I50.9",
		Comorbidities:    []string{"Z47.1"},
	}
	groups, err := classifier.Classify(&features)
	require.NoError(t, err)
	assert.Equal(t, "major_joint", groups.ClinicalCategory)
	assert.Equal(t, domain.TherapyTA, groups.PTGroup)
}

func TestClassifier_ExtensiveServicesOverride(t *testing.T) {
	classifier := NewClassifier(testLogger())

	tests := []struct {
		name     string
		services domain.SpecialServices
		adlScore *int
		want     domain.NursingGroup
	}{
		{"trach with high ADL dependence", domain.SpecialServices{Trach: true}, intPtr(15), domain.NursingES1},
		{"trach above cutoff", domain.SpecialServices{Trach: true}, intPtr(20), domain.NursingES1},
		{"dialysis below cutoff", domain.SpecialServices{Dialysis: true}, intPtr(14), domain.NursingES2},
		{"iv antibiotics without ADL score", domain.SpecialServices{IVAbx: true}, nil, domain.NursingES2},
		{"no extensive services keeps category group", domain.SpecialServices{Oxygen: true}, intPtr(20), domain.NursingHBS2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := domain.ClinicalFeatures{
				PrimaryDiagnosis: "I50.9",
				SpecialServices:  tt.services,
				FunctionalStatus: domain.FunctionalStatus{ADLScore: tt.adlScore},
			}
			groups, err := classifier.Classify(&features)
			require.NoError(t, err)
			assert.Equal(t, tt.want, groups.NursingGroup)
		})
	}
}

func TestClassifier_ConfigurableES1Cutoff(t *testing.T) {
	classifier := NewClassifierWithCutoff(testLogger(), 10)

	features := domain.ClinicalFeatures{
		PrimaryDiagnosis: "I50.9",
		SpecialServices:  domain.SpecialServices{Dialysis: true},
		FunctionalStatus: domain.FunctionalStatus{ADLScore: intPtr(12)},
	}
	groups, err := classifier.Classify(&features)
	require.NoError(t, err)
	assert.Equal(t, domain.NursingES1, groups.NursingGroup)
}

func TestClassifier_NTAScore(t *testing.T) {
	classifier := NewClassifier(testLogger())

	tests := []struct {
		name     string
		features domain.ClinicalFeatures
		want     int
	}{
		{
			name:     "no comorbidities",
			features: domain.ClinicalFeatures{PrimaryDiagnosis: "M17.0"},
			want:     0,
		},
		{
			name: "diabetes plus copd",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "M17.0",
				Comorbidities:    []string{"E11.9", "J44.1"},
			},
			want: 7,
		},
		{
			name: "dialysis adds eight points",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "M17.0",
				Comorbidities:    []string{"E11.9"},
				SpecialServices:  domain.SpecialServices{Dialysis: true},
			},
			want: 11,
		},
		{
			name: "heavy comorbidity burden clamps at twelve",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "M17.0",
				Comorbidities:    []string{"A41.9", "B20", "G35", "I50.9"},
				SpecialServices:  domain.SpecialServices{Dialysis: true},
			},
			want: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := classifier.Classify(&tt.features)
			require.NoError(t, err)
			assert.Equal(t, tt.want, groups.NTAScore)
		})
	}
}

func TestClassifier_NTAScoreAlwaysInRange(t *testing.T) {
	classifier := NewClassifier(testLogger())

	// Growing comorbidity lists must never push the score outside [0, 12].
	codes := []string{"A41.9", "B20", "G35", "G20", "G81.90", "I50.9", "J44.1", "E11.9", "F20.0", "F31.9", "E46"}
	for n := 0; n <= len(codes); n++ {
		features := domain.ClinicalFeatures{
			PrimaryDiagnosis: "M17.0",
			Comorbidities:    codes[:n],
			SpecialServices:  domain.SpecialServices{Dialysis: n%2 == 0},
		}
		groups, err := classifier.Classify(&features)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, groups.NTAScore, 0, "with %d comorbidities", n)
		assert.LessOrEqual(t, groups.NTAScore, 12, "with %d comorbidities", n)
	}
}

func TestClassifier_EstimateLOS(t *testing.T) {
	classifier := NewClassifier(testLogger())

	tests := []struct {
		name     string
		features domain.ClinicalFeatures
		want     int
	}{
		{
			name:     "major joint baseline",
			features: domain.ClinicalFeatures{PrimaryDiagnosis: "Z47.1"},
			want:     12,
		},
		{
			name:     "acute infection baseline",
			features: domain.ClinicalFeatures{PrimaryDiagnosis: "A41.9"},
			want:     18,
		},
		{
			name:     "unmatched diagnosis baseline",
			features: domain.ClinicalFeatures{PrimaryDiagnosis: "K21.9"},
			want:     15,
		},
		{
			name: "special services extend the stay",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "K21.9",
				SpecialServices:  domain.SpecialServices{Dialysis: true, WoundVac: true, Trach: true},
			},
			want: 30,
		},
		{
			name: "measured LOS wins over the estimate",
			features: domain.ClinicalFeatures{
				PrimaryDiagnosis: "Z47.1",
				EstimatedLOS:     25,
			},
			want: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.EstimateLOS(&tt.features))
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	classifier := NewClassifier(testLogger())
	features := domain.ClinicalFeatures{
		PrimaryDiagnosis: "M16.11",
		Comorbidities:    []string{"I50.9", "E11.9", "J44.0", "R13.12"},
		SpecialServices:  domain.SpecialServices{IVAbx: true, Oxygen: true},
		FunctionalStatus: domain.FunctionalStatus{ADLScore: intPtr(16)},
	}

	first, err := classifier.Classify(&features)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := classifier.Classify(&features)
		require.NoError(t, err)
		assert.Equal(t, first, again, fmt.Sprintf("run %d diverged", i))
	}
}
