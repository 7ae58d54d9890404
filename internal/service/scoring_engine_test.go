package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snf-admission-engine/internal/domain"
)

func defaultScorer() *Scorer {
	return NewScorer(testLogger(), domain.DefaultScoringWeights(), domain.DefaultScoreThresholds())
}

func baselineScoreInput() domain.ScoreInput {
	return domain.ScoreInput{
		ProjectedRevenue: 8500.00,
		ProjectedCost:    6200.00,
		LOS:              15,
		Groups:           &domain.PDPMGroups{NursingGroup: domain.NursingHBS1, PTGroup: domain.TherapyTB},
		CurrentCensusPct: 85,
		TargetCensusPct:  90,
	}
}

func TestNormalizeMarginScore(t *testing.T) {
	tests := []struct {
		name   string
		margin float64
		want   float64
	}{
		{"zero margin sits at midpoint", 0, 50},
		{"200 per day lands at 75", 200, 75},
		{"100 per day lands near 67", 100, 50 + (100.0/300.0)*50},
		{"negative margin penalized linearly", -50, 25},
		{"deeply negative margin floors at zero", -500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalizeMarginScore(tt.margin), 0.001)
		})
	}

	// Asymptotic toward 100, never reaching it.
	assert.Less(t, normalizeMarginScore(100000), 100.0)
	assert.Greater(t, normalizeMarginScore(100000), 99.0)
}

func TestScorer_Score(t *testing.T) {
	scorer := defaultScorer()

	score, err := scorer.Score(baselineScoreInput())
	require.NoError(t, err)

	// Per-diem margin 2300/15 = 153.33; base 50 + (153.33/353.33)*50 = 71.7.
	assert.InDelta(t, 71.698, score.Explanation.BaseScore, 0.01)

	// Census 5 under target, weighted by 0.2.
	assert.InDelta(t, 5.0, score.Explanation.Adjustments.Census.RawValue, 0.001)
	assert.InDelta(t, 1.0, score.Explanation.Adjustments.Census.WeightedValue, 0.001)

	assert.InDelta(t, score.FinalScore, score.Explanation.FinalScore, 0.0001)
	assert.GreaterOrEqual(t, score.FinalScore, 0.0)
	assert.LessOrEqual(t, score.FinalScore, 100.0)
	assert.Equal(t, domain.RecommendAccept, score.Recommendation)
	assert.NotEmpty(t, score.Rationale)
}

func TestScorer_ComplexityPenalty(t *testing.T) {
	tests := []struct {
		name     string
		groups   domain.PDPMGroups
		services domain.SpecialServices
		want     float64
	}{
		{"no complexity", domain.PDPMGroups{NursingGroup: domain.NursingLBS1}, domain.SpecialServices{}, 0},
		{"extensive services group", domain.PDPMGroups{NursingGroup: domain.NursingES2}, domain.SpecialServices{}, 5},
		{"dialysis", domain.PDPMGroups{NursingGroup: domain.NursingLBS1}, domain.SpecialServices{Dialysis: true}, 8},
		{"trach and wound vac", domain.PDPMGroups{NursingGroup: domain.NursingLBS1}, domain.SpecialServices{Trach: true, WoundVac: true}, 10},
		{
			"everything caps at twenty",
			domain.PDPMGroups{NursingGroup: domain.NursingES1},
			domain.SpecialServices{Dialysis: true, Trach: true, WoundVac: true, IVAbx: true},
			20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, complexityPenaltyFor(&tt.groups, tt.services))
		})
	}
}

func TestScorer_ReadmitPenalty(t *testing.T) {
	tests := []struct {
		name    string
		notes   string
		history bool
		want    float64
	}{
		{"clean notes", "Patient stable, motivated for therapy", false, 0},
		{"single phrase", "High FALLS RISK noted on intake", false, 2},
		{"two phrases", "falls risk; poor compliance with medications", false, 4},
		{"history only", "", true, 5},
		{"phrases plus history cap at ten", "falls risk, unstable, acute exacerbation of COPD", true, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readmitPenaltyFor(tt.notes, tt.history))
		})
	}
}

func TestScorer_CensusFactorClamped(t *testing.T) {
	scorer := defaultScorer()

	input := baselineScoreInput()
	input.CurrentCensusPct = 50 // 40 points under target
	score, err := scorer.Score(input)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, score.Explanation.Adjustments.Census.RawValue, 0.001)

	input.CurrentCensusPct = 100 // 10 points over target
	score, err = scorer.Score(input)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, score.Explanation.Adjustments.Census.RawValue, 0.001)
}

func TestScorer_DenialPenalty(t *testing.T) {
	scorer := defaultScorer()

	input := baselineScoreInput()
	input.DenialProbability = 0.20
	score, err := scorer.Score(input)
	require.NoError(t, err)

	// 0.20 * 100 * 0.15 = 3.0 raw, weighted by 0.3.
	assert.InDelta(t, 3.0, score.Explanation.Adjustments.DenialRisk.RawValue, 0.001)
	assert.InDelta(t, -0.9, score.Explanation.Adjustments.DenialRisk.WeightedValue, 0.001)
}

func TestScorer_ScoreAlwaysInRange(t *testing.T) {
	scorer := defaultScorer()

	revenues := []float64{0, 500, 8500, 250000}
	costs := []float64{0, 900, 6200, 400000}
	censuses := []float64{40, 85, 100}

	for _, revenue := range revenues {
		for _, cost := range costs {
			for _, census := range censuses {
				input := baselineScoreInput()
				input.ProjectedRevenue = revenue
				input.ProjectedCost = cost
				input.CurrentCensusPct = census
				input.DenialProbability = 0.35
				input.SpecialServices = domain.SpecialServices{Dialysis: true, Trach: true}
				input.ClinicalNotes = "unstable, multiple readmissions"
				input.PriorReadmission = true

				score, err := scorer.Score(input)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, score.FinalScore, 0.0, "revenue %v cost %v", revenue, cost)
				assert.LessOrEqual(t, score.FinalScore, 100.0, "revenue %v cost %v", revenue, cost)
			}
		}
	}
}

func TestScorer_MonotonicInMargin(t *testing.T) {
	scorer := defaultScorer()

	prev := -1.0
	for revenue := 1000.0; revenue <= 30000.0; revenue += 500 {
		input := baselineScoreInput()
		input.ProjectedRevenue = revenue
		input.ProjectedCost = 8000
		input.DenialProbability = 0.15

		score, err := scorer.Score(input)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.FinalScore, prev, "score dropped at revenue %v", revenue)
		prev = score.FinalScore
	}
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := defaultScorer()
	input := baselineScoreInput()
	input.DenialProbability = 0.15
	input.SpecialServices = domain.SpecialServices{IVAbx: true, Oxygen: true}
	input.ClinicalNotes = "falls risk noted"

	first, err := scorer.Score(input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := scorer.Score(input)
		require.NoError(t, err)
		assert.Equal(t, first.Explanation, again.Explanation, "explanation diverged on run %d", i)
		assert.Equal(t, first.FinalScore, again.FinalScore)
	}
}

func TestScorer_InjectedWeightsChangeOutcome(t *testing.T) {
	input := baselineScoreInput()
	input.DenialProbability = 0.35
	input.SpecialServices = domain.SpecialServices{Dialysis: true, Trach: true}

	light := NewScorer(testLogger(), domain.ScoringWeights{Census: 0.2}, domain.DefaultScoreThresholds())
	heavy := NewScorer(testLogger(), domain.ScoringWeights{Census: 0.2, DenialRisk: 1.0, Complexity: 1.0}, domain.DefaultScoreThresholds())

	lightScore, err := light.Score(input)
	require.NoError(t, err)
	heavyScore, err := heavy.Score(input)
	require.NoError(t, err)

	assert.Greater(t, lightScore.FinalScore, heavyScore.FinalScore)
}

func TestScorer_RejectsNonPositiveLOS(t *testing.T) {
	scorer := defaultScorer()
	input := baselineScoreInput()
	input.LOS = 0

	_, err := scorer.Score(input)
	require.Error(t, err)

	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

// Strong-margin Medicare hip replacement stay: comfortably profitable,
// low denial risk, no complexity drivers.
func TestScorer_HipReplacementScenario(t *testing.T) {
	scorer := defaultScorer()

	score, err := scorer.Score(domain.ScoreInput{
		ProjectedRevenue:  218450.00,
		ProjectedCost:     132600.00,
		LOS:               22,
		Groups:            &domain.PDPMGroups{NursingGroup: domain.NursingHBS1, PTGroup: domain.TherapyTA},
		DenialProbability: 0.02,
		CurrentCensusPct:  85,
		TargetCensusPct:   90,
		ClinicalNotes:     "Motivated patient, strong family support",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RecommendAccept, score.Recommendation)
	assert.Greater(t, score.FinalScore, 85.0)
	assert.Positive(t, score.Explanation.BaseMargin.TotalMargin)
	assert.Contains(t, score.Rationale, "Strong financial margin")
}

// Long custodial dementia stay where cost exceeds revenue: negative margin
// drives a Decline.
func TestScorer_DementiaLongStayScenario(t *testing.T) {
	scorer := defaultScorer()

	score, err := scorer.Score(domain.ScoreInput{
		ProjectedRevenue:  30000.00,
		ProjectedCost:     42000.00,
		LOS:               90,
		Groups:            &domain.PDPMGroups{NursingGroup: domain.NursingHBS2, PTGroup: domain.TherapyTE, NTAScore: 12},
		DenialProbability: 0.18,
		CurrentCensusPct:  88,
		TargetCensusPct:   90,
		ClinicalNotes:     "Advanced dementia, falls risk, poor compliance",
	})
	require.NoError(t, err)

	assert.Negative(t, score.Explanation.BaseMargin.TotalMargin)
	assert.Less(t, score.FinalScore, 40.0)
	assert.Equal(t, domain.RecommendDecline, score.Recommendation)
	assert.Contains(t, score.Rationale, "Projected loss")
}
