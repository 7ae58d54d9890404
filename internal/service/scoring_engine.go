package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// highRiskPhrases are matched case-insensitively against clinical notes
// when scoring readmission risk. Each match adds two penalty points.
var highRiskPhrases = []string{
	"falls risk",
	"multiple readmissions",
	"poor compliance",
	"unstable",
	"acute exacerbation",
}

// Penalty caps and scaling constants for score adjustments.
const (
	censusFactorBound    = 10.0
	complexityPenaltyCap = 20.0
	readmitPenaltyCap    = 10.0
	denialPenaltyScale   = 0.15
	phrasePenalty        = 2.0
	historyPenalty       = 5.0
)

// marginNormalizationScale flattens the positive-margin curve: a $200/day
// margin lands at 75 points, asymptotic toward 100.
const marginNormalizationScale = 200.0

// Scorer computes the 0-100 margin score and recommendation. Weights and
// thresholds are injected at construction and never read from globals, so
// two scorers with the same configuration always produce identical output.
type Scorer struct {
	logger     *logrus.Logger
	weights    domain.ScoringWeights
	thresholds domain.ScoreThresholds
}

// NewScorer creates a scoring engine with explicit weights and thresholds.
func NewScorer(logger *logrus.Logger, weights domain.ScoringWeights, thresholds domain.ScoreThresholds) *Scorer {
	return &Scorer{logger: logger, weights: weights, thresholds: thresholds}
}

// Score computes the weighted margin score. The returned explanation carries
// every intermediate value so the decision can be audited line by line.
func (s *Scorer) Score(input domain.ScoreInput) (*domain.MarginScore, error) {
	if input.LOS <= 0 {
		return nil, domain.NewValidationError("los", "length of stay must be positive", input.LOS)
	}

	base := s.baseMargin(input)
	baseScore := normalizeMarginScore(base.PerDiemMargin)

	censusFactor := clamp(-censusFactorBound, censusFactorBound, input.TargetCensusPct-input.CurrentCensusPct)
	complexityPenalty := complexityPenaltyFor(input.Groups, input.SpecialServices)
	readmitPenalty := readmitPenaltyFor(input.ClinicalNotes, input.PriorReadmission)
	denialPenalty := input.DenialProbability * 100 * denialPenaltyScale

	weightedCensus := censusFactor * s.weights.Census
	weightedDenial := denialPenalty * s.weights.DenialRisk
	weightedComplexity := complexityPenalty * s.weights.Complexity
	weightedReadmit := readmitPenalty * s.weights.ReadmitRisk

	finalScore := clamp(0, 100, baseScore+weightedCensus-weightedDenial-weightedComplexity-weightedReadmit)

	explanation := domain.Explanation{
		BaseMargin: base,
		BaseScore:  baseScore,
		Adjustments: domain.Adjustments{
			Census: domain.Adjustment{
				RawValue:      censusFactor,
				WeightedValue: weightedCensus,
				Weight:        s.weights.Census,
				Description:   fmt.Sprintf("Census %.0f%% vs target %.0f%%", input.CurrentCensusPct, input.TargetCensusPct),
			},
			DenialRisk: domain.Adjustment{
				RawValue:      denialPenalty,
				WeightedValue: -weightedDenial,
				Weight:        s.weights.DenialRisk,
				Description:   fmt.Sprintf("Denial risk %.1f%%", input.DenialProbability*100),
			},
			Complexity: domain.Adjustment{
				RawValue:      complexityPenalty,
				WeightedValue: -weightedComplexity,
				Weight:        s.weights.Complexity,
				Description:   fmt.Sprintf("Care complexity penalty %.1f points", complexityPenalty),
			},
			ReadmitRisk: domain.Adjustment{
				RawValue:      readmitPenalty,
				WeightedValue: -weightedReadmit,
				Weight:        s.weights.ReadmitRisk,
				Description:   fmt.Sprintf("Readmit risk penalty %.1f points", readmitPenalty),
			},
		},
		FinalScore: finalScore,
	}

	recommendation := s.thresholds.Recommend(finalScore)

	s.logger.WithFields(logrus.Fields{
		"final_score":     finalScore,
		"base_score":      baseScore,
		"recommendation":  recommendation,
		"per_diem_margin": base.PerDiemMargin,
	}).Debug("Calculated margin score")

	return &domain.MarginScore{
		FinalScore:     finalScore,
		Recommendation: recommendation,
		Rationale:      rationaleFor(recommendation, base),
		Explanation:    explanation,
	}, nil
}

func (s *Scorer) baseMargin(input domain.ScoreInput) domain.MarginSummary {
	totalMargin := input.ProjectedRevenue - input.ProjectedCost
	marginPct := 0.0
	if input.ProjectedRevenue > 0 {
		marginPct = totalMargin / input.ProjectedRevenue * 100
	}
	return domain.MarginSummary{
		TotalMargin:      totalMargin,
		MarginPercentage: marginPct,
		PerDiemMargin:    totalMargin / float64(input.LOS),
		ProjectedRevenue: input.ProjectedRevenue,
		ProjectedCost:    input.ProjectedCost,
		LOS:              input.LOS,
	}
}

// normalizeMarginScore maps a per-diem margin onto the 0-100 scale. Zero
// margin lands at 50. Positive margins climb asymptotically toward 100;
// negative margins fall off linearly and floor at 0.
func normalizeMarginScore(perDiemMargin float64) float64 {
	if perDiemMargin >= 0 {
		return clamp(0, 100, 50+(perDiemMargin/(perDiemMargin+marginNormalizationScale))*50)
	}
	return clamp(0, 100, 50+(perDiemMargin/100)*50)
}

// complexityPenaltyFor scores care complexity from the nursing group and
// special services, capped at 20 points.
func complexityPenaltyFor(groups *domain.PDPMGroups, services domain.SpecialServices) float64 {
	penalty := 0.0
	if groups != nil && groups.NursingGroup.IsExtensiveServices() {
		penalty += 5
	}
	if services.Dialysis {
		penalty += 8
	}
	if services.Trach {
		penalty += 6
	}
	if services.WoundVac {
		penalty += 4
	}
	if services.IVAbx {
		penalty += 3
	}
	if penalty > complexityPenaltyCap {
		penalty = complexityPenaltyCap
	}
	return penalty
}

// readmitPenaltyFor scores readmission risk from high-risk phrases in the
// clinical notes plus prior readmission history, capped at 10 points.
func readmitPenaltyFor(clinicalNotes string, priorReadmission bool) float64 {
	penalty := 0.0
	notes := strings.ToLower(clinicalNotes)
	for _, phrase := range highRiskPhrases {
		if strings.Contains(notes, phrase) {
			penalty += phrasePenalty
		}
	}
	if priorReadmission {
		penalty += historyPenalty
	}
	if penalty > readmitPenaltyCap {
		penalty = readmitPenaltyCap
	}
	return penalty
}

// rationaleFor renders the human-readable recommendation rationale shown to
// admissions staff alongside the score.
func rationaleFor(rec domain.Recommendation, margin domain.MarginSummary) string {
	switch rec {
	case domain.RecommendAccept:
		return fmt.Sprintf("Strong financial margin of $%.2f/day (%.1f%% margin rate). Projected net profit of $%.2f over %d days.",
			margin.PerDiemMargin, margin.MarginPercentage, margin.TotalMargin, margin.LOS)
	case domain.RecommendDefer:
		return fmt.Sprintf("Moderate margin of $%.2f/day (%.1f%% margin rate). Consider negotiating rates or confirming authorization before accepting. Projected net profit of $%.2f over %d days.",
			margin.PerDiemMargin, margin.MarginPercentage, margin.TotalMargin, margin.LOS)
	default:
		if margin.TotalMargin < 0 {
			return fmt.Sprintf("Negative margin of $%.2f/day (%.1f%% margin rate). Projected loss of $%.2f over %d days. Not financially viable without rate renegotiation.",
				margin.PerDiemMargin, margin.MarginPercentage, -margin.TotalMargin, margin.LOS)
		}
		return fmt.Sprintf("Low margin of $%.2f/day (%.1f%% margin rate). High complexity or denial risk reduces overall score. Consider only if census priority is critical.",
			margin.PerDiemMargin, margin.MarginPercentage)
	}
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
