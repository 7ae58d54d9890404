package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// Assessor orchestrates one admission assessment end to end: PDPM
// classification, rate resolution, revenue projection, cost projection,
// margin scoring, and audit persistence. Each call is independent; the
// assessor holds no per-request state.
type Assessor struct {
	logger     *logrus.Logger
	classifier domain.PDPMClassifier
	calculator domain.ReimbursementCalculator
	estimator  domain.CostEstimator
	scorer     domain.ScoringEngine
	rates      domain.RateStore
	costModels domain.CostModelStore
	audit      domain.AssessmentStore

	targetCensusPct float64
}

// NewAssessor wires the pipeline components together.
func NewAssessor(
	logger *logrus.Logger,
	classifier domain.PDPMClassifier,
	calculator domain.ReimbursementCalculator,
	estimator domain.CostEstimator,
	scorer domain.ScoringEngine,
	rates domain.RateStore,
	costModels domain.CostModelStore,
	audit domain.AssessmentStore,
	targetCensusPct float64,
) *Assessor {
	return &Assessor{
		logger:          logger,
		classifier:      classifier,
		calculator:      calculator,
		estimator:       estimator,
		scorer:          scorer,
		rates:           rates,
		costModels:      costModels,
		audit:           audit,
		targetCensusPct: targetCensusPct,
	}
}

// Assess runs the full admission assessment pipeline for one referral and
// persists the result for audit before returning it.
func (a *Assessor) Assess(ctx context.Context, req *domain.AssessmentRequest) (*domain.AssessmentResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	assessmentID := uuid.New().String()
	log := a.logger.WithFields(logrus.Fields{
		"assessment_id": assessmentID,
		"facility_id":   req.FacilityID,
		"payer_type":    req.PayerType,
	})
	log.Info("Starting admission assessment")

	groups, err := a.classifier.Classify(&req.Features)
	if err != nil {
		return nil, fmt.Errorf("classifying PDPM groups: %w", err)
	}
	if err := groups.Validate(); err != nil {
		return nil, err
	}

	los := req.Features.EstimatedLOS
	if los <= 0 {
		los = a.classifier.EstimateLOS(&req.Features)
		log.WithField("estimated_los", los).Debug("Using estimated length of stay")
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	rateRecord, err := a.rates.CurrentRate(ctx, req.FacilityID, req.PayerID, asOf)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no active rate for facility %s payer %s on %s: %w",
				req.FacilityID, req.PayerID, asOf.Format("2006-01-02"), err)
		}
		return nil, fmt.Errorf("resolving payer rates: %w", err)
	}

	facility := domain.DefaultFacilityContext()
	if req.Facility != nil {
		facility = *req.Facility
		log.WithFields(logrus.Fields{
			"wage_index":     facility.WageIndex,
			"vbp_multiplier": facility.VBPMultiplier,
		}).Debug("Using facility payment modifiers")
	}
	revenue, err := a.calculator.Calculate(groups, rateRecord.RateData, los, facility)
	if err != nil {
		return nil, fmt.Errorf("calculating reimbursement: %w", err)
	}

	band := AcuityBandFor(groups, req.Features.SpecialServices)
	model, err := a.costModels.CostModel(ctx, req.FacilityID, band)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("resolving cost model: %w", err)
		}
		// Missing cost model is a legitimate configuration gap, priced
		// with the documented fallback rather than failed.
		fallback := domain.DefaultCostModel()
		fallback.FacilityID = req.FacilityID
		fallback.AcuityBand = band
		model = &fallback
		log.WithField("acuity_band", band).Warn("No cost model configured, using fallback")
	}

	cost, err := a.estimator.Estimate(*model, los, req.Features.SpecialServices,
		req.NeedsTransport, req.TransportType, revenue.TotalRevenue, req.PayerType, req.AuthStatus)
	if err != nil {
		return nil, fmt.Errorf("estimating cost: %w", err)
	}

	score, err := a.scorer.Score(domain.ScoreInput{
		ProjectedRevenue:  revenue.TotalRevenue,
		ProjectedCost:     cost.TotalCost,
		LOS:               los,
		Groups:            groups,
		SpecialServices:   req.Features.SpecialServices,
		DenialProbability: cost.DenialRisk.Probability,
		CurrentCensusPct:  req.CurrentCensusPct,
		TargetCensusPct:   a.targetCensusPct,
		ClinicalNotes:     req.Features.ClinicalNotes,
		PriorReadmission:  req.Features.PriorReadmission,
	})
	if err != nil {
		return nil, fmt.Errorf("scoring assessment: %w", err)
	}

	result := &domain.AssessmentResult{
		ID:              assessmentID,
		FacilityID:      req.FacilityID,
		PayerID:         req.PayerID,
		PayerType:       req.PayerType,
		PatientInitials: req.PatientInitials,
		Groups:          *groups,
		Revenue:         *revenue,
		Cost:            *cost,
		ProjectedLOS:    los,
		MarginScore:     score.FinalScore,
		Recommendation:  score.Recommendation,
		Rationale:       score.Rationale,
		Explanation:     score.Explanation,
		CreatedAt:       time.Now().UTC(),
	}

	if err := a.audit.SaveAssessment(ctx, result); err != nil {
		// Persistence failure should not discard a completed assessment.
		log.WithError(err).Error("Failed to persist assessment result")
	}

	log.WithFields(logrus.Fields{
		"score":          score.FinalScore,
		"recommendation": score.Recommendation,
		"total_revenue":  revenue.TotalRevenue,
		"total_cost":     cost.TotalCost,
		"projected_los":  los,
	}).Info("Completed admission assessment")

	return result, nil
}

func validateRequest(req *domain.AssessmentRequest) error {
	if req == nil {
		return domain.NewValidationError("request", "request is required", nil)
	}
	if req.FacilityID == "" {
		return domain.NewValidationError("facility_id", "facility_id is required", req.FacilityID)
	}
	if req.PayerID == "" {
		return domain.NewValidationError("payer_id", "payer_id is required", req.PayerID)
	}
	if !req.PayerType.IsValid() {
		return &domain.UnsupportedPayerTypeError{PayerType: string(req.PayerType)}
	}
	if req.AuthStatus == "" {
		req.AuthStatus = domain.AuthUnknown
	}
	if req.Facility != nil {
		if req.Facility.WageIndex <= 0 {
			return domain.NewValidationError("facility.wage_index", "wage_index must be positive", req.Facility.WageIndex)
		}
		if req.Facility.VBPMultiplier <= 0 {
			return domain.NewValidationError("facility.vbp_multiplier", "vbp_multiplier must be positive", req.Facility.VBPMultiplier)
		}
	}
	return nil
}
