package domain

import (
	"context"
	"time"
)

// FeatureExtractor turns referral documents into structured clinical features.
type FeatureExtractor interface {
	ExtractFeatures(ctx context.Context, referralText string) (*ClinicalFeatures, error)
}

// PDPMClassifier assigns PDPM payment groups from clinical features.
type PDPMClassifier interface {
	Classify(features *ClinicalFeatures) (*PDPMGroups, error)
	EstimateLOS(features *ClinicalFeatures) int
}

// ReimbursementCalculator projects stay revenue for one payer contract.
type ReimbursementCalculator interface {
	Calculate(groups *PDPMGroups, rates RateData, los int, facility FacilityContext) (*RevenueBreakdown, error)
}

// CostEstimator projects stay cost including overhead and denial risk.
type CostEstimator interface {
	Estimate(model CostModel, los int, services SpecialServices, needsTransport bool,
		transportType TransportType, projectedRevenue float64,
		payerType PayerType, authStatus AuthStatus) (*CostBreakdown, error)
	DenialProbability(payerType PayerType, authStatus AuthStatus) float64
}

// ScoringEngine produces the 0-100 margin score with a full explanation.
type ScoringEngine interface {
	Score(input ScoreInput) (*MarginScore, error)
}

// AssessmentService runs the full admission assessment pipeline.
type AssessmentService interface {
	Assess(ctx context.Context, req *AssessmentRequest) (*AssessmentResult, error)
}

// RateStore resolves the active payer contract rates for a facility.
type RateStore interface {
	CurrentRate(ctx context.Context, facilityID, payerID string, asOf time.Time) (*RateRecord, error)
}

// CostModelStore resolves the facility cost model for an acuity band.
type CostModelStore interface {
	CostModel(ctx context.Context, facilityID string, band AcuityBand) (*CostModel, error)
}

// AssessmentStore persists completed assessments for audit and review.
type AssessmentStore interface {
	SaveAssessment(ctx context.Context, result *AssessmentResult) error
	GetAssessment(ctx context.Context, id string) (*AssessmentResult, error)
	ListAssessments(ctx context.Context, facilityID string, limit int) ([]*AssessmentResult, error)
	Close() error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
