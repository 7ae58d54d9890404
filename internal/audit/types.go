package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/snf-admission-engine/internal/domain"
)

const (
	defaultListLimit = 50
	maxExportLimit   = 1000000
	exportVersion    = "1.0"
)

// AssessmentExport is the envelope written by ExportJSON.
type AssessmentExport struct {
	Version     string                     `json:"version"`
	ExportedAt  time.Time                  `json:"exported_at"`
	FacilityID  string                     `json:"facility_id"`
	Count       int                        `json:"count"`
	Assessments []*domain.AssessmentResult `json:"assessments"`
}

// jsonColumns holds the serialized composite fields of an assessment row.
type jsonColumns struct {
	groups      []byte
	revenue     []byte
	cost        []byte
	explanation []byte
}

func marshalResult(result *domain.AssessmentResult) (*jsonColumns, error) {
	groups, err := json.Marshal(result.Groups)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pdpm groups: %w", err)
	}
	revenue, err := json.Marshal(result.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal revenue: %w", err)
	}
	cost, err := json.Marshal(result.Cost)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cost: %w", err)
	}
	explanation, err := json.Marshal(result.Explanation)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal explanation: %w", err)
	}
	return &jsonColumns{groups: groups, revenue: revenue, cost: cost, explanation: explanation}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanAssessment scans a row into an AssessmentResult, decoding the
// JSON-encoded composite columns.
func scanAssessment(s scanner) (*domain.AssessmentResult, error) {
	result := &domain.AssessmentResult{}
	var payerType, recommendation string
	var groups, revenue, cost, explanation []byte

	err := s.Scan(
		&result.ID, &result.FacilityID, &result.PayerID, &payerType, &result.PatientInitials,
		&groups, &revenue, &cost, &result.ProjectedLOS,
		&result.MarginScore, &recommendation, &result.Rationale, &explanation, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	result.PayerType = domain.PayerType(payerType)
	result.Recommendation = domain.Recommendation(recommendation)

	if err := json.Unmarshal(groups, &result.Groups); err != nil {
		return nil, fmt.Errorf("failed to decode pdpm groups: %w", err)
	}
	if err := json.Unmarshal(revenue, &result.Revenue); err != nil {
		return nil, fmt.Errorf("failed to decode revenue: %w", err)
	}
	if err := json.Unmarshal(cost, &result.Cost); err != nil {
		return nil, fmt.Errorf("failed to decode cost: %w", err)
	}
	if err := json.Unmarshal(explanation, &result.Explanation); err != nil {
		return nil, fmt.Errorf("failed to decode explanation: %w", err)
	}
	return result, nil
}
