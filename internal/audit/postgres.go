package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/snf-admission-engine/internal/domain"
)

// PostgresStore persists assessment results in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL assessment store.
// It expects the assessments table to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL assessment store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// SaveAssessment inserts a completed assessment.
func (s *PostgresStore) SaveAssessment(ctx context.Context, result *domain.AssessmentResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("assessment result with id is required")
	}

	row, err := marshalResult(result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assessments (
			id, facility_id, payer_id, payer_type, patient_initials,
			pdpm_groups, revenue, cost, projected_los,
			margin_score, recommendation, rationale, explanation, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = s.db.ExecContext(ctx, query,
		result.ID, result.FacilityID, result.PayerID, string(result.PayerType), result.PatientInitials,
		row.groups, row.revenue, row.cost, result.ProjectedLOS,
		result.MarginScore, string(result.Recommendation), result.Rationale, row.explanation, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// GetAssessment retrieves a single assessment by ID.
func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*domain.AssessmentResult, error) {
	query := `
		SELECT id, facility_id, payer_id, payer_type, patient_initials,
			pdpm_groups, revenue, cost, projected_los,
			margin_score, recommendation, rationale, explanation, created_at
		FROM assessments
		WHERE id = $1
	`

	result, err := scanAssessment(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return result, nil
}

// ListAssessments returns the most recent assessments for a facility.
func (s *PostgresStore) ListAssessments(ctx context.Context, facilityID string, limit int) ([]*domain.AssessmentResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, facility_id, payer_id, payer_type, patient_initials,
			pdpm_groups, revenue, cost, projected_los,
			margin_score, recommendation, rationale, explanation, created_at
		FROM assessments
		WHERE facility_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, facilityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var results []*domain.AssessmentResult
	for rows.Next() {
		result, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Count returns the total number of stored assessments.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// ExportJSON exports all assessments for a facility to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, facilityID string, writer io.Writer) error {
	all, err := s.ListAssessments(ctx, facilityID, maxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to list assessments: %w", err)
	}

	export := &AssessmentExport{
		Version:     exportVersion,
		ExportedAt:  time.Now(),
		FacilityID:  facilityID,
		Count:       len(all),
		Assessments: all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
