package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/snf-admission-engine/internal/domain"
)

// SQLiteStore persists assessment results to a local SQLite file. Intended
// for single-facility deployments that run without a PostgreSQL instance.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite assessment store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the assessments table and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL,
		payer_id TEXT NOT NULL,
		payer_type TEXT NOT NULL,
		patient_initials TEXT DEFAULT '',
		pdpm_groups TEXT NOT NULL,
		revenue TEXT NOT NULL,
		cost TEXT NOT NULL,
		projected_los INTEGER NOT NULL,
		margin_score REAL NOT NULL,
		recommendation TEXT NOT NULL,
		rationale TEXT DEFAULT '',
		explanation TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_facility ON assessments(facility_id);
	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveAssessment inserts a completed assessment.
func (s *SQLiteStore) SaveAssessment(ctx context.Context, result *domain.AssessmentResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("assessment result with id is required")
	}

	row, err := marshalResult(result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (
			id, facility_id, payer_id, payer_type, patient_initials,
			pdpm_groups, revenue, cost, projected_los,
			margin_score, recommendation, rationale, explanation, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*domain.AssessmentResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, facility_id, payer_id, payer_type, patient_initials,
			pdpm_groups, revenue, cost, projected_los,
			margin_score, recommendation, rationale, explanation, created_at
		FROM assessments WHERE id = ?`, id)

	result, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return result, nil
}

// ListAssessments returns the most recent assessments for a facility.
func (s *SQLiteStore) ListAssessments(ctx context.Context, facilityID string, limit int) ([]*domain.AssessmentResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, facility_id, payer_id, payer_type, patient_initials,
			pdpm_groups, revenue, cost, projected_los,
			margin_score, recommendation, rationale, explanation, created_at
		FROM assessments
		WHERE facility_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, facilityID, limit)
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
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// ExportJSON exports all assessments for a facility to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, facilityID string, writer io.Writer) error {
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
