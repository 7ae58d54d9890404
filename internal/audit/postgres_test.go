package audit

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snf-admission-engine/internal/domain"
)

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	return store, mock, db
}

func TestNewPostgresStore_RequiresConnection(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestPostgresStore_SaveAssessment(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	result := sampleResult("assess-001", "fac-001")

	mock.ExpectExec("INSERT INTO assessments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveAssessment(context.Background(), result)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRejectsMissingID(t *testing.T) {
	store, _, db := setupMockStore(t)
	defer db.Close()

	err := store.SaveAssessment(context.Background(), &domain.AssessmentResult{})
	assert.Error(t, err)
}

func TestPostgresStore_GetAssessment(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	want := sampleResult("assess-001", "fac-001")
	cols, err := marshalResult(want)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{
		"id", "facility_id", "payer_id", "payer_type", "patient_initials",
		"pdpm_groups", "revenue", "cost", "projected_los",
		"margin_score", "recommendation", "rationale", "explanation", "created_at",
	}).AddRow(
		want.ID, want.FacilityID, want.PayerID, string(want.PayerType), want.PatientInitials,
		cols.groups, cols.revenue, cols.cost, want.ProjectedLOS,
		want.MarginScore, string(want.Recommendation), want.Rationale, cols.explanation, want.CreatedAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM assessments").
		WithArgs("assess-001").
		WillReturnRows(rows)

	got, err := store.GetAssessment(context.Background(), "assess-001")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Groups, got.Groups)
	assert.Equal(t, want.Revenue.TotalRevenue, got.Revenue.TotalRevenue)
	assert.Equal(t, want.Recommendation, got.Recommendation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAssessment_NotFound(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM assessments").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetAssessment(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresStore_ListAssessments(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	first := sampleResult("assess-002", "fac-001")
	second := sampleResult("assess-001", "fac-001")
	colsFirst, err := marshalResult(first)
	require.NoError(t, err)
	colsSecond, err := marshalResult(second)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{
		"id", "facility_id", "payer_id", "payer_type", "patient_initials",
		"pdpm_groups", "revenue", "cost", "projected_los",
		"margin_score", "recommendation", "rationale", "explanation", "created_at",
	}).AddRow(
		first.ID, first.FacilityID, first.PayerID, string(first.PayerType), first.PatientInitials,
		colsFirst.groups, colsFirst.revenue, colsFirst.cost, first.ProjectedLOS,
		first.MarginScore, string(first.Recommendation), first.Rationale, colsFirst.explanation, first.CreatedAt,
	).AddRow(
		second.ID, second.FacilityID, second.PayerID, string(second.PayerType), second.PatientInitials,
		colsSecond.groups, colsSecond.revenue, colsSecond.cost, second.ProjectedLOS,
		second.MarginScore, string(second.Recommendation), second.Rationale, colsSecond.explanation, second.CreatedAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM assessments").
		WithArgs("fac-001", 10).
		WillReturnRows(rows)

	results, err := store.ListAssessments(context.Background(), "fac-001", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "assess-002", results[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDefaultsLimit(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "facility_id", "payer_id", "payer_type", "patient_initials",
		"pdpm_groups", "revenue", "cost", "projected_los",
		"margin_score", "recommendation", "rationale", "explanation", "created_at",
	})

	mock.ExpectQuery("SELECT (.+) FROM assessments").
		WithArgs("fac-001", defaultListLimit).
		WillReturnRows(rows)

	results, err := store.ListAssessments(context.Background(), "fac-001", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}
