package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/intake/internal/extractor"
)

func strPtr(s string) *string { return &s }

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithDB(mock), mock
}

func TestSaveVisit(t *testing.T) {
	s, mock := newMockStore(t)
	createdAt := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	patientID := uuid.New()

	rec := extractor.Record{
		PatientName:     strPtr("John Smith"),
		Age:             strPtr("35"),
		PrimarySymptom:  strPtr("headache"),
		SymptomDuration: strPtr("3 days"),
		SymptomSeverity: strPtr("severe"),
	}

	mock.ExpectQuery(`INSERT INTO patient_visits`).
		WithArgs(
			pgxmock.AnyArg(),
			"My name is John Smith",
			[]byte(`{"name":"John Smith","age":"35","gender":null}`),
			[]byte(`[{"name":"headache","duration":"3 days","severity":"severe"}]`),
			"rec-1",
			&patientID,
			strPtr("walk-in"),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			strPtr("gemini-2.5-flash"),
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	v, err := s.SaveVisit(context.Background(), NewVisit{
		Transcript:      "My name is John Smith",
		Record:          rec,
		ReceptionistID:  "rec-1",
		PatientID:       &patientID,
		VisitType:       "walk-in",
		ExtractionModel: "gemini-2.5-flash",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, createdAt, v.CreatedAt)
	assert.Nil(t, v.DoctorName)
	assert.Equal(t, rec, v.Record())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveVisit_NoSymptomStoresEmptyArray(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO patient_visits`).
		WithArgs(
			pgxmock.AnyArg(), "hi",
			[]byte(`{"name":null,"age":null,"gender":null}`),
			[]byte(`[]`),
			"rec-1",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	v, err := s.SaveVisit(context.Background(), NewVisit{Transcript: "hi", ReceptionistID: "rec-1"})
	require.NoError(t, err)
	assert.Equal(t, extractor.Record{}, v.Record())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveVisit_RequiresReceptionist(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.SaveVisit(context.Background(), NewVisit{Transcript: "hi"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func visitRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "raw_transcript", "patient_data", "symptoms_data", "receptionist_id", "patient_id",
		"visit_type", "doctor_name", "next_visit", "extraction_model", "created_at",
	})
}

func TestRecentVisits(t *testing.T) {
	s, mock := newMockStore(t)
	id1, id2 := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM patient_visits ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(visitRows().
			AddRow(id1, "t1", []byte(`{"name":"Ali","age":"40","gender":"male"}`),
				[]byte(`[{"name":"fever","duration":"2 days","severity":null}]`), "rec-1",
				(*uuid.UUID)(nil), strPtr("follow-up"), (*string)(nil), (*time.Time)(nil), strPtr("gemini-2.0-flash"), now).
			AddRow(id2, "t2", []byte(`{}`), []byte(`[]`), "rec-2",
				(*uuid.UUID)(nil), (*string)(nil), (*string)(nil), (*time.Time)(nil), (*string)(nil), now.Add(-time.Hour)))

	visits, err := s.RecentVisits(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, visits, 2)

	assert.Equal(t, id1, visits[0].ID)
	assert.Equal(t, extractor.Record{
		PatientName:     strPtr("Ali"),
		Age:             strPtr("40"),
		Gender:          strPtr("male"),
		PrimarySymptom:  strPtr("fever"),
		SymptomDuration: strPtr("2 days"),
	}, visits[0].Record())
	assert.Equal(t, "follow-up", *visits[0].VisitType)

	assert.Equal(t, extractor.Record{}, visits[1].Record())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentVisits_ClampsLimit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM patient_visits ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(visitRows())

	visits, err := s.RecentVisits(context.Background(), 5000)
	require.NoError(t, err)
	assert.Empty(t, visits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientVisits_BadJSON(t *testing.T) {
	s, mock := newMockStore(t)
	patientID := uuid.New()

	mock.ExpectQuery(`FROM patient_visits WHERE patient_id = \$1`).
		WithArgs(patientID).
		WillReturnRows(visitRows().
			AddRow(uuid.New(), "t", []byte(`not json`), []byte(`[]`), "rec",
				&patientID, (*string)(nil), (*string)(nil), (*time.Time)(nil), (*string)(nil), time.Now()))

	_, err := s.PatientVisits(context.Background(), patientID)
	assert.Error(t, err)
}
