package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMedication(t *testing.T) {
	s, mock := newMockStore(t)
	patientID, prescriberID := uuid.New(), uuid.New()
	start := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO medications_prescribed`).
		WithArgs(pgxmock.AnyArg(), patientID, prescriberID, "Amoxicillin", "500 mg", "capsule",
			"one capsule after meals", "three times daily", 21, 0, start, "Active", false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	m, err := s.CreateMedication(context.Background(), NewMedication{
		PatientID:          patientID,
		PrescriberID:       prescriberID,
		MedicationName:     " Amoxicillin ",
		Strength:           "500 mg",
		DosageForm:         "capsule",
		DosageInstructions: "one capsule after meals",
		Frequency:          "three times daily",
		Quantity:           21,
		StartDate:          start,
	})
	require.NoError(t, err)
	assert.Equal(t, "Active", m.Status)
	assert.Equal(t, now, m.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMedication_Validation(t *testing.T) {
	s, mock := newMockStore(t)
	start := time.Now()

	tests := []struct {
		name string
		nm   NewMedication
	}{
		{"no name", NewMedication{StartDate: start}},
		{"negative quantity", NewMedication{MedicationName: "x", Quantity: -1, StartDate: start}},
		{"no start date", NewMedication{MedicationName: "x"}},
		{"bad status", NewMedication{MedicationName: "x", StartDate: start, Status: "Paused"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateMedication(context.Background(), tt.nm)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMedications(t *testing.T) {
	s, mock := newMockStore(t)
	patientID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM medications_prescribed WHERE patient_id = \$1 ORDER BY created_at DESC`).
		WithArgs(patientID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "patient_id", "prescriber_id", "medication_name", "strength", "dosage_form",
			"dosage_instructions", "frequency", "quantity", "refills", "start_date", "status",
			"is_controlled_substance", "created_at",
		}).AddRow(uuid.New(), patientID, uuid.New(), "Metformin", "500 mg", "tablet",
			"with breakfast", "daily", 30, 2, now, "Active", false, now))

	meds, err := s.ListMedications(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Metformin", meds[0].MedicationName)
	assert.Equal(t, 2, meds[0].Refills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProblem(t *testing.T) {
	s, mock := newMockStore(t)
	patientID, providerID := uuid.New(), uuid.New()
	onset := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO problem_list`).
		WithArgs(pgxmock.AnyArg(), patientID, providerID, "Type 2 diabetes", strPtr("E11.9"), "Chronic",
			strPtr("Moderate"), &onset, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	p, err := s.CreateProblem(context.Background(), NewProblem{
		PatientID:   patientID,
		ProviderID:  providerID,
		ProblemName: "Type 2 diabetes",
		ICD10Code:   "E11.9",
		Status:      "Chronic",
		Severity:    "Moderate",
		OnsetDate:   &onset,
	})
	require.NoError(t, err)
	assert.Nil(t, p.Notes)
	assert.Nil(t, p.ResolvedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProblem_Validation(t *testing.T) {
	s, mock := newMockStore(t)
	onset := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	resolved := onset.AddDate(0, 0, -1)

	for _, np := range []NewProblem{
		{},
		{ProblemName: "asthma", Status: "Gone"},
		{ProblemName: "asthma", Severity: "Extreme"},
		{ProblemName: "asthma", OnsetDate: &onset, ResolvedDate: &resolved},
	} {
		_, err := s.CreateProblem(context.Background(), np)
		assert.ErrorIs(t, err, ErrInvalid)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProblems(t *testing.T) {
	s, mock := newMockStore(t)
	patientID := uuid.New()

	mock.ExpectQuery(`FROM problem_list WHERE patient_id = \$1`).
		WithArgs(patientID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "patient_id", "provider_id", "problem_name", "icd10_code", "status", "severity",
			"onset_date", "resolved_date", "notes", "created_at",
		}).AddRow(uuid.New(), patientID, uuid.New(), "Hypertension", (*string)(nil), "Active",
			strPtr("Mild"), (*time.Time)(nil), (*time.Time)(nil), (*string)(nil), time.Now()))

	problems, err := s.ListProblems(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "Mild", *problems[0].Severity)
	assert.Nil(t, problems[0].ICD10Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
