package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patientRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "cnic", "full_name", "phone_number", "email", "address", "city", "date_of_birth", "gender",
		"blood_group", "marital_status", "emergency_contact_name", "emergency_contact_phone",
		"receptionist_id", "created_at", "updated_at",
	})
}

func addPatient(rows *pgxmock.Rows, id uuid.UUID, cnic *string, name string, created time.Time) *pgxmock.Rows {
	nilStr := (*string)(nil)
	return rows.AddRow(id, cnic, name, strPtr("0300-1234567"), nilStr, nilStr, strPtr("Lahore"),
		(*time.Time)(nil), strPtr("female"), nilStr, nilStr, nilStr, nilStr, "rec-1", created, created)
}

func TestCreatePatient(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	dob := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO patients`).
		WithArgs(
			pgxmock.AnyArg(), strPtr("35202-1234567-1"), "Ayesha Khan", strPtr("0300-1234567"),
			pgxmock.AnyArg(), pgxmock.AnyArg(), strPtr("Lahore"), &dob,
			strPtr("female"), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"rec-1",
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p, err := s.CreatePatient(context.Background(), NewPatient{
		CNIC:           " 35202-1234567-1 ",
		FullName:       "  Ayesha Khan ",
		PhoneNumber:    "0300-1234567",
		City:           "Lahore",
		DateOfBirth:    &dob,
		Gender:         "female",
		ReceptionistID: "rec-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Ayesha Khan", p.FullName)
	assert.Nil(t, p.Email)
	assert.Equal(t, now, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePatient_Validation(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.CreatePatient(context.Background(), NewPatient{FullName: " ", ReceptionistID: "rec-1"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.CreatePatient(context.Background(), NewPatient{FullName: "Ali"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePatient_DuplicateCNIC(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO patients`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := s.CreatePatient(context.Background(), NewPatient{
		CNIC: "35202-1234567-1", FullName: "Ali", ReceptionistID: "rec-1",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSearchPatients_Term(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	id := uuid.New()

	mock.ExpectQuery(`WHERE full_name ILIKE \$2 OR cnic ILIKE \$2 OR phone_number ILIKE \$2`).
		WithArgs(50, `%ayesha\_k%`).
		WillReturnRows(addPatient(patientRows(), id, nil, "Ayesha Khan", now))

	patients, err := s.SearchPatients(context.Background(), " ayesha_k ", 0)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, id, patients[0].ID)
	assert.Equal(t, "Lahore", *patients[0].City)
	assert.Nil(t, patients[0].CNIC)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPatients_BlankTermListsNewest(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM patients ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(200).
		WillReturnRows(patientRows())

	patients, err := s.SearchPatients(context.Background(), "", 1000)
	require.NoError(t, err)
	assert.Empty(t, patients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientByID(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	cnic := "35202-1234567-1"

	mock.ExpectQuery(`FROM patients WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(addPatient(patientRows(), id, &cnic, "Ayesha Khan", time.Now()))

	p, err := s.PatientByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, cnic, *p.CNIC)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientByCNIC_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM patients WHERE cnic = \$1`).
		WithArgs("35202-0000000-0").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.PatientByCNIC(context.Background(), " 35202-0000000-0")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\\b\_c`, escapeLike(`a\b_c`))
}
