package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultPatientLimit = 50
	maxPatientLimit     = 200
)

// Patient is a row of the patient registry.
type Patient struct {
	ID                    uuid.UUID  `json:"id"`
	CNIC                  *string    `json:"cnic"`
	FullName              string     `json:"full_name"`
	PhoneNumber           *string    `json:"phone_number"`
	Email                 *string    `json:"email"`
	Address               *string    `json:"address"`
	City                  *string    `json:"city"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	Gender                *string    `json:"gender"`
	BloodGroup            *string    `json:"blood_group"`
	MaritalStatus         *string    `json:"marital_status"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	ReceptionistID        string     `json:"receptionist_id"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// NewPatient registers a patient. Blank optional fields are stored as NULL.
type NewPatient struct {
	CNIC                  string
	FullName              string
	PhoneNumber           string
	Email                 string
	Address               string
	City                  string
	DateOfBirth           *time.Time
	Gender                string
	BloodGroup            string
	MaritalStatus         string
	EmergencyContactName  string
	EmergencyContactPhone string
	ReceptionistID        string
}

const patientSelect = `
	SELECT id, cnic, full_name, phone_number, email, address, city, date_of_birth, gender,
		blood_group, marital_status, emergency_contact_name, emergency_contact_phone,
		receptionist_id, created_at, updated_at
	FROM patients`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.CNIC, &p.FullName, &p.PhoneNumber, &p.Email, &p.Address, &p.City,
		&p.DateOfBirth, &p.Gender, &p.BloodGroup, &p.MaritalStatus, &p.EmergencyContactName,
		&p.EmergencyContactPhone, &p.ReceptionistID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePatient inserts a patient. A CNIC already on file yields ErrDuplicate.
func (s *Store) CreatePatient(ctx context.Context, np NewPatient) (*Patient, error) {
	np.FullName = strings.TrimSpace(np.FullName)
	np.CNIC = strings.TrimSpace(np.CNIC)
	if np.FullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalid)
	}
	if np.ReceptionistID == "" {
		return nil, fmt.Errorf("%w: receptionist id is required", ErrInvalid)
	}

	p := &Patient{
		ID:                    uuid.New(),
		CNIC:                  nullable(np.CNIC),
		FullName:              np.FullName,
		PhoneNumber:           nullable(np.PhoneNumber),
		Email:                 nullable(np.Email),
		Address:               nullable(np.Address),
		City:                  nullable(np.City),
		DateOfBirth:           np.DateOfBirth,
		Gender:                nullable(np.Gender),
		BloodGroup:            nullable(np.BloodGroup),
		MaritalStatus:         nullable(np.MaritalStatus),
		EmergencyContactName:  nullable(np.EmergencyContactName),
		EmergencyContactPhone: nullable(np.EmergencyContactPhone),
		ReceptionistID:        np.ReceptionistID,
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO patients (id, cnic, full_name, phone_number, email, address, city, date_of_birth,
			gender, blood_group, marital_status, emergency_contact_name, emergency_contact_phone,
			receptionist_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
		RETURNING created_at, updated_at`,
		p.ID, p.CNIC, p.FullName, p.PhoneNumber, p.Email, p.Address, p.City, p.DateOfBirth,
		p.Gender, p.BloodGroup, p.MaritalStatus, p.EmergencyContactName, p.EmergencyContactPhone,
		p.ReceptionistID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("patient with cnic %s: %w", np.CNIC, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return p, nil
}

// SearchPatients matches term against name, CNIC and phone number,
// case-insensitively and anywhere in the value. A blank term lists the
// newest patients.
func (s *Store) SearchPatients(ctx context.Context, term string, limit int) ([]Patient, error) {
	if limit <= 0 {
		limit = defaultPatientLimit
	}
	if limit > maxPatientLimit {
		limit = maxPatientLimit
	}

	sql := patientSelect + ` ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if term = strings.TrimSpace(term); term != "" {
		sql = patientSelect + `
			WHERE full_name ILIKE $2 OR cnic ILIKE $2 OR phone_number ILIKE $2
			ORDER BY created_at DESC LIMIT $1`
		args = append(args, "%"+escapeLike(term)+"%")
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

func (s *Store) PatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.onePatient(ctx, patientSelect+` WHERE id = $1`, id)
}

// PatientByCNIC looks a patient up by exact national ID number.
func (s *Store) PatientByCNIC(ctx context.Context, cnic string) (*Patient, error) {
	return s.onePatient(ctx, patientSelect+` WHERE cnic = $1`, strings.TrimSpace(cnic))
}

func (s *Store) onePatient(ctx context.Context, sql string, arg any) (*Patient, error) {
	p, err := scanPatient(s.db.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
