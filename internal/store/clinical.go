package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	MedicationStatuses = []string{"Active", "Completed", "Discontinued", "On Hold"}
	ProblemStatuses    = []string{"Active", "Resolved", "Chronic", "Inactive"}
	ProblemSeverities  = []string{"Mild", "Moderate", "Severe", "Critical"}
)

// Medication is a row of medications_prescribed.
type Medication struct {
	ID                    uuid.UUID `json:"id"`
	PatientID             uuid.UUID `json:"patient_id"`
	PrescriberID          uuid.UUID `json:"prescriber_id"`
	MedicationName        string    `json:"medication_name"`
	Strength              string    `json:"strength"`
	DosageForm            string    `json:"dosage_form"`
	DosageInstructions    string    `json:"dosage_instructions"`
	Frequency             string    `json:"frequency"`
	Quantity              int       `json:"quantity"`
	Refills               int       `json:"refills"`
	StartDate             time.Time `json:"start_date"`
	Status                string    `json:"status"`
	IsControlledSubstance bool      `json:"is_controlled_substance"`
	CreatedAt             time.Time `json:"created_at"`
}

type NewMedication struct {
	PatientID             uuid.UUID
	PrescriberID          uuid.UUID
	MedicationName        string
	Strength              string
	DosageForm            string
	DosageInstructions    string
	Frequency             string
	Quantity              int
	Refills               int
	StartDate             time.Time
	Status                string // defaults to Active
	IsControlledSubstance bool
}

func (m *NewMedication) validate() error {
	m.MedicationName = strings.TrimSpace(m.MedicationName)
	if m.MedicationName == "" {
		return fmt.Errorf("%w: medication name is required", ErrInvalid)
	}
	if m.Quantity < 0 || m.Refills < 0 {
		return fmt.Errorf("%w: quantity and refills must not be negative", ErrInvalid)
	}
	if m.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalid)
	}
	if m.Status == "" {
		m.Status = "Active"
	}
	if !slices.Contains(MedicationStatuses, m.Status) {
		return fmt.Errorf("%w: unknown medication status %q", ErrInvalid, m.Status)
	}
	return nil
}

const medicationSelect = `
	SELECT id, patient_id, prescriber_id, medication_name, strength, dosage_form,
		dosage_instructions, frequency, quantity, refills, start_date, status,
		is_controlled_substance, created_at
	FROM medications_prescribed`

// ListMedications returns a patient's prescriptions, newest first.
func (s *Store) ListMedications(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	rows, err := s.db.Query(ctx, medicationSelect+` WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	defer rows.Close()

	var meds []Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.PatientID, &m.PrescriberID, &m.MedicationName, &m.Strength,
			&m.DosageForm, &m.DosageInstructions, &m.Frequency, &m.Quantity, &m.Refills, &m.StartDate,
			&m.Status, &m.IsControlledSubstance, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		meds = append(meds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medications: %w", err)
	}
	return meds, nil
}

func (s *Store) CreateMedication(ctx context.Context, nm NewMedication) (*Medication, error) {
	if err := nm.validate(); err != nil {
		return nil, err
	}

	m := &Medication{
		ID:                    uuid.New(),
		PatientID:             nm.PatientID,
		PrescriberID:          nm.PrescriberID,
		MedicationName:        nm.MedicationName,
		Strength:              nm.Strength,
		DosageForm:            nm.DosageForm,
		DosageInstructions:    nm.DosageInstructions,
		Frequency:             nm.Frequency,
		Quantity:              nm.Quantity,
		Refills:               nm.Refills,
		StartDate:             nm.StartDate,
		Status:                nm.Status,
		IsControlledSubstance: nm.IsControlledSubstance,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO medications_prescribed (id, patient_id, prescriber_id, medication_name, strength,
			dosage_form, dosage_instructions, frequency, quantity, refills, start_date, status,
			is_controlled_substance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		RETURNING created_at`,
		m.ID, m.PatientID, m.PrescriberID, m.MedicationName, m.Strength, m.DosageForm,
		m.DosageInstructions, m.Frequency, m.Quantity, m.Refills, m.StartDate, m.Status,
		m.IsControlledSubstance,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert medication: %w", err)
	}
	return m, nil
}

// Problem is a row of problem_list.
type Problem struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	ProviderID   uuid.UUID  `json:"provider_id"`
	ProblemName  string     `json:"problem_name"`
	ICD10Code    *string    `json:"icd10_code,omitempty"`
	Status       string     `json:"status"`
	Severity     *string    `json:"severity,omitempty"`
	OnsetDate    *time.Time `json:"onset_date,omitempty"`
	ResolvedDate *time.Time `json:"resolved_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type NewProblem struct {
	PatientID    uuid.UUID
	ProviderID   uuid.UUID
	ProblemName  string
	ICD10Code    string
	Status       string // defaults to Active
	Severity     string
	OnsetDate    *time.Time
	ResolvedDate *time.Time
	Notes        string
}

func (p *NewProblem) validate() error {
	p.ProblemName = strings.TrimSpace(p.ProblemName)
	if p.ProblemName == "" {
		return fmt.Errorf("%w: problem name is required", ErrInvalid)
	}
	if p.Status == "" {
		p.Status = "Active"
	}
	if !slices.Contains(ProblemStatuses, p.Status) {
		return fmt.Errorf("%w: unknown problem status %q", ErrInvalid, p.Status)
	}
	if p.Severity != "" && !slices.Contains(ProblemSeverities, p.Severity) {
		return fmt.Errorf("%w: unknown problem severity %q", ErrInvalid, p.Severity)
	}
	if p.OnsetDate != nil && p.ResolvedDate != nil && p.ResolvedDate.Before(*p.OnsetDate) {
		return fmt.Errorf("%w: resolved date is before onset date", ErrInvalid)
	}
	return nil
}

const problemSelect = `
	SELECT id, patient_id, provider_id, problem_name, icd10_code, status, severity,
		onset_date, resolved_date, notes, created_at
	FROM problem_list`

// ListProblems returns a patient's problem list, newest first.
func (s *Store) ListProblems(ctx context.Context, patientID uuid.UUID) ([]Problem, error) {
	rows, err := s.db.Query(ctx, problemSelect+` WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query problems: %w", err)
	}
	defer rows.Close()

	var problems []Problem
	for rows.Next() {
		var p Problem
		if err := rows.Scan(&p.ID, &p.PatientID, &p.ProviderID, &p.ProblemName, &p.ICD10Code, &p.Status,
			&p.Severity, &p.OnsetDate, &p.ResolvedDate, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate problems: %w", err)
	}
	return problems, nil
}

func (s *Store) CreateProblem(ctx context.Context, np NewProblem) (*Problem, error) {
	if err := np.validate(); err != nil {
		return nil, err
	}

	p := &Problem{
		ID:           uuid.New(),
		PatientID:    np.PatientID,
		ProviderID:   np.ProviderID,
		ProblemName:  np.ProblemName,
		ICD10Code:    nullable(strings.TrimSpace(np.ICD10Code)),
		Status:       np.Status,
		Severity:     nullable(np.Severity),
		OnsetDate:    np.OnsetDate,
		ResolvedDate: np.ResolvedDate,
		Notes:        nullable(np.Notes),
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO problem_list (id, patient_id, provider_id, problem_name, icd10_code, status,
			severity, onset_date, resolved_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING created_at`,
		p.ID, p.PatientID, p.ProviderID, p.ProblemName, p.ICD10Code, p.Status,
		p.Severity, p.OnsetDate, p.ResolvedDate, p.Notes,
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert problem: %w", err)
	}
	return p, nil
}
