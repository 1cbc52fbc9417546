package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/intake/internal/extractor"
)

const (
	defaultVisitLimit = 10
	maxVisitLimit     = 100
)

// NewVisit is a check-in to persist next to its raw transcript.
type NewVisit struct {
	Transcript      string
	Record          extractor.Record
	ReceptionistID  string
	PatientID       *uuid.UUID
	VisitType       string
	DoctorName      string
	NextVisit       *time.Time
	ExtractionModel string
}

// Visit is a stored row of patient_visits.
type Visit struct {
	ID              uuid.UUID    `json:"id"`
	RawTranscript   string       `json:"raw_transcript"`
	PatientData     PatientData  `json:"patient_data"`
	SymptomsData    []SymptomRow `json:"symptoms_data"`
	ReceptionistID  string       `json:"receptionist_id"`
	PatientID       *uuid.UUID   `json:"patient_id,omitempty"`
	VisitType       *string      `json:"visit_type,omitempty"`
	DoctorName      *string      `json:"doctor_name,omitempty"`
	NextVisit       *time.Time   `json:"next_visit,omitempty"`
	ExtractionModel *string      `json:"extraction_model,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// PatientData is the patient_data jsonb column.
type PatientData struct {
	Name   *string `json:"name"`
	Age    *string `json:"age"`
	Gender *string `json:"gender"`
}

// SymptomRow is one element of the symptoms_data jsonb column.
type SymptomRow struct {
	Name     string  `json:"name"`
	Duration *string `json:"duration"`
	Severity *string `json:"severity"`
}

// Record rebuilds the canonical record from the stored columns.
func (v *Visit) Record() extractor.Record {
	rec := extractor.Record{
		PatientName: v.PatientData.Name,
		Age:         v.PatientData.Age,
		Gender:      v.PatientData.Gender,
	}
	if len(v.SymptomsData) > 0 {
		first := v.SymptomsData[0]
		name := first.Name
		rec.PrimarySymptom = &name
		rec.SymptomDuration = first.Duration
		rec.SymptomSeverity = first.Severity
	}
	return rec
}

func visitColumns(rec extractor.Record) (PatientData, []SymptomRow) {
	pd := PatientData{Name: rec.PatientName, Age: rec.Age, Gender: rec.Gender}
	symptoms := []SymptomRow{}
	if rec.PrimarySymptom != nil {
		symptoms = append(symptoms, SymptomRow{
			Name:     *rec.PrimarySymptom,
			Duration: rec.SymptomDuration,
			Severity: rec.SymptomSeverity,
		})
	}
	return pd, symptoms
}

const visitSelect = `
	SELECT id, raw_transcript, patient_data, symptoms_data, receptionist_id, patient_id,
		visit_type, doctor_name, next_visit, extraction_model, created_at
	FROM patient_visits`

// SaveVisit inserts a check-in and returns the stored row.
func (s *Store) SaveVisit(ctx context.Context, nv NewVisit) (*Visit, error) {
	if nv.ReceptionistID == "" {
		return nil, errors.New("save visit: receptionist id is required")
	}

	pd, symptoms := visitColumns(nv.Record)
	patientJSON, err := json.Marshal(pd)
	if err != nil {
		return nil, fmt.Errorf("marshal patient data: %w", err)
	}
	symptomsJSON, err := json.Marshal(symptoms)
	if err != nil {
		return nil, fmt.Errorf("marshal symptoms data: %w", err)
	}

	id := uuid.New()
	row := s.db.QueryRow(ctx, `
		INSERT INTO patient_visits (id, raw_transcript, patient_data, symptoms_data, receptionist_id,
			patient_id, visit_type, doctor_name, next_visit, extraction_model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING created_at`,
		id, nv.Transcript, patientJSON, symptomsJSON, nv.ReceptionistID,
		nv.PatientID, nullable(nv.VisitType), nullable(nv.DoctorName), nv.NextVisit, nullable(nv.ExtractionModel),
	)

	v := &Visit{
		ID:              id,
		RawTranscript:   nv.Transcript,
		PatientData:     pd,
		SymptomsData:    symptoms,
		ReceptionistID:  nv.ReceptionistID,
		PatientID:       nv.PatientID,
		VisitType:       nullable(nv.VisitType),
		DoctorName:      nullable(nv.DoctorName),
		NextVisit:       nv.NextVisit,
		ExtractionModel: nullable(nv.ExtractionModel),
	}
	if err := row.Scan(&v.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert visit: %w", err)
	}
	return v, nil
}

// RecentVisits returns the newest visits first.
func (s *Store) RecentVisits(ctx context.Context, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = defaultVisitLimit
	}
	if limit > maxVisitLimit {
		limit = maxVisitLimit
	}
	return s.queryVisits(ctx, visitSelect+` ORDER BY created_at DESC LIMIT $1`, limit)
}

// PatientVisits returns a patient's visit history, newest first.
func (s *Store) PatientVisits(ctx context.Context, patientID uuid.UUID) ([]Visit, error) {
	return s.queryVisits(ctx, visitSelect+` WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
}

func (s *Store) queryVisits(ctx context.Context, sql string, args ...any) ([]Visit, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var (
			v                          Visit
			patientJSON, symptomsJSON []byte
		)
		if err := rows.Scan(&v.ID, &v.RawTranscript, &patientJSON, &symptomsJSON, &v.ReceptionistID,
			&v.PatientID, &v.VisitType, &v.DoctorName, &v.NextVisit, &v.ExtractionModel, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		if len(patientJSON) > 0 {
			if err := json.Unmarshal(patientJSON, &v.PatientData); err != nil {
				return nil, fmt.Errorf("decode patient data for visit %s: %w", v.ID, err)
			}
		}
		if len(symptomsJSON) > 0 {
			if err := json.Unmarshal(symptomsJSON, &v.SymptomsData); err != nil {
				return nil, fmt.Errorf("decode symptoms data for visit %s: %w", v.ID, err)
			}
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
