package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	VisitReason     *string   `json:"visit_reason,omitempty"`
	VisitType       string    `json:"visit_type"`
	Location        *string   `json:"location,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

const appointmentSelect = `
	SELECT id, patient_id, provider_id, start_time, end_time, duration_minutes, status,
		visit_reason, visit_type, location, created_at
	FROM appointments`

// ListAppointments returns a provider's appointments, or all of them when
// providerID is nil, ordered by start time.
func (s *Store) ListAppointments(ctx context.Context, providerID *uuid.UUID) ([]Appointment, error) {
	sql := appointmentSelect + ` ORDER BY start_time`
	var args []any
	if providerID != nil {
		sql = appointmentSelect + ` WHERE provider_id = $1 ORDER BY start_time`
		args = append(args, *providerID)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.StartTime, &a.EndTime, &a.DurationMinutes,
			&a.Status, &a.VisitReason, &a.VisitType, &a.Location, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appts, nil
}

// UpdateAppointmentStatus moves an appointment from one status to another.
// The update only applies if the stored status still equals from, so two
// desks can't both check in the same appointment.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

var VisitTypes = []string{"In Person", "Telemedicine", "Phone"}

// NewAppointment books a slot. Status defaults to Scheduled; callers
// validate non-default statuses.
type NewAppointment struct {
	PatientID   uuid.UUID
	ProviderID  uuid.UUID
	StartTime   time.Time
	EndTime     time.Time
	Status      string
	VisitReason string
	VisitType   string
	Location    string
}

// CreateAppointment inserts an appointment. The duration is derived from
// the start and end times.
func (s *Store) CreateAppointment(ctx context.Context, na NewAppointment) (*Appointment, error) {
	if na.StartTime.IsZero() || !na.EndTime.After(na.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalid)
	}
	if na.VisitType == "" {
		na.VisitType = "In Person"
	}
	if !slices.Contains(VisitTypes, na.VisitType) {
		return nil, fmt.Errorf("%w: unknown visit type %q", ErrInvalid, na.VisitType)
	}
	if na.Status == "" {
		na.Status = "Scheduled"
	}

	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       na.PatientID,
		ProviderID:      na.ProviderID,
		StartTime:       na.StartTime,
		EndTime:         na.EndTime,
		DurationMinutes: int(na.EndTime.Sub(na.StartTime) / time.Minute),
		Status:          na.Status,
		VisitReason:     nullable(na.VisitReason),
		VisitType:       na.VisitType,
		Location:        nullable(na.Location),
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, provider_id, start_time, end_time, duration_minutes,
			status, visit_reason, visit_type, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING created_at`,
		a.ID, a.PatientID, a.ProviderID, a.StartTime, a.EndTime, a.DurationMinutes,
		a.Status, a.VisitReason, a.VisitType, a.Location,
	).Scan(&a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return a, nil
}
