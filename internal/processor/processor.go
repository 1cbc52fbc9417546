package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/intake/internal/extractor"
	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/store"
)

// ErrReceptionistRequired is returned when a check-in names no receptionist.
var ErrReceptionistRequired = errors.New("receptionist id is required")

// KindStorage marks check-ins whose record was extracted but not stored.
const KindStorage = "StorageFailed"

type Extractor interface {
	Extract(ctx context.Context, transcript string) (*extractor.Result, error)
}

type VisitStore interface {
	SaveVisit(ctx context.Context, nv store.NewVisit) (*store.Visit, error)
}

type Publisher interface {
	Publish(subject string, data any) error
}

// Processor runs the check-in pipeline: extract, persist, announce.
// The store and publisher are optional.
type Processor struct {
	extractor Extractor
	visits    VisitStore
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func New(ext Extractor, visits VisitStore, pub Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		extractor: ext,
		visits:    visits,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
	}
}

type CheckInRequest struct {
	Transcript     string
	ReceptionistID string
	PatientID      *uuid.UUID
	VisitType      string
	DoctorName     string
	NextVisit      *time.Time
}

type CheckInResult struct {
	Record    extractor.Record `json:"record"`
	Candidate string           `json:"model"`
	Visit     *store.Visit     `json:"visit,omitempty"`
}

// CheckIn extracts a patient record from the transcript, stores the visit
// and publishes the outcome.
func (p *Processor) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	if strings.TrimSpace(req.ReceptionistID) == "" {
		return nil, ErrReceptionistRequired
	}

	res, err := p.extractor.Extract(ctx, req.Transcript)
	if err != nil {
		p.logger.Error("check-in extraction failed",
			"receptionist_id", req.ReceptionistID,
			"error", err,
		)
		p.publish(hermes.SubjectCheckInFailed, hermes.CheckInFailed{
			ReceptionistID: req.ReceptionistID,
			PatientID:      uuidString(req.PatientID),
			Kind:           ErrorKind(err),
			Error:          err.Error(),
			Timestamp:      p.timestamp(),
		})
		return nil, err
	}

	out := &CheckInResult{Record: res.Record, Candidate: res.Candidate}

	if p.visits != nil {
		visit, err := p.visits.SaveVisit(ctx, store.NewVisit{
			Transcript:      req.Transcript,
			Record:          res.Record,
			ReceptionistID:  req.ReceptionistID,
			PatientID:       req.PatientID,
			VisitType:       req.VisitType,
			DoctorName:      req.DoctorName,
			NextVisit:       req.NextVisit,
			ExtractionModel: res.Candidate,
		})
		if err != nil {
			// The record is logged in full so it can be re-entered by hand.
			p.logger.Error("check-in persistence failed",
				"receptionist_id", req.ReceptionistID,
				"patient_id", uuidString(req.PatientID),
				"model", res.Candidate,
				"patient_name", deref(res.Record.PatientName),
				"age", deref(res.Record.Age),
				"gender", deref(res.Record.Gender),
				"primary_symptom", deref(res.Record.PrimarySymptom),
				"symptom_duration", deref(res.Record.SymptomDuration),
				"symptom_severity", deref(res.Record.SymptomSeverity),
				"raw_text", res.RawText,
				"error", err,
			)
			err = fmt.Errorf("save visit: %w", err)
			p.publish(hermes.SubjectCheckInFailed, hermes.CheckInFailed{
				ReceptionistID: req.ReceptionistID,
				PatientID:      uuidString(req.PatientID),
				Kind:           KindStorage,
				Error:          err.Error(),
				Timestamp:      p.timestamp(),
			})
			return nil, err
		}
		out.Visit = visit
	}

	evt := hermes.CheckInCompleted{
		ReceptionistID: req.ReceptionistID,
		PatientID:      uuidString(req.PatientID),
		PatientName:    deref(res.Record.PatientName),
		PrimarySymptom: deref(res.Record.PrimarySymptom),
		Model:          res.Candidate,
		Timestamp:      p.timestamp(),
	}
	if out.Visit != nil {
		evt.VisitID = out.Visit.ID.String()
	}
	p.publish(hermes.SubjectCheckInCompleted, evt)

	p.logger.Info("check-in processed",
		"receptionist_id", req.ReceptionistID,
		"model", res.Candidate,
		"stored", out.Visit != nil,
	)
	return out, nil
}

// TranscriptHandler returns the NATS handler for clinic.checkin.transcript.
// Check-ins it starts run under ctx, so canceling ctx abandons them.
func (p *Processor) TranscriptHandler(ctx context.Context) func(subject string, data []byte) {
	return func(subject string, data []byte) {
		p.HandleTranscriptSubmitted(ctx, subject, data)
	}
}

// HandleTranscriptSubmitted runs a check-in for a bus-submitted transcript.
func (p *Processor) HandleTranscriptSubmitted(ctx context.Context, subject string, data []byte) {
	var evt extractor.TranscriptEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcript event", "subject", subject, "error", err)
		return
	}

	req, err := RequestFromEvent(evt)
	if err != nil {
		p.logger.Error("invalid transcript event", "subject", subject, "error", err)
		return
	}

	if _, err := p.CheckIn(ctx, req); err != nil {
		p.logger.Warn("bus check-in failed", "subject", subject, "error", err)
	}
}

// RequestFromEvent converts a wire event into a CheckInRequest. next_visit
// accepts RFC 3339 timestamps or bare dates.
func RequestFromEvent(evt extractor.TranscriptEvent) (CheckInRequest, error) {
	req := CheckInRequest{
		Transcript:     evt.Transcript,
		ReceptionistID: evt.ReceptionistID,
		VisitType:      evt.VisitType,
		DoctorName:     evt.DoctorName,
	}
	if evt.PatientID != "" {
		id, err := uuid.Parse(evt.PatientID)
		if err != nil {
			return req, fmt.Errorf("invalid patient id %q: %w", evt.PatientID, err)
		}
		req.PatientID = &id
	}
	if evt.NextVisit != "" {
		t, err := parseDate(evt.NextVisit)
		if err != nil {
			return req, fmt.Errorf("invalid next visit %q: %w", evt.NextVisit, err)
		}
		req.NextVisit = &t
	}
	return req, nil
}

// ErrorKind names the failure class of err for events and API bodies.
func ErrorKind(err error) string {
	var xerr *extractor.Error
	if errors.As(err, &xerr) {
		return string(xerr.Kind)
	}
	return "Internal"
}

func (p *Processor) publish(subject string, data any) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish", "subject", subject, "error", err)
	}
}

func (p *Processor) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
