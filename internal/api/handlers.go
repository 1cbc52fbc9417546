package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/intake/internal/extractor"
	"github.com/MikeSquared-Agency/intake/internal/processor"
	"github.com/MikeSquared-Agency/intake/internal/schedule"
	"github.com/MikeSquared-Agency/intake/internal/store"
)

type extractionRequest struct {
	Transcript string `json:"transcript"`
}

// createExtraction handles POST /api/v1/extractions.
func (s *Server) createExtraction(w http.ResponseWriter, r *http.Request) {
	var req extractionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.deps.Extractor.ExtractPatientData(r.Context(), req.Transcript)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// createCheckIn handles POST /api/v1/checkins.
func (s *Server) createCheckIn(w http.ResponseWriter, r *http.Request) {
	var evt extractor.TranscriptEvent
	if !decodeBody(w, r, &evt) {
		return
	}

	req, err := processor.RequestFromEvent(evt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	res, err := s.deps.CheckIns.CheckIn(r.Context(), req)
	if errors.Is(err, processor.ErrReceptionistRequired) {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// recentVisits handles GET /api/v1/visits/recent.
func (s *Server) recentVisits(w http.ResponseWriter, r *http.Request) {
	if s.deps.Visits == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "visit storage is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	visits, err := s.deps.Visits.RecentVisits(r.Context(), limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"visits": visitResponses(visits), "count": len(visits)})
}

// visitResponse adds the canonical record rebuilt from the stored columns.
type visitResponse struct {
	store.Visit
	Record extractor.Record `json:"record"`
}

func visitResponses(visits []store.Visit) []visitResponse {
	out := make([]visitResponse, 0, len(visits))
	for i := range visits {
		out = append(out, visitResponse{Visit: visits[i], Record: visits[i].Record()})
	}
	return out
}

// listAppointments handles GET /api/v1/appointments.
func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Appointments == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "appointment storage is not configured")
		return
	}

	q := r.URL.Query()
	var providerID *uuid.UUID
	if v := q.Get("provider_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid provider_id")
			return
		}
		providerID = &id
	}

	query := schedule.Query{
		Status:   q.Get("status"),
		View:     q.Get("view"),
		Date:     time.Now(),
		Location: time.Local,
	}
	if query.Status != "" && query.Status != schedule.StatusAll && !schedule.Known(query.Status) {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "unknown status "+strconv.Quote(query.Status))
		return
	}
	if !schedule.ValidView(query.View) {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "view must be day, week or all")
		return
	}
	if v := q.Get("date"); v != "" {
		d, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "date must be YYYY-MM-DD")
			return
		}
		query.Date = d
	}

	appts, err := s.deps.Appointments.ListAppointments(r.Context(), providerID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	filtered := schedule.Filter(appts, query)
	writeJSON(w, http.StatusOK, map[string]any{"appointments": filtered, "count": len(filtered)})
}

type appointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	VisitReason string    `json:"visit_reason"`
	VisitType   string    `json:"visit_type"`
	Location    string    `json:"location"`
}

// createAppointment handles POST /api/v1/appointments.
func (s *Server) createAppointment(w http.ResponseWriter, r *http.Request) {
	if s.deps.Appointments == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "appointment storage is not configured")
		return
	}

	var req appointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PatientID == uuid.Nil || req.ProviderID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "patient_id and provider_id are required")
		return
	}
	if req.Status != "" && !schedule.Known(req.Status) {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "unknown status "+strconv.Quote(req.Status))
		return
	}

	appt, err := s.deps.Appointments.CreateAppointment(r.Context(), store.NewAppointment{
		PatientID:   req.PatientID,
		ProviderID:  req.ProviderID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      req.Status,
		VisitReason: req.VisitReason,
		VisitType:   req.VisitType,
		Location:    req.Location,
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.logger.Info("appointment created", "appointment_id", appt.ID, "provider_id", appt.ProviderID)
	writeJSON(w, http.StatusCreated, appt)
}

type statusUpdate struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// updateAppointmentStatus handles PATCH /api/v1/appointments/{id}/status.
func (s *Server) updateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Appointments == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "appointment storage is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid appointment id")
		return
	}

	var req statusUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	if !schedule.Known(req.From) || !schedule.Known(req.To) {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "unknown appointment status")
		return
	}
	if !schedule.CanTransition(req.From, req.To) {
		writeError(w, http.StatusConflict, "IllegalTransition",
			"cannot move appointment from "+req.From+" to "+req.To)
		return
	}

	err = s.deps.Appointments.UpdateAppointmentStatus(r.Context(), id, req.From, req.To)
	if errors.Is(err, store.ErrStaleStatus) {
		writeError(w, http.StatusConflict, "StaleStatus", err.Error())
		return
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.logger.Info("appointment status updated", "appointment_id", id, "from", req.From, "to", req.To)
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String(), "status": req.To})
}
