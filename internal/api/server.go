package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/intake/internal/extractor"
	"github.com/MikeSquared-Agency/intake/internal/processor"
	"github.com/MikeSquared-Agency/intake/internal/store"
)

const maxBodyBytes = 1 << 20

type Extractor interface {
	ExtractPatientData(ctx context.Context, transcript string) (extractor.Record, error)
}

type CheckInService interface {
	CheckIn(ctx context.Context, req processor.CheckInRequest) (*processor.CheckInResult, error)
}

type VisitReader interface {
	RecentVisits(ctx context.Context, limit int) ([]store.Visit, error)
	PatientVisits(ctx context.Context, patientID uuid.UUID) ([]store.Visit, error)
}

type AppointmentStore interface {
	ListAppointments(ctx context.Context, providerID *uuid.UUID) ([]store.Appointment, error)
	CreateAppointment(ctx context.Context, na store.NewAppointment) (*store.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to string) error
}

type PatientStore interface {
	CreatePatient(ctx context.Context, np store.NewPatient) (*store.Patient, error)
	SearchPatients(ctx context.Context, term string, limit int) ([]store.Patient, error)
	PatientByID(ctx context.Context, id uuid.UUID) (*store.Patient, error)
	PatientByCNIC(ctx context.Context, cnic string) (*store.Patient, error)
}

type ClinicalStore interface {
	ListMedications(ctx context.Context, patientID uuid.UUID) ([]store.Medication, error)
	CreateMedication(ctx context.Context, nm store.NewMedication) (*store.Medication, error)
	ListProblems(ctx context.Context, patientID uuid.UUID) ([]store.Problem, error)
	CreateProblem(ctx context.Context, np store.NewProblem) (*store.Problem, error)
}

// Deps are the server's collaborators. The storage-backed ones may be nil
// when no database is configured; their routes then answer 503.
type Deps struct {
	Extractor    Extractor
	CheckIns     CheckInService
	Visits       VisitReader
	Appointments AppointmentStore
	Patients     PatientStore
	Clinical     ClinicalStore
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
}

type Server struct {
	router *chi.Mux
	deps   Deps
	logger *slog.Logger
	http   *http.Server
}

func NewServer(port int, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		deps:   deps,
		logger: logger,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/extractions", s.createExtraction)
		r.Post("/checkins", s.createCheckIn)
		r.Get("/visits/recent", s.recentVisits)
		r.Get("/appointments", s.listAppointments)
		r.Post("/appointments", s.createAppointment)
		r.Patch("/appointments/{id}/status", s.updateAppointmentStatus)

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", s.createPatient)
			r.Get("/", s.searchPatients)
			r.Get("/by-cnic/{cnic}", s.patientByCNIC)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getPatient)
				r.Get("/visits", s.patientVisits)
				r.Get("/medications", s.listMedications)
				r.Post("/medications", s.createMedication)
				r.Get("/problems", s.listProblems)
				r.Post("/problems", s.createProblem)
			})
		})
	})

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

// statusClientClosedRequest is nginx's code for a client that went away.
const statusClientClosedRequest = 499

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())
		return
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "Duplicate", err.Error())
		return
	}

	var xerr *extractor.Error
	if !errors.As(err, &xerr) {
		// Driver and network errors can carry SQL or hostnames; keep them in the log.
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal", "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch xerr.Kind {
	case extractor.KindEmptyInput:
		status = http.StatusBadRequest
	case extractor.KindAllCandidatesExhausted:
		status = http.StatusBadGateway
	case extractor.KindMalformedResponse:
		status = http.StatusUnprocessableEntity
	case extractor.KindTimeout:
		status = http.StatusGatewayTimeout
	case extractor.KindCanceled:
		status = statusClientClosedRequest
	}
	writeError(w, status, string(xerr.Kind), err.Error())
}
