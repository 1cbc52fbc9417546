package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/intake/internal/store"
)

type patientRequest struct {
	CNIC                  string `json:"cnic"`
	FullName              string `json:"full_name"`
	PhoneNumber           string `json:"phone_number"`
	Email                 string `json:"email"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	DateOfBirth           string `json:"date_of_birth"`
	Gender                string `json:"gender"`
	BloodGroup            string `json:"blood_group"`
	MaritalStatus         string `json:"marital_status"`
	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	ReceptionistID        string `json:"receptionist_id"`
}

// optionalDate parses a YYYY-MM-DD field; blank means absent.
func optionalDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", field)
	}
	return &d, nil
}

func (s *Server) patientsAvailable(w http.ResponseWriter) bool {
	if s.deps.Patients == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "patient storage is not configured")
		return false
	}
	return true
}

func (s *Server) clinicalAvailable(w http.ResponseWriter) bool {
	if s.deps.Clinical == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "clinical storage is not configured")
		return false
	}
	return true
}

func pathPatientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid patient id")
		return uuid.Nil, false
	}
	return id, true
}

// createPatient handles POST /api/v1/patients.
func (s *Server) createPatient(w http.ResponseWriter, r *http.Request) {
	if !s.patientsAvailable(w) {
		return
	}

	var req patientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dob, err := optionalDate("date_of_birth", req.DateOfBirth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	p, err := s.deps.Patients.CreatePatient(r.Context(), store.NewPatient{
		CNIC:                  req.CNIC,
		FullName:              req.FullName,
		PhoneNumber:           req.PhoneNumber,
		Email:                 req.Email,
		Address:               req.Address,
		City:                  req.City,
		DateOfBirth:           dob,
		Gender:                req.Gender,
		BloodGroup:            req.BloodGroup,
		MaritalStatus:         req.MaritalStatus,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		ReceptionistID:        req.ReceptionistID,
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.logger.Info("patient registered", "patient_id", p.ID, "receptionist_id", p.ReceptionistID)
	writeJSON(w, http.StatusCreated, p)
}

// searchPatients handles GET /api/v1/patients?q=&limit=.
func (s *Server) searchPatients(w http.ResponseWriter, r *http.Request) {
	if !s.patientsAvailable(w) {
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

	patients, err := s.deps.Patients.SearchPatients(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if patients == nil {
		patients = []store.Patient{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": patients, "count": len(patients)})
}

// patientByCNIC handles GET /api/v1/patients/by-cnic/{cnic}.
func (s *Server) patientByCNIC(w http.ResponseWriter, r *http.Request) {
	if !s.patientsAvailable(w) {
		return
	}

	p, err := s.deps.Patients.PatientByCNIC(r.Context(), chi.URLParam(r, "cnic"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// getPatient handles GET /api/v1/patients/{id}.
func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	if !s.patientsAvailable(w) {
		return
	}
	id, ok := pathPatientID(w, r)
	if !ok {
		return
	}

	p, err := s.deps.Patients.PatientByID(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// patientVisits handles GET /api/v1/patients/{id}/visits.
func (s *Server) patientVisits(w http.ResponseWriter, r *http.Request) {
	if s.deps.Visits == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "visit storage is not configured")
		return
	}
	id, ok := pathPatientID(w, r)
	if !ok {
		return
	}

	visits, err := s.deps.Visits.PatientVisits(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"visits": visitResponses(visits), "count": len(visits)})
}

type medicationRequest struct {
	PrescriberID          uuid.UUID `json:"prescriber_id"`
	MedicationName        string    `json:"medication_name"`
	Strength              string    `json:"strength"`
	DosageForm            string    `json:"dosage_form"`
	DosageInstructions    string    `json:"dosage_instructions"`
	Frequency             string    `json:"frequency"`
	Quantity              int       `json:"quantity"`
	Refills               int       `json:"refills"`
	StartDate             string    `json:"start_date"`
	Status                string    `json:"status"`
	IsControlledSubstance bool      `json:"is_controlled_substance"`
}

// listMedications handles GET /api/v1/patients/{id}/medications.
func (s *Server) listMedications(w http.ResponseWriter, r *http.Request) {
	if !s.clinicalAvailable(w) {
		return
	}
	id, ok := pathPatientID(w, r)
	if !ok {
		return
	}

	meds, err := s.deps.Clinical.ListMedications(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if meds == nil {
		meds = []store.Medication{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"medications": meds, "count": len(meds)})
}

// createMedication handles POST /api/v1/patients/{id}/medications.
func (s *Server) createMedication(w http.ResponseWriter, r *http.Request) {
	if !s.clinicalAvailable(w) {
		return
	}
	id, ok := pathPatientID(w, r)
	if !ok {
		return
	}

	var req medicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := optionalDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}
	nm := store.NewMedication{
		PatientID:             id,
		PrescriberID:          req.PrescriberID,
		MedicationName:        req.MedicationName,
		Strength:              req.Strength,
		DosageForm:            req.DosageForm,
		DosageInstructions:    req.DosageInstructions,
		Frequency:             req.Frequency,
		Quantity:              req.Quantity,
		Refills:               req.Refills,
		Status:                req.Status,
		IsControlledSubstance: req.IsControlledSubstance,
	}
	if start != nil {
		nm.StartDate = *start
	}

	m, err := s.deps.Clinical.CreateMedication(r.Context(), nm)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.logger.Info("medication prescribed", "patient_id", id, "medication_id", m.ID, "prescriber_id", m.PrescriberID)
	writeJSON(w, http.StatusCreated, m)
}

type problemRequest struct {
	ProviderID   uuid.UUID `json:"provider_id"`
	ProblemName  string    `json:"problem_name"`
	ICD10Code    string    `json:"icd10_code"`
	Status       string    `json:"status"`
	Severity     string    `json:"severity"`
	OnsetDate    string    `json:"onset_date"`
	ResolvedDate string    `json:"resolved_date"`
	Notes        string    `json:"notes"`
}

// listProblems handles GET /api/v1/patients/{id}/problems.
func (s *Server) listProblems(w http.ResponseWriter, r *http.Request) {
	if !s.clinicalAvailable(w) {
		return
	}
	id, ok := pathPatientID(w, r)
	if !ok {
		return
	}

	problems, err := s.deps.Clinical.ListProblems(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if problems == nil {
		problems = []store.Problem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"problems": problems, "count": len(problems)})
}

// createProblem handles POST /api/v1/patients/{id}/problems.
func (s *Server) createProblem(w http.ResponseWriter, r *http.Request) {
	if !s.clinicalAvailable(w) {
		return
	}
	id, ok := pathPatientID(w, r)
	if !ok {
		return
	}

	var req problemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	onset, err := optionalDate("onset_date", req.OnsetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}
	resolved, err := optionalDate("resolved_date", req.ResolvedDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	p, err := s.deps.Clinical.CreateProblem(r.Context(), store.NewProblem{
		PatientID:    id,
		ProviderID:   req.ProviderID,
		ProblemName:  req.ProblemName,
		ICD10Code:    req.ICD10Code,
		Status:       req.Status,
		Severity:     req.Severity,
		OnsetDate:    onset,
		ResolvedDate: resolved,
		Notes:        req.Notes,
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.logger.Info("problem recorded", "patient_id", id, "problem_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}
