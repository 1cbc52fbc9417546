package extractor

// Record is the canonical patient record produced from a transcript. Every
// field is optional; nil means the model could not determine it.
type Record struct {
	PatientName     *string `json:"patientName"`
	Age             *string `json:"age"`
	Gender          *string `json:"gender"`
	PrimarySymptom  *string `json:"primarySymptom"`
	SymptomDuration *string `json:"symptomDuration"`
	SymptomSeverity *string `json:"symptomSeverity"`
}

// Result is a Record plus provenance of the model answer it came from.
type Result struct {
	Record    Record
	Candidate string
	RawText   string
}

// Response is the first usable model answer from the invoker.
type Response struct {
	Candidate string
	Text      string
}

// Attempt is the outcome of one candidate call: Text on success, Err otherwise.
type Attempt struct {
	Candidate string
	Text      string
	Err       error
}

func (a Attempt) OK() bool { return a.Err == nil }

// TranscriptEvent is the NATS payload for bus-submitted check-ins.
type TranscriptEvent struct {
	Transcript     string `json:"transcript"`
	ReceptionistID string `json:"receptionist_id"`
	PatientID      string `json:"patient_id,omitempty"`
	VisitType      string `json:"visit_type,omitempty"`
	DoctorName     string `json:"doctor_name,omitempty"`
	NextVisit      string `json:"next_visit,omitempty"`
}

func strPtr(s string) *string { return &s }
