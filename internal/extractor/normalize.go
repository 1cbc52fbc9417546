package extractor

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Normalize turns raw model text into the canonical Record. It fails only
// when the text holds no parsable JSON object; missing fields become nil.
func Normalize(raw string) (Record, error) {
	obj, ok := findJSONObject(stripCodeFence(raw))
	if !ok {
		return Record{}, &Error{
			Kind: KindMalformedResponse,
			Msg:  "no JSON object in model output: " + truncate(strings.TrimSpace(raw), 200),
		}
	}

	if _, nested := obj["patient_data"]; nested {
		return fromNested(obj), nil
	}
	if _, nested := obj["symptoms_data"]; nested {
		return fromNested(obj), nil
	}
	if isCanonical(obj) {
		return fromCanonical(obj), nil
	}
	if isLegacyFlat(obj) {
		return adaptLegacyFlat(obj), nil
	}
	return Record{}, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// findJSONObject decodes the first '{' that starts a complete JSON object.
// Trailing prose after the object is ignored by the decoder.
func findJSONObject(text string) (map[string]any, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

func fromNested(obj map[string]any) Record {
	var rec Record

	if patient, ok := obj["patient_data"].(map[string]any); ok {
		rec.PatientName = scalar(patient["name"])
		if rec.PatientName == nil {
			rec.PatientName = scalar(patient["patient_name"])
		}
		rec.Age = scalar(patient["age"])
		rec.Gender = scalar(patient["gender"])
	}

	switch symptoms := obj["symptoms_data"].(type) {
	case map[string]any:
		rec.PrimarySymptom = scalar(symptoms["primary_symptom"])
		rec.SymptomDuration = scalar(symptoms["duration"])
		rec.SymptomSeverity = scalar(symptoms["severity"])
	case []any:
		// Stored visits keep symptoms as [{name, duration, severity}].
		if len(symptoms) > 0 {
			if first, ok := symptoms[0].(map[string]any); ok {
				rec.PrimarySymptom = scalar(first["name"])
				rec.SymptomDuration = scalar(first["duration"])
				rec.SymptomSeverity = scalar(first["severity"])
			}
		}
	}
	return rec
}

// canonicalOnlyKeys are the Record keys that no older shape uses.
var canonicalOnlyKeys = []string{"patientName", "primarySymptom", "symptomDuration", "symptomSeverity"}

func isCanonical(obj map[string]any) bool {
	return hasAny(obj, canonicalOnlyKeys)
}

// fromCanonical reads a serialized Record. Values are taken as written so
// that a stored record normalizes back to itself.
func fromCanonical(obj map[string]any) Record {
	return Record{
		PatientName:     verbatim(obj["patientName"]),
		Age:             verbatim(obj["age"]),
		Gender:          verbatim(obj["gender"]),
		PrimarySymptom:  verbatim(obj["primarySymptom"]),
		SymptomDuration: verbatim(obj["symptomDuration"]),
		SymptomSeverity: verbatim(obj["symptomSeverity"]),
	}
}

var legacyFlatKeys = []string{"patient_name", "age", "gender", "symptoms", "duration", "severity"}

func isLegacyFlat(obj map[string]any) bool {
	return hasAny(obj, legacyFlatKeys)
}

func hasAny(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// adaptLegacyFlat reads the older flat shape:
// {patient_name, age, gender, symptoms: [...], duration, severity}.
func adaptLegacyFlat(obj map[string]any) Record {
	rec := Record{
		PatientName:     scalar(obj["patient_name"]),
		Age:             scalar(obj["age"]),
		Gender:          scalar(obj["gender"]),
		SymptomDuration: scalar(obj["duration"]),
		SymptomSeverity: scalar(obj["severity"]),
	}
	switch symptoms := obj["symptoms"].(type) {
	case []any:
		if len(symptoms) > 0 {
			rec.PrimarySymptom = scalar(symptoms[0])
		}
	default:
		rec.PrimarySymptom = scalar(symptoms)
	}
	return rec
}

// scalar renders strings and numbers; empty strings, null, bools and
// containers are treated as not captured.
func scalar(v any) *string {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" && !strings.EqualFold(s, "null") {
			return strPtr(s)
		}
	case json.Number:
		return strPtr(val.String())
	}
	return nil
}

// verbatim is scalar without the cleanup meant for raw model output.
func verbatim(v any) *string {
	switch val := v.(type) {
	case string:
		return strPtr(val)
	case json.Number:
		return strPtr(val.String())
	}
	return nil
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
