package model

import (
	"encoding/json"
	"time"
)

// PatientRecord is one row of the patient table keyed by hospital number.
// Records are immutable once read; a refresh replaces the whole snapshot,
// never individual fields.
type PatientRecord struct {
	HN     string
	Fields map[string]string
}

// Field returns a named attribute value, "" when absent.
func (p PatientRecord) Field(name string) string {
	return p.Fields[name]
}

// MarshalJSON renders the record as a flat object the way the sheet row
// looks to the front end, with HN always present.
func (p PatientRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}
	out["HN"] = p.HN
	return json.Marshal(out)
}

// UnmarshalJSON restores a record from the flat form.
func (p *PatientRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.HN = raw["HN"]
	delete(raw, "HN")
	p.Fields = raw
	return nil
}

// DirectorySnapshot is the full in-memory copy of the external patient
// table. It is installed atomically and discarded wholesale on refresh.
type DirectorySnapshot struct {
	Records   []PatientRecord
	FetchedAt time.Time
	SourceID  string
}
