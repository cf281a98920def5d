package directory

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clinic-kiosk/pkg/model"
)

// CSVSource reads the patient table from a CSV export URL (e.g. a shared
// spreadsheet's export?format=csv endpoint). Column headers and cell
// values carry incidental whitespace that gets trimmed here so the cache
// can match on exact equality.
type CSVSource struct {
	URL      string
	IDColumn string // header of the identifier column, default "HN"
	Client   *http.Client
}

func NewCSVSource(url, idColumn string, timeout time.Duration) *CSVSource {
	if idColumn == "" {
		idColumn = "HN"
	}
	return &CSVSource{
		URL:      url,
		IDColumn: idColumn,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (s *CSVSource) ID() string { return s.URL }

func (s *CSVSource) Fetch(ctx context.Context) ([]model.PatientRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch patient table: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch patient table: unexpected status %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1 // tolerate ragged rows from hand-edited sheets
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse patient table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse patient table: no header row")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]model.PatientRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make(map[string]string, len(headers))
		for i, cell := range row {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			fields[headers[i]] = strings.TrimSpace(cell)
		}
		hn := fields[s.IDColumn]
		if hn == "" {
			continue // rows without an identifier cannot be looked up
		}
		delete(fields, s.IDColumn)
		out = append(out, model.PatientRecord{HN: hn, Fields: fields})
	}
	return out, nil
}
