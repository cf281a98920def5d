package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinic-kiosk/pkg/directory"
	"clinic-kiosk/pkg/events"
	"clinic-kiosk/pkg/kiosk"
	"clinic-kiosk/pkg/model"
	"clinic-kiosk/pkg/store"
	"clinic-kiosk/pkg/version"
)

// RegisterRoutes wires the HTTP handlers on the provided mux.
func RegisterRoutes(mux *http.ServeMux, m *kiosk.Machine, dir *directory.Cache, st store.SessionStore, hub *events.Hub, qb *directory.QuestionBank) {
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("clinic-kiosk backend"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := st.Ping(); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/ws/events", hub.ServeWS)

	mux.HandleFunc("/trigger/person", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		state := m.PersonDetected()
		log.Printf("trigger person: count=%d presence=%v", state.PersonCount, state.Presence)
		writeJSON(w, http.StatusOK, TriggerResponse{OK: true, State: state})
	}))

	mux.HandleFunc("/trigger/reset", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		state := m.ResetIdle()
		log.Printf("trigger reset: count=%d presence=%v", state.ResetCount, state.Presence)
		writeJSON(w, http.StatusOK, TriggerResponse{OK: true, State: state})
	}))

	mux.HandleFunc("/trigger/qr", withCORS(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// last scanned identifier, kept for the detector's self-check
			hn := m.LastHN()
			if hn == "" {
				writeError(w, http.StatusNotFound, "No HN posted yet")
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "hn": hn})
		case http.MethodPost:
			hn := parseHN(r)
			if hn == "" {
				// rejected before any state mutation
				writeError(w, http.StatusBadRequest, "Field 'hn' (or 'code') is required")
				return
			}
			state, rec, found := m.QRScanned(r.Context(), hn)
			resp := QRResponse{OK: true, Found: found, State: state}
			if found {
				resp.Patient = &rec
			} else {
				resp.HN = hn
			}
			writeJSON(w, http.StatusOK, resp)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}))

	mux.HandleFunc("/api/patient/", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		hn := strings.TrimPrefix(r.URL.Path, "/api/patient/")
		if hn == "" {
			writeError(w, http.StatusBadRequest, "hn is required")
			return
		}
		rec, err := dir.Lookup(r.Context(), hn)
		if err != nil {
			writeJSON(w, http.StatusOK, PatientResponse{OK: true, Found: false, HN: hn})
			return
		}
		writeJSON(w, http.StatusOK, PatientResponse{OK: true, Found: true, Patient: &rec})
	}))

	mux.HandleFunc("/api/state", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, StateResponse{
			OK:        true,
			State:     m.Snapshot(),
			Directory: dir.Stats(),
			Version:   version.Build,
		})
	}))

	mux.HandleFunc("/api/question", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if qb == nil {
			writeJSON(w, http.StatusOK, QuestionResponse{OK: true, Found: false})
			return
		}
		station := strings.TrimSpace(r.URL.Query().Get("station"))
		q, err := qb.Random(r.Context(), station)
		if err != nil {
			if !errors.Is(err, directory.ErrNoQuestion) {
				log.Printf("question lookup failed station=%q: %v", station, err)
			}
			writeJSON(w, http.StatusOK, QuestionResponse{OK: true, Found: false})
			return
		}
		writeJSON(w, http.StatusOK, QuestionResponse{OK: true, Found: true, Question: &q, Text: q.Text()})
	}))

	mux.HandleFunc("/api/session", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		req.HN = strings.TrimSpace(req.HN)
		if req.HN == "" {
			writeError(w, http.StatusBadRequest, "Field 'hn' is required")
			return
		}
		if req.Rating < 0 || req.Rating > 5 {
			writeError(w, http.StatusBadRequest, "rating must be within 0..5")
			return
		}
		entry := model.FeedbackEntry{
			ID:        uuid.NewString(),
			HN:        req.HN,
			Station:   strings.TrimSpace(req.Station),
			Question:  req.Question,
			Rating:    req.Rating,
			Comment:   req.Comment,
			CreatedAt: time.Now(),
		}
		if err := st.SaveFeedback(entry); err != nil {
			log.Printf("save feedback failed hn=%s: %v", entry.HN, err)
			writeError(w, http.StatusInternalServerError, "failed to save session")
			return
		}
		log.Printf("feedback saved id=%s hn=%s station=%s rating=%d", entry.ID, entry.HN, entry.Station, entry.Rating)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "data": entry})
	}))

	mux.HandleFunc("/api/v1/admin/refresh", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if !authFuncJWT(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := dir.Refresh(r.Context(), true); err != nil {
			// previous snapshot stays in service
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": false, "error": err.Error(), "directory": dir.Stats()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "directory": dir.Stats()})
	}))

	mux.HandleFunc("/api/v1/admin/sessions", withCORS(func(w http.ResponseWriter, r *http.Request) {
		if !authFuncJWT(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := st.ListFeedback(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list sessions")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "data": entries})
	}))
}

// parseHN pulls the identifier out of a trigger/qr request: JSON body,
// form body and query string are all accepted, "hn" or "code" key, the
// way the hand-built detectors post it.
func parseHN(r *http.Request) string {
	raw, _ := io.ReadAll(io.LimitReader(r.Body, 1<<16))

	var body struct {
		HN   string `json:"hn"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if v := strings.TrimSpace(body.HN); v != "" {
			return v
		}
		if v := strings.TrimSpace(body.Code); v != "" {
			return v
		}
	}
	if form, err := url.ParseQuery(string(raw)); err == nil {
		for _, key := range []string{"hn", "code"} {
			if v := strings.TrimSpace(form.Get(key)); v != "" {
				return v
			}
		}
	}
	for _, key := range []string{"hn", "code"} {
		if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
			return v
		}
	}
	return ""
}
