package record

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"postflow/internal/common"
	"postflow/internal/dbmongo"

	"github.com/gorilla/mux"
)

// Handler exposes the record surface to the drafting and board
// collaborators over HTTP.
type Handler struct {
	service RecordService
	journal dbmongo.AttemptJournal
}

func NewHandler(service RecordService, journal dbmongo.AttemptJournal) *Handler {
	return &Handler{service: service, journal: journal}
}

func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.health).Methods("GET")

	api := router.PathPrefix("/").Subrouter()
	api.Use(common.AuthMiddleware)
	api.HandleFunc("/records", h.createRecord).Methods("POST")
	api.HandleFunc("/records", h.listRecords).Methods("GET")
	api.HandleFunc("/records/{id}", h.getRecord).Methods("GET")
	api.HandleFunc("/records/{id}/transition", h.transition).Methods("POST")
	api.HandleFunc("/records/{id}/schedule", h.reschedule).Methods("PUT")
	api.HandleFunc("/records/{id}/attempts", h.listAttempts).Methods("GET")

	return router
}

type createRecordRequest struct {
	PlatformID  string     `json:"platform_id"`
	Body        string     `json:"body"`
	MediaRefs   []string   `json:"media_refs"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.service.CreateRecord(r.Context(), ownerID, CreateInput{
		PlatformID:  req.PlatformID,
		Body:        req.Body,
		MediaRefs:   req.MediaRefs,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	records, err := h.service.ListRecords(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	ownerID, recordID, ok := h.recordCall(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetRecord(r.Context(), ownerID, recordID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type transitionRequest struct {
	TargetStatus string `json:"target_status"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	ownerID, recordID, ok := h.recordCall(w, r)
	if !ok {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Transition(r.Context(), ownerID, recordID, common.RecordStatus(req.TargetStatus))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	ownerID, recordID, ok := h.recordCall(w, r)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Reschedule(r.Context(), ownerID, recordID, req.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	ownerID, recordID, ok := h.recordCall(w, r)
	if !ok {
		return
	}

	// Ownership gate before exposing history.
	if _, err := h.service.GetRecord(r.Context(), ownerID, recordID); err != nil {
		writeError(w, err)
		return
	}

	if h.journal == nil {
		writeJSON(w, http.StatusOK, []dbmongo.AttemptEntry{})
		return
	}

	entries, err := h.journal.ByRecord(r.Context(), recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []dbmongo.AttemptEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("✅ Publisher service is healthy"))
}

func (h *Handler) recordCall(w http.ResponseWriter, r *http.Request) (ownerID, recordID int64, ok bool) {
	ownerID, authed := common.UserIDFrom(r.Context())
	if !authed {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return 0, 0, false
	}

	recordID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return 0, 0, false
	}

	return ownerID, recordID, true
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// Manual operations fail fast with a descriptive reason string; the
// taxonomy maps onto status codes here and nowhere else.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case common.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case common.IsInvalidTransition(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, common.ErrNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
