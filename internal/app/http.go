package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"janseva/api/internal/complaint"
	"janseva/api/internal/export"
	"janseva/api/internal/projection"
	"janseva/api/internal/store"
	"janseva/api/internal/timeline"
)

const (
	headerProfile     = "X-Profile-ID"
	headerViewSession = "X-View-Session"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)

	api.HandleFunc("/complaints", s.handleListComplaints).Methods(http.MethodGet)
	api.HandleFunc("/complaints", s.handleCreateComplaint).Methods(http.MethodPost)
	api.HandleFunc("/complaints/{id}", s.handleTrackComplaint).Methods(http.MethodGet)
	api.HandleFunc("/complaints/{id}", s.handleDeleteComplaint).Methods(http.MethodDelete)
	api.HandleFunc("/complaints/{id}/sla/stream", s.handleSLAStream).Methods(http.MethodGet)
	api.HandleFunc("/complaints/{id}/feedback", s.handleSubmitFeedback).Methods(http.MethodPost)
	api.HandleFunc("/complaints/{id}/feedback/dismiss", s.handleDismissFeedback).Methods(http.MethodPost)
	api.HandleFunc("/complaints/{id}/receipt.pdf", s.handleReceipt).Methods(http.MethodGet)

	api.HandleFunc("/export/history.xlsx", s.handleExportHistory).Methods(http.MethodGet)
	api.HandleFunc("/export/archive", s.handleArchiveHistory).Methods(http.MethodPost)

	api.HandleFunc("/revisions", s.handleRevisions).Methods(http.MethodGet)
	api.HandleFunc("/revisions/{hash}", s.handleRevision).Methods(http.MethodGet)

	return s.withMiddleware(router)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"store": map[string]any{"status": "ok", "backend": s.service.cfg.StoreBackend},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["store"] = map[string]any{
			"status":  "error",
			"backend": s.service.cfg.StoreBackend,
			"error":   err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Summary(r.Context(), profileID(r)))
}

func (s *HTTPServer) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.ListComplaints(r.Context(), profileID(r), filter))
}

func (s *HTTPServer) handleCreateComplaint(w http.ResponseWriter, r *http.Request) {
	var body complaint.CreateInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	record, err := s.service.CreateComplaint(r.Context(), profileID(r), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *HTTPServer) handleTrackComplaint(w http.ResponseWriter, r *http.Request) {
	tracking, err := s.service.Track(r.Context(), profileID(r), r.Header.Get(headerViewSession), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracking)
}

func (s *HTTPServer) handleDeleteComplaint(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.service.DeleteComplaint(r.Context(), profileID(r), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": strings.TrimPrefix(id, "#")})
}

type slaEvent struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	SLAElapsedHours   float64   `json:"slaElapsedHours"`
	SLARemainingHours float64   `json:"slaRemainingHours"`
	SLAProgress       float64   `json:"slaProgress"`
	IsCritical        bool      `json:"isCritical"`
	ExpectedBy        time.Time `json:"expectedResolution"`
}

// handleSLAStream sends the countdown as server-sent events until the
// client goes away.
func (s *HTTPServer) handleSLAStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "Streaming unsupported", nil)
		return
	}
	record, err := s.service.Complaint(r.Context(), profileID(r), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err = s.service.WatchSLA(r.Context(), record, func(result timeline.Result) bool {
		payload, err := json.Marshal(slaEvent{
			ID:                record.ID,
			Status:            string(record.Status),
			SLAElapsedHours:   result.SLAElapsedHours,
			SLARemainingHours: result.SLARemainingHours,
			SLAProgress:       result.SLAProgress,
			IsCritical:        result.IsCritical,
			ExpectedBy:        result.ExpectedResolution,
		})
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: sla\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	})
	if err != nil {
		log.Printf("app: sla stream %s: %v", record.ID, err)
	}
}

func (s *HTTPServer) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var body complaint.FeedbackInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	entry, err := s.service.SubmitFeedback(r.Context(), profileID(r), r.Header.Get(headerViewSession), mux.Vars(r)["id"], body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *HTTPServer) handleDismissFeedback(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DismissFeedbackPrompt(r.Context(), profileID(r), r.Header.Get(headerViewSession), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReceipt(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Receipt(r.Context(), profileID(r), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeFile(w, result)
}

func (s *HTTPServer) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.service.ExportHistory(r.Context(), profileID(r), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeFile(w, result)
}

func (s *HTTPServer) handleArchiveHistory(w http.ResponseWriter, r *http.Request) {
	key, err := s.service.ArchiveHistory(r.Context(), profileID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "key": key})
}

func (s *HTTPServer) handleRevisions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := s.service.Revisions(r.Context(), profileID(r), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": items})
}

func (s *HTTPServer) handleRevision(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	records, err := s.service.ComplaintsAt(r.Context(), profileID(r), hash)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hash": hash, "complaints": records})
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("app: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, code, message, details)
}

func profileID(r *http.Request) string {
	profile := strings.TrimSpace(r.Header.Get(headerProfile))
	if profile == "" {
		return store.DefaultProfile
	}
	return profile
}

func filterFromQuery(r *http.Request) (projection.Filter, error) {
	query := r.URL.Query()
	return projection.ParseFilter(query.Get("q"), query.Get("status"), query.Get("sort"))
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Profile-ID, X-View-Session")
	header.Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeFile(w http.ResponseWriter, result *export.Result) {
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, projection.ErrUnknownStatus):
		return http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status filter", map[string]string{"status": err.Error()}
	case errors.Is(err, complaint.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, store.ErrCorruptSlot):
		return http.StatusConflict, "STORE_CORRUPT", "Stored data is unreadable and was left untouched", nil
	case errors.Is(err, store.ErrNoJournal):
		return http.StatusNotImplemented, "JOURNAL_UNAVAILABLE", "Store backend keeps no history", nil
	case errors.Is(err, export.ErrPDFDisabled), errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "Receipt export is unavailable", nil
	case errors.Is(err, export.ErrArchiveDisabled):
		return http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "Export archive is not configured", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
