package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"veenoe/internal/model"
	"veenoe/internal/service"
	"veenoe/internal/transport/rest/middleware"
)

// Session ids are Mongo ObjectIDs: 24 hex characters. Non-conforming
// ids are rejected here, before any store round-trip.
var sessionIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// VivaHandler handles the viva session endpoints.
type VivaHandler struct {
	vivaSvc *service.VivaService
}

// NewVivaHandler creates a new viva handler
func NewVivaHandler(vivaSvc *service.VivaService) *VivaHandler {
	return &VivaHandler{vivaSvc: vivaSvc}
}

// Start handles POST /api/v1/viva/start
func (h *VivaHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.StartVivaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StudentName == "" || req.Topic == "" {
		writeError(w, http.StatusBadRequest, "studentName and topic are required")
		return
	}
	if req.ClassLevel <= 0 {
		writeError(w, http.StatusBadRequest, "classLevel must be positive")
		return
	}
	if req.SessionType != "" && req.SessionType != model.SessionTypeViva && req.SessionType != model.SessionTypeLearn {
		writeError(w, http.StatusBadRequest, "sessionType must be viva or learn")
		return
	}

	resp, err := h.vivaSvc.StartViva(r.Context(), &req, user)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Conclude handles POST /api/v1/viva/conclude-viva
func (h *VivaHandler) Conclude(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.ConcludeVivaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !sessionIDPattern.MatchString(req.VivaSessionID) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if req.Score < 0 || req.Score > 10 {
		writeError(w, http.StatusBadRequest, "score must be between 0 and 10")
		return
	}

	resp, err := h.vivaSvc.ConcludeViva(r.Context(), &req, user)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /api/v1/viva/history
func (h *VivaHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessions, err := h.vivaSvc.GetUserHistory(r.Context(), user.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{Sessions: sessions})
}

// GetDetails handles GET /api/v1/viva/{session_id}. Public by policy:
// session detail links are shareable, so there is no auth here.
func (h *VivaHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	if !sessionIDPattern.MatchString(sessionID) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.vivaSvc.GetSessionDetails(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Rename handles PATCH /api/v1/viva/{session_id}/rename
func (h *VivaHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessionID := mux.Vars(r)["session_id"]
	if !sessionIDPattern.MatchString(sessionID) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req model.RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewTitle == "" {
		writeError(w, http.StatusBadRequest, "newTitle is required")
		return
	}

	if err := h.vivaSvc.RenameSession(r.Context(), sessionID, req.NewTitle, user); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Session renamed successfully"})
}

// Delete handles DELETE /api/v1/viva/{session_id}
func (h *VivaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessionID := mux.Vars(r)["session_id"]
	if !sessionIDPattern.MatchString(sessionID) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.vivaSvc.DeleteSession(r.Context(), sessionID, user); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Session deleted successfully"})
}

// NextQuestion handles POST /api/v1/viva/next-question (multi-tool
// protocol relay).
func (h *VivaHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	var req model.NextQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !sessionIDPattern.MatchString(req.VivaSessionID) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		writeError(w, http.StatusBadRequest, "difficulty must be between 1 and 5")
		return
	}

	resp, err := h.vivaSvc.NextQuestion(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// EvaluateAnswer handles POST /api/v1/viva/evaluate-answer (multi-tool
// protocol relay).
func (h *VivaHandler) EvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	var req model.EvaluateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !sessionIDPattern.MatchString(req.VivaSessionID) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		writeError(w, http.StatusBadRequest, "difficulty must be between 1 and 5")
		return
	}

	resp, err := h.vivaSvc.EvaluateAndSave(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps service errors to HTTP statuses. Unclassified
// errors (store failures) are logged in full and surfaced generically.
func (h *VivaHandler) writeServiceError(w http.ResponseWriter, err error) {
	var provErr *service.ProvisioningError

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoQuestions):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		// Never reveal whether the resource exists to a non-owner.
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrSessionNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &provErr):
		// The session record survives the failed provisioning; hand
		// its id back so the caller can retry or delete the orphan.
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":         "failed to provision live session token",
			"vivaSessionId": provErr.SessionID,
		})
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
