package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/middleware"
	"github.com/laudosaude/backend/internal/repo"
)

type FrontendErrorRequest struct {
	RequestID  *string                `json:"request_id,omitempty"`
	Severity   string                 `json:"severity"` // WARN|ERROR
	Kind       string                 `json:"kind"`
	Message    string                 `json:"message"`
	Stack      *string                `json:"stack,omitempty"`
	HTTPMethod *string                `json:"http_method,omitempty"`
	Path       *string                `json:"path,omitempty"`
	ActionName *string                `json:"action_name,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// IngestFrontendError recebe erros do dashboard React. Auth é opcional; com
// JWT presente o evento ganha ator e tenant.
func (h *Handler) IngestFrontendError(w http.ResponseWriter, r *http.Request) {
	var req FrontendErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	sev := strings.ToUpper(strings.TrimSpace(req.Severity))
	if sev != "WARN" && sev != "ERROR" {
		http.Error(w, `{"error":"severity deve ser WARN ou ERROR"}`, http.StatusBadRequest)
		return
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = "FRONTEND_ERROR"
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		msg = "frontend error"
	}

	ev := repo.ErrorEvent{
		Source:     "frontend",
		Severity:   sev,
		Kind:       &kind,
		Message:    &msg,
		Stack:      req.Stack,
		HTTPMethod: req.HTTPMethod,
		Path:       req.Path,
		ActionName: req.ActionName,
		Metadata:   req.Metadata,
	}
	if req.RequestID != nil && *req.RequestID != "" {
		ev.RequestID = req.RequestID
	} else if rid := middleware.RequestIDFromContext(r.Context()); rid != "" {
		ev.RequestID = &rid
	}
	if a := auth.AuthorizationFrom(r.Context()); a != nil {
		at := a.Role
		uid := a.UserID
		ev.ActorType = &at
		ev.ActorID = &uid
		if len(a.TenantIDs) == 1 {
			tid := a.TenantIDs[0]
			ev.TenantID = &tid
		}
	}

	if err := repo.CreateErrorEvent(r.Context(), h.Pool, ev); err != nil {
		h.Log.Error().Err(err).Msg("falha ao gravar erro de frontend")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "registrado"})
}
