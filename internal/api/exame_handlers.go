package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/service"
)

type CriarExameRequest struct {
	TenantID          string `json:"tenant_id"`
	PacienteNome      string `json:"paciente_nome"`
	TipoExameID       string `json:"tipo_exame_id"`
	EspecialidadeID   string `json:"especialidade_id"`
	MedicoSolicitante string `json:"medico_solicitante,omitempty"`
}

func (h *Handler) CriarExame(w http.ResponseWriter, r *http.Request) {
	var req CriarExameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	a := auth.AuthorizationFrom(r.Context())

	tenantID, err := uuid.Parse(strings.TrimSpace(req.TenantID))
	if err != nil {
		// usuário de um tenant só pode omitir o campo
		if len(a.TenantIDs) == 1 && strings.TrimSpace(req.TenantID) == "" {
			tenantID = a.TenantIDs[0]
		} else {
			http.Error(w, `{"error":"tenant_id inválido"}`, http.StatusBadRequest)
			return
		}
	}
	tipoID, err := uuid.Parse(strings.TrimSpace(req.TipoExameID))
	if err != nil {
		http.Error(w, `{"error":"tipo_exame_id inválido"}`, http.StatusBadRequest)
		return
	}
	espID, err := uuid.Parse(strings.TrimSpace(req.EspecialidadeID))
	if err != nil {
		http.Error(w, `{"error":"especialidade_id inválido"}`, http.StatusBadRequest)
		return
	}

	view, err := h.Svc.CriarExame(r.Context(), a, service.CriarExameInput{
		TenantID:          tenantID,
		PacienteNome:      strings.TrimSpace(req.PacienteNome),
		TipoExameID:       tipoID,
		EspecialidadeID:   espID,
		MedicoSolicitante: strings.TrimSpace(req.MedicoSolicitante),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) BuscarExame(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "exameId")
	if !ok {
		http.Error(w, `{"error":"exameId inválido"}`, http.StatusBadRequest)
		return
	}
	view, err := h.Svc.BuscarExame(r.Context(), auth.AuthorizationFrom(r.Context()), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
