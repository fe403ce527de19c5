package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/laudosaude/backend/internal/assinatura"
	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/cache"
	"github.com/laudosaude/backend/internal/config"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/middleware"
	"github.com/laudosaude/backend/internal/repo"
	"github.com/laudosaude/backend/internal/service"
)

type Handler struct {
	Pool  *pgxpool.Pool
	Cfg   *config.Config
	Svc   *service.Service
	Cache *cache.TTL
	Log   zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Campo string `json:"campo,omitempty"`
}

// writeErr mapeia a taxonomia de erros do domínio para status HTTP. Erros não
// mapeados são 500, logados e registrados em error_events em melhor esforço.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var val *laudo.ErrValidacao
	if errors.As(err, &val) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Campo: val.Campo})
		return
	}
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "não encontrado"})
		return
	case errors.Is(err, laudo.ErrNaoEncontrado),
		errors.Is(err, laudo.ErrExameNaoEncontrado),
		errors.Is(err, laudo.ErrPagamentoNaoEncontrado):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, assinatura.ErrCredencialInvalida):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, assinatura.ErrCertificadoAusente),
		errors.Is(err, assinatura.ErrCertificadoExpirado),
		errors.Is(err, assinatura.ErrChaveNaoSuportada):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, laudo.ErrLaudoInvalidado),
		errors.Is(err, laudo.ErrPagamentoJaCancelado):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	var trans *laudo.ErrTransicaoInvalida
	var pago *laudo.ErrJaPago
	var lote *laudo.ErrLoteMedicosDistintos
	if errors.As(err, &trans) || errors.As(err, &pago) || errors.As(err, &lote) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	var ext *laudo.ErrServicoExterno
	if errors.As(err, &ext) {
		h.Log.Error().Err(err).Str("servico", ext.Servico).Str("path", r.URL.Path).Msg("falha de serviço externo")
		h.recordBackendError(r, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("erro interno")
	h.recordBackendError(r, err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
}

// recordBackendError grava o erro em error_events, com código Postgres quando
// há. Melhor esforço: nunca afeta a resposta.
func (h *Handler) recordBackendError(r *http.Request, cause error) {
	ev := repo.ErrorEvent{
		Source:   "backend",
		Severity: "ERROR",
	}
	if rid := middleware.RequestIDFromContext(r.Context()); rid != "" {
		ev.RequestID = &rid
	}
	method := r.Method
	path := r.URL.Path
	msg := cause.Error()
	ev.HTTPMethod = &method
	ev.Path = &path
	ev.Message = &msg
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
	var pgErr *pgconn.PgError
	if errors.As(cause, &pgErr) {
		code := pgErr.Code
		pmsg := pgErr.Message
		ev.PGCode = &code
		ev.PGMessage = &pmsg
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 3*time.Second)
	defer cancel()
	if err := repo.CreateErrorEvent(ctx, h.Pool, ev); err != nil {
		h.Log.Error().Err(err).Msg("falha ao gravar error_event")
	}
}

// Health responde vivo sem tocar o banco.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida a conectividade com o Postgres.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.Pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
