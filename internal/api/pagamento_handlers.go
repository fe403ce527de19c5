package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/service"
)

type RegistrarPagamentoRequest struct {
	LaudoIDs              []string `json:"laudo_ids"`
	ValorDescontoCentavos int64    `json:"valor_desconto_centavos"`
	ValorFinalCentavos    int64    `json:"valor_final_centavos"`
	MeioPagamento         string   `json:"meio_pagamento"`
	Observacoes           string   `json:"observacoes,omitempty"`
}

func (h *Handler) RegistrarPagamento(w http.ResponseWriter, r *http.Request) {
	var req RegistrarPagamentoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.LaudoIDs))
	for _, s := range req.LaudoIDs {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			http.Error(w, `{"error":"laudo_ids contém id inválido"}`, http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}
	view, err := h.Svc.RegistrarPagamento(r.Context(), auth.AuthorizationFrom(r.Context()), service.RegistrarPagamentoInput{
		LaudoIDs:              ids,
		ValorDescontoCentavos: req.ValorDescontoCentavos,
		ValorFinalCentavos:    req.ValorFinalCentavos,
		MeioPagamento:         strings.TrimSpace(req.MeioPagamento),
		Observacoes:           strings.TrimSpace(req.Observacoes),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

type CancelarPagamentoRequest struct {
	Motivo string `json:"motivo"`
}

func (h *Handler) CancelarPagamento(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "pagamentoId")
	if !ok {
		http.Error(w, `{"error":"pagamentoId inválido"}`, http.StatusBadRequest)
		return
	}
	// motivo é opcional; corpo vazio cancela sem observação
	var req CancelarPagamentoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	view, err := h.Svc.CancelarPagamento(r.Context(), auth.AuthorizationFrom(r.Context()), id, strings.TrimSpace(req.Motivo))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) ListarPagamentos(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r)
	views, total, err := h.Svc.ListarPagamentos(r.Context(), auth.AuthorizationFrom(r.Context()), limit, offset)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: views, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) BuscarPagamento(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "pagamentoId")
	if !ok {
		http.Error(w, `{"error":"pagamentoId inválido"}`, http.StatusBadRequest)
		return
	}
	view, err := h.Svc.BuscarPagamento(r.Context(), auth.AuthorizationFrom(r.Context()), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
