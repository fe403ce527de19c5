package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/repo"
)

type ValorLaudoRequest struct {
	TenantID        string `json:"tenant_id"`
	MedicoID        string `json:"medico_id"`
	EspecialidadeID string `json:"especialidade_id"`
	TipoExameID     string `json:"tipo_exame_id"`
	ValorCentavos   int64  `json:"valor_centavos"`
}

type ValorLaudoResponse struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	MedicoID        uuid.UUID `json:"medico_id"`
	EspecialidadeID uuid.UUID `json:"especialidade_id"`
	TipoExameID     uuid.UUID `json:"tipo_exame_id"`
	ValorCentavos   int64     `json:"valor_centavos"`
}

func valorResponse(v repo.ValorLaudo) ValorLaudoResponse {
	return ValorLaudoResponse{
		ID:              v.ID,
		TenantID:        v.TenantID,
		MedicoID:        v.MedicoID,
		EspecialidadeID: v.EspecialidadeID,
		TipoExameID:     v.TipoExameID,
		ValorCentavos:   v.ValorCentavos,
	}
}

func valoresCacheKey(tenants []uuid.UUID) string {
	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.String())
	}
	sort.Strings(ids)
	return "valores:" + strings.Join(ids, ",")
}

// ListarValores lista a configuração de preços do recorte do usuário, com
// cache TTL keyed pelos tenants. Mutação derruba o prefixo inteiro.
func (h *Handler) ListarValores(w http.ResponseWriter, r *http.Request) {
	a := auth.AuthorizationFrom(r.Context())
	tenants, err := h.Svc.TenantsDoRecorte(r.Context(), a)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	key := valoresCacheKey(tenants)
	if cached := h.Cache.Get(key); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(cached)
		return
	}
	list, err := repo.ValoresByTenants(r.Context(), h.Pool, tenants)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]ValorLaudoResponse, 0, len(list))
	for _, v := range list {
		out = append(out, valorResponse(v))
	}
	body, err := json.Marshal(map[string]interface{}{"items": out})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.Cache.Set(key, body)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handler) CriarValor(w http.ResponseWriter, r *http.Request) {
	a := auth.AuthorizationFrom(r.Context())
	var req ValorLaudoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	v := repo.ValorLaudo{ValorCentavos: req.ValorCentavos}
	var err error
	if v.TenantID, err = uuid.Parse(req.TenantID); err != nil {
		http.Error(w, `{"error":"tenant_id inválido"}`, http.StatusBadRequest)
		return
	}
	if v.MedicoID, err = uuid.Parse(req.MedicoID); err != nil {
		http.Error(w, `{"error":"medico_id inválido"}`, http.StatusBadRequest)
		return
	}
	if v.EspecialidadeID, err = uuid.Parse(req.EspecialidadeID); err != nil {
		http.Error(w, `{"error":"especialidade_id inválido"}`, http.StatusBadRequest)
		return
	}
	if v.TipoExameID, err = uuid.Parse(req.TipoExameID); err != nil {
		http.Error(w, `{"error":"tipo_exame_id inválido"}`, http.StatusBadRequest)
		return
	}
	if req.ValorCentavos < 0 {
		http.Error(w, `{"error":"valor_centavos não pode ser negativo"}`, http.StatusBadRequest)
		return
	}
	if !a.HasTenant(v.TenantID) {
		http.Error(w, `{"error":"tenant_id fora do recorte do usuário"}`, http.StatusForbidden)
		return
	}
	id, err := repo.CreateValorLaudo(r.Context(), h.Pool, &v)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			http.Error(w, `{"error":"já existe valor configurado para esta combinação"}`, http.StatusConflict)
			return
		}
		h.writeErr(w, r, err)
		return
	}
	v.ID = id
	h.Cache.DeletePrefix("valores:")
	writeJSON(w, http.StatusCreated, valorResponse(v))
}

type AtualizarValorRequest struct {
	ValorCentavos int64 `json:"valor_centavos"`
}

func (h *Handler) AtualizarValor(w http.ResponseWriter, r *http.Request) {
	a := auth.AuthorizationFrom(r.Context())
	id, ok := parseUUIDVar(mux.Vars(r), "valorId")
	if !ok {
		http.Error(w, `{"error":"valorId inválido"}`, http.StatusBadRequest)
		return
	}
	var req AtualizarValorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if req.ValorCentavos < 0 {
		http.Error(w, `{"error":"valor_centavos não pode ser negativo"}`, http.StatusBadRequest)
		return
	}
	atual, err := repo.ValorLaudoByID(r.Context(), h.Pool, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if atual == nil || !a.HasTenant(atual.TenantID) {
		http.Error(w, `{"error":"não encontrado"}`, http.StatusNotFound)
		return
	}
	if err := repo.UpdateValorLaudo(r.Context(), h.Pool, id, req.ValorCentavos); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.Cache.DeletePrefix("valores:")
	writeJSON(w, http.StatusOK, map[string]string{"status": "atualizado"})
}

func (h *Handler) RemoverValor(w http.ResponseWriter, r *http.Request) {
	a := auth.AuthorizationFrom(r.Context())
	id, ok := parseUUIDVar(mux.Vars(r), "valorId")
	if !ok {
		http.Error(w, `{"error":"valorId inválido"}`, http.StatusBadRequest)
		return
	}
	tenantID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("tenant_id")))
	if err != nil {
		if len(a.TenantIDs) != 1 {
			http.Error(w, `{"error":"tenant_id é obrigatório"}`, http.StatusBadRequest)
			return
		}
		tenantID = a.TenantIDs[0]
	}
	if !a.HasTenant(tenantID) {
		http.Error(w, `{"error":"tenant_id fora do recorte do usuário"}`, http.StatusForbidden)
		return
	}
	if err := repo.DeleteValorLaudo(r.Context(), h.Pool, id, tenantID); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.Cache.DeletePrefix("valores:")
	writeJSON(w, http.StatusOK, map[string]string{"status": "removido"})
}
