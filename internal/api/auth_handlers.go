package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/repo"
)

type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Nome        string   `json:"nome"`
	Role        string   `json:"role"`
	TenantIDs   []string `json:"tenant_ids,omitempty"`
	AdminMaster bool     `json:"admin_master"`
	CRM         *string  `json:"crm,omitempty"`
}

// Login autentica por e-mail e senha e emite o JWT com papel e tenants.
// Credencial errada e e-mail inexistente respondem o mesmo 401 genérico.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Senha == "" {
		http.Error(w, `{"error":"email e senha são obrigatórios"}`, http.StatusBadRequest)
		return
	}

	u, err := repo.UsuarioByEmail(r.Context(), h.Pool, req.Email)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(u.SenhaHash, req.Senha) {
		genericLoginError(w)
		return
	}

	tenantIDs := make([]string, 0, len(u.TenantIDs))
	for _, t := range u.TenantIDs {
		tenantIDs = append(tenantIDs, t.String())
	}
	const validade = 24 * time.Hour
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, u.ID.String(), u.Role, tenantIDs, u.AdminMaster, validade)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	h.Log.Info().Str("usuario", u.ID.String()).Str("role", u.Role).Msg("login")
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(validade),
		User: UserInfo{
			ID:          u.ID.String(),
			Email:       u.Email,
			Nome:        u.Nome,
			Role:        u.Role,
			TenantIDs:   tenantIDs,
			AdminMaster: u.AdminMaster,
			CRM:         u.CRM,
		},
	})
}

func genericLoginError(w http.ResponseWriter) {
	http.Error(w, `{"error":"credenciais inválidas"}`, http.StatusUnauthorized)
}

// parseUUIDVar lê um path param como uuid; erro vira 400 no chamador.
func parseUUIDVar(vars map[string]string, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(vars[name])
	return id, err == nil
}
