package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const authzKey contextKey = "authz"

// Authorization é o contexto de autorização resolvido uma única vez por
// request pelo middleware e propagado via context. Handlers e serviços não
// re-derivam papel/tenant a partir do token.
type Authorization struct {
	UserID      uuid.UUID
	Role        string
	TenantIDs   []uuid.UUID
	AdminMaster bool
}

// ResolveAuthorization valida e converte claims em Authorization.
// Claims com user_id ou tenant_ids malformados resultam em contexto vazio.
func ResolveAuthorization(c *Claims) *Authorization {
	if c == nil {
		return nil
	}
	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil
	}
	a := &Authorization{UserID: uid, Role: c.Role, AdminMaster: c.AdminMaster}
	for _, t := range c.TenantIDs {
		if tid, err := uuid.Parse(t); err == nil {
			a.TenantIDs = append(a.TenantIDs, tid)
		}
	}
	return a
}

func WithAuthorization(ctx context.Context, a *Authorization) context.Context {
	return context.WithValue(ctx, authzKey, a)
}

func AuthorizationFrom(ctx context.Context) *Authorization {
	if a, _ := ctx.Value(authzKey).(*Authorization); a != nil {
		return a
	}
	return nil
}

// HasTenant responde se o usuário pode atuar no tenant. ADMIN_MASTER enxerga
// todos os tenants.
func (a *Authorization) HasTenant(tenantID uuid.UUID) bool {
	if a == nil {
		return false
	}
	if a.AdminMaster {
		return true
	}
	for _, t := range a.TenantIDs {
		if t == tenantID {
			return true
		}
	}
	return false
}

// Capacidades do conjunto fechado de papéis. Avaliadas sobre o Authorization
// já resolvido, nunca sobre arrays dinâmicos de permissão.

func (a *Authorization) PodeLaudar() bool {
	return a != nil && (a.Role == RoleMedico || a.AdminMaster)
}

func (a *Authorization) PodeRegistrarPagamento() bool {
	return a != nil && (a.Role == RoleAdmin || a.Role == RoleAdminMaster || a.AdminMaster)
}

func (a *Authorization) PodeAdministrarValores() bool {
	return a.PodeRegistrarPagamento()
}

func (a *Authorization) PodeInvalidarLaudo() bool {
	return a != nil && (a.Role == RoleAdmin || a.Role == RoleAdminMaster || a.AdminMaster)
}
