package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestResolveAuthorization(t *testing.T) {
	uid := uuid.New()
	t1, t2 := uuid.New(), uuid.New()
	a := ResolveAuthorization(&Claims{
		UserID:    uid.String(),
		Role:      RoleMedico,
		TenantIDs: []string{t1.String(), t2.String(), "não-é-uuid"},
	})
	if a == nil {
		t.Fatal("claims válidas devem resolver")
	}
	if a.UserID != uid || a.Role != RoleMedico {
		t.Fatalf("resolvido errado: %+v", a)
	}
	if len(a.TenantIDs) != 2 {
		t.Fatalf("tenant malformado deve ser descartado: %v", a.TenantIDs)
	}
}

func TestResolveAuthorizationInvalida(t *testing.T) {
	if ResolveAuthorization(nil) != nil {
		t.Fatal("claims nulas")
	}
	if ResolveAuthorization(&Claims{UserID: "xx", Role: RoleAdmin}) != nil {
		t.Fatal("user_id malformado deve resolver para nil")
	}
}

func TestHasTenant(t *testing.T) {
	t1, t2 := uuid.New(), uuid.New()
	a := &Authorization{UserID: uuid.New(), Role: RoleMedico, TenantIDs: []uuid.UUID{t1}}
	if !a.HasTenant(t1) {
		t.Fatal("tenant do usuário")
	}
	if a.HasTenant(t2) {
		t.Fatal("tenant alheio")
	}
	master := &Authorization{UserID: uuid.New(), Role: RoleAdminMaster, AdminMaster: true}
	if !master.HasTenant(t2) {
		t.Fatal("ADMIN_MASTER enxerga todos os tenants")
	}
	var vazio *Authorization
	if vazio.HasTenant(t1) {
		t.Fatal("authorization nulo nunca tem tenant")
	}
}

func TestCapacidades(t *testing.T) {
	medico := &Authorization{Role: RoleMedico}
	admin := &Authorization{Role: RoleAdmin}
	master := &Authorization{Role: RoleAdminMaster, AdminMaster: true}

	if !medico.PodeLaudar() || admin.PodeLaudar() {
		t.Fatal("laudar é de MEDICO")
	}
	if medico.PodeRegistrarPagamento() || !admin.PodeRegistrarPagamento() || !master.PodeRegistrarPagamento() {
		t.Fatal("pagamento é de ADMIN e ADMIN_MASTER")
	}
	if medico.PodeInvalidarLaudo() || !admin.PodeInvalidarLaudo() {
		t.Fatal("invalidar é de ADMIN e ADMIN_MASTER")
	}
	if !master.PodeLaudar() {
		t.Fatal("ADMIN_MASTER tem todas as capacidades")
	}
}

func TestContextRoundTrip(t *testing.T) {
	a := &Authorization{UserID: uuid.New(), Role: RoleAdmin}
	ctx := WithAuthorization(context.Background(), a)
	if got := AuthorizationFrom(ctx); got != a {
		t.Fatal("authorization deve ir e voltar pelo context")
	}
	if AuthorizationFrom(context.Background()) != nil {
		t.Fatal("context vazio resolve nil")
	}
}
