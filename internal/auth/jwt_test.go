package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("segredo-de-teste-com-32-caracteres!!")
	uid := uuid.New().String()
	tid := uuid.New().String()
	tok, err := BuildJWT(secret, uid, RoleMedico, []string{tid}, false, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	c, err := ParseJWT(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if c.UserID != uid || c.Role != RoleMedico || len(c.TenantIDs) != 1 || c.TenantIDs[0] != tid {
		t.Fatalf("claims: %+v", c)
	}
	if c.AdminMaster {
		t.Fatal("admin_master não foi pedido")
	}
}

func TestJWTSegredoErrado(t *testing.T) {
	tok, err := BuildJWT([]byte("segredo-a-com-32-caracteres-ok!!!"), uuid.New().String(), RoleAdmin, nil, false, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT([]byte("segredo-b-com-32-caracteres-ok!!!"), tok); err == nil {
		t.Fatal("segredo errado deve falhar")
	}
}

func TestJWTExpirado(t *testing.T) {
	secret := []byte("segredo-de-teste-com-32-caracteres!!")
	tok, err := BuildJWT(secret, uuid.New().String(), RoleAdmin, nil, false, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT(secret, tok); err == nil {
		t.Fatal("token expirado deve falhar")
	}
}

func TestHashCheckPassword(t *testing.T) {
	h, err := HashPassword("Senha123!")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(h, "Senha123!") {
		t.Fatal("senha certa deve conferir")
	}
	if CheckPassword(h, "outra") {
		t.Fatal("senha errada não confere")
	}
}
