package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Usuario struct {
	ID          uuid.UUID
	Email       string
	SenhaHash   string
	Nome        string
	Role        string
	TenantIDs   []uuid.UUID
	AdminMaster bool
	CRM         *string
	// Data URL (image/png ou image/jpeg) da assinatura física do médico,
	// aplicada no carimbo quando o caminho de assinatura é imagem_fisica.
	AssinaturaImagem *string
	CreatedAt        time.Time
}

func UsuarioByEmail(ctx context.Context, db DB, email string) (*Usuario, error) {
	var u Usuario
	err := db.QueryRow(ctx, `
		SELECT id, email, senha_hash, nome, role, tenant_ids, admin_master, crm, assinatura_imagem, created_at
		FROM usuarios WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.SenhaHash, &u.Nome, &u.Role, &u.TenantIDs, &u.AdminMaster, &u.CRM, &u.AssinaturaImagem, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func UsuarioByID(ctx context.Context, db DB, id uuid.UUID) (*Usuario, error) {
	var u Usuario
	err := db.QueryRow(ctx, `
		SELECT id, email, senha_hash, nome, role, tenant_ids, admin_master, crm, assinatura_imagem, created_at
		FROM usuarios WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.SenhaHash, &u.Nome, &u.Role, &u.TenantIDs, &u.AdminMaster, &u.CRM, &u.AssinaturaImagem, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func CreateUsuario(ctx context.Context, db DB, email, senhaHash, nome, role string, tenantIDs []uuid.UUID, adminMaster bool, crm *string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `
		INSERT INTO usuarios (email, senha_hash, nome, role, tenant_ids, admin_master, crm)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
	`, email, senhaHash, nome, role, tenantIDs, adminMaster, crm).Scan(&id)
	return id, err
}
