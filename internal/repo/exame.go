package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Exame struct {
	ID                     uuid.UUID
	TenantID               uuid.UUID
	PacienteNomeEncrypted  []byte
	PacienteNomeNonce      []byte
	PacienteNomeKeyVersion *string
	TipoExameID            uuid.UUID
	EspecialidadeID        uuid.UUID
	MedicoSolicitante      *string
	CreatedAt              time.Time
}

func CreateExame(ctx context.Context, db DB, e *Exame) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `
		INSERT INTO exames (tenant_id, paciente_nome_encrypted, paciente_nome_nonce, paciente_nome_key_version,
			tipo_exame_id, especialidade_id, medico_solicitante)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
	`, e.TenantID, e.PacienteNomeEncrypted, e.PacienteNomeNonce, e.PacienteNomeKeyVersion,
		e.TipoExameID, e.EspecialidadeID, e.MedicoSolicitante).Scan(&id)
	return id, err
}

func ExameByIDAndTenants(ctx context.Context, db DB, id uuid.UUID, tenantIDs []uuid.UUID) (*Exame, error) {
	var e Exame
	err := db.QueryRow(ctx, `
		SELECT id, tenant_id, paciente_nome_encrypted, paciente_nome_nonce, paciente_nome_key_version,
			tipo_exame_id, especialidade_id, medico_solicitante, created_at
		FROM exames WHERE id = $1 AND tenant_id = ANY($2)
	`, id, tenantIDs).Scan(&e.ID, &e.TenantID, &e.PacienteNomeEncrypted, &e.PacienteNomeNonce, &e.PacienteNomeKeyVersion,
		&e.TipoExameID, &e.EspecialidadeID, &e.MedicoSolicitante, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func ExameByID(ctx context.Context, db DB, id uuid.UUID) (*Exame, error) {
	var e Exame
	err := db.QueryRow(ctx, `
		SELECT id, tenant_id, paciente_nome_encrypted, paciente_nome_nonce, paciente_nome_key_version,
			tipo_exame_id, especialidade_id, medico_solicitante, created_at
		FROM exames WHERE id = $1
	`, id).Scan(&e.ID, &e.TenantID, &e.PacienteNomeEncrypted, &e.PacienteNomeNonce, &e.PacienteNomeKeyVersion,
		&e.TipoExameID, &e.EspecialidadeID, &e.MedicoSolicitante, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
