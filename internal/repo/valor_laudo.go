package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ValorLaudo é a configuração de preço por (tenant, médico, especialidade,
// tipo de exame). Lookup puro com unicidade na chave composta; nunca encadeia.
type ValorLaudo struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	MedicoID        uuid.UUID
	EspecialidadeID uuid.UUID
	TipoExameID     uuid.UUID
	ValorCentavos   int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValorConfigurado resolve o preço da chave composta. Retorna (0, false, nil)
// quando não há configuração; o chamador loga o aviso e segue com zero.
func ValorConfigurado(ctx context.Context, db DB, tenantID, medicoID, especialidadeID, tipoExameID uuid.UUID) (int64, bool, error) {
	var v int64
	err := db.QueryRow(ctx, `
		SELECT valor_centavos FROM valores_laudo
		WHERE tenant_id = $1 AND medico_id = $2 AND especialidade_id = $3 AND tipo_exame_id = $4
	`, tenantID, medicoID, especialidadeID, tipoExameID).Scan(&v)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return v, true, nil
}

func ValorLaudoByID(ctx context.Context, db DB, id uuid.UUID) (*ValorLaudo, error) {
	var v ValorLaudo
	err := db.QueryRow(ctx, `
		SELECT id, tenant_id, medico_id, especialidade_id, tipo_exame_id, valor_centavos, created_at, updated_at
		FROM valores_laudo WHERE id = $1
	`, id).Scan(&v.ID, &v.TenantID, &v.MedicoID, &v.EspecialidadeID, &v.TipoExameID,
		&v.ValorCentavos, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func CreateValorLaudo(ctx context.Context, db DB, v *ValorLaudo) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `
		INSERT INTO valores_laudo (tenant_id, medico_id, especialidade_id, tipo_exame_id, valor_centavos)
		VALUES ($1, $2, $3, $4, $5) RETURNING id
	`, v.TenantID, v.MedicoID, v.EspecialidadeID, v.TipoExameID, v.ValorCentavos).Scan(&id)
	return id, err
}

func UpdateValorLaudo(ctx context.Context, db DB, id uuid.UUID, valorCentavos int64) error {
	ct, err := db.Exec(ctx, `UPDATE valores_laudo SET valor_centavos = $2, updated_at = now() WHERE id = $1`, id, valorCentavos)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func DeleteValorLaudo(ctx context.Context, db DB, id, tenantID uuid.UUID) error {
	ct, err := db.Exec(ctx, `DELETE FROM valores_laudo WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func ValoresByTenants(ctx context.Context, db DB, tenantIDs []uuid.UUID) ([]ValorLaudo, error) {
	rows, err := db.Query(ctx, `
		SELECT id, tenant_id, medico_id, especialidade_id, tipo_exame_id, valor_centavos, created_at, updated_at
		FROM valores_laudo WHERE tenant_id = ANY($1) ORDER BY created_at DESC
	`, tenantIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []ValorLaudo
	for rows.Next() {
		var v ValorLaudo
		if err := rows.Scan(&v.ID, &v.TenantID, &v.MedicoID, &v.EspecialidadeID, &v.TipoExameID,
			&v.ValorCentavos, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
