package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	PagamentoPendente  = "PENDENTE"
	PagamentoPago      = "PAGO"
	PagamentoCancelado = "CANCELADO"
)

// Pagamento cobre um lote de laudos do mesmo médico e tenant. valor_final é o
// valor de liquidação (total - desconto) informado pelo chamador.
type Pagamento struct {
	ID                    uuid.UUID
	TenantID              uuid.UUID
	MedicoID              uuid.UUID
	ValorTotalCentavos    int64
	ValorDescontoCentavos int64
	ValorFinalCentavos    int64
	Status                string
	MeioPagamento         string
	Observacoes           *string
	RegistradoPor         uuid.UUID
	LaudoIDs              []uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func CreatePagamento(ctx context.Context, tx pgx.Tx, p *Pagamento) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO pagamentos (tenant_id, medico_id, valor_total_centavos, valor_desconto_centavos,
			valor_final_centavos, status, meio_pagamento, observacoes, registrado_por)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id
	`, p.TenantID, p.MedicoID, p.ValorTotalCentavos, p.ValorDescontoCentavos,
		p.ValorFinalCentavos, p.Status, p.MeioPagamento, p.Observacoes, p.RegistradoPor).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	for _, lid := range p.LaudoIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO pagamento_laudos (pagamento_id, laudo_id) VALUES ($1, $2)`, id, lid); err != nil {
			return uuid.Nil, err
		}
	}
	return id, nil
}

func pagamentoLaudoIDs(ctx context.Context, db DB, pagamentoID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, `SELECT laudo_id FROM pagamento_laudos WHERE pagamento_id = $1 ORDER BY laudo_id`, pagamentoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPagamento(ctx context.Context, db DB, row pgx.Row) (*Pagamento, error) {
	var p Pagamento
	err := row.Scan(&p.ID, &p.TenantID, &p.MedicoID, &p.ValorTotalCentavos, &p.ValorDescontoCentavos,
		&p.ValorFinalCentavos, &p.Status, &p.MeioPagamento, &p.Observacoes, &p.RegistradoPor,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	ids, err := pagamentoLaudoIDs(ctx, db, p.ID)
	if err != nil {
		return nil, err
	}
	p.LaudoIDs = ids
	return &p, nil
}

const pagamentoColumns = `
	id, tenant_id, medico_id, valor_total_centavos, valor_desconto_centavos,
	valor_final_centavos, status, meio_pagamento, observacoes, registrado_por, created_at, updated_at`

func PagamentoByID(ctx context.Context, db DB, id uuid.UUID) (*Pagamento, error) {
	return scanPagamento(ctx, db, db.QueryRow(ctx, `SELECT`+pagamentoColumns+` FROM pagamentos WHERE id = $1`, id))
}

func PagamentoByIDAndTenants(ctx context.Context, db DB, id uuid.UUID, tenantIDs []uuid.UUID) (*Pagamento, error) {
	return scanPagamento(ctx, db, db.QueryRow(ctx, `SELECT`+pagamentoColumns+` FROM pagamentos WHERE id = $1 AND tenant_id = ANY($2)`, id, tenantIDs))
}

// PagamentoByIDForUpdate trava a linha do pagamento dentro da transação de
// cancelamento.
func PagamentoByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Pagamento, error) {
	return scanPagamento(ctx, tx, tx.QueryRow(ctx, `SELECT`+pagamentoColumns+` FROM pagamentos WHERE id = $1 FOR UPDATE`, id))
}

func PagamentosByTenantsPaginated(ctx context.Context, db DB, tenantIDs []uuid.UUID, limit, offset int) ([]Pagamento, int, error) {
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM pagamentos WHERE tenant_id = ANY($1)`, tenantIDs).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT` + pagamentoColumns + ` FROM pagamentos WHERE tenant_id = ANY($1) ORDER BY created_at DESC`
	args := []any{tenantIDs}
	if limit > 0 {
		q += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Pagamento
	for rows.Next() {
		var p Pagamento
		if err := rows.Scan(&p.ID, &p.TenantID, &p.MedicoID, &p.ValorTotalCentavos, &p.ValorDescontoCentavos,
			&p.ValorFinalCentavos, &p.Status, &p.MeioPagamento, &p.Observacoes, &p.RegistradoPor,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range list {
		ids, err := pagamentoLaudoIDs(ctx, db, list[i].ID)
		if err != nil {
			return nil, 0, err
		}
		list[i].LaudoIDs = ids
	}
	return list, total, nil
}

// CancelarPagamento vira o status para CANCELADO e anexa o motivo às
// observações. Os resets dos laudos rodam na mesma transação.
func CancelarPagamento(ctx context.Context, tx pgx.Tx, id uuid.UUID, motivo string) error {
	_, err := tx.Exec(ctx, `
		UPDATE pagamentos SET status = $2,
			observacoes = TRIM(BOTH E'\n' FROM COALESCE(observacoes, '') || E'\n' || $3),
			updated_at = now()
		WHERE id = $1
	`, id, PagamentoCancelado, motivo)
	return err
}
