package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/laudosaude/backend/internal/laudo"
)

// Laudo é uma versão de laudo de um exame. Campos sensíveis ficam cifrados em
// repouso (trio encrypted/nonce/key_version); o serviço decifra na carga.
type Laudo struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	ExameID              uuid.UUID
	Versao               int
	Status               laudo.Status
	ConclusaoEncrypted   []byte
	ConclusaoNonce       []byte
	ConclusaoKeyVersion  *string
	MedicoResponsavelID  uuid.UUID
	MedicoNomeEncrypted  []byte
	MedicoNomeNonce      []byte
	MedicoNomeKeyVersion *string
	LaudoOriginalKey     *string
	LaudoAssinadoKey     *string
	LaudoAnteriorID      *uuid.UUID
	LaudoSubstitutoID    *uuid.UUID
	EhVersaoAtual        bool
	Valido               bool
	ValorPagoCentavos    int64
	PagamentoRegistrado  bool
	PagamentoID          *uuid.UUID
	DataPagamento        *time.Time
	TipoExameID          uuid.UUID
	EspecialidadeID      uuid.UUID
	VerificationToken    *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

const laudoColumns = `
	id, tenant_id, exame_id, versao, status,
	conclusao_encrypted, conclusao_nonce, conclusao_key_version,
	medico_responsavel_id, medico_nome_encrypted, medico_nome_nonce, medico_nome_key_version,
	laudo_original_key, laudo_assinado_key, laudo_anterior_id, laudo_substituto_id,
	eh_versao_atual, valido, valor_pago_centavos, pagamento_registrado, pagamento_id, data_pagamento,
	tipo_exame_id, especialidade_id, verification_token, created_at, updated_at`

func scanLaudo(row pgx.Row) (*Laudo, error) {
	var l Laudo
	err := row.Scan(&l.ID, &l.TenantID, &l.ExameID, &l.Versao, &l.Status,
		&l.ConclusaoEncrypted, &l.ConclusaoNonce, &l.ConclusaoKeyVersion,
		&l.MedicoResponsavelID, &l.MedicoNomeEncrypted, &l.MedicoNomeNonce, &l.MedicoNomeKeyVersion,
		&l.LaudoOriginalKey, &l.LaudoAssinadoKey, &l.LaudoAnteriorID, &l.LaudoSubstitutoID,
		&l.EhVersaoAtual, &l.Valido, &l.ValorPagoCentavos, &l.PagamentoRegistrado, &l.PagamentoID, &l.DataPagamento,
		&l.TipoExameID, &l.EspecialidadeID, &l.VerificationToken, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func CreateLaudo(ctx context.Context, db DB, l *Laudo) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `
		INSERT INTO laudos (tenant_id, exame_id, versao, status,
			conclusao_encrypted, conclusao_nonce, conclusao_key_version,
			medico_responsavel_id, medico_nome_encrypted, medico_nome_nonce, medico_nome_key_version,
			laudo_original_key, laudo_anterior_id, eh_versao_atual, valido,
			tipo_exame_id, especialidade_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`, l.TenantID, l.ExameID, l.Versao, l.Status,
		l.ConclusaoEncrypted, l.ConclusaoNonce, l.ConclusaoKeyVersion,
		l.MedicoResponsavelID, l.MedicoNomeEncrypted, l.MedicoNomeNonce, l.MedicoNomeKeyVersion,
		l.LaudoOriginalKey, l.LaudoAnteriorID, l.EhVersaoAtual, l.Valido,
		l.TipoExameID, l.EspecialidadeID).Scan(&id)
	return id, err
}

func LaudoByID(ctx context.Context, db DB, id uuid.UUID) (*Laudo, error) {
	return scanLaudo(db.QueryRow(ctx, `SELECT`+laudoColumns+` FROM laudos WHERE id = $1`, id))
}

func LaudoByIDAndTenants(ctx context.Context, db DB, id uuid.UUID, tenantIDs []uuid.UUID) (*Laudo, error) {
	return scanLaudo(db.QueryRow(ctx, `SELECT`+laudoColumns+` FROM laudos WHERE id = $1 AND tenant_id = ANY($2)`, id, tenantIDs))
}

// LaudoByIDForUpdate carrega a linha com FOR UPDATE. Só faz sentido dentro de
// WithTx; serializa refazer/assinar/pagar concorrentes sobre o mesmo laudo.
func LaudoByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Laudo, error) {
	return scanLaudo(tx.QueryRow(ctx, `SELECT`+laudoColumns+` FROM laudos WHERE id = $1 FOR UPDATE`, id))
}

func LaudoByVerificationToken(ctx context.Context, db DB, token string) (*Laudo, error) {
	return scanLaudo(db.QueryRow(ctx, `SELECT`+laudoColumns+` FROM laudos WHERE verification_token = $1`, token))
}

// LaudoAtualDoExame retorna a versão corrente da cadeia do exame, se houver.
func LaudoAtualDoExame(ctx context.Context, db DB, exameID uuid.UUID) (*Laudo, error) {
	return scanLaudo(db.QueryRow(ctx, `SELECT`+laudoColumns+` FROM laudos WHERE exame_id = $1 AND eh_versao_atual`, exameID))
}

// LaudosByTenantsPaginated lista laudos dos tenants do usuário, mais recentes
// primeiro. status vazio não filtra. Se limit é 0, sem limite.
func LaudosByTenantsPaginated(ctx context.Context, db DB, tenantIDs []uuid.UUID, status string, limit, offset int) ([]Laudo, int, error) {
	var total int
	if err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM laudos WHERE tenant_id = ANY($1) AND ($2 = '' OR status = $2)
	`, tenantIDs, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT` + laudoColumns + `
		FROM laudos WHERE tenant_id = ANY($1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`
	args := []any{tenantIDs, status}
	if limit > 0 {
		q += ` LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	}
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Laudo
	for rows.Next() {
		l, err := scanLaudo(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *l)
	}
	return list, total, rows.Err()
}

// LaudosByIDs carrega o lote na ordem dos ids pedidos, com FOR UPDATE. Usado
// pelas pré-condições do pagamento dentro da transação.
func LaudosByIDsForUpdate(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]Laudo, error) {
	out := make([]Laudo, 0, len(ids))
	for _, id := range ids {
		l, err := LaudoByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if l == nil {
			return nil, laudo.ErrNaoEncontrado
		}
		out = append(out, *l)
	}
	return out, nil
}

func UpdateLaudoStatus(ctx context.Context, db DB, id uuid.UUID, status laudo.Status) error {
	_, err := db.Exec(ctx, `UPDATE laudos SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

func SetLaudoOriginalKey(ctx context.Context, db DB, id uuid.UUID, key string) error {
	_, err := db.Exec(ctx, `UPDATE laudos SET laudo_original_key = $2, updated_at = now() WHERE id = $1`, id, key)
	return err
}

// MarcarAssinado aplica a convergência dos caminhos de assinatura: status
// LAUDO_ASSINADO, chave do arquivo assinado (quando há arquivo) e token de
// verificação pública.
func MarcarAssinado(ctx context.Context, db DB, id uuid.UUID, assinadoKey, verificationToken *string) error {
	_, err := db.Exec(ctx, `
		UPDATE laudos SET status = $2, laudo_assinado_key = COALESCE($3, laudo_assinado_key),
			verification_token = COALESCE($4, verification_token), updated_at = now()
		WHERE id = $1
	`, id, laudo.StatusAssinado, assinadoKey, verificationToken)
	return err
}

// MarcarRefeito fecha a linha antiga da cadeia: status LAUDO_REFEITO, flag de
// versão atual desligada e ponteiro para a versão substituta. Roda na mesma
// transação que cria a linha nova.
func MarcarRefeito(ctx context.Context, tx pgx.Tx, antigoID, substitutoID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE laudos SET status = $2, eh_versao_atual = false, laudo_substituto_id = $3, updated_at = now()
		WHERE id = $1
	`, antigoID, laudo.StatusRefeito, substitutoID)
	return err
}

func InvalidarLaudo(ctx context.Context, db DB, id uuid.UUID) error {
	_, err := db.Exec(ctx, `UPDATE laudos SET valido = false, updated_at = now() WHERE id = $1`, id)
	return err
}

// RegistrarPagamentoNoLaudo grava o snapshot de pagamento da linha. O valor é
// o resultado da divisão igualitária do lote, não o preço configurado.
func RegistrarPagamentoNoLaudo(ctx context.Context, tx pgx.Tx, laudoID, pagamentoID uuid.UUID, valorCentavos int64, dataPagamento time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE laudos SET pagamento_registrado = true, pagamento_id = $2, valor_pago_centavos = $3,
			data_pagamento = $4, updated_at = now()
		WHERE id = $1
	`, laudoID, pagamentoID, valorCentavos, dataPagamento)
	return err
}

// LimparPagamentoDoLaudo desfaz o snapshot no cancelamento do pagamento.
func LimparPagamentoDoLaudo(ctx context.Context, tx pgx.Tx, laudoID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE laudos SET pagamento_registrado = false, pagamento_id = NULL, valor_pago_centavos = 0,
			data_pagamento = NULL, updated_at = now()
		WHERE id = $1
	`, laudoID)
	return err
}
