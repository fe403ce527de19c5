package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/laudosaude/backend/internal/laudo"
)

// HistoricoEntry é imutável depois de gravada: o histórico de um laudo só
// cresce, inclusive para ações que falharam (AcaoErro + mensagem). O nome do
// autor fica redundante e cifrado na própria entrada para sobreviver a rename
// ou remoção do usuário.
type HistoricoEntry struct {
	ID                  uuid.UUID
	LaudoID             uuid.UUID
	Seq                 int
	Acao                laudo.Acao
	DetalheEncrypted    []byte
	DetalheNonce        []byte
	DetalheKeyVersion   *string
	AutorID             *uuid.UUID
	AutorNomeEncrypted  []byte
	AutorNomeNonce      []byte
	AutorNomeKeyVersion *string
	Versao              int
	EmailStatus         *string
	ErroMensagem        *string
	CreatedAt           time.Time
}

// AppendHistorico grava a próxima entrada da sequência do laudo. A ordem é
// garantida pelo unique (laudo_id, seq); chamadas concorrentes sobre o mesmo
// laudo já estão serializadas pelo FOR UPDATE da linha do laudo.
func AppendHistorico(ctx context.Context, db DB, e *HistoricoEntry) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `
		INSERT INTO laudo_historico (laudo_id, seq, acao,
			detalhe_encrypted, detalhe_nonce, detalhe_key_version,
			autor_id, autor_nome_encrypted, autor_nome_nonce, autor_nome_key_version,
			versao, email_status, erro_mensagem)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		FROM laudo_historico WHERE laudo_id = $1
		RETURNING id
	`, e.LaudoID, e.Acao,
		e.DetalheEncrypted, e.DetalheNonce, e.DetalheKeyVersion,
		e.AutorID, e.AutorNomeEncrypted, e.AutorNomeNonce, e.AutorNomeKeyVersion,
		e.Versao, e.EmailStatus, e.ErroMensagem).Scan(&id)
	return id, err
}

// HistoricoByLaudo devolve a sequência completa em ordem de gravação.
func HistoricoByLaudo(ctx context.Context, db DB, laudoID uuid.UUID) ([]HistoricoEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT id, laudo_id, seq, acao,
			detalhe_encrypted, detalhe_nonce, detalhe_key_version,
			autor_id, autor_nome_encrypted, autor_nome_nonce, autor_nome_key_version,
			versao, email_status, erro_mensagem, created_at
		FROM laudo_historico WHERE laudo_id = $1 ORDER BY seq
	`, laudoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []HistoricoEntry
	for rows.Next() {
		var e HistoricoEntry
		if err := rows.Scan(&e.ID, &e.LaudoID, &e.Seq, &e.Acao,
			&e.DetalheEncrypted, &e.DetalheNonce, &e.DetalheKeyVersion,
			&e.AutorID, &e.AutorNomeEncrypted, &e.AutorNomeNonce, &e.AutorNomeKeyVersion,
			&e.Versao, &e.EmailStatus, &e.ErroMensagem, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
