// Package seed popula o banco vazio com tenants, usuários e valores de
// exemplo para desenvolvimento. Idempotente: não faz nada quando já há
// usuários.
package seed

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/laudosaude/backend/internal/auth"
)

func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM usuarios").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		log.Debug().Msg("seed: usuários existem, nada a fazer")
		return nil
	}

	t1, t2 := uuid.New(), uuid.New()
	if _, err := pool.Exec(ctx, `
		INSERT INTO tenants (id, nome) VALUES ($1, 'Clínica Imagem Sul'), ($2, 'Centro Diagnóstico Norte')
	`, t1, t2); err != nil {
		return err
	}

	adminHash, err := auth.HashPassword("Admin123!")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO usuarios (email, senha_hash, nome, role, tenant_ids, admin_master)
		VALUES ('admin@laudosaude.local', $1, 'Admin Master', 'ADMIN_MASTER', '{}', TRUE)
	`, adminHash); err != nil {
		return err
	}

	medicoHash, err := auth.HashPassword("ChangeMe123!")
	if err != nil {
		return err
	}
	m1 := uuid.New()
	if _, err := pool.Exec(ctx, `
		INSERT INTO usuarios (id, email, senha_hash, nome, role, tenant_ids, crm)
		VALUES ($1, 'medico@laudosaude.local', $2, 'Dra. Exemplo', 'MEDICO', ARRAY[$3, $4]::uuid[], '123456-SP')
	`, m1, medicoHash, t1, t2); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO usuarios (email, senha_hash, nome, role, tenant_ids)
		VALUES ('gestor@laudosaude.local', $1, 'Gestor Exemplo', 'ADMIN', ARRAY[$2]::uuid[])
	`, adminHash, t1); err != nil {
		return err
	}

	// valores de exemplo para a médica seedada em cada tenant
	esp, tipo := uuid.New(), uuid.New()
	if _, err := pool.Exec(ctx, `
		INSERT INTO valores_laudo (tenant_id, medico_id, especialidade_id, tipo_exame_id, valor_centavos)
		VALUES ($1, $3, $4, $5, 15000), ($2, $3, $4, $5, 18000)
	`, t1, t2, m1, esp, tipo); err != nil {
		return err
	}

	log.Info().Msg("seed: tenants, usuários e valores de exemplo criados")
	return nil
}
