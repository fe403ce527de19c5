// Package audit grava a trilha de auditoria em melhor esforço: falha de
// gravação nunca derruba nem reverte a operação de negócio que a originou.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/laudosaude/backend/internal/repo"
)

type Recorder struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewRecorder(pool *pgxpool.Pool, log zerolog.Logger) *Recorder {
	return &Recorder{pool: pool, log: log.With().Str("component", "audit").Logger()}
}

// Record grava o evento fora da transação de negócio. O erro é engolido aqui,
// logado localmente e jamais propagado ao chamador. O context é destacado do
// request para a trilha não se perder quando o cliente desiste.
func (r *Recorder) Record(ctx context.Context, ev repo.AuditEvent) {
	if r == nil || r.pool == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := repo.CreateAuditEvent(ctx, r.pool, ev); err != nil {
		r.log.Error().Err(err).Str("action", ev.Action).Msg("falha ao gravar evento de auditoria")
	}
}
