package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/repo"
)

type RegistrarPagamentoInput struct {
	LaudoIDs              []uuid.UUID
	ValorDescontoCentavos int64
	// Valor de liquidação declarado. Zero deriva total configurado - desconto.
	ValorFinalCentavos int64
	MeioPagamento      string
	Observacoes        string
}

// PagamentoView é o pagamento devolvido pela API.
type PagamentoView struct {
	ID                    uuid.UUID   `json:"id"`
	TenantID              uuid.UUID   `json:"tenant_id"`
	MedicoID              uuid.UUID   `json:"medico_id"`
	ValorTotalCentavos    int64       `json:"valor_total_centavos"`
	ValorDescontoCentavos int64       `json:"valor_desconto_centavos"`
	ValorFinalCentavos    int64       `json:"valor_final_centavos"`
	Status                string      `json:"status"`
	MeioPagamento         string      `json:"meio_pagamento"`
	Observacoes           *string     `json:"observacoes,omitempty"`
	RegistradoPor         uuid.UUID   `json:"registrado_por"`
	LaudoIDs              []uuid.UUID `json:"laudo_ids"`
}

func pagamentoView(p *repo.Pagamento) PagamentoView {
	return PagamentoView{
		ID:                    p.ID,
		TenantID:              p.TenantID,
		MedicoID:              p.MedicoID,
		ValorTotalCentavos:    p.ValorTotalCentavos,
		ValorDescontoCentavos: p.ValorDescontoCentavos,
		ValorFinalCentavos:    p.ValorFinalCentavos,
		Status:                p.Status,
		MeioPagamento:         p.MeioPagamento,
		Observacoes:           p.Observacoes,
		RegistradoPor:         p.RegistradoPor,
		LaudoIDs:              p.LaudoIDs,
	}
}

// RegistrarPagamento registra o pagamento de um lote de laudos do mesmo
// médico. Pré-condições avaliadas sob FOR UPDATE antes de qualquer escrita;
// qualquer violação reverte o lote inteiro. O valor final é repartido
// igualitariamente entre os laudos, resto de centavos nos primeiros.
func (s *Service) RegistrarPagamento(ctx context.Context, a *auth.Authorization, in RegistrarPagamentoInput) (*PagamentoView, error) {
	if !a.PodeRegistrarPagamento() {
		return nil, laudo.Validacao("role", "apenas administradores podem registrar pagamentos")
	}
	if len(in.LaudoIDs) == 0 {
		return nil, laudo.Validacao("laudo_ids", "lote vazio")
	}
	if in.MeioPagamento == "" {
		return nil, laudo.Validacao("meio_pagamento", "é obrigatório")
	}
	if in.ValorDescontoCentavos < 0 || in.ValorFinalCentavos < 0 {
		return nil, laudo.Validacao("valor", "não pode ser negativo")
	}
	vistos := make(map[uuid.UUID]bool, len(in.LaudoIDs))
	for _, id := range in.LaudoIDs {
		if vistos[id] {
			return nil, laudo.Validacao("laudo_ids", "laudo repetido no lote")
		}
		vistos[id] = true
	}

	autorNome := s.autorNome(ctx, a)
	var criado *repo.Pagamento
	err := repo.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		laudos, err := repo.LaudosByIDsForUpdate(ctx, tx, in.LaudoIDs)
		if err != nil {
			return err
		}

		tenantID := laudos[0].TenantID
		medicoID := laudos[0].MedicoResponsavelID
		var valorTotal int64
		for i := range laudos {
			l := &laudos[i]
			if !a.HasTenant(l.TenantID) {
				return laudo.ErrNaoEncontrado
			}
			if l.TenantID != tenantID {
				return laudo.Validacao("laudo_ids", "laudos de tenants distintos no mesmo lote")
			}
			if l.MedicoResponsavelID != medicoID {
				return &laudo.ErrLoteMedicosDistintos{Esperado: medicoID, Encontrado: l.MedicoResponsavelID}
			}
			if l.PagamentoRegistrado {
				return &laudo.ErrJaPago{LaudoID: l.ID}
			}
			valor, ok, err := repo.ValorConfigurado(ctx, tx, l.TenantID, medicoID, l.EspecialidadeID, l.TipoExameID)
			if err != nil {
				return err
			}
			if !ok {
				s.Log.Warn().
					Str("laudo", l.ID.String()).
					Str("medico", medicoID.String()).
					Msg("valor não configurado para o laudo; assumindo zero")
			}
			valorTotal += valor
		}

		valorFinal := in.ValorFinalCentavos
		if valorFinal == 0 {
			valorFinal = valorTotal - in.ValorDescontoCentavos
		}
		if valorFinal < 0 {
			return laudo.Validacao("valor_desconto_centavos", "maior que o valor total configurado")
		}
		quotas := laudo.DividirValorFinal(valorFinal, len(laudos))

		p := &repo.Pagamento{
			TenantID:              tenantID,
			MedicoID:              medicoID,
			ValorTotalCentavos:    valorTotal,
			ValorDescontoCentavos: in.ValorDescontoCentavos,
			ValorFinalCentavos:    valorFinal,
			Status:                repo.PagamentoPago,
			MeioPagamento:         in.MeioPagamento,
			RegistradoPor:         a.UserID,
			LaudoIDs:              in.LaudoIDs,
		}
		if in.Observacoes != "" {
			obs := in.Observacoes
			p.Observacoes = &obs
		}
		pid, err := repo.CreatePagamento(ctx, tx, p)
		if err != nil {
			return err
		}
		p.ID = pid

		quando := agora()
		uid := a.UserID
		for i := range laudos {
			l := &laudos[i]
			if err := repo.RegistrarPagamentoNoLaudo(ctx, tx, l.ID, pid, quotas[i], quando); err != nil {
				return err
			}
			detalhe := fmt.Sprintf("Pagamento registrado: %s (divisão igualitária de %s entre %d laudos, %s)",
				FormatBRL(quotas[i]), FormatBRL(valorFinal), len(laudos), in.MeioPagamento)
			entry, err := s.historicoEntry(l.ID, laudo.AcaoTransacaoFinanceira, detalhe, &uid, autorNome, l.Versao)
			if err != nil {
				return err
			}
			if _, err := repo.AppendHistorico(ctx, tx, entry); err != nil {
				return err
			}
		}
		criado = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := s.auditEvent(ctx, a, "pagamento.registrar", criado.TenantID)
	rt := "pagamento"
	ev.ResourceType = &rt
	rid := criado.ID
	ev.ResourceID = &rid
	ev.After = pagamentoView(criado)
	s.Audit.Record(ctx, ev)

	view := pagamentoView(criado)
	return &view, nil
}

// CancelarPagamento compensa integralmente o registro: status CANCELADO com o
// motivo anexado às observações quando informado e todos os laudos do lote com
// o snapshot de pagamento limpo, tudo numa transação. O motivo é opcional.
func (s *Service) CancelarPagamento(ctx context.Context, a *auth.Authorization, pagamentoID uuid.UUID, motivo string) (*PagamentoView, error) {
	if !a.PodeRegistrarPagamento() {
		return nil, laudo.Validacao("role", "apenas administradores podem cancelar pagamentos")
	}

	autorNome := s.autorNome(ctx, a)
	var cancelado *repo.Pagamento
	err := repo.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		p, err := repo.PagamentoByIDForUpdate(ctx, tx, pagamentoID)
		if err != nil {
			return err
		}
		if p == nil || !a.HasTenant(p.TenantID) {
			return laudo.ErrPagamentoNaoEncontrado
		}
		if p.Status == repo.PagamentoCancelado {
			return laudo.ErrPagamentoJaCancelado
		}
		obs := ""
		if motivo != "" {
			obs = "Cancelamento: " + motivo
		}
		if err := repo.CancelarPagamento(ctx, tx, p.ID, obs); err != nil {
			return err
		}

		uid := a.UserID
		for _, lid := range p.LaudoIDs {
			l, err := repo.LaudoByIDForUpdate(ctx, tx, lid)
			if err != nil {
				return err
			}
			if l == nil || l.PagamentoID == nil || *l.PagamentoID != p.ID {
				// laudo já reapontado para outro pagamento; não mexe
				continue
			}
			if err := repo.LimparPagamentoDoLaudo(ctx, tx, l.ID); err != nil {
				return err
			}
			detalhe := fmt.Sprintf("Pagamento cancelado (%s estornado)", FormatBRL(l.ValorPagoCentavos))
			if motivo != "" {
				detalhe += ": " + motivo
			}
			entry, err := s.historicoEntry(l.ID, laudo.AcaoCancelamentoPagamento, detalhe, &uid, autorNome, l.Versao)
			if err != nil {
				return err
			}
			if _, err := repo.AppendHistorico(ctx, tx, entry); err != nil {
				return err
			}
		}
		p.Status = repo.PagamentoCancelado
		cancelado = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := s.auditEvent(ctx, a, "pagamento.cancelar", cancelado.TenantID)
	rt := "pagamento"
	ev.ResourceType = &rt
	rid := cancelado.ID
	ev.ResourceID = &rid
	if motivo != "" {
		ev.Metadata = map[string]string{"motivo": motivo}
	}
	s.Audit.Record(ctx, ev)

	view := pagamentoView(cancelado)
	return &view, nil
}

// ListarPagamentos devolve a página do recorte do usuário com o total.
func (s *Service) ListarPagamentos(ctx context.Context, a *auth.Authorization, limit, offset int) ([]PagamentoView, int, error) {
	tenants, err := s.TenantsDoRecorte(ctx, a)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := repo.PagamentosByTenantsPaginated(ctx, s.Pool, tenants, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]PagamentoView, 0, len(list))
	for i := range list {
		views = append(views, pagamentoView(&list[i]))
	}
	return views, total, nil
}

func (s *Service) BuscarPagamento(ctx context.Context, a *auth.Authorization, id uuid.UUID) (*PagamentoView, error) {
	p, err := repo.PagamentoByID(ctx, s.Pool, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !a.HasTenant(p.TenantID) {
		return nil, laudo.ErrPagamentoNaoEncontrado
	}
	view := pagamentoView(p)
	return &view, nil
}
