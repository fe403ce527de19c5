package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/crypto"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/pdf"
	"github.com/laudosaude/backend/internal/repo"
)

// LaudoView é o laudo decifrado devolvido pela API. Campos cifrados ilegíveis
// aparecem com texto de fallback, nunca derrubam a listagem.
type LaudoView struct {
	ID                  uuid.UUID  `json:"id"`
	TenantID            uuid.UUID  `json:"tenant_id"`
	ExameID             uuid.UUID  `json:"exame_id"`
	Versao              int        `json:"versao"`
	Status              string     `json:"status"`
	Conclusao           string     `json:"conclusao"`
	MedicoResponsavelID uuid.UUID  `json:"medico_responsavel_id"`
	MedicoNome          string     `json:"medico_nome"`
	LaudoAnteriorID     *uuid.UUID `json:"laudo_anterior_id,omitempty"`
	LaudoSubstitutoID   *uuid.UUID `json:"laudo_substituto_id,omitempty"`
	EhVersaoAtual       bool       `json:"eh_versao_atual"`
	Valido              bool       `json:"valido"`
	PagamentoRegistrado bool       `json:"pagamento_registrado"`
	PagamentoID         *uuid.UUID `json:"pagamento_id,omitempty"`
	ValorPagoCentavos   int64      `json:"valor_pago_centavos"`
	DataPagamento       *time.Time `json:"data_pagamento,omitempty"`
	TipoExameID         uuid.UUID  `json:"tipo_exame_id"`
	EspecialidadeID     uuid.UUID  `json:"especialidade_id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (s *Service) View(l *repo.Laudo) LaudoView {
	return LaudoView{
		ID:                  l.ID,
		TenantID:            l.TenantID,
		ExameID:             l.ExameID,
		Versao:              l.Versao,
		Status:              string(l.Status),
		Conclusao:           s.decrypt(l.ConclusaoEncrypted, l.ConclusaoNonce, l.ConclusaoKeyVersion, "Conclusão não disponível"),
		MedicoResponsavelID: l.MedicoResponsavelID,
		MedicoNome:          s.decrypt(l.MedicoNomeEncrypted, l.MedicoNomeNonce, l.MedicoNomeKeyVersion, "Nome não disponível"),
		LaudoAnteriorID:     l.LaudoAnteriorID,
		LaudoSubstitutoID:   l.LaudoSubstitutoID,
		EhVersaoAtual:       l.EhVersaoAtual,
		Valido:              l.Valido,
		PagamentoRegistrado: l.PagamentoRegistrado,
		PagamentoID:         l.PagamentoID,
		ValorPagoCentavos:   l.ValorPagoCentavos,
		DataPagamento:       l.DataPagamento,
		TipoExameID:         l.TipoExameID,
		EspecialidadeID:     l.EspecialidadeID,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

// carregarLaudo busca o laudo e aplica o recorte de tenant. Laudo de tenant
// alheio responde como inexistente, sem vazar existência.
func (s *Service) carregarLaudo(ctx context.Context, db repo.DB, a *auth.Authorization, id uuid.UUID) (*repo.Laudo, error) {
	l, err := repo.LaudoByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if l == nil || !a.HasTenant(l.TenantID) {
		return nil, laudo.ErrNaoEncontrado
	}
	return l, nil
}

func (s *Service) carregarLaudoForUpdate(ctx context.Context, tx pgx.Tx, a *auth.Authorization, id uuid.UUID) (*repo.Laudo, error) {
	l, err := repo.LaudoByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if l == nil || !a.HasTenant(l.TenantID) {
		return nil, laudo.ErrNaoEncontrado
	}
	return l, nil
}

// laudoDoc reúne o conteúdo decifrado que o renderer de PDF precisa.
func (s *Service) laudoDoc(ctx context.Context, l *repo.Laudo) (pdf.LaudoDoc, error) {
	doc := pdf.LaudoDoc{
		Versao:      l.Versao,
		Conclusao:   s.decrypt(l.ConclusaoEncrypted, l.ConclusaoNonce, l.ConclusaoKeyVersion, "Conclusão não disponível"),
		MedicoNome:  s.decrypt(l.MedicoNomeEncrypted, l.MedicoNomeNonce, l.MedicoNomeKeyVersion, "Nome não disponível"),
		DataEmissao: l.CreatedAt.Format("02/01/2006 15:04"),
	}
	t, err := repo.TenantByID(ctx, s.Pool, l.TenantID)
	if err != nil {
		return doc, err
	}
	doc.TenantNome = t.Nome
	e, err := repo.ExameByID(ctx, s.Pool, l.ExameID)
	if err != nil {
		return doc, err
	}
	if e != nil {
		doc.PacienteNome = s.decrypt(e.PacienteNomeEncrypted, e.PacienteNomeNonce, e.PacienteNomeKeyVersion, "Nome não disponível")
	}
	if u, err := repo.UsuarioByID(ctx, s.Pool, l.MedicoResponsavelID); err == nil && u.CRM != nil {
		doc.MedicoCRM = *u.CRM
	}
	return doc, nil
}

type CreateLaudoInput struct {
	ExameID   uuid.UUID
	Conclusao string
}

// CriarLaudo cria a primeira versão do laudo do exame. A linha nasce em
// LAUDO_EM_PROCESSAMENTO com a entrada CRIACAO no histórico; a geração do PDF
// roda fora da transação e decide entre LAUDO_REALIZADO e ERRO_AO_GERAR_PDF.
func (s *Service) CriarLaudo(ctx context.Context, a *auth.Authorization, in CreateLaudoInput) (*LaudoView, error) {
	if !a.PodeLaudar() {
		return nil, laudo.Validacao("role", "apenas médicos podem laudar")
	}
	if in.Conclusao == "" {
		return nil, laudo.Validacao("conclusao", "é obrigatória")
	}
	exame, err := repo.ExameByID(ctx, s.Pool, in.ExameID)
	if err != nil {
		return nil, err
	}
	if exame == nil || !a.HasTenant(exame.TenantID) {
		return nil, laudo.ErrExameNaoEncontrado
	}
	atual, err := repo.LaudoAtualDoExame(ctx, s.Pool, in.ExameID)
	if err != nil {
		return nil, err
	}
	if atual != nil {
		return nil, laudo.Validacao("exame", "já possui laudo vigente; use a operação de refazer")
	}

	medico, err := repo.UsuarioByID(ctx, s.Pool, a.UserID)
	if err != nil {
		return nil, err
	}
	concC, concN, concKV, err := s.encrypt(in.Conclusao)
	if err != nil {
		return nil, err
	}
	nomeC, nomeN, nomeKV, err := s.encrypt(medico.Nome)
	if err != nil {
		return nil, err
	}

	novo := &repo.Laudo{
		TenantID:             exame.TenantID,
		ExameID:              exame.ID,
		Versao:               1,
		Status:               laudo.StatusEmProcessamento,
		ConclusaoEncrypted:   concC,
		ConclusaoNonce:       concN,
		ConclusaoKeyVersion:  concKV,
		MedicoResponsavelID:  a.UserID,
		MedicoNomeEncrypted:  nomeC,
		MedicoNomeNonce:      nomeN,
		MedicoNomeKeyVersion: nomeKV,
		EhVersaoAtual:        true,
		Valido:               true,
		TipoExameID:          exame.TipoExameID,
		EspecialidadeID:      exame.EspecialidadeID,
	}
	err = repo.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		id, err := repo.CreateLaudo(ctx, tx, novo)
		if err != nil {
			return err
		}
		novo.ID = id
		uid := a.UserID
		entry, err := s.historicoEntry(id, laudo.AcaoCriacao, "Laudo criado (versão 1)", &uid, medico.Nome, 1)
		if err != nil {
			return err
		}
		_, err = repo.AppendHistorico(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.gerarPDFOriginal(ctx, a, novo, medico.Nome); err != nil {
		return nil, err
	}

	ev := s.auditEvent(ctx, a, "laudo.criar", exame.TenantID)
	rt := "laudo"
	ev.ResourceType = &rt
	rid := novo.ID
	ev.ResourceID = &rid
	eid := exame.ID
	ev.ExameID = &eid
	ev.After = s.View(novo)
	s.Audit.Record(ctx, ev)

	view := s.View(novo)
	return &view, nil
}

// gerarPDFOriginal renderiza o PDF não assinado e decide o status. Falha de
// renderização deixa o laudo em ERRO_AO_GERAR_PDF com entrada ERRO no
// histórico e retorna ErrServicoExterno.
func (s *Service) gerarPDFOriginal(ctx context.Context, a *auth.Authorization, l *repo.Laudo, autorNome string) error {
	doc, err := s.laudoDoc(ctx, l)
	if err == nil {
		var raw []byte
		raw, err = pdf.BuildLaudoPDF(doc, nil)
		if err == nil {
			var key string
			key, err = s.Store.Put(ctx, raw, "laudo-"+l.ID.String())
			if err == nil {
				if err := repo.SetLaudoOriginalKey(ctx, s.Pool, l.ID, key); err != nil {
					return err
				}
				if err := repo.UpdateLaudoStatus(ctx, s.Pool, l.ID, laudo.StatusRealizado); err != nil {
					return err
				}
				l.Status = laudo.StatusRealizado
				l.LaudoOriginalKey = &key
				return nil
			}
		}
	}

	s.Log.Error().Err(err).Str("laudo", l.ID.String()).Msg("falha ao gerar PDF do laudo")
	if uerr := repo.UpdateLaudoStatus(ctx, s.Pool, l.ID, laudo.StatusErroGerarPDF); uerr != nil {
		s.Log.Error().Err(uerr).Str("laudo", l.ID.String()).Msg("falha ao marcar ERRO_AO_GERAR_PDF")
	}
	l.Status = laudo.StatusErroGerarPDF
	msg := err.Error()
	uid := a.UserID
	if entry, herr := s.historicoEntry(l.ID, laudo.AcaoErro, "Falha ao gerar PDF do laudo", &uid, autorNome, l.Versao); herr == nil {
		entry.ErroMensagem = &msg
		if _, herr := repo.AppendHistorico(ctx, s.Pool, entry); herr != nil {
			s.Log.Error().Err(herr).Str("laudo", l.ID.String()).Msg("falha ao registrar erro no histórico")
		}
	}
	return &laudo.ErrServicoExterno{Servico: "pdf", Err: err}
}

// RefazerLaudo cria a versão substituta e fecha a antiga na mesma transação:
// a cadeia nunca fica com zero ou duas versões correntes.
func (s *Service) RefazerLaudo(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID, novaConclusao, motivo string) (*LaudoView, error) {
	if !a.PodeLaudar() {
		return nil, laudo.Validacao("role", "apenas médicos podem refazer laudos")
	}
	if novaConclusao == "" {
		return nil, laudo.Validacao("conclusao", "é obrigatória")
	}
	medico, err := repo.UsuarioByID(ctx, s.Pool, a.UserID)
	if err != nil {
		return nil, err
	}

	var novo *repo.Laudo
	var antigo *repo.Laudo
	err = repo.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		antigo, err = s.carregarLaudoForUpdate(ctx, tx, a, laudoID)
		if err != nil {
			return err
		}
		if !antigo.Valido {
			return laudo.ErrLaudoInvalidado
		}
		if !antigo.EhVersaoAtual {
			return laudo.Validacao("laudo", "não é a versão vigente da cadeia")
		}
		if err := laudo.PodeRefazer(antigo.Status); err != nil {
			return err
		}

		concC, concN, concKV, err := s.encrypt(novaConclusao)
		if err != nil {
			return err
		}
		nomeC, nomeN, nomeKV, err := s.encrypt(medico.Nome)
		if err != nil {
			return err
		}
		anteriorID := antigo.ID
		novo = &repo.Laudo{
			TenantID:             antigo.TenantID,
			ExameID:              antigo.ExameID,
			Versao:               antigo.Versao + 1,
			Status:               laudo.StatusEmProcessamento,
			ConclusaoEncrypted:   concC,
			ConclusaoNonce:       concN,
			ConclusaoKeyVersion:  concKV,
			MedicoResponsavelID:  a.UserID,
			MedicoNomeEncrypted:  nomeC,
			MedicoNomeNonce:      nomeN,
			MedicoNomeKeyVersion: nomeKV,
			LaudoAnteriorID:      &anteriorID,
			EhVersaoAtual:        true,
			Valido:               true,
			TipoExameID:          antigo.TipoExameID,
			EspecialidadeID:      antigo.EspecialidadeID,
		}
		id, err := repo.CreateLaudo(ctx, tx, novo)
		if err != nil {
			return err
		}
		novo.ID = id
		if err := repo.MarcarRefeito(ctx, tx, antigo.ID, id); err != nil {
			return err
		}

		uid := a.UserID
		detalhe := fmt.Sprintf("Laudo refeito; substituído pela versão %d", novo.Versao)
		if motivo != "" {
			detalhe += ". Motivo: " + motivo
		}
		entAntigo, err := s.historicoEntry(antigo.ID, laudo.AcaoRefazer, detalhe, &uid, medico.Nome, antigo.Versao)
		if err != nil {
			return err
		}
		if _, err := repo.AppendHistorico(ctx, tx, entAntigo); err != nil {
			return err
		}
		entNovo, err := s.historicoEntry(id, laudo.AcaoCriacao,
			fmt.Sprintf("Laudo criado (versão %d, refazer da versão %d)", novo.Versao, antigo.Versao), &uid, medico.Nome, novo.Versao)
		if err != nil {
			return err
		}
		_, err = repo.AppendHistorico(ctx, tx, entNovo)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.gerarPDFOriginal(ctx, a, novo, medico.Nome); err != nil {
		return nil, err
	}

	ev := s.auditEvent(ctx, a, "laudo.refazer", novo.TenantID)
	rt := "laudo"
	ev.ResourceType = &rt
	rid := novo.ID
	ev.ResourceID = &rid
	eid := novo.ExameID
	ev.ExameID = &eid
	if motivo != "" {
		ev.Metadata = map[string]string{"motivo": motivo}
	}
	ev.Before = s.View(antigo)
	ev.After = s.View(novo)
	s.Audit.Record(ctx, ev)

	view := s.View(novo)
	return &view, nil
}

// Invalidar marca o laudo como inválido sem removê-lo da cadeia. Operação
// administrativa; invalidar de novo é erro, não no-op.
func (s *Service) Invalidar(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID, motivo string) error {
	if !a.PodeInvalidarLaudo() {
		return laudo.Validacao("role", "apenas administradores podem invalidar laudos")
	}
	if motivo == "" {
		return laudo.Validacao("motivo", "é obrigatório")
	}
	nome := s.autorNome(ctx, a)
	var l *repo.Laudo
	err := repo.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		var err error
		l, err = s.carregarLaudoForUpdate(ctx, tx, a, laudoID)
		if err != nil {
			return err
		}
		if !l.Valido {
			return laudo.ErrLaudoInvalidado
		}
		if err := repo.InvalidarLaudo(ctx, tx, l.ID); err != nil {
			return err
		}
		uid := a.UserID
		entry, err := s.historicoEntry(l.ID, laudo.AcaoInvalidacao, "Laudo invalidado: "+motivo, &uid, nome, l.Versao)
		if err != nil {
			return err
		}
		_, err = repo.AppendHistorico(ctx, tx, entry)
		return err
	})
	if err != nil {
		return err
	}

	ev := s.auditEvent(ctx, a, "laudo.invalidar", l.TenantID)
	rt := "laudo"
	ev.ResourceType = &rt
	rid := l.ID
	ev.ResourceID = &rid
	ev.Metadata = map[string]string{"motivo": motivo}
	s.Audit.Record(ctx, ev)
	return nil
}

// RegistrarEnvioEmail envia o PDF assinado ao destinatário e grava ENVIO_EMAIL
// no histórico. Falha de SMTP deixa o laudo em ERRO_NO_ENVIO com a entrada de
// histórico marcando FALHA; o envio continua elegível e um sucesso posterior
// devolve o laudo a LAUDO_ASSINADO.
func (s *Service) RegistrarEnvioEmail(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID, destinatario string) error {
	if destinatario == "" {
		return laudo.Validacao("destinatario", "é obrigatório")
	}
	l, err := s.carregarLaudo(ctx, s.Pool, a, laudoID)
	if err != nil {
		return err
	}
	if !l.Valido {
		return laudo.ErrLaudoInvalidado
	}
	if err := laudo.PodeRegistrarEnvio(l.Status); err != nil {
		return err
	}

	key := l.LaudoAssinadoKey
	if key == nil {
		// assinatura manual não tem arquivo assinado; envia o original
		key = l.LaudoOriginalKey
	}
	if key == nil {
		return laudo.Validacao("laudo", "não possui arquivo PDF para envio")
	}
	raw, err := s.Store.Get(ctx, *key)
	if err != nil {
		return &laudo.ErrServicoExterno{Servico: "storage", Err: err}
	}

	pacienteNome := ""
	if e, eerr := repo.ExameByID(ctx, s.Pool, l.ExameID); eerr == nil && e != nil {
		pacienteNome = s.decrypt(e.PacienteNomeEncrypted, e.PacienteNomeNonce, e.PacienteNomeKeyVersion, "Nome não disponível")
	}
	verifyURL := ""
	if l.VerificationToken != nil {
		verifyURL = s.AppPublicURL + "/laudos/verificar/" + *l.VerificationToken
	}

	nome := s.autorNome(ctx, a)
	uid := a.UserID
	sendErr := s.Email.SendLaudoAssinado(destinatario, pacienteNome, verifyURL, raw)

	status := "ENVIADO"
	detalhe := "Laudo enviado por e-mail para " + destinatario
	if sendErr != nil {
		status = "FALHA"
		detalhe = "Falha no envio do laudo por e-mail para " + destinatario
		if uerr := repo.UpdateLaudoStatus(ctx, s.Pool, l.ID, laudo.StatusErroEnvio); uerr != nil {
			s.Log.Error().Err(uerr).Str("laudo", l.ID.String()).Msg("falha ao marcar ERRO_NO_ENVIO")
		}
	} else if l.Status == laudo.StatusErroEnvio {
		if uerr := repo.UpdateLaudoStatus(ctx, s.Pool, l.ID, laudo.StatusAssinado); uerr != nil {
			s.Log.Error().Err(uerr).Str("laudo", l.ID.String()).Msg("falha ao restaurar LAUDO_ASSINADO")
		}
	}
	entry, herr := s.historicoEntry(l.ID, laudo.AcaoEnvioEmail, detalhe, &uid, nome, l.Versao)
	if herr == nil {
		entry.EmailStatus = &status
		if sendErr != nil {
			msg := sendErr.Error()
			entry.ErroMensagem = &msg
		}
		if _, herr := repo.AppendHistorico(ctx, s.Pool, entry); herr != nil {
			s.Log.Error().Err(herr).Str("laudo", l.ID.String()).Msg("falha ao registrar envio no histórico")
		}
	}

	ev := s.auditEvent(ctx, a, "laudo.envio_email", l.TenantID)
	rt := "laudo"
	ev.ResourceType = &rt
	rid := l.ID
	ev.ResourceID = &rid
	ev.Metadata = map[string]string{"destinatario": destinatario, "status": status}
	s.Audit.Record(ctx, ev)

	if sendErr != nil {
		return &laudo.ErrServicoExterno{Servico: "smtp", Err: sendErr}
	}
	return nil
}

// HistoricoItem é a entrada decifrada do histórico.
type HistoricoItem struct {
	Seq          int        `json:"seq"`
	Acao         string     `json:"acao"`
	Detalhe      string     `json:"detalhe"`
	AutorID      *uuid.UUID `json:"autor_id,omitempty"`
	AutorNome    string     `json:"autor_nome"`
	Versao       int        `json:"versao"`
	EmailStatus  *string    `json:"email_status,omitempty"`
	ErroMensagem *string    `json:"erro_mensagem,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (s *Service) Historico(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID) ([]HistoricoItem, error) {
	l, err := s.carregarLaudo(ctx, s.Pool, a, laudoID)
	if err != nil {
		return nil, err
	}
	entries, err := repo.HistoricoByLaudo(ctx, s.Pool, l.ID)
	if err != nil {
		return nil, err
	}
	items := make([]HistoricoItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoricoItem{
			Seq:          e.Seq,
			Acao:         string(e.Acao),
			Detalhe:      s.decrypt(e.DetalheEncrypted, e.DetalheNonce, e.DetalheKeyVersion, "Detalhe não disponível"),
			AutorID:      e.AutorID,
			AutorNome:    s.decrypt(e.AutorNomeEncrypted, e.AutorNomeNonce, e.AutorNomeKeyVersion, "Nome não disponível"),
			Versao:       e.Versao,
			EmailStatus:  e.EmailStatus,
			ErroMensagem: e.ErroMensagem,
			CreatedAt:    e.CreatedAt,
		})
	}
	return items, nil
}

// LaudoPDF devolve os bytes do PDF atual do laudo: o assinado quando existe,
// senão o original.
func (s *Service) LaudoPDF(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID) ([]byte, string, error) {
	l, err := s.carregarLaudo(ctx, s.Pool, a, laudoID)
	if err != nil {
		return nil, "", err
	}
	key := l.LaudoAssinadoKey
	nome := "laudo-assinado.pdf"
	if key == nil {
		key = l.LaudoOriginalKey
		nome = "laudo.pdf"
	}
	if key == nil {
		return nil, "", laudo.Validacao("laudo", "não possui arquivo PDF")
	}
	raw, err := s.Store.Get(ctx, *key)
	if err != nil {
		return nil, "", &laudo.ErrServicoExterno{Servico: "storage", Err: err}
	}
	return raw, nome, nil
}

// Verificacao é a proveniência pública de um laudo assinado, resolvida pelo
// token do QR. Não expõe a conclusão nem dados do paciente.
type Verificacao struct {
	LaudoID    uuid.UUID `json:"laudo_id"`
	TenantNome string    `json:"tenant_nome"`
	MedicoNome string    `json:"medico_nome"`
	Versao     int       `json:"versao"`
	Status     string    `json:"status"`
	Valido     bool      `json:"valido"`
	AssinadoEm time.Time `json:"assinado_em"`
	PDFSHA256  string    `json:"pdf_sha256,omitempty"`
}

// VerificarPorToken é o endpoint público de autenticidade.
func (s *Service) VerificarPorToken(ctx context.Context, token string) (*Verificacao, error) {
	if token == "" {
		return nil, laudo.Validacao("token", "é obrigatório")
	}
	l, err := repo.LaudoByVerificationToken(ctx, s.Pool, token)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, laudo.ErrNaoEncontrado
	}
	v := &Verificacao{
		LaudoID:    l.ID,
		MedicoNome: s.decrypt(l.MedicoNomeEncrypted, l.MedicoNomeNonce, l.MedicoNomeKeyVersion, "Nome não disponível"),
		Versao:     l.Versao,
		Status:     string(l.Status),
		Valido:     l.Valido,
		AssinadoEm: l.UpdatedAt,
	}
	if t, terr := repo.TenantByID(ctx, s.Pool, l.TenantID); terr == nil {
		v.TenantNome = t.Nome
	}
	if l.LaudoAssinadoKey != nil {
		if raw, gerr := s.Store.Get(ctx, *l.LaudoAssinadoKey); gerr == nil {
			v.PDFSHA256 = crypto.SHA256Hex(raw)
		}
	}
	return v, nil
}

// ListarLaudos devolve a página decifrada com o total.
func (s *Service) ListarLaudos(ctx context.Context, a *auth.Authorization, status string, limit, offset int) ([]LaudoView, int, error) {
	tenants, err := s.TenantsDoRecorte(ctx, a)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := repo.LaudosByTenantsPaginated(ctx, s.Pool, tenants, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]LaudoView, 0, len(list))
	for i := range list {
		views = append(views, s.View(&list[i]))
	}
	return views, total, nil
}

// BuscarLaudo devolve um laudo decifrado do recorte do usuário.
func (s *Service) BuscarLaudo(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID) (*LaudoView, error) {
	l, err := s.carregarLaudo(ctx, s.Pool, a, laudoID)
	if err != nil {
		return nil, err
	}
	view := s.View(l)
	return &view, nil
}
