package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/crypto"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/pdf"
	"github.com/laudosaude/backend/internal/repo"
)

// Assinar é o ponto de entrada único dos quatro caminhos de assinatura. A
// elegibilidade do status é validada uma vez, sob FOR UPDATE; os caminhos são
// mutuamente exclusivos e convergem em LAUDO_ASSINADO com token de
// verificação e entrada no histórico.
func (s *Service) Assinar(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID, metodo laudo.Metodo) (*LaudoView, error) {
	if !a.PodeLaudar() {
		return nil, laudo.Validacao("role", "apenas médicos podem assinar laudos")
	}
	medico, err := repo.UsuarioByID(ctx, s.Pool, a.UserID)
	if err != nil {
		return nil, err
	}

	var assinado *repo.Laudo
	err = repo.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		l, err := s.carregarLaudoForUpdate(ctx, tx, a, laudoID)
		if err != nil {
			return err
		}
		if !l.Valido {
			return laudo.ErrLaudoInvalidado
		}
		if l.MedicoResponsavelID != a.UserID && !a.AdminMaster {
			return laudo.Validacao("medico", "apenas o médico responsável pode assinar o laudo")
		}
		if err := laudo.PodeAssinar(l.Status); err != nil {
			return err
		}

		token, err := newVerificationToken()
		if err != nil {
			return err
		}
		assinadoKey, detalhe, err := s.executarMetodo(ctx, a, l, medico, metodo, token)
		if err != nil {
			return err
		}

		if err := repo.MarcarAssinado(ctx, tx, l.ID, assinadoKey, &token); err != nil {
			return err
		}
		uid := a.UserID
		entry, err := s.historicoEntry(l.ID, metodo.Acao(), detalhe, &uid, medico.Nome, l.Versao)
		if err != nil {
			return err
		}
		if _, err := repo.AppendHistorico(ctx, tx, entry); err != nil {
			return err
		}

		l.Status = laudo.StatusAssinado
		l.LaudoAssinadoKey = assinadoKey
		l.VerificationToken = &token
		assinado = l
		return nil
	})
	if err != nil {
		s.registrarFalhaAssinatura(ctx, a, laudoID, medico.Nome, err)
		return nil, err
	}

	ev := s.auditEvent(ctx, a, "laudo.assinar", assinado.TenantID)
	rt := "laudo"
	ev.ResourceType = &rt
	rid := assinado.ID
	ev.ResourceID = &rid
	ev.Metadata = map[string]string{"metodo": string(metodo.Acao())}
	ev.After = s.View(assinado)
	s.Audit.Record(ctx, ev)

	view := s.View(assinado)
	return &view, nil
}

// executarMetodo materializa o caminho escolhido e devolve a chave do arquivo
// assinado (nula para assinatura manual) e o texto do histórico.
func (s *Service) executarMetodo(ctx context.Context, a *auth.Authorization, l *repo.Laudo, medico *repo.Usuario, metodo laudo.Metodo, token string) (*string, string, error) {
	switch m := metodo.(type) {
	case laudo.MetodoManual:
		return nil, "Assinatura manual registrada (laudo assinado em papel)", nil

	case laudo.MetodoUpload:
		if len(m.Arquivo) == 0 {
			return nil, "", laudo.Validacao("arquivo", "é obrigatório")
		}
		if !strings.HasPrefix(string(m.Arquivo[:min(5, len(m.Arquivo))]), "%PDF-") {
			return nil, "", laudo.Validacao("arquivo", "não é um PDF válido")
		}
		key, err := s.Store.Put(ctx, m.Arquivo, "laudo-"+l.ID.String()+"-assinado")
		if err != nil {
			return nil, "", &laudo.ErrServicoExterno{Servico: "storage", Err: err}
		}
		return &key, "PDF assinado recebido por upload (" + m.NomeArquivo + ")", nil

	case laudo.MetodoImagemFisica:
		if medico.AssinaturaImagem == nil || *medico.AssinaturaImagem == "" {
			return nil, "", laudo.Validacao("assinatura_imagem", "não cadastrada para o médico")
		}
		key, err := s.renderAssinado(ctx, l, token, "Assinatura física digitalizada", medico.AssinaturaImagem)
		if err != nil {
			return nil, "", err
		}
		return &key, "Laudo assinado com imagem de assinatura física", nil

	case laudo.MetodoCertificado:
		if m.Senha == "" {
			return nil, "", laudo.Validacao("senha_certificado", "é obrigatória")
		}
		key, err := s.renderAssinadoComCertificado(ctx, a, l, token, m.Senha)
		if err != nil {
			return nil, "", err
		}
		return &key, "Laudo assinado com certificado digital A1", nil
	}
	return nil, "", laudo.Validacao("metodo", "desconhecido")
}

// renderAssinado reconstrói o PDF com o carimbo de assinatura e o guarda.
func (s *Service) renderAssinado(ctx context.Context, l *repo.Laudo, token, metodoDescricao string, imagem *string) (string, error) {
	raw, err := s.renderComCarimbo(ctx, l, token, metodoDescricao, imagem)
	if err != nil {
		return "", err
	}
	key, err := s.Store.Put(ctx, raw, "laudo-"+l.ID.String()+"-assinado")
	if err != nil {
		return "", &laudo.ErrServicoExterno{Servico: "storage", Err: err}
	}
	return key, nil
}

// renderAssinadoComCertificado reconstrói o PDF carimbado e submete ao
// provedor de assinatura A1. Senha errada e certificado ausente/expirado
// voltam como erros tipados do pacote assinatura.
func (s *Service) renderAssinadoComCertificado(ctx context.Context, a *auth.Authorization, l *repo.Laudo, token, senha string) (string, error) {
	raw, err := s.renderComCarimbo(ctx, l, token, "Certificado digital A1", nil)
	if err != nil {
		return "", err
	}
	signed, err := s.Assinador.Assinar(ctx, a.UserID, senha, raw)
	if err != nil {
		return "", err
	}
	key, err := s.Store.Put(ctx, signed, "laudo-"+l.ID.String()+"-assinado")
	if err != nil {
		return "", &laudo.ErrServicoExterno{Servico: "storage", Err: err}
	}
	return key, nil
}

func (s *Service) renderComCarimbo(ctx context.Context, l *repo.Laudo, token, metodoDescricao string, imagem *string) ([]byte, error) {
	doc, err := s.laudoDoc(ctx, l)
	if err != nil {
		return nil, &laudo.ErrServicoExterno{Servico: "pdf", Err: err}
	}
	sha := ""
	if l.LaudoOriginalKey != nil {
		if orig, gerr := s.Store.Get(ctx, *l.LaudoOriginalKey); gerr == nil {
			sha = crypto.SHA256Hex(orig)
		}
	}
	carimbo := &pdf.CarimboAssinatura{
		MetodoDescricao:     metodoDescricao,
		AssinadoEm:          agora().Format("02/01/2006 15:04"),
		PDFSHA256:           sha,
		VerificationToken:   token,
		VerificationURL:     s.AppPublicURL + "/laudos/verificar/" + token,
		AssinaturaImagemURL: imagem,
	}
	raw, err := pdf.BuildLaudoPDF(doc, carimbo)
	if err != nil {
		return nil, &laudo.ErrServicoExterno{Servico: "pdf", Err: err}
	}
	return raw, nil
}

// registrarFalhaAssinatura acrescenta a entrada ERRO fora da transação
// revertida. Só para falhas de colaborador externo; erro de validação ou
// transição não suja o histórico.
func (s *Service) registrarFalhaAssinatura(ctx context.Context, a *auth.Authorization, laudoID uuid.UUID, autorNome string, cause error) {
	var ext *laudo.ErrServicoExterno
	if !errors.As(cause, &ext) {
		return
	}
	l, err := repo.LaudoByID(ctx, s.Pool, laudoID)
	if err != nil || l == nil {
		return
	}
	msg := cause.Error()
	uid := a.UserID
	entry, err := s.historicoEntry(l.ID, laudo.AcaoErro, "Falha na assinatura do laudo", &uid, autorNome, l.Versao)
	if err != nil {
		return
	}
	entry.ErroMensagem = &msg
	if _, err := repo.AppendHistorico(ctx, s.Pool, entry); err != nil {
		s.Log.Error().Err(err).Str("laudo", l.ID.String()).Msg("falha ao registrar erro de assinatura no histórico")
	}
}
