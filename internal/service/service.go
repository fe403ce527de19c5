// Package service orquestra as operações de negócio sobre laudos, assinaturas
// e pagamentos. Toda escrita multi-agregado roda dentro de repo.WithTx; a
// trilha de auditoria é gravada depois do commit, em melhor esforço.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/laudosaude/backend/internal/assinatura"
	"github.com/laudosaude/backend/internal/audit"
	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/crypto"
	"github.com/laudosaude/backend/internal/email"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/middleware"
	"github.com/laudosaude/backend/internal/repo"
	"github.com/laudosaude/backend/internal/storage"
)

type Service struct {
	Pool      *pgxpool.Pool
	Codec     *crypto.Codec
	Store     storage.ObjectStore
	Assinador assinatura.Provider
	Email     *email.Config
	Audit     *audit.Recorder
	Log       zerolog.Logger

	// URL pública do frontend, base do link de verificação impresso no carimbo
	AppPublicURL string
}

func New(pool *pgxpool.Pool, codec *crypto.Codec, store storage.ObjectStore,
	assinador assinatura.Provider, mail *email.Config, rec *audit.Recorder,
	log zerolog.Logger, appPublicURL string) *Service {
	return &Service{
		Pool:         pool,
		Codec:        codec,
		Store:        store,
		Assinador:    assinador,
		Email:        mail,
		Audit:        rec,
		Log:          log.With().Str("component", "service").Logger(),
		AppPublicURL: appPublicURL,
	}
}

// encrypt cifra um campo para o trio de colunas. keyVersion nulo quando o
// valor é vazio (colunas nulas permanecem nulas).
func (s *Service) encrypt(plain string) (cipher, nonce []byte, keyVersion *string, err error) {
	cipher, nonce, kv, err := s.Codec.EncryptString(plain)
	if err != nil {
		return nil, nil, nil, err
	}
	if cipher == nil {
		return nil, nil, nil, nil
	}
	return cipher, nonce, &kv, nil
}

func (s *Service) decrypt(cipher, nonce []byte, keyVersion *string, fallback string) string {
	if len(cipher) == 0 {
		return ""
	}
	kv := ""
	if keyVersion != nil {
		kv = *keyVersion
	}
	return s.Codec.DecryptOrFallback(cipher, nonce, kv, fallback)
}

// FormatBRL formata centavos como "R$ 1.234,56" para o texto do histórico
// financeiro.
func FormatBRL(centavos int64) string {
	neg := ""
	if centavos < 0 {
		neg = "-"
		centavos = -centavos
	}
	reais := centavos / 100
	resto := centavos % 100
	digits := fmt.Sprintf("%d", reais)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}
	return fmt.Sprintf("%sR$ %s,%02d", neg, string(out), resto)
}

func newVerificationToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// auditEvent monta o esqueleto do evento a partir do Authorization e do
// request id do context.
func (s *Service) auditEvent(ctx context.Context, a *auth.Authorization, action string, tenantID uuid.UUID) repo.AuditEvent {
	ev := repo.AuditEvent{
		Action:    action,
		ActorType: "usuario",
		RequestID: middleware.RequestIDFromContext(ctx),
	}
	if a != nil {
		uid := a.UserID
		ev.ActorID = &uid
	}
	if tenantID != uuid.Nil {
		tid := tenantID
		ev.TenantID = &tid
	}
	return ev
}

// historicoEntry monta uma entrada do histórico com detalhe e autor cifrados.
func (s *Service) historicoEntry(laudoID uuid.UUID, acao laudo.Acao, detalhe string, autorID *uuid.UUID, autorNome string, versao int) (*repo.HistoricoEntry, error) {
	detC, detN, detKV, err := s.encrypt(detalhe)
	if err != nil {
		return nil, err
	}
	nomeC, nomeN, nomeKV, err := s.encrypt(autorNome)
	if err != nil {
		return nil, err
	}
	return &repo.HistoricoEntry{
		LaudoID:             laudoID,
		Acao:                acao,
		DetalheEncrypted:    detC,
		DetalheNonce:        detN,
		DetalheKeyVersion:   detKV,
		AutorID:             autorID,
		AutorNomeEncrypted:  nomeC,
		AutorNomeNonce:      nomeN,
		AutorNomeKeyVersion: nomeKV,
		Versao:              versao,
	}, nil
}

// TenantsDoRecorte devolve os tenants visíveis pelo usuário. Admin master sem
// recorte explícito enxerga todos; a lista é resolvida na hora da consulta.
func (s *Service) TenantsDoRecorte(ctx context.Context, a *auth.Authorization) ([]uuid.UUID, error) {
	tenants := a.TenantIDs
	if a.AdminMaster && len(tenants) == 0 {
		all, err := repo.Tenants(ctx, s.Pool)
		if err != nil {
			return nil, err
		}
		for _, t := range all {
			tenants = append(tenants, t.ID)
		}
	}
	return tenants, nil
}

// autorNome resolve o nome do usuário para gravação redundante no histórico.
// Falha de lookup não bloqueia a operação; o nome fica vazio.
func (s *Service) autorNome(ctx context.Context, a *auth.Authorization) string {
	if a == nil {
		return ""
	}
	u, err := repo.UsuarioByID(ctx, s.Pool, a.UserID)
	if err != nil {
		s.Log.Warn().Err(err).Str("usuario", a.UserID.String()).Msg("não foi possível resolver nome do autor")
		return ""
	}
	return u.Nome
}

func agora() time.Time { return time.Now().UTC() }
