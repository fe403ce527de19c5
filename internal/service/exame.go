package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/repo"
)

type CriarExameInput struct {
	TenantID          uuid.UUID
	PacienteNome      string
	TipoExameID       uuid.UUID
	EspecialidadeID   uuid.UUID
	MedicoSolicitante string
}

// ExameView é o exame decifrado, com a versão corrente do laudo quando há.
type ExameView struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	PacienteNome      string     `json:"paciente_nome"`
	TipoExameID       uuid.UUID  `json:"tipo_exame_id"`
	EspecialidadeID   uuid.UUID  `json:"especialidade_id"`
	MedicoSolicitante *string    `json:"medico_solicitante,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	LaudoAtual        *LaudoView `json:"laudo_atual,omitempty"`
}

func (s *Service) exameView(e *repo.Exame) ExameView {
	return ExameView{
		ID:                e.ID,
		TenantID:          e.TenantID,
		PacienteNome:      s.decrypt(e.PacienteNomeEncrypted, e.PacienteNomeNonce, e.PacienteNomeKeyVersion, "Nome não disponível"),
		TipoExameID:       e.TipoExameID,
		EspecialidadeID:   e.EspecialidadeID,
		MedicoSolicitante: e.MedicoSolicitante,
		CreatedAt:         e.CreatedAt,
	}
}

// CriarExame registra o exame com o nome do paciente cifrado em repouso.
func (s *Service) CriarExame(ctx context.Context, a *auth.Authorization, in CriarExameInput) (*ExameView, error) {
	if in.PacienteNome == "" {
		return nil, laudo.Validacao("paciente_nome", "é obrigatório")
	}
	if in.TenantID == uuid.Nil || !a.HasTenant(in.TenantID) {
		return nil, laudo.Validacao("tenant_id", "inválido para o usuário")
	}
	if in.TipoExameID == uuid.Nil || in.EspecialidadeID == uuid.Nil {
		return nil, laudo.Validacao("tipo_exame_id", "e especialidade_id são obrigatórios")
	}
	nomeC, nomeN, nomeKV, err := s.encrypt(in.PacienteNome)
	if err != nil {
		return nil, err
	}
	e := &repo.Exame{
		TenantID:               in.TenantID,
		PacienteNomeEncrypted:  nomeC,
		PacienteNomeNonce:      nomeN,
		PacienteNomeKeyVersion: nomeKV,
		TipoExameID:            in.TipoExameID,
		EspecialidadeID:        in.EspecialidadeID,
	}
	if in.MedicoSolicitante != "" {
		ms := in.MedicoSolicitante
		e.MedicoSolicitante = &ms
	}
	id, err := repo.CreateExame(ctx, s.Pool, e)
	if err != nil {
		return nil, err
	}
	e.ID = id

	ev := s.auditEvent(ctx, a, "exame.criar", in.TenantID)
	rt := "exame"
	ev.ResourceType = &rt
	ev.ResourceID = &id
	ev.ExameID = &id
	s.Audit.Record(ctx, ev)

	view := s.exameView(e)
	return &view, nil
}

// BuscarExame devolve o exame do recorte do usuário com o laudo vigente.
func (s *Service) BuscarExame(ctx context.Context, a *auth.Authorization, id uuid.UUID) (*ExameView, error) {
	e, err := repo.ExameByID(ctx, s.Pool, id)
	if err != nil {
		return nil, err
	}
	if e == nil || !a.HasTenant(e.TenantID) {
		return nil, laudo.ErrExameNaoEncontrado
	}
	view := s.exameView(e)
	if atual, err := repo.LaudoAtualDoExame(ctx, s.Pool, id); err == nil && atual != nil {
		lv := s.View(atual)
		view.LaudoAtual = &lv
	}
	return &view, nil
}
