package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/laudosaude/backend/internal/assinatura"
	"github.com/laudosaude/backend/internal/audit"
	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/crypto"
	"github.com/laudosaude/backend/internal/email"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/repo"
	"github.com/laudosaude/backend/internal/storage"
	"github.com/laudosaude/backend/internal/testutil"
)

// testEnv sobe o serviço inteiro contra o Postgres de DATABASE_URL. Sem a
// variável os testes são pulados.
type testEnv struct {
	pool *pgxpool.Pool
	svc  *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	pool, url := testutil.OpenDB(ctx)
	if pool == nil {
		t.Skip("DATABASE_URL não definida; pulando teste de integração (url=" + url + ")")
	}
	t.Cleanup(pool.Close)
	if err := testutil.MustMigrate(ctx, pool); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	codec, err := crypto.NewCodec("v1:"+strings.Repeat("A", 43), "v1")
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	svc := New(pool, codec, store,
		assinatura.NewA1Provider(t.TempDir()),
		&email.Config{Host: "localhost", Port: 1, FromAddr: "noreply@test.local", Log: log},
		audit.NewRecorder(pool, log),
		log, "http://localhost:5173")
	return &testEnv{pool: pool, svc: svc}
}

func (e *testEnv) criarTenant(t *testing.T, nome string) uuid.UUID {
	t.Helper()
	id, err := repo.CreateTenant(context.Background(), e.pool, nome)
	if err != nil {
		t.Fatalf("criar tenant: %v", err)
	}
	return id
}

func (e *testEnv) criarUsuario(t *testing.T, role string, tenants ...uuid.UUID) *auth.Authorization {
	t.Helper()
	hash, err := auth.HashPassword("Senha123!")
	if err != nil {
		t.Fatal(err)
	}
	crm := "12345-SP"
	id, err := repo.CreateUsuario(context.Background(), e.pool,
		uuid.New().String()+"@test.local", hash, "Usuário "+role, role, tenants, role == auth.RoleAdminMaster, &crm)
	if err != nil {
		t.Fatalf("criar usuário: %v", err)
	}
	return &auth.Authorization{
		UserID:      id,
		Role:        role,
		TenantIDs:   tenants,
		AdminMaster: role == auth.RoleAdminMaster,
	}
}

func (e *testEnv) criarLaudoRealizado(t *testing.T, medico *auth.Authorization, tenantID uuid.UUID) *LaudoView {
	t.Helper()
	ctx := context.Background()
	exame, err := e.svc.CriarExame(ctx, medico, CriarExameInput{
		TenantID:        tenantID,
		PacienteNome:    "Paciente Teste",
		TipoExameID:     uuid.New(),
		EspecialidadeID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("criar exame: %v", err)
	}
	l, err := e.svc.CriarLaudo(ctx, medico, CreateLaudoInput{ExameID: exame.ID, Conclusao: "Sem alterações."})
	if err != nil {
		t.Fatalf("criar laudo: %v", err)
	}
	if l.Status != string(laudo.StatusRealizado) {
		t.Fatalf("laudo deveria nascer LAUDO_REALIZADO após o PDF, veio %s", l.Status)
	}
	return l
}

func TestRegistrarPagamentoDivisaoIgualitaria(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica Pagamentos")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)
	admin := e.criarUsuario(t, auth.RoleAdmin, tenant)

	l1 := e.criarLaudoRealizado(t, medico, tenant)
	l2 := e.criarLaudoRealizado(t, medico, tenant)
	l3 := e.criarLaudoRealizado(t, medico, tenant)

	p, err := e.svc.RegistrarPagamento(ctx, admin, RegistrarPagamentoInput{
		LaudoIDs:           []uuid.UUID{l1.ID, l2.ID, l3.ID},
		ValorFinalCentavos: 10000,
		MeioPagamento:      "PIX",
	})
	if err != nil {
		t.Fatalf("registrar pagamento: %v", err)
	}
	if p.Status != repo.PagamentoPago || len(p.LaudoIDs) != 3 {
		t.Fatalf("pagamento: %+v", p)
	}

	// divisão igualitária com resto nos primeiros: 3334+3333+3333
	var soma int64
	esperado := []int64{3334, 3333, 3333}
	for i, id := range []uuid.UUID{l1.ID, l2.ID, l3.ID} {
		l, err := repo.LaudoByID(ctx, e.pool, id)
		if err != nil {
			t.Fatal(err)
		}
		if !l.PagamentoRegistrado || l.PagamentoID == nil || *l.PagamentoID != p.ID {
			t.Fatalf("laudo %d sem snapshot de pagamento: %+v", i, l)
		}
		if l.ValorPagoCentavos != esperado[i] {
			t.Fatalf("laudo %d: valor pago %d, esperava %d", i, l.ValorPagoCentavos, esperado[i])
		}
		soma += l.ValorPagoCentavos

		hist, err := e.svc.Historico(ctx, medico, id)
		if err != nil {
			t.Fatal(err)
		}
		ultima := hist[len(hist)-1]
		if ultima.Acao != string(laudo.AcaoTransacaoFinanceira) {
			t.Fatalf("última ação do laudo %d: %s", i, ultima.Acao)
		}
		if !strings.Contains(ultima.Detalhe, "divisão igualitária") {
			t.Fatalf("detalhe financeiro: %q", ultima.Detalhe)
		}
	}
	if soma != 10000 {
		t.Fatalf("soma das quotas %d != 10000", soma)
	}
}

func TestRegistrarPagamentoJaPago(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica JaPago")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)
	admin := e.criarUsuario(t, auth.RoleAdmin, tenant)

	l1 := e.criarLaudoRealizado(t, medico, tenant)
	l2 := e.criarLaudoRealizado(t, medico, tenant)

	if _, err := e.svc.RegistrarPagamento(ctx, admin, RegistrarPagamentoInput{
		LaudoIDs: []uuid.UUID{l1.ID}, ValorFinalCentavos: 5000, MeioPagamento: "PIX",
	}); err != nil {
		t.Fatal(err)
	}

	// lote misto com laudo já pago falha inteiro; o laudo livre fica intacto
	_, err := e.svc.RegistrarPagamento(ctx, admin, RegistrarPagamentoInput{
		LaudoIDs: []uuid.UUID{l1.ID, l2.ID}, ValorFinalCentavos: 8000, MeioPagamento: "PIX",
	})
	var jaPago *laudo.ErrJaPago
	if !errors.As(err, &jaPago) || jaPago.LaudoID != l1.ID {
		t.Fatalf("esperava ErrJaPago do laudo %s, veio %v", l1.ID, err)
	}
	livre, err := repo.LaudoByID(ctx, e.pool, l2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if livre.PagamentoRegistrado {
		t.Fatal("laudo livre não pode ter sido pago no lote revertido")
	}
}

func TestRegistrarPagamentoMedicosDistintos(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.criarTenant(t, "Clínica Lote")
	m1 := e.criarUsuario(t, auth.RoleMedico, tenant)
	m2 := e.criarUsuario(t, auth.RoleMedico, tenant)
	admin := e.criarUsuario(t, auth.RoleAdmin, tenant)

	l1 := e.criarLaudoRealizado(t, m1, tenant)
	l2 := e.criarLaudoRealizado(t, m2, tenant)

	_, err := e.svc.RegistrarPagamento(context.Background(), admin, RegistrarPagamentoInput{
		LaudoIDs: []uuid.UUID{l1.ID, l2.ID}, ValorFinalCentavos: 6000, MeioPagamento: "PIX",
	})
	var lote *laudo.ErrLoteMedicosDistintos
	if !errors.As(err, &lote) {
		t.Fatalf("esperava ErrLoteMedicosDistintos, veio %v", err)
	}
}

func TestCancelarPagamentoReseta(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica Cancela")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)
	admin := e.criarUsuario(t, auth.RoleAdmin, tenant)

	l1 := e.criarLaudoRealizado(t, medico, tenant)
	p, err := e.svc.RegistrarPagamento(ctx, admin, RegistrarPagamentoInput{
		LaudoIDs: []uuid.UUID{l1.ID}, ValorFinalCentavos: 7000, MeioPagamento: "TED",
	})
	if err != nil {
		t.Fatal(err)
	}

	cancelado, err := e.svc.CancelarPagamento(ctx, admin, p.ID, "valor errado")
	if err != nil {
		t.Fatalf("cancelar: %v", err)
	}
	if cancelado.Status != repo.PagamentoCancelado {
		t.Fatalf("status: %s", cancelado.Status)
	}

	l, err := repo.LaudoByID(ctx, e.pool, l1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if l.PagamentoRegistrado || l.PagamentoID != nil || l.ValorPagoCentavos != 0 || l.DataPagamento != nil {
		t.Fatalf("snapshot do laudo não foi limpo: %+v", l)
	}

	hist, err := e.svc.Historico(ctx, medico, l1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if hist[len(hist)-1].Acao != string(laudo.AcaoCancelamentoPagamento) {
		t.Fatalf("última ação: %s", hist[len(hist)-1].Acao)
	}

	// cancelar de novo é erro, não no-op
	if _, err := e.svc.CancelarPagamento(ctx, admin, p.ID, "de novo"); !errors.Is(err, laudo.ErrPagamentoJaCancelado) {
		t.Fatalf("esperava ErrPagamentoJaCancelado, veio %v", err)
	}

	// laudo liberado pode ser pago de novo
	if _, err := e.svc.RegistrarPagamento(ctx, admin, RegistrarPagamentoInput{
		LaudoIDs: []uuid.UUID{l1.ID}, ValorFinalCentavos: 6000, MeioPagamento: "PIX",
	}); err != nil {
		t.Fatalf("repagar após cancelamento: %v", err)
	}
}

func TestRefazerLaudoCadeia(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica Refazer")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)

	v1 := e.criarLaudoRealizado(t, medico, tenant)
	v2, err := e.svc.RefazerLaudo(ctx, medico, v1.ID, "Conclusão corrigida.", "imagem com artefato")
	if err != nil {
		t.Fatalf("refazer: %v", err)
	}
	if v2.Versao != 2 || !v2.EhVersaoAtual {
		t.Fatalf("versão nova: %+v", v2)
	}
	if v2.LaudoAnteriorID == nil || *v2.LaudoAnteriorID != v1.ID {
		t.Fatal("versão nova deve apontar para a anterior")
	}

	antigo, err := repo.LaudoByID(ctx, e.pool, v1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if antigo.Status != laudo.StatusRefeito || antigo.EhVersaoAtual {
		t.Fatalf("versão antiga deve fechar REFEITO e perder a flag: %+v", antigo)
	}
	if antigo.LaudoSubstitutoID == nil || *antigo.LaudoSubstitutoID != v2.ID {
		t.Fatal("versão antiga deve apontar para a substituta")
	}

	// invariante: uma única versão corrente na cadeia
	var n int
	if err := e.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM laudos WHERE exame_id = $1 AND eh_versao_atual`, v1.ExameID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("cadeia com %d versões correntes", n)
	}

	// o motivo informado fica na entrada REFAZER da versão fechada
	hist, err := e.svc.Historico(ctx, medico, v1.ID)
	if err != nil {
		t.Fatal(err)
	}
	ultima := hist[len(hist)-1]
	if ultima.Acao != string(laudo.AcaoRefazer) {
		t.Fatalf("última ação da versão antiga: %s", ultima.Acao)
	}
	if !strings.Contains(ultima.Detalhe, "imagem com artefato") {
		t.Fatalf("detalhe do REFAZER deve carregar o motivo: %q", ultima.Detalhe)
	}

	// refazer a versão fechada é erro
	if _, err := e.svc.RefazerLaudo(ctx, medico, v1.ID, "x", ""); err == nil {
		t.Fatal("refazer versão não vigente deve falhar")
	}
}

func TestAssinarManualEIdempotencia(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica Assina")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)

	l := e.criarLaudoRealizado(t, medico, tenant)
	assinado, err := e.svc.Assinar(ctx, medico, l.ID, laudo.MetodoManual{})
	if err != nil {
		t.Fatalf("assinar manual: %v", err)
	}
	if assinado.Status != string(laudo.StatusAssinado) {
		t.Fatalf("status: %s", assinado.Status)
	}

	row, err := repo.LaudoByID(ctx, e.pool, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if row.VerificationToken == nil || *row.VerificationToken == "" {
		t.Fatal("assinatura deve emitir token de verificação")
	}

	// re-assinar é erro com os estados nomeados
	_, err = e.svc.Assinar(ctx, medico, l.ID, laudo.MetodoManual{})
	var trans *laudo.ErrTransicaoInvalida
	if !errors.As(err, &trans) || trans.Atual != laudo.StatusAssinado {
		t.Fatalf("esperava ErrTransicaoInvalida de LAUDO_ASSINADO, veio %v", err)
	}

	// verificação pública pelo token
	v, err := e.svc.VerificarPorToken(ctx, *row.VerificationToken)
	if err != nil {
		t.Fatalf("verificar: %v", err)
	}
	if v.LaudoID != l.ID || !v.Valido {
		t.Fatalf("verificação: %+v", v)
	}
}

func TestTenantIsolation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenantA := e.criarTenant(t, "Clínica A")
	tenantB := e.criarTenant(t, "Clínica B")
	medicoA := e.criarUsuario(t, auth.RoleMedico, tenantA)
	medicoB := e.criarUsuario(t, auth.RoleMedico, tenantB)

	l := e.criarLaudoRealizado(t, medicoA, tenantA)

	// tenant alheio responde como inexistente
	if _, err := e.svc.BuscarLaudo(ctx, medicoB, l.ID); !errors.Is(err, laudo.ErrNaoEncontrado) {
		t.Fatalf("esperava ErrNaoEncontrado, veio %v", err)
	}
	if _, err := e.svc.Historico(ctx, medicoB, l.ID); !errors.Is(err, laudo.ErrNaoEncontrado) {
		t.Fatalf("histórico vazou entre tenants: %v", err)
	}
	if _, err := e.svc.RefazerLaudo(ctx, medicoB, l.ID, "x", ""); !errors.Is(err, laudo.ErrNaoEncontrado) {
		t.Fatalf("refazer vazou entre tenants: %v", err)
	}

	// admin master enxerga tudo
	master := e.criarUsuario(t, auth.RoleAdminMaster)
	if _, err := e.svc.BuscarLaudo(ctx, master, l.ID); err != nil {
		t.Fatalf("admin master: %v", err)
	}
}

func TestHistoricoAppendOnly(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica Histórico")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)
	admin := e.criarUsuario(t, auth.RoleAdmin, tenant)

	l := e.criarLaudoRealizado(t, medico, tenant)
	if _, err := e.svc.Assinar(ctx, medico, l.ID, laudo.MetodoManual{}); err != nil {
		t.Fatal(err)
	}
	if err := e.svc.Invalidar(ctx, admin, l.ID, "assinado por engano"); err != nil {
		t.Fatal(err)
	}

	hist, err := e.svc.Historico(ctx, medico, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) < 3 {
		t.Fatalf("esperava ao menos CRIACAO, ASSINATURA_MANUAL e INVALIDACAO, veio %d entradas", len(hist))
	}
	for i, item := range hist {
		if item.Seq != i+1 {
			t.Fatalf("seq deve ser contínua: posição %d tem seq %d", i, item.Seq)
		}
	}
	if hist[0].Acao != string(laudo.AcaoCriacao) {
		t.Fatalf("primeira entrada: %s", hist[0].Acao)
	}
	if hist[len(hist)-1].Acao != string(laudo.AcaoInvalidacao) {
		t.Fatalf("última entrada: %s", hist[len(hist)-1].Acao)
	}

	// invalidar de novo é erro
	if err := e.svc.Invalidar(ctx, admin, l.ID, "de novo"); !errors.Is(err, laudo.ErrLaudoInvalidado) {
		t.Fatalf("esperava ErrLaudoInvalidado, veio %v", err)
	}
}

func TestEnvioEmailFalhaPermiteRetentativa(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica Envio")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)

	l := e.criarLaudoRealizado(t, medico, tenant)
	if _, err := e.svc.Assinar(ctx, medico, l.ID, laudo.MetodoManual{}); err != nil {
		t.Fatal(err)
	}

	// SMTP inalcançável: falha registrada e laudo em ERRO_NO_ENVIO
	err := e.svc.RegistrarEnvioEmail(ctx, medico, l.ID, "paciente@test.local")
	var ext *laudo.ErrServicoExterno
	if !errors.As(err, &ext) || ext.Servico != "smtp" {
		t.Fatalf("esperava ErrServicoExterno de smtp, veio %v", err)
	}
	row, err := repo.LaudoByID(ctx, e.pool, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != laudo.StatusErroEnvio {
		t.Fatalf("status após falha: %s", row.Status)
	}

	// ERRO_NO_ENVIO continua elegível: a retentativa chega de novo ao SMTP em
	// vez de morrer em transição inválida
	err = e.svc.RegistrarEnvioEmail(ctx, medico, l.ID, "paciente@test.local")
	var trans *laudo.ErrTransicaoInvalida
	if errors.As(err, &trans) {
		t.Fatalf("retentativa não pode ser barrada pela máquina de estados: %v", err)
	}
	if !errors.As(err, &ext) || ext.Servico != "smtp" {
		t.Fatalf("esperava nova falha de smtp, veio %v", err)
	}

	hist, err := e.svc.Historico(ctx, medico, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	falhas := 0
	for _, item := range hist {
		if item.Acao == string(laudo.AcaoEnvioEmail) && item.EmailStatus != nil && *item.EmailStatus == "FALHA" {
			falhas++
		}
	}
	if falhas != 2 {
		t.Fatalf("esperava 2 entradas ENVIO_EMAIL com FALHA, veio %d", falhas)
	}
}

func TestValoresRecorteAdminMaster(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenantA := e.criarTenant(t, "Clínica Valores A")
	tenantB := e.criarTenant(t, "Clínica Valores B")

	var ids []uuid.UUID
	for _, tid := range []uuid.UUID{tenantA, tenantB} {
		id, err := repo.CreateValorLaudo(ctx, e.pool, &repo.ValorLaudo{
			TenantID:        tid,
			MedicoID:        uuid.New(),
			EspecialidadeID: uuid.New(),
			TipoExameID:     uuid.New(),
			ValorCentavos:   12000,
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	// admin master sem recorte explícito enxerga a configuração de todos os tenants
	master := e.criarUsuario(t, auth.RoleAdminMaster)
	tenants, err := e.svc.TenantsDoRecorte(ctx, master)
	if err != nil {
		t.Fatal(err)
	}
	if len(tenants) < 2 {
		t.Fatalf("recorte do admin master deveria cobrir todos os tenants, veio %d", len(tenants))
	}
	list, err := repo.ValoresByTenants(ctx, e.pool, tenants)
	if err != nil {
		t.Fatal(err)
	}
	achados := make(map[uuid.UUID]bool)
	for _, v := range list {
		achados[v.ID] = true
	}
	for _, id := range ids {
		if !achados[id] {
			t.Fatalf("valor %s não apareceu na listagem do admin master", id)
		}
	}
}

func TestCancelarPagamentoSemMotivo(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tenant := e.criarTenant(t, "Clínica Cancela Sem Motivo")
	medico := e.criarUsuario(t, auth.RoleMedico, tenant)
	admin := e.criarUsuario(t, auth.RoleAdmin, tenant)

	l := e.criarLaudoRealizado(t, medico, tenant)
	p, err := e.svc.RegistrarPagamento(ctx, admin, RegistrarPagamentoInput{
		LaudoIDs: []uuid.UUID{l.ID}, ValorFinalCentavos: 4000, MeioPagamento: "PIX",
	})
	if err != nil {
		t.Fatal(err)
	}

	// motivo é opcional no cancelamento
	cancelado, err := e.svc.CancelarPagamento(ctx, admin, p.ID, "")
	if err != nil {
		t.Fatalf("cancelar sem motivo: %v", err)
	}
	if cancelado.Status != repo.PagamentoCancelado {
		t.Fatalf("status: %s", cancelado.Status)
	}

	hist, err := e.svc.Historico(ctx, medico, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	ultima := hist[len(hist)-1]
	if ultima.Acao != string(laudo.AcaoCancelamentoPagamento) {
		t.Fatalf("última ação: %s", ultima.Acao)
	}
	if !strings.HasSuffix(ultima.Detalhe, "estornado)") {
		t.Fatalf("detalhe sem motivo não deve ter sufixo vazio: %q", ultima.Detalhe)
	}
}
