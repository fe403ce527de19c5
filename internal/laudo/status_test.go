package laudo

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusValido(t *testing.T) {
	for _, s := range []Status{StatusRascunho, StatusEmProcessamento, StatusRealizado,
		StatusProntoParaAssinatura, StatusAssinado, StatusRefeito,
		StatusCancelado, StatusErroGerarPDF, StatusErroEnvio} {
		if !s.Valido() {
			t.Errorf("%s deveria ser válido", s)
		}
	}
	if Status("QUALQUER").Valido() {
		t.Error("status inventado não pode ser válido")
	}
}

func TestPodeAssinar(t *testing.T) {
	if err := PodeAssinar(StatusRealizado); err != nil {
		t.Fatalf("LAUDO_REALIZADO deveria aceitar assinatura: %v", err)
	}
	if err := PodeAssinar(StatusProntoParaAssinatura); err != nil {
		t.Fatalf("LAUDO_PRONTO_PARA_ASSINATURA deveria aceitar assinatura: %v", err)
	}
	// re-assinar é erro, não no-op
	err := PodeAssinar(StatusAssinado)
	if err == nil {
		t.Fatal("laudo já assinado não pode ser re-assinado")
	}
	var trans *ErrTransicaoInvalida
	if !errors.As(err, &trans) {
		t.Fatalf("esperava ErrTransicaoInvalida, veio %T", err)
	}
	if trans.Atual != StatusAssinado || trans.Pretendido != StatusAssinado {
		t.Fatalf("erro deve nomear estados: %+v", trans)
	}
	for _, s := range []Status{StatusRascunho, StatusEmProcessamento, StatusRefeito, StatusCancelado, StatusErroGerarPDF} {
		if PodeAssinar(s) == nil {
			t.Errorf("%s não deveria aceitar assinatura", s)
		}
	}
}

func TestPodeRefazer(t *testing.T) {
	for _, s := range []Status{StatusRealizado, StatusAssinado, StatusErroGerarPDF, StatusErroEnvio, StatusEmProcessamento} {
		if err := PodeRefazer(s); err != nil {
			t.Errorf("%s deveria aceitar refazer: %v", s, err)
		}
	}
	for _, s := range []Status{StatusCancelado, StatusRefeito} {
		if PodeRefazer(s) == nil {
			t.Errorf("%s não deveria aceitar refazer", s)
		}
	}
}

func TestPodeRegistrarEnvio(t *testing.T) {
	if err := PodeRegistrarEnvio(StatusAssinado); err != nil {
		t.Fatalf("assinado deveria aceitar envio: %v", err)
	}
	// falha anterior de SMTP não pode travar a retentativa
	if err := PodeRegistrarEnvio(StatusErroEnvio); err != nil {
		t.Fatalf("ERRO_NO_ENVIO deveria aceitar nova tentativa de envio: %v", err)
	}
	if PodeRegistrarEnvio(StatusRealizado) == nil {
		t.Fatal("envio exige laudo assinado")
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusAssinado, StatusRefeito, StatusCancelado} {
		if !s.Terminal() {
			t.Errorf("%s deveria ser terminal", s)
		}
	}
	if StatusRealizado.Terminal() {
		t.Error("LAUDO_REALIZADO não é terminal")
	}
}

func TestErrTransicaoInvalidaMensagem(t *testing.T) {
	err := &ErrTransicaoInvalida{Atual: StatusCancelado, Pretendido: StatusRefeito, Operacao: "refazer"}
	msg := err.Error()
	if !strings.Contains(msg, string(StatusCancelado)) || !strings.Contains(msg, string(StatusRefeito)) {
		t.Fatalf("mensagem deve nomear estado atual e pretendido: %q", msg)
	}
}
