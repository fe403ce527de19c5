package laudo

import "fmt"

// Status do ciclo de vida do laudo. Persistido como texto.
type Status string

const (
	StatusRascunho             Status = "RASCUNHO"
	StatusEmProcessamento      Status = "LAUDO_EM_PROCESSAMENTO"
	StatusRealizado            Status = "LAUDO_REALIZADO"
	StatusProntoParaAssinatura Status = "LAUDO_PRONTO_PARA_ASSINATURA"
	StatusAssinado             Status = "LAUDO_ASSINADO"
	StatusRefeito              Status = "LAUDO_REFEITO"
	StatusCancelado            Status = "CANCELADO"
	StatusErroGerarPDF         Status = "ERRO_AO_GERAR_PDF"
	StatusErroEnvio            Status = "ERRO_NO_ENVIO"
)

// Valido responde se o texto corresponde a um status conhecido.
func (s Status) Valido() bool {
	switch s {
	case StatusRascunho, StatusEmProcessamento, StatusRealizado,
		StatusProntoParaAssinatura, StatusAssinado, StatusRefeito,
		StatusCancelado, StatusErroGerarPDF, StatusErroEnvio:
		return true
	}
	return false
}

// Terminal: nenhuma transição sai destes estados (a cadeia continua em outra
// linha no caso de LAUDO_REFEITO).
func (s Status) Terminal() bool {
	switch s {
	case StatusAssinado, StatusRefeito, StatusCancelado:
		return true
	}
	return false
}

// ErrTransicaoInvalida nomeia o estado atual e o pretendido. Operação ilegal
// nunca é no-op silencioso.
type ErrTransicaoInvalida struct {
	Atual      Status
	Pretendido Status
	Operacao   string
}

func (e *ErrTransicaoInvalida) Error() string {
	return fmt.Sprintf("transição inválida (%s): laudo em %q não pode ir para %q", e.Operacao, e.Atual, e.Pretendido)
}

// PodeAssinar: os quatro caminhos de assinatura exigem laudo realizado ou
// pronto para assinatura. Re-assinar laudo já assinado é erro, não no-op.
func PodeAssinar(atual Status) error {
	if atual == StatusRealizado || atual == StatusProntoParaAssinatura {
		return nil
	}
	return &ErrTransicaoInvalida{Atual: atual, Pretendido: StatusAssinado, Operacao: "assinar"}
}

// PodeRefazer: qualquer estado não terminal exceto CANCELADO, mais o próprio
// LAUDO_ASSINADO (refazer um laudo assinado cria a versão substituta).
func PodeRefazer(atual Status) error {
	if atual == StatusCancelado || atual == StatusRefeito {
		return &ErrTransicaoInvalida{Atual: atual, Pretendido: StatusRefeito, Operacao: "refazer"}
	}
	return nil
}

// PodeRegistrarEnvio: envio de e-mail exige laudo assinado. ERRO_NO_ENVIO
// também é elegível; o envio pode ser retentado após falha.
func PodeRegistrarEnvio(atual Status) error {
	if atual == StatusAssinado || atual == StatusErroEnvio {
		return nil
	}
	return &ErrTransicaoInvalida{Atual: atual, Pretendido: atual, Operacao: "registrar envio de e-mail"}
}
