package laudo

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNaoEncontrado          = errors.New("laudo não encontrado")
	ErrExameNaoEncontrado     = errors.New("exame não encontrado")
	ErrPagamentoNaoEncontrado = errors.New("pagamento não encontrado")
	ErrPagamentoJaCancelado   = errors.New("pagamento já cancelado")
	ErrLaudoInvalidado        = errors.New("laudo invalidado")
)

// ErrValidacao marca entrada malformada (4xx). Nunca deve ser retentada.
type ErrValidacao struct {
	Campo  string
	Motivo string
}

func (e *ErrValidacao) Error() string {
	return fmt.Sprintf("validação: %s %s", e.Campo, e.Motivo)
}

func Validacao(campo, motivo string) error {
	return &ErrValidacao{Campo: campo, Motivo: motivo}
}

// ErrJaPago: um dos laudos do lote já pertence a um pagamento não cancelado.
// A segunda tentativa de registro falha inteira; a primeira permanece intacta.
type ErrJaPago struct {
	LaudoID uuid.UUID
}

func (e *ErrJaPago) Error() string {
	return fmt.Sprintf("laudo %s já possui pagamento registrado", e.LaudoID)
}

// ErrLoteMedicosDistintos: pagamento em lote cruzando médicos é rejeitado,
// nunca dividido silenciosamente.
type ErrLoteMedicosDistintos struct {
	Esperado, Encontrado uuid.UUID
}

func (e *ErrLoteMedicosDistintos) Error() string {
	return fmt.Sprintf("laudos de médicos distintos no mesmo lote (%s e %s)", e.Esperado, e.Encontrado)
}

// ErrServicoExterno: falha de colaborador (PDF, certificado, SMTP). 5xx; o
// laudo fica em status de erro explícito e o histórico registra a falha.
type ErrServicoExterno struct {
	Servico string
	Err     error
}

func (e *ErrServicoExterno) Error() string {
	return fmt.Sprintf("serviço externo %s: %v", e.Servico, e.Err)
}

func (e *ErrServicoExterno) Unwrap() error { return e.Err }
