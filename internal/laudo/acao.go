package laudo

// Acao identifica o tipo de entrada no histórico do laudo (append-only).
type Acao string

const (
	AcaoCriacao                Acao = "CRIACAO"
	AcaoAssinaturaCertificado  Acao = "ASSINATURA_CERTIFICADO"
	AcaoAssinaturaImagemFisica Acao = "ASSINATURA_IMAGEM_FISICA"
	AcaoAssinaturaManual       Acao = "ASSINATURA_MANUAL"
	AcaoUploadAssinado         Acao = "UPLOAD_ASSINADO"
	AcaoRefazer                Acao = "REFAZER"
	AcaoTransacaoFinanceira    Acao = "TRANSACAO_FINANCEIRA"
	AcaoCancelamentoPagamento  Acao = "CANCELAMENTO_PAGAMENTO"
	AcaoEnvioEmail             Acao = "ENVIO_EMAIL"
	AcaoInvalidacao            Acao = "INVALIDACAO"
	AcaoErro                   Acao = "ERRO"
)
