package laudo

// Metodo é a união etiquetada dos caminhos de assinatura. O serviço valida a
// elegibilidade do status uma única vez, independente do caminho escolhido
// pelo chamador; os caminhos são mutuamente exclusivos.
type Metodo interface {
	Acao() Acao
}

// MetodoCertificado assina com certificado A1 do médico, protegido por senha.
type MetodoCertificado struct {
	Senha string
}

func (MetodoCertificado) Acao() Acao { return AcaoAssinaturaCertificado }

// MetodoImagemFisica aplica a imagem de assinatura física cadastrada.
type MetodoImagemFisica struct{}

func (MetodoImagemFisica) Acao() Acao { return AcaoAssinaturaImagemFisica }

// MetodoManual marca o laudo como assinado fora do sistema (em papel), sem
// arquivo anexo.
type MetodoManual struct{}

func (MetodoManual) Acao() Acao { return AcaoAssinaturaManual }

// MetodoUpload recebe o PDF já assinado pelo chamador.
type MetodoUpload struct {
	Arquivo     []byte
	NomeArquivo string
}

func (MetodoUpload) Acao() Acao { return AcaoUploadAssinado }
