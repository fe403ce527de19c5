// Package assinatura assina PDFs de laudo com o certificado A1 do médico.
package assinatura

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pkcs12"
)

var (
	ErrCredencialInvalida  = errors.New("senha do certificado inválida")
	ErrCertificadoExpirado = errors.New("certificado expirado")
	ErrCertificadoAusente  = errors.New("certificado do médico não cadastrado")
	ErrChaveNaoSuportada   = errors.New("chave do certificado não é RSA")
)

// Provider devolve o PDF assinado ou falha com um dos erros acima. O serviço
// de laudo trata qualquer outro erro como falha de serviço externo.
type Provider interface {
	Assinar(ctx context.Context, medicoID uuid.UUID, senha string, pdfBytes []byte) ([]byte, error)
}

// A1Provider carrega certificados A1 (.pfx) de um diretório local, um arquivo
// por médico.
type A1Provider struct {
	dir string
}

func NewA1Provider(dir string) *A1Provider {
	return &A1Provider{dir: dir}
}

func (p *A1Provider) Assinar(ctx context.Context, medicoID uuid.UUID, senha string, pdfBytes []byte) ([]byte, error) {
	pfx, err := os.ReadFile(filepath.Join(p.dir, medicoID.String()+".pfx"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCertificadoAusente
		}
		return nil, err
	}
	key, cert, err := pkcs12.Decode(pfx, senha)
	if err != nil {
		// pkcs12 não distingue senha errada de container corrompido; para o
		// chamador ambos são credencial inválida.
		return nil, ErrCredencialInvalida
	}
	now := time.Now()
	if now.After(cert.NotAfter) || now.Before(cert.NotBefore) {
		return nil, ErrCertificadoExpirado
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrChaveNaoSuportada
	}
	digest := sha256.Sum256(pdfBytes)
	sig, err := rsa.SignPKCS1v15(rand.Reader, rsaKey, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("assinar digest: %w", err)
	}
	// Bloco incremental após o %%EOF: visualizadores ignoram, o verificador
	// recalcula o digest dos bytes originais e confere a assinatura.
	stamp := fmt.Sprintf("\n%%LaudoSaude-Assinatura\n%%Certificado: %s\n%%Assinatura: %s\n",
		cert.Subject.CommonName, base64.StdEncoding.EncodeToString(sig))
	return append(pdfBytes, []byte(stamp)...), nil
}
