package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strconv"
	"text/template"

	"github.com/rs/zerolog"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
	Log      zerolog.Logger
}

func (c *Config) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("destinatário de e-mail vazio")
	}
	if c.Host == "" {
		return fmt.Errorf("SMTP host não configurado")
	}
	if c.FromAddr == "" {
		return fmt.Errorf("SMTP remetente (From) não configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"Content-Type": "text/plain; charset=UTF-8",
	}
	var buf bytes.Buffer
	for k, v := range headers {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	c.Log.Info().Str("to", to).Str("subject", subject).Str("smtp", addr).Msg("enviando e-mail")
	if err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes()); err != nil {
		c.Log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("falha ao enviar e-mail")
		return err
	}
	return nil
}

// authForSend returns nil when User is empty (e.g. MailHog), so no AUTH is sent.
func (c *Config) authForSend() smtp.Auth {
	if c.User != "" {
		return smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	return nil
}

// SendLaudoAssinado envia o PDF assinado ao destinatário (médico solicitante
// ou paciente) com o link de verificação pública.
func (c *Config) SendLaudoAssinado(to, pacienteNome, verificationURL string, pdf []byte) error {
	tpl := `Olá,

Segue em anexo o laudo assinado do exame de {{.PacienteNome}}.

Autenticidade: {{.VerificationURL}}

Se você não esperava este e-mail, ignore-o.`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{"PacienteNome": pacienteNome, "VerificationURL": verificationURL}); err != nil {
		return err
	}
	return c.SendWithAttachment(to, "Laudo assinado - Laudo Saúde", b.String(), "laudo-assinado.pdf", pdf)
}

func (c *Config) SendWithAttachment(to, subject, body string, attachmentName string, attachmentPDF []byte) error {
	if to == "" {
		return fmt.Errorf("destinatário de e-mail vazio")
	}
	if c.Host == "" || c.FromAddr == "" {
		return fmt.Errorf("SMTP host ou remetente não configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	boundary := "boundary-laudosaude-pdf"
	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")
	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n--" + boundary + "\r\n")
	buf.WriteString("Content-Type: application/pdf; name=\"" + attachmentName + "\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("Content-Disposition: attachment; filename=\"" + attachmentName + "\"\r\n\r\n")
	// RFC 2045: base64 em MIME deve ter linhas de no máximo 76 caracteres
	encoded := base64.StdEncoding.EncodeToString(attachmentPDF)
	const lineLen = 76
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		buf.WriteString(encoded[i:end] + "\r\n")
	}
	buf.WriteString("\r\n--" + boundary + "--\r\n")
	c.Log.Info().Str("to", to).Str("subject", subject).Str("smtp", addr).Msg("enviando e-mail com anexo")
	if err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes()); err != nil {
		c.Log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("falha ao enviar e-mail com anexo")
		return err
	}
	return nil
}

// LogConfigSummary loga um resumo da config SMTP (sem senha) para diagnóstico.
func (c *Config) LogConfigSummary() {
	c.Log.Info().
		Str("host", c.Host).
		Int("port", c.Port).
		Str("from", c.FromAddr).
		Bool("auth", c.User != "").
		Msg("config SMTP")
	if c.Host == "" || c.FromAddr == "" {
		c.Log.Warn().Msg("host ou from vazio; envios podem falhar")
	}
}

func PortFromString(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
