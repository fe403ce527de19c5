package pdf

import (
	"bytes"
	"encoding/base64"
	"os"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// LaudoDoc é o conteúdo que vira PDF: cabeçalho do exame, conclusão e,
// quando assinado, o carimbo de assinatura com QR de verificação.
type LaudoDoc struct {
	TenantNome   string
	PacienteNome string
	MedicoNome   string
	MedicoCRM    string
	Versao       int
	Conclusao    string
	DataEmissao  string
}

// CarimboAssinatura é o bloco aplicado pelos caminhos de assinatura.
type CarimboAssinatura struct {
	MetodoDescricao     string
	AssinadoEm          string
	PDFSHA256           string
	VerificationToken   string
	VerificationURL     string
	AssinaturaImagemURL *string // data URL (data:image/png;base64,...) da assinatura física
}

// decodeDataURLImage extrai tipo (png/jpeg) e bytes de um data URL.
func decodeDataURLImage(dataURL string) (ext string, data []byte, ok bool) {
	dataURL = strings.TrimSpace(dataURL)
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, false
	}
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 {
		return "", nil, false
	}
	header := dataURL[5:idx]
	if strings.HasPrefix(header, "image/png") {
		ext = "png"
	} else if strings.HasPrefix(header, "image/jpeg") || strings.HasPrefix(header, "image/jpg") {
		ext = "jpeg"
	} else {
		return "", nil, false
	}
	b64 := dataURL[idx+8:]
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(data) == 0 {
		return "", nil, false
	}
	return ext, data, true
}

// BuildLaudoPDF gera o PDF do laudo. carimbo nil = laudo ainda não assinado
// (marca d'água "SEM VALOR SEM ASSINATURA" no rodapé).
func BuildLaudoPDF(doc LaudoDoc, carimbo *CarimboAssinatura) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Laudo Médico - "+doc.TenantNome, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Paciente: "+doc.PacienteNome, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Médico responsável: "+doc.MedicoNome+" (CRM "+doc.MedicoCRM+")", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Emissão: "+doc.DataEmissao, "", 1, "L", false, 0, "")
	if doc.Versao > 1 {
		pdf.CellFormat(0, 6, "Versão do laudo: "+strconv.Itoa(doc.Versao)+" (substitui versão anterior)", "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Conclusão", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, doc.Conclusao, "", "", false)

	if carimbo == nil {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 6, "Documento sem valor até a assinatura do médico responsável.", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	} else {
		renderCarimbo(pdf, doc, carimbo)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderCarimbo(pdf *fpdf.Fpdf, doc LaudoDoc, carimbo *CarimboAssinatura) {
	pdf.Ln(8)
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(2)

	if carimbo.AssinaturaImagemURL != nil && *carimbo.AssinaturaImagemURL != "" {
		if ext, imgData, ok := decodeDataURLImage(*carimbo.AssinaturaImagemURL); ok {
			alias := "medsig"
			if pdf.RegisterImageReader(alias, ext, bytes.NewReader(imgData)) != nil {
				pdf.Image(alias, 15, pdf.GetY(), 50, 18, false, "", 0, "")
				pdf.SetY(pdf.GetY() + 19)
			}
		}
	} else {
		pdf.SetFont("Times", "I", 12)
		pdf.CellFormat(0, 8, doc.MedicoNome, "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, doc.MedicoNome+" - CRM "+doc.MedicoCRM, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Assinado em "+carimbo.AssinadoEm+" ("+carimbo.MetodoDescricao+")", "", 1, "L", false, 0, "")
	if carimbo.PDFSHA256 != "" {
		pdf.CellFormat(0, 5, "SHA-256: "+carimbo.PDFSHA256, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Token de verificação: "+carimbo.VerificationToken, "", 1, "L", false, 0, "")

	if carimbo.VerificationURL != "" {
		qrPNG, err := qrcode.Encode(carimbo.VerificationURL, qrcode.Medium, 128)
		if err == nil {
			if tmpFile, err := os.CreateTemp("", "qr-*.png"); err == nil {
				_, _ = tmpFile.Write(qrPNG)
				path := tmpFile.Name()
				_ = tmpFile.Close()
				pdf.Image(path, 170, pdf.GetY()-20, 22, 22, false, "", 0, "")
				_ = os.Remove(path)
			}
		}
	}
}
