package pdf

import (
	"bytes"
	"testing"
)

func doc() LaudoDoc {
	return LaudoDoc{
		TenantNome:   "Clínica Imagem Sul",
		PacienteNome: "João da Silva",
		MedicoNome:   "Dra. Exemplo",
		MedicoCRM:    "12345-SP",
		Versao:       1,
		Conclusao:    "Exame dentro dos padrões de normalidade.",
		DataEmissao:  "10/08/2026 14:30",
	}
}

func TestBuildLaudoPDFSemAssinatura(t *testing.T) {
	raw, err := BuildLaudoPDF(doc(), nil)
	if err != nil {
		t.Fatalf("BuildLaudoPDF: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		t.Fatalf("saída não é PDF: %q", raw[:min(10, len(raw))])
	}
}

func TestBuildLaudoPDFComCarimbo(t *testing.T) {
	carimbo := &CarimboAssinatura{
		MetodoDescricao:   "Certificado digital A1",
		AssinadoEm:        "10/08/2026 15:00",
		PDFSHA256:         "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		VerificationToken: "abcdef0123456789abcdef0123456789",
		VerificationURL:   "http://localhost:5173/laudos/verificar/abcdef0123456789abcdef0123456789",
	}
	raw, err := BuildLaudoPDF(doc(), carimbo)
	if err != nil {
		t.Fatalf("BuildLaudoPDF com carimbo: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		t.Fatal("saída não é PDF")
	}
	semCarimbo, err := BuildLaudoPDF(doc(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) <= len(semCarimbo) {
		t.Fatal("carimbo (com QR) deve aumentar o documento")
	}
}

func TestDecodeDataURLImage(t *testing.T) {
	ext, data, ok := decodeDataURLImage("data:image/png;base64,iVBORw0KGgo=")
	if !ok || ext != "png" || len(data) == 0 {
		t.Fatalf("png data URL: ok=%v ext=%q", ok, ext)
	}
	if _, _, ok := decodeDataURLImage("http://example.com/img.png"); ok {
		t.Fatal("URL comum não é data URL")
	}
	if _, _, ok := decodeDataURLImage("data:image/gif;base64,R0lGOD=="); ok {
		t.Fatal("gif não é aceito")
	}
}
