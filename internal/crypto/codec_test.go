package crypto

import (
	"errors"
	"strings"
	"testing"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec("v1:"+strings.Repeat("A", 43), "v1")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := testCodec(t)
	cipher, nonce, kv, err := c.EncryptString("dado sensível")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	if len(cipher) == 0 || len(nonce) == 0 || kv != "v1" {
		t.Fatal("cipher, nonce e versão devem vir preenchidos")
	}
	plain, err := c.DecryptString(cipher, nonce, kv)
	if err != nil {
		t.Fatalf("DecryptString: %v", err)
	}
	if plain != "dado sensível" {
		t.Fatalf("round trip: %q", plain)
	}
}

func TestEncryptStringVazia(t *testing.T) {
	c := testCodec(t)
	cipher, nonce, _, err := c.EncryptString("")
	if err != nil {
		t.Fatalf("EncryptString vazio: %v", err)
	}
	if cipher != nil || nonce != nil {
		t.Fatal("string vazia não deve ser cifrada")
	}
}

// Dado gravado em claro (migração incompleta) volta como está quando o nonce
// está vazio.
func TestDecryptToleraPlaintext(t *testing.T) {
	c := testCodec(t)
	plain, err := c.DecryptString([]byte("João da Silva"), nil, "v1")
	if err != nil {
		t.Fatalf("plaintext com nonce vazio deveria passar: %v", err)
	}
	if plain != "João da Silva" {
		t.Fatalf("plaintext: %q", plain)
	}
}

func TestDecryptCiphertextCorrompido(t *testing.T) {
	c := testCodec(t)
	cipher, nonce, kv, err := c.EncryptString("valor")
	if err != nil {
		t.Fatal(err)
	}
	cipher[0] ^= 0xFF
	if _, err := c.DecryptString(cipher, nonce, kv); !errors.Is(err, ErrDecoding) {
		t.Fatalf("esperava ErrDecoding, veio %v", err)
	}
}

func TestDecryptOrFallback(t *testing.T) {
	c := testCodec(t)
	got := c.DecryptOrFallback([]byte{0xFF, 0xFE, 0x01}, []byte("badnonce1234"), "v1", "Nome não disponível")
	if got != "Nome não disponível" {
		t.Fatalf("fallback: %q", got)
	}
}

func TestNewCodecVersaoAusente(t *testing.T) {
	if _, err := NewCodec("v1:"+strings.Repeat("A", 43), "v9"); err == nil {
		t.Fatal("versão corrente ausente deve falhar")
	}
}

func TestParseKeysEnvNormalizacao(t *testing.T) {
	// 43 chars sem padding
	m, err := ParseKeysEnv("v1:" + strings.Repeat("A", 43))
	if err != nil || len(m["v1"]) != 32 {
		t.Fatalf("43 chars: %v len=%d", err, len(m["v1"]))
	}
	// formato antigo de 44 chars com "=" no fim também funciona
	m, err = ParseKeysEnv("v1:" + strings.Repeat("A", 43) + "=")
	if err != nil || len(m["v1"]) != 32 {
		t.Fatalf("44 chars com padding: %v len=%d", err, len(m["v1"]))
	}
	// múltiplas versões
	m, err = ParseKeysEnv("v1:" + strings.Repeat("A", 43) + ",v2:" + strings.Repeat("B", 43))
	if err != nil || len(m) != 2 {
		t.Fatalf("múltiplas versões: %v len=%d", err, len(m))
	}
}

func TestSHA256Hex(t *testing.T) {
	h := SHA256Hex([]byte("abc"))
	if h != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("sha256: %s", h)
	}
}
