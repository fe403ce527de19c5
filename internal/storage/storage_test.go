package storage

import (
	"context"
	"strings"
	"testing"
)

func TestFilesystemPutGetDelete(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	ctx := context.Background()

	key, err := fs.Put(ctx, []byte("%PDF-1.4 conteudo"), "laudo-abc")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(key, "laudo-abc-") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("chave inesperada: %q", key)
	}

	raw, err := fs.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(raw) != "%PDF-1.4 conteudo" {
		t.Fatalf("conteúdo: %q", raw)
	}

	if err := fs.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Get(ctx, key); err == nil {
		t.Fatal("Get após Delete deve falhar")
	}
	// delete idempotente
	if err := fs.Delete(ctx, key); err != nil {
		t.Fatalf("Delete repetido: %v", err)
	}
}

func TestFilesystemChaveNaoNavega(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key, err := fs.Put(context.Background(), []byte("x"), "../../etc/passwd")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if strings.Contains(key, "/") {
		t.Fatalf("chave não pode conter separador: %q", key)
	}
}
