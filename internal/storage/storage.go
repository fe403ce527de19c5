// Package storage guarda os bytes dos PDFs de laudo. O domínio só conhece
// chaves opacas; trocar o backend (disco local, S3) não toca o resto.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ObjectStore interface {
	Put(ctx context.Context, data []byte, keyHint string) (key string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Filesystem é o backend padrão: um diretório local, uma chave = um arquivo.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &Filesystem{root: root}, nil
}

func (f *Filesystem) Put(ctx context.Context, data []byte, keyHint string) (string, error) {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	key := sanitize(keyHint) + "-" + hex.EncodeToString(suffix) + ".pdf"
	if err := os.WriteFile(filepath.Join(f.root, key), data, 0o640); err != nil {
		return "", err
	}
	return key, nil
}

func (f *Filesystem) Get(ctx context.Context, key string) ([]byte, error) {
	clean := filepath.Base(key) // chave nunca navega fora do root
	return os.ReadFile(filepath.Join(f.root, clean))
}

func (f *Filesystem) Delete(ctx context.Context, key string) error {
	clean := filepath.Base(key)
	err := os.Remove(filepath.Join(f.root, clean))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func sanitize(hint string) string {
	hint = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, hint)
	if hint == "" {
		hint = "laudo"
	}
	return hint
}
