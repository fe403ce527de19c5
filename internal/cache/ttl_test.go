package cache

import (
	"testing"
	"time"
)

func TestTTLSetGetExpire(t *testing.T) {
	c := New(50 * time.Millisecond)
	c.Set("k", []byte("v"))
	if string(c.Get("k")) != "v" {
		t.Fatal("valor recém gravado")
	}
	time.Sleep(80 * time.Millisecond)
	if c.Get("k") != nil {
		t.Fatal("valor deveria ter expirado")
	}
}

func TestTTLDeletePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("valores:a", []byte("1"))
	c.Set("valores:b", []byte("2"))
	c.Set("outro:c", []byte("3"))
	c.DeletePrefix("valores:")
	if c.Get("valores:a") != nil || c.Get("valores:b") != nil {
		t.Fatal("prefixo deveria ter sido removido")
	}
	if c.Get("outro:c") == nil {
		t.Fatal("outros prefixos ficam")
	}
}
