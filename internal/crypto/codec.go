package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrDecoding indica ciphertext ilegível (chave errada, nonce corrompido ou
// dado gravado sem criptografia). O chamador decide o texto de fallback.
var ErrDecoding = errors.New("não foi possível decifrar o campo")

// Codec cifra e decifra campos sensíveis (AES-256-GCM) com chaves versionadas.
// A fronteira é explícita: decifra uma vez ao carregar o agregado, cifra uma
// vez ao persistir. Nunca por acesso a propriedade.
type Codec struct {
	keys    map[string][]byte
	current string
}

// NewCodec monta o codec a partir do env DATA_ENCRYPTION_KEYS
// ("v1:<base64>,v2:<base64>") e da versão corrente.
func NewCodec(keysEnv, currentVersion string) (*Codec, error) {
	keys, err := ParseKeysEnv(keysEnv)
	if err != nil {
		return nil, err
	}
	if currentVersion == "" {
		currentVersion = "v1"
	}
	if _, ok := keys[currentVersion]; !ok {
		return nil, fmt.Errorf("versão de chave corrente %q ausente em DATA_ENCRYPTION_KEYS", currentVersion)
	}
	return &Codec{keys: keys, current: currentVersion}, nil
}

// CurrentVersion retorna a versão de chave usada em novas escritas.
func (c *Codec) CurrentVersion() string { return c.current }

// EncryptString cifra plaintext com a chave corrente. String vazia não é
// cifrada (colunas nulas permanecem nulas).
func (c *Codec) EncryptString(plain string) (ciphertext, nonce []byte, keyVersion string, err error) {
	if plain == "" {
		return nil, nil, c.current, nil
	}
	gcm, err := c.gcm(c.current)
	if err != nil {
		return nil, nil, "", err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, "", err
	}
	return gcm.Seal(nil, nonce, []byte(plain), nil), nonce, c.current, nil
}

// DecryptString decifra um campo gravado. Tolera dado já em claro (migração
// incompleta gravou plaintext na coluna cifrada): se o nonce está vazio e o
// conteúdo é UTF-8 válido, devolve como está. Falha com ErrDecoding quando o
// GCM rejeita o ciphertext.
func (c *Codec) DecryptString(ciphertext, nonce []byte, keyVersion string) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}
	if len(nonce) == 0 {
		if utf8.Valid(ciphertext) {
			return string(ciphertext), nil
		}
		return "", ErrDecoding
	}
	gcm, err := c.gcm(keyVersion)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return string(plain), nil
}

// DecryptOrFallback decifra e, em caso de ErrDecoding, devolve fallback em vez
// de propagar (ex.: "Nome não disponível" em listagens).
func (c *Codec) DecryptOrFallback(ciphertext, nonce []byte, keyVersion, fallback string) string {
	plain, err := c.DecryptString(ciphertext, nonce, keyVersion)
	if err != nil {
		return fallback
	}
	return plain
}

func (c *Codec) gcm(keyVersion string) (cipher.AEAD, error) {
	key, ok := c.keys[keyVersion]
	if !ok {
		return nil, errors.New("key version not found")
	}
	if len(key) != 32 {
		return nil, errors.New("key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func ParseKeysEnv(env string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	if env == "" {
		return out, nil
	}
	for _, part := range strings.Split(env, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, ":")
		if idx <= 0 {
			continue
		}
		ver := strings.TrimSpace(part[:idx])
		b64 := strings.TrimSpace(part[idx+1:])
		// 44 chars com "=" no fim decodifica para 33 bytes e quebra; normaliza para 43 chars
		if len(b64) == 44 && strings.HasSuffix(b64, "=") {
			b64 = b64[:43]
		}
		var key []byte
		var err error
		if len(b64)%4 == 3 {
			// 43 chars em base64 = 32 bytes; sem padding usa RawStdEncoding
			key, err = base64.RawStdEncoding.DecodeString(b64)
		} else {
			switch len(b64) % 4 {
			case 2:
				b64 += "=="
			case 3:
				b64 += "="
			}
			key, err = base64.StdEncoding.DecodeString(b64)
		}
		if err != nil {
			return nil, err
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("key must be 32 bytes for AES-256 (got %d)", len(key))
		}
		out[ver] = key
	}
	return out, nil
}
