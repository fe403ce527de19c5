package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	DatabaseURL       string
	DBMaxConns        int
	DBMinConns        int
	DBMaxConnLifetime time.Duration
	RequestTimeoutSec int
	JWTSecret         []byte
	CORSOrigins       []string
	// Chaves de criptografia de campo (AES-256-GCM), versionadas: "v1:<base64>,v2:<base64>"
	DataEncryptionKeys string
	CurrentDataKeyVer  string
	// Armazenamento local dos arquivos de laudo (PDF original e assinado)
	StorageDir string
	// Diretório com certificados A1 dos médicos (assinatura com certificado)
	CertificadosDir  string
	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPass         string
	SMTPFromName     string
	SMTPFromEmail    string
	AppPublicURL     string
	BackendPublicURL string
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		jwtSecret = "default-secret-min-32-chars-required!!"
	}
	cors := os.Getenv("CORS_ORIGINS")
	if cors == "" {
		cors = "http://localhost:5173"
	}
	var origins []string
	for _, o := range strings.Split(cors, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	return &Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 0),
		DBMinConns:         getEnvInt("DB_MIN_CONNS", 0),
		DBMaxConnLifetime:  time.Duration(getEnvInt("DB_MAX_CONN_LIFETIME_MIN", 0)) * time.Minute,
		RequestTimeoutSec:  getEnvInt("REQUEST_TIMEOUT_SEC", 30),
		JWTSecret:          []byte(jwtSecret),
		CORSOrigins:        origins,
		DataEncryptionKeys: getEnv("DATA_ENCRYPTION_KEYS", "v1:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
		CurrentDataKeyVer:  getEnv("CURRENT_DATA_KEY_VERSION", "v1"),
		StorageDir:         getEnv("STORAGE_DIR", "data/laudos"),
		CertificadosDir:    getEnv("CERTIFICADOS_DIR", "data/certificados"),
		SMTPHost:           getEnv("SMTP_HOST", "localhost"),
		SMTPPort:           getEnv("SMTP_PORT", "1025"),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		SMTPFromName:       getEnv("SMTP_FROM_NAME", "Laudo Saúde"),
		SMTPFromEmail:      getEnv("SMTP_FROM_EMAIL", "noreply@localhost"),
		AppPublicURL:       getEnv("APP_PUBLIC_URL", "http://localhost:5173"),
		BackendPublicURL:   getEnv("BACKEND_PUBLIC_URL", "http://localhost:8080"),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}
