package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/laudosaude/backend/internal/api"
	"github.com/laudosaude/backend/internal/assinatura"
	"github.com/laudosaude/backend/internal/audit"
	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/cache"
	"github.com/laudosaude/backend/internal/config"
	"github.com/laudosaude/backend/internal/crypto"
	"github.com/laudosaude/backend/internal/email"
	"github.com/laudosaude/backend/internal/middleware"
	"github.com/laudosaude/backend/internal/migrate"
	"github.com/laudosaude/backend/internal/seed"
	"github.com/laudosaude/backend/internal/service"
	"github.com/laudosaude/backend/internal/storage"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") != "" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL é obrigatória")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("config postgres")
	}
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}
	if cfg.DBMinConns > 0 {
		poolConfig.MinConns = int32(cfg.DBMinConns)
	}
	if cfg.DBMaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão postgres")
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("ping postgres")
	}
	if err := migrate.Run(context.Background(), pool, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}
	if err := seed.Run(context.Background(), pool, log); err != nil {
		log.Warn().Err(err).Msg("seed (ignorado se já aplicado)")
	}

	codec, err := crypto.NewCodec(cfg.DataEncryptionKeys, cfg.CurrentDataKeyVer)
	if err != nil {
		log.Fatal().Err(err).Msg("chaves de criptografia de campo")
	}
	store, err := storage.NewFilesystem(cfg.StorageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("storage de laudos")
	}

	mailCfg := &email.Config{
		Host:     cfg.SMTPHost,
		Port:     email.PortFromString(cfg.SMTPPort),
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		FromName: cfg.SMTPFromName,
		FromAddr: cfg.SMTPFromEmail,
		Log:      log.With().Str("component", "email").Logger(),
	}
	mailCfg.LogConfigSummary()

	svc := service.New(pool, codec, store,
		assinatura.NewA1Provider(cfg.CertificadosDir),
		mailCfg,
		audit.NewRecorder(pool, log),
		log, cfg.AppPublicURL)

	h := &api.Handler{
		Pool:  pool,
		Cfg:   cfg,
		Svc:   svc,
		Cache: cache.New(30 * time.Second),
		Log:   log.With().Str("component", "api").Logger(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.Ready).Methods(http.MethodGet)

	// públicas
	r.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/laudos/verificar/{token}", h.VerificarLaudo).Methods(http.MethodGet)
	r.Handle("/api/errors/frontend",
		middleware.OptionalAuth(cfg.JWTSecret, http.HandlerFunc(h.IngestFrontendError))).Methods(http.MethodPost)

	// protegidas
	sec := r.PathPrefix("/api").Subrouter()
	sec.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))

	sec.HandleFunc("/exames", h.CriarExame).Methods(http.MethodPost)
	sec.HandleFunc("/exames/{exameId}", h.BuscarExame).Methods(http.MethodGet)
	sec.HandleFunc("/exames/{exameId}/laudos", h.CriarLaudo).Methods(http.MethodPost)

	sec.HandleFunc("/laudos", h.ListarLaudos).Methods(http.MethodGet)
	sec.HandleFunc("/laudos/{laudoId}", h.BuscarLaudo).Methods(http.MethodGet)
	sec.HandleFunc("/laudos/{laudoId}/refazer", h.RefazerLaudo).Methods(http.MethodPost)
	sec.HandleFunc("/laudos/{laudoId}/assinar", h.AssinarLaudo).Methods(http.MethodPost)
	sec.HandleFunc("/laudos/{laudoId}/assinado/upload", h.UploadAssinado).Methods(http.MethodPost)
	sec.HandleFunc("/laudos/{laudoId}/envio-email", h.EnvioEmail).Methods(http.MethodPost)
	sec.HandleFunc("/laudos/{laudoId}/historico", h.HistoricoLaudo).Methods(http.MethodGet)
	sec.HandleFunc("/laudos/{laudoId}/pdf", h.LaudoPDF).Methods(http.MethodGet)

	adminOnly := middleware.RequireRole(auth.RoleAdmin, auth.RoleAdminMaster)
	sec.Handle("/laudos/{laudoId}/invalidar", adminOnly(http.HandlerFunc(h.InvalidarLaudo))).Methods(http.MethodPost)
	sec.Handle("/pagamentos", adminOnly(http.HandlerFunc(h.RegistrarPagamento))).Methods(http.MethodPost)
	sec.Handle("/pagamentos/{pagamentoId}/cancelar", adminOnly(http.HandlerFunc(h.CancelarPagamento))).Methods(http.MethodPost)
	sec.Handle("/valores", adminOnly(http.HandlerFunc(h.CriarValor))).Methods(http.MethodPost)
	sec.Handle("/valores/{valorId}", adminOnly(http.HandlerFunc(h.AtualizarValor))).Methods(http.MethodPut)
	sec.Handle("/valores/{valorId}", adminOnly(http.HandlerFunc(h.RemoverValor))).Methods(http.MethodDelete)

	sec.HandleFunc("/pagamentos", h.ListarPagamentos).Methods(http.MethodGet)
	sec.HandleFunc("/pagamentos/{pagamentoId}", h.BuscarPagamento).Methods(http.MethodGet)
	sec.HandleFunc("/valores", h.ListarValores).Methods(http.MethodGet)

	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeoutSec))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Gzip)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("backend no ar")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("encerrando")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
