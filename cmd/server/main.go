package main

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/studiofoundry/intake/internal/api"
	"github.com/studiofoundry/intake/internal/catalog"
	"github.com/studiofoundry/intake/internal/config"
	"github.com/studiofoundry/intake/internal/middleware"
	"github.com/studiofoundry/intake/internal/relay"
	"github.com/studiofoundry/intake/internal/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg)

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load question catalog")
	}
	logger.Info().Int("questions", cat.Len()).Msg("catalog loaded")

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	session := middleware.NewSessionAuth(cfg.JWTSecret, cfg.Production())
	authSvc := services.NewAuthService(store, session.SignToken)
	if err := authSvc.SeedOperator(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("seed operator")
	}

	formSvc := services.NewFormService(store, cfg.BaseURL, cfg.FormTTL, logger.With().Str("component", "forms").Logger())

	var emailRelay services.EmailRelay
	if cfg.RelayAccessKey != "" {
		emailRelay = relay.New(cfg.RelayEndpoint, cfg.RelayAccessKey, logger.With().Str("component", "relay").Logger())
	} else {
		logger.Warn().Msg("INTAKE_RELAY_ACCESS_KEY unset, submissions will only be logged")
		emailRelay = relay.NewLogOnly(logger.With().Str("component", "relay").Logger())
	}
	subSvc := services.NewSubmissionService(store, emailRelay, logger.With().Str("component", "submissions").Logger())

	mux := http.NewServeMux()
	api.NewRouter(cat, session, authSvc, formSvc, subSvc, logger.With().Str("component", "api").Logger()).Register(mux)

	commit := os.Getenv("INTAKE_COMMIT")
	buildTime := os.Getenv("INTAKE_BUILD_TIME")
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Intake API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Frontend serving strategy (priority):
	// 1) Static files if INTAKE_STATIC_DIR is set (fullstack image)
	// 2) Dev proxy if INTAKE_DEV_FRONTEND_URL is set
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	} else if cfg.DevFrontendURL != "" {
		if u, err := url.Parse(cfg.DevFrontendURL); err == nil {
			mux.Handle("/", httputil.NewSingleHostReverseProxy(u))
		} else {
			logger.Error().Err(err).Str("url", cfg.DevFrontendURL).Msg("invalid INTAKE_DEV_FRONTEND_URL")
		}
	}

	handler := middleware.RequestLogger(logger)(
		middleware.CORS(middleware.SecureHeaders(middleware.NoStoreAPI(mux))))

	logger.Info().Str("addr", cfg.Addr).Msg("intake server listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if !cfg.Production() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}
