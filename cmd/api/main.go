package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/config"
	"github.com/garayn/garayn-backend/internal/audit"
	"github.com/garayn/garayn-backend/internal/auth"
	authhttp "github.com/garayn/garayn-backend/internal/auth/http"
	"github.com/garayn/garayn-backend/internal/bootstrap"
	"github.com/garayn/garayn-backend/internal/contact"
	projecthttp "github.com/garayn/garayn-backend/internal/projects/http"
	"github.com/garayn/garayn-backend/internal/projects/repository"
	"github.com/garayn/garayn-backend/internal/ratelimit"
	"github.com/garayn/garayn-backend/internal/session"
	"github.com/garayn/garayn-backend/internal/store"
	"github.com/garayn/garayn-backend/internal/uploads"
	"github.com/garayn/garayn-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	fb, err := bootstrap.InitFirebase(ctx, bootstrap.FirebaseOptions{
		CredentialsPath: cfg.Firebase.CredentialsPath,
		ProjectID:       cfg.Firebase.ProjectID,
		StorageBucket:   cfg.Firebase.StorageBucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("firebase initialization failed")
	}

	st := store.NewFirestoreStore(fb.Firestore)
	defer st.Close()

	limiter := ratelimit.New(newCounterStore(cfg, log))

	userRepo := users.NewRepo(st)
	recorder := audit.NewRecorder(st, log)

	tokens := auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cfg.Auth.RefreshInterval)
	guard := auth.NewGuard(tokens, userRepo)

	authService := auth.NewService(
		auth.NewIdentityClient(cfg.Firebase.APIKey),
		userRepo,
		tokens,
		limiter,
		recorder,
		fb.Auth,
		auth.LogMailer{Log: log},
		log,
	)

	var cleaner repository.ImageCleaner = uploads.NopCleaner{}
	if fb.Bucket != nil {
		cleaner = uploads.NewCleaner(uploads.NewBucketRemover(fb.Bucket))
	}

	projectRepo := repository.New(st, cleaner, log)

	var uploader uploads.Uploader = uploads.Disabled{}
	if cfg.Cloudinary.URL != "" {
		uploader, err = uploads.NewCloudinaryUploader(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		if err != nil {
			log.Fatal().Err(err).Msg("cloudinary initialization failed")
		}
	} else {
		log.Warn().Msg("CLOUDINARY_URL not set, image uploads disabled")
	}

	janitor := session.NewJanitor(st, log)
	if err := janitor.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start session janitor")
	}
	defer janitor.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "garayn-backend",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.App.CORSOrigins,
		Store:       st,
		Guard:       guard,
		Limiter:     limiter,
		Auth:        authhttp.NewHandler(authService, tokens, guard),
		Projects:    projecthttp.NewHandler(projectRepo, uploads.NewURLValidator(), log),
		Uploads:     uploads.NewHandler(uploader, recorder, log),
		Contact:     contact.NewHandler(st, log),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.App.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = zerolog.ConsoleWriter{Out: os.Stdout}
	if cfg.App.Environment == "production" {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newCounterStore(cfg *config.Config, log zerolog.Logger) ratelimit.CounterStore {
	if cfg.Redis.Addr == "" {
		return ratelimit.NewMemoryCounterStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, falling back to in-memory rate limiting")
		return ratelimit.NewMemoryCounterStore()
	}

	log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiting backed by redis")
	return ratelimit.NewRedisCounterStore(client)
}
