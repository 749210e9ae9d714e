package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"narrate-backend/internal/artifacts"
	googleauth "narrate-backend/internal/auth"
	"narrate-backend/internal/documents"
	"narrate-backend/internal/entitlements"
	"narrate-backend/internal/llm"
	openai "narrate-backend/internal/llm/openai"
	"narrate-backend/internal/pipeline"
	"narrate-backend/internal/services/health"
	"narrate-backend/internal/shared/config"
	"narrate-backend/internal/shared/server"
	"narrate-backend/internal/shared/storage/db"
	"narrate-backend/internal/shared/storage/object"
	localstore "narrate-backend/internal/shared/storage/object/local"
	s3store "narrate-backend/internal/shared/storage/object/s3"
	"narrate-backend/internal/tts"
	googletts "narrate-backend/internal/tts/google"
	"narrate-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sql.DB
	Store               object.ObjectStore
	Artifacts           *artifacts.Store
	DocumentsRepo       documents.Repo
	UsersRepo           users.Repo
	DocumentsService    *documents.Service
	EntitlementsService *entitlements.Service
	UsersService        *users.Service
	Orchestrator        *pipeline.Orchestrator
	DocumentsHandler    *documents.Handler
	GenerateHandler     *pipeline.Handler
	EntitlementsHandler *entitlements.Handler
	UsersHandler        *users.Handler
	GoogleAuth          *googleauth.GoogleService
	Health              *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		DocumentHandler:    app.DocumentsHandler,
		GenerateHandler:    app.GenerateHandler,
		EntitlementHandler: app.EntitlementsHandler,
		UserHandler:        app.UsersHandler,
		GoogleAuth:         app.GoogleAuth,
		Health:             app.Health,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMBaseURL, cfg.LLMModel)
		if err != nil {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: llm client unavailable; using placeholder: %v", err)
				return llm.PlaceholderClient{}, nil
			}
			return nil, err
		}
		return client, nil
	default:
		log.Printf("bootstrap: LLM_PROVIDER=%q; explanation generation disabled", cfg.LLMProvider)
		return llm.PlaceholderClient{}, nil
	}
}

func buildTTS(cfg config.Config) (tts.Synthesizer, error) {
	switch cfg.TTSProvider {
	case "google":
		client, err := googletts.NewClient(os.Getenv("GOOGLE_TTS_API_KEY"), os.Getenv("GOOGLE_TTS_BASE_URL"))
		if err != nil {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: tts client unavailable; using placeholder: %v", err)
				return tts.PlaceholderSynthesizer{}, nil
			}
			return nil, err
		}
		return client, nil
	default:
		log.Printf("bootstrap: TTS_PROVIDER=%q; narration disabled", cfg.TTSProvider)
		return tts.PlaceholderSynthesizer{}, nil
	}
}

func buildServices(app *App) error {
	var docRepo documents.Repo
	var userRepo users.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	var entSvc *entitlements.Service
	if app.DB != nil {
		entSvc = entitlements.NewPostgresService(entitlements.NewPGStore(app.DB))
	} else {
		entSvc = entitlements.NewService()
	}

	llmClient, err := buildLLM(app.Config)
	if err != nil {
		return err
	}
	synthesizer, err := buildTTS(app.Config)
	if err != nil {
		return err
	}

	artifactStore := &artifacts.Store{Objects: app.Store, BaseURL: app.Config.AudioBaseURL}

	docSvc := &documents.Service{
		Store: app.Store,
		Repo:  docRepo,
		Gate:  entSvc,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	orchestrator := &pipeline.Orchestrator{
		Repo:      docRepo,
		LLM:       llmClient,
		TTS:       synthesizer,
		Artifacts: artifactStore,
		Workers:   app.Config.PipelineWorkers,
	}

	app.DocumentsRepo = docRepo
	app.UsersRepo = userRepo
	app.DocumentsService = docSvc
	app.EntitlementsService = entSvc
	app.UsersService = userSvc
	app.Artifacts = artifactStore
	app.Orchestrator = orchestrator
	app.DocumentsHandler = documents.NewHandler(docSvc, artifactStore)
	app.GenerateHandler = &pipeline.Handler{
		Orchestrator: orchestrator,
		Repo:         docRepo,
		Gate:         entSvc,
		Artifacts:    artifactStore,
		Users:        userSvc,
	}
	app.EntitlementsHandler = entitlements.NewHandler(entSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc
	app.Health = health.NewService()

	if app.DocumentsHandler == nil || app.GenerateHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
