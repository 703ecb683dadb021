package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/mindfoldhq/mindfold/internal/actions"
	"github.com/mindfoldhq/mindfold/internal/api/handlers"
	"github.com/mindfoldhq/mindfold/internal/config"
	"github.com/mindfoldhq/mindfold/internal/database"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/jobs"
	"github.com/mindfoldhq/mindfold/internal/openai"
	"github.com/mindfoldhq/mindfold/internal/repository"
	"github.com/mindfoldhq/mindfold/internal/server"
	"github.com/mindfoldhq/mindfold/internal/service"
	"github.com/mindfoldhq/mindfold/internal/storage"
	"github.com/mindfoldhq/mindfold/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the mindfold API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	ownerRepo := repository.NewOwnerRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	domainRepo := repository.NewDomainRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	routingLogRepo := repository.NewRoutingLogRepository(pool)
	actionRepo := repository.NewActionRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	if cfg.InitOwnerName != "" {
		if err := bootstrapInitialOwner(ctx, cfg, ownerRepo, apiKeyRepo); err != nil {
			return fmt.Errorf("failed to bootstrap initial owner: %w", err)
		}
	}

	var embeddingClient service.EmbeddingClient
	if cfg.HasOpenAI() {
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		log.Println("OPENAI_API_KEY not set: ingestion and routing will be unavailable")
		embeddingClient = &unconfiguredEmbedder{}
	}

	uuidGen := &service.DefaultUUIDGenerator{}

	knowledgeSvc := service.NewKnowledgeService(domainRepo, knowledgeRepo, txRunner, embeddingClient, cfg.EmbeddingTimeout)
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		knowledgeSvc = knowledgeSvc.WithAttachmentStore(s3Client)
	}

	routerSvc := service.NewRouterService(knowledgeRepo, routingLogRepo, embeddingClient, cfg.EmbeddingTimeout)
	authSvc := service.NewAuthService(ownerRepo, apiKeyRepo, uuidGen)

	registry, err := actions.NewDefaultRegistry(taskRepo, notificationRepo, knowledgeSvc, uuidGen)
	if err != nil {
		return fmt.Errorf("failed to build action registry: %w", err)
	}
	actionSvc := service.NewActionService(actionRepo, registry)

	var actionWorker *jobs.Worker
	if cfg.ActionPollInterval > 0 {
		processor := jobs.NewActionWorker(actionSvc, 0)
		actionWorker = jobs.NewWorker(processor, cfg.ActionPollInterval)
		go actionWorker.Start(ctx)
		log.Printf("action poll worker started (interval %v)", cfg.ActionPollInterval)
	}

	routerCfg := server.RouterConfig{
		AuthValidator:    authSvc,
		DomainHandler:    handlers.NewDomainHandler(knowledgeSvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc),
		RoutingHandler:   handlers.NewRoutingHandler(routerSvc),
		ActionHandler:    handlers.NewActionHandler(actionSvc),
		AuthHandler:      handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if actionWorker != nil {
		actionWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// unconfiguredEmbedder stands in when no embedding provider is set up.
// Every call fails with a transient error so callers get a 503 rather
// than a crash.
type unconfiguredEmbedder struct{}

func (e *unconfiguredEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func bootstrapInitialOwner(ctx context.Context, cfg *config.Config, ownerRepo *repository.OwnerRepository, apiKeyRepo *repository.APIKeyRepository) error {
	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(ownerRepo, apiKeyRepo, uuidGen)

	owner, err := ownerRepo.GetByName(ctx, cfg.InitOwnerName)
	if err != nil && err != domain.ErrOwnerNotFound {
		return fmt.Errorf("failed to check existing owner: %w", err)
	}

	if owner == nil {
		owner, err = authSvc.CreateOwner(ctx, cfg.InitOwnerName)
		if err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}
		log.Printf("bootstrap: created owner '%s' (id: %s)", owner.Name, owner.ID)
	} else {
		log.Printf("bootstrap: owner '%s' already exists (id: %s)", owner.Name, owner.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid MINDFOLD_INIT_API_KEY format (expected 'mfd_<64 hex chars>')")
		}

		if err := authSvc.CreateAPIKeyWithToken(ctx, owner.ID, "bootstrap", cfg.InitAPIKey); err != nil {
			if err == domain.ErrAPIKeyAlreadyExists {
				log.Println("bootstrap: API key already exists")
				return nil
			}
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Printf("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate drives a database/sql connection, not the pgx pool
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	}

	if upErr == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
