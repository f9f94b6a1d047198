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
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/cloudlark/slackbase/internal/api/handlers"
	"github.com/cloudlark/slackbase/internal/config"
	"github.com/cloudlark/slackbase/internal/database"
	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/cloudlark/slackbase/internal/jobs"
	"github.com/cloudlark/slackbase/internal/openai"
	"github.com/cloudlark/slackbase/internal/repository"
	"github.com/cloudlark/slackbase/internal/server"
	"github.com/cloudlark/slackbase/internal/service"
	"github.com/cloudlark/slackbase/internal/slackbot"
	"github.com/cloudlark/slackbase/internal/storage"
	"github.com/cloudlark/slackbase/internal/telemetry"
)

// embeddingProvider is the full embedding surface the daemon wires up: single
// and batch generation plus the provider's vector width.
type embeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the daemon",
		Long:  "Start the slackbase daemon: the Slack listener, the re-embed worker and the HTTP read API",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
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

	// The schema's vector columns are a fixed width; refuse to start with a
	// provider that produces anything else.
	if cfg.EmbeddingDimensions != domain.EmbeddingDimensions {
		return fmt.Errorf("embedding dimensions %d do not match the schema's %d",
			cfg.EmbeddingDimensions, domain.EmbeddingDimensions)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	channelRepo := repository.NewChannelRepository(pool)
	threadRepo := repository.NewThreadRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	var embedder embeddingProvider
	if cfg.HasOpenAI() {
		embedder = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
		log.Println("using OpenAI embeddings")
	} else {
		embedder = openai.NewSimulatedClient(cfg.EmbeddingDimensions)
		log.Println("OPENAI_API_KEY not set, running in simulation mode without embeddings")
	}

	var archiver service.TranscriptArchiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	searchSvc := service.NewSearchService(channelRepo, threadRepo, embedder)

	var botErrCh chan error
	if cfg.HasSlack() {
		slackAPI := slack.New(cfg.SlackBotToken, slack.OptionAppLevelToken(cfg.SlackAppToken))
		conversations := slackbot.NewConversations(slackAPI)
		captureSvc := service.NewCaptureServiceWithArchiver(
			channelRepo, threadRepo, conversations, embedder, conversations, archiver,
		)
		bot := slackbot.New(slackAPI, captureSvc)

		botErrCh = make(chan error, 1)
		go func() {
			botErrCh <- bot.Run(ctx)
		}()
		log.Println("slack listener started")
	} else {
		log.Println("SLACK_BOT_TOKEN/SLACK_APP_TOKEN not set, slack listener disabled")
	}

	var reembedWorker *jobs.Worker
	if cfg.HasOpenAI() {
		reembedder := jobs.NewReembedder(channelRepo, threadRepo, embedder)
		reembedWorker = jobs.NewWorker(reembedder, cfg.ReembedInterval)
		go reembedWorker.Start(ctx)
		log.Println("re-embed worker started")
	}

	router := server.NewRouter(server.RouterConfig{
		SearchHandler:  handlers.NewSearchHandler(searchSvc),
		StatsHandler:   handlers.NewStatsHandler(statsRepo),
		ThreadHandler:  handlers.NewThreadHandler(threadRepo),
		ChannelHandler: handlers.NewChannelHandler(channelRepo),
	})

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
	select {
	case <-quit:
		log.Println("shutting down...")
	case err := <-botErrCh:
		if err != nil && err != context.Canceled {
			log.Printf("slack listener exited: %v", err)
		}
	}

	cancel()
	if reembedWorker != nil {
		reembedWorker.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
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

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: at version %d", version)
	}

	return nil
}
