package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optical-franchise/internal/analysis"
	"optical-franchise/internal/applications"
	"optical-franchise/internal/appointments"
	"optical-franchise/internal/auth"
	"optical-franchise/internal/common/aws"
	"optical-franchise/internal/common/config"
	"optical-franchise/internal/common/database"
	apperrors "optical-franchise/internal/common/errors"
	httpclient "optical-franchise/internal/common/http"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/common/observability"
	"optical-franchise/internal/franchises"
	"optical-franchise/internal/inventory"
	"optical-franchise/internal/measurements"
	"optical-franchise/internal/notify"
	"optical-franchise/internal/plans"
	"optical-franchise/internal/products"
	"optical-franchise/internal/server"
	"optical-franchise/internal/tickets"
	"optical-franchise/internal/users"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("Starting franchise API...", map[string]interface{}{"environment": cfg.App.Environment})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("OpenTelemetry metrics disabled", map[string]interface{}{"error": err.Error()})
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	log.Info("PostgreSQL connected successfully", nil)

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.RunMigrations(pg, cfg.Database.Postgres.MigrationsPath); err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
		log.Info("Migrations applied", map[string]interface{}{"path": cfg.Database.Postgres.MigrationsPath})
	}

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("Redis connected successfully", nil)

	readyChecks := map[string]server.Pinger{
		"postgres": pg,
		"redis":    rdb,
	}

	// --- Elasticsearch (optional) ---
	var productIndex products.Index
	if cfg.Database.Elasticsearch.Enabled() {
		productIndex = connectProductIndex(ctx, cfg.Database.Elasticsearch, log, readyChecks)
	} else {
		log.Info("Elasticsearch not configured, product search uses PostgreSQL", nil)
	}

	// --- Notifications ---
	notifier := buildNotifier(ctx, cfg, log)

	// --- Analysis proxy ---
	analysisConfig := analysis.NewConfig(cfg.APIs.GenAI)
	var generator analysis.Generator
	if cfg.APIs.GenAI.Enabled() {
		outbound := httpclient.NewClient(analysisConfig.Timeout, log)
		gen, err := analysis.NewGenAIGenerator(ctx, analysisConfig, outbound.HTTPClient())
		if err != nil {
			log.Warn("GenAI client unavailable, analysis will use the fallback", map[string]interface{}{"error": err.Error()})
		} else {
			generator = gen
		}
	} else {
		log.Warn("GENAI_API_KEY not set, analysis will use the fallback", nil)
	}
	analyzer := analysis.NewAnalyzer(analysisConfig, generator, obs, log.WithFields(map[string]interface{}{"component": "analysis"}))

	// --- Services & handlers ---
	db := pg.DB
	errHandler := apperrors.NewErrorHandler(log)
	sessions := auth.NewStore(rdb.Client, cfg.Session.Duration())
	planCache := plans.NewActivePlanCache(rdb.Client, time.Duration(cfg.Cache.ActivePlanTTL)*time.Second, log)

	userService := users.NewService(users.NewRepository(db), sessions, log)

	handlers := server.Handlers{
		Auth:         auth.NewHandler(userService, sessions, cfg.Session, errHandler, log),
		Users:        users.NewHandler(userService, errHandler),
		Franchises:   franchises.NewHandler(franchises.NewService(franchises.NewRepository(db), notifier, log), errHandler),
		Plans:        plans.NewHandler(plans.NewService(plans.NewRepository(db), planCache, log), errHandler),
		Appointments: appointments.NewHandler(appointments.NewService(appointments.NewRepository(db), notifier, log), errHandler),
		Measurements: measurements.NewHandler(measurements.NewService(measurements.NewRepository(db), analyzer, log), errHandler),
		Products:     products.NewHandler(products.NewService(products.NewRepository(db), productIndex, log), errHandler),
		Inventory:    inventory.NewHandler(inventory.NewService(inventory.NewRepository(db), log), errHandler),
		Applications: applications.NewHandler(applications.NewService(applications.NewRepository(db), notifier, log), errHandler),
		Tickets:      tickets.NewHandler(tickets.NewService(tickets.NewRepository(db), log), errHandler),
	}

	srv := server.New(server.Options{
		Config:       cfg,
		Logger:       log,
		ErrorHandler: errHandler,
		Sessions:     sessions,
		Handlers:     handlers,
		ReadyChecks:  readyChecks,
	})

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, draining requests...", nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("HTTP server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("Franchise API stopped gracefully", nil)
}

// connectProductIndex returns nil when the cluster cannot be reached so the
// catalog keeps working on PostgreSQL.
func connectProductIndex(ctx context.Context, cfg config.ElasticsearchConfig, log logger.Logger, checks map[string]server.Pinger) products.Index {
	var es *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 5, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		log.Warn("Elasticsearch unavailable, product search uses PostgreSQL", map[string]interface{}{"error": err.Error()})
		return nil
	}

	created, err := es.EnsureIndex(ctx, cfg.ProductIndex, products.IndexMapping)
	if err != nil {
		log.Warn("Product index check failed", map[string]interface{}{"error": err.Error(), "index": cfg.ProductIndex})
	} else if created {
		log.Info("Product index created", map[string]interface{}{"index": cfg.ProductIndex})
	}

	checks["elasticsearch"] = es
	log.Info("Elasticsearch connected successfully", nil)
	return products.NewElasticIndex(es.Client, cfg.ProductIndex)
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) *notify.Notifier {
	awsCfg := cfg.Integrations.AWS
	notifyConfig := &notify.Config{
		EmailEnabled: awsCfg.SES.Enabled,
		SMSEnabled:   awsCfg.SNS.Enabled,
		FromEmail:    awsCfg.SES.FromEmail,
		SMSSenderID:  awsCfg.SNS.DefaultSMSSenderID,
	}

	var sesClient notify.SESService
	var snsClient notify.SNSService
	if awsCfg.SES.Enabled || awsCfg.SNS.Enabled {
		clients, err := aws.NewClients(ctx, awsCfg.Region)
		if err != nil {
			log.Warn("AWS clients unavailable, notifications disabled", map[string]interface{}{"error": err.Error()})
			notifyConfig.EmailEnabled = false
			notifyConfig.SMSEnabled = false
		} else {
			if awsCfg.SES.Enabled {
				sesClient = clients.SES
			}
			if awsCfg.SNS.Enabled {
				snsClient = clients.SNS
			}
		}
	}

	return notify.New(notifyConfig, sesClient, snsClient, log)
}
