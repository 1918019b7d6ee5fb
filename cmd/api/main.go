package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/legal-intake/internal/api/http"
	"github.com/spec-kit/legal-intake/internal/api/http/handlers"
	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/cache"
	"github.com/spec-kit/legal-intake/internal/config"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/mail"
	"github.com/spec-kit/legal-intake/internal/observability"
	"github.com/spec-kit/legal-intake/internal/persistence"
	"github.com/spec-kit/legal-intake/internal/repository"
	"github.com/spec-kit/legal-intake/internal/repository/memory"
	"github.com/spec-kit/legal-intake/internal/service"
	"github.com/spec-kit/legal-intake/internal/verification"
	"github.com/spec-kit/legal-intake/internal/worker"
)

type stores struct {
	users    repository.UserRepository
	tickets  repository.TicketRepository
	history  repository.TicketHistoryRepository
	messages repository.MessageRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := newStores(pg)

	var summaries cache.SummaryCache = cache.NewLocal()
	if redis.Enabled() {
		summaries = cache.NewRedis(redis.Client, cfg.Redis.SummaryTTL)
	}

	verifier := verification.NewTurnstile(cfg.Verification.SecretKey, cfg.Verification.VerifyURL, cfg.Verification.Timeout, logger)
	if !verifier.Enabled() {
		logger.Warn("TURNSTILE_SECRET_KEY not provided; captcha checks are skipped")
	}

	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.Mail.SendGridAPIKey != "" {
		sender = mail.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	}
	mailQueue := worker.NewMailQueue(sender, 256, logger)
	if err := mailQueue.Start(ctx); err != nil {
		logger.Fatal("failed to start mail queue", zap.Error(err))
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse mail templates", zap.Error(err))
	}

	limits := service.PageLimits{Default: cfg.Chat.DefaultPageSize, Max: cfg.Chat.MaxPageSize}
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(cfg.Auth, repos.users, dispatcher)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.tickets,
		HistoryRepo: repos.history,
		Verifier:    verifier,
		Dispatcher:  dispatcher,
		Limits:      limits,
		Logger:      logger,
	})
	conversationService := service.NewConversationService(repos.messages, repos.users, summaries, logger)
	messageService := service.NewMessageService(service.MessageDependencies{
		MessageRepo: repos.messages,
		UserRepo:    repos.users,
		Invalidator: conversationService,
		Dispatcher:  dispatcher,
		Limits:      limits,
		Logger:      logger,
	})
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, renderer, mailQueue, logger, cfg.Mail))

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName: cfg.App.Name,
		Logger:  logger,
		Metrics: metrics,
		Middleware: httptransport.MiddlewareConfig{
			Timeout:        cfg.App.RequestTimeout(),
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
	}, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:              handlers.NewAuthHandler(authService),
		Tickets:           handlers.NewTicketsHandler(ticketService),
		Messages:          handlers.NewMessagesHandler(messageService, conversationService),
		AuthMiddleware:    auth.NewAuthMiddleware(authService),
		SubmissionLimiter: httptransport.SubmissionLimiter(cfg.RateLimit.TicketsPerMinute),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.Bool("postgres", pg.Enabled()), zap.Bool("redis", redis.Enabled()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := mailQueue.Stop(); err != nil {
		logger.Warn("mail queue shutdown", zap.Error(err))
	}
}

func newStores(pg *persistence.Postgres) stores {
	if !pg.Enabled() {
		return stores{
			users:    memory.NewUsers(),
			tickets:  memory.NewTickets(),
			history:  memory.NewHistory(),
			messages: memory.NewMessages(),
		}
	}
	pool := pg.PoolHandle()
	return stores{
		users:    repository.NewUserRepository(pool),
		tickets:  repository.NewTicketRepository(pool),
		history:  repository.NewTicketHistoryRepository(pool),
		messages: repository.NewMessageRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
