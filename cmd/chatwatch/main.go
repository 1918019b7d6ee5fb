// chatwatch follows one conversation from the terminal. It logs in, optionally
// sends a message, then prints every new message the sync loop picks up until
// interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-intake/internal/chatsync"
	"github.com/spec-kit/legal-intake/internal/client"
	"github.com/spec-kit/legal-intake/internal/config"
	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		baseURL  string
		email    string
		password string
		clientID string
		message  string
		logLevel string
		interval time.Duration
		timeout  time.Duration
		limit    int
	)

	flagSet := pflag.NewFlagSet("chatwatch", pflag.ContinueOnError)
	flagSet.StringVar(&baseURL, "base-url", "http://localhost:8080", "intake API base URL")
	flagSet.StringVar(&email, "email", os.Getenv("CHATWATCH_EMAIL"), "account email")
	flagSet.StringVar(&password, "password", os.Getenv("CHATWATCH_PASSWORD"), "account password")
	flagSet.StringVar(&clientID, "client", "", "conversation to follow (required for admins)")
	flagSet.StringVar(&message, "send", "", "send this message before following")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level")
	flagSet.DurationVar(&interval, "interval", 5*time.Second, "poll interval")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	flagSet.IntVar(&limit, "limit", 50, "messages per page")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if email == "" || password == "" {
		return errors.New("--email and --password are required")
	}

	logger, err := observability.NewLogger(config.LoggerConfig{Level: logLevel})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := client.New(baseURL, timeout)
	session, err := api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	logger.Info("logged in", zap.String("user", session.User.ID), zap.String("role", string(session.User.Role)))

	loop := chatsync.New(api.Fetcher(clientID), chatsync.Config{
		Interval:     interval,
		FetchTimeout: timeout,
		PageLimit:    limit,
		Logger:       logger,
		OnChange: func(added []domain.Message) {
			for _, m := range added {
				printMessage(m)
			}
		},
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "disconnected: %v\n", err)
		},
	})

	if message != "" {
		if _, err := api.SendMessage(ctx, clientID, message); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	err = loop.Run(ctx)
	loop.Stop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printMessage(m domain.Message) {
	who := "client"
	if m.FromAdmin {
		who = "lawyer"
	}
	fmt.Printf("#%d %s [%s] %s\n", m.Position, m.CreatedAt.Local().Format("15:04:05"), who, m.Body)
}
