package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"mcq-studio/internal/app"
	"mcq-studio/internal/config"
	"mcq-studio/internal/infra/memory"
	redisstore "mcq-studio/internal/infra/redis"
	transport "mcq-studio/internal/transport/http"
	"mcq-studio/internal/workbook"
)

// NewServeCmd builds the CLI subcommand to start the HTTP server.
func NewServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the quiz HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

func runServer(ctx context.Context, opts *rootOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	service, closeStores, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	server := &http.Server{
		Addr: ":" + port,
		Handler: transport.NewRouter(transport.RouterConfig{
			Service:        service,
			Logger:         log,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MaxUploadBytes: cfg.MaxUploadBytes(),
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting mcq studio")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newService picks Redis-backed stores when redis.addr is set and in-memory
// ones otherwise.
func newService(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app.QuizService, func(), error) {
	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Quiz.SessionTTL, 2*time.Hour)
	loader := workbook.NewLoader(newParser(cfg))

	if cfg.Redis.Addr == "" {
		log.Info().Msg("using in-memory session store")
		service := app.NewQuizService(
			memory.NewSessionStore(sessionTTL),
			memory.NewBankRepository(loader, bankTTL),
		)
		return service, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info().
		Str("addr", cfg.Redis.Addr).
		Int("db", cfg.Redis.DB).
		Msg("Redis connected")

	service := app.NewQuizService(
		redisstore.NewSessionStore(client, sessionTTL),
		redisstore.NewBankRepository(client, loader, bankTTL),
	)
	return service, func() { client.Close() }, nil
}
