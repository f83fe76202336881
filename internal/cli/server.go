package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ordprov-service/internal/app"
	"ordprov-service/internal/bank"
	"ordprov-service/internal/config"
	"ordprov-service/internal/genai"
	"ordprov-service/internal/infra/memory"
	pgscores "ordprov-service/internal/infra/postgres"
	redisscores "ordprov-service/internal/infra/redis"
	transport "ordprov-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	questionBank, err := bank.Load(cfg.Bank.Path)
	if err != nil {
		return err
	}
	if questionBank.Len() == 0 {
		log.Printf("question bank %s is empty, run the ingest command first", cfg.Bank.Path)
	} else {
		log.Printf("loaded %d questions from %s", questionBank.Len(), cfg.Bank.Path)
	}

	var generator app.QuestionGenerator
	if cfg.OpenAI.APIKey != "" {
		generator = genai.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		log.Printf("no OpenAI API key configured, AI questions disabled")
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var scoreRepo app.ScoreRepository = memory.NewScoreRepository()
	if pool != nil {
		scoreRepo = pgscores.NewScoreRepository(pool)
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheTTL := config.TTLDuration(cfg.Leaderboard.CacheTTL, 5*time.Minute)
		scoreRepo = redisscores.NewLeaderboardCache(redisClient, scoreRepo, cacheTTL)
	}

	scores := app.NewScoreService(scoreRepo)
	games := app.NewGameService(app.NewModeSource(questionBank, generator))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewAPI(questionBank, generator, scores).Register(mux)
	mux.HandleFunc("/ws", transport.NewGameHandler(games, scores).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting ordprov service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
