package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/broadcast"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/game"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gamestore"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gateway"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// stores groups the repositories plus the content seeding surface that
// both backends provide.
type stores struct {
	games     game.GameRepository
	packs     game.PackageRepository
	questions game.QuestionRepository
	teams     game.TeamRepository

	savePackage  func(ctx context.Context, pkg *models.Package) error
	saveQuestion func(ctx context.Context, q *models.Question) error
	saveTeam     func(ctx context.Context, t *models.Team) error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup := setupStores(ctx)
	defer cleanup()

	if path := getEnv("CONTENT_FILE", ""); path != "" {
		if err := seedContent(ctx, st, path); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to seed content")
		}
	}

	broadcaster, svcConfig, closeBroadcaster := setupBroadcast()
	defer closeBroadcaster()

	manager := gateway.NewConnectionManager(svcConfig.ConnectionConfig)
	if broadcaster == nil {
		// Single-process mode: push snapshots straight to the pool.
		broadcaster = gateway.NewLocalBroadcaster(manager)
	}
	app := game.NewApp(st.games, st.packs, st.questions, st.teams, broadcaster, nil)

	svc, err := gateway.NewService(svcConfig, manager, app)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway service")
	}

	go func() {
		if err := svc.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	server := setupServer(svc)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()
	time.Sleep(1 * time.Second)
	log.Info().Msg("shutdown complete")
}

func setupStores(ctx context.Context) (*stores, func()) {
	switch getEnv("STORE", "memory") {
	case "postgres":
		dbCfg := NewDatabaseConfigFromEnv()
		pool, err := pgxpool.New(ctx, dbCfg.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		pg := gamestore.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		log.Info().Str("database", dbCfg.Database).Msg("using Postgres store")
		return &stores{
			games: pg, packs: pg, questions: pg, teams: pg,
			savePackage:  pg.SavePackage,
			saveQuestion: pg.SaveQuestion,
			saveTeam:     pg.SaveTeam,
		}, pool.Close

	default:
		mem := gamestore.NewMemory()
		log.Info().Msg("using in-memory store")
		return &stores{
			games: mem, packs: mem, questions: mem, teams: mem,
			savePackage:  mem.SavePackage,
			saveQuestion: mem.SaveQuestion,
			saveTeam:     mem.SaveTeam,
		}, func() {}
	}
}

func seedContent(ctx context.Context, st *stores, path string) error {
	content, err := loadContent(path)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, t := range content.TeamModels(now) {
		team := t
		if err := st.saveTeam(ctx, &team); err != nil {
			return err
		}
	}
	for _, p := range content.PackageModels() {
		pkg := p
		if err := st.savePackage(ctx, &pkg); err != nil {
			return err
		}
	}
	for _, q := range content.QuestionModels() {
		question := q
		if err := st.saveQuestion(ctx, &question); err != nil {
			return err
		}
	}
	log.Info().
		Int("teams", len(content.Teams)).
		Int("packages", len(content.Packages)).
		Int("questions", len(content.Questions)).
		Msg("content seeded")
	return nil
}

// setupBroadcast wires the snapshot fan-out: JetStream when NATS is
// enabled, otherwise nil so main falls back to the local broadcaster.
func setupBroadcast() (game.Broadcaster, gateway.Config, func()) {
	cfg := gateway.Config{ConnectionConfig: gateway.DefaultConnectionConfig()}
	if getEnv("NATS_ENABLED", "false") != "true" {
		return nil, cfg, func() {}
	}

	natsURL := getEnv("NATS_URL", "nats://localhost:4222")
	pubCfg := broadcast.DefaultJetStreamConfig()
	pubCfg.URL = natsURL
	publisher, err := broadcast.NewJetStreamPublisher(pubCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create JetStream publisher")
	}

	consCfg := gateway.DefaultJetStreamConsumerConfig()
	consCfg.URL = natsURL
	cfg.JetStream = &consCfg

	log.Info().Str("nats_url", natsURL).Msg("snapshot fan-out over JetStream")
	return publisher, cfg, func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close publisher")
		}
	}
}
