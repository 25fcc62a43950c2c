package app

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-loans/loans/config"
	"github.com/Astemirdum/library-loans/loans/internal/handler"
	"github.com/Astemirdum/library-loans/loans/internal/model"
	"github.com/Astemirdum/library-loans/loans/internal/repository"
	"github.com/Astemirdum/library-loans/loans/internal/server"
	"github.com/Astemirdum/library-loans/loans/internal/service"
	"github.com/Astemirdum/library-loans/loans/migrations"
	"github.com/Astemirdum/library-loans/pkg/kafka"
	"github.com/Astemirdum/library-loans/pkg/logger"
	"github.com/Astemirdum/library-loans/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "loans")
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	repo, db, err := newRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("repository init", zap.Error(err), zap.String("storage", cfg.Storage.Kind))
	}
	if db != nil {
		defer db.Close()
	}
	svc := service.NewService(repo, policy(cfg.Policy))

	var enqueuer handler.Enqueuer = handler.NopEnqueuer{}
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		defer func() {
			if err := producer.Close(); err != nil {
				log.Warn("producer.Close", zap.Error(err))
			}
		}()
		enqueuer = handler.NewEnqueuer(producer)

		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.LoansConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				log.Warn("consumer.Close", zap.Error(err))
			}
		}()
		g.Go(func() error {
			kafka.Consume(gctx, consumer, handler.NewConsumer(svc, log), log, kafka.BookStockTopic)
			return nil
		})
	} else {
		log.Info("kafka disabled, loan events are not published")
	}

	var opts []handler.Option
	if cfg.Auth.JWTKey != "" {
		opts = append(opts, handler.WithJWTKey([]byte(cfg.Auth.JWTKey)))
	}
	h := handler.New(svc, enqueuer, log, opts...)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	g.Go(func() error {
		return errors.Wrap(srv.Run(), "server run")
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	select {
	case termSig := <-sig:
		log.Debug("Graceful shutdown", zap.Any("signal", termSig))
	case <-gctx.Done():
		log.Error("Graceful shutdown, a worker stopped early")
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	cancel()
	if err = g.Wait(); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}

// newRepository returns the pool too when the store is postgres, the caller closes it.
func newRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Repository, *pgxpool.Pool, error) {
	switch cfg.Storage.Kind {
	case config.StoragePostgres:
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewRepository(db, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db, nil
	case config.StorageMemory:
		repo := repository.NewMemory()
		if cfg.Storage.SeedFile == "" {
			return repo, nil, nil
		}
		snap, err := readSeed(cfg.Storage.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Seed(snap); err != nil {
			return nil, nil, errors.Wrap(err, "seed")
		}
		log.Info("memory store seeded",
			zap.Int("books", len(snap.Books)),
			zap.Int("users", len(snap.Users)),
			zap.Int("loans", len(snap.Loans)))
		return repo, nil, nil
	default:
		return nil, nil, errors.Errorf("unknown storage %q", cfg.Storage.Kind)
	}
}

func readSeed(path string) (model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "read seed file")
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, errors.Wrap(err, "decode seed file")
	}
	return snap, nil
}

func policy(cfg config.Policy) service.Policy {
	return service.Policy{
		MaxActiveLoans:   cfg.MaxActiveLoans,
		LoanDurationDays: cfg.LoanDurationDays,
		FinePerDay:       cfg.FinePerDay,
		MaxExtensions:    cfg.MaxExtensions,
	}
}
