package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/controller"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/middleware"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/router"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/memory"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/postgres"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/pos-payment-processor/src/internal/checktoken"
	"github.com/api-sage/pos-payment-processor/src/internal/config"
	"github.com/api-sage/pos-payment-processor/src/internal/events"
	"github.com/api-sage/pos-payment-processor/src/internal/events/kafka"
	"github.com/api-sage/pos-payment-processor/src/internal/seed"
	"github.com/api-sage/pos-payment-processor/src/internal/usecase/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := checktoken.NewCodec(cfg.CheckTokenSecret)
	if err != nil {
		log.Fatalf("build check token codec: %v", err)
	}

	var (
		accountRepo   repo_interfaces.AccountRepository
		checkRepo     repo_interfaces.CheckRepository
		operationRepo repo_interfaces.OperationRepository
	)

	if cfg.UseMemoryStore() {
		store := memory.NewStore()
		accountRepo = store.Accounts()
		checkRepo = store.Checks()
		operationRepo = store.Operations()
		log.Println("using in-memory ledger store")
	} else {
		startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := postgres.RunMigrations(startupCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
			log.Fatalf("run migrations: %v", err)
		}

		db, err := postgres.Open(startupCtx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer db.Close()

		accountRepo = postgres.NewAccountRepository(db)
		checkRepo = postgres.NewCheckRepository(db)
		operationRepo = postgres.NewOperationRepository(db)
	}

	seedCtx, cancelSeed := context.WithTimeout(ctx, 30*time.Second)
	defer cancelSeed()
	if err := seed.NewRunner(accountRepo, checkRepo, codec, cfg.BankOrganisation).Run(seedCtx); err != nil {
		log.Fatalf("seed startup data: %v", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	transactionService := services.NewTransactionService(
		accountRepo,
		checkRepo,
		operationRepo,
		codec,
		publisher,
		cfg.BankOrganisation,
		cfg.LedgerTimeout,
	)
	checkService := services.NewCheckService(checkRepo, codec)
	accountService := services.NewAccountService(accountRepo, operationRepo)

	mux := router.New(
		controller.NewPaymentController(transactionService),
		controller.NewCheckController(checkService),
		controller.NewAccountController(accountService),
		middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
