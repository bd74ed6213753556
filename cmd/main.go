package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"billdesk/internal/config"
	httpapi "billdesk/internal/http"
	"billdesk/internal/idempotency"
	"billdesk/internal/jobs"
	"billdesk/internal/metrics"
	"billdesk/internal/repository"
	"billdesk/internal/service"
	logx "billdesk/pkg/logger"

	_ "billdesk/docs"
)

type stores struct {
	products      repository.ProductRepository
	denominations repository.DenominationRepository
	purchases     repository.PurchaseRepository
	tx            repository.TxManager
	close         func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreMongo {
		m, err := repository.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return &stores{
			products:      m.Products(),
			denominations: m.Denominations(),
			purchases:     m.Purchases(),
			tx:            m.Tx(),
			close:         m.Close,
		}, nil
	}
	store := repository.NewMemoryStore()
	return &stores{
		products:      store,
		denominations: repository.NewMemoryDenominations(store),
		purchases:     repository.NewMemoryPurchases(store),
		tx:            repository.NewMemoryTx(store),
		close:         func(context.Context) error { return nil },
	}, nil
}

func idempotencyStore(ctx context.Context, cfg *config.Config) (idempotency.Store, func() error, error) {
	if !cfg.Redis.Enabled() {
		return idempotency.NewMemoryStore(cfg.IdempotencyTTL), func() error { return nil }, nil
	}
	client, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	return idempotency.NewRedisStore(client, cfg.IdempotencyTTL), client.Close, nil
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logx.Fatal().Err(err).Msg("config")
	}
	if cfg.Production() {
		logx.Init(logx.LoggerOpts{Environment: logx.Production})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logx.Init()
	}
	metrics.Init()

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	if cfg.SeedDemoData {
		if err := repository.Seed(ctx, st.products, st.denominations); err != nil {
			logx.Fatal().Err(err).Msg("seed demo data")
		}
	}
	idem, closeIdem, err := idempotencyStore(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("redis")
	}

	productsSvc := service.NewProductService(st.products)
	denominationsSvc := service.NewDenominationService(st.denominations)
	purchasesSvc := service.NewPurchaseService(st.purchases)
	billsSvc := service.NewBillService(st.products, st.denominations, st.purchases, st.tx, service.BillOptions{
		RejectUnderpayment: cfg.Billing.RejectUnderpayment,
		Idempotency:        idem,
	})

	srv := httpapi.NewServer(productsSvc, denominationsSvc, billsSvc, purchasesSvc, httpapi.Options{
		CORSOrigins: cfg.CORSOrigins,
	})

	scheduler, err := jobs.NewInventoryReporter(st.denominations).Start(cfg.InventoryReportInterval)
	if err != nil {
		logx.Fatal().Err(err).Msg("scheduler")
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		logx.Info().Str("addr", httpServer.Addr).Str("store", cfg.StoreDriver).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	scheduler.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("shutdown error")
	}
	if err := closeIdem(); err != nil {
		logx.Error().Err(err).Msg("redis close")
	}
	if err := st.close(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("store close")
	}
}
