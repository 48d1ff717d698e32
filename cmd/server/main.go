// Package main is the entry point for the portfolio analytics and
// trading-signal platform: a single HTTP service that collects market data,
// runs quantitative analytics (correlation, mean-variance optimization,
// risk), generates technical trading signals, and layers behavioral-bias
// guidance and allocation tracking on top.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nuniesmith/fks-portfolio-go/internal/allocation"
	"github.com/nuniesmith/fks-portfolio-go/internal/config"
	"github.com/nuniesmith/fks-portfolio-go/internal/database"
	"github.com/nuniesmith/fks-portfolio-go/internal/guidance"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata/adapters"
	"github.com/nuniesmith/fks-portfolio-go/internal/quant"
	"github.com/nuniesmith/fks-portfolio-go/internal/scheduler"
	"github.com/nuniesmith/fks-portfolio-go/internal/server"
	"github.com/nuniesmith/fks-portfolio-go/internal/signals"
	"github.com/nuniesmith/fks-portfolio-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)
	log.Info().Msg("starting portfolio platform")

	db, err := database.New(database.Config{
		Path:    fmt.Sprintf("%s/portfolio.db", cfg.DataDir),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	cache := marketdata.NewCache(fmt.Sprintf("%s/cache", cfg.DataDir), log)
	store := marketdata.NewStore(db)

	adapterList := []marketdata.Adapter{
		adapters.NewBinance(),
		adapters.NewCoinGecko(cfg.CoinGeckoAPIKey),
		adapters.NewYahooFinance(),
	}
	if cfg.CoinMarketCapAPIKey != "" {
		adapterList = append(adapterList, adapters.NewCoinMarketCap(cfg.CoinMarketCapAPIKey))
	}
	if cfg.AlphaVantageAPIKey != "" {
		adapterList = append(adapterList, adapters.NewAlphaVantage(cfg.AlphaVantageAPIKey))
	}
	if cfg.PolygonAPIKey != "" {
		adapterList = append(adapterList, adapters.NewPolygon(cfg.PolygonAPIKey))
	}

	router := marketdata.NewRouter(cache, store, adapterList, log)
	if cfg.CoinGeckoAPIKey == "" {
		// The CoinGecko free tier is considerably tighter than the
		// platform's shared default.
		router.RegisterRateLimit("coingecko", 0.5, 2)
	}
	if cfg.AlphaVantageAPIKey != "" {
		// Alpha Vantage's free-tier key is limited to 5 requests/minute.
		router.RegisterRateLimit("alphavantage", 5.0/60.0, 2)
	}

	assets, err := marketdata.NewAssetConfigManager(fmt.Sprintf("%s/assets.json", cfg.DataDir))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load asset configuration")
	}

	collector := marketdata.NewCollector(router, assets, log)
	btc := marketdata.NewBTCConverter(router)
	correlation := quant.NewCorrelation(router)
	optimizer := quant.NewMeanVarianceOptimizer()

	signalEngine := signals.NewEngine(router, log)

	var s3Client *s3.Client
	if cfg.SignalsS3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("failed to load AWS config, disabling signal S3 backup")
		} else {
			s3Client = s3.NewFromConfig(awsCfg)
		}
	}
	signalStore, err := signals.NewStore(cfg.SignalsDir, s3Client, cfg.SignalsS3Bucket, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize signal store")
	}

	biasDetector := guidance.NewBiasDetector()
	guidanceSupport := guidance.NewSupport(biasDetector)
	allocationTracker := allocation.NewTracker(1 * time.Hour)

	maint := scheduler.New(db, cache, log)
	maint.Start()
	defer maint.Stop()

	collector.Start(cfg.CollectionIntervalSeconds)

	srv := server.New(server.Config{
		Log:     log,
		Config:  cfg,
		DB:      db,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,

		Router:       router,
		Collector:    collector,
		Assets:       assets,
		BTC:          btc,
		Correlation:  correlation,
		Optimizer:    optimizer,
		SignalEngine: signalEngine,
		SignalStore:  signalStore,
		BiasDetector: biasDetector,
		Guidance:     guidanceSupport,
		Allocation:   allocationTracker,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("stopped")
}
