package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/perchlabs/boothboard/internal/apiserver"
	"github.com/perchlabs/boothboard/internal/apiserver/handler"
	"github.com/perchlabs/boothboard/internal/auth/jwt"
	"github.com/perchlabs/boothboard/internal/common/config"
	"github.com/perchlabs/boothboard/internal/dashboard"
	"github.com/perchlabs/boothboard/internal/directory"
	"github.com/perchlabs/boothboard/internal/refresh"
	"github.com/perchlabs/boothboard/internal/sheets"
	"github.com/perchlabs/boothboard/pkg/logger"
	"github.com/perchlabs/boothboard/pkg/metrics"
	"github.com/perchlabs/boothboard/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of boothboard",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("boothboard version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "boothboard",
		Short: "Booth occupancy dashboard",
		Long:  `Boothboard serves multi-tenant booth occupancy dashboards backed by CSV identity tables and an external worksheet source`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "boothboard.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig[config.BoothboardConfig](configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	zapLogger.Info("starting boothboard",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	// A deployment still running on the example secret protects nothing.
	if cfg.HasPlaceholderSecret() {
		if gin.Mode() == gin.ReleaseMode {
			zapLogger.Fatal("session secret is still the documented placeholder; generate a per-deployment secret before serving")
		}
		zapLogger.Warn("session secret is still the documented placeholder; do not deploy like this")
	}

	jwtService, err := jwt.NewService(jwt.Config{SecretKey: cfg.JWT.SecretKey, Duration: cfg.JWT.Duration})
	if err != nil {
		zapLogger.Fatal("failed to initialize session tokens", zap.Error(err))
	}

	store, err := directory.NewStore(cfg.Tables, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to load identity and directory tables", zap.Error(err))
	}

	m := metrics.New(cfg.Metrics)
	store.ReloadHook = func(err error) {
		if err != nil {
			m.TableReload("error")
			return
		}
		m.TableReload("ok")
	}
	if err := store.StartAutoReload(); err != nil {
		zapLogger.Fatal("failed to schedule table reloads", zap.Error(err))
	}
	defer store.StopAutoReload()

	source, cache, err := buildSource(cfg, m, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize worksheet source", zap.Error(err))
	}

	composer := dashboard.NewComposer(store, source, zapLogger)

	// Warm the worksheet cache while someone is watching; an idle
	// deployment stops polling the external source.
	activity := refresh.NewActivity(2 * cfg.Server.RefreshInterval)
	scheduler := refresh.NewScheduler(activity.Visible, func() {
		warmCache(store, source, zapLogger)
	}, zapLogger)
	scheduler.Start(cfg.Server.RefreshInterval)
	defer scheduler.Stop()

	h := handler.NewHandler(store, composer, jwtService, zapLogger, cfg.Server.RefreshInterval, activity.Touch)
	router := apiserver.NewRouter(h, jwtService, m, zapLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	zapLogger.Info("shutting down")
	if cache != nil {
		cache.Clear()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown error", zap.Error(err))
	}
}

// buildSource assembles the worksheet source chain: base implementation,
// retry with backoff, then the TTL cache.
func buildSource(cfg *config.BoothboardConfig, m *metrics.Metrics, zapLogger *zap.Logger) (sheets.Source, *sheets.CachedSource, error) {
	var base sheets.Source
	switch cfg.Sheets.Type {
	case "xlsx":
		if cfg.Sheets.Workbook == "" {
			return nil, nil, errors.New("sheets.workbook is required for the xlsx source")
		}
		base = sheets.NewXLSXSource(cfg.Sheets.Workbook)
	case "http":
		if cfg.Sheets.BaseURL == "" {
			return nil, nil, errors.New("sheets.base_url is required for the http source")
		}
		base = sheets.NewHTTPSource(cfg.Sheets.BaseURL, cfg.Sheets.Timeout)
	default:
		return nil, nil, fmt.Errorf("unsupported sheets source type %q", cfg.Sheets.Type)
	}

	base = instrumentedSource{next: base, metrics: m}
	retried := sheets.NewRetrySource(base, cfg.Sheets.RetryAttempts, zapLogger)
	cache := sheets.NewCachedSource(retried, cfg.Sheets.CacheTTL)
	cache.OnResult = m.CacheResult
	return cache, cache, nil
}

// instrumentedSource reports fetch outcomes and latency to Prometheus.
type instrumentedSource struct {
	next    sheets.Source
	metrics *metrics.Metrics
}

func (s instrumentedSource) Records(ctx context.Context, worksheet string) ([]sheets.Reading, error) {
	start := time.Now()
	readings, err := s.next.Records(ctx, worksheet)
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.SheetFetchDone(worksheet, status, start)
	return readings, err
}

// warmCache pre-fetches every booth's worksheet so the next page load hits
// the cache.
func warmCache(store *directory.Store, source sheets.Source, zapLogger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for _, entry := range store.Entries() {
		if _, err := source.Records(ctx, sheets.Key(entry.Location, entry.Booth)); err != nil {
			zapLogger.Debug("cache warm-up fetch failed",
				zap.String("location", entry.Location),
				zap.String("booth", entry.Booth),
				zap.Error(err))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
