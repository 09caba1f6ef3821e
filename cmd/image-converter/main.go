package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	menuapi "github.com/aliskhannn/image-converter/internal/api/handlers/menu"
	settingsapi "github.com/aliskhannn/image-converter/internal/api/handlers/settings"
	"github.com/aliskhannn/image-converter/internal/api/router"
	"github.com/aliskhannn/image-converter/internal/api/server"
	"github.com/aliskhannn/image-converter/internal/config"
	"github.com/aliskhannn/image-converter/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-converter/internal/infra/kafka/producer"
	clickmsg "github.com/aliskhannn/image-converter/internal/kafka/handlers/click"
	settingsmsg "github.com/aliskhannn/image-converter/internal/kafka/handlers/settings"
	"github.com/aliskhannn/image-converter/internal/menu"
	"github.com/aliskhannn/image-converter/internal/model"
	"github.com/aliskhannn/image-converter/internal/processor"
	settingsrepo "github.com/aliskhannn/image-converter/internal/repository/settings"
	convertersvc "github.com/aliskhannn/image-converter/internal/service/converter"
	settingssvc "github.com/aliskhannn/image-converter/internal/service/settings"
	"github.com/aliskhannn/image-converter/internal/settings"
	"github.com/aliskhannn/image-converter/internal/storage/file"
	"github.com/aliskhannn/image-converter/internal/storage/minio"
	settingsstore "github.com/aliskhannn/image-converter/internal/storage/settings"
)

// settingsStore is the synchronized settings store shared by the cache and the settings form.
type settingsStore interface {
	Get(ctx context.Context, keys ...string) (model.Values, error)
	Set(ctx context.Context, v model.Values) error
	OnChange(fn func(model.Values))
}

// clickQueue hands validated clicks over for conversion.
type clickQueue interface {
	Enqueue(ctx context.Context, click model.Click) error
}

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Retry strategy for Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	var (
		wg        sync.WaitGroup
		db        *dbpg.DB
		producers []*producer.Producer
		consumers []*consumer.Consumer
		store     settingsStore
	)

	// Settings store: a watched YAML file, or PostgreSQL with a Kafka change feed.
	switch cfg.Settings.Backend {
	case config.SettingsBackendPostgres:
		opts := &dbpg.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}

		// Collect slave DSNs for replica connections.
		slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
		for _, s := range cfg.Database.Slaves {
			slaveDSNs = append(slaveDSNs, s.DSN())
		}

		var err error
		db, err = dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
		}

		repo := settingsrepo.NewRepository(db)

		if cfg.Kafka.Enabled() {
			feed := producer.New(cfg.Kafka.Brokers, cfg.Kafka.Settings, strategy)
			repo.SetPublisher(feed)
			producers = append(producers, feed)

			// Every instance needs every change, so each one reads the feed in its own group.
			topic := cfg.Kafka.Settings
			topic.GroupID = topic.GroupID + "-" + uuid.NewString()
			consumers = append(consumers, consumer.New(cfg.Kafka.Brokers, topic, strategy, settingsmsg.NewHandler(repo)))
		}

		store = repo
	default:
		fs, err := settingsstore.NewFileStore(cfg.Settings.Path)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to open settings file")
		}

		if err := fs.Watch(ctx, &wg); err != nil {
			zlog.Logger.Fatal().Err(err).Str("path", fs.Path()).Msg("failed to watch settings file")
		}

		store = fs
	}

	// Settings cache used by the dispatcher, refreshed on every change.
	cache := settings.NewCache()
	if err := cache.Load(ctx, store); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load settings")
	}

	// Conversion pipeline saving to a local directory or a MinIO bucket.
	imageProcessor := newProcessor(ctx, cfg)

	// Context menu and the dispatcher behind it.
	m := menu.New(cfg.Menu.Legacy)
	converter := convertersvc.NewService(m, cache, imageProcessor)

	// Click queue: Kafka when brokers are configured, otherwise in-process goroutines.
	var queue clickQueue = converter
	if cfg.Kafka.Enabled() {
		clicks := producer.New(cfg.Kafka.Brokers, cfg.Kafka.Clicks, strategy)
		producers = append(producers, clicks)
		consumers = append(consumers, consumer.New(cfg.Kafka.Brokers, cfg.Kafka.Clicks, strategy, clickmsg.NewHandler(converter)))
		queue = clicks
	}

	// Start Kafka consumers in separate goroutines.
	for _, c := range consumers {
		wg.Add(1)
		go c.Consume(ctx, &wg)
	}

	// HTTP handlers for the menu and the settings form.
	menuHandler := menuapi.NewHandler(m, converter, queue, cfg.Menu.Language)
	settingsHandler := settingsapi.NewHandler(settingssvc.NewService(store, cfg.Settings.StatusTTL))

	// Start HTTP server in a separate goroutine.
	r := router.Setup(menuHandler, settingsHandler)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Wait for consumers and the settings watcher, then for in-flight conversions.
	wg.Wait()
	converter.Wait()

	// Close Kafka producer and consumer clients.
	for _, p := range producers {
		if err := p.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
	for _, c := range consumers {
		if err := c.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
		}
	}

	// Close master and slave databases.
	if db != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Printf("failed to close master DB: %v", err)
		}
		for i, s := range db.Slaves {
			if err := s.Close(); err != nil {
				zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
			}
		}
	}
}

// newProcessor builds the conversion pipeline on top of the configured download backend.
func newProcessor(ctx context.Context, cfg *config.Config) *processor.Processor {
	filter, err := processor.FilterByName(cfg.Processor.Filter)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid resampling filter")
	}

	opts := processor.Options{
		MaxDimension: cfg.Processor.MaxDimension,
		JPEGQuality:  cfg.Processor.JPEGQuality,
		Filter:       filter,
	}
	fetcher := processor.NewHTTPFetcher(&http.Client{}, cfg.Processor.MaxBytes)

	if cfg.Download.Backend == config.DownloadBackendMinio {
		storage, err := minio.NewStorage(
			ctx,
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.BucketName,
			cfg.Download.Prefix,
			cfg.Storage.UseSSL,
		)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
		}

		return processor.New(fetcher, storage, opts)
	}

	return processor.New(fetcher, file.NewStorage(cfg.Download.Dir), opts)
}
