package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/TemirB/sheet-ledger/internal/application/expiry"
	"github.com/TemirB/sheet-ledger/internal/application/notify"
	"github.com/TemirB/sheet-ledger/internal/application/reconcile"
	"github.com/TemirB/sheet-ledger/internal/application/subscribe"
	"github.com/TemirB/sheet-ledger/internal/cache"
	"github.com/TemirB/sheet-ledger/internal/config"
	"github.com/TemirB/sheet-ledger/internal/database"
	"github.com/TemirB/sheet-ledger/internal/domain"
	"github.com/TemirB/sheet-ledger/internal/httpapi"
	"github.com/TemirB/sheet-ledger/internal/kafka"
	"github.com/TemirB/sheet-ledger/internal/logger"
	"github.com/TemirB/sheet-ledger/internal/observability"
	"github.com/TemirB/sheet-ledger/internal/pkg/breaker"
	"github.com/TemirB/sheet-ledger/internal/rate"
	"github.com/TemirB/sheet-ledger/internal/scheduler"
	"github.com/TemirB/sheet-ledger/internal/sheet"
	"github.com/TemirB/sheet-ledger/internal/snapshot"
	"github.com/TemirB/sheet-ledger/internal/telegram"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Exiting", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("Stopped")
}

// channel is the active way of reaching subscribers. listen is nil when the
// channel has no inbound side.
type channel struct {
	sender domain.Sender
	listen func(ctx context.Context, h telegram.StartHandler) error
	close  func() error
}

func openChannel(ctx context.Context, cfg config.Config, log *zap.Logger) (channel, error) {
	switch cfg.Notify.Channel {
	case config.ChannelKafka:
		if err := kafka.EnsureTopic(ctx, cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, 1, 1, log); err != nil {
			log.Warn("Kafka topic check failed", zap.Error(err))
		}
		pub := kafka.NewPublisher(kafka.NewWriter(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic), cfg.Notify.KafkaTopic, log.Named("kafka"))
		return channel{sender: pub, close: pub.Close}, nil
	default:
		bot, err := telegram.New(cfg.Notify.TelegramToken, cfg.Schedule.SendTimeout, log)
		if err != nil {
			return channel{}, err
		}
		return channel{sender: bot, listen: bot.Listen, close: func() error { return nil }}, nil
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	pool, err := database.Connect(ctx, cfg.DSN(), log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	repo := database.New(pool, cfg.Tables)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	sheets, err := sheet.NewAPI(ctx, cfg.Sheet.Credentials)
	if err != nil {
		return err
	}

	metrics := observability.NewPrometheus()
	snap := snapshot.New()

	engine := reconcile.New(
		sheet.NewClient(sheets, sheet.SpreadsheetID(cfg.Sheet.URL)),
		rate.NewResolver(rate.NewGoogleSource(cfg.Rate.URL, cfg.Schedule.FetchTimeout)),
		repo,
		snap,
		reconcile.Options{
			RangeStart:   cfg.Sheet.RangeStart,
			RangeEnd:     cfg.Sheet.RangeEnd,
			Pair:         domain.CurrencyPair{Source: cfg.Rate.Source, Target: cfg.Rate.Target},
			Location:     cfg.Location(),
			FetchTimeout: cfg.Schedule.FetchTimeout,
			StoreTimeout: cfg.Schedule.StoreTimeout,
			Retry:        cfg.Retry,
			Breaker:      breaker.New(cfg.Breaker),
		},
		log.Named("reconcile"),
		metrics,
	)
	monitor := expiry.New(snap, cfg.Location(), log.Named("expiry"))

	known, err := cache.New(cfg.CacheCap)
	if err != nil {
		return fmt.Errorf("subscriber cache: %w", err)
	}
	if n, err := known.Warm(ctx, repo); err != nil {
		log.Warn("Subscriber cache not warmed, lookups fall through to the store", zap.Error(err))
	} else {
		log.Info("Subscriber cache warmed", zap.Int("subscribers", n))
	}

	ch, err := openChannel(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := ch.close(); err != nil {
			log.Warn("Channel close failed", zap.Error(err))
		}
	}()

	dispatcher := notify.New(monitor, repo, ch.sender, notify.Options{
		Workers:     cfg.Notify.Workers,
		SendTimeout: cfg.Schedule.SendTimeout,
	}, log.Named("notify"), metrics)
	registrar := subscribe.New(repo, known, ch.sender, log.Named("subscribe"))

	// the first notify tick needs a snapshot to look at
	if _, err := engine.Reconcile(ctx); err != nil {
		log.Warn("Initial reconcile failed", zap.Error(err))
	}

	sched := scheduler.New(log,
		scheduler.Job{
			Name:     "sync",
			Interval: cfg.Schedule.SyncInterval,
			Run: func(ctx context.Context) error {
				_, err := engine.Reconcile(ctx)
				return err
			},
		},
		scheduler.Job{
			Name:     "notify",
			Interval: cfg.Schedule.NotifyInterval,
			Run: func(ctx context.Context) error {
				_, err := dispatcher.NotifyExpired(ctx)
				return err
			},
		},
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sched.Start(ctx)

	api := httpapi.New(httpapi.Deps{
		Orders:         repo,
		Expired:        monitor,
		Registrar:      registrar,
		Syncer:         engine,
		MetricsHandler: metrics.Handler(),
	}, log.Named("http"), metrics)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := api.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	if ch.listen != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ch.listen(ctx, registrar); err != nil {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case runErr = <-errCh:
		cancel()
	}

	sched.Wait()
	wg.Wait()
	return runErr
}
