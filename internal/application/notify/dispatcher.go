package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/sheet-ledger/internal/domain"
	"github.com/TemirB/sheet-ledger/internal/observability"
	"github.com/TemirB/sheet-ledger/internal/pkg/pool"
)

//go:generate mockgen -source internal/application/notify/dispatcher.go -destination=internal/application/notify/dispatcher_mock_test.go -package=notify

const digestHeader = "Delivery deadline has passed for the following orders:\n\n"

type Monitor interface {
	ExpiredOrders() []string
}

type Subscribers interface {
	ListSubscriberIDs(ctx context.Context) ([]int64, error)
}

type Sender interface {
	SendMessage(ctx context.Context, subscriberID int64, text string) error
}

type Options struct {
	Workers     int
	SendTimeout time.Duration
}

type Report struct {
	Recipients int
	Delivered  int
	Failed     int
}

type Dispatcher struct {
	monitor Monitor
	subs    Subscribers
	sender  Sender
	opts    Options
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(monitor Monitor, subs Subscribers, sender Sender, opts Options, logger *zap.Logger, metrics observability.Metrics) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	return &Dispatcher{
		monitor: monitor,
		subs:    subs,
		sender:  sender,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// NotifyExpired sends one digest of all expired orders to every subscriber.
// Nothing is sent, and the store is not queried, when no order has expired.
// A failed delivery is logged and reported but does not affect the others.
// The same digest goes out again on the next call.
func (d *Dispatcher) NotifyExpired(ctx context.Context) (Report, error) {
	lines := d.monitor.ExpiredOrders()
	if len(lines) == 0 {
		d.logger.Debug("No expired orders")
		return Report{}, nil
	}

	ids, err := d.subs.ListSubscriberIDs(ctx)
	if err != nil {
		d.logger.Error("Can't list subscribers", zap.Error(err))
		if !errors.Is(err, domain.ErrStore) {
			err = fmt.Errorf("%w: list subscribers: %w", domain.ErrStore, err)
		}
		return Report{}, err
	}

	report, errs := d.fanOut(ctx, ids, Digest(lines))

	d.logger.Info("Expiry digest sent",
		zap.Int("orders", len(lines)),
		zap.Int("recipients", report.Recipients),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
	)
	return report, errors.Join(errs...)
}

func (d *Dispatcher) fanOut(ctx context.Context, ids []int64, text string) (Report, []error) {
	var (
		mu     sync.Mutex
		report = Report{Recipients: len(ids)}
		errs   []error
	)

	p := pool.New(d.opts.Workers, pool.WithPanicHandler(func(r any) {
		d.logger.Error("Delivery panicked", zap.Any("panic", r))
	}))
	for _, id := range ids {
		p.Submit(func() {
			err := d.send(ctx, id, text)
			d.metrics.ObserveDelivery(err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				errs = append(errs, err)
				return
			}
			report.Delivered++
		})
	}
	p.Close()
	p.Wait()

	return report, errs
}

func (d *Dispatcher) send(ctx context.Context, id int64, text string) error {
	sctx, cancel := ctx, context.CancelFunc(func() {})
	if d.opts.SendTimeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, d.opts.SendTimeout)
	}
	defer cancel()

	if err := d.sender.SendMessage(sctx, id, text); err != nil {
		d.logger.Warn("Delivery failed",
			zap.Int64("subscriber_id", id),
			zap.Error(err),
		)
		return fmt.Errorf("%w: subscriber %d: %w", domain.ErrDelivery, id, err)
	}
	return nil
}

// Digest renders the message body for the given expired-order lines.
func Digest(lines []string) string {
	return digestHeader + strings.Join(lines, "\n")
}
