package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TemirB/sheet-ledger/internal/config"
	"github.com/TemirB/sheet-ledger/internal/domain"
	"github.com/TemirB/sheet-ledger/internal/observability"
	"github.com/TemirB/sheet-ledger/internal/pkg/retry"
)

//go:generate mockgen -source internal/application/reconcile/engine.go -destination=internal/application/reconcile/engine_mock_test.go -package=reconcile

type RowSource interface {
	FetchRows(ctx context.Context, rangeStart, rangeEnd string) ([]domain.Row, error)
}

type RateResolver interface {
	Resolve(ctx context.Context, pair domain.CurrencyPair) (decimal.Decimal, error)
}

type Store interface {
	ReplaceAllOrders(ctx context.Context, orders []domain.Order) error
}

type Snapshot interface {
	HasChanged(rows []domain.Row) bool
	Replace(rows []domain.Row)
}

type Breaker interface {
	Allow() error
	Success()
	Failure()
}

type Options struct {
	RangeStart   string
	RangeEnd     string
	Pair         domain.CurrencyPair
	Location     *time.Location
	FetchTimeout time.Duration
	StoreTimeout time.Duration
	Retry        config.Retry
	// Breaker guards the sheet fetch; nil disables it.
	Breaker Breaker
}

type Result struct {
	Updated bool
	Rows    int
	Rate    decimal.NullDecimal
}

// Engine mirrors the sheet into the store whenever its contents change.
// Calls to Reconcile are serialized.
type Engine struct {
	mu sync.Mutex

	rows    RowSource
	rates   RateResolver
	store   Store
	snap    Snapshot
	opts    Options
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(rows RowSource, rates RateResolver, store Store, snap Snapshot, opts Options, logger *zap.Logger, metrics observability.Metrics) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	return &Engine{
		rows:    rows,
		rates:   rates,
		store:   store,
		snap:    snap,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Reconcile fetches the sheet and, if it differs from the snapshot, rewrites
// the stored orders with freshly converted costs. The snapshot only moves
// after the store accepted the new rows, so a failed run is retried in full
// on the next call.
func (e *Engine) Reconcile(ctx context.Context) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t0 := time.Now()
	res, outcome, err := e.reconcile(ctx)
	e.metrics.ObserveReconcile(outcome, convertToMs(t0))
	return res, err
}

func (e *Engine) reconcile(ctx context.Context) (Result, string, error) {
	rows, err := e.fetch(ctx)
	if err != nil {
		e.logger.Error("Sheet fetch failed", zap.Error(err))
		return Result{}, observability.OutcomeFetchError, err
	}

	if !e.snap.HasChanged(rows) {
		e.logger.Debug("Sheet unchanged", zap.Int("rows", len(rows)))
		return Result{Rows: len(rows)}, observability.OutcomeUnchanged, nil
	}

	var rate decimal.NullDecimal
	if len(rows) > 0 {
		r, err := e.resolveRate(ctx)
		if err != nil {
			e.logger.Error("Rate lookup failed",
				zap.String("pair", e.opts.Pair.String()),
				zap.Error(err),
			)
			return Result{}, observability.OutcomeRateError, err
		}
		rate = decimal.NewNullDecimal(r)
	}

	orders, err := ToOrders(rows, rate, e.opts.Location)
	if err != nil {
		e.logger.Error("Sheet rows rejected", zap.Error(err))
		return Result{}, observability.OutcomeFetchError, err
	}

	if err := e.replace(ctx, orders); err != nil {
		e.logger.Error("Store replace failed",
			zap.Int("rows", len(orders)),
			zap.Error(err),
		)
		return Result{}, observability.OutcomeStoreError, err
	}

	e.snap.Replace(rows)
	e.metrics.SetSnapshotRows(len(rows))

	e.logger.Info("Orders mirrored",
		zap.Int("rows", len(rows)),
		zap.Stringer("rate", rate.Decimal),
	)
	return Result{Updated: true, Rows: len(rows), Rate: rate}, observability.OutcomeUpdated, nil
}

func (e *Engine) fetch(ctx context.Context) ([]domain.Row, error) {
	if e.opts.Breaker != nil {
		if err := e.opts.Breaker.Allow(); err != nil {
			return nil, fmt.Errorf("%w: sheet: %w", domain.ErrFetch, err)
		}
	}

	fctx, cancel := withTimeout(ctx, e.opts.FetchTimeout)
	defer cancel()

	rows, err := e.rows.FetchRows(fctx, e.opts.RangeStart, e.opts.RangeEnd)
	if e.opts.Breaker != nil {
		if err != nil {
			e.opts.Breaker.Failure()
		} else {
			e.opts.Breaker.Success()
		}
	}
	return rows, err
}

func (e *Engine) resolveRate(ctx context.Context) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := retry.Do(ctx, e.opts.Retry, func() error {
		actx, cancel := withTimeout(ctx, e.opts.FetchTimeout)
		defer cancel()

		r, err := e.rates.Resolve(actx, e.opts.Pair)
		if err != nil {
			e.logger.Warn("Rate attempt failed", zap.Error(err))
			return err
		}
		rate = r
		return nil
	})
	return rate, err
}

// replace runs on a context that survives shutdown so an in-flight
// transaction commits or rolls back on its own terms.
func (e *Engine) replace(ctx context.Context, orders []domain.Order) error {
	sctx, cancel := withTimeout(context.WithoutCancel(ctx), e.opts.StoreTimeout)
	defer cancel()
	return e.store.ReplaceAllOrders(sctx, orders)
}

// Convert returns cost × rate rounded to cents, halves away from zero.
func Convert(cost int64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(cost).Mul(rate).Round(2)
}

// ToOrders builds the persisted form of rows. Without a rate the converted
// cost stays NULL.
func ToOrders(rows []domain.Row, rate decimal.NullDecimal, loc *time.Location) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		deadline, err := domain.ParseDeadline(r.Deadline, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d: %w", domain.ErrFetch, r.OrderNumber, err)
		}
		o := domain.Order{
			Index:       r.Index,
			OrderNumber: r.OrderNumber,
			Cost:        r.Cost,
			Deadline:    deadline,
		}
		if rate.Valid {
			o.Converted = decimal.NewNullDecimal(Convert(r.Cost, rate.Decimal))
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func convertToMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
