package expiry

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/sheet-ledger/internal/domain"
)

//go:generate mockgen -source internal/application/expiry/monitor.go -destination=internal/application/expiry/monitor_mock_test.go -package=expiry

type Snapshot interface {
	Rows() ([]domain.Row, bool)
}

type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor lists orders whose delivery date is already behind us. It only
// reads the snapshot and never touches the store.
type Monitor struct {
	snap   Snapshot
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func New(snap Snapshot, loc *time.Location, logger *zap.Logger, opts ...Option) *Monitor {
	if loc == nil {
		loc = time.UTC
	}
	m := &Monitor{
		snap:   snap,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Today is midnight of the current date in the monitor's location.
func (m *Monitor) Today() time.Time {
	y, mo, d := m.now().In(m.loc).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, m.loc)
}

// ExpiredOrders returns one line per row whose deadline is strictly before
// today, in snapshot order. Orders due today are not expired yet.
func (m *Monitor) ExpiredOrders() []string {
	rows, ok := m.snap.Rows()
	if !ok {
		return nil
	}

	today := m.Today()
	var lines []string
	for _, r := range rows {
		deadline, err := domain.ParseDeadline(r.Deadline, m.loc)
		if err != nil {
			m.logger.Warn("Skipping row with unreadable deadline",
				zap.Int64("order_number", r.OrderNumber),
				zap.String("deadline", r.Deadline),
				zap.Error(err),
			)
			continue
		}
		if deadline.Before(today) {
			lines = append(lines, FormatLine(r.OrderNumber, r.Cost, deadline))
		}
	}
	return lines
}

func FormatLine(orderNumber, cost int64, deadline time.Time) string {
	return fmt.Sprintf("Order №%d for $%d expired on %s", orderNumber, cost, deadline.Format(domain.DeadlineLayout))
}
