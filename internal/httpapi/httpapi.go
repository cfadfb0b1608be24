package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TemirB/sheet-ledger/internal/application/reconcile"
	"github.com/TemirB/sheet-ledger/internal/domain"
	"github.com/TemirB/sheet-ledger/internal/observability"
)

//go:generate mockgen -source internal/httpapi/httpapi.go -destination=internal/httpapi/httpapi_mock_test.go -package=httpapi

type Orders interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

type Expired interface {
	ExpiredOrders() []string
}

type Registrar interface {
	HandleStart(ctx context.Context, id int64) error
}

type Syncer interface {
	Reconcile(ctx context.Context) (reconcile.Result, error)
}

type Deps struct {
	Orders    Orders
	Expired   Expired
	Registrar Registrar
	Syncer    Syncer
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

type Server struct {
	deps    Deps
	router  chi.Router
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(deps Deps, logger *zap.Logger, metrics observability.Metrics) *Server {
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	s := &Server{
		deps:    deps,
		logger:  logger,
		router:  chi.NewRouter(),
		metrics: metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(ServerTimingApp(s.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/orders", s.listOrders)
	r.Get("/orders/expired", s.expiredOrders)
	r.Post("/subscribers/{id}", s.addSubscriber)
	r.Post("/reconcile", s.reconcile)
	if s.deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.MetricsHandler)
	}
}

type orderView struct {
	Index         int64   `json:"index"`
	OrderNumber   int64   `json:"order_number"`
	Cost          int64   `json:"cost"`
	Deadline      string  `json:"deadline"`
	CostConverted *string `json:"cost_converted"`
}

func toView(o domain.Order) orderView {
	v := orderView{
		Index:       o.Index,
		OrderNumber: o.OrderNumber,
		Cost:        o.Cost,
		Deadline:    o.Deadline.Format(domain.DeadlineLayout),
	}
	if o.Converted.Valid {
		c := o.Converted.Decimal.StringFixed(2)
		v.CostConverted = &c
	}
	return v
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.deps.Orders.ListOrders(r.Context())
	if err != nil {
		s.logger.Error("Can't list orders", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toView(o))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) expiredOrders(w http.ResponseWriter, _ *http.Request) {
	lines := s.deps.Expired.ExpiredOrders()
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"orders": lines})
}

func (s *Server) addSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "subscriber id must be an integer", http.StatusBadRequest)
		return
	}

	if err := s.deps.Registrar.HandleStart(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrStore) {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		// registered; only the welcome message was lost
		s.logger.Warn("Welcome not delivered", zap.Int64("subscriber_id", id), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Syncer == nil {
		http.Error(w, "reconcile disabled", http.StatusNotFound)
		return
	}
	res, err := s.deps.Syncer.Reconcile(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrFetch):
			status = http.StatusBadGateway
		case errors.Is(err, domain.ErrStore):
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	body := map[string]any{"updated": res.Updated, "rows": res.Rows}
	if res.Rate.Valid {
		body["rate"] = res.Rate.Decimal.String()
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Handler() http.Handler { return s.router }
