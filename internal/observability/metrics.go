package observability

// Reconcile outcomes.
const (
	OutcomeUnchanged  = "unchanged"
	OutcomeUpdated    = "updated"
	OutcomeFetchError = "fetch_error"
	OutcomeRateError  = "rate_error"
	OutcomeStoreError = "store_error"
)

type Metrics interface {
	ObserveReconcile(outcome string, durMs float64)
	SetSnapshotRows(n int)
	ObserveDelivery(ok bool)
	ObserveHTTP(method, route string, status int, durMs float64)
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveReconcile(string, float64)         {}
func (Noop) SetSnapshotRows(int)                      {}
func (Noop) ObserveDelivery(bool)                     {}
func (Noop) ObserveHTTP(string, string, int, float64) {}

var (
	_ Metrics = Noop{}
	_ Metrics = (*Inmem)(nil)
	_ Metrics = (*Prometheus)(nil)
)
