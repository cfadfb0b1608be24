package observability

import "sync"

type observe struct {
	Kind    string
	Outcome string
	Method  string
	Route   string
	Status  int
	Dur     float64
}

// Inmem keeps the last max observations plus running totals. It backs tests
// and local runs without a Prometheus scrape.
type Inmem struct {
	mu     sync.Mutex
	last   []*observe
	max    int
	totals struct {
		delivered, failed int
		snapshotRows      int
		outcomes          map[string]int
	}
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v *observe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max <= 0 {
		m.last = []*observe{}
		return
	}
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveReconcile(outcome string, durMs float64) {
	m.mu.Lock()
	if m.totals.outcomes == nil {
		m.totals.outcomes = make(map[string]int)
	}
	m.totals.outcomes[outcome]++
	m.mu.Unlock()

	m.push(&observe{Kind: "reconcile", Outcome: outcome, Dur: durMs})
}

func (m *Inmem) SetSnapshotRows(n int) {
	m.mu.Lock()
	m.totals.snapshotRows = n
	m.mu.Unlock()
}

func (m *Inmem) ObserveDelivery(ok bool) {
	m.mu.Lock()
	if ok {
		m.totals.delivered++
	} else {
		m.totals.failed++
	}
	m.mu.Unlock()
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(&observe{Kind: "http", Method: method, Route: route, Status: status, Dur: durMs})
}

// Outcomes returns how many reconcile runs ended with each outcome.
func (m *Inmem) Outcomes() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.totals.outcomes))
	for k, v := range m.totals.outcomes {
		out[k] = v
	}
	return out
}

func (m *Inmem) Deliveries() (delivered, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.delivered, m.totals.failed
}

func (m *Inmem) SnapshotRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.snapshotRows
}

type Request struct {
	Method string
	Route  string
	Status int
	DurMs  float64
}

// Requests returns the HTTP observations still held, oldest first.
func (m *Inmem) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, o := range m.last {
		if o.Kind == "http" {
			out = append(out, Request{Method: o.Method, Route: o.Route, Status: o.Status, DurMs: o.Dur})
		}
	}
	return out
}
