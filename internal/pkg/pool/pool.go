package pool

import "sync"

type Option func(*Pool)

// WithPanicHandler keeps a worker alive when a job panics and hands the
// recovered value to h.
func WithPanicHandler(h func(any)) Option {
	return func(p *Pool) { p.onPanic = h }
}

// Pool runs submitted funcs on a fixed number of workers. Submit after Close
// panics.
type Pool struct {
	jobs    chan func()
	wg      sync.WaitGroup
	onPanic func(any)
}

func New(n int, opts ...Option) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan func(), n*2),
	}
	for _, o := range opts {
		o(p)
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for f := range p.jobs {
		if f != nil {
			p.run(f)
		}
	}
}

func (p *Pool) run(f func()) {
	if p.onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				p.onPanic(r)
			}
		}()
	}
	f()
}

func (p *Pool) Submit(f func()) {
	p.jobs <- f
}

// Close stops accepting jobs; queued jobs still run.
func (p *Pool) Close() {
	close(p.jobs)
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
