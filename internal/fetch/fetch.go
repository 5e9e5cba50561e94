// Package fetch serializes asynchronous customer loads so that only the
// most recent request can update the visible state. Responses from
// superseded requests are dropped whether they succeed or fail.
package fetch

import (
	"context"
	"sync"

	"github.com/retainhq/retain/internal/domain"
)

// Source loads customers matching a query.
type Source interface {
	FetchCustomers(ctx context.Context, q domain.Query) ([]domain.Customer, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, q domain.Query) ([]domain.Customer, error)

// FetchCustomers calls f.
func (f SourceFunc) FetchCustomers(ctx context.Context, q domain.Query) ([]domain.Customer, error) {
	return f(ctx, q)
}

// Phase is the lifecycle state of the loader.
type Phase string

const (
	// PhaseIdle means no fetch has been issued yet.
	PhaseIdle Phase = "idle"
	// PhaseLoading means the latest fetch is still in flight.
	PhaseLoading Phase = "loading"
	// PhaseReady means the latest fetch completed successfully.
	PhaseReady Phase = "ready"
	// PhaseFailed means the latest fetch failed. Records from the last
	// successful fetch remain available.
	PhaseFailed Phase = "failed"
)

// State is the externally visible loader state. Records always come from
// the most recent successful fetch, identified by Revision.
type State struct {
	Phase    Phase
	Records  []domain.Customer
	Revision uint64
	Err      error
}

// Loader runs customer fetches against a Source. Each fetch gets a
// monotonically increasing token; a response may only update the state if
// its token still matches the latest one, so late responses from older
// requests can never overwrite newer data.
type Loader struct {
	source Source

	mu        sync.Mutex
	token     uint64
	phase     Phase
	records   []domain.Customer
	revision  uint64
	err       error
	cancel    context.CancelFunc
	lastQuery domain.Query

	notify chan struct{}
	wg     sync.WaitGroup
}

// NewLoader creates an idle loader backed by the given source.
func NewLoader(source Source) *Loader {
	return &Loader{
		source: source,
		phase:  PhaseIdle,
		notify: make(chan struct{}, 1),
	}
}

// Fetch issues a new request and returns immediately. Any in-flight request
// is canceled; its result, if it still arrives, is discarded. A previous
// failure is cleared as soon as the new fetch starts.
func (l *Loader) Fetch(ctx context.Context, q domain.Query) {
	l.mu.Lock()
	l.token++
	token := l.token
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.phase = PhaseLoading
	l.err = nil
	l.lastQuery = q
	l.mu.Unlock()
	l.changed()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		records, err := l.source.FetchCustomers(fetchCtx, q)
		l.complete(token, records, err)
	}()
}

func (l *Loader) complete(token uint64, records []domain.Customer, err error) {
	l.mu.Lock()
	if token != l.token {
		// A newer fetch superseded this one.
		l.mu.Unlock()
		return
	}
	if err != nil {
		l.phase = PhaseFailed
		l.err = err
	} else {
		l.phase = PhaseReady
		l.records = records
		l.revision = token
		l.err = nil
	}
	l.mu.Unlock()
	l.changed()
}

// Refetch re-runs the most recent query, superseding any in-flight request.
// It does nothing before the first Fetch.
func (l *Loader) Refetch(ctx context.Context) {
	l.mu.Lock()
	if l.token == 0 {
		l.mu.Unlock()
		return
	}
	q := l.lastQuery
	l.mu.Unlock()
	l.Fetch(ctx, q)
}

// State returns the current loader state. The records slice is shared and
// must be treated as read-only.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{Phase: l.phase, Records: l.records, Revision: l.revision, Err: l.err}
}

// Dismiss clears a failure, returning to ready with the previously loaded
// records. It does nothing in other phases.
func (l *Loader) Dismiss() {
	l.mu.Lock()
	if l.phase != PhaseFailed {
		l.mu.Unlock()
		return
	}
	l.phase = PhaseReady
	l.err = nil
	l.mu.Unlock()
	l.changed()
}

// Changes returns a channel that receives a tick after each state change.
// The channel has a one-slot buffer; ticks coalesce when the consumer lags,
// so receivers should re-read State after each tick.
func (l *Loader) Changes() <-chan struct{} {
	return l.notify
}

func (l *Loader) changed() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Close cancels any in-flight request and waits for its goroutine to
// finish.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()
	l.wg.Wait()
}
