package settings

import (
	"context"
	"sync"
)

// fakeGateway records calls and returns scripted errors. When block is set,
// UpdateBatch signals started and waits for release before returning.
type fakeGateway struct {
	mu        sync.Mutex
	values    Options
	fetchErr  error
	updateErr error
	batches   []Options
	singles   []Options

	block   bool
	started chan struct{}
	release chan struct{}
}

func newFakeGateway(values Options) *fakeGateway {
	return &fakeGateway{
		values:  values.Clone(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *fakeGateway) FetchAll(ctx context.Context) (Options, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.values.Clone(), nil
}

func (g *fakeGateway) UpdateOne(ctx context.Context, name string, v Value) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.singles = append(g.singles, Options{name: v})
	if g.updateErr != nil {
		return g.updateErr
	}
	g.values[name] = v
	return nil
}

func (g *fakeGateway) UpdateBatch(ctx context.Context, opts Options) error {
	g.mu.Lock()
	g.batches = append(g.batches, opts.Clone())
	block := g.block
	g.mu.Unlock()

	if block {
		g.started <- struct{}{}
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateErr != nil {
		return g.updateErr
	}
	for k, v := range opts {
		g.values[k] = v
	}
	return nil
}

func (g *fakeGateway) batchCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.batches)
}

// recordingObserver counts dirty-state signals.
type recordingObserver struct {
	mu      sync.Mutex
	marks   int
	clears  int
	unsaved bool
}

func (o *recordingObserver) MarkUnsaved() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.marks++
	o.unsaved = true
}

func (o *recordingObserver) ClearUnsaved() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clears++
	o.unsaved = false
}

func boolPtr(b bool) *bool { return &b }
