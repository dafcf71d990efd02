package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrUnavailable reports that the scoring artifact is not loaded, failed to load,
// or timed out while loading. Callers surface it as a service-unavailable condition.
var ErrUnavailable = errors.New("scoring artifact unavailable")

// ErrLoadTimeout is wrapped into ErrUnavailable when loading exceeds the handle timeout.
var ErrLoadTimeout = errors.New("artifact load timed out")

// State is the initialisation state of a Handle.
type State int32

const (
	StateNotLoaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotLoaded:
		return "not_loaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoaderFunc produces a Model from durable storage.
type LoaderFunc func(ctx context.Context) (Model, error)

// FileLoader loads a logistic artifact from path.
func FileLoader(path string) LoaderFunc {
	return func(context.Context) (Model, error) {
		if path == "" {
			return nil, errors.New("artifact path not configured")
		}
		return LoadArtifact(path)
	}
}

// Handle owns the shared scoring artifact. It loads at most once per Reload
// cycle; after a failure every Acquire reports ErrUnavailable until an operator
// calls Reload. Reloading a Ready handle keeps serving the current artifact
// until the replacement has loaded.
type Handle struct {
	loader   LoaderFunc
	timeout  time.Duration
	logger   *slog.Logger
	observer func(State)

	mu         sync.RWMutex
	state      State
	model      Model
	err        error
	generation uint64

	group singleflight.Group
}

// Loaded is a model together with the load generation that produced it.
type Loaded struct {
	Model      Model
	Generation uint64
}

// HandleOption customises a Handle.
type HandleOption func(*Handle)

// WithStateObserver registers a callback invoked after each state transition.
func WithStateObserver(fn func(State)) HandleOption {
	return func(h *Handle) { h.observer = fn }
}

// WithLogger sets the handle logger.
func WithLogger(logger *slog.Logger) HandleOption {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandle constructs a handle that loads lazily through loader, bounded by timeout.
func NewHandle(loader LoaderFunc, timeout time.Duration, opts ...HandleOption) *Handle {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	h := &Handle{loader: loader, timeout: timeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewReadyHandle wraps an already-loaded model.
func NewReadyHandle(model Model, opts ...HandleOption) *Handle {
	h := NewHandle(func(context.Context) (Model, error) { return model, nil }, 0, opts...)
	h.state = StateReady
	h.model = model
	h.generation = 1
	return h
}

// State returns the current initialisation state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Generation counts successful loads. It is 0 until the first load succeeds.
func (h *Handle) Generation() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.generation
}

// Acquire returns the loaded model, loading it first if nobody has tried yet.
// Concurrent callers share a single load attempt.
func (h *Handle) Acquire(ctx context.Context) (Model, error) {
	loaded, err := h.AcquireLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return loaded.Model, nil
}

// AcquireLoaded is Acquire that also reports the load generation of the model.
func (h *Handle) AcquireLoaded(ctx context.Context) (Loaded, error) {
	h.mu.RLock()
	state, loaded, loadErr := h.state, Loaded{Model: h.model, Generation: h.generation}, h.err
	h.mu.RUnlock()

	switch state {
	case StateReady:
		return loaded, nil
	case StateFailed:
		return Loaded{}, fmt.Errorf("%w: %w", ErrUnavailable, loadErr)
	}

	ch := h.group.DoChan("load", func() (any, error) {
		return h.load()
	})
	select {
	case <-ctx.Done():
		return Loaded{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Loaded{}, res.Err
		}
		return res.Val.(Loaded), nil
	}
}

// Reload attempts a fresh load. A Ready handle keeps its current artifact when
// the replacement fails to load; a NotLoaded or Failed handle starts over.
func (h *Handle) Reload(ctx context.Context) error {
	h.mu.Lock()
	switch h.state {
	case StateLoading:
		h.mu.Unlock()
		return errors.New("artifact load already in progress")
	case StateReady:
		h.mu.Unlock()
		return h.replace(ctx)
	}
	h.state = StateNotLoaded
	h.model = nil
	h.err = nil
	h.mu.Unlock()
	h.notify(StateNotLoaded)

	_, err := h.Acquire(ctx)
	return err
}

// replace loads a new artifact beside the serving one and swaps it in on success.
func (h *Handle) replace(ctx context.Context) error {
	ch := h.group.DoChan("reload", func() (any, error) {
		start := time.Now()
		model, err := h.runLoader()
		if err != nil {
			h.logger.Error("artifact reload failed; keeping current artifact",
				slog.Any("error", err), slog.Duration("elapsed", time.Since(start)))
			return nil, fmt.Errorf("reload artifact: %w", err)
		}
		h.mu.Lock()
		h.model = model
		h.err = nil
		h.state = StateReady
		h.generation++
		loaded := Loaded{Model: model, Generation: h.generation}
		h.mu.Unlock()

		info := model.Info()
		h.logger.Info("scoring artifact reloaded",
			slog.String("name", info.Name),
			slog.String("version", info.Version),
			slog.Uint64("generation", loaded.Generation),
			slog.Duration("elapsed", time.Since(start)))
		return loaded, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// runLoader calls the loader under the handle timeout. The loader gets its own
// deadline rather than a caller context, since all waiters share the outcome.
func (h *Handle) runLoader() (Model, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	type result struct {
		model Model
		err   error
	}
	done := make(chan result, 1)
	go func() {
		model, err := h.loader(ctx)
		done <- result{model: model, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && res.model == nil {
			res.err = errors.New("loader returned no model")
		}
		return res.model, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", ErrLoadTimeout, h.timeout)
	}
}

// load runs inside the singleflight group.
func (h *Handle) load() (Loaded, error) {
	h.mu.Lock()
	switch h.state {
	case StateReady:
		loaded := Loaded{Model: h.model, Generation: h.generation}
		h.mu.Unlock()
		return loaded, nil
	case StateFailed:
		err := h.err
		h.mu.Unlock()
		return Loaded{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	h.state = StateLoading
	h.mu.Unlock()
	h.notify(StateLoading)

	start := time.Now()
	model, err := h.runLoader()

	h.mu.Lock()
	if err != nil {
		h.state = StateFailed
		h.err = err
	} else {
		h.state = StateReady
		h.model = model
		h.generation++
	}
	state := h.state
	loaded := Loaded{Model: h.model, Generation: h.generation}
	h.mu.Unlock()
	h.notify(state)

	if err != nil {
		h.logger.Error("scoring artifact load failed", slog.Any("error", err), slog.Duration("elapsed", time.Since(start)))
		return Loaded{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	info := model.Info()
	h.logger.Info("scoring artifact loaded",
		slog.String("name", info.Name),
		slog.String("version", info.Version),
		slog.Uint64("generation", loaded.Generation),
		slog.Duration("elapsed", time.Since(start)))
	return loaded, nil
}

func (h *Handle) notify(state State) {
	if h.observer != nil {
		h.observer(state)
	}
}
