package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/blackoreo/namwatch/client"
	"github.com/blackoreo/namwatch/logger"
	"github.com/blackoreo/namwatch/observability"
	"github.com/blackoreo/namwatch/types"
)

const (
	defaultInterval    = 60 * time.Second
	defaultConcurrency = 8
)

// ValidatorClient fetches the full observed record of one validator.
// *client.Client satisfies it.
type ValidatorClient interface {
	Validator(ctx context.Context, addr types.Address) (*types.ValidatorRecord, error)
}

// AddressProvider returns the addresses to poll. It is consulted at the
// start of every cycle so the watched set can change while running.
type AddressProvider interface {
	WatchedAddresses(ctx context.Context) ([]types.Address, error)
}

// StaticAddresses is an AddressProvider over a fixed list.
type StaticAddresses []types.Address

func (s StaticAddresses) WatchedAddresses(_ context.Context) ([]types.Address, error) {
	return s, nil
}

type Option func(*Watcher)

func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithConcurrency caps how many addresses are queried in parallel within
// one poll cycle.
func WithConcurrency(n int) Option {
	return func(w *Watcher) { w.concurrency = n }
}

func WithDetector(d *Detector) Option {
	return func(w *Watcher) { w.detector = d }
}

// WithStore replaces the default in-memory observation store, eg with a
// DBStore to keep the comparison baseline across restarts.
func WithStore(s Store) Option {
	return func(w *Watcher) { w.store = s }
}

/*
Watcher periodically polls every watched address and notifies about
detected changes. Queries within a cycle run in parallel; the results are
applied to the stored observations sequentially after all of them are in,
so a cycle either compares against the previous cycle's records or not at
all, never against a half-updated mix.
*/
type Watcher struct {
	client      ValidatorClient
	addresses   AddressProvider
	notifier    Notifier
	detector    *Detector
	store       Store
	interval    time.Duration
	concurrency int
	log         *slog.Logger

	// failing tracks addresses whose last poll hit a permanent failure,
	// to notify once per failure streak instead of once per cycle. Only
	// touched from the apply phase.
	failing map[string]bool

	pollDur    metric.Float64Histogram
	changeCnt  metric.Int64Counter
	failureCnt metric.Int64Counter
}

func New(vc ValidatorClient, addresses AddressProvider, notifier Notifier, observe observability.Observability, opts ...Option) (*Watcher, error) {
	if vc == nil {
		return nil, errors.New("validator client is required")
	}
	if addresses == nil {
		return nil, errors.New("address provider is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}

	w := &Watcher{
		client:      vc,
		addresses:   addresses,
		notifier:    notifier,
		detector:    NewDetector(),
		store:       NewMemoryStore(),
		interval:    defaultInterval,
		concurrency: defaultConcurrency,
		log:         observe.Logger(),
		failing:     map[string]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", w.interval)
	}
	if w.concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", w.concurrency)
	}
	if err := w.initMetrics(observe); err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}
	return w, nil
}

func (w *Watcher) initMetrics(observe observability.Observability) (err error) {
	m := observe.Meter("watch")

	if w.pollDur, err = m.Float64Histogram("poll.time",
		metric.WithDescription("How long one poll cycle took"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("creating histogram for poll cycles: %w", err)
	}
	if w.changeCnt, err = m.Int64Counter("changes.count",
		metric.WithDescription("Number of detected validator changes")); err != nil {
		return fmt.Errorf("creating counter for changes: %w", err)
	}
	if w.failureCnt, err = m.Int64Counter("poll.failures",
		metric.WithDescription("Number of per-address poll failures")); err != nil {
		return fmt.Errorf("creating counter for failures: %w", err)
	}
	return nil
}

// Run polls immediately and then on every interval tick until ctx is
// cancelled. A failed cycle is logged and the loop carries on.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, fmt.Sprintf("starting watch loop, polling every %s", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.ErrorContext(ctx, "poll cycle failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type pollResult struct {
	addr types.Address
	rec  *types.ValidatorRecord
	err  error
}

/*
PollOnce runs a single poll cycle: fetch every watched address, then apply
the results. Per-address failures are handled through the notifier and do
not fail the cycle; only listing the addresses or cancellation does.
*/
func (w *Watcher) PollOnce(ctx context.Context) (err error) {
	defer func(start time.Time) {
		w.pollDur.Record(ctx, time.Since(start).Seconds(), metric.WithAttributeSet(attribute.NewSet(observability.ErrStatus(err))))
	}(time.Now())

	addrs, err := w.addresses.WatchedAddresses(ctx)
	if err != nil {
		return fmt.Errorf("listing watched addresses: %w", err)
	}

	results := make([]pollResult, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			rec, err := w.client.Validator(gctx, addr)
			results[i] = pollResult{addr: addr, rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers report through results, never an error
	if ctx.Err() != nil {
		return ctx.Err()
	}

	now := time.Now()
	for _, res := range results {
		w.apply(ctx, res, now)
	}
	return nil
}

func (w *Watcher) apply(ctx context.Context, res pollResult, now time.Time) {
	key := res.addr.String()
	if res.err != nil {
		switch {
		case errors.Is(res.err, context.Canceled), errors.Is(res.err, context.DeadlineExceeded):
			// cycle was cut short, nothing to conclude about the address
		case client.IsNotFound(res.err):
			// not a validator (yet); no baseline to poison, nothing to
			// report, but the address is reachable again so a later
			// permanent failure starts a fresh streak
			delete(w.failing, key)
			w.log.DebugContext(ctx, "watched address has no validator state", logger.Address(res.addr))
		case client.IsRetryable(res.err):
			w.log.DebugContext(ctx, "transient poll failure, keeping previous observation", logger.Error(res.err), logger.Address(res.addr))
		default:
			w.failureCnt.Add(ctx, 1, metric.WithAttributeSet(attribute.NewSet(observability.Address(res.addr))))
			if !w.failing[key] {
				w.failing[key] = true
				e := FailureEvent{Address: res.addr, Err: res.err, ObservedAt: now}
				if err := w.notifier.NotifyQueryFailure(ctx, e); err != nil {
					w.log.WarnContext(ctx, "delivering failure notification failed", logger.Error(err), logger.Address(res.addr))
				}
			}
		}
		return
	}
	delete(w.failing, key)

	prev, err := w.store.Record(res.addr)
	if err != nil {
		w.log.ErrorContext(ctx, "reading stored observation failed", logger.Error(err), logger.Address(res.addr))
		return
	}
	changes := w.detector.Diff(prev, res.rec)
	if err := w.store.PutRecord(res.rec); err != nil {
		w.log.ErrorContext(ctx, "storing observation failed", logger.Error(err), logger.Address(res.addr))
		return
	}
	if len(changes) == 0 {
		return
	}

	w.changeCnt.Add(ctx, int64(len(changes)), metric.WithAttributeSet(attribute.NewSet(observability.Address(res.addr))))
	e := ChangeEvent{Address: res.addr, Changes: changes, ObservedAt: now}
	if err := w.notifier.NotifyChanges(ctx, e); err != nil {
		w.log.WarnContext(ctx, "delivering change notification failed", logger.Error(err), logger.Address(res.addr))
	}
}
