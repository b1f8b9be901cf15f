package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackoreo/namwatch/client"
	"github.com/blackoreo/namwatch/logger"
	"github.com/blackoreo/namwatch/observability"
	"github.com/blackoreo/namwatch/types"
)

// discoveryLimit caps how many new proposal ids one cycle probes, so a
// fresh start against a chain with a long governance history does not
// hammer the node.
const discoveryLimit = 100

// ProposalClient fetches a governance proposal with its status resolved.
// *client.Client satisfies it.
type ProposalClient interface {
	Proposal(ctx context.Context, id uint64) (*types.ProposalRecord, error)
}

type ProposalTrackerOption func(*ProposalTracker)

// WithStartID sets the first proposal id to probe for; earlier proposals
// are never reported. Defaults to 0, ie the whole governance history.
func WithStartID(id uint64) ProposalTrackerOption {
	return func(t *ProposalTracker) { t.nextID = id }
}

func WithProposalInterval(d time.Duration) ProposalTrackerOption {
	return func(t *ProposalTracker) { t.interval = d }
}

/*
ProposalTracker discovers governance proposals and notifies when one
appears or moves to a new status. Proposal ids are assigned sequentially
on chain, so discovery probes upward from the highest known id until it
hits an absent one. Proposals stay tracked until they reach a terminal
status (passed or rejected).
*/
type ProposalTracker struct {
	client   ProposalClient
	notifier Notifier
	interval time.Duration
	log      *slog.Logger

	nextID   uint64
	statuses map[uint64]types.ProposalStatus
}

func NewProposalTracker(pc ProposalClient, notifier Notifier, observe observability.Observability, opts ...ProposalTrackerOption) (*ProposalTracker, error) {
	if pc == nil {
		return nil, errors.New("proposal client is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	t := &ProposalTracker{
		client:   pc,
		notifier: notifier,
		interval: defaultInterval,
		log:      observe.Logger(),
		statuses: map[uint64]types.ProposalStatus{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.interval <= 0 {
		return nil, fmt.Errorf("check interval must be positive, got %s", t.interval)
	}
	return t, nil
}

// Run checks immediately and then on every interval tick until ctx is
// cancelled.
func (t *ProposalTracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if err := t.Check(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.log.ErrorContext(ctx, "proposal check failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check runs one discovery and status sweep.
func (t *ProposalTracker) Check(ctx context.Context) error {
	if err := t.discover(ctx); err != nil {
		return err
	}
	return t.refresh(ctx)
}

func (t *ProposalTracker) discover(ctx context.Context) error {
	for probed := 0; probed < discoveryLimit; probed++ {
		p, err := t.client.Proposal(ctx, t.nextID)
		if err != nil {
			if client.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("probing proposal %d: %w", t.nextID, err)
		}
		t.report(ctx, p, types.ProposalUnknown)
		if !terminal(p.Status) {
			t.statuses[p.ID] = p.Status
		}
		t.nextID = p.ID + 1
	}
	t.log.WarnContext(ctx, fmt.Sprintf("proposal discovery stopped after %d new proposals, continuing next cycle", discoveryLimit))
	return nil
}

func (t *ProposalTracker) refresh(ctx context.Context) error {
	for id, old := range t.statuses {
		p, err := t.client.Proposal(ctx, id)
		if err != nil {
			if client.IsNotFound(err) {
				// a tracked proposal cannot vanish; treat as transient
				t.log.WarnContext(ctx, "tracked proposal not found", logger.ProposalID(id))
				continue
			}
			if client.IsRetryable(err) {
				continue
			}
			return fmt.Errorf("refreshing proposal %d: %w", id, err)
		}
		if p.Status == old {
			continue
		}
		t.report(ctx, p, old)
		if terminal(p.Status) {
			delete(t.statuses, id)
		} else {
			t.statuses[id] = p.Status
		}
	}
	return nil
}

func (t *ProposalTracker) report(ctx context.Context, p *types.ProposalRecord, old types.ProposalStatus) {
	e := ProposalEvent{Proposal: p, OldStatus: old, ObservedAt: time.Now()}
	if err := t.notifier.NotifyProposal(ctx, e); err != nil {
		t.log.WarnContext(ctx, "delivering proposal notification failed", logger.Error(err), logger.ProposalID(p.ID))
	}
}

func terminal(s types.ProposalStatus) bool {
	return s == types.ProposalPassed || s == types.ProposalRejected
}

// RunAll runs the watcher and the proposal tracker side by side; either
// one failing stops both. Nil members are simply skipped.
func RunAll(ctx context.Context, w *Watcher, t *ProposalTracker) error {
	g, gctx := errgroup.WithContext(ctx)
	if w != nil {
		g.Go(func() error { return w.Run(gctx) })
	}
	if t != nil {
		g.Go(func() error { return t.Run(gctx) })
	}
	return g.Wait()
}
