package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/blackoreo/namwatch/logger"
	"github.com/blackoreo/namwatch/types"
)

// ChangeEvent reports detected differences on one watched validator.
type ChangeEvent struct {
	Address    types.Address
	Changes    ChangeSet
	ObservedAt time.Time
}

// FailureEvent reports that querying one watched validator failed in a
// way retrying will not fix. It is sent once per failure streak, not on
// every poll cycle.
type FailureEvent struct {
	Address    types.Address
	Err        error
	ObservedAt time.Time
}

// ProposalEvent reports a governance proposal entering a new status.
// OldStatus is ProposalUnknown when the proposal was first discovered.
type ProposalEvent struct {
	Proposal   *types.ProposalRecord
	OldStatus  types.ProposalStatus
	ObservedAt time.Time
}

/*
Notifier delivers watch events to wherever they should go. Implementations
must tolerate being called from the poll loop: a returned error is logged
and the event is dropped, it does not stop the watcher.
*/
type Notifier interface {
	NotifyChanges(ctx context.Context, e ChangeEvent) error
	NotifyQueryFailure(ctx context.Context, e FailureEvent) error
	NotifyProposal(ctx context.Context, e ProposalEvent) error
}

// LogNotifier writes events into the log. It is the default sink and a
// reasonable fallback when no external channel is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyChanges(ctx context.Context, e ChangeEvent) error {
	for _, c := range e.Changes {
		n.log.InfoContext(ctx, "validator "+c.String(), logger.Address(e.Address))
	}
	return nil
}

func (n *LogNotifier) NotifyQueryFailure(ctx context.Context, e FailureEvent) error {
	n.log.WarnContext(ctx, "querying validator failed", logger.Error(e.Err), logger.Address(e.Address))
	return nil
}

func (n *LogNotifier) NotifyProposal(ctx context.Context, e ProposalEvent) error {
	n.log.InfoContext(ctx,
		"proposal is "+e.Proposal.Status.String(),
		logger.ProposalID(e.Proposal.ID),
		slog.String("was", e.OldStatus.String()),
	)
	return nil
}
