package watch

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackoreo/namwatch/client"
	testobserve "github.com/blackoreo/namwatch/internal/testutils/observability"
	"github.com/blackoreo/namwatch/types"
)

// fakeValidatorClient serves per-address records or errors, mutable
// between poll cycles.
type fakeValidatorClient struct {
	mu      sync.Mutex
	records map[string]*types.ValidatorRecord
	errs    map[string]error
}

func newFakeValidatorClient() *fakeValidatorClient {
	return &fakeValidatorClient{
		records: map[string]*types.ValidatorRecord{},
		errs:    map[string]error{},
	}
}

func (f *fakeValidatorClient) set(rec *types.ValidatorRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Address.String()] = rec
	delete(f.errs, rec.Address.String())
}

func (f *fakeValidatorClient) fail(addr types.Address, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[addr.String()] = err
}

func (f *fakeValidatorClient) Validator(_ context.Context, addr types.Address) (*types.ValidatorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[addr.String()]; ok {
		return nil, err
	}
	if rec, ok := f.records[addr.String()]; ok {
		return rec, nil
	}
	return nil, client.ErrNotFound
}

// recordingNotifier captures delivered events.
type recordingNotifier struct {
	mu        sync.Mutex
	changes   []ChangeEvent
	failures  []FailureEvent
	proposals []ProposalEvent
}

func (n *recordingNotifier) NotifyChanges(_ context.Context, e ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, e)
	return nil
}

func (n *recordingNotifier) NotifyQueryFailure(_ context.Context, e FailureEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, e)
	return nil
}

func (n *recordingNotifier) NotifyProposal(_ context.Context, e ProposalEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.proposals = append(n.proposals, e)
	return nil
}

func mustAddress(t *testing.T, fill byte) types.Address {
	t.Helper()
	addr, err := types.NewAddress(types.HRPAccount, bytes.Repeat([]byte{fill}, 21))
	require.NoError(t, err)
	return addr
}

func newTestWatcher(t *testing.T, fc *fakeValidatorClient, provider AddressProvider, notifier Notifier, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(fc, provider, notifier, testobserve.Default(t), opts...)
	require.NoError(t, err)
	return w
}

func TestNew(t *testing.T) {
	obs := testobserve.NOP()
	fc := newFakeValidatorClient()
	notifier := &recordingNotifier{}

	_, err := New(nil, StaticAddresses{}, notifier, obs)
	require.ErrorContains(t, err, "validator client is required")
	_, err = New(fc, nil, notifier, obs)
	require.ErrorContains(t, err, "address provider is required")
	_, err = New(fc, StaticAddresses{}, nil, obs)
	require.ErrorContains(t, err, "notifier is required")
	_, err = New(fc, StaticAddresses{}, notifier, obs, WithInterval(0))
	require.ErrorContains(t, err, "poll interval must be positive")
	_, err = New(fc, StaticAddresses{}, notifier, obs, WithConcurrency(0))
	require.ErrorContains(t, err, "concurrency must be at least 1")
}

func TestWatcher_BaselineThenChange(t *testing.T) {
	rec := testValidatorRecord(t)
	fc := newFakeValidatorClient()
	fc.set(rec)
	notifier := &recordingNotifier{}
	w := newTestWatcher(t, fc, StaticAddresses{rec.Address}, notifier)

	// first cycle establishes the baseline, nothing to report
	require.NoError(t, w.PollOnce(context.Background()))
	require.Empty(t, notifier.changes)

	// unchanged state stays quiet
	require.NoError(t, w.PollOnce(context.Background()))
	require.Empty(t, notifier.changes)

	jailed := *rec
	jailed.State = types.StateJailed
	fc.set(&jailed)

	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.changes, 1)
	e := notifier.changes[0]
	require.True(t, rec.Address.Equal(e.Address))
	require.Equal(t, ChangeSet{{FieldState, "Consensus", "Jailed"}}, e.Changes)
	require.False(t, e.ObservedAt.IsZero())

	// the change is reported once, not on every following cycle
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.changes, 1)
}

func TestWatcher_MultipleAddresses(t *testing.T) {
	fc := newFakeValidatorClient()
	var addrs StaticAddresses
	for i := byte(1); i <= 20; i++ {
		rec := testValidatorRecord(t)
		rec.Address = mustAddress(t, i)
		fc.set(rec)
		addrs = append(addrs, rec.Address)
	}
	notifier := &recordingNotifier{}
	w := newTestWatcher(t, fc, addrs, notifier, WithConcurrency(4))

	require.NoError(t, w.PollOnce(context.Background()))
	require.Empty(t, notifier.changes)

	// change two of them
	for _, i := range []byte{3, 17} {
		rec := testValidatorRecord(t)
		rec.Address = mustAddress(t, i)
		rec.State = types.StateBelowCapacity
		fc.set(rec)
	}
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.changes, 2)
}

func TestWatcher_NotFoundIsQuiet(t *testing.T) {
	addr := mustAddress(t, 1)
	fc := newFakeValidatorClient()
	notifier := &recordingNotifier{}
	w := newTestWatcher(t, fc, StaticAddresses{addr}, notifier)

	require.NoError(t, w.PollOnce(context.Background()))
	require.Empty(t, notifier.changes)
	require.Empty(t, notifier.failures)
}

func TestWatcher_TransientFailureKeepsBaseline(t *testing.T) {
	rec := testValidatorRecord(t)
	fc := newFakeValidatorClient()
	fc.set(rec)
	notifier := &recordingNotifier{}
	w := newTestWatcher(t, fc, StaticAddresses{rec.Address}, notifier)

	require.NoError(t, w.PollOnce(context.Background()))

	// transient failure: no notification, previous observation kept
	fc.fail(rec.Address, client.RetryableError(errors.New("connection reset")))
	require.NoError(t, w.PollOnce(context.Background()))
	require.Empty(t, notifier.failures)
	require.Empty(t, notifier.changes)

	// recovery with a changed state is compared against the pre-failure baseline
	jailed := *rec
	jailed.State = types.StateJailed
	fc.set(&jailed)
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.changes, 1)
}

func TestWatcher_PermanentFailureNotifiedOncePerStreak(t *testing.T) {
	rec := testValidatorRecord(t)
	fc := newFakeValidatorClient()
	fc.set(rec)
	notifier := &recordingNotifier{}
	w := newTestWatcher(t, fc, StaticAddresses{rec.Address}, notifier)

	require.NoError(t, w.PollOnce(context.Background()))

	fc.fail(rec.Address, client.PermanentError(errors.New("rejected query")))
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.failures, 1)
	require.True(t, rec.Address.Equal(notifier.failures[0].Address))

	// same failure streak is not re-reported
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.failures, 1)

	// recovery resets the streak, a new failure is reported again
	fc.set(rec)
	require.NoError(t, w.PollOnce(context.Background()))
	fc.fail(rec.Address, client.PermanentError(errors.New("rejected query")))
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.failures, 2)
}

func TestWatcher_NotFoundResetsFailureStreak(t *testing.T) {
	rec := testValidatorRecord(t)
	fc := newFakeValidatorClient()
	fc.set(rec)
	notifier := &recordingNotifier{}
	w := newTestWatcher(t, fc, StaticAddresses{rec.Address}, notifier)

	require.NoError(t, w.PollOnce(context.Background()))

	fc.fail(rec.Address, client.PermanentError(errors.New("rejected query")))
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.failures, 1)

	// the address answers again, just without validator state
	fc.mu.Lock()
	delete(fc.errs, rec.Address.String())
	delete(fc.records, rec.Address.String())
	fc.mu.Unlock()
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.failures, 1)

	// a failure after that is a new streak and is reported again
	fc.fail(rec.Address, client.PermanentError(errors.New("rejected query")))
	require.NoError(t, w.PollOnce(context.Background()))
	require.Len(t, notifier.failures, 2)
}

func TestWatcher_AddressProviderFailure(t *testing.T) {
	fc := newFakeValidatorClient()
	provider := addressProviderFunc(func(context.Context) ([]types.Address, error) {
		return nil, errors.New("db is closed")
	})
	w := newTestWatcher(t, fc, provider, &recordingNotifier{})
	require.ErrorContains(t, w.PollOnce(context.Background()), "listing watched addresses")
}

type addressProviderFunc func(ctx context.Context) ([]types.Address, error)

func (f addressProviderFunc) WatchedAddresses(ctx context.Context) ([]types.Address, error) {
	return f(ctx)
}

func TestWatcher_PersistentStoreSurvivesRestart(t *testing.T) {
	rec := testValidatorRecord(t)
	fc := newFakeValidatorClient()
	fc.set(rec)
	store := NewMemoryStore()

	notifier := &recordingNotifier{}
	w := newTestWatcher(t, fc, StaticAddresses{rec.Address}, notifier, WithStore(store))
	require.NoError(t, w.PollOnce(context.Background()))

	// a new watcher over the same store sees the old baseline
	jailed := *rec
	jailed.State = types.StateJailed
	fc.set(&jailed)

	restarted := newTestWatcher(t, fc, StaticAddresses{rec.Address}, notifier, WithStore(store))
	require.NoError(t, restarted.PollOnce(context.Background()))
	require.Len(t, notifier.changes, 1)
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	rec := testValidatorRecord(t)
	fc := newFakeValidatorClient()
	fc.set(rec)
	w := newTestWatcher(t, fc, StaticAddresses{rec.Address}, &recordingNotifier{}, WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}
