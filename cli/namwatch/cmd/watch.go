package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackoreo/namwatch/client"
	"github.com/blackoreo/namwatch/client/rpchttp"
	"github.com/blackoreo/namwatch/keyvaluedb/boltdb"
	"github.com/blackoreo/namwatch/logger"
	"github.com/blackoreo/namwatch/subscription"
	"github.com/blackoreo/namwatch/types"
	"github.com/blackoreo/namwatch/watch"
)

const (
	flagNameAddress        = "address"
	flagNamePollInterval   = "poll-interval"
	flagNameConcurrency    = "concurrency"
	flagNameVotingPower    = "voting-power"
	flagNameProposals      = "proposals"
	flagNameProposalStart  = "proposal-start"
	flagNameStateDB        = "state-db"
	flagNameSubscriptionDB = "subscriptions-db"
	flagNameServerAddr     = "server-addr"

	defaultSubscriptionDBFile = "subscriptions.db"
)

type watchConfiguration struct {
	base *baseConfiguration

	nodeURL        string
	addresses      []string
	pollInterval   time.Duration
	concurrency    int
	votingPower    bool
	proposals      bool
	proposalStart  uint64
	stateDBFile    string
	subscriptionDB string
	serverAddr     string
}

func newWatchCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &watchConfiguration{base: baseConfig}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the watch daemon",
		Long: `Polls the node for the state of the watched validators and for governance
proposals, reporting every detected change. Watched addresses come either
from repeated --address flags or, when none is given, from the
subscription database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if config.nodeURL, err = cmd.Flags().GetString(flagNameNodeURL); err != nil {
				return fmt.Errorf("reading flag %q: %w", flagNameNodeURL, err)
			}
			return runWatch(cmd.Context(), config)
		},
	}
	cmd.Flags().StringSliceVar(&config.addresses, flagNameAddress, nil, "validator address to watch, repeat for multiple")
	cmd.Flags().DurationVar(&config.pollInterval, flagNamePollInterval, 60*time.Second, "how often to poll the node")
	cmd.Flags().IntVar(&config.concurrency, flagNameConcurrency, 8, "how many addresses to query in parallel")
	cmd.Flags().BoolVar(&config.votingPower, flagNameVotingPower, false, "report voting power changes too")
	cmd.Flags().BoolVar(&config.proposals, flagNameProposals, true, "track governance proposals")
	cmd.Flags().Uint64Var(&config.proposalStart, flagNameProposalStart, 0, "first governance proposal id to track")
	cmd.Flags().StringVar(&config.stateDBFile, flagNameStateDB, "", "file to persist observed validator state in, relative paths are resolved against $NW_HOME. In-memory when not set")
	cmd.Flags().StringVar(&config.subscriptionDB, flagNameSubscriptionDB, defaultSubscriptionDBFile, "subscription database file, relative paths are resolved against $NW_HOME")
	cmd.Flags().StringVar(&config.serverAddr, flagNameServerAddr, "", "listen address for the metrics/health endpoint, disabled when not set")
	return cmd
}

func runWatch(ctx context.Context, config *watchConfiguration) error {
	observe := config.base.observe
	log := config.base.log
	log.InfoContext(ctx, "starting watch daemon", logger.NodeURL(config.nodeURL))

	transport, err := rpchttp.New(config.nodeURL, observe)
	if err != nil {
		return fmt.Errorf("creating node transport: %w", err)
	}
	c := client.New(transport)

	provider, cleanup, err := addressProvider(config)
	if err != nil {
		return err
	}
	defer cleanup()

	store, storeCleanup, err := observationStore(config)
	if err != nil {
		return err
	}
	defer storeCleanup()

	var detectorOpts []watch.DetectorOption
	if config.votingPower {
		detectorOpts = append(detectorOpts, watch.WithVotingPowerChanges())
	}
	notifier := watch.NewLogNotifier(log)

	watcher, err := watch.New(c, provider, notifier, observe,
		watch.WithInterval(config.pollInterval),
		watch.WithConcurrency(config.concurrency),
		watch.WithDetector(watch.NewDetector(detectorOpts...)),
		watch.WithStore(store),
	)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	var tracker *watch.ProposalTracker
	if config.proposals {
		if tracker, err = watch.NewProposalTracker(c, notifier, observe,
			watch.WithStartID(config.proposalStart),
			watch.WithProposalInterval(config.pollInterval),
		); err != nil {
			return fmt.Errorf("creating proposal tracker: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watch.RunAll(ctx, watcher, tracker) })
	if config.serverAddr != "" {
		g.Go(func() error {
			router := mux.NewRouter()
			router.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"status":"ok"}`))
			}).Methods(http.MethodGet)
			if mh := observe.MetricsHandler(); mh != nil {
				router.Handle("/metrics", mh).Methods(http.MethodGet)
			}
			server := http.Server{
				Addr:              config.serverAddr,
				Handler:           router,
				ReadTimeout:       3 * time.Second,
				ReadHeaderTimeout: time.Second,
				WriteTimeout:      5 * time.Second,
				IdleTimeout:       30 * time.Second,
			}
			return httpsrv.Run(ctx, &server, httpsrv.ShutdownTimeout(5*time.Second))
		})
	}
	return g.Wait()
}

// addressProvider builds the watched address source: the --address flags
// when given, the subscription database otherwise.
func addressProvider(config *watchConfiguration) (watch.AddressProvider, func(), error) {
	if len(config.addresses) > 0 {
		addrs := make(watch.StaticAddresses, 0, len(config.addresses))
		for _, s := range config.addresses {
			addr, err := types.DecodeAddress(s)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid watch address %q: %w", s, err)
			}
			addrs = append(addrs, addr)
		}
		return addrs, func() {}, nil
	}

	db, err := boltdb.New(config.base.pathInHome(config.subscriptionDB))
	if err != nil {
		return nil, nil, fmt.Errorf("opening subscription database: %w", err)
	}
	return subscription.NewStore(db), func() { _ = db.Close() }, nil
}

func observationStore(config *watchConfiguration) (watch.Store, func(), error) {
	if config.stateDBFile == "" {
		return watch.NewMemoryStore(), func() {}, nil
	}
	db, err := boltdb.New(config.base.pathInHome(config.stateDBFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening state database: %w", err)
	}
	return watch.NewDBStore(db), func() { _ = db.Close() }, nil
}
