package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/ledger"
	"plasma.dev/node/ledger/ethledger"
	"plasma.dev/node/log"
	"plasma.dev/node/node"
	"plasma.dev/node/node/store"
)

const metricsNamespace = "plasma"

// NewStartCmd runs the operator until interrupted.
func NewStartCmd(conf *node.Config, logger *log.Logger) *cobra.Command {
	var gasLimit uint64
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the miner and the ledger bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runNode(ctx, *conf, *logger, gasLimit)
		},
	}

	defaults := node.DefaultConfig()
	f := cmd.Flags()
	f.Duration("block-time", defaults.BlockTime, "interval between block-building cycles")
	f.Duration("fast-poll", defaults.FastPoll, "bridge poll interval after progress")
	f.Duration("slow-poll", defaults.SlowPoll, "bridge poll interval when idle or failing")
	f.Int("max-txs", defaults.MaxTxPerBlock, "maximum transactions per block")
	f.Uint64("ledger-start", defaults.LedgerStartBlock, "first ledger block to ingest on a fresh store")
	f.Uint64("confirmations", defaults.Confirmations, "ledger blocks to stay behind the head")
	f.String("metrics-listen", defaults.MetricsAddr, "prometheus listen address, empty to disable")
	f.Uint64Var(&gasLimit, "gas-limit", 0, "gas limit for header submissions, 0 to estimate")
	return cmd
}

func runNode(ctx context.Context, conf node.Config, logger log.Logger, gasLimit uint64) error {
	key, err := crypto.LoadPrivKeyFile(conf.KeyFile())
	if err != nil {
		return fmt.Errorf("operator key: %w", err)
	}
	operator := consensus.Address(key.Address())

	db, err := store.Open(conf.DataDir, store.Options{AddressIndex: conf.MakeAddressIndex})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close store", "err", err)
		}
	}()

	var l ledger.Ledger
	switch conf.LedgerMode {
	case node.LedgerModeEth:
		client, err := ethledger.Dial(ctx, ethledger.Config{
			RPC:      conf.LedgerRPC,
			Contract: conf.ContractAddress,
			GasLimit: gasLimit,
		}, key)
		if err != nil {
			return err
		}
		defer client.Close()
		l = client
	case node.LedgerModeMem:
		dev, err := node.OpenMemLedger(db, operator)
		if err != nil {
			return err
		}
		logger.Info("using in-memory ledger, deposits and exits will not arrive")
		l = dev
	default:
		return fmt.Errorf("unknown ledger mode %q", conf.LedgerMode)
	}

	metrics := node.NopMetrics()
	if conf.MetricsAddr != "" {
		metrics = node.PrometheusMetrics(metricsNamespace)
		srv := startMetricsServer(conf.MetricsAddr, logger)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	n, err := node.NewNode(conf, db, l, key, logger, metrics)
	if err != nil {
		return err
	}
	logger.Info("operator starting", "datadir", conf.DataDir, "ledger", conf.LedgerMode, "operator", operator.Hex())
	if err := n.Run(ctx); err != nil {
		return err
	}
	logger.Info("operator stopped")
	return nil
}

func startMetricsServer(addr string, logger log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
			_, _ = fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
