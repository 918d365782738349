package node

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/ledger"
	"plasma.dev/node/log"
	"plasma.dev/node/node/store"
)

// Node wires the miner and the two bridge loops around one store and one
// pending queue.
type Node struct {
	cfg       Config
	db        *store.DB
	queue     *TxQueue
	miner     *Miner
	ingestor  *Ingestor
	submitter *Submitter
	logger    log.Logger
	metrics   *Metrics
}

func NewNode(cfg Config, db *store.DB, l ledger.Ledger, signer crypto.Signer, logger log.Logger, metrics *Metrics) (*Node, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	queue := NewTxQueue()
	miner, err := NewMiner(db, queue, signer, MinerConfig{MaxTxPerBlock: cfg.MaxTxPerBlock}, logger.With("module", "miner"), metrics)
	if err != nil {
		return nil, err
	}
	ingestor, err := NewIngestor(db, l, queue, signer, IngestConfig{
		StartBlock:    cfg.LedgerStartBlock,
		Confirmations: cfg.Confirmations,
	}, logger.With("module", "ingest"), metrics)
	if err != nil {
		return nil, err
	}
	submitter, err := NewSubmitter(db, l, logger.With("module", "submit"), metrics)
	if err != nil {
		return nil, err
	}
	return &Node{
		cfg:       cfg,
		db:        db,
		queue:     queue,
		miner:     miner,
		ingestor:  ingestor,
		submitter: submitter,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func (n *Node) Queue() *TxQueue { return n.queue }

func (n *Node) Miner() *Miner { return n.miner }

func (n *Node) Ingestor() *Ingestor { return n.ingestor }

func (n *Node) Submitter() *Submitter { return n.submitter }

// SubmitTx hands a signed, schema-checked transaction to the miner.
func (n *Node) SubmitTx(tx *consensus.Tx) error {
	if tx == nil {
		return errors.New("nil tx")
	}
	if _, err := consensus.EncodeTx(tx); err != nil {
		return err
	}
	n.queue.Push(tx)
	return nil
}

// Recover re-enqueues Fund transactions that were staged by ingestion but
// not yet committed when the process stopped.
func (n *Node) Recover() error {
	pending, err := n.db.PendingDeposits()
	if err != nil {
		return fmt.Errorf("recover pending deposits: %w", err)
	}
	n.queue.Push(pending...)
	if len(pending) > 0 {
		n.logger.Info("re-enqueued staged deposits", "count", len(pending))
	}
	return nil
}

// Run recovers staged deposits, then runs the miner, ingestion and
// submission loops until ctx is cancelled. An operation already in flight
// finishes before Run returns.
func (n *Node) Run(ctx context.Context) error {
	if err := n.Recover(); err != nil {
		return err
	}
	tip, err := n.db.Tip()
	if err != nil {
		return err
	}
	n.metrics.Height.Set(float64(tip.Number))
	n.logger.Info("starting operator", "height", tip.Number, "operator", n.miner.operator.Hex())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runLoop(gctx, n.miner.logger, n.cfg.BlockTime, n.cfg.BlockTime, func(ctx context.Context) (bool, error) {
			mb, err := n.miner.MineOne(ctx)
			return mb != nil, err
		})
	})
	g.Go(func() error {
		return runLoop(gctx, n.ingestor.logger, n.cfg.FastPoll, n.cfg.SlowPoll, n.ingestor.IngestOnce)
	})
	g.Go(func() error {
		return runLoop(gctx, n.submitter.logger, n.cfg.FastPoll, n.cfg.SlowPoll, n.submitter.SubmitOnce)
	})
	return g.Wait()
}
