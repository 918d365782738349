package node

import (
	"context"
	"errors"
	"fmt"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/ledger"
	"plasma.dev/node/log"
	"plasma.dev/node/node/store"
)

type IngestConfig struct {
	// StartBlock is the first ledger block read when no checkpoint exists.
	StartBlock uint64
	// Confirmations keeps ingestion this many blocks behind the ledger head.
	Confirmations uint64
}

// Ingestor applies external ledger events to the child chain one ledger
// block at a time.
type Ingestor struct {
	db      *store.DB
	ledger  ledger.Ledger
	queue   *TxQueue
	signer  crypto.Signer
	cfg     IngestConfig
	logger  log.Logger
	metrics *Metrics
}

func NewIngestor(db *store.DB, l ledger.Ledger, queue *TxQueue, signer crypto.Signer, cfg IngestConfig, logger log.Logger, metrics *Metrics) (*Ingestor, error) {
	if db == nil {
		return nil, errors.New("nil store")
	}
	if l == nil {
		return nil, errors.New("nil ledger")
	}
	if queue == nil {
		return nil, errors.New("nil tx queue")
	}
	if signer == nil {
		return nil, errors.New("nil operator signer")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Ingestor{db: db, ledger: l, queue: queue, signer: signer, cfg: cfg, logger: logger, metrics: metrics}, nil
}

// nextLedgerBlock is the checkpoint plus one, or the configured start block.
func (i *Ingestor) nextLedgerBlock() (uint64, error) {
	last, ok, err := i.db.LastLedgerBlock()
	if err != nil {
		return 0, err
	}
	if !ok {
		return i.cfg.StartBlock, nil
	}
	return last + 1, nil
}

// IngestOnce processes the next ledger block: exits first, then deposits.
// It reports false when the ledger has no confirmed block to offer. On any
// error the checkpoint is left alone and the same block is retried.
func (i *Ingestor) IngestOnce(ctx context.Context) (bool, error) {
	next, err := i.nextLedgerBlock()
	if err != nil {
		return false, fmt.Errorf("ingest: read checkpoint: %w", err)
	}
	height, err := i.ledger.BlockNumber(ctx)
	if err != nil {
		return false, fmt.Errorf("ingest: ledger height: %w", err)
	}
	if height < i.cfg.Confirmations || next > height-i.cfg.Confirmations {
		return false, nil
	}

	exits, err := i.ledger.ExpressWithdrawEvents(ctx, next, next)
	if err != nil {
		return false, fmt.Errorf("ingest: ledger block %d exits: %w", next, err)
	}
	deposits, err := i.ledger.DepositEvents(ctx, next, next)
	if err != nil {
		return false, fmt.Errorf("ingest: ledger block %d deposits: %w", next, err)
	}

	keys := make([]store.WithdrawKey, 0, len(exits))
	for _, e := range exits {
		keys = append(keys, store.WithdrawKey{Owner: e.Owner, BlockNumber: e.BlockNumber, TxNumber: e.TxNumber})
	}
	funds := make([]*consensus.Tx, 0, len(deposits))
	for _, d := range deposits {
		if d.Amount == nil || d.DepositIndex == nil {
			return false, fmt.Errorf("ingest: ledger block %d: incomplete deposit event", next)
		}
		tx := consensus.NewFundTx(d.Depositor, d.Amount, d.DepositIndex)
		if err := consensus.SignTx(tx, i.signer); err != nil {
			return false, fmt.Errorf("ingest: sign fund for deposit %s: %w", d.DepositIndex, err)
		}
		funds = append(funds, tx)
	}

	staged, err := i.db.CommitIngestion(next, keys, funds)
	if err != nil {
		return false, fmt.Errorf("ingest: commit ledger block %d: %w", next, err)
	}
	i.queue.Push(staged...)

	i.metrics.LedgerCheckpoint.Set(float64(next))
	i.metrics.Exits.Add(float64(len(keys)))
	i.metrics.Deposits.Add(float64(len(staged)))
	if len(keys) > 0 || len(staged) > 0 {
		i.logger.Info("ingested ledger block", "ledger_block", next, "exits", len(keys), "deposits", len(staged))
	} else {
		i.logger.Debug("ingested ledger block", "ledger_block", next)
	}
	return true, nil
}
