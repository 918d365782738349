package node

import (
	"context"
	"errors"
	"fmt"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/log"
	"plasma.dev/node/node/store"
)

type MinerConfig struct {
	MaxTxPerBlock int
}

type MinedBlock struct {
	Number  uint32
	Hash    [32]byte
	TxCount int
	Dropped int
}

type Miner struct {
	db       *store.DB
	queue    *TxQueue
	signer   crypto.Signer
	operator consensus.Address
	cfg      MinerConfig
	logger   log.Logger
	metrics  *Metrics
}

func DefaultMinerConfig() MinerConfig {
	return MinerConfig{MaxTxPerBlock: consensus.MaxTxPerBlock}
}

func NewMiner(db *store.DB, queue *TxQueue, signer crypto.Signer, cfg MinerConfig, logger log.Logger, metrics *Metrics) (*Miner, error) {
	if db == nil {
		return nil, errors.New("nil store")
	}
	if queue == nil {
		return nil, errors.New("nil tx queue")
	}
	if signer == nil {
		return nil, errors.New("nil operator signer")
	}
	if cfg.MaxTxPerBlock <= 0 || cfg.MaxTxPerBlock > consensus.MaxTxPerBlock {
		cfg.MaxTxPerBlock = consensus.MaxTxPerBlock
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Miner{
		db:       db,
		queue:    queue,
		signer:   signer,
		operator: consensus.Address(signer.Address()),
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// MineOne runs one block-building cycle. It returns nil without error when
// nothing was pending or every pending transaction was rejected. The
// drained prefix leaves the queue only once the block is committed, or
// once the cycle rejected all of it.
func (m *Miner) MineOne(ctx context.Context) (*MinedBlock, error) {
	if m == nil || m.db == nil || m.queue == nil {
		return nil, errors.New("miner is not initialized")
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	batch := m.queue.Peek(m.cfg.MaxTxPerBlock)
	m.metrics.QueueSize.Set(float64(m.queue.Len()))
	if len(batch) == 0 {
		return nil, nil
	}

	var (
		tip      store.Tip
		selected []*consensus.Tx
		senders  []consensus.Address
	)
	err := m.db.View(func(s *store.Snapshot) error {
		var err error
		if tip, err = s.Tip(); err != nil {
			return err
		}
		selected, senders = m.selectTxs(s, batch)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("miner: read chain state: %w", err)
	}
	dropped := len(batch) - len(selected)

	if len(selected) == 0 {
		m.queue.Remove(len(batch))
		m.metrics.DroppedTxs.Add(float64(dropped))
		m.logger.Debug("no valid transactions, skipping block", "dropped", dropped)
		return nil, nil
	}

	b, _, err := consensus.BuildBlock(tip.Number+1, tip.Hash, selected)
	if err != nil {
		return nil, fmt.Errorf("miner: build block %d: %w", tip.Number+1, err)
	}
	if err := consensus.SignHeader(&b.Header, m.signer); err != nil {
		return nil, fmt.Errorf("miner: sign header %d: %w", b.Header.BlockNumber, err)
	}
	if err := consensus.ValidateBlock(b, m.operator); err != nil {
		return nil, fmt.Errorf("miner: self-check block %d: %w", b.Header.BlockNumber, err)
	}
	if err := m.db.CommitBlock(b, senders); err != nil {
		return nil, err
	}
	m.queue.Remove(len(batch))
	m.metrics.DroppedTxs.Add(float64(dropped))

	hash := consensus.HeaderHash(&b.Header)
	m.metrics.Height.Set(float64(b.Header.BlockNumber))
	m.metrics.NumTxs.Set(float64(len(selected)))
	m.metrics.TotalTxs.Add(float64(len(selected)))
	m.metrics.QueueSize.Set(float64(m.queue.Len()))
	m.logger.Info("committed block",
		"number", b.Header.BlockNumber,
		"txs", len(selected),
		"dropped", dropped,
		"hash", fmt.Sprintf("%x", hash[:]),
	)
	return &MinedBlock{
		Number:  b.Header.BlockNumber,
		Hash:    hash,
		TxCount: len(selected),
		Dropped: dropped,
	}, nil
}

// selectTxs keeps, in queue order, the transactions that survive spend-set
// deduplication and validation and that do not reuse an input or deposit
// index already claimed earlier in the batch.
func (m *Miner) selectTxs(view consensus.UtxoView, batch []*consensus.Tx) ([]*consensus.Tx, []consensus.Address) {
	spendKeys := make(map[string]struct{}, len(batch))
	claimed := make(map[consensus.UTXOKey]struct{}, len(batch))
	deposits := make(map[string]struct{})

	var (
		out     []*consensus.Tx
		senders []consensus.Address
	)
	for _, tx := range batch {
		if !tx.IsMint() {
			k := tx.SpendKey()
			if _, dup := spendKeys[k]; dup {
				m.logger.Debug("dropping duplicate spend", "spend_key", k)
				continue
			}
			spendKeys[k] = struct{}{}
		}

		res, err := consensus.CheckSpend(view, tx, m.operator)
		if err != nil {
			m.logger.Debug("dropping transaction", "type", tx.Type.String(), "code", string(consensus.CodeOf(err)), "err", err)
			continue
		}

		if idx, ok := tx.DepositIndex(); ok {
			if _, dup := deposits[idx.String()]; dup {
				m.logger.Debug("dropping repeated deposit", "deposit_index", idx.String())
				continue
			}
			deposits[idx.String()] = struct{}{}
		} else if conflictsWith(claimed, tx) {
			m.logger.Debug("dropping transaction spending a claimed input", "type", tx.Type.String())
			continue
		}
		for _, in := range tx.Inputs {
			if !in.Key().IsMint() {
				claimed[in.Key()] = struct{}{}
			}
		}
		out = append(out, tx)
		senders = append(senders, res.Sender)
	}
	return out, senders
}

func conflictsWith(claimed map[consensus.UTXOKey]struct{}, tx *consensus.Tx) bool {
	for _, in := range tx.Inputs {
		if _, ok := claimed[in.Key()]; ok {
			return true
		}
	}
	return false
}
