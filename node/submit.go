package node

import (
	"context"
	"errors"
	"fmt"

	"plasma.dev/node/consensus"
	"plasma.dev/node/ledger"
	"plasma.dev/node/log"
	"plasma.dev/node/node/store"
)

// ErrBridgeDesync pauses header submission when the ledger's accepted
// height trails the submission checkpoint.
var ErrBridgeDesync = errors.New("bridge desync")

// Submitter anchors committed block headers on the ledger, one at a time
// and in order.
type Submitter struct {
	db      *store.DB
	ledger  ledger.Ledger
	logger  log.Logger
	metrics *Metrics
}

func NewSubmitter(db *store.DB, l ledger.Ledger, logger log.Logger, metrics *Metrics) (*Submitter, error) {
	if db == nil {
		return nil, errors.New("nil store")
	}
	if l == nil {
		return nil, errors.New("nil ledger")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Submitter{db: db, ledger: l, logger: logger, metrics: metrics}, nil
}

// SubmitOnce moves the submission checkpoint forward by at most one block.
// A header the ledger already holds only advances the checkpoint. A
// target more than one past the ledger's accepted height is never sent.
func (s *Submitter) SubmitOnce(ctx context.Context) (bool, error) {
	last, err := s.db.LastSubmittedHeader()
	if err != nil {
		return false, fmt.Errorf("submit: read checkpoint: %w", err)
	}
	target := last + 1

	tip, err := s.db.Tip()
	if err != nil {
		return false, fmt.Errorf("submit: read tip: %w", err)
	}
	if target > tip.Number {
		return false, nil
	}

	accepted, err := s.ledger.LastSubmittedHeader(ctx)
	if err != nil {
		return false, fmt.Errorf("submit: ledger accepted height: %w", err)
	}
	if target <= accepted {
		if err := s.db.SetLastSubmittedHeader(target); err != nil {
			return false, fmt.Errorf("submit: advance checkpoint to %d: %w", target, err)
		}
		s.metrics.SubmittedHeight.Set(float64(target))
		s.metrics.BridgeDesync.Set(0)
		s.logger.Debug("header already on ledger", "number", target)
		return true, nil
	}
	if target > accepted+1 {
		s.metrics.BridgeDesync.Set(1)
		return false, fmt.Errorf("%w: next header %d, ledger accepted %d", ErrBridgeDesync, target, accepted)
	}
	s.metrics.BridgeDesync.Set(0)

	h, ok, err := s.db.GetHeader(target)
	if err != nil {
		return false, fmt.Errorf("submit: load header %d: %w", target, err)
	}
	if !ok {
		return false, fmt.Errorf("submit: header %d missing below tip %d", target, tip.Number)
	}
	ev, err := s.ledger.SubmitBlockHeader(ctx, consensus.EncodeHeader(h))
	if err != nil {
		return false, fmt.Errorf("submit: header %d: %w", target, err)
	}
	if ev == nil || ev.BlockNumber != target {
		return false, fmt.Errorf("submit: ledger confirmed %v, expected %d", ev, target)
	}
	if err := s.db.SetLastSubmittedHeader(target); err != nil {
		return false, fmt.Errorf("submit: advance checkpoint to %d: %w", target, err)
	}
	s.metrics.SubmittedHeight.Set(float64(target))
	s.logger.Info("submitted header", "number", target, "ledger_block", ev.LedgerBlock)
	return true, nil
}
