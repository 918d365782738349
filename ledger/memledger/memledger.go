// Package memledger is an in-process anchor contract. It records deposits
// and exits as events and accepts operator-signed headers strictly in
// sequence.
package memledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"plasma.dev/node/consensus"
	"plasma.dev/node/ledger"
)

type Ledger struct {
	mu sync.Mutex

	operator consensus.Address
	height   uint64

	deposits    []ledger.DepositEvent
	withdraws   []ledger.ExpressWithdrawEvent
	headers     []*consensus.BlockHeader
	nextDeposit int64

	submitErr error
}

var _ ledger.Ledger = (*Ledger)(nil)

// New returns an empty ledger at height 0 accepting headers signed by
// operator.
func New(operator consensus.Address) *Ledger {
	return &Ledger{operator: operator, nextDeposit: 1}
}

// Restore seeds an empty ledger with what a previous run left on the
// operator's side: the accepted headers in order, the ledger height already
// ingested and the last deposit index already issued. New deposits land
// above both.
func (l *Ledger) Restore(headers []*consensus.BlockHeader, height uint64, lastDeposit *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.height != 0 || len(l.headers) != 0 || len(l.deposits) != 0 || len(l.withdraws) != 0 {
		return errors.New("memledger: restore into a used ledger")
	}
	for i, h := range headers {
		if h == nil || h.BlockNumber != uint32(i)+1 {
			return fmt.Errorf("memledger: restore header %d out of sequence", i+1)
		}
	}
	if lastDeposit != nil {
		if !lastDeposit.IsInt64() || lastDeposit.Sign() < 0 {
			return fmt.Errorf("memledger: deposit index %s out of range", lastDeposit)
		}
		l.nextDeposit = lastDeposit.Int64() + 1
	}
	for _, h := range headers {
		cp := *h
		l.headers = append(l.headers, &cp)
	}
	l.height = height
	return nil
}

// Mine advances the ledger height by n empty blocks.
func (l *Ledger) Mine(n uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height += n
	return l.height
}

// Deposit records a deposit in a new ledger block and returns its index.
func (l *Ledger) Deposit(from consensus.Address, amount *big.Int) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height++
	idx := big.NewInt(l.nextDeposit)
	l.nextDeposit++
	l.deposits = append(l.deposits, ledger.DepositEvent{
		LedgerBlock:  l.height,
		Depositor:    from,
		Amount:       new(big.Int).Set(amount),
		DepositIndex: idx,
	})
	return new(big.Int).Set(idx)
}

// ExpressWithdraw records an exit of the Withdraw transaction at
// (block, tx) in a new ledger block.
func (l *Ledger) ExpressWithdraw(owner consensus.Address, block uint32, tx uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height++
	l.withdraws = append(l.withdraws, ledger.ExpressWithdrawEvent{
		LedgerBlock: l.height,
		Owner:       owner,
		BlockNumber: block,
		TxNumber:    tx,
	})
}

// FailSubmissions makes every SubmitBlockHeader call return err until it is
// called again with nil.
func (l *Ledger) FailSubmissions(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitErr = err
}

// AcceptHeaderDirect records h as accepted without a submission, as if
// another process had submitted it.
func (l *Ledger) AcceptHeaderDirect(h *consensus.BlockHeader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *h
	l.headers = append(l.headers, &cp)
}

// Headers returns the accepted headers in order.
func (l *Ledger) Headers() []*consensus.BlockHeader {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*consensus.BlockHeader, len(l.headers))
	copy(out, l.headers)
	return out
}

func (l *Ledger) BlockNumber(_ context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height, nil
}

func (l *Ledger) DepositEvents(_ context.Context, from, to uint64) ([]ledger.DepositEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ledger.DepositEvent
	for _, e := range l.deposits {
		if e.LedgerBlock >= from && e.LedgerBlock <= to {
			e.Amount = new(big.Int).Set(e.Amount)
			e.DepositIndex = new(big.Int).Set(e.DepositIndex)
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *Ledger) ExpressWithdrawEvents(_ context.Context, from, to uint64) ([]ledger.ExpressWithdrawEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ledger.ExpressWithdrawEvent
	for _, e := range l.withdraws {
		if e.LedgerBlock >= from && e.LedgerBlock <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *Ledger) LastSubmittedHeader(_ context.Context) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint32(len(l.headers)), nil
}

func (l *Ledger) SubmitBlockHeader(_ context.Context, raw []byte) (*ledger.HeaderSubmitted, error) {
	h, err := consensus.DecodeHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrHeaderRejected, err)
	}
	signer, err := consensus.HeaderSigner(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrHeaderRejected, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.submitErr != nil {
		return nil, l.submitErr
	}
	if signer != l.operator {
		return nil, fmt.Errorf("%w: signed by %s", ledger.ErrHeaderRejected, signer)
	}
	want := uint32(len(l.headers)) + 1
	if h.BlockNumber != want {
		return nil, fmt.Errorf("%w: block %d, expected %d", ledger.ErrHeaderRejected, h.BlockNumber, want)
	}
	l.height++
	l.headers = append(l.headers, h)
	return &ledger.HeaderSubmitted{LedgerBlock: l.height, Signer: signer, BlockNumber: h.BlockNumber}, nil
}
