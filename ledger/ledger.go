// Package ledger describes the external ledger the child chain is anchored
// to: the deposit and exit events it emits and the header submission it
// accepts.
package ledger

import (
	"context"
	"errors"
	"math/big"

	"plasma.dev/node/consensus"
)

// ErrHeaderRejected is returned when the anchor contract refuses a header.
var ErrHeaderRejected = errors.New("ledger rejected block header")

type DepositEvent struct {
	LedgerBlock  uint64
	Depositor    consensus.Address
	Amount       *big.Int
	DepositIndex *big.Int
}

// ExpressWithdrawEvent reports that the Withdraw transaction at
// (BlockNumber, TxNumber) signed by Owner was paid out on the ledger.
type ExpressWithdrawEvent struct {
	LedgerBlock uint64
	Owner       consensus.Address
	BlockNumber uint32
	TxNumber    uint32
}

// HeaderSubmitted is the event the anchor contract emits once it accepts
// a header.
type HeaderSubmitted struct {
	LedgerBlock uint64
	Signer      consensus.Address
	BlockNumber uint32
}

type Ledger interface {
	// BlockNumber is the current external ledger height.
	BlockNumber(ctx context.Context) (uint64, error)
	// DepositEvents returns deposits emitted in ledger blocks [from, to].
	DepositEvents(ctx context.Context, from, to uint64) ([]DepositEvent, error)
	// ExpressWithdrawEvents returns exits emitted in ledger blocks [from, to].
	ExpressWithdrawEvents(ctx context.Context, from, to uint64) ([]ExpressWithdrawEvent, error)
	// LastSubmittedHeader is the highest child block number the contract
	// has accepted, zero if none.
	LastSubmittedHeader(ctx context.Context) (uint32, error)
	// SubmitBlockHeader sends an encoded, operator-signed header and waits
	// for the acceptance event.
	SubmitBlockHeader(ctx context.Context, header []byte) (*HeaderSubmitted, error)
}
