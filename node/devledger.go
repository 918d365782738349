package node

import (
	"fmt"

	"plasma.dev/node/consensus"
	"plasma.dev/node/ledger/memledger"
	"plasma.dev/node/node/store"
)

// OpenMemLedger returns an in-process ledger seeded from db, so a restarted
// development node finds its own headers accepted and its ingestion
// checkpoint reachable.
func OpenMemLedger(db *store.DB, operator consensus.Address) (*memledger.Ledger, error) {
	last, err := db.LastSubmittedHeader()
	if err != nil {
		return nil, err
	}
	headers := make([]*consensus.BlockHeader, 0, last)
	for n := uint32(1); n <= last; n++ {
		h, ok, err := db.GetHeader(n)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("memledger: submitted header %d missing from store", n)
		}
		headers = append(headers, h)
	}
	height, _, err := db.LastLedgerBlock()
	if err != nil {
		return nil, err
	}
	lastDeposit, err := db.LastDepositIndex()
	if err != nil {
		return nil, err
	}
	l := memledger.New(operator)
	if err := l.Restore(headers, height, lastDeposit); err != nil {
		return nil, err
	}
	return l, nil
}
