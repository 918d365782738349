package store

import (
	"fmt"
	"math/big"

	"plasma.dev/node/consensus"

	bolt "go.etcd.io/bbolt"
)

// WithdrawKey addresses one pending-withdrawal marker.
type WithdrawKey struct {
	Owner       consensus.Address
	BlockNumber uint32
	TxNumber    uint32
}

// LastLedgerBlock is the ingestion checkpoint: the last external ledger
// block whose events are fully applied.
func (d *DB) LastLedgerBlock() (uint64, bool, error) {
	raw, ok, err := d.getBytes(bucketMeta, metaLastLedgerBlock)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := decodeU64(raw)
	if err != nil {
		return 0, false, fmt.Errorf("meta %s: %w", metaLastLedgerBlock, err)
	}
	return n, true, nil
}

// LastSubmittedHeader is the submission checkpoint; zero before the first
// header is confirmed.
func (d *DB) LastSubmittedHeader() (uint32, error) {
	raw, ok, err := d.getBytes(bucketMeta, metaLastSubmittedHeader)
	if err != nil || !ok {
		return 0, err
	}
	n, err := decodeU32(raw)
	if err != nil {
		return 0, fmt.Errorf("meta %s: %w", metaLastSubmittedHeader, err)
	}
	return n, nil
}

func (d *DB) SetLastSubmittedHeader(n uint32) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if raw := meta.Get(metaLastSubmittedHeader); raw != nil {
			cur, err := decodeU32(raw)
			if err != nil {
				return err
			}
			if n <= cur {
				return fmt.Errorf("submitted header checkpoint regression: %d -> %d", cur, n)
			}
		}
		return meta.Put(metaLastSubmittedHeader, encodeU32(n))
	})
}

// CommitIngestion applies one external ledger block: it removes exited
// withdrawal markers, stages Fund transactions for deposits not yet staged
// or credited, and advances the ingestion checkpoint to ledgerBlock, all
// in one bbolt transaction. It returns the transactions it staged.
func (d *DB) CommitIngestion(ledgerBlock uint64, exits []WithdrawKey, funds []*consensus.Tx) ([]*consensus.Tx, error) {
	type stagedFund struct {
		tx  *consensus.Tx
		idx *big.Int
		key []byte
		raw []byte
	}
	prepared := make([]stagedFund, 0, len(funds))
	for _, f := range funds {
		idx, ok := f.DepositIndex()
		if !ok {
			return nil, fmt.Errorf("ingest: fund tx without deposit index")
		}
		k, err := depositKey(idx)
		if err != nil {
			return nil, err
		}
		raw, err := consensus.EncodeTx(f)
		if err != nil {
			return nil, fmt.Errorf("ingest: encode fund %s: %w", idx, err)
		}
		prepared = append(prepared, stagedFund{tx: f, idx: idx, key: k, raw: raw})
	}

	var staged []*consensus.Tx
	err := d.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if raw := meta.Get(metaLastLedgerBlock); raw != nil {
			cur, err := decodeU64(raw)
			if err != nil {
				return err
			}
			if ledgerBlock <= cur {
				return fmt.Errorf("ingest: ledger block %d already processed (checkpoint %d)", ledgerBlock, cur)
			}
		}

		withdraws := tx.Bucket(bucketWithdrawByAddr)
		for _, e := range exits {
			if err := withdraws.Delete(addrTxKey(e.Owner, e.BlockNumber, e.TxNumber)); err != nil {
				return err
			}
		}

		snap := &Snapshot{tx: tx}
		pending := tx.Bucket(bucketPendingDeposits)
		for _, p := range prepared {
			credited, err := snap.HasDeposit(p.idx)
			if err != nil {
				return err
			}
			queued, err := snap.HasPendingDeposit(p.idx)
			if err != nil {
				return err
			}
			if credited || queued {
				continue
			}
			if err := pending.Put(p.key, p.raw); err != nil {
				return err
			}
			staged = append(staged, p.tx)
		}
		return meta.Put(metaLastLedgerBlock, encodeU64(ledgerBlock))
	})
	if err != nil {
		return nil, err
	}
	return staged, nil
}

// PendingDeposits returns staged Fund transactions not yet committed in a
// block, in deposit index order.
func (d *DB) PendingDeposits() ([]*consensus.Tx, error) {
	var out []*consensus.Tx
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPendingDeposits).ForEach(func(k, v []byte) error {
			f, err := consensus.DecodeTx(v)
			if err != nil {
				return fmt.Errorf("pending deposit %x: %w", k, err)
			}
			out = append(out, f)
			return nil
		})
	})
	return out, err
}

// LastDepositIndex is the highest deposit index credited or staged, or nil
// when the store has seen no deposit.
func (d *DB) LastDepositIndex() (*big.Int, error) {
	var out *big.Int
	err := d.db.View(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDeposits, bucketPendingDeposits} {
			k, _ := tx.Bucket(name).Cursor().Last()
			if k == nil {
				continue
			}
			idx := new(big.Int).SetBytes(k)
			if out == nil || idx.Cmp(out) > 0 {
				out = idx
			}
		}
		return nil
	})
	return out, err
}
