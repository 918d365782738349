package store

import (
	"fmt"
	"math/big"

	"plasma.dev/node/consensus"

	bolt "go.etcd.io/bbolt"
)

type UTXO struct {
	Key    consensus.UTXOKey
	Output consensus.TxOutput
}

type TxRef struct {
	BlockNumber uint32
	TxNumber    uint32
	Type        consensus.TxType
}

// Withdrawal is a pending-withdrawal marker written when a Withdraw
// transaction commits and removed once the ledger reports the exit.
type Withdrawal struct {
	BlockNumber uint32
	TxNumber    uint32
	Output      consensus.TxOutput
}

type Tip struct {
	Number uint32
	Hash   [32]byte
}

// Snapshot is a read-only, point-in-time view of chain state.
type Snapshot struct {
	tx *bolt.Tx
}

var _ consensus.UtxoView = (*Snapshot)(nil)

func (d *DB) View(fn func(s *Snapshot) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		return fn(&Snapshot{tx: tx})
	})
}

func (s *Snapshot) GetUTXO(key consensus.UTXOKey) (consensus.TxOutput, bool, error) {
	v := s.tx.Bucket(bucketUtxo).Get(key.Bytes())
	if v == nil {
		return consensus.TxOutput{}, false, nil
	}
	o, err := consensus.DecodeOutput(v)
	if err != nil {
		return consensus.TxOutput{}, false, fmt.Errorf("utxo %s: %w", key, err)
	}
	return o, true, nil
}

func (s *Snapshot) HasDeposit(idx *big.Int) (bool, error) {
	k, err := depositKey(idx)
	if err != nil {
		return false, err
	}
	return s.tx.Bucket(bucketDeposits).Get(k) != nil, nil
}

func (s *Snapshot) HasPendingDeposit(idx *big.Int) (bool, error) {
	k, err := depositKey(idx)
	if err != nil {
		return false, err
	}
	return s.tx.Bucket(bucketPendingDeposits).Get(k) != nil, nil
}

func (s *Snapshot) Tip() (Tip, error) {
	return readTip(s.tx)
}

func readTip(tx *bolt.Tx) (Tip, error) {
	meta := tx.Bucket(bucketMeta)
	raw := meta.Get(metaLastBlockNumber)
	if raw == nil {
		return Tip{Number: 0, Hash: consensus.GenesisParentHash}, nil
	}
	n, err := decodeU32(raw)
	if err != nil {
		return Tip{}, fmt.Errorf("meta %s: %w", metaLastBlockNumber, err)
	}
	h := meta.Get(metaLastBlockHash)
	if len(h) != 32 {
		return Tip{}, fmt.Errorf("meta %s: bad length %d", metaLastBlockHash, len(h))
	}
	out := Tip{Number: n}
	copy(out.Hash[:], h)
	return out, nil
}

// Tip returns the last committed block number and header hash. An empty
// chain reports block 0 with the genesis parent hash.
func (d *DB) Tip() (Tip, error) {
	var out Tip
	err := d.View(func(s *Snapshot) error {
		var err error
		out, err = s.Tip()
		return err
	})
	return out, err
}

func (d *DB) GetUTXO(key consensus.UTXOKey) (consensus.TxOutput, bool, error) {
	var (
		out consensus.TxOutput
		ok  bool
	)
	err := d.View(func(s *Snapshot) error {
		var err error
		out, ok, err = s.GetUTXO(key)
		return err
	})
	return out, ok, err
}

func (d *DB) HasDeposit(idx *big.Int) (bool, error) {
	var ok bool
	err := d.View(func(s *Snapshot) error {
		var err error
		ok, err = s.HasDeposit(idx)
		return err
	})
	return ok, err
}

func (d *DB) getBytes(bucket []byte, key []byte) ([]byte, bool, error) {
	var out []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(key)
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (d *DB) GetBlockBytes(n uint32) ([]byte, bool, error) {
	return d.getBytes(bucketBlocks, blockKey(n))
}

func (d *DB) GetBlock(n uint32) (*consensus.Block, bool, error) {
	raw, ok, err := d.GetBlockBytes(n)
	if err != nil || !ok {
		return nil, ok, err
	}
	b, err := consensus.DecodeBlock(raw)
	if err != nil {
		return nil, false, fmt.Errorf("block %d: %w", n, err)
	}
	return b, true, nil
}

func (d *DB) GetHeader(n uint32) (*consensus.BlockHeader, bool, error) {
	raw, ok, err := d.getBytes(bucketHeaders, blockKey(n))
	if err != nil || !ok {
		return nil, ok, err
	}
	h, err := consensus.DecodeHeader(raw)
	if err != nil {
		return nil, false, fmt.Errorf("header %d: %w", n, err)
	}
	return h, true, nil
}

func (d *DB) GetTx(block uint32, txNumber uint32) (*consensus.Tx, bool, error) {
	raw, ok, err := d.getBytes(bucketTxs, txKey(block, txNumber))
	if err != nil || !ok {
		return nil, ok, err
	}
	tx, err := consensus.DecodeTx(raw)
	if err != nil {
		return nil, false, fmt.Errorf("tx %d:%d: %w", block, txNumber, err)
	}
	return tx, true, nil
}

// UTXOsForAddress lists unspent outputs owned by addr, newest first. With
// the address index it walks utxo_by_addr, which never holds auxiliary
// outputs; without it the full UTXO set is scanned and auxiliary outputs
// are skipped.
func (d *DB) UTXOsForAddress(addr consensus.Address) ([]UTXO, error) {
	var out []UTXO
	err := d.db.View(func(tx *bolt.Tx) error {
		if d.addressIndex {
			return reverseScanPrefix(tx.Bucket(bucketUtxoByAddr), addr[:], addrUtxoKeyLength, func(k, v []byte) error {
				key, err := consensus.UTXOKeyFromBytes(k[consensus.AddressLength:])
				if err != nil {
					return err
				}
				o, err := consensus.DecodeOutput(v)
				if err != nil {
					return fmt.Errorf("utxo %s: %w", key, err)
				}
				out = append(out, UTXO{Key: key, Output: o})
				return nil
			})
		}
		return reverseScanPrefix(tx.Bucket(bucketUtxo), nil, consensus.UTXOKeyLength, func(k, v []byte) error {
			o, err := consensus.DecodeOutput(v)
			if err != nil {
				return err
			}
			if o.Recipient != addr || o.IsAuxiliary() {
				return nil
			}
			key, err := consensus.UTXOKeyFromBytes(k)
			if err != nil {
				return err
			}
			out = append(out, UTXO{Key: key, Output: o})
			return nil
		})
	})
	return out, err
}

// TxsForAddress lists transactions touching addr, newest first. It needs
// the address index.
func (d *DB) TxsForAddress(addr consensus.Address) ([]TxRef, error) {
	if !d.addressIndex {
		return nil, fmt.Errorf("address index disabled")
	}
	var out []TxRef
	err := d.db.View(func(tx *bolt.Tx) error {
		return reverseScanPrefix(tx.Bucket(bucketTxByAddr), addr[:], addrTxKeyLength, func(k, v []byte) error {
			block, txNumber, err := decodeTxKey(k[consensus.AddressLength:])
			if err != nil {
				return err
			}
			if len(v) != 1 {
				return fmt.Errorf("tx_by_addr value: bad length %d", len(v))
			}
			out = append(out, TxRef{BlockNumber: block, TxNumber: txNumber, Type: consensus.TxType(v[0])})
			return nil
		})
	})
	return out, err
}

func (d *DB) WithdrawsForAddress(addr consensus.Address) ([]Withdrawal, error) {
	var out []Withdrawal
	err := d.db.View(func(tx *bolt.Tx) error {
		return reverseScanPrefix(tx.Bucket(bucketWithdrawByAddr), addr[:], addrTxKeyLength, func(k, v []byte) error {
			block, txNumber, err := decodeTxKey(k[consensus.AddressLength:])
			if err != nil {
				return err
			}
			o, err := consensus.DecodeOutput(v)
			if err != nil {
				return err
			}
			out = append(out, Withdrawal{BlockNumber: block, TxNumber: txNumber, Output: o})
			return nil
		})
	})
	return out, err
}
