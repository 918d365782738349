package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrLocked is returned by Open while another process, usually a running
// operator, holds the database.
var ErrLocked = errors.New("store is locked by another process")

var (
	bucketMeta            = []byte("meta")
	bucketBlocks          = []byte("blocks")
	bucketHeaders         = []byte("headers")
	bucketTxs             = []byte("txs")
	bucketUtxo            = []byte("utxo")
	bucketUtxoByAddr      = []byte("utxo_by_addr")
	bucketTxByAddr        = []byte("tx_by_addr")
	bucketWithdrawByAddr  = []byte("withdraw_by_addr")
	bucketDeposits        = []byte("deposits")
	bucketPendingDeposits = []byte("pending_deposits")

	allBuckets = [][]byte{
		bucketMeta, bucketBlocks, bucketHeaders, bucketTxs, bucketUtxo,
		bucketUtxoByAddr, bucketTxByAddr, bucketWithdrawByAddr,
		bucketDeposits, bucketPendingDeposits,
	}
)

var (
	metaLastBlockNumber     = []byte("lastBlockNumber")
	metaLastBlockHash       = []byte("lastBlockHash")
	metaLastLedgerBlock     = []byte("lastLedgerBlock")
	metaLastSubmittedHeader = []byte("lastSubmittedHeader")
)

type Options struct {
	// AddressIndex maintains utxo_by_addr and tx_by_addr on commit.
	AddressIndex bool
}

// DB is the chain state store. CommitBlock is the only writer of UTXO
// entries; bbolt serializes it against every other Update.
type DB struct {
	path         string
	db           *bolt.DB
	addressIndex bool
}

func Open(datadir string, opts Options) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	path := DBPath(datadir)
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{path: path, db: bdb, addressIndex: opts.AddressIndex}, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Path() string { return d.path }

func (d *DB) AddressIndex() bool { return d.addressIndex }
