package node

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"plasma.dev/node/consensus"
	"plasma.dev/node/ledger"
	"plasma.dev/node/ledger/memledger"
	"plasma.dev/node/ledger/mocks"
	"plasma.dev/node/log"
	"plasma.dev/node/node/store"
)

func newTestIngestor(t *testing.T, db *store.DB, l ledger.Ledger, q *TxQueue, cfg IngestConfig) *Ingestor {
	t.Helper()
	i, err := NewIngestor(db, l, q, testKey(t, 1), cfg, log.TestingLogger(), NopMetrics())
	require.NoError(t, err)
	return i
}

// drain calls IngestOnce until it reports no progress.
func drain(t *testing.T, i *Ingestor) int {
	t.Helper()
	n := 0
	for {
		ok, err := i.IngestOnce(context.Background())
		require.NoError(t, err)
		if !ok {
			return n
		}
		n++
	}
}

func TestIngest_DepositsBecomeFunds(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	alice := addrOf(testKey(t, 2))
	l := memledger.New(addrOf(op))
	q := NewTxQueue()
	i := newTestIngestor(t, db, l, q, IngestConfig{StartBlock: 1})

	idx1 := l.Deposit(alice, big.NewInt(100))
	idx2 := l.Deposit(alice, big.NewInt(5))
	require.Equal(t, 2, drain(t, i))

	last, ok, err := db.LastLedgerBlock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(2), last)

	funds := q.Peek(10)
	require.Len(t, funds, 2)
	for n, want := range []*big.Int{idx1, idx2} {
		got, ok := funds[n].DepositIndex()
		require.True(t, ok)
		require.Zero(t, got.Cmp(want))
		sender, err := consensus.TxSender(funds[n])
		require.NoError(t, err)
		require.Equal(t, addrOf(op), sender)
	}

	m, err := NewMiner(db, q, op, DefaultMinerConfig(), nil, nil)
	require.NoError(t, err)
	mb := mineOne(t, m)
	require.Equal(t, 2, mb.TxCount)
	utxos, err := db.UTXOsForAddress(alice)
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	pending, err := db.PendingDeposits()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestIngest_RestartDoesNotDuplicate(t *testing.T) {
	dir := t.TempDir()
	op := testKey(t, 1)
	alice := addrOf(testKey(t, 2))
	l := memledger.New(addrOf(op))
	l.Deposit(alice, big.NewInt(100))

	db := openTestStoreAt(t, dir)
	q := NewTxQueue()
	require.Equal(t, 1, drain(t, newTestIngestor(t, db, l, q, IngestConfig{StartBlock: 1})))
	require.Equal(t, 1, q.Len())
	require.NoError(t, db.Close())

	// the queue is lost with the process; the staged deposit is not
	db = openTestStoreAt(t, dir)
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.LedgerMode = LedgerModeMem
	cfg.LedgerStartBlock = 1
	n, err := NewNode(cfg, db, l, op, log.TestingLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, n.Recover())
	require.Equal(t, 1, n.Queue().Len())

	require.Zero(t, drain(t, n.Ingestor()))
	require.Equal(t, 1, n.Queue().Len())

	mb := mineOne(t, n.Miner())
	require.Equal(t, 1, mb.TxCount)
	require.NoError(t, n.Recover())
	require.Zero(t, n.Queue().Len())
}

func TestIngest_WaitsForConfirmations(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	l := memledger.New(addrOf(op))
	q := NewTxQueue()
	i := newTestIngestor(t, db, l, q, IngestConfig{StartBlock: 1, Confirmations: 2})

	l.Deposit(addrOf(op), big.NewInt(1))
	require.Zero(t, drain(t, i))
	l.Mine(1)
	require.Zero(t, drain(t, i))
	l.Mine(1)
	require.Equal(t, 1, drain(t, i))
	require.Equal(t, 1, q.Len())
}

func TestIngest_ExitRemovesWithdrawMarker(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	aliceKey := testKey(t, 2)
	alice := addrOf(aliceKey)
	l := memledger.New(addrOf(op))
	q := NewTxQueue()
	i := newTestIngestor(t, db, l, q, IngestConfig{StartBlock: 1})
	m, err := NewMiner(db, q, op, DefaultMinerConfig(), nil, nil)
	require.NoError(t, err)

	l.Deposit(alice, big.NewInt(100))
	drain(t, i)
	mineOne(t, m)
	q.Push(spendTx(t, aliceKey, consensus.TxTypeWithdraw, []consensus.UTXOKey{{BlockNumber: 1}},
		[]consensus.TxOutput{output(alice, 0, 100)}))
	mineOne(t, m)

	ws, err := db.WithdrawsForAddress(alice)
	require.NoError(t, err)
	require.Len(t, ws, 1)

	l.ExpressWithdraw(alice, 2, 0)
	require.Equal(t, 1, drain(t, i))
	ws, err = db.WithdrawsForAddress(alice)
	require.NoError(t, err)
	require.Empty(t, ws)
}

func TestIngest_LedgerErrorKeepsCheckpoint(t *testing.T) {
	db := newTestStore(t)
	l := mocks.NewLedger(t)
	q := NewTxQueue()
	i := newTestIngestor(t, db, l, q, IngestConfig{StartBlock: 4})

	boom := errors.New("rpc unavailable")
	l.On("BlockNumber", mock.Anything).Return(uint64(10), nil)
	l.On("ExpressWithdrawEvents", mock.Anything, uint64(4), uint64(4)).Return(nil, nil)
	l.On("DepositEvents", mock.Anything, uint64(4), uint64(4)).Return(nil, boom).Once()

	ok, err := i.IngestOnce(context.Background())
	require.ErrorIs(t, err, boom)
	require.False(t, ok)
	_, has, err := db.LastLedgerBlock()
	require.NoError(t, err)
	require.False(t, has)

	l.On("DepositEvents", mock.Anything, uint64(4), uint64(4)).Return([]ledger.DepositEvent{{
		LedgerBlock:  4,
		Depositor:    addrOf(testKey(t, 2)),
		Amount:       big.NewInt(9),
		DepositIndex: big.NewInt(1),
	}}, nil).Once()
	ok, err = i.IngestOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	last, has, err := db.LastLedgerBlock()
	require.NoError(t, err)
	require.True(t, has)
	require.Equal(t, uint64(4), last)
	require.Equal(t, 1, q.Len())
}

func TestIngest_RejectsIncompleteDeposit(t *testing.T) {
	db := newTestStore(t)
	l := mocks.NewLedger(t)
	i := newTestIngestor(t, db, l, NewTxQueue(), IngestConfig{})

	l.On("BlockNumber", mock.Anything).Return(uint64(0), nil)
	l.On("ExpressWithdrawEvents", mock.Anything, uint64(0), uint64(0)).Return(nil, nil)
	l.On("DepositEvents", mock.Anything, uint64(0), uint64(0)).Return([]ledger.DepositEvent{{Amount: big.NewInt(1)}}, nil)

	_, err := i.IngestOnce(context.Background())
	require.Error(t, err)
	_, has, err := db.LastLedgerBlock()
	require.NoError(t, err)
	require.False(t, has)
}

func TestIngest_ExitsBeforeDeposits(t *testing.T) {
	db := newTestStore(t)
	l := mocks.NewLedger(t)
	i := newTestIngestor(t, db, l, NewTxQueue(), IngestConfig{StartBlock: 1})

	var calls []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { calls = append(calls, name) }
	}
	l.On("BlockNumber", mock.Anything).Return(uint64(1), nil)
	l.On("ExpressWithdrawEvents", mock.Anything, uint64(1), uint64(1)).Run(record("exits")).Return(nil, nil).Once()
	l.On("DepositEvents", mock.Anything, uint64(1), uint64(1)).Run(record("deposits")).Return(nil, nil).Once()

	ok, err := i.IngestOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"exits", "deposits"}, calls)
}
