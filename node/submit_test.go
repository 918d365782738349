package node

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/ledger"
	"plasma.dev/node/ledger/memledger"
	"plasma.dev/node/ledger/mocks"
	"plasma.dev/node/log"
	"plasma.dev/node/node/store"
)

// mineBlocks commits n single-Fund blocks.
func mineBlocks(t *testing.T, db *store.DB, op *crypto.PrivKey, n int) {
	t.Helper()
	m, q := newTestMiner(t, db, op)
	tip, err := db.Tip()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		q.Push(fundTx(t, op, addrOf(op), 1, int64(tip.Number)+int64(i)+1))
		require.NotNil(t, mineOne(t, m))
	}
}

func newTestSubmitter(t *testing.T, db *store.DB, l ledger.Ledger) *Submitter {
	t.Helper()
	s, err := NewSubmitter(db, l, log.TestingLogger(), NopMetrics())
	require.NoError(t, err)
	return s
}

func TestSubmit_InOrder(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	l := memledger.New(addrOf(op))
	s := newTestSubmitter(t, db, l)

	ok, err := s.SubmitOnce(context.Background())
	require.NoError(t, err)
	require.False(t, ok, "nothing to submit on an empty chain")

	mineBlocks(t, db, op, 3)
	for want := uint32(1); want <= 3; want++ {
		ok, err := s.SubmitOnce(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		last, err := db.LastSubmittedHeader()
		require.NoError(t, err)
		require.Equal(t, want, last)
	}
	ok, err = s.SubmitOnce(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	hs := l.Headers()
	require.Len(t, hs, 3)
	for n, h := range hs {
		local, ok, err := db.GetHeader(uint32(n + 1))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, consensus.HeaderHash(local), consensus.HeaderHash(h))
	}
}

func TestSubmit_AdvancesPastAcceptedHeader(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	mineBlocks(t, db, op, 2)

	l := mocks.NewLedger(t)
	l.On("LastSubmittedHeader", mock.Anything).Return(uint32(1), nil).Once()
	s := newTestSubmitter(t, db, l)

	ok, err := s.SubmitOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	last, err := db.LastSubmittedHeader()
	require.NoError(t, err)
	require.Equal(t, uint32(1), last)
	l.AssertNotCalled(t, "SubmitBlockHeader", mock.Anything, mock.Anything)
}

func TestSubmit_DesyncNeverSkipsAhead(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	mineBlocks(t, db, op, 3)
	require.NoError(t, db.SetLastSubmittedHeader(1))

	l := mocks.NewLedger(t)
	l.On("LastSubmittedHeader", mock.Anything).Return(uint32(0), nil)
	s := newTestSubmitter(t, db, l)

	for i := 0; i < 3; i++ {
		ok, err := s.SubmitOnce(context.Background())
		require.ErrorIs(t, err, ErrBridgeDesync)
		require.False(t, ok)
	}
	l.AssertNotCalled(t, "SubmitBlockHeader", mock.Anything, mock.Anything)
	last, err := db.LastSubmittedHeader()
	require.NoError(t, err)
	require.Equal(t, uint32(1), last)
}

func TestSubmit_FailureKeepsCheckpoint(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	mineBlocks(t, db, op, 1)
	l := memledger.New(addrOf(op))
	s := newTestSubmitter(t, db, l)

	boom := errors.New("out of gas")
	l.FailSubmissions(boom)
	_, err := s.SubmitOnce(context.Background())
	require.ErrorIs(t, err, boom)
	last, err := db.LastSubmittedHeader()
	require.NoError(t, err)
	require.Zero(t, last)

	l.FailSubmissions(nil)
	ok, err := s.SubmitOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSubmit_RejectsMismatchedConfirmation(t *testing.T) {
	db := newTestStore(t)
	op := testKey(t, 1)
	mineBlocks(t, db, op, 1)

	l := mocks.NewLedger(t)
	l.On("LastSubmittedHeader", mock.Anything).Return(uint32(0), nil)
	l.On("SubmitBlockHeader", mock.Anything, mock.Anything).Return(&ledger.HeaderSubmitted{BlockNumber: 7}, nil)
	s := newTestSubmitter(t, db, l)

	_, err := s.SubmitOnce(context.Background())
	require.Error(t, err)
	last, err := db.LastSubmittedHeader()
	require.NoError(t, err)
	require.Zero(t, last)
}

func TestSubmit_RejectedByForeignOperator(t *testing.T) {
	db := newTestStore(t)
	mineBlocks(t, db, testKey(t, 1), 1)
	l := memledger.New(addrOf(testKey(t, 5)))
	s := newTestSubmitter(t, db, l)

	_, err := s.SubmitOnce(context.Background())
	require.ErrorIs(t, err, ledger.ErrHeaderRejected)
}

func TestSubmit_MemLedgerSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	op := testKey(t, 1)
	alice := addrOf(testKey(t, 2))

	db := openTestStoreAt(t, dir)
	first := memledger.New(addrOf(op))
	first.Mine(1)
	require.Equal(t, 1, drain(t, newTestIngestor(t, db, first, NewTxQueue(), IngestConfig{StartBlock: 1})))
	mineBlocks(t, db, op, 1)
	ok, err := newTestSubmitter(t, db, first).SubmitOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	mineBlocks(t, db, op, 1)
	require.NoError(t, db.Close())

	db = openTestStoreAt(t, dir)
	second, err := OpenMemLedger(db, addrOf(op))
	require.NoError(t, err)
	accepted, err := second.LastSubmittedHeader(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(1), accepted)
	height, err := second.BlockNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), height)

	s := newTestSubmitter(t, db, second)
	ok, err = s.SubmitOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	last, err := db.LastSubmittedHeader()
	require.NoError(t, err)
	require.Equal(t, uint32(2), last)

	// deposits after the restart get fresh indices and are not skipped
	idx := second.Deposit(alice, big.NewInt(5))
	credited, err := db.LastDepositIndex()
	require.NoError(t, err)
	require.Equal(t, 1, idx.Cmp(credited))
	q := NewTxQueue()
	require.Positive(t, drain(t, newTestIngestor(t, db, second, q, IngestConfig{StartBlock: 1})))
	require.Equal(t, 1, q.Len())
}
