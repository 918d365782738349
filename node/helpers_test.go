package node

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/log"
	"plasma.dev/node/node/store"
)

func testKey(t *testing.T, seed byte) *crypto.PrivKey {
	t.Helper()
	raw := make([]byte, crypto.PrivKeySize)
	raw[len(raw)-1] = seed
	k, err := crypto.PrivKeyFromBytes(raw)
	require.NoError(t, err)
	return k
}

func addrOf(k *crypto.PrivKey) consensus.Address { return consensus.Address(k.Address()) }

func newTestStore(t *testing.T) *store.DB {
	t.Helper()
	return openTestStoreAt(t, t.TempDir())
}

func openTestStoreAt(t *testing.T, dir string) *store.DB {
	t.Helper()
	db, err := store.Open(dir, store.Options{AddressIndex: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestMiner(t *testing.T, db *store.DB, op *crypto.PrivKey) (*Miner, *TxQueue) {
	t.Helper()
	q := NewTxQueue()
	m, err := NewMiner(db, q, op, DefaultMinerConfig(), log.TestingLogger(), NopMetrics())
	require.NoError(t, err)
	return m, q
}

func fundTx(t *testing.T, op *crypto.PrivKey, to consensus.Address, amount, idx int64) *consensus.Tx {
	t.Helper()
	f := consensus.NewFundTx(to, big.NewInt(amount), big.NewInt(idx))
	require.NoError(t, consensus.SignTx(f, op))
	return f
}

func spendTx(t *testing.T, k *crypto.PrivKey, typ consensus.TxType, ins []consensus.UTXOKey, outs []consensus.TxOutput) *consensus.Tx {
	t.Helper()
	tx := &consensus.Tx{Type: typ, Outputs: outs}
	for _, in := range ins {
		tx.Inputs = append(tx.Inputs, consensus.TxInput{
			BlockNumber:  in.BlockNumber,
			TxNumber:     in.TxNumber,
			OutputNumber: in.OutputNumber,
			Amount:       new(big.Int),
		})
	}
	require.NoError(t, consensus.SignTx(tx, k))
	return tx
}

func output(to consensus.Address, n uint8, v int64) consensus.TxOutput {
	return consensus.TxOutput{Recipient: to, OutputNumber: n, Amount: big.NewInt(v)}
}

func mineOne(t *testing.T, m *Miner) *MinedBlock {
	t.Helper()
	mb, err := m.MineOne(context.Background())
	require.NoError(t, err)
	return mb
}
