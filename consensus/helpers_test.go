package consensus

import (
	"math/big"
	"testing"

	"plasma.dev/node/crypto"
)

func testKey(t *testing.T, seed byte) *crypto.PrivKey {
	t.Helper()
	raw := make([]byte, crypto.PrivKeySize)
	raw[len(raw)-1] = seed
	k, err := crypto.PrivKeyFromBytes(raw)
	if err != nil {
		t.Fatalf("key %d: %v", seed, err)
	}
	return k
}

func addrOf(k *crypto.PrivKey) Address { return Address(k.Address()) }

func amt(v int64) *big.Int { return big.NewInt(v) }

func out(to Address, n uint8, v int64) TxOutput {
	return TxOutput{Recipient: to, OutputNumber: n, Amount: amt(v)}
}

func in(block, tx uint32, n uint8, v int64) TxInput {
	return TxInput{BlockNumber: block, TxNumber: tx, OutputNumber: n, Amount: amt(v)}
}

func signedTx(t *testing.T, k *crypto.PrivKey, typ TxType, ins []TxInput, outs []TxOutput) *Tx {
	t.Helper()
	tx := &Tx{Type: typ, Inputs: ins, Outputs: outs}
	if err := SignTx(tx, k); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tx
}

type memView struct {
	utxos    map[UTXOKey]TxOutput
	deposits map[string]bool
}

func newMemView() *memView {
	return &memView{utxos: map[UTXOKey]TxOutput{}, deposits: map[string]bool{}}
}

func (v *memView) GetUTXO(key UTXOKey) (TxOutput, bool, error) {
	o, ok := v.utxos[key]
	return o, ok, nil
}

func (v *memView) HasDeposit(idx *big.Int) (bool, error) {
	return v.deposits[idx.String()], nil
}
