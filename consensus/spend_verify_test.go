package consensus

import (
	"testing"
)

func TestCheckSpend_TransferByOwner(t *testing.T) {
	alice := testKey(t, 2)
	bob := addrOf(testKey(t, 3))
	op := addrOf(testKey(t, 1))
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 100)

	tx := signedTx(t, alice, TxTypeTransfer, []TxInput{in(1, 0, 0, 100)}, []TxOutput{out(bob, 0, 100)})
	res, err := CheckSpend(v, tx, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sender != addrOf(alice) || res.InputSum.Int64() != 100 || res.OutputSum.Int64() != 100 {
		t.Fatalf("result: %+v", res)
	}
}

func TestCheckSpend_SplitOverspendRejected(t *testing.T) {
	alice := testKey(t, 2)
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 100)

	tx := signedTx(t, alice, TxTypeSplit, []TxInput{in(1, 0, 0, 100)},
		[]TxOutput{out(addrOf(alice), 0, 51), out(addrOf(alice), 1, 50)})
	if _, err := CheckSpend(v, tx, addrOf(testKey(t, 1))); CodeOf(err) != TX_ERR_CONSERVATION_VIOLATION {
		t.Fatalf("got %v", err)
	}
}

func TestCheckSpend_UnderspendRejected(t *testing.T) {
	alice := testKey(t, 2)
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 100)

	tx := signedTx(t, alice, TxTypeTransfer, []TxInput{in(1, 0, 0, 100)}, []TxOutput{out(addrOf(alice), 0, 99)})
	if _, err := CheckSpend(v, tx, addrOf(testKey(t, 1))); CodeOf(err) != TX_ERR_CONSERVATION_VIOLATION {
		t.Fatalf("got %v", err)
	}
}

func TestCheckSpend_UnknownUTXO(t *testing.T) {
	alice := testKey(t, 2)
	tx := signedTx(t, alice, TxTypeTransfer, []TxInput{in(3, 1, 0, 10)}, []TxOutput{out(addrOf(alice), 0, 10)})
	if _, err := CheckSpend(newMemView(), tx, addrOf(testKey(t, 1))); CodeOf(err) != TX_ERR_UNKNOWN_UTXO {
		t.Fatalf("got %v", err)
	}
	if IsSpendable(newMemView(), tx, addrOf(testKey(t, 1))) {
		t.Fatalf("absent utxo accepted")
	}
}

func TestCheckSpend_NotOwner(t *testing.T) {
	alice := testKey(t, 2)
	mallory := testKey(t, 4)
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 100)

	tx := signedTx(t, mallory, TxTypeTransfer, []TxInput{in(1, 0, 0, 100)}, []TxOutput{out(addrOf(mallory), 0, 100)})
	if _, err := CheckSpend(v, tx, addrOf(testKey(t, 1))); CodeOf(err) != TX_ERR_PERMISSION_VIOLATION {
		t.Fatalf("got %v", err)
	}
}

func TestCheckSpend_MergeDistinctOwners(t *testing.T) {
	op := testKey(t, 1)
	alice := testKey(t, 2)
	bob := testKey(t, 3)
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 60)
	v.utxos[UTXOKey{BlockNumber: 2}] = out(addrOf(bob), 0, 40)
	ins := []TxInput{in(1, 0, 0, 60), in(2, 0, 0, 40)}

	for _, signer := range []int{2, 3} {
		k := testKey(t, byte(signer))
		tx := signedTx(t, k, TxTypeMerge, ins, []TxOutput{out(addrOf(alice), 0, 100)})
		if _, err := CheckSpend(v, tx, addrOf(op)); CodeOf(err) != TX_ERR_PERMISSION_VIOLATION {
			t.Fatalf("signer %d: got %v", signer, err)
		}
	}

	// the operator may consolidate
	tx := signedTx(t, op, TxTypeMerge, ins, []TxOutput{out(addrOf(alice), 0, 100)})
	if _, err := CheckSpend(v, tx, addrOf(op)); err != nil {
		t.Fatalf("operator merge: %v", err)
	}
}

func TestCheckSpend_OperatorExceptionIsMergeOnly(t *testing.T) {
	op := testKey(t, 1)
	alice := testKey(t, 2)
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 100)

	tx := signedTx(t, op, TxTypeTransfer, []TxInput{in(1, 0, 0, 100)}, []TxOutput{out(addrOf(op), 0, 100)})
	if _, err := CheckSpend(v, tx, addrOf(op)); CodeOf(err) != TX_ERR_PERMISSION_VIOLATION {
		t.Fatalf("got %v", err)
	}
}

func TestCheckSpend_MergeSameInputTwice(t *testing.T) {
	alice := testKey(t, 2)
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 50)

	tx := signedTx(t, alice, TxTypeMerge, []TxInput{in(1, 0, 0, 50), in(1, 0, 0, 50)}, []TxOutput{out(addrOf(alice), 0, 100)})
	if _, err := CheckSpend(v, tx, addrOf(testKey(t, 1))); CodeOf(err) != TX_ERR_INVALID_SHAPE {
		t.Fatalf("got %v", err)
	}
}

func TestCheckSpend_Fund(t *testing.T) {
	op := testKey(t, 1)
	alice := testKey(t, 2)
	v := newMemView()

	f := NewFundTx(addrOf(alice), amt(100), amt(7))
	if err := SignTx(f, op); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := CheckSpend(v, f, addrOf(op)); err != nil {
		t.Fatalf("operator fund: %v", err)
	}

	v.deposits["7"] = true
	if _, err := CheckSpend(v, f, addrOf(op)); CodeOf(err) != TX_ERR_DUPLICATE_DEPOSIT {
		t.Fatalf("duplicate: %v", err)
	}

	forged := NewFundTx(addrOf(alice), amt(100), amt(8))
	if err := SignTx(forged, alice); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := CheckSpend(v, forged, addrOf(op)); CodeOf(err) != TX_ERR_PERMISSION_VIOLATION {
		t.Fatalf("forged fund: %v", err)
	}
}

func TestCheckSpend_MintKeyOutsideFund(t *testing.T) {
	op := testKey(t, 1)
	tx := signedTx(t, op, TxTypeTransfer, []TxInput{in(0, 0, 0, 5)}, []TxOutput{out(addrOf(op), 0, 5)})
	if _, err := CheckSpend(newMemView(), tx, addrOf(op)); CodeOf(err) != TX_ERR_PERMISSION_VIOLATION {
		t.Fatalf("got %v", err)
	}
}

func TestCheckSpend_BadSignature(t *testing.T) {
	alice := testKey(t, 2)
	v := newMemView()
	v.utxos[UTXOKey{BlockNumber: 1}] = out(addrOf(alice), 0, 100)
	tx := signedTx(t, alice, TxTypeTransfer, []TxInput{in(1, 0, 0, 100)}, []TxOutput{out(addrOf(alice), 0, 100)})
	tx.Sig.V = 29
	if _, err := CheckSpend(v, tx, addrOf(testKey(t, 1))); CodeOf(err) != TX_ERR_INVALID_SIGNATURE {
		t.Fatalf("got %v", err)
	}
}

func TestCheckSpend_AuxiliaryOutputNotSpendable(t *testing.T) {
	alice := testKey(t, 2)
	v := newMemView()
	aux := UTXOKey{BlockNumber: 1, OutputNumber: AuxiliaryOutputNumber}
	v.utxos[aux] = out(addrOf(alice), AuxiliaryOutputNumber, 7)

	tx := signedTx(t, alice, TxTypeTransfer, []TxInput{in(1, 0, AuxiliaryOutputNumber, 7)},
		[]TxOutput{out(addrOf(alice), 0, 7)})
	if _, err := CheckSpend(v, tx, addrOf(testKey(t, 1))); CodeOf(err) != TX_ERR_UNKNOWN_UTXO {
		t.Fatalf("got %v", err)
	}
}
