package consensus

import (
	"math/big"
)

// UtxoView is the read-only chain state a spend is checked against.
type UtxoView interface {
	GetUTXO(key UTXOKey) (TxOutput, bool, error)
	HasDeposit(depositIndex *big.Int) (bool, error)
}

type SpendResult struct {
	Sender    Address
	InputSum  *big.Int
	OutputSum *big.Int
}

// CheckSpend decides whether tx may be included on top of view. Signature
// recovery happens once here and the sender travels with the result.
func CheckSpend(view UtxoView, tx *Tx, operator Address) (*SpendResult, error) {
	if view == nil {
		return nil, txerr(TX_ERR_STORAGE, "nil utxo view")
	}
	if err := validateShape(tx); err != nil {
		return nil, err
	}
	sender, err := TxSender(tx)
	if err != nil {
		return nil, err
	}

	if tx.IsMint() || tx.Type == TxTypeFund {
		return checkMint(view, tx, sender, operator)
	}

	seen := make(map[UTXOKey]struct{}, len(tx.Inputs))
	inSum := new(big.Int)
	for _, in := range tx.Inputs {
		key := in.Key()
		if key.IsMint() {
			return nil, txerrf(TX_ERR_PERMISSION_VIOLATION, "%s may not reference the mint key", tx.Type)
		}
		if key.OutputNumber == AuxiliaryOutputNumber {
			return nil, txerrf(TX_ERR_UNKNOWN_UTXO, "utxo %s is an auxiliary record", key)
		}
		if _, dup := seen[key]; dup {
			return nil, txerrf(TX_ERR_INVALID_SHAPE, "input %s referenced twice", key)
		}
		seen[key] = struct{}{}

		entry, ok, err := view.GetUTXO(key)
		if err != nil {
			return nil, txerrf(TX_ERR_STORAGE, "utxo lookup %s: %v", key, err)
		}
		if !ok || entry.IsAuxiliary() {
			return nil, txerrf(TX_ERR_UNKNOWN_UTXO, "utxo %s not found", key)
		}
		if entry.Recipient != sender {
			// Merge is the one type the operator may sign over someone
			// else's outputs.
			if tx.Type != TxTypeMerge || sender != operator {
				return nil, txerrf(TX_ERR_PERMISSION_VIOLATION, "utxo %s owned by %s, signed by %s", key, entry.Recipient, sender)
			}
		}
		if entry.Amount != nil {
			inSum.Add(inSum, entry.Amount)
		}
	}

	outSum := tx.OutputSum()
	if inSum.Cmp(outSum) != 0 {
		return nil, txerrf(TX_ERR_CONSERVATION_VIOLATION, "inputs %s != outputs %s", inSum, outSum)
	}
	return &SpendResult{Sender: sender, InputSum: inSum, OutputSum: outSum}, nil
}

func checkMint(view UtxoView, tx *Tx, sender Address, operator Address) (*SpendResult, error) {
	if tx.Type != TxTypeFund {
		return nil, txerrf(TX_ERR_PERMISSION_VIOLATION, "%s may not reference the mint key", tx.Type)
	}
	if !tx.IsMint() {
		return nil, txerr(TX_ERR_PERMISSION_VIOLATION, "fund must reference the mint key")
	}
	if sender != operator {
		return nil, txerrf(TX_ERR_PERMISSION_VIOLATION, "fund signed by %s, not the operator", sender)
	}
	idx, ok := tx.DepositIndex()
	if !ok {
		return nil, txerr(TX_ERR_INVALID_SHAPE, "fund without deposit index output")
	}
	dup, err := view.HasDeposit(idx)
	if err != nil {
		return nil, txerrf(TX_ERR_STORAGE, "deposit lookup %s: %v", idx, err)
	}
	if dup {
		return nil, txerrf(TX_ERR_DUPLICATE_DEPOSIT, "deposit %s already credited", idx)
	}
	outSum := tx.OutputSum()
	return &SpendResult{Sender: sender, InputSum: new(big.Int).Set(outSum), OutputSum: outSum}, nil
}

// IsSpendable is the boolean form of CheckSpend: any error rejects.
func IsSpendable(view UtxoView, tx *Tx, operator Address) bool {
	_, err := CheckSpend(view, tx, operator)
	return err == nil
}
