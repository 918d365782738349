package consensus

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

type Address [AddressLength]byte

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string { return a.Hex() }

func (a Address) IsZero() bool { return a == Address{} }

// HexToAddress parses a 20-byte address with or without 0x prefix.
func HexToAddress(s string) (Address, error) {
	var out Address
	cleaned := strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "0x")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return out, fmt.Errorf("address hex: %w", err)
	}
	if len(raw) != AddressLength {
		return out, fmt.Errorf("address must be %d bytes (got %d)", AddressLength, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

type TxType uint8

const (
	TxTypeSplit    TxType = 1
	TxTypeMerge    TxType = 2
	TxTypeWithdraw TxType = 3
	TxTypeFund     TxType = 4
	TxTypeTransfer TxType = 5
)

func (t TxType) String() string {
	switch t {
	case TxTypeSplit:
		return "split"
	case TxTypeMerge:
		return "merge"
	case TxTypeWithdraw:
		return "withdraw"
	case TxTypeFund:
		return "fund"
	case TxTypeTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Shape returns the exact input and output counts a transaction type requires.
func (t TxType) Shape() (inputs int, outputs int, ok bool) {
	switch t {
	case TxTypeSplit:
		return 1, 2, true
	case TxTypeMerge:
		return 2, 1, true
	case TxTypeWithdraw:
		return 1, 1, true
	case TxTypeFund:
		return 1, 2, true
	case TxTypeTransfer:
		return 1, 1, true
	default:
		return 0, 0, false
	}
}

// TxLength is the exact encoded width of a transaction of type t.
func TxLength(t TxType) (int, bool) {
	nIn, nOut, ok := t.Shape()
	if !ok {
		return 0, false
	}
	return txPrefixLength + nIn*TxInputLength + nOut*TxOutputLength + SignatureLength, true
}

// UTXOKey identifies an output by its position in the chain.
type UTXOKey struct {
	BlockNumber  uint32
	TxNumber     uint32
	OutputNumber uint8
}

// MintKey is the all-zero input reference used by Fund transactions.
var MintKey = UTXOKey{}

func (k UTXOKey) IsMint() bool { return k == MintKey }

func (k UTXOKey) Bytes() []byte {
	out := make([]byte, 0, UTXOKeyLength)
	out = appendU32be(out, k.BlockNumber)
	out = appendU32be(out, k.TxNumber)
	return append(out, k.OutputNumber)
}

func (k UTXOKey) String() string {
	return fmt.Sprintf("%d:%d:%d", k.BlockNumber, k.TxNumber, k.OutputNumber)
}

func UTXOKeyFromBytes(b []byte) (UTXOKey, error) {
	if len(b) != UTXOKeyLength {
		return UTXOKey{}, txerrf(TX_ERR_MALFORMED_ENCODING, "utxo key: expected %d bytes, got %d", UTXOKeyLength, len(b))
	}
	return UTXOKey{
		BlockNumber:  binary.BigEndian.Uint32(b[0:4]),
		TxNumber:     binary.BigEndian.Uint32(b[4:8]),
		OutputNumber: b[8],
	}, nil
}

type TxInput struct {
	BlockNumber  uint32
	TxNumber     uint32
	OutputNumber uint8
	// Amount is copied from the referenced output when the input is built;
	// validation always uses the stored output instead.
	Amount *big.Int
}

func (in TxInput) Key() UTXOKey {
	return UTXOKey{BlockNumber: in.BlockNumber, TxNumber: in.TxNumber, OutputNumber: in.OutputNumber}
}

type TxOutput struct {
	Recipient    Address
	OutputNumber uint8
	Amount       *big.Int
}

func (o TxOutput) IsAuxiliary() bool { return o.OutputNumber == AuxiliaryOutputNumber }

type Signature struct {
	V byte
	R [32]byte
	S [32]byte
}

type Tx struct {
	Number  uint16
	Type    TxType
	Inputs  []TxInput
	Outputs []TxOutput
	Sig     Signature
}

// SpendKey concatenates the referenced input keys; two transactions with
// the same spend key spend the same outputs.
func (tx *Tx) SpendKey() string {
	var sb strings.Builder
	for _, in := range tx.Inputs {
		sb.WriteString(hex.EncodeToString(in.Key().Bytes()))
	}
	return sb.String()
}

// IsMint reports whether tx references the mint key instead of a real output.
func (tx *Tx) IsMint() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].Key().IsMint()
}

// DepositIndex returns the deposit index recorded in a Fund transaction's
// auxiliary output.
func (tx *Tx) DepositIndex() (*big.Int, bool) {
	if tx.Type != TxTypeFund {
		return nil, false
	}
	for _, out := range tx.Outputs {
		if out.IsAuxiliary() && out.Amount != nil {
			return new(big.Int).Set(out.Amount), true
		}
	}
	return nil, false
}

// OutputSum totals the spendable (non-auxiliary) outputs.
func (tx *Tx) OutputSum() *big.Int {
	sum := new(big.Int)
	for _, out := range tx.Outputs {
		if out.IsAuxiliary() || out.Amount == nil {
			continue
		}
		sum.Add(sum, out.Amount)
	}
	return sum
}
