package consensus

import "math/big"

func EncodeInput(in TxInput) ([]byte, error) {
	out := make([]byte, 0, TxInputLength)
	out = appendU32be(out, in.BlockNumber)
	out = appendU32be(out, in.TxNumber)
	out = append(out, in.OutputNumber)
	return appendAmount(out, in.Amount)
}

func DecodeInput(b []byte) (TxInput, error) {
	if len(b) != TxInputLength {
		return TxInput{}, txerrf(TX_ERR_MALFORMED_ENCODING, "input: expected %d bytes, got %d", TxInputLength, len(b))
	}
	off := 0
	blockNumber, _ := readU32be(b, &off)
	txNumber, _ := readU32be(b, &off)
	outputNumber, _ := readU8(b, &off)
	amount, err := readAmount(b, &off)
	if err != nil {
		return TxInput{}, err
	}
	return TxInput{
		BlockNumber:  blockNumber,
		TxNumber:     txNumber,
		OutputNumber: outputNumber,
		Amount:       amount,
	}, nil
}

func EncodeOutput(o TxOutput) ([]byte, error) {
	out := make([]byte, 0, TxOutputLength)
	out = append(out, o.Recipient[:]...)
	out = append(out, o.OutputNumber)
	return appendAmount(out, o.Amount)
}

func DecodeOutput(b []byte) (TxOutput, error) {
	if len(b) != TxOutputLength {
		return TxOutput{}, txerrf(TX_ERR_MALFORMED_ENCODING, "output: expected %d bytes, got %d", TxOutputLength, len(b))
	}
	off := 0
	var o TxOutput
	recipient, _ := readBytes(b, &off, AddressLength)
	copy(o.Recipient[:], recipient)
	o.OutputNumber, _ = readU8(b, &off)
	amount, err := readAmount(b, &off)
	if err != nil {
		return TxOutput{}, err
	}
	o.Amount = amount
	return o, nil
}

// validateShape enforces the per-type input/output counts and output
// numbering: a spendable output's number is its position.
func validateShape(tx *Tx) error {
	if tx == nil {
		return txerr(TX_ERR_INVALID_SHAPE, "nil tx")
	}
	nIn, nOut, ok := tx.Type.Shape()
	if !ok {
		return txerrf(TX_ERR_INVALID_SHAPE, "unknown tx type %d", uint8(tx.Type))
	}
	if len(tx.Inputs) != nIn || len(tx.Outputs) != nOut {
		return txerrf(TX_ERR_INVALID_SHAPE, "%s requires %d inputs and %d outputs, got %d and %d",
			tx.Type, nIn, nOut, len(tx.Inputs), len(tx.Outputs))
	}
	for i, out := range tx.Outputs {
		if out.IsAuxiliary() {
			continue
		}
		if int(out.OutputNumber) != i {
			return txerrf(TX_ERR_INVALID_SHAPE, "output %d numbered %d", i, out.OutputNumber)
		}
	}
	return nil
}

// appendTxBody writes type | inputs | outputs, the part covered by the
// sender's signature.
func appendTxBody(dst []byte, tx *Tx) ([]byte, error) {
	dst = append(dst, byte(tx.Type))
	for _, in := range tx.Inputs {
		b, err := EncodeInput(in)
		if err != nil {
			return nil, err
		}
		dst = append(dst, b...)
	}
	for _, o := range tx.Outputs {
		b, err := EncodeOutput(o)
		if err != nil {
			return nil, err
		}
		dst = append(dst, b...)
	}
	return dst, nil
}

func appendSignature(dst []byte, sig Signature) []byte {
	dst = append(dst, sig.V)
	dst = append(dst, sig.R[:]...)
	return append(dst, sig.S[:]...)
}

func EncodeTx(tx *Tx) ([]byte, error) {
	if err := validateShape(tx); err != nil {
		return nil, err
	}
	n, _ := TxLength(tx.Type)
	out := make([]byte, 0, n)
	out = appendU16be(out, tx.Number)
	out, err := appendTxBody(out, tx)
	if err != nil {
		return nil, err
	}
	return appendSignature(out, tx.Sig), nil
}

// PeekTxLength reads the type byte of an encoded transaction and returns the
// width that type requires.
func PeekTxLength(b []byte) (int, error) {
	if len(b) < txPrefixLength {
		return 0, txerr(TX_ERR_MALFORMED_ENCODING, "tx: truncated prefix")
	}
	n, ok := TxLength(TxType(b[TxNumberInBlockBytes]))
	if !ok {
		return 0, txerrf(TX_ERR_MALFORMED_ENCODING, "tx: unknown type %d", b[TxNumberInBlockBytes])
	}
	return n, nil
}

func DecodeTx(b []byte) (*Tx, error) {
	want, err := PeekTxLength(b)
	if err != nil {
		return nil, err
	}
	if len(b) != want {
		return nil, txerrf(TX_ERR_MALFORMED_ENCODING, "tx: expected %d bytes, got %d", want, len(b))
	}
	off := 0
	tx := &Tx{}
	tx.Number, _ = readU16be(b, &off)
	typ, _ := readU8(b, &off)
	tx.Type = TxType(typ)
	nIn, nOut, _ := tx.Type.Shape()

	tx.Inputs = make([]TxInput, 0, nIn)
	for i := 0; i < nIn; i++ {
		raw, err := readBytes(b, &off, TxInputLength)
		if err != nil {
			return nil, err
		}
		in, err := DecodeInput(raw)
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, in)
	}
	tx.Outputs = make([]TxOutput, 0, nOut)
	for i := 0; i < nOut; i++ {
		raw, err := readBytes(b, &off, TxOutputLength)
		if err != nil {
			return nil, err
		}
		o, err := DecodeOutput(raw)
		if err != nil {
			return nil, err
		}
		tx.Outputs = append(tx.Outputs, o)
	}
	if tx.Sig, err = readSignature(b, &off); err != nil {
		return nil, err
	}
	if err := validateShape(tx); err != nil {
		return nil, txerr(TX_ERR_MALFORMED_ENCODING, err.Error())
	}
	return tx, nil
}

func readSignature(b []byte, off *int) (Signature, error) {
	var sig Signature
	v, err := readU8(b, off)
	if err != nil {
		return sig, err
	}
	sig.V = v
	if sig.R, err = readHash32(b, off); err != nil {
		return sig, err
	}
	if sig.S, err = readHash32(b, off); err != nil {
		return sig, err
	}
	return sig, nil
}

// NewFundTx builds the unsigned Fund transaction crediting a deposit: the
// mint input, the spendable output and the auxiliary deposit-index record.
func NewFundTx(depositor Address, amount *big.Int, depositIndex *big.Int) *Tx {
	return &Tx{
		Type: TxTypeFund,
		Inputs: []TxInput{{
			Amount: new(big.Int).Set(amount),
		}},
		Outputs: []TxOutput{
			{Recipient: depositor, OutputNumber: 0, Amount: new(big.Int).Set(amount)},
			{Recipient: depositor, OutputNumber: AuxiliaryOutputNumber, Amount: new(big.Int).Set(depositIndex)},
		},
	}
}
