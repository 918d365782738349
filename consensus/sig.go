package consensus

import (
	"plasma.dev/node/crypto"
)

// RecoverSigner returns the address that produced sig over hash.
func RecoverSigner(hash [32]byte, sig Signature) (Address, error) {
	addr, err := crypto.RecoverAddress(hash, sig.V, sig.R, sig.S)
	if err != nil {
		return Address{}, txerr(TX_ERR_INVALID_SIGNATURE, err.Error())
	}
	return Address(addr), nil
}

// TxSender recovers the sender of tx. The result is not cached on tx.
func TxSender(tx *Tx) (Address, error) {
	h, err := TxSigHash(tx)
	if err != nil {
		return Address{}, err
	}
	return RecoverSigner(h, tx.Sig)
}

func SignTx(tx *Tx, signer crypto.Signer) error {
	h, err := TxSigHash(tx)
	if err != nil {
		return err
	}
	v, r, s, err := signer.SignCompact(h)
	if err != nil {
		return err
	}
	tx.Sig = Signature{V: v, R: r, S: s}
	return nil
}

func SignHeader(h *BlockHeader, signer crypto.Signer) error {
	v, r, s, err := signer.SignCompact(HeaderSigHash(h))
	if err != nil {
		return err
	}
	h.Sig = Signature{V: v, R: r, S: s}
	return nil
}

func HeaderSigner(h *BlockHeader) (Address, error) {
	return RecoverSigner(HeaderSigHash(h), h.Sig)
}
