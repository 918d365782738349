package store

import (
	"fmt"

	"plasma.dev/node/consensus"

	bolt "go.etcd.io/bbolt"
)

type encodedTx struct {
	tx     *consensus.Tx
	raw    []byte
	sender consensus.Address
}

// CommitBlock persists b and applies its transactions to the UTXO set in a
// single bbolt transaction. senders[i] is the recovered sender of b.Txs[i].
// The block must extend the current tip; any failure rolls back every
// write.
func (d *DB) CommitBlock(b *consensus.Block, senders []consensus.Address) error {
	if b == nil {
		return fmt.Errorf("commit: nil block")
	}
	if len(senders) != len(b.Txs) {
		return fmt.Errorf("commit: %d senders for %d txs", len(senders), len(b.Txs))
	}
	blockBytes, err := consensus.EncodeBlock(b)
	if err != nil {
		return fmt.Errorf("commit: encode block: %w", err)
	}
	headerBytes := consensus.EncodeHeader(&b.Header)
	headerHash := consensus.HeaderHash(&b.Header)
	txs := make([]encodedTx, 0, len(b.Txs))
	for i, tx := range b.Txs {
		raw, err := consensus.EncodeTx(tx)
		if err != nil {
			return fmt.Errorf("commit: encode tx %d: %w", i, err)
		}
		txs = append(txs, encodedTx{tx: tx, raw: raw, sender: senders[i]})
	}
	n := b.Header.BlockNumber

	return d.db.Update(func(tx *bolt.Tx) error {
		tip, err := readTip(tx)
		if err != nil {
			return err
		}
		if n != tip.Number+1 {
			return fmt.Errorf("commit: block %d does not extend tip %d", n, tip.Number)
		}
		if b.Header.ParentHash != tip.Hash {
			return fmt.Errorf("commit: block %d parent hash mismatch", n)
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(metaLastBlockNumber, encodeU32(n)); err != nil {
			return err
		}
		if err := meta.Put(metaLastBlockHash, headerHash[:]); err != nil {
			return err
		}
		if err := tx.Bucket(bucketBlocks).Put(blockKey(n), blockBytes); err != nil {
			return err
		}
		if err := tx.Bucket(bucketHeaders).Put(blockKey(n), headerBytes); err != nil {
			return err
		}
		for _, et := range txs {
			if err := d.applyTx(tx, n, et); err != nil {
				return fmt.Errorf("commit: block %d tx %d: %w", n, et.tx.Number, err)
			}
		}
		return nil
	})
}

func (d *DB) applyTx(btx *bolt.Tx, block uint32, et encodedTx) error {
	t := et.tx
	txNumber := uint32(t.Number)
	if err := btx.Bucket(bucketTxs).Put(txKey(block, txNumber), et.raw); err != nil {
		return err
	}

	utxo := btx.Bucket(bucketUtxo)
	byAddr := btx.Bucket(bucketUtxoByAddr)
	for _, in := range t.Inputs {
		key := in.Key()
		if key.IsMint() {
			continue
		}
		prev := utxo.Get(key.Bytes())
		if prev == nil {
			return fmt.Errorf("input %s already spent", key)
		}
		if d.addressIndex {
			o, err := consensus.DecodeOutput(prev)
			if err != nil {
				return fmt.Errorf("input %s: %w", key, err)
			}
			if err := byAddr.Delete(addrUtxoKey(o.Recipient, key)); err != nil {
				return err
			}
		}
		if err := utxo.Delete(key.Bytes()); err != nil {
			return err
		}
	}

	touched := []consensus.Address{et.sender}
	for _, o := range t.Outputs {
		key := consensus.UTXOKey{BlockNumber: block, TxNumber: txNumber, OutputNumber: o.OutputNumber}
		raw, err := consensus.EncodeOutput(o)
		if err != nil {
			return err
		}
		if err := utxo.Put(key.Bytes(), raw); err != nil {
			return err
		}
		if o.IsAuxiliary() {
			continue
		}
		touched = append(touched, o.Recipient)
		if d.addressIndex {
			if err := byAddr.Put(addrUtxoKey(o.Recipient, key), raw); err != nil {
				return err
			}
		}
	}

	if t.Type == consensus.TxTypeWithdraw {
		raw, err := consensus.EncodeOutput(t.Outputs[0])
		if err != nil {
			return err
		}
		if err := btx.Bucket(bucketWithdrawByAddr).Put(addrTxKey(et.sender, block, txNumber), raw); err != nil {
			return err
		}
	}

	if idx, ok := t.DepositIndex(); ok {
		k, err := depositKey(idx)
		if err != nil {
			return err
		}
		if err := btx.Bucket(bucketDeposits).Put(k, txKey(block, txNumber)); err != nil {
			return err
		}
		if err := btx.Bucket(bucketPendingDeposits).Delete(k); err != nil {
			return err
		}
	}

	if d.addressIndex {
		byTx := btx.Bucket(bucketTxByAddr)
		for _, addr := range touched {
			if err := byTx.Put(addrTxKey(addr, block, txNumber), []byte{byte(t.Type)}); err != nil {
				return err
			}
		}
	}
	return nil
}
