package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"plasma.dev/node/consensus"

	bolt "go.etcd.io/bbolt"
)

const (
	txKeyLength       = consensus.BlockNumberLength + consensus.TxNumberLength
	addrTxKeyLength   = consensus.AddressLength + txKeyLength
	addrUtxoKeyLength = consensus.AddressLength + consensus.UTXOKeyLength
	depositKeyLength  = consensus.AmountLength
	ledgerBlockLength = 8
)

func encodeU32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func encodeU64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func blockKey(n uint32) []byte { return encodeU32(n) }

func txKey(block uint32, tx uint32) []byte {
	out := make([]byte, 0, txKeyLength)
	out = append(out, encodeU32(block)...)
	return append(out, encodeU32(tx)...)
}

func addrUtxoKey(addr consensus.Address, key consensus.UTXOKey) []byte {
	out := make([]byte, 0, addrUtxoKeyLength)
	out = append(out, addr[:]...)
	return append(out, key.Bytes()...)
}

func addrTxKey(addr consensus.Address, block uint32, tx uint32) []byte {
	out := make([]byte, 0, addrTxKeyLength)
	out = append(out, addr[:]...)
	return append(out, txKey(block, tx)...)
}

func depositKey(idx *big.Int) ([]byte, error) {
	if idx == nil || idx.Sign() < 0 || idx.BitLen() > depositKeyLength*8 {
		return nil, fmt.Errorf("deposit index out of range: %v", idx)
	}
	out := make([]byte, depositKeyLength)
	idx.FillBytes(out)
	return out, nil
}

func decodeTxKey(k []byte) (uint32, uint32, error) {
	if len(k) != txKeyLength {
		return 0, 0, fmt.Errorf("tx key: expected %d bytes, got %d", txKeyLength, len(k))
	}
	return binary.BigEndian.Uint32(k[0:4]), binary.BigEndian.Uint32(k[4:8]), nil
}

func decodeU32(v []byte) (uint32, error) {
	if len(v) != 4 {
		return 0, fmt.Errorf("u32: expected 4 bytes, got %d", len(v))
	}
	return binary.BigEndian.Uint32(v), nil
}

func decodeU64(v []byte) (uint64, error) {
	if len(v) != ledgerBlockLength {
		return 0, fmt.Errorf("u64: expected %d bytes, got %d", ledgerBlockLength, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

// reverseScanPrefix visits every key of length keyLen starting with prefix,
// highest key first.
func reverseScanPrefix(b *bolt.Bucket, prefix []byte, keyLen int, fn func(k, v []byte) error) error {
	upper := make([]byte, keyLen)
	copy(upper, prefix)
	for i := len(prefix); i < keyLen; i++ {
		upper[i] = 0xFF
	}

	c := b.Cursor()
	k, v := c.Seek(upper)
	switch {
	case k == nil:
		k, v = c.Last()
	case bytes.Compare(k, upper) > 0:
		k, v = c.Prev()
	}
	for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Prev() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}
