package node

import (
	"errors"
	"fmt"

	"plasma.dev/node/consensus"
	"plasma.dev/node/node/store"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrTxNotFound    = errors.New("transaction not found")
)

// TxProof is what an exit or challenge submits to the anchor contract.
type TxProof struct {
	BlockNumber uint32
	TxNumber    uint32
	Tx          []byte
	Proof       []byte
	MerkleRoot  [32]byte
}

// PrepareProof loads block blockNumber and returns transaction txNumber
// with its Merkle inclusion proof, both serialized. It never writes.
func PrepareProof(db *store.DB, blockNumber uint32, txNumber uint32) (*TxProof, error) {
	b, ok, err := db.GetBlock(blockNumber)
	if err != nil {
		return nil, fmt.Errorf("proof: load block %d: %w", blockNumber, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBlockNotFound, blockNumber)
	}
	if int(txNumber) >= len(b.Txs) {
		return nil, fmt.Errorf("%w: %d:%d", ErrTxNotFound, blockNumber, txNumber)
	}

	leaves, err := consensus.TxLeaves(b.Txs)
	if err != nil {
		return nil, fmt.Errorf("proof: block %d: %w", blockNumber, err)
	}
	tree, err := consensus.NewMerkleTree(leaves)
	if err != nil {
		return nil, fmt.Errorf("proof: block %d: %w", blockNumber, err)
	}
	if tree.Root() != b.Header.MerkleRoot {
		return nil, fmt.Errorf("proof: block %d: stored merkle root does not match its transactions", blockNumber)
	}
	path, err := tree.Proof(int(txNumber))
	if err != nil {
		return nil, err
	}
	raw, err := consensus.EncodeTx(b.Txs[txNumber])
	if err != nil {
		return nil, err
	}
	return &TxProof{
		BlockNumber: blockNumber,
		TxNumber:    txNumber,
		Tx:          raw,
		Proof:       consensus.EncodeProof(path),
		MerkleRoot:  b.Header.MerkleRoot,
	}, nil
}
