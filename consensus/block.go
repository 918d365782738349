package consensus

type BlockHeader struct {
	BlockNumber uint32
	NumTxs      uint32
	ParentHash  [32]byte
	MerkleRoot  [32]byte
	Sig         Signature
}

type Block struct {
	Header BlockHeader
	Txs    []*Tx
}

// appendHeaderFields writes every header field covered by the operator
// signature.
func appendHeaderFields(dst []byte, h *BlockHeader) []byte {
	dst = appendU32be(dst, h.BlockNumber)
	dst = appendU32be(dst, h.NumTxs)
	dst = append(dst, h.ParentHash[:]...)
	return append(dst, h.MerkleRoot[:]...)
}

func EncodeHeader(h *BlockHeader) []byte {
	out := make([]byte, 0, BlockHeaderLength)
	out = appendHeaderFields(out, h)
	return appendSignature(out, h.Sig)
}

func DecodeHeader(b []byte) (*BlockHeader, error) {
	if len(b) != BlockHeaderLength {
		return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "header: expected %d bytes, got %d", BlockHeaderLength, len(b))
	}
	off := 0
	h := &BlockHeader{}
	h.BlockNumber, _ = readU32be(b, &off)
	h.NumTxs, _ = readU32be(b, &off)
	h.ParentHash, _ = readHash32(b, &off)
	h.MerkleRoot, _ = readHash32(b, &off)
	sig, err := readSignature(b, &off)
	if err != nil {
		return nil, err
	}
	h.Sig = sig
	return h, nil
}

func EncodeBlock(b *Block) ([]byte, error) {
	if b == nil {
		return nil, txerr(BLOCK_ERR_MALFORMED_ENCODING, "nil block")
	}
	if int(b.Header.NumTxs) != len(b.Txs) {
		return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "header declares %d txs, block has %d", b.Header.NumTxs, len(b.Txs))
	}
	out := EncodeHeader(&b.Header)
	for _, tx := range b.Txs {
		raw, err := EncodeTx(tx)
		if err != nil {
			return nil, err
		}
		out = append(out, raw...)
	}
	return out, nil
}

// DecodeBlock parses header | tx*. Each transaction's width comes from its
// type byte; the count must match the header and indices must run 0..n-1.
func DecodeBlock(b []byte) (*Block, error) {
	if len(b) < BlockHeaderLength {
		return nil, txerr(BLOCK_ERR_MALFORMED_ENCODING, "block: truncated header")
	}
	h, err := DecodeHeader(b[:BlockHeaderLength])
	if err != nil {
		return nil, err
	}
	off := BlockHeaderLength
	if h.NumTxs > MaxTxPerBlock {
		return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "header declares %d txs, limit %d", h.NumTxs, MaxTxPerBlock)
	}
	if maxFit := uint32((len(b) - off) / minTxLength); h.NumTxs > maxFit {
		return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "header declares %d txs, body holds at most %d", h.NumTxs, maxFit)
	}
	txs := make([]*Tx, 0, h.NumTxs)
	for off < len(b) {
		n, err := PeekTxLength(b[off:])
		if err != nil {
			return nil, txerr(BLOCK_ERR_MALFORMED_ENCODING, err.Error())
		}
		raw, err := readBytes(b, &off, n)
		if err != nil {
			return nil, txerr(BLOCK_ERR_MALFORMED_ENCODING, err.Error())
		}
		tx, err := DecodeTx(raw)
		if err != nil {
			return nil, txerr(BLOCK_ERR_MALFORMED_ENCODING, err.Error())
		}
		if int(tx.Number) != len(txs) {
			return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "tx at position %d carries index %d", len(txs), tx.Number)
		}
		txs = append(txs, tx)
	}
	if len(txs) != int(h.NumTxs) {
		return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "header declares %d txs, decoded %d", h.NumTxs, len(txs))
	}
	return &Block{Header: *h, Txs: txs}, nil
}

// TxLeaves returns the commitment hashes of txs in order.
func TxLeaves(txs []*Tx) ([][32]byte, error) {
	leaves := make([][32]byte, 0, len(txs))
	for _, tx := range txs {
		h, err := TxHash(tx)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, h)
	}
	return leaves, nil
}

// BuildBlock numbers txs in slice order, commits them under a Merkle root
// and returns the unsigned block.
func BuildBlock(blockNumber uint32, parentHash [32]byte, txs []*Tx) (*Block, *MerkleTree, error) {
	if len(txs) == 0 {
		return nil, nil, txerr(BLOCK_ERR_EMPTY, "no transactions")
	}
	if len(txs) > MaxTxPerBlock {
		return nil, nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "%d txs exceeds block capacity", len(txs))
	}
	for i, tx := range txs {
		tx.Number = uint16(i)
	}
	leaves, err := TxLeaves(txs)
	if err != nil {
		return nil, nil, err
	}
	tree, err := NewMerkleTree(leaves)
	if err != nil {
		return nil, nil, err
	}
	return &Block{
		Header: BlockHeader{
			BlockNumber: blockNumber,
			NumTxs:      uint32(len(txs)),
			ParentHash:  parentHash,
			MerkleRoot:  tree.Root(),
		},
		Txs: txs,
	}, tree, nil
}

// ValidateBlock recomputes the Merkle root and checks the header was signed
// by operator.
func ValidateBlock(b *Block, operator Address) error {
	if b == nil || len(b.Txs) == 0 {
		return txerr(BLOCK_ERR_EMPTY, "no transactions")
	}
	if int(b.Header.NumTxs) != len(b.Txs) {
		return txerrf(BLOCK_ERR_MALFORMED_ENCODING, "header declares %d txs, block has %d", b.Header.NumTxs, len(b.Txs))
	}
	for i, tx := range b.Txs {
		if int(tx.Number) != i {
			return txerrf(BLOCK_ERR_MALFORMED_ENCODING, "tx at position %d carries index %d", i, tx.Number)
		}
	}
	leaves, err := TxLeaves(b.Txs)
	if err != nil {
		return err
	}
	tree, err := NewMerkleTree(leaves)
	if err != nil {
		return err
	}
	if tree.Root() != b.Header.MerkleRoot {
		return txerr(BLOCK_ERR_MERKLE_INVALID, "merkle root mismatch")
	}
	signer, err := HeaderSigner(&b.Header)
	if err != nil {
		return txerr(BLOCK_ERR_SIGNATURE_INVALID, err.Error())
	}
	if signer != operator {
		return txerrf(BLOCK_ERR_SIGNATURE_INVALID, "header signed by %s, want %s", signer, operator)
	}
	return nil
}
