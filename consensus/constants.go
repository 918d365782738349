package consensus

const (
	BlockNumberLength    = 4
	TxNumberLength       = 4
	TxNumberInBlockBytes = 2
	TxTypeLength         = 1
	OutputNumberLength   = 1
	AmountLength         = 32
	AddressLength        = 20
	SignatureVLength     = 1
	SignatureRLength     = 32
	SignatureSLength     = 32
	MerkleRootLength     = 32
	ParentHashLength     = 32

	SignatureLength = SignatureVLength + SignatureRLength + SignatureSLength

	TxInputLength  = BlockNumberLength + TxNumberLength + OutputNumberLength + AmountLength
	TxOutputLength = AddressLength + OutputNumberLength + AmountLength

	// index | type, followed by inputs and outputs, then the signature.
	txPrefixLength = TxNumberInBlockBytes + TxTypeLength

	// minTxLength is the width of the narrowest shapes (one input, one output).
	minTxLength = txPrefixLength + TxInputLength + TxOutputLength + SignatureLength

	BlockHeaderLength = BlockNumberLength + TxNumberLength + ParentHashLength + MerkleRootLength + SignatureLength

	UTXOKeyLength = BlockNumberLength + TxNumberLength + OutputNumberLength

	// AuxiliaryOutputNumber marks an output that records metadata (the
	// deposit index of a Fund transaction) and carries no spendable value.
	AuxiliaryOutputNumber uint8 = 0xFF

	// MaxTxPerBlock is the drain capacity of one block-building cycle.
	MaxTxPerBlock = 1 << 16
)
