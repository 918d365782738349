package consensus

import (
	"plasma.dev/node/crypto"
)

// ProofSide tells on which side of the running hash a sibling sits.
type ProofSide byte

const (
	SiblingLeft  ProofSide = 0x00
	SiblingRight ProofSide = 0x01
)

const proofNodeLength = 1 + 32

type ProofNode struct {
	Side    ProofSide
	Sibling [32]byte
}

// MerkleTree is a binary hash tree over leaf hashes. An odd node at the end
// of a level is carried to the next level unchanged, not duplicated.
type MerkleTree struct {
	// levels[0] holds the leaves, the last level holds the root.
	levels [][][32]byte
}

func NewMerkleTree(leaves [][32]byte) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, txerr(BLOCK_ERR_EMPTY, "merkle: empty leaf list")
	}
	level := append([][32]byte(nil), leaves...)
	levels := [][][32]byte{level}
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// Odd promotion rule: carry forward unchanged.
				next = append(next, level[i])
				continue
			}
			next = append(next, crypto.Keccak256(level[i][:], level[i+1][:]))
		}
		levels = append(levels, next)
		level = next
	}
	return &MerkleTree{levels: levels}, nil
}

func (t *MerkleTree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

func (t *MerkleTree) LeafCount() int {
	return len(t.levels[0])
}

// Proof lists the siblings from leaf to root. Levels where the node was
// promoted contribute no entry.
func (t *MerkleTree) Proof(index int) ([]ProofNode, error) {
	if index < 0 || index >= t.LeafCount() {
		return nil, txerrf(BLOCK_ERR_MERKLE_INVALID, "merkle: leaf index %d out of range", index)
	}
	proof := make([]ProofNode, 0, len(t.levels)-1)
	for x := 0; x < len(t.levels)-1; x++ {
		level := t.levels[x]
		if index == len(level)-1 && len(level)%2 == 1 {
			index /= 2
			continue
		}
		if index%2 == 1 {
			proof = append(proof, ProofNode{Side: SiblingLeft, Sibling: level[index-1]})
		} else {
			proof = append(proof, ProofNode{Side: SiblingRight, Sibling: level[index+1]})
		}
		index /= 2
	}
	return proof, nil
}

// ValidateProof folds proof over leaf and compares the result with root.
func ValidateProof(proof []ProofNode, leaf [32]byte, root [32]byte) bool {
	h := leaf
	for _, node := range proof {
		switch node.Side {
		case SiblingLeft:
			h = crypto.Keccak256(node.Sibling[:], h[:])
		case SiblingRight:
			h = crypto.Keccak256(h[:], node.Sibling[:])
		default:
			return false
		}
	}
	return h == root
}

// EncodeProof serializes proof as side(1) | sibling(32) per node.
func EncodeProof(proof []ProofNode) []byte {
	out := make([]byte, 0, len(proof)*proofNodeLength)
	for _, node := range proof {
		out = append(out, byte(node.Side))
		out = append(out, node.Sibling[:]...)
	}
	return out
}

func DecodeProof(b []byte) ([]ProofNode, error) {
	if len(b)%proofNodeLength != 0 {
		return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "proof: length %d not a multiple of %d", len(b), proofNodeLength)
	}
	out := make([]ProofNode, 0, len(b)/proofNodeLength)
	for off := 0; off < len(b); off += proofNodeLength {
		side := ProofSide(b[off])
		if side != SiblingLeft && side != SiblingRight {
			return nil, txerrf(BLOCK_ERR_MALFORMED_ENCODING, "proof: bad side byte 0x%02x", b[off])
		}
		var node ProofNode
		node.Side = side
		copy(node.Sibling[:], b[off+1:off+proofNodeLength])
		out = append(out, node)
	}
	return out, nil
}
