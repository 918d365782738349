package consensus

import (
	"bytes"
	"testing"
)

func signedBlock(t *testing.T) (*Block, Address) {
	t.Helper()
	op := testKey(t, 1)
	b, _, err := BuildBlock(5, GenesisParentHash, sampleTxs(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := SignHeader(&b.Header, op); err != nil {
		t.Fatalf("sign header: %v", err)
	}
	return b, addrOf(op)
}

func TestBlock_RoundTrip(t *testing.T) {
	b, op := signedBlock(t)
	raw, err := EncodeBlock(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBlock(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Header != b.Header {
		t.Fatalf("header changed")
	}
	again, _ := EncodeBlock(got)
	if !bytes.Equal(raw, again) {
		t.Fatalf("round trip not bit-exact")
	}
	if err := ValidateBlock(got, op); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBlock_AssignsIndices(t *testing.T) {
	b, _ := signedBlock(t)
	for i, tx := range b.Txs {
		if int(tx.Number) != i {
			t.Fatalf("tx %d numbered %d", i, tx.Number)
		}
	}
	if b.Header.NumTxs != uint32(len(b.Txs)) {
		t.Fatalf("numTxs=%d", b.Header.NumTxs)
	}
}

func TestDecodeHeader_RejectsWrongLength(t *testing.T) {
	b, _ := signedBlock(t)
	raw := EncodeHeader(&b.Header)
	if _, err := DecodeHeader(raw[:len(raw)-1]); CodeOf(err) != BLOCK_ERR_MALFORMED_ENCODING {
		t.Fatalf("got %v", err)
	}
	h, err := DecodeHeader(raw)
	if err != nil || *h != b.Header {
		t.Fatalf("header round trip: %v", err)
	}
}

func TestDecodeBlock_RejectsCountMismatch(t *testing.T) {
	b, _ := signedBlock(t)
	raw, _ := EncodeBlock(b)
	// drop the last tx
	last, _ := EncodeTx(b.Txs[len(b.Txs)-1])
	if _, err := DecodeBlock(raw[:len(raw)-len(last)]); CodeOf(err) != BLOCK_ERR_MALFORMED_ENCODING {
		t.Fatalf("got %v", err)
	}
	if _, err := DecodeBlock(raw[:len(raw)-1]); CodeOf(err) != BLOCK_ERR_MALFORMED_ENCODING {
		t.Fatalf("truncated: %v", err)
	}
}

func TestDecodeBlock_RejectsOversizedCount(t *testing.T) {
	b, _ := signedBlock(t)
	for _, n := range []uint32{0xFFFFFFFF, MaxTxPerBlock + 1, uint32(len(b.Txs)) + 1} {
		h := b.Header
		h.NumTxs = n
		raw := EncodeHeader(&h)
		if _, err := DecodeBlock(raw); CodeOf(err) != BLOCK_ERR_MALFORMED_ENCODING {
			t.Fatalf("header-only blob with count %d: got %v", n, err)
		}
	}
}

func TestValidateBlock_MerkleMismatch(t *testing.T) {
	b, op := signedBlock(t)
	b.Txs[0].Outputs[0].Amount = amt(61)
	if err := ValidateBlock(b, op); CodeOf(err) != BLOCK_ERR_MERKLE_INVALID {
		t.Fatalf("got %v", err)
	}
}

func TestValidateBlock_WrongSigner(t *testing.T) {
	b, _ := signedBlock(t)
	other := addrOf(testKey(t, 9))
	if err := ValidateBlock(b, other); CodeOf(err) != BLOCK_ERR_SIGNATURE_INVALID {
		t.Fatalf("got %v", err)
	}
}

func TestHeaderHash_CoversSignature(t *testing.T) {
	b, _ := signedBlock(t)
	h1 := HeaderHash(&b.Header)
	s1 := HeaderSigHash(&b.Header)
	b.Header.Sig.V ^= 1
	if HeaderHash(&b.Header) == h1 {
		t.Fatalf("header hash ignores signature")
	}
	if HeaderSigHash(&b.Header) != s1 {
		t.Fatalf("signing hash depends on signature")
	}
}
