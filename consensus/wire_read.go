package consensus

import (
	"encoding/binary"
	"math/big"
)

func readU8(b []byte, off *int) (uint8, error) {
	if *off+1 > len(b) {
		return 0, txerr(TX_ERR_MALFORMED_ENCODING, "unexpected EOF (u8)")
	}
	v := b[*off]
	*off++
	return v, nil
}

func readU16be(b []byte, off *int) (uint16, error) {
	if *off+2 > len(b) {
		return 0, txerr(TX_ERR_MALFORMED_ENCODING, "unexpected EOF (u16be)")
	}
	v := binary.BigEndian.Uint16(b[*off : *off+2])
	*off += 2
	return v, nil
}

func readU32be(b []byte, off *int) (uint32, error) {
	if *off+4 > len(b) {
		return 0, txerr(TX_ERR_MALFORMED_ENCODING, "unexpected EOF (u32be)")
	}
	v := binary.BigEndian.Uint32(b[*off : *off+4])
	*off += 4
	return v, nil
}

func readBytes(b []byte, off *int, n int) ([]byte, error) {
	if n < 0 {
		return nil, txerr(TX_ERR_MALFORMED_ENCODING, "negative length")
	}
	if *off+n > len(b) {
		return nil, txerr(TX_ERR_MALFORMED_ENCODING, "unexpected EOF (bytes)")
	}
	v := b[*off : *off+n]
	*off += n
	return v, nil
}

func readHash32(b []byte, off *int) ([32]byte, error) {
	var out [32]byte
	raw, err := readBytes(b, off, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], raw)
	return out, nil
}

func readAmount(b []byte, off *int) (*big.Int, error) {
	raw, err := readBytes(b, off, AmountLength)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}
