package consensus

import (
	"encoding/binary"
	"math/big"
)

func appendU16be(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func appendU32be(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// appendAmount left-pads v to AmountLength bytes. A nil amount encodes as zero.
func appendAmount(dst []byte, v *big.Int) ([]byte, error) {
	var buf [AmountLength]byte
	if v != nil {
		if v.Sign() < 0 {
			return nil, txerr(TX_ERR_MALFORMED_ENCODING, "negative amount")
		}
		if v.BitLen() > AmountLength*8 {
			return nil, txerr(TX_ERR_MALFORMED_ENCODING, "amount exceeds 256 bits")
		}
		v.FillBytes(buf[:])
	}
	return append(dst, buf[:]...), nil
}
