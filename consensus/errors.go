package consensus

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	TX_ERR_MALFORMED_ENCODING     ErrorCode = "TX_ERR_MALFORMED_ENCODING"
	TX_ERR_INVALID_SHAPE          ErrorCode = "TX_ERR_INVALID_SHAPE"
	TX_ERR_INVALID_SIGNATURE      ErrorCode = "TX_ERR_INVALID_SIGNATURE"
	TX_ERR_UNKNOWN_UTXO           ErrorCode = "TX_ERR_UNKNOWN_UTXO"
	TX_ERR_CONSERVATION_VIOLATION ErrorCode = "TX_ERR_CONSERVATION_VIOLATION"
	TX_ERR_PERMISSION_VIOLATION   ErrorCode = "TX_ERR_PERMISSION_VIOLATION"
	TX_ERR_DUPLICATE_DEPOSIT      ErrorCode = "TX_ERR_DUPLICATE_DEPOSIT"
	TX_ERR_STORAGE                ErrorCode = "TX_ERR_STORAGE"

	BLOCK_ERR_MALFORMED_ENCODING ErrorCode = "BLOCK_ERR_MALFORMED_ENCODING"
	BLOCK_ERR_MERKLE_INVALID     ErrorCode = "BLOCK_ERR_MERKLE_INVALID"
	BLOCK_ERR_SIGNATURE_INVALID  ErrorCode = "BLOCK_ERR_SIGNATURE_INVALID"
	BLOCK_ERR_EMPTY              ErrorCode = "BLOCK_ERR_EMPTY"
)

type TxError struct {
	Code ErrorCode
	Msg  string
}

func (e *TxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is matches any *TxError carrying the same code, so callers can test
// errors.Is(err, &TxError{Code: TX_ERR_UNKNOWN_UTXO}).
func (e *TxError) Is(target error) bool {
	t, ok := target.(*TxError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func txerr(code ErrorCode, msg string) error {
	return &TxError{Code: code, Msg: msg}
}

func txerrf(code ErrorCode, format string, args ...any) error {
	return &TxError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the error code carried by err, or "" when err is not a *TxError.
func CodeOf(err error) ErrorCode {
	var te *TxError
	if !errors.As(err, &te) || te == nil {
		return ""
	}
	return te.Code
}
