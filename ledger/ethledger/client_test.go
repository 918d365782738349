package ethledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"plasma.dev/node/consensus"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := newClient(nil, common.HexToAddress("0x00000000000000000000000000000000000000c0"))
	require.NoError(t, err)
	return c
}

func TestDecodeDeposit(t *testing.T) {
	c := testClient(t)
	from := common.HexToAddress("0x7e5f4552091a69125d5dfcb7b8c2659029395bdf")
	data, err := c.abi.Events[eventDeposit].Inputs.NonIndexed().Pack(big.NewInt(100), big.NewInt(7))
	require.NoError(t, err)

	ev, err := c.decodeDeposit(types.Log{
		Address:     c.address,
		Topics:      []common.Hash{c.abi.Events[eventDeposit].ID, common.BytesToHash(from.Bytes())},
		Data:        data,
		BlockNumber: 42,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(42), ev.LedgerBlock)
	require.Equal(t, consensus.Address(from), ev.Depositor)
	require.Equal(t, "100", ev.Amount.String())
	require.Equal(t, "7", ev.DepositIndex.String())
}

func TestDecodeExpressWithdraw(t *testing.T) {
	c := testClient(t)
	from := common.HexToAddress("0x2b5ad5c4795c026514f8317c7a215e218dccd6cf")
	data, err := c.abi.Events[eventExpressWithdraw].Inputs.NonIndexed().Pack(uint32(2), uint32(0))
	require.NoError(t, err)

	ev, err := c.decodeExpressWithdraw(types.Log{
		Address:     c.address,
		Topics:      []common.Hash{c.abi.Events[eventExpressWithdraw].ID, common.BytesToHash(from.Bytes())},
		Data:        data,
		BlockNumber: 9,
	})
	require.NoError(t, err)
	require.Equal(t, consensus.Address(from), ev.Owner)
	require.Equal(t, uint32(2), ev.BlockNumber)
	require.Equal(t, uint32(0), ev.TxNumber)
}

func TestDecodeHeaderSubmitted(t *testing.T) {
	c := testClient(t)
	signer := common.HexToAddress("0x7e5f4552091a69125d5dfcb7b8c2659029395bdf")
	data, err := c.abi.Events[eventHeaderSubmitted].Inputs.NonIndexed().Pack(uint32(5))
	require.NoError(t, err)

	ev, err := c.decodeHeaderSubmitted(types.Log{
		Address: c.address,
		Topics:  []common.Hash{c.abi.Events[eventHeaderSubmitted].ID, common.BytesToHash(signer.Bytes())},
		Data:    data,
	})
	require.NoError(t, err)
	require.Equal(t, uint32(5), ev.BlockNumber)
	require.Equal(t, consensus.Address(signer), ev.Signer)
}

func TestDial_ValidatesConfig(t *testing.T) {
	_, err := Dial(context.Background(), Config{}, nil)
	require.Error(t, err)
	_, err = Dial(context.Background(), Config{RPC: "http://127.0.0.1:1", Contract: "nope"}, nil)
	require.Error(t, err)
}
