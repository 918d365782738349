// Package ethledger talks to the anchor contract over Ethereum JSON-RPC.
package ethledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/ledger"
)

type Config struct {
	RPC      string
	Contract string
	// GasLimit of zero lets the node estimate.
	GasLimit uint64
}

type Client struct {
	rpc      *ethclient.Client
	abi      abi.ABI
	address  common.Address
	contract *bind.BoundContract
	auth     *bind.TransactOpts
}

var _ ledger.Ledger = (*Client)(nil)

type depositLog struct {
	From         common.Address
	Amount       *big.Int
	DepositIndex *big.Int
}

type expressWithdrawLog struct {
	WithdrawTxBlockNumber   uint32
	WithdrawTxNumberInBlock uint32
	From                    common.Address
}

type headerSubmittedLog struct {
	Signer      common.Address
	BlockNumber uint32
}

// Dial connects to cfg.RPC and binds the anchor contract, signing
// transactions with key.
func Dial(ctx context.Context, cfg Config, key *crypto.PrivKey) (*Client, error) {
	if cfg.RPC == "" {
		return nil, errors.New("ledger rpc endpoint required")
	}
	if !common.IsHexAddress(cfg.Contract) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.Contract)
	}
	if key == nil {
		return nil, errors.New("nil operator key")
	}
	rpc, err := ethclient.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPC, err)
	}
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	ecdsaKey, err := gethcrypto.ToECDSA(key.Bytes())
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("operator key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(ecdsaKey, chainID)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("transactor: %w", err)
	}
	auth.GasLimit = cfg.GasLimit

	c, err := newClient(rpc, common.HexToAddress(cfg.Contract))
	if err != nil {
		rpc.Close()
		return nil, err
	}
	c.auth = auth
	return c, nil
}

func newClient(rpc *ethclient.Client, address common.Address) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	var contract *bind.BoundContract
	if rpc != nil {
		contract = bind.NewBoundContract(address, parsed, rpc, rpc, rpc)
	} else {
		contract = bind.NewBoundContract(address, parsed, nil, nil, nil)
	}
	return &Client{rpc: rpc, abi: parsed, address: address, contract: contract}, nil
}

func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.rpc.BlockNumber(ctx)
}

func (c *Client) filter(ctx context.Context, event string, from, to uint64) ([]types.Log, error) {
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{c.abi.Events[event].ID}},
	}
	logs, err := c.rpc.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter %s [%d,%d]: %w", event, from, to, err)
	}
	return logs, nil
}

func (c *Client) DepositEvents(ctx context.Context, from, to uint64) ([]ledger.DepositEvent, error) {
	logs, err := c.filter(ctx, eventDeposit, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.DepositEvent, 0, len(logs))
	for _, lg := range logs {
		ev, err := c.decodeDeposit(lg)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) decodeDeposit(lg types.Log) (ledger.DepositEvent, error) {
	var raw depositLog
	if err := c.contract.UnpackLog(&raw, eventDeposit, lg); err != nil {
		return ledger.DepositEvent{}, fmt.Errorf("unpack %s: %w", eventDeposit, err)
	}
	return ledger.DepositEvent{
		LedgerBlock:  lg.BlockNumber,
		Depositor:    consensus.Address(raw.From),
		Amount:       raw.Amount,
		DepositIndex: raw.DepositIndex,
	}, nil
}

func (c *Client) ExpressWithdrawEvents(ctx context.Context, from, to uint64) ([]ledger.ExpressWithdrawEvent, error) {
	logs, err := c.filter(ctx, eventExpressWithdraw, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.ExpressWithdrawEvent, 0, len(logs))
	for _, lg := range logs {
		ev, err := c.decodeExpressWithdraw(lg)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) decodeExpressWithdraw(lg types.Log) (ledger.ExpressWithdrawEvent, error) {
	var raw expressWithdrawLog
	if err := c.contract.UnpackLog(&raw, eventExpressWithdraw, lg); err != nil {
		return ledger.ExpressWithdrawEvent{}, fmt.Errorf("unpack %s: %w", eventExpressWithdraw, err)
	}
	return ledger.ExpressWithdrawEvent{
		LedgerBlock: lg.BlockNumber,
		Owner:       consensus.Address(raw.From),
		BlockNumber: raw.WithdrawTxBlockNumber,
		TxNumber:    raw.WithdrawTxNumberInBlock,
	}, nil
}

func (c *Client) LastSubmittedHeader(ctx context.Context) (uint32, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodLastBlockNumber); err != nil {
		return 0, fmt.Errorf("call %s: %w", methodLastBlockNumber, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("call %s: %d results", methodLastBlockNumber, len(out))
	}
	n := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if n == nil || !n.IsUint64() || n.Uint64() > uint64(^uint32(0)) {
		return 0, fmt.Errorf("call %s: out of range result %v", methodLastBlockNumber, n)
	}
	return uint32(n.Uint64()), nil
}

// SubmitBlockHeader sends the header and blocks until the transaction is
// mined, returning the contract's acceptance event.
func (c *Client) SubmitBlockHeader(ctx context.Context, header []byte) (*ledger.HeaderSubmitted, error) {
	if c.auth == nil {
		return nil, errors.New("client has no transactor")
	}
	opts := *c.auth
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, methodSubmitBlockHeader, header)
	if err != nil {
		return nil, fmt.Errorf("transact %s: %w", methodSubmitBlockHeader, err)
	}
	receipt, err := bind.WaitMined(ctx, c.rpc, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s reverted", ledger.ErrHeaderRejected, tx.Hash().Hex())
	}
	for _, lg := range receipt.Logs {
		if lg.Address != c.address || len(lg.Topics) == 0 || lg.Topics[0] != c.abi.Events[eventHeaderSubmitted].ID {
			continue
		}
		return c.decodeHeaderSubmitted(*lg)
	}
	return nil, fmt.Errorf("%w: no %s in receipt of %s", ledger.ErrHeaderRejected, eventHeaderSubmitted, tx.Hash().Hex())
}

func (c *Client) decodeHeaderSubmitted(lg types.Log) (*ledger.HeaderSubmitted, error) {
	var raw headerSubmittedLog
	if err := c.contract.UnpackLog(&raw, eventHeaderSubmitted, lg); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", eventHeaderSubmitted, err)
	}
	return &ledger.HeaderSubmitted{
		LedgerBlock: lg.BlockNumber,
		Signer:      consensus.Address(raw.Signer),
		BlockNumber: raw.BlockNumber,
	}, nil
}
