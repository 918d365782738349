package commands

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"plasma.dev/node/consensus"
	"plasma.dev/node/node"
	"plasma.dev/node/node/store"
)

type proofJSON struct {
	BlockNumber uint32 `json:"block_number"`
	TxNumber    uint32 `json:"tx_number"`
	Tx          string `json:"tx"`
	Proof       string `json:"proof"`
	MerkleRoot  string `json:"merkle_root"`
}

type utxoJSON struct {
	BlockNumber  uint32 `json:"block_number"`
	TxNumber     uint32 `json:"tx_number"`
	OutputNumber uint8  `json:"output_number"`
	Amount       string `json:"amount"`
}

type withdrawalJSON struct {
	BlockNumber uint32 `json:"block_number"`
	TxNumber    uint32 `json:"tx_number"`
	Amount      string `json:"amount"`
}

// offlineNote is appended to the help of commands that read the store
// directly.
const offlineNote = `
The command opens the chain database itself, so it only works while no
operator is running on the same data directory.`

// withStore opens the store for a one-shot query. It fails with
// store.ErrLocked while a running operator holds the database.
func withStore(conf *node.Config, fn func(db *store.DB) error) error {
	db, err := store.Open(conf.DataDir, store.Options{AddressIndex: conf.MakeAddressIndex})
	if errors.Is(err, store.ErrLocked) {
		return fmt.Errorf("%w (stop the operator first)", err)
	}
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseU32(s string, what string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return uint32(n), nil
}

// NewProofCmd prints the serialized transaction and its inclusion proof.
func NewProofCmd(conf *node.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "proof <block> <tx>",
		Short: "Print a transaction with its Merkle inclusion proof",
		Long:  "Print the serialized transaction <tx> of block <block> with its Merkle inclusion proof.\n" + offlineNote,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := parseU32(args[0], "block number")
			if err != nil {
				return err
			}
			txNum, err := parseU32(args[1], "tx number")
			if err != nil {
				return err
			}
			return withStore(conf, func(db *store.DB) error {
				p, err := node.PrepareProof(db, block, txNum)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), proofJSON{
					BlockNumber: p.BlockNumber,
					TxNumber:    p.TxNumber,
					Tx:          "0x" + hex.EncodeToString(p.Tx),
					Proof:       "0x" + hex.EncodeToString(p.Proof),
					MerkleRoot:  "0x" + hex.EncodeToString(p.MerkleRoot[:]),
				})
			})
		},
	}
}

// NewUTXOsCmd lists the unspent outputs owned by an address, newest first.
func NewUTXOsCmd(conf *node.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "utxos <address>",
		Short: "List unspent outputs of an address",
		Long:  "List the unspent outputs owned by <address>, newest first.\n" + offlineNote,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := consensus.HexToAddress(args[0])
			if err != nil {
				return err
			}
			return withStore(conf, func(db *store.DB) error {
				utxos, err := db.UTXOsForAddress(addr)
				if err != nil {
					return err
				}
				out := make([]utxoJSON, 0, len(utxos))
				for _, u := range utxos {
					out = append(out, utxoJSON{
						BlockNumber:  u.Key.BlockNumber,
						TxNumber:     u.Key.TxNumber,
						OutputNumber: u.Key.OutputNumber,
						Amount:       u.Output.Amount.String(),
					})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

// NewWithdrawalsCmd lists an address's Withdraw transactions that have
// not been exited on the ledger yet.
func NewWithdrawalsCmd(conf *node.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "withdrawals <address>",
		Short: "List pending withdrawals of an address",
		Long:  "List the Withdraw transactions of <address> not yet exited on the ledger.\n" + offlineNote,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := consensus.HexToAddress(args[0])
			if err != nil {
				return err
			}
			return withStore(conf, func(db *store.DB) error {
				ws, err := db.WithdrawsForAddress(addr)
				if err != nil {
					return err
				}
				out := make([]withdrawalJSON, 0, len(ws))
				for _, w := range ws {
					out = append(out, withdrawalJSON{
						BlockNumber: w.BlockNumber,
						TxNumber:    w.TxNumber,
						Amount:      w.Output.Amount.String(),
					})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}
