package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"plasma.dev/node/consensus"
	"plasma.dev/node/crypto"
	"plasma.dev/node/node"
)

// NewKeygenCmd writes a fresh operator key to the configured key file.
// An existing key is never overwritten.
func NewKeygenCmd(conf *node.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate the operator key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenPrivKey()
			if err != nil {
				return err
			}
			path := conf.KeyFile()
			if err := crypto.SavePrivKeyFile(path, key); err != nil {
				return fmt.Errorf("save key: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "operator=%s key_file=%s\n", consensus.Address(key.Address()).Hex(), path)
			return err
		},
	}
}
