package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"plasma.dev/node/node"
)

func NewShowConfigCmd(conf *node.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(conf)
		},
	}
}
