package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"plasma.dev/node/log"
	"plasma.dev/node/node"
)

// EnvPrefix is prepended to every configuration key read from the
// environment, e.g. PLASMA_DATA_DIR.
const EnvPrefix = "PLASMA"

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"datadir":        "data_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"key-file":       "operator_key_file",
	"block-time":     "block_time",
	"fast-poll":      "fast_poll",
	"slow-poll":      "slow_poll",
	"max-txs":        "max_tx_per_block",
	"address-index":  "make_address_index",
	"ledger":         "ledger_mode",
	"ledger-rpc":     "ledger_rpc",
	"contract":       "contract_address",
	"ledger-start":   "ledger_start_block",
	"confirmations":  "confirmations",
	"metrics-listen": "metrics_addr",
}

// ParseConfig unmarshals v into a copy of the defaults and validates it.
func ParseConfig(v *viper.Viper) (node.Config, error) {
	conf := node.DefaultConfig()
	if err := v.Unmarshal(&conf); err != nil {
		return node.Config{}, err
	}
	conf.LogLevel = strings.ToLower(strings.TrimSpace(conf.LogLevel))
	if err := node.ValidateConfig(conf); err != nil {
		return node.Config{}, fmt.Errorf("error in config: %w", err)
	}
	return conf, nil
}

// RootCommand constructs the root command. conf and logger are filled in
// before any subcommand runs.
func RootCommand(conf *node.Config, logger *log.Logger) *cobra.Command {
	v := viper.New()
	defaults := node.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "plasma-node",
		Short:         "Plasma child-chain operator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			if err := loadConfigFile(v, cmd); err != nil {
				return err
			}
			pconf, err := ParseConfig(v)
			if err != nil {
				return err
			}
			*conf = pconf
			l, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
			if err != nil {
				return err
			}
			*logger = l
			return nil
		},
	}

	setDefaults(v, defaults)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default <datadir>/config.toml when present)")
	pf.String("datadir", defaults.DataDir, "directory for the chain database and operator key")
	pf.String("log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	pf.String("log-format", defaults.LogFormat, "log format: plain|text|json")
	pf.String("key-file", defaults.OperatorKeyFile, "operator key file (default <datadir>/operator.key)")
	pf.Bool("address-index", defaults.MakeAddressIndex, "maintain the per-address utxo and tx indexes")
	pf.String("ledger", defaults.LedgerMode, "ledger backend: eth, or mem for a local in-process ledger")
	pf.String("ledger-rpc", defaults.LedgerRPC, "Ethereum JSON-RPC endpoint (eth ledger)")
	pf.String("contract", defaults.ContractAddress, "anchor contract address (eth ledger)")
	return cmd
}

func setDefaults(v *viper.Viper, c node.Config) {
	v.SetDefault("data_dir", c.DataDir)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_format", c.LogFormat)
	v.SetDefault("operator_key_file", c.OperatorKeyFile)
	v.SetDefault("block_time", c.BlockTime)
	v.SetDefault("fast_poll", c.FastPoll)
	v.SetDefault("slow_poll", c.SlowPoll)
	v.SetDefault("max_tx_per_block", c.MaxTxPerBlock)
	v.SetDefault("make_address_index", c.MakeAddressIndex)
	v.SetDefault("ledger_mode", c.LedgerMode)
	v.SetDefault("ledger_rpc", c.LedgerRPC)
	v.SetDefault("contract_address", c.ContractAddress)
	v.SetDefault("ledger_start_block", c.LedgerStartBlock)
	v.SetDefault("confirmations", c.Confirmations)
	v.SetDefault("metrics_addr", c.MetricsAddr)
}

// bindFlags binds every known flag of cmd, persistent or local, to its
// configuration key. Unset flags fall through to env, file and defaults.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func loadConfigFile(v *viper.Viper, cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}
	v.SetConfigName("config")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
