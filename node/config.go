package node

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"plasma.dev/node/consensus"
)

const (
	LedgerModeEth = "eth"
	LedgerModeMem = "mem"
)

type Config struct {
	DataDir          string        `json:"data_dir" mapstructure:"data_dir"`
	LogLevel         string        `json:"log_level" mapstructure:"log_level"`
	LogFormat        string        `json:"log_format" mapstructure:"log_format"`
	OperatorKeyFile  string        `json:"operator_key_file" mapstructure:"operator_key_file"`
	BlockTime        time.Duration `json:"block_time" mapstructure:"block_time"`
	FastPoll         time.Duration `json:"fast_poll" mapstructure:"fast_poll"`
	SlowPoll         time.Duration `json:"slow_poll" mapstructure:"slow_poll"`
	MaxTxPerBlock    int           `json:"max_tx_per_block" mapstructure:"max_tx_per_block"`
	MakeAddressIndex bool          `json:"make_address_index" mapstructure:"make_address_index"`
	LedgerMode       string        `json:"ledger_mode" mapstructure:"ledger_mode"`
	LedgerRPC        string        `json:"ledger_rpc" mapstructure:"ledger_rpc"`
	ContractAddress  string        `json:"contract_address" mapstructure:"contract_address"`
	LedgerStartBlock uint64        `json:"ledger_start_block" mapstructure:"ledger_start_block"`
	Confirmations    uint64        `json:"confirmations" mapstructure:"confirmations"`
	MetricsAddr      string        `json:"metrics_addr" mapstructure:"metrics_addr"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var allowedLogFormats = map[string]struct{}{
	"plain": {},
	"text":  {},
	"json":  {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".plasma"
	}
	return filepath.Join(home, ".plasma")
}

func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		LogLevel:         "info",
		LogFormat:        "plain",
		BlockTime:        1 * time.Second,
		FastPoll:         100 * time.Millisecond,
		SlowPoll:         1000 * time.Millisecond,
		MaxTxPerBlock:    consensus.MaxTxPerBlock,
		MakeAddressIndex: true,
		LedgerMode:       LedgerModeEth,
		LedgerRPC:        "http://127.0.0.1:8545",
		LedgerStartBlock: 0,
		Confirmations:    0,
	}
}

// KeyFile is the operator key location, defaulting to data_dir/operator.key.
func (c Config) KeyFile() string {
	if strings.TrimSpace(c.OperatorKeyFile) != "" {
		return c.OperatorKeyFile
	}
	return filepath.Join(c.DataDir, "operator.key")
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	logFormat := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if _, ok := allowedLogFormats[logFormat]; !ok {
		return fmt.Errorf("invalid log_format %q", cfg.LogFormat)
	}
	if cfg.BlockTime <= 0 {
		return errors.New("block_time must be > 0")
	}
	if cfg.FastPoll <= 0 || cfg.SlowPoll <= 0 {
		return errors.New("fast_poll and slow_poll must be > 0")
	}
	if cfg.FastPoll > cfg.SlowPoll {
		return errors.New("fast_poll must be <= slow_poll")
	}
	if cfg.MaxTxPerBlock <= 0 || cfg.MaxTxPerBlock > consensus.MaxTxPerBlock {
		return fmt.Errorf("max_tx_per_block must be in [1, %d]", consensus.MaxTxPerBlock)
	}
	switch cfg.LedgerMode {
	case LedgerModeMem:
	case LedgerModeEth:
		if strings.TrimSpace(cfg.LedgerRPC) == "" {
			return errors.New("ledger_rpc is required in eth mode")
		}
		if _, err := consensus.HexToAddress(cfg.ContractAddress); err != nil {
			return fmt.Errorf("invalid contract_address: %w", err)
		}
	default:
		return fmt.Errorf("invalid ledger_mode %q", cfg.LedgerMode)
	}
	if cfg.MetricsAddr != "" {
		if err := validateAddr(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics_addr: %w", err)
		}
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}
