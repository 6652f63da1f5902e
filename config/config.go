// Package config resolves runtime settings from defaults, an optional YAML file,
// the environment and command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sol-transfer/identity"
	"sol-transfer/ledger"
)

// EnvPrefix namespaces every environment override, e.g. SOLXFER_RPC_URL
const EnvPrefix = "SOLXFER"

// Config is the resolved configuration of one invocation
type Config struct {
	Keypair string

	RPCURL         string
	RPCTimeout     time.Duration
	Commitment     ledger.Commitment
	ConfirmTimeout time.Duration
	PollInterval   time.Duration

	LogLevel string
	LogFile  string

	JournalPath string
}

// flagKeys maps command line flag names onto configuration keys
var flagKeys = map[string]string{
	"keypair":    "keypair",
	"url":        "rpc.url",
	"commitment": "rpc.commitment",
	"timeout":    "confirm.timeout",
	"log-level":  "log.level",
	"log-file":   "log.file",
	"journal":    "journal.path",
}

func setDefaults(v *viper.Viper) {
	def := ledger.DefaultConfig()
	v.SetDefault("keypair", "")
	v.SetDefault("rpc.url", def.Endpoint)
	v.SetDefault("rpc.timeout", def.RequestTimeout)
	v.SetDefault("rpc.commitment", string(def.Commitment))
	v.SetDefault("confirm.timeout", def.ConfirmTimeout)
	v.SetDefault("confirm.poll_interval", def.PollInterval)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("journal.path", "")
}

// Load reads file when it is non-empty and layers environment and flags on top.
// flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("keypair", identity.EnvKeypairPath, EnvPrefix+"_KEYPAIR"); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{
		Keypair:        v.GetString("keypair"),
		RPCURL:         v.GetString("rpc.url"),
		RPCTimeout:     v.GetDuration("rpc.timeout"),
		ConfirmTimeout: v.GetDuration("confirm.timeout"),
		PollInterval:   v.GetDuration("confirm.poll_interval"),
		LogLevel:       v.GetString("log.level"),
		LogFile:        v.GetString("log.file"),
		JournalPath:    v.GetString("journal.path"),
	}

	commitment, err := ledger.ParseCommitment(v.GetString("rpc.commitment"))
	if err != nil {
		return nil, err
	}
	cfg.Commitment = commitment

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc.url must not be empty")
	}
	for key, d := range map[string]time.Duration{
		"rpc.timeout":           c.RPCTimeout,
		"confirm.timeout":       c.ConfirmTimeout,
		"confirm.poll_interval": c.PollInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	return nil
}

// KeypairPath applies the keypair location rules: an explicit setting wins,
// otherwise the default file under the home directory is used
func (c *Config) KeypairPath() (string, error) {
	if c.Keypair != "" {
		return c.Keypair, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return identity.ResolvePath("", home), nil
}

// Ledger returns the RPC client settings
func (c *Config) Ledger() ledger.Config {
	return ledger.Config{
		Endpoint:       c.RPCURL,
		Commitment:     c.Commitment,
		RequestTimeout: c.RPCTimeout,
		ConfirmTimeout: c.ConfirmTimeout,
		PollInterval:   c.PollInterval,
	}
}
