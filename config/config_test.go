package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-transfer/config"
	"sol-transfer/identity"
	"sol-transfer/ledger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{identity.EnvKeypairPath, "SOLXFER_KEYPAIR", "SOLXFER_RPC_URL", "SOLXFER_RPC_COMMITMENT"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8899", cfg.RPCURL)
	assert.Equal(t, ledger.CommitmentFinalized, cfg.Commitment)
	assert.Equal(t, 60*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.JournalPath)
	assert.Empty(t, cfg.Keypair)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	path, err := cfg.KeypairPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "solana", "id.json"), path)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv(identity.EnvKeypairPath, "/keys/payer.json")
	t.Setenv("SOLXFER_RPC_URL", "http://validator:8899")
	t.Setenv("SOLXFER_RPC_COMMITMENT", "confirmed")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	path, err := cfg.KeypairPath()
	require.NoError(t, err)
	assert.Equal(t, "/keys/payer.json", path)
	assert.Equal(t, "http://validator:8899", cfg.RPCURL)
	assert.Equal(t, ledger.CommitmentConfirmed, cfg.Commitment)
}

func TestLoad_FileAndFlags(t *testing.T) {
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
rpc:
  url: http://file:8899
  commitment: processed
confirm:
  timeout: 5s
  poll_interval: 100ms
journal:
  path: /var/lib/transfers
`), 0600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("url", "", "")
	flags.String("commitment", "", "")
	require.NoError(t, flags.Parse([]string{"--url", "http://flag:8899"}))

	cfg, err := config.Load(file, flags)
	require.NoError(t, err)

	assert.Equal(t, "http://flag:8899", cfg.RPCURL)
	assert.Equal(t, ledger.CommitmentProcessed, cfg.Commitment)
	assert.Equal(t, 5*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, "/var/lib/transfers", cfg.JournalPath)

	lc := cfg.Ledger()
	assert.Equal(t, "http://flag:8899", lc.Endpoint)
	assert.Equal(t, 100*time.Millisecond, lc.PollInterval)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	t.Run("unknown commitment", func(t *testing.T) {
		t.Setenv("SOLXFER_RPC_COMMITMENT", "eventually")
		_, err := config.Load("", nil)
		assert.Error(t, err)
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(file, []byte("confirm:\n  timeout: 0s\n"), 0600))
		_, err := config.Load(file, nil)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.Error(t, err)
	})
}
