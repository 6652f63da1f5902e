package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-transfer/identity"
	"sol-transfer/ledgertest"
	"sol-transfer/models"
	"sol-transfer/transfer"
)

const recipient = "9VsY3Q9cPPiFf9984XJFXG7UEYdAUWpD1wuycvowprDm"

type fixture struct {
	node    *ledgertest.Server
	keypair string
	sender  models.Address
	config  string
	journal string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	kp, err := identity.NewKeypairFromSeed(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	raw, err := json.Marshal(kp)
	require.NoError(t, err)
	keypair := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(keypair, raw, 0600))

	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte("confirm:\n  poll_interval: 1ms\n  timeout: 5s\nlog:\n  level: error\n"), 0600))

	node := ledgertest.NewServer()
	t.Cleanup(node.Close)

	return &fixture{
		node:    node,
		keypair: keypair,
		sender:  kp.PublicKey(),
		config:  config,
		journal: filepath.Join(dir, "journal"),
	}
}

// run executes args with the fixture's connection flags prepended
func (f *fixture) run(args ...string) (string, error) {
	base := []string{"--config", f.config, "--keypair", f.keypair, "--url", f.node.URL(), "--journal", f.journal}
	var out bytes.Buffer
	err := execute(context.Background(), append(base, args...), &out)
	return out.String(), err
}

func TestTransfer_ConfirmedThenJournaled(t *testing.T) {
	f := newFixture(t)
	f.node.SetBalance(f.sender, 5_000_000_000)

	out, err := f.run("--commitment", "confirmed", "transfer", "--to", recipient, "--amount", "1000")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Sender pubkey: "+f.sender.String(), lines[0])
	assert.Equal(t, "Sender balance: 5000000000 lamports (5 SOL)", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "Transaction sent with signature: "))
	sig := strings.TrimPrefix(lines[2], "Transaction sent with signature: ")

	out, err = f.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, sig)
	assert.Contains(t, out, "confirmed")
	assert.Contains(t, out, "1000 -> "+recipient)

	out, err = f.run("status", sig)
	require.NoError(t, err)
	assert.Contains(t, out, "Journal: confirmed")
	assert.Contains(t, out, "Ledger: finalized")
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.node.SetBalance(f.sender, 5_000_000_000)

	out, err := f.run("transfer", "--to", recipient, "--amount", "10000000000")
	require.Error(t, err)
	assert.Equal(t, transfer.ExitSubmission, transfer.ExitCode(err))
	assert.NotContains(t, out, "Transaction sent")

	out, err = f.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
}

func TestTransfer_MissingKeypair(t *testing.T) {
	f := newFixture(t)
	f.keypair = filepath.Join(t.TempDir(), "missing.json")

	_, err := f.run("transfer", "--to", recipient, "--amount", "1000")
	require.Error(t, err)
	assert.Equal(t, transfer.ExitIdentity, transfer.ExitCode(err))
	assert.Zero(t, f.node.TotalCalls())
}

func TestTransfer_InvalidRecipient(t *testing.T) {
	f := newFixture(t)
	f.node.SetBalance(f.sender, 5_000_000_000)

	_, err := f.run("transfer", "--to", "not-an-address", "--amount", "1000")
	require.Error(t, err)
	assert.Equal(t, transfer.ExitInvalidInput, transfer.ExitCode(err))
	assert.Zero(t, f.node.Calls("getLatestBlockhash"))
}

func TestTransfer_RequiresRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.run("transfer", "--amount", "1000")
	require.Error(t, err)
	assert.Equal(t, transfer.ExitFailure, transfer.ExitCode(err))
	assert.Zero(t, f.node.TotalCalls())
}

func TestTransfer_KeypairFromEnvironment(t *testing.T) {
	f := newFixture(t)
	t.Setenv(identity.EnvKeypairPath, f.keypair)

	var out bytes.Buffer
	err := execute(context.Background(), []string{"--config", f.config, "address"}, &out)
	require.NoError(t, err)
	assert.Equal(t, f.sender.String()+"\n", out.String())
}

func TestAddress_Offline(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("address")
	require.NoError(t, err)
	assert.Equal(t, f.sender.String()+"\n", out)
	assert.Zero(t, f.node.TotalCalls())
}

func TestBalance(t *testing.T) {
	f := newFixture(t)
	f.node.SetBalance(f.sender, 1_500_000_000)

	out, err := f.run("balance")
	require.NoError(t, err)
	assert.Equal(t, f.sender.String()+": 1500000000 lamports (1.5 SOL)\n", out)

	out, err = f.run("balance", recipient)
	require.NoError(t, err)
	assert.Equal(t, recipient+": 0 lamports (0 SOL)\n", out)

	_, err = f.run("balance", "0OIl")
	assert.Equal(t, transfer.ExitInvalidInput, transfer.ExitCode(err))
}

func TestHistory_RequiresJournal(t *testing.T) {
	f := newFixture(t)

	var out bytes.Buffer
	err := execute(context.Background(), []string{"--config", f.config, "history"}, &out)
	assert.ErrorIs(t, err, errNoJournal)
}

func TestInvalidCommitment(t *testing.T) {
	f := newFixture(t)

	_, err := f.run("--commitment", "eventually", "address")
	require.Error(t, err)
	assert.Equal(t, transfer.ExitFailure, transfer.ExitCode(err))
}
