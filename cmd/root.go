package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sol-transfer/config"
	"sol-transfer/db"
	"sol-transfer/identity"
	"sol-transfer/ledger"
	"sol-transfer/logger"
	"sol-transfer/repository"
)

// app carries state shared by every subcommand of one invocation
type app struct {
	cfgFile string
	cfg     *config.Config
	out     io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "sol-transfer",
		Short:         "Send lamports from a local keypair and wait for confirmation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := logger.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			logger.Logger.Debug("configuration loaded",
				zap.String("url", cfg.RPCURL),
				zap.String("commitment", string(cfg.Commitment)),
				zap.String("journal", cfg.JournalPath))
			return nil
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "path to a YAML config file")
	pf.String("keypair", "", "keypair file (default $SOLANA_KEYPAIR or ~/.config/solana/id.json)")
	pf.String("url", "", "JSON-RPC endpoint (default http://127.0.0.1:8899)")
	pf.String("commitment", "", "processed, confirmed or finalized (default finalized)")
	pf.Duration("timeout", 0, "how long to wait for confirmation (default 60s)")
	pf.String("log-level", "", "debug, info, warn or error (default info)")
	pf.String("log-file", "", "write logs to a rotated file instead of stderr")
	pf.String("journal", "", "LevelDB directory for the submission journal")

	root.AddCommand(
		newTransferCmd(a),
		newBalanceCmd(a),
		newAddressCmd(a),
		newStatusCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) client() *ledger.RPCClient {
	return ledger.NewRPCClient(a.cfg.Ledger())
}

func (a *app) keypairPath() (string, error) {
	path, err := a.cfg.KeypairPath()
	if err != nil {
		return "", &identity.LoadError{Path: "~", Err: err}
	}
	return path, nil
}

func (a *app) loadKeypair() (*identity.Keypair, error) {
	path, err := a.keypairPath()
	if err != nil {
		return nil, err
	}
	return identity.Load(path)
}

// openJournal opens the LevelDB journal. It returns a nil repository when no
// journal path is configured; the returned close func is always safe to call.
func (a *app) openJournal() (repository.SubmissionRepositoryInterface, func(), error) {
	if a.cfg.JournalPath == "" {
		return nil, func() {}, nil
	}
	ldb, err := db.NewLevelDB(a.cfg.JournalPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open journal %s: %w", a.cfg.JournalPath, err)
	}
	closeFn := func() {
		if err := ldb.Close(); err != nil {
			logger.Logger.Warn("journal close failed", zap.Error(err))
		}
	}
	return repository.NewSubmissionRepository(ldb), closeFn, nil
}
