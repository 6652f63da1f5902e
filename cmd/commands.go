package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sol-transfer/models"
	"sol-transfer/transfer"
)

func newTransferCmd(a *app) *cobra.Command {
	var (
		to     string
		amount int64
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Sign and submit a transfer, then wait for confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.keypairPath()
			if err != nil {
				return err
			}
			journal, closeJournal, err := a.openJournal()
			if err != nil {
				return err
			}
			defer closeJournal()

			d := transfer.NewDriver(a.client(), journal, a.out)
			_, err = d.Run(cmd.Context(), transfer.Request{KeypairPath: path, To: to, Amount: amount})
			return err
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient address (base-58)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "lamports to send")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print the balance of the keypair, or of the given address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var address models.Address
			if len(args) == 1 {
				parsed, err := models.ParseAddress(args[0])
				if err != nil {
					return err
				}
				address = parsed
			} else {
				kp, err := a.loadKeypair()
				if err != nil {
					return err
				}
				address = kp.PublicKey()
			}

			lamports, err := a.client().GetBalance(cmd.Context(), address)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %d lamports (%s SOL)\n", address, lamports, transfer.FormatSOL(lamports))
			return nil
		},
	}
}

func newAddressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the public key of the keypair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := a.loadKeypair()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, kp.PublicKey())
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <signature>",
		Short: "Show the journal entry and live ledger status of a signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, closeJournal, err := a.openJournal()
			if err != nil {
				return err
			}
			defer closeJournal()

			report, err := transfer.Lookup(cmd.Context(), a.client(), journal, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Signature: %s\n", report.Signature)
			if sub := report.Journal; sub != nil {
				fmt.Fprintf(a.out, "Journal: %s (%d lamports to %s, run %s)\n", sub.State, sub.Lamports, sub.To, sub.RunID)
			} else if journal != nil {
				fmt.Fprintln(a.out, "Journal: no entry")
			}

			switch live := report.Live; {
			case live == nil:
				fmt.Fprintln(a.out, "Ledger: not found")
			case live.Failed():
				fmt.Fprintf(a.out, "Ledger: failed at slot %d: %s\n", live.Slot, live.Err)
			default:
				fmt.Fprintf(a.out, "Ledger: %s at slot %d\n", live.Level(), live.Slot)
			}
			return nil
		},
	}
}

var errNoJournal = errors.New("no journal configured, set --journal or journal.path")

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List journaled submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, closeJournal, err := a.openJournal()
			if err != nil {
				return err
			}
			defer closeJournal()
			if journal == nil {
				return errNoJournal
			}

			subs, err := journal.ListSubmissions()
			if err != nil {
				return err
			}
			for _, sub := range subs {
				created := time.UnixMilli(sub.CreatedAt).UTC().Format(time.RFC3339)
				fmt.Fprintf(a.out, "%s  %-9s  %s  %d -> %s\n", created, sub.State, sub.Signature, sub.Lamports, sub.To)
			}
			return nil
		},
	}
}
