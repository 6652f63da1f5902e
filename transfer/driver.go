// Package transfer drives one value transfer from keypair file to confirmed signature.
package transfer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sol-transfer/builder"
	"sol-transfer/identity"
	"sol-transfer/ledger"
	"sol-transfer/logger"
	"sol-transfer/models"
	"sol-transfer/repository"
)

// State is a step of the transfer pipeline
type State string

const (
	StateStart             State = "Start"
	StateIdentityLoaded    State = "IdentityLoaded"
	StateBalanceQueried    State = "BalanceQueried"
	StateCheckpointFetched State = "CheckpointFetched"
	StateTransactionBuilt  State = "TransactionBuilt"
	StateSubmitted         State = "Submitted"
	StateConfirmed         State = "Confirmed"
	StateFailed            State = "Failed"
)

// Request describes the transfer to perform
type Request struct {
	KeypairPath string
	To          string
	Amount      int64
}

// Result is what a run observed. On failure it holds whatever was learned
// before the failing step.
type Result struct {
	RunID     string
	State     State
	Sender    models.Address
	Balance   uint64
	Signature models.Signature
}

// Driver sequences identity loading, balance query, checkpoint fetch, signing
// and submission. It never retries.
type Driver struct {
	ledger  ledger.Client
	journal repository.SubmissionRepositoryInterface
	out     io.Writer

	loadIdentity func(path string) (*identity.Keypair, error)
	now          func() time.Time
}

// NewDriver creates a driver. journal may be nil to skip journaling.
func NewDriver(client ledger.Client, journal repository.SubmissionRepositoryInterface, out io.Writer) *Driver {
	if out == nil {
		out = io.Discard
	}
	return &Driver{
		ledger:       client,
		journal:      journal,
		out:          out,
		loadIdentity: identity.Load,
		now:          time.Now,
	}
}

// run holds the per-invocation progress of Run
type run struct {
	log    *zap.Logger
	result *Result
}

func (r *run) advance(state State) {
	r.result.State = state
	r.log.Debug("transfer state", zap.String("state", string(state)))
}

func (r *run) fail(err error) error {
	last := r.result.State
	r.result.State = StateFailed
	r.log.Error("transfer failed", zap.String("after", string(last)), zap.Error(err))
	return &StepError{State: last, Err: err}
}

// Run performs the transfer. Input validation happens before any network call;
// the sender balance is only reported, the ledger decides whether it suffices.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	r := &run{result: &Result{RunID: uuid.NewString(), State: StateStart}}
	r.log = logger.Logger.With(zap.String("run_id", r.result.RunID))
	res := r.result

	kp, err := d.loadIdentity(req.KeypairPath)
	if err != nil {
		return res, r.fail(err)
	}
	res.Sender = kp.PublicKey()
	r.advance(StateIdentityLoaded)
	fmt.Fprintf(d.out, "Sender pubkey: %s\n", res.Sender)

	to, err := models.ParseAddress(req.To)
	if err != nil {
		return res, r.fail(err)
	}
	if _, err := builder.NewTransferInstruction(res.Sender, to, req.Amount); err != nil {
		return res, r.fail(err)
	}

	res.Balance, err = d.ledger.GetBalance(ctx, res.Sender)
	if err != nil {
		return res, r.fail(err)
	}
	r.advance(StateBalanceQueried)
	fmt.Fprintf(d.out, "Sender balance: %d lamports (%s SOL)\n", res.Balance, FormatSOL(res.Balance))

	checkpoint, err := d.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return res, r.fail(err)
	}
	r.advance(StateCheckpointFetched)

	tx, err := builder.BuildSignedTransfer(kp, to, req.Amount, checkpoint)
	if err != nil {
		return res, r.fail(err)
	}
	res.Signature = tx.Signatures[0]
	r.advance(StateTransactionBuilt)

	sub := &models.Submission{
		Signature: res.Signature.String(),
		RunID:     res.RunID,
		From:      res.Sender.String(),
		To:        to.String(),
		Lamports:  uint64(req.Amount),
		Blockhash: checkpoint.Blockhash.String(),
		State:     models.SubmissionPending,
	}
	if err := d.record(sub); err != nil {
		return res, r.fail(fmt.Errorf("journal submission: %w", err))
	}

	r.advance(StateSubmitted)
	sig, err := d.ledger.SubmitAndConfirm(ctx, tx)
	if err != nil {
		d.settle(r.log, sub, err)
		return res, r.fail(err)
	}

	res.Signature = sig
	d.settle(r.log, sub, nil)
	r.advance(StateConfirmed)
	fmt.Fprintf(d.out, "Transaction sent with signature: %s\n", sig)
	return res, nil
}

// record writes sub to the journal, when one is configured
func (d *Driver) record(sub *models.Submission) error {
	if d.journal == nil {
		return nil
	}
	sub.Touch(d.now())
	return d.journal.PutSubmission(sub)
}

// settle stores the outcome of a submission. The transaction is already out,
// so a journal failure here is logged rather than returned.
func (d *Driver) settle(log *zap.Logger, sub *models.Submission, err error) {
	sub.State = submissionState(err)
	if err != nil {
		sub.Error = err.Error()
	}
	if jerr := d.record(sub); jerr != nil {
		log.Warn("journal update failed", zap.String("signature", sub.Signature), zap.Error(jerr))
	}
}

func submissionState(err error) models.SubmissionState {
	switch ExitCode(err) {
	case ExitOK:
		return models.SubmissionConfirmed
	case ExitSubmission:
		return models.SubmissionFailed
	}
	// timeouts, transport failures and cancellation leave the outcome open
	return models.SubmissionUnknown
}
