package transfer

import (
	"context"
	"errors"
	"time"

	"sol-transfer/ledger"
	"sol-transfer/models"
	"sol-transfer/repository"
)

// StatusQuerier looks up the node's view of a signature
type StatusQuerier interface {
	GetSignatureStatus(ctx context.Context, sig models.Signature) (*ledger.SignatureStatus, error)
}

// StatusReport combines the local journal entry with the live node status
type StatusReport struct {
	Signature models.Signature
	Journal   *models.Submission      // nil when the signature was never journaled
	Live      *ledger.SignatureStatus // nil when the node does not know the signature
}

// Lookup fetches the live status of signature and, when the journal still has
// the entry as pending or unknown, settles it from what the node reports.
func Lookup(ctx context.Context, q StatusQuerier, journal repository.SubmissionRepositoryInterface, signature string) (*StatusReport, error) {
	sig, err := models.ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	report := &StatusReport{Signature: sig}

	if journal != nil {
		sub, err := journal.GetSubmission(sig.String())
		switch {
		case errors.Is(err, repository.ErrSubmissionNotFound):
		case err != nil:
			return nil, err
		default:
			report.Journal = sub
		}
	}

	report.Live, err = q.GetSignatureStatus(ctx, sig)
	if err != nil {
		return report, err
	}

	sub := report.Journal
	if sub == nil || report.Live == nil || sub.State == models.SubmissionConfirmed || sub.State == models.SubmissionFailed {
		return report, nil
	}

	switch {
	case report.Live.Failed():
		sub.State = models.SubmissionFailed
		sub.Error = string(report.Live.Err)
	case ledger.CommitmentConfirmed.Reaches(report.Live.Level()):
		sub.State = models.SubmissionConfirmed
		sub.Error = ""
	default:
		return report, nil
	}

	sub.Touch(time.Now())
	if err := journal.PutSubmission(sub); err != nil {
		return report, err
	}
	return report, nil
}
