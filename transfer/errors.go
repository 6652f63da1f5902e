package transfer

import (
	"errors"
	"fmt"

	"sol-transfer/builder"
	"sol-transfer/identity"
	"sol-transfer/ledger"
	"sol-transfer/models"
)

// Process exit codes, one per error family
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitIdentity     = 2
	ExitInvalidInput = 3
	ExitNetwork      = 4
	ExitSubmission   = 5
	ExitTimeout      = 6
)

// StepError records the last state the pipeline reached before Err stopped it
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("transfer failed after %s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error from Run onto a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		loadErr    *identity.LoadError
		addrErr    *models.InvalidAddressError
		subErr     *ledger.SubmissionError
		timeoutErr *ledger.TimeoutError
		netErr     *ledger.NetworkError
		rpcErr     *ledger.RPCError
	)

	// SubmissionError wraps the RPCError it came from, so it is checked first
	switch {
	case errors.As(err, &loadErr):
		return ExitIdentity
	case errors.As(err, &addrErr), errors.Is(err, builder.ErrInvalidAmount):
		return ExitInvalidInput
	case errors.As(err, &subErr):
		return ExitSubmission
	case errors.As(err, &timeoutErr):
		return ExitTimeout
	case errors.As(err, &netErr), errors.As(err, &rpcErr):
		return ExitNetwork
	}
	return ExitFailure
}
