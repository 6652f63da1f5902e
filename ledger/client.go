// Package ledger talks to a ledger node over HTTP JSON-RPC.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"sol-transfer/models"
)

// Client is the three-call contract the transfer pipeline needs from a node
type Client interface {
	GetBalance(ctx context.Context, address models.Address) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (*models.CheckpointReference, error)
	SubmitAndConfirm(ctx context.Context, tx *models.Transaction) (models.Signature, error)
}

// Commitment is the confirmation depth a query or submission waits for
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	}
	return 0
}

// ParseCommitment accepts processed, confirmed or finalized
func ParseCommitment(s string) (Commitment, error) {
	c := Commitment(s)
	if c.rank() == 0 {
		return "", fmt.Errorf("unknown commitment %q", s)
	}
	return c, nil
}

// Reaches reports whether a transaction at level got satisfies c
func (c Commitment) Reaches(got Commitment) bool {
	return got.rank() >= c.rank() && got.rank() > 0
}

// SignatureStatus is the node's view of a submitted transaction
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus Commitment      `json:"confirmationStatus"`
}

// Failed reports whether the transaction landed with an execution error
func (s *SignatureStatus) Failed() bool {
	return len(s.Err) > 0 && string(s.Err) != "null"
}

// Level returns the commitment the transaction has reached. Nodes that predate
// confirmationStatus signal a rooted transaction with a null confirmation count.
func (s *SignatureStatus) Level() Commitment {
	if s.ConfirmationStatus != "" {
		return s.ConfirmationStatus
	}
	if s.Confirmations == nil {
		return CommitmentFinalized
	}
	if *s.Confirmations > 0 {
		return CommitmentConfirmed
	}
	return CommitmentProcessed
}
