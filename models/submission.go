package models

import "time"

// SubmissionState is the last known outcome of a submitted transfer
type SubmissionState string

const (
	SubmissionPending   SubmissionState = "pending"   // sent, no answer yet
	SubmissionConfirmed SubmissionState = "confirmed" // reached the requested commitment
	SubmissionFailed    SubmissionState = "failed"    // rejected by the ledger
	SubmissionUnknown   SubmissionState = "unknown"   // confirmation timed out, may still land
)

// Submission is one journaled transfer attempt, keyed by its transaction signature
type Submission struct {
	Signature string          `json:"signature"`
	RunID     string          `json:"run_id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Lamports  uint64          `json:"lamports"`
	Blockhash string          `json:"blockhash"`
	State     SubmissionState `json:"state"`
	Error     string          `json:"error,omitempty"`
	CreatedAt int64           `json:"created_at"` // unix timestamp in ms
	UpdatedAt int64           `json:"updated_at"` // unix timestamp in ms
}

// Touch stamps UpdatedAt, and CreatedAt on first use
func (s *Submission) Touch(now time.Time) {
	ms := now.UnixMilli()
	if s.CreatedAt == 0 {
		s.CreatedAt = ms
	}
	s.UpdatedAt = ms
}
