package ledger

import (
	"fmt"
	"strings"
	"time"

	"sol-transfer/models"
)

// NetworkError is a transport level failure: the request never produced a JSON-RPC answer
type NetworkError struct {
	Method string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Method, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RPCError is a well-formed JSON-RPC error object returned by the node
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    *RPCErrorData
}

// RPCErrorData carries the simulation details some errors attach
type RPCErrorData struct {
	Err  interface{} `json:"err"`
	Logs []string    `json:"logs"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// SubmissionError means the ledger rejected the signed transaction
type SubmissionError struct {
	Signature models.Signature
	Reason    string
	Logs      []string
	Err       error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("transaction %s rejected: %s", e.Signature, e.Reason)
	if len(e.Logs) > 0 {
		msg += "\n  " + strings.Join(e.Logs, "\n  ")
	}
	return msg
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// TimeoutError means confirmation was not observed in time. The transaction
// may still land, so the sender balance should be checked before resubmitting.
type TimeoutError struct {
	Signature models.Signature
	Waited    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed after %s, outcome unknown", e.Signature, e.Waited)
}
