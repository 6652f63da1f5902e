package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sol-transfer/logger"
	"sol-transfer/models"
)

// Config holds the endpoint and the timing knobs of an RPCClient
type Config struct {
	Endpoint       string
	Commitment     Commitment
	RequestTimeout time.Duration
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// DefaultConfig points at a local validator
func DefaultConfig() Config {
	return Config{
		Endpoint:       "http://127.0.0.1:8899",
		Commitment:     CommitmentFinalized,
		RequestTimeout: 30 * time.Second,
		ConfirmTimeout: 60 * time.Second,
		PollInterval:   500 * time.Millisecond,
	}
}

// RPCClient implements Client over HTTP JSON-RPC 2.0
type RPCClient struct {
	cfg        Config
	httpClient *http.Client
	nextID     atomic.Uint64
}

var _ Client = (*RPCClient)(nil)

// NewRPCClient creates a client; zero durations fall back to DefaultConfig
func NewRPCClient(cfg Config) *RPCClient {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Commitment == "" {
		cfg.Commitment = def.Commitment
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = def.ConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}

	return &RPCClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcErrorObject `json:"error"`
}

type rpcErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// contextValue is the {"context": {...}, "value": ...} envelope many methods return
type contextValue[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

// call performs one JSON-RPC round trip and decodes the result into result
func (c *RPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Method: method, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Logger.Debug("rpc request", zap.String("method", method), zap.Uint64("id", req.ID))
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &NetworkError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Err: fmt.Errorf("read response: %w", err)}
	}

	logger.Logger.Debug("rpc response",
		zap.String("method", method),
		zap.Uint64("id", req.ID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		if resp.StatusCode/100 != 2 {
			return &NetworkError{Method: method, Err: fmt.Errorf("http status %d", resp.StatusCode)}
		}
		return &NetworkError{Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}

	if rpcResp.Error != nil {
		rpcErr := &RPCError{Method: method, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
		if len(rpcResp.Error.Data) > 0 {
			var data RPCErrorData
			if json.Unmarshal(rpcResp.Error.Data, &data) == nil {
				rpcErr.Data = &data
			}
		}
		return rpcErr
	}

	if resp.StatusCode/100 != 2 {
		return &NetworkError{Method: method, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return &NetworkError{Method: method, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return nil
}

func (c *RPCClient) commitmentConfig() map[string]interface{} {
	return map[string]interface{}{"commitment": c.cfg.Commitment}
}

// GetBalance returns the lamport balance of address. Unknown accounts report zero.
func (c *RPCClient) GetBalance(ctx context.Context, address models.Address) (uint64, error) {
	var out contextValue[uint64]
	if err := c.call(ctx, "getBalance", []interface{}{address.String(), c.commitmentConfig()}, &out); err != nil {
		return 0, err
	}
	return out.Value, nil
}

// GetLatestBlockhash fetches a fresh checkpoint reference. It must not be cached.
func (c *RPCClient) GetLatestBlockhash(ctx context.Context) (*models.CheckpointReference, error) {
	var out contextValue[models.CheckpointReference]
	if err := c.call(ctx, "getLatestBlockhash", []interface{}{c.commitmentConfig()}, &out); err != nil {
		return nil, err
	}
	return &out.Value, nil
}

// GetBlockHeight returns the current block height at the configured commitment
func (c *RPCClient) GetBlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.call(ctx, "getBlockHeight", []interface{}{c.commitmentConfig()}, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// GetSignatureStatus returns nil with no error when the node has not seen the signature
func (c *RPCClient) GetSignatureStatus(ctx context.Context, sig models.Signature) (*SignatureStatus, error) {
	var out contextValue[[]*SignatureStatus]
	params := []interface{}{
		[]string{sig.String()},
		map[string]interface{}{"searchTransactionHistory": true},
	}
	if err := c.call(ctx, "getSignatureStatuses", params, &out); err != nil {
		return nil, err
	}
	if len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

// SendTransaction submits tx without waiting. A node rejection, including a
// failed preflight simulation, is returned as a SubmissionError.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *models.Transaction) (models.Signature, error) {
	sig, err := tx.ID()
	if err != nil {
		return models.Signature{}, err
	}

	opts := map[string]interface{}{
		"encoding":            "base64",
		"preflightCommitment": c.cfg.Commitment,
	}

	var returned string
	err = c.call(ctx, "sendTransaction", []interface{}{tx.EncodeBase64(), opts}, &returned)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			subErr := &SubmissionError{Signature: sig, Reason: rpcErr.Message, Err: rpcErr}
			if rpcErr.Data != nil {
				subErr.Logs = rpcErr.Data.Logs
			}
			return models.Signature{}, subErr
		}
		return models.Signature{}, err
	}

	if returned != sig.String() {
		logger.Logger.Warn("node returned a different signature",
			zap.String("expected", sig.String()), zap.String("returned", returned))
	}
	return sig, nil
}

// SubmitAndConfirm sends tx and blocks until it reaches the configured commitment.
// It returns a SubmissionError when the node rejects or fails the transaction or
// the blockhash expires, and a TimeoutError when ConfirmTimeout elapses first.
func (c *RPCClient) SubmitAndConfirm(ctx context.Context, tx *models.Transaction) (models.Signature, error) {
	sig, err := c.SendTransaction(ctx, tx)
	if err != nil {
		return models.Signature{}, err
	}

	if err := c.confirm(ctx, sig, tx.LastValidBlockHeight); err != nil {
		return models.Signature{}, err
	}
	return sig, nil
}

func (c *RPCClient) confirm(ctx context.Context, sig models.Signature, lastValid uint64) error {
	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	defer cancel()

	timedOut := func() bool {
		return ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded)
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.GetSignatureStatus(waitCtx, sig)
		if err != nil {
			if timedOut() {
				return &TimeoutError{Signature: sig, Waited: time.Since(start)}
			}
			return err
		}

		switch {
		case status != nil && status.Failed():
			return &SubmissionError{Signature: sig, Reason: string(status.Err)}
		case status != nil && c.cfg.Commitment.Reaches(status.Level()):
			logger.Logger.Debug("transaction confirmed",
				zap.String("signature", sig.String()),
				zap.String("level", string(status.Level())),
				zap.Uint64("slot", status.Slot))
			return nil
		case status == nil && lastValid > 0:
			height, err := c.GetBlockHeight(waitCtx)
			if err != nil {
				logger.Logger.Debug("block height unavailable, expiry not checked",
					zap.String("signature", sig.String()), zap.Error(err))
			} else if height > lastValid {
				return &SubmissionError{
					Signature: sig,
					Reason:    fmt.Sprintf("blockhash expired at block height %d (last valid %d)", height, lastValid),
				}
			}
		}

		select {
		case <-waitCtx.Done():
			if timedOut() {
				return &TimeoutError{Signature: sig, Waited: time.Since(start)}
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
