package ledgertest

import (
	"encoding/json"
	"net/http"

	"sol-transfer/models"
)

type request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type errorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Handler serves the JSON-RPC methods of the ledger
type Handler struct {
	Ledger *Ledger
}

// NewHandler creates and returns a new Handler instance
func NewHandler(l *Ledger) *Handler {
	return &Handler{Ledger: l}
}

// Health answers GET /health the way a synced node does
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// RPC handles POST requests carrying a single JSON-RPC call
func (h *Handler) RPC(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, errorObject{Code: -32700, Message: "Parse error"})
		return
	}

	l := h.Ledger
	l.mu.Lock()
	l.calls[req.Method]++
	fault, faulty := l.faults[req.Method]
	l.mu.Unlock()

	if faulty {
		writeError(w, req.ID, errorObject{Code: fault.code, Message: fault.message})
		return
	}

	switch req.Method {
	case "getBalance":
		h.getBalance(w, req)
	case "getLatestBlockhash":
		h.getLatestBlockhash(w, req)
	case "getBlockHeight":
		h.getBlockHeight(w, req)
	case "sendTransaction":
		h.sendTransaction(w, req)
	case "getSignatureStatuses":
		h.getSignatureStatuses(w, req)
	default:
		writeError(w, req.ID, errorObject{Code: -32601, Message: "Method not found"})
	}
}

func (h *Handler) getBalance(w http.ResponseWriter, req request) {
	var addr models.Address
	if len(req.Params) == 0 || json.Unmarshal(req.Params[0], &addr) != nil {
		writeError(w, req.ID, errorObject{Code: -32602, Message: "Invalid param: WrongSize"})
		return
	}
	writeResult(w, req.ID, h.withContext(h.Ledger.Balance(addr)))
}

func (h *Handler) getLatestBlockhash(w http.ResponseWriter, req request) {
	l := h.Ledger
	l.mu.Lock()
	value := models.CheckpointReference{
		Blockhash:            l.blockhash,
		LastValidBlockHeight: l.blockHeight + blockhashValidity,
	}
	l.mu.Unlock()
	writeResult(w, req.ID, h.withContext(value))
}

func (h *Handler) getBlockHeight(w http.ResponseWriter, req request) {
	l := h.Ledger
	l.mu.Lock()
	if l.heightStep > 0 {
		l.advance(l.heightStep)
	}
	height := l.blockHeight
	l.mu.Unlock()
	writeResult(w, req.ID, height)
}

func (h *Handler) sendTransaction(w http.ResponseWriter, req request) {
	var encoded string
	if len(req.Params) == 0 || json.Unmarshal(req.Params[0], &encoded) != nil {
		writeError(w, req.ID, errorObject{Code: -32602, Message: "invalid transaction: missing payload"})
		return
	}

	tx, err := models.DecodeTransactionBase64(encoded)
	if err != nil {
		writeError(w, req.ID, errorObject{Code: -32602, Message: "invalid transaction: " + err.Error()})
		return
	}

	sig, fault, logs := h.Ledger.submit(tx)
	if fault != nil {
		obj := errorObject{Code: fault.code, Message: fault.message}
		if logs != nil {
			obj.Data = map[string]interface{}{"err": map[string]interface{}{"InstructionError": []interface{}{0, map[string]int{"Custom": 1}}}, "logs": logs}
		}
		writeError(w, req.ID, obj)
		return
	}
	writeResult(w, req.ID, sig.String())
}

func (h *Handler) getSignatureStatuses(w http.ResponseWriter, req request) {
	var sigs []string
	if len(req.Params) == 0 || json.Unmarshal(req.Params[0], &sigs) != nil {
		writeError(w, req.ID, errorObject{Code: -32602, Message: "Invalid params"})
		return
	}

	statuses := make([]interface{}, len(sigs))
	for i, s := range sigs {
		sig, err := models.ParseSignature(s)
		if err != nil {
			writeError(w, req.ID, errorObject{Code: -32602, Message: "Invalid param: " + err.Error()})
			return
		}
		if st := h.Ledger.status(sig); st != nil {
			statuses[i] = st
		}
	}
	writeResult(w, req.ID, h.withContext(statuses))
}

func (h *Handler) withContext(value interface{}) map[string]interface{} {
	h.Ledger.mu.Lock()
	slot := h.Ledger.slot
	h.Ledger.mu.Unlock()
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": slot},
		"value":   value,
	}
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func writeError(w http.ResponseWriter, id json.RawMessage, obj errorObject) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   obj,
	})
}
