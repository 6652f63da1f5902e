// Package ledgertest runs an in-memory ledger node behind a real JSON-RPC
// endpoint, for exercising clients without a live network.
package ledgertest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"strconv"
	"sync"

	"sol-transfer/builder"
	"sol-transfer/models"
)

// DefaultFee is charged to the fee payer of every accepted transaction
const DefaultFee uint64 = 5000

// blockhashValidity is how many blocks a blockhash stays usable
const blockhashValidity = 150

// Landing controls what happens to a transaction after the node accepts it
type Landing int

const (
	// LandFinalized walks the transaction through processed, confirmed, finalized
	LandFinalized Landing = iota
	// LandNever leaves the signature unknown forever
	LandNever
	// LandFailed reports an execution error on the first status poll
	LandFailed
)

type txRecord struct {
	slot  uint64
	polls int
	err   string
}

type rpcFault struct {
	code    int
	message string
}

// Ledger is the state behind a Server. All methods are safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	balances    map[models.Address]uint64
	txs         map[models.Signature]*txRecord
	calls       map[string]int
	faults      map[string]rpcFault
	blockhash   models.Hash
	blockHeight uint64
	slot        uint64

	fee        uint64
	landing    Landing
	heightStep uint64
}

// NewLedger returns an empty ledger at block height 1
func NewLedger() *Ledger {
	l := &Ledger{
		balances:    make(map[models.Address]uint64),
		txs:         make(map[models.Signature]*txRecord),
		calls:       make(map[string]int),
		faults:      make(map[string]rpcFault),
		blockHeight: 1,
		slot:        1,
		fee:         DefaultFee,
	}
	l.blockhash = l.hashAt(l.blockHeight)
	return l
}

func (l *Ledger) hashAt(height uint64) models.Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], height)
	return models.Hash(sha256.Sum256(buf[:]))
}

// SetBalance credits address with exactly lamports
func (l *Ledger) SetBalance(address models.Address, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[address] = lamports
}

// Balance returns the current lamports of address
func (l *Ledger) Balance(address models.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[address]
}

// SetLanding changes the fate of transactions accepted from now on
func (l *Ledger) SetLanding(landing Landing) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.landing = landing
}

// SetHeightStep makes every getBlockHeight call advance the chain by step blocks
func (l *Ledger) SetHeightStep(step uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.heightStep = step
}

// FailMethod makes every call to method answer with a JSON-RPC error
func (l *Ledger) FailMethod(method string, code int, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults[method] = rpcFault{code: code, message: message}
}

// AdvanceBlocks moves the chain forward and rotates the latest blockhash
func (l *Ledger) AdvanceBlocks(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advance(n)
}

func (l *Ledger) advance(n uint64) {
	l.blockHeight += n
	l.slot += n
	l.blockhash = l.hashAt(l.blockHeight)
}

// Calls returns how many requests named method were served
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// TotalCalls returns the number of JSON-RPC requests served
func (l *Ledger) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, n := range l.calls {
		total += n
	}
	return total
}

// HasTransaction reports whether a transaction with sig was accepted
func (l *Ledger) HasTransaction(sig models.Signature) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.txs[sig]
	return ok
}

// recentBlockhash reports whether h was the latest blockhash within the validity window
func (l *Ledger) recentBlockhash(h models.Hash) bool {
	for back := uint64(0); back <= blockhashValidity && back < l.blockHeight; back++ {
		if l.hashAt(l.blockHeight-back) == h {
			return true
		}
	}
	return false
}

// submit validates and applies a transfer transaction
func (l *Ledger) submit(tx *models.Transaction) (models.Signature, *rpcFault, []string) {
	if err := tx.VerifySignatures(); err != nil {
		return models.Signature{}, &rpcFault{code: -32003, message: "Transaction signature verification failure"}, nil
	}
	sig := tx.Signatures[0]

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.txs[sig]; dup {
		return sig, &rpcFault{code: -32002, message: "Transaction simulation failed: This transaction has already been processed"}, nil
	}
	if !l.recentBlockhash(tx.Message.RecentBlockhash) {
		return sig, &rpcFault{code: -32002, message: "Transaction simulation failed: Blockhash not found"}, nil
	}

	ix, err := builder.DecodeTransfer(&tx.Message)
	if err != nil {
		return sig, &rpcFault{code: -32602, message: "invalid transaction: " + err.Error()}, nil
	}

	payer := tx.Message.AccountKeys[0]
	have := l.balances[payer]
	if have == 0 {
		return sig, &rpcFault{
			code:    -32002,
			message: "Transaction simulation failed: Attempt to debit an account but found no record of a prior credit.",
		}, nil
	}
	if have < l.fee || have-l.fee < ix.Lamports {
		logs := []string{
			"Program 11111111111111111111111111111111 invoke [1]",
			"Transfer: insufficient lamports " + strconv.FormatUint(have-min(have, l.fee), 10) + ", need " + strconv.FormatUint(ix.Lamports, 10),
			"Program 11111111111111111111111111111111 failed: custom program error: 0x1",
		}
		return sig, &rpcFault{
			code:    -32002,
			message: "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1",
		}, logs
	}

	rec := &txRecord{slot: l.slot}
	if l.landing == LandFailed {
		rec.err = `{"InstructionError":[0,{"Custom":1}]}`
		l.balances[payer] -= l.fee
	} else {
		l.balances[payer] -= l.fee + ix.Lamports
		l.balances[ix.To] += ix.Lamports
	}
	if l.landing != LandNever {
		l.txs[sig] = rec
	}
	return sig, nil, nil
}

// status advances the record one poll and returns its JSON view, nil when unknown
func (l *Ledger) status(sig models.Signature) map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.txs[sig]
	if !ok {
		return nil
	}
	rec.polls++

	out := map[string]interface{}{"slot": rec.slot, "err": nil}
	if rec.err != "" {
		out["err"] = json.RawMessage(rec.err)
		out["confirmations"] = 0
		out["confirmationStatus"] = "processed"
		return out
	}

	switch step := rec.polls - 1; {
	case step <= 0:
		out["confirmations"] = 0
		out["confirmationStatus"] = "processed"
	case step == 1:
		out["confirmations"] = 1
		out["confirmationStatus"] = "confirmed"
	default:
		out["confirmations"] = nil
		out["confirmationStatus"] = "finalized"
	}
	return out
}
