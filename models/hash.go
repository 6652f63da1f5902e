package models

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Hash is a 32 byte ledger hash, used here for recent blockhashes
type Hash [32]byte

// ParseHash decodes a base-58 hash string
func ParseHash(s string) (Hash, error) {
	var h Hash
	decoded := base58.Decode(s)
	if len(decoded) != len(h) {
		return h, fmt.Errorf("invalid hash %q: decoded to %d bytes", s, len(decoded))
	}
	copy(h[:], decoded)
	return h, nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(data []byte) error {
	parsed, err := ParseHash(string(data))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// CheckpointReference anchors a transaction to a recent point in ledger history.
// The ledger rejects transactions whose blockhash is older than LastValidBlockHeight.
type CheckpointReference struct {
	Blockhash            Hash   `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}
