package models

import (
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Signature is a detached ed25519 signature; the first one on a transaction is its id
type Signature [ed25519.SignatureSize]byte

// ParseSignature decodes a base-58 signature string
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	decoded := base58.Decode(s)
	if len(decoded) != len(sig) {
		return sig, fmt.Errorf("invalid signature %q: decoded to %d bytes", s, len(decoded))
	}
	copy(sig[:], decoded)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// IsZero reports whether the signature slot is still unsigned
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// Verify checks the signature over message against the given public key
func (s Signature) Verify(pub Address, message []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, s[:])
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(data []byte) error {
	parsed, err := ParseSignature(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
