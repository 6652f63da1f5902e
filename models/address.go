package models

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressLength is the decoded size of an account address in bytes
const AddressLength = 32

// Address is an ed25519 public key identifying an account
type Address [AddressLength]byte

// SystemProgramID owns every plain wallet account and executes lamport transfers
var SystemProgramID = Address{}

// InvalidAddressError is returned when a textual address does not decode to 32 bytes
type InvalidAddressError struct {
	Input  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// ParseAddress decodes a base-58 address string
func ParseAddress(s string) (Address, error) {
	var addr Address
	if s == "" {
		return addr, &InvalidAddressError{Input: s, Reason: "empty string"}
	}

	// base58.Decode returns an empty slice on any character outside the alphabet
	decoded := base58.Decode(s)
	if len(decoded) == 0 {
		return addr, &InvalidAddressError{Input: s, Reason: "not base-58"}
	}
	if len(decoded) != AddressLength {
		return addr, &InvalidAddressError{
			Input:  s,
			Reason: fmt.Sprintf("decoded to %d bytes, want %d", len(decoded), AddressLength),
		}
	}

	copy(addr[:], decoded)
	return addr, nil
}

// String returns the base-58 form of the address
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether every byte of the address is zero
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	parsed, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
