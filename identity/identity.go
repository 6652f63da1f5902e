// Package identity loads the signing keypair used to pay for and sign transfers.
package identity

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sol-transfer/models"
)

// EnvKeypairPath names the environment variable that overrides the keypair location
const EnvKeypairPath = "SOLANA_KEYPAIR"

// KeypairLength is the size of a keypair file: 32 byte seed followed by 32 byte public key
const KeypairLength = ed25519.PrivateKeySize

// LoadError wraps every failure to turn a keypair file into a usable Keypair
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load keypair %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Keypair is an ed25519 signing key together with its account address
type Keypair struct {
	private ed25519.PrivateKey
	address models.Address
}

// ResolvePath picks the keypair file location. A non-empty envValue wins,
// otherwise the path defaults to <homeDir>/.config/solana/id.json.
func ResolvePath(envValue, homeDir string) string {
	if envValue != "" {
		return envValue
	}
	return filepath.Join(homeDir, ".config", "solana", "id.json")
}

// Load reads a keypair file holding a JSON array of 64 integers in 0..255
func Load(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	raw, err := decodeByteArray(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	kp, err := FromBytes(raw)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return kp, nil
}

// FromBytes builds a Keypair from seed||public key bytes. The public half must match
// the key derived from the seed.
func FromBytes(raw []byte) (*Keypair, error) {
	if len(raw) != KeypairLength {
		return nil, fmt.Errorf("keypair is %d bytes, want %d", len(raw), KeypairLength)
	}

	private := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	derived := private.Public().(ed25519.PublicKey)
	if !bytes.Equal(derived, raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("public key does not match secret key")
	}

	kp := &Keypair{private: private}
	copy(kp.address[:], derived)
	return kp, nil
}

// NewKeypairFromSeed derives a Keypair from a 32 byte seed
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	return FromBytes(ed25519.NewKeyFromSeed(seed))
}

// PublicKey returns the account address of the keypair
func (k *Keypair) PublicKey() models.Address {
	return k.address
}

// Sign signs message with the secret key. ed25519 signatures are deterministic.
func (k *Keypair) Sign(message []byte) models.Signature {
	var sig models.Signature
	copy(sig[:], ed25519.Sign(k.private, message))
	return sig
}

// Bytes returns the 64 byte seed||public key encoding of the keypair
func (k *Keypair) Bytes() []byte {
	return append([]byte(nil), k.private...)
}

// MarshalJSON writes the keypair in the same integer array format Load reads
func (k *Keypair) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(k.private))
	for i, b := range k.private {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// decodeByteArray parses a JSON array whose elements are all integers in 0..255
func decodeByteArray(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse keypair file: %w", err)
	}
	// anything but whitespace after the array, stray ] or } included, is rejected
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after keypair array")
	}

	elems, ok := doc.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %T", doc)
	}

	out := make([]byte, len(elems))
	for i, elem := range elems {
		n, ok := elem.(json.Number)
		if !ok {
			return nil, fmt.Errorf("element %d is not an integer: %v", i, elem)
		}
		v, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("element %d is not an integer: %s", i, n)
		}
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("element %d out of byte range: %d", i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}
