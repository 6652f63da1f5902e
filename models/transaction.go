package models

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Transaction is a message plus one signature per required signer
type Transaction struct {
	Signatures []Signature `json:"signatures"`
	Message    Message     `json:"message"`

	// LastValidBlockHeight is carried alongside the transaction but is not signed
	LastValidBlockHeight uint64 `json:"-"`
}

// ID returns the first signature, which the ledger uses as the transaction id
func (tx *Transaction) ID() (Signature, error) {
	if len(tx.Signatures) == 0 || tx.Signatures[0].IsZero() {
		return Signature{}, errors.New("transaction is not signed")
	}
	return tx.Signatures[0], nil
}

// Serialize encodes the transaction in wire format
func (tx *Transaction) Serialize() []byte {
	msg := tx.Message.Serialize()
	buf := make([]byte, 0, 1+len(tx.Signatures)*len(Signature{})+len(msg))
	buf = appendCompactU16(buf, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		buf = append(buf, sig[:]...)
	}
	return append(buf, msg...)
}

// EncodeBase64 returns the wire bytes in the encoding sendTransaction expects
func (tx *Transaction) EncodeBase64() string {
	return base64.StdEncoding.EncodeToString(tx.Serialize())
}

// VerifySignatures checks that every required signer has a valid signature over the message
func (tx *Transaction) VerifySignatures() error {
	signers := tx.Message.Signers()
	if len(tx.Signatures) != len(signers) {
		return fmt.Errorf("have %d signatures, message requires %d", len(tx.Signatures), len(signers))
	}

	msg := tx.Message.Serialize()
	for i, signer := range signers {
		if !tx.Signatures[i].Verify(signer, msg) {
			return fmt.Errorf("signature %d does not verify for %s", i, signer)
		}
	}
	return nil
}

// DecodeTransaction parses wire format bytes
func DecodeTransaction(data []byte) (*Transaction, error) {
	nSigs, off, err := readCompactU16(data)
	if err != nil {
		return nil, fmt.Errorf("transaction signatures: %w", err)
	}
	if len(data[off:]) < nSigs*len(Signature{}) {
		return nil, errors.New("transaction: truncated signatures")
	}

	tx := &Transaction{Signatures: make([]Signature, nSigs)}
	for i := range tx.Signatures {
		copy(tx.Signatures[i][:], data[off:])
		off += len(Signature{})
	}

	msg, n, err := DecodeMessage(data[off:])
	if err != nil {
		return nil, err
	}
	if off+n != len(data) {
		return nil, fmt.Errorf("transaction: %d trailing bytes", len(data)-off-n)
	}
	tx.Message = *msg
	return tx, nil
}

// DecodeTransactionBase64 parses the base64 wire encoding
func DecodeTransactionBase64(s string) (*Transaction, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("transaction: %w", err)
	}
	return DecodeTransaction(data)
}
