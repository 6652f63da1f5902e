package models

import (
	"errors"
	"fmt"
)

// MessageHeader counts the signer and read-only sections of Message.AccountKeys
type MessageHeader struct {
	NumRequiredSignatures       uint8 `json:"numRequiredSignatures"`
	NumReadonlySignedAccounts   uint8 `json:"numReadonlySignedAccounts"`
	NumReadonlyUnsignedAccounts uint8 `json:"numReadonlyUnsignedAccounts"`
}

// CompiledInstruction references its program and accounts by index into Message.AccountKeys
type CompiledInstruction struct {
	ProgramIDIndex uint8   `json:"programIdIndex"`
	Accounts       []uint8 `json:"accounts"`
	Data           []byte  `json:"data"`
}

// Message is the signed part of a transaction
type Message struct {
	Header          MessageHeader         `json:"header"`
	AccountKeys     []Address             `json:"accountKeys"`
	RecentBlockhash Hash                  `json:"recentBlockhash"`
	Instructions    []CompiledInstruction `json:"instructions"`
}

// FeePayer returns the first account key, which always pays the fee
func (m *Message) FeePayer() (Address, error) {
	if len(m.AccountKeys) == 0 {
		return Address{}, errors.New("message has no account keys")
	}
	return m.AccountKeys[0], nil
}

// Signers returns the account keys that must sign the message, in signature order
func (m *Message) Signers() []Address {
	n := int(m.Header.NumRequiredSignatures)
	if n > len(m.AccountKeys) {
		n = len(m.AccountKeys)
	}
	return m.AccountKeys[:n]
}

// Serialize produces the exact bytes that signatures commit to
func (m *Message) Serialize() []byte {
	buf := make([]byte, 0, 3+1+len(m.AccountKeys)*AddressLength+len(m.RecentBlockhash)+64)
	buf = append(buf,
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	)

	buf = appendCompactU16(buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		buf = append(buf, key[:]...)
	}

	buf = append(buf, m.RecentBlockhash[:]...)

	buf = appendCompactU16(buf, len(m.Instructions))
	for _, ix := range m.Instructions {
		buf = append(buf, ix.ProgramIDIndex)
		buf = appendCompactU16(buf, len(ix.Accounts))
		buf = append(buf, ix.Accounts...)
		buf = appendCompactU16(buf, len(ix.Data))
		buf = append(buf, ix.Data...)
	}
	return buf
}

// DecodeMessage parses a serialized message and returns it with the number of bytes read
func DecodeMessage(data []byte) (*Message, int, error) {
	if len(data) < 3 {
		return nil, 0, errors.New("message: short header")
	}
	m := &Message{
		Header: MessageHeader{
			NumRequiredSignatures:       data[0],
			NumReadonlySignedAccounts:   data[1],
			NumReadonlyUnsignedAccounts: data[2],
		},
	}
	off := 3

	nKeys, n, err := readCompactU16(data[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("message account keys: %w", err)
	}
	off += n
	if len(data[off:]) < nKeys*AddressLength {
		return nil, 0, errors.New("message: truncated account keys")
	}
	m.AccountKeys = make([]Address, nKeys)
	for i := range m.AccountKeys {
		copy(m.AccountKeys[i][:], data[off:off+AddressLength])
		off += AddressLength
	}

	if len(data[off:]) < len(m.RecentBlockhash) {
		return nil, 0, errors.New("message: truncated blockhash")
	}
	copy(m.RecentBlockhash[:], data[off:])
	off += len(m.RecentBlockhash)

	nIx, n, err := readCompactU16(data[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("message instructions: %w", err)
	}
	off += n
	m.Instructions = make([]CompiledInstruction, nIx)
	for i := range m.Instructions {
		if off >= len(data) {
			return nil, 0, errors.New("message: truncated instruction")
		}
		ix := CompiledInstruction{ProgramIDIndex: data[off]}
		off++

		nAcc, n, err := readCompactU16(data[off:])
		if err != nil {
			return nil, 0, fmt.Errorf("instruction %d accounts: %w", i, err)
		}
		off += n
		if len(data[off:]) < nAcc {
			return nil, 0, fmt.Errorf("instruction %d: truncated accounts", i)
		}
		ix.Accounts = append([]uint8(nil), data[off:off+nAcc]...)
		off += nAcc

		nData, n, err := readCompactU16(data[off:])
		if err != nil {
			return nil, 0, fmt.Errorf("instruction %d data: %w", i, err)
		}
		off += n
		if len(data[off:]) < nData {
			return nil, 0, fmt.Errorf("instruction %d: truncated data", i)
		}
		ix.Data = append([]byte(nil), data[off:off+nData]...)
		off += nData

		m.Instructions[i] = ix
	}

	return m, off, nil
}
