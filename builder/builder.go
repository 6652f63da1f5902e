// Package builder turns a transfer intent into a signed, wire-ready transaction.
package builder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"sol-transfer/models"
)

// systemTransferTag selects the Transfer variant of the system program instruction enum
const systemTransferTag uint32 = 2

// ErrInvalidAmount is matched by every InvalidAmountError
var ErrInvalidAmount = errors.New("invalid amount")

// InvalidAmountError rejects transfers of zero or negative lamports
type InvalidAmountError struct {
	Amount int64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %d: must be greater than zero", e.Amount)
}

func (e *InvalidAmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}

// Signer is anything able to sign message bytes for its own address
type Signer interface {
	PublicKey() models.Address
	Sign(message []byte) models.Signature
}

// TransferInstruction moves lamports between two system-owned accounts
type TransferInstruction struct {
	From     models.Address
	To       models.Address
	Lamports uint64
}

// NewTransferInstruction validates amount and returns the instruction
func NewTransferInstruction(from, to models.Address, amount int64) (*TransferInstruction, error) {
	if amount <= 0 {
		return nil, &InvalidAmountError{Amount: amount}
	}
	return &TransferInstruction{From: from, To: to, Lamports: uint64(amount)}, nil
}

// Data encodes the instruction payload: u32 LE variant tag then u64 LE lamports
func (ix *TransferInstruction) Data() []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransferTag)
	binary.LittleEndian.PutUint64(data[4:12], ix.Lamports)
	return data
}

// Message compiles the instruction into a legacy message paid for by ix.From
func (ix *TransferInstruction) Message(blockhash models.Hash) models.Message {
	keys := []models.Address{ix.From}
	toIndex := uint8(0)
	if ix.To != ix.From {
		keys = append(keys, ix.To)
		toIndex = 1
	}
	keys = append(keys, models.SystemProgramID)

	return models.Message{
		Header: models.MessageHeader{
			NumRequiredSignatures:       1,
			NumReadonlySignedAccounts:   0,
			NumReadonlyUnsignedAccounts: 1, // the program id
		},
		AccountKeys:     keys,
		RecentBlockhash: blockhash,
		Instructions: []models.CompiledInstruction{{
			ProgramIDIndex: uint8(len(keys) - 1),
			Accounts:       []uint8{0, toIndex},
			Data:           ix.Data(),
		}},
	}
}

// BuildSignedTransfer builds a single transfer from signer to to, anchored at
// checkpoint, and signs it. No signature is produced when amount is not positive.
func BuildSignedTransfer(signer Signer, to models.Address, amount int64, checkpoint *models.CheckpointReference) (*models.Transaction, error) {
	if checkpoint == nil {
		return nil, errors.New("missing checkpoint reference")
	}

	ix, err := NewTransferInstruction(signer.PublicKey(), to, amount)
	if err != nil {
		return nil, err
	}

	msg := ix.Message(checkpoint.Blockhash)
	tx := &models.Transaction{
		Message:              msg,
		Signatures:           []models.Signature{signer.Sign(msg.Serialize())},
		LastValidBlockHeight: checkpoint.LastValidBlockHeight,
	}
	return tx, nil
}

// DecodeTransfer recovers the transfer instruction from a message built by
// BuildSignedTransfer. It is used to apply transfers on the receiving side.
func DecodeTransfer(msg *models.Message) (*TransferInstruction, error) {
	if len(msg.Instructions) != 1 {
		return nil, fmt.Errorf("expected 1 instruction, got %d", len(msg.Instructions))
	}
	ix := msg.Instructions[0]

	key := func(i uint8) (models.Address, error) {
		if int(i) >= len(msg.AccountKeys) {
			return models.Address{}, fmt.Errorf("account index %d out of range", i)
		}
		return msg.AccountKeys[i], nil
	}

	program, err := key(ix.ProgramIDIndex)
	if err != nil {
		return nil, err
	}
	if program != models.SystemProgramID {
		return nil, fmt.Errorf("instruction targets program %s, not the system program", program)
	}
	if len(ix.Accounts) != 2 || len(ix.Data) != 12 {
		return nil, errors.New("malformed system transfer instruction")
	}
	if tag := binary.LittleEndian.Uint32(ix.Data[0:4]); tag != systemTransferTag {
		return nil, fmt.Errorf("unsupported system instruction %d", tag)
	}

	from, err := key(ix.Accounts[0])
	if err != nil {
		return nil, err
	}
	to, err := key(ix.Accounts[1])
	if err != nil {
		return nil, err
	}

	return &TransferInstruction{
		From:     from,
		To:       to,
		Lamports: binary.LittleEndian.Uint64(ix.Data[4:12]),
	}, nil
}
