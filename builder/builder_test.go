package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-transfer/builder"
	"sol-transfer/identity"
	"sol-transfer/models"
)

type countingSigner struct {
	builder.Signer
	calls int
}

func (s *countingSigner) Sign(message []byte) models.Signature {
	s.calls++
	return s.Signer.Sign(message)
}

func testKeypair(t *testing.T, fill byte) *identity.Keypair {
	t.Helper()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = fill
	}
	kp, err := identity.NewKeypairFromSeed(seed)
	require.NoError(t, err)
	return kp
}

func testCheckpoint() *models.CheckpointReference {
	var h models.Hash
	for i := range h {
		h[i] = byte(200 - i)
	}
	return &models.CheckpointReference{Blockhash: h, LastValidBlockHeight: 150}
}

func TestBuildSignedTransfer_RejectsNonPositiveAmount(t *testing.T) {
	signer := &countingSigner{Signer: testKeypair(t, 1)}
	to := testKeypair(t, 2).PublicKey()

	for _, amount := range []int64{0, -1, -10_000_000_000} {
		tx, err := builder.BuildSignedTransfer(signer, to, amount, testCheckpoint())
		assert.Nil(t, tx)
		require.ErrorIs(t, err, builder.ErrInvalidAmount)

		var amountErr *builder.InvalidAmountError
		require.ErrorAs(t, err, &amountErr)
		assert.Equal(t, amount, amountErr.Amount)
	}
	assert.Zero(t, signer.calls, "no signature may be produced for an invalid amount")
}

func TestBuildSignedTransfer_Layout(t *testing.T) {
	payer := testKeypair(t, 1)
	to := testKeypair(t, 2).PublicKey()

	tx, err := builder.BuildSignedTransfer(payer, to, 1_000, testCheckpoint())
	require.NoError(t, err)

	require.Len(t, tx.Signatures, 1)
	assert.Equal(t, []models.Address{payer.PublicKey(), to, models.SystemProgramID}, tx.Message.AccountKeys)
	assert.Equal(t, models.MessageHeader{NumRequiredSignatures: 1, NumReadonlyUnsignedAccounts: 1}, tx.Message.Header)
	assert.Equal(t, testCheckpoint().Blockhash, tx.Message.RecentBlockhash)
	assert.Equal(t, uint64(150), tx.LastValidBlockHeight)

	payerAddr, err := tx.Message.FeePayer()
	require.NoError(t, err)
	assert.Equal(t, payer.PublicKey(), payerAddr)

	require.Len(t, tx.Message.Instructions, 1)
	ix := tx.Message.Instructions[0]
	assert.Equal(t, uint8(2), ix.ProgramIDIndex)
	assert.Equal(t, []uint8{0, 1}, ix.Accounts)
	assert.Equal(t, []byte{2, 0, 0, 0, 0xe8, 0x03, 0, 0, 0, 0, 0, 0}, ix.Data)
}

func TestBuildSignedTransfer_Deterministic(t *testing.T) {
	payer := testKeypair(t, 7)
	to := testKeypair(t, 8).PublicKey()

	first, err := builder.BuildSignedTransfer(payer, to, 42, testCheckpoint())
	require.NoError(t, err)
	second, err := builder.BuildSignedTransfer(payer, to, 42, testCheckpoint())
	require.NoError(t, err)

	assert.Equal(t, first.Message.Serialize(), second.Message.Serialize())
	assert.Equal(t, first.Serialize(), second.Serialize())
}

func TestBuildSignedTransfer_SignatureBindsMessage(t *testing.T) {
	payer := testKeypair(t, 3)
	to := testKeypair(t, 4).PublicKey()

	tx, err := builder.BuildSignedTransfer(payer, to, 5_000, testCheckpoint())
	require.NoError(t, err)
	require.NoError(t, tx.VerifySignatures())

	id, err := tx.ID()
	require.NoError(t, err)
	assert.True(t, id.Verify(payer.PublicKey(), tx.Message.Serialize()))

	// mutating the amount after signing breaks the binding
	tx.Message.Instructions[0].Data[4]++
	assert.Error(t, tx.VerifySignatures())
}

func TestBuildSignedTransfer_SelfTransfer(t *testing.T) {
	payer := testKeypair(t, 5)

	tx, err := builder.BuildSignedTransfer(payer, payer.PublicKey(), 1, testCheckpoint())
	require.NoError(t, err)
	assert.Equal(t, []models.Address{payer.PublicKey(), models.SystemProgramID}, tx.Message.AccountKeys)
	assert.Equal(t, []uint8{0, 0}, tx.Message.Instructions[0].Accounts)
	require.NoError(t, tx.VerifySignatures())
}

func TestBuildSignedTransfer_MissingCheckpoint(t *testing.T) {
	_, err := builder.BuildSignedTransfer(testKeypair(t, 1), testKeypair(t, 2).PublicKey(), 1, nil)
	assert.Error(t, err)
}

func TestDecodeTransfer(t *testing.T) {
	payer := testKeypair(t, 9)
	to := testKeypair(t, 10).PublicKey()

	tx, err := builder.BuildSignedTransfer(payer, to, 10_000_000_000, testCheckpoint())
	require.NoError(t, err)

	wire, err := models.DecodeTransaction(tx.Serialize())
	require.NoError(t, err)

	ix, err := builder.DecodeTransfer(&wire.Message)
	require.NoError(t, err)
	assert.Equal(t, payer.PublicKey(), ix.From)
	assert.Equal(t, to, ix.To)
	assert.Equal(t, uint64(10_000_000_000), ix.Lamports)
}
