package transfer

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// solDecimals is the number of decimal places between a lamport and a whole coin
const solDecimals = 9

// FormatSOL renders a lamport amount as whole coins without trailing zeros
func FormatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -solDecimals).String()
}
