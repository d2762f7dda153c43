// Package units converts between wei, the contract's native unit, and ether,
// the unit shown to people.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const etherDecimals = 18

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more than 18 decimal places")
)

var weiPerEther = decimal.New(1, etherDecimals)

// ToWei parses a decimal ether amount such as "0.05" into wei.
func ToWei(ether string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(ether))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ether amount %q: %w", ether, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	wei := d.Mul(weiPerEther)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, ErrTooPrecise
	}
	return wei.BigInt(), nil
}

// FromWei converts wei to ether. A nil amount is zero.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -etherDecimals)
}

// FormatEther renders wei as a plain ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	return FromWei(wei).String()
}
