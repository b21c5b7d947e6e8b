package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Coin is an amount of a single denomination. Amount is a decimal
// uint128 string as the node encodes it.
type Coin struct {
	Denom  Denom  `json:"denom"`
	Amount string `json:"amount"`
}

// NewCoin builds a Coin from an integer amount.
func NewCoin(denom Denom, amount sdkmath.Int) Coin {
	return Coin{Denom: denom, Amount: amount.String()}
}

// AmountInt parses the amount.
func (c Coin) AmountInt() (sdkmath.Int, error) {
	amt, ok := sdkmath.NewIntFromString(c.Amount)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("coin %s: invalid amount %q", c.Denom, c.Amount)
	}
	if amt.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("coin %s: negative amount %q", c.Denom, c.Amount)
	}
	return amt, nil
}

func (c Coin) String() string { return c.Amount + string(c.Denom) }

// Coins is a list of coins as returned by the node, ordered by denom.
type Coins []Coin

// AmountOf returns the amount held of denom, zero if absent.
func (cs Coins) AmountOf(denom Denom) (sdkmath.Int, error) {
	for _, c := range cs {
		if c.Denom == denom {
			return c.AmountInt()
		}
	}
	return sdkmath.ZeroInt(), nil
}
