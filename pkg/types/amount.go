package types

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity an Amount may hold.
const MaxQuantity = math.MaxInt64

// Amount errors.
var (
	ErrQuantityTooLarge = errors.New("quantity exceeds maximum")
	ErrAmountOverflow   = errors.New("amount overflow")
	ErrTokenMismatch    = errors.New("token mismatch")
	ErrEmptySum         = errors.New("sum of no amounts")
	ErrInvalidDecimal   = errors.New("invalid decimal amount")
)

// Amount is a non-negative quantity of some token. The quantity is in the
// token's smallest indivisible unit.
type Amount[T comparable] struct {
	Quantity uint64 `json:"quantity"`
	Token    T      `json:"token"`
}

// NewAmount returns an amount, rejecting quantities above MaxQuantity.
func NewAmount[T comparable](quantity uint64, token T) (Amount[T], error) {
	if quantity > MaxQuantity {
		return Amount[T]{}, fmt.Errorf("%w: %d", ErrQuantityTooLarge, quantity)
	}
	return Amount[T]{Quantity: quantity, Token: token}, nil
}

// ZeroAmount returns the zero amount of token.
func ZeroAmount[T comparable](token T) Amount[T] {
	return Amount[T]{Token: token}
}

// IsZero reports whether the quantity is zero.
func (a Amount[T]) IsZero() bool {
	return a.Quantity == 0
}

// Plus adds two amounts of the same token. Mixing tokens or exceeding
// MaxQuantity is a programming error and panics; use CheckedAdd for
// untrusted input.
func (a Amount[T]) Plus(b Amount[T]) Amount[T] {
	sum, err := a.CheckedAdd(b)
	if err != nil {
		panic(err)
	}
	return sum
}

// Minus subtracts b from a. Panics on token mismatch or a negative result.
func (a Amount[T]) Minus(b Amount[T]) Amount[T] {
	if a.Token != b.Token {
		panic(fmt.Errorf("%w: %v vs %v", ErrTokenMismatch, a.Token, b.Token))
	}
	if b.Quantity > a.Quantity {
		panic(fmt.Errorf("negative amount: %d - %d", a.Quantity, b.Quantity))
	}
	return Amount[T]{Quantity: a.Quantity - b.Quantity, Token: a.Token}
}

// CheckedAdd adds two amounts, returning an error instead of panicking.
func (a Amount[T]) CheckedAdd(b Amount[T]) (Amount[T], error) {
	if a.Token != b.Token {
		return Amount[T]{}, fmt.Errorf("%w: %v vs %v", ErrTokenMismatch, a.Token, b.Token)
	}
	if a.Quantity > MaxQuantity || b.Quantity > MaxQuantity || a.Quantity > MaxQuantity-b.Quantity {
		return Amount[T]{}, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a.Quantity, b.Quantity)
	}
	return Amount[T]{Quantity: a.Quantity + b.Quantity, Token: a.Token}, nil
}

// Cmp compares two amounts of the same token: -1, 0 or +1.
// Panics on token mismatch.
func (a Amount[T]) Cmp(b Amount[T]) int {
	if a.Token != b.Token {
		panic(fmt.Errorf("%w: %v vs %v", ErrTokenMismatch, a.Token, b.Token))
	}
	switch {
	case a.Quantity < b.Quantity:
		return -1
	case a.Quantity > b.Quantity:
		return 1
	}
	return 0
}

// SplitEvenly divides the amount into n parts whose quantities differ by at
// most one. The remainder goes to the first parts.
func (a Amount[T]) SplitEvenly(n int) []Amount[T] {
	if n <= 0 {
		panic("split into zero parts")
	}
	common := a.Quantity / uint64(n)
	residual := a.Quantity - common*uint64(n)
	out := make([]Amount[T], n)
	for i := range out {
		q := common
		if uint64(i) < residual {
			q++
		}
		out[i] = Amount[T]{Quantity: q, Token: a.Token}
	}
	return out
}

// String returns "quantity token".
func (a Amount[T]) String() string {
	return fmt.Sprintf("%d %v", a.Quantity, a.Token)
}

// SumOrZero sums amounts of token. An empty slice sums to zero.
func SumOrZero[T comparable](amounts []Amount[T], token T) (Amount[T], error) {
	total := ZeroAmount(token)
	for _, a := range amounts {
		var err error
		if total, err = total.CheckedAdd(a); err != nil {
			return Amount[T]{}, err
		}
	}
	return total, nil
}

// SumOrError sums a non-empty slice of amounts sharing one token.
func SumOrError[T comparable](amounts []Amount[T]) (Amount[T], error) {
	if len(amounts) == 0 {
		return Amount[T]{}, ErrEmptySum
	}
	return SumOrZero(amounts, amounts[0].Token)
}

// Tokenizable is a token that knows how many decimal places to display.
type Tokenizable interface {
	comparable
	DisplayDecimals() uint8
}

// ToDecimal converts an amount to its display value, e.g. 1050 cents of a
// 2-decimal product becomes 10.50.
func ToDecimal[T Tokenizable](a Amount[T]) decimal.Decimal {
	return decimal.New(int64(a.Quantity), -int32(a.Token.DisplayDecimals()))
}

// FormatAmount renders an amount as "10.50 USD" style text.
func FormatAmount[T Tokenizable](a Amount[T]) string {
	return fmt.Sprintf("%s %v", ToDecimal(a).StringFixed(int32(a.Token.DisplayDecimals())), a.Token)
}

// AmountFromDecimal converts a display value to an amount, rounding down to
// the token's smallest unit.
func AmountFromDecimal[T Tokenizable](d decimal.Decimal, token T) (Amount[T], error) {
	if d.IsNegative() {
		return Amount[T]{}, fmt.Errorf("%w: negative value %s", ErrInvalidDecimal, d)
	}
	units := d.Shift(int32(token.DisplayDecimals())).Floor().BigInt()
	if !units.IsUint64() || units.Uint64() > MaxQuantity {
		return Amount[T]{}, fmt.Errorf("%w: %s", ErrQuantityTooLarge, d)
	}
	return Amount[T]{Quantity: units.Uint64(), Token: token}, nil
}

// ParseAmount parses a decimal string such as "12.34" into an amount.
func ParseAmount[T Tokenizable](s string, token T) (Amount[T], error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount[T]{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return AmountFromDecimal(d, token)
}
