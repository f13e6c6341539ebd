package state

import (
	"fmt"
	"math/big"
)

// DecimalDigits is the number of fractional digits Amount carries.
const DecimalDigits = 18

// scale is 10^18, the fixed-point unit used internally.
var scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(DecimalDigits), nil)

// Amount is an unsigned fixed-point integer with 18 fractional digits; all
// balance arithmetic over it is exact. The zero value is zero.
type Amount struct {
	raw *big.Int // integer number of 1e-18 units; never negative, never nil after use
}

func (a Amount) bigOrZero() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return a.raw
}

// ZeroAmount returns the additive identity.
func ZeroAmount() Amount { return Amount{raw: new(big.Int)} }

// AmountFromUnits builds an Amount equal to whole units (e.g. AmountFromUnits(1000) == 1000.0).
func AmountFromUnits(units uint64) Amount {
	return Amount{raw: new(big.Int).Mul(new(big.Int).SetUint64(units), scale)}
}

// AmountFromRaw builds an Amount from its raw 1e-18-scaled integer representation.
func AmountFromRaw(raw *big.Int) Amount {
	if raw.Sign() < 0 {
		panic("state: negative Amount")
	}
	return Amount{raw: new(big.Int).Set(raw)}
}

// AmountFromMilliUnits builds an Amount equal to milliUnits/1000 whole units,
// convenient for fractional per-service prices like 0.1 or 0.2.
func AmountFromMilliUnits(milliUnits uint64) Amount {
	factor := new(big.Int).Div(scale, big.NewInt(1000))
	return Amount{raw: new(big.Int).Mul(new(big.Int).SetUint64(milliUnits), factor)}
}

// Raw returns the underlying 1e-18-scaled integer. Callers must not mutate it.
func (a Amount) Raw() *big.Int { return new(big.Int).Set(a.bigOrZero()) }

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{raw: new(big.Int).Add(a.bigOrZero(), b.bigOrZero())}
}

// Sub returns a-b and ok=false if the result would be negative, leaving a
// unmodified in that case (callers should translate !ok into InsufficientBalance).
func (a Amount) Sub(b Amount) (Amount, bool) {
	r := new(big.Int).Sub(a.bigOrZero(), b.bigOrZero())
	if r.Sign() < 0 {
		return Amount{}, false
	}
	return Amount{raw: r}, true
}

// Cmp compares a to b: -1, 0, 1.
func (a Amount) Cmp(b Amount) int { return a.bigOrZero().Cmp(b.bigOrZero()) }

// GreaterOrEqual reports whether a >= b.
func (a Amount) GreaterOrEqual(b Amount) bool { return a.Cmp(b) >= 0 }

// IsZero reports whether a is exactly zero.
func (a Amount) IsZero() bool { return a.bigOrZero().Sign() == 0 }

// Mul returns floor(a * b), treating both operands as 1e18-scaled fixed
// point values (so their raw product must be divided back down by one
// scale factor to stay in the same fixed-point representation).
func (a Amount) Mul(b Amount) Amount {
	prod := new(big.Int).Mul(a.bigOrZero(), b.bigOrZero())
	return Amount{raw: prod.Div(prod, scale)}
}

// MulFrac returns floor(a * num / den); every reward computation floors.
// den must be nonzero.
func (a Amount) MulFrac(num, den *big.Int) Amount {
	prod := new(big.Int).Mul(a.bigOrZero(), num)
	return Amount{raw: prod.Div(prod, den)}
}

// MulFracUint64 is the common case of MulFrac with small integer operands,
// e.g. applying a NodeShare/100 percentage.
func (a Amount) MulFracUint64(num, den uint64) Amount {
	return a.MulFrac(new(big.Int).SetUint64(num), new(big.Int).SetUint64(den))
}

// MarshalJSON encodes the amount as its raw 1e-18-scaled integer in a JSON
// string. A string, not a number: raw values overflow float64 well before
// they overflow a realistic supply, and encoding/json round-trips numbers
// through float64.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.bigOrZero().String() + `"`), nil
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("state: malformed amount %q", b)
	}
	raw, ok := new(big.Int).SetString(string(b[1:len(b)-1]), 10)
	if !ok || raw.Sign() < 0 {
		return fmt.Errorf("state: malformed amount %q", b)
	}
	a.raw = raw
	return nil
}

// String renders the amount as a fixed-point decimal string.
func (a Amount) String() string {
	raw := a.bigOrZero()
	whole := new(big.Int).Div(raw, scale)
	frac := new(big.Int).Mod(raw, scale)
	return fmt.Sprintf("%s.%0*s", whole.String(), DecimalDigits, frac.String())
}

// amountCodec canonically encodes an Amount as a big-endian 16-byte
// unsigned integer, sufficient for 2^128-1 raw units, far beyond any
// realistic supply at 1e18 scale.
type amountCodec struct{}

func (amountCodec) Encode(a Amount) []byte {
	b := a.bigOrZero().Bytes()
	out := make([]byte, 16)
	copy(out[16-len(b):], b)
	return out
}

func (amountCodec) Decode(b []byte) (Amount, error) {
	return Amount{raw: new(big.Int).SetBytes(b)}, nil
}
