package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

const BpsDenominator = 10000

var ErrMalformed = errors.New("Некорректная сумма")

var (
	bpsDenominator = big.NewInt(BpsDenominator)
	hundred        = big.NewInt(100)
)

func Zero() *big.Int {
	return new(big.Int)
}

// Parse принимает неотрицательное целое в минимальных единицах: десятичное или 0x-hex.
func Parse(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: пустое значение", ErrMalformed)
	}
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "+") {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	val, ok := math.ParseBig256(trimmed)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return val, nil
}

func MustParse(raw string) *big.Int {
	val, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return val
}

func IsNegative(x *big.Int) bool {
	return x != nil && x.Sign() < 0
}

func Sum(xs ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, x := range xs {
		if x == nil {
			continue
		}
		total.Add(total, x)
	}
	return total
}

func MulInt64(x *big.Int, n int64) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(x, big.NewInt(n))
}

// Bps возвращает floor(x * bps / 10000).
func Bps(x *big.Int, bps int64) *big.Int {
	if x == nil || bps == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(x, big.NewInt(bps))
	return out.Quo(out, bpsDenominator)
}

// ApplyBufferPercent возвращает floor(x * (100 + pct) / 100).
func ApplyBufferPercent(x *big.Int, pct int64) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(x, big.NewInt(100+pct))
	return out.Quo(out, hundred)
}

func Shortfall(need, have *big.Int) *big.Int {
	diff := new(big.Int).Sub(orZero(need), orZero(have))
	if diff.Sign() < 0 {
		return new(big.Int)
	}
	return diff
}

func Copy(x *big.Int) *big.Int {
	return new(big.Int).Set(orZero(x))
}

// Format переводит сумму в человекочитаемую строку. Только для вывода.
func Format(x *big.Int, decimals int32) string {
	if x == nil {
		return "0"
	}
	return decimal.NewFromBigInt(x, -decimals).String()
}

func orZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}
