package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{name: "decimal", raw: "100000", want: 100000},
		{name: "hex", raw: "0x2710", want: 10000},
		{name: "zero", raw: "0", want: 0},
		{name: "spaces", raw: "  42 ", want: 42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.raw)
			require.NoError(t, err)
			assertAmount(t, tc.want, got)
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "-1", "+5", "1.5", "abc", "1e18", "0xzz"} {
		_, err := Parse(raw)
		require.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestParseHandlesWeiScale(t *testing.T) {
	got, err := Parse("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", got.String())
}

func TestBpsTruncates(t *testing.T) {
	assertAmount(t, 100, Bps(big.NewInt(100000), 10))
	assertAmount(t, 0, Bps(big.NewInt(999), 10))
	assertAmount(t, 1, Bps(big.NewInt(1999), 10))
	assertAmount(t, 0, Bps(big.NewInt(100000), 0))
}

func TestApplyBufferPercent(t *testing.T) {
	assertAmount(t, 1200, ApplyBufferPercent(big.NewInt(1000), 20))
	assertAmount(t, 1000, ApplyBufferPercent(big.NewInt(1000), 0))
	assertAmount(t, 12, ApplyBufferPercent(big.NewInt(11), 15))
}

func TestShortfall(t *testing.T) {
	assertAmount(t, 1, Shortfall(big.NewInt(3000), big.NewInt(2999)))
	assertAmount(t, 0, Shortfall(big.NewInt(3000), big.NewInt(5000)))
	assertAmount(t, 7, Shortfall(big.NewInt(7), nil))
}

func TestSumSkipsNil(t *testing.T) {
	assertAmount(t, 6, Sum(big.NewInt(1), nil, big.NewInt(5)))
	assertAmount(t, 0, Sum())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.5", Format(big.NewInt(1500000), 6))
	assert.Equal(t, "0.000000000000000001", Format(big.NewInt(1), 18))
	assert.Equal(t, "42", Format(big.NewInt(42), 0))
	assert.Equal(t, "0", Format(nil, 18))
}

func assertAmount(t *testing.T, want int64, got *big.Int) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, big.NewInt(want).String(), got.String())
}
