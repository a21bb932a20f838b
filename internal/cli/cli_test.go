package cli

import (
	"bytes"
	"math/big"
	"testing"

	"fundguard/internal/engine"
	"fundguard/internal/models"
	"fundguard/internal/reserve"

	"github.com/stretchr/testify/assert"
)

func TestPrintReport(t *testing.T) {
	report := &engine.Report{
		PassID:          "p1",
		SnapshotVersion: 3,
		Verdicts: []reserve.Verdict{
			{
				Scope:            reserve.Scope{WalletID: "w1", ChainID: 8453, TokenAddress: models.NativeTokenAddress},
				SufficientNative: false,
				SufficientToken:  true,
				RequiredNative:   big.NewInt(4_000_000_000_000_000),
				NativeBalance:    big.NewInt(3_000_000_000_000_000),
				ShortfallNative:  big.NewInt(1_000_000_000_000_000),
				NativeToken:      models.Token{Symbol: "ETH", Decimals: 18},
				WalletAddress:    "0xabc",
			},
			{
				Scope:            reserve.Scope{WalletID: "w1", ChainID: 8453, TokenAddress: "0xA0b8"},
				SufficientNative: true,
				SufficientToken:  true,
				RequiredNative:   big.NewInt(0),
				NativeBalance:    big.NewInt(0),
				RequiredToken:    big.NewInt(1_500_000),
				TokenBalance:     big.NewInt(2_000_000),
				NativeToken:      models.Token{Symbol: "ETH", Decimals: 18},
				Token:            models.Token{Symbol: "USDC", Decimals: 6},
			},
		},
		Warnings: []string{"o5: поле order_size"},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "снапшот v3")
	assert.Contains(t, out, "SHORT")
	assert.Contains(t, out, "нужно_native=0.004")
	assert.Contains(t, out, "нужно_токен=1.5 баланс_токен=2")
	assert.Contains(t, out, "пополните на 0.001")
	assert.Contains(t, out, "предупреждение: o5")
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "OK", status(reserve.Verdict{SufficientNative: true, SufficientToken: true}))
	assert.Equal(t, "SHORT", status(reserve.Verdict{SufficientNative: true}))
	assert.Equal(t, "DEGR", status(reserve.Verdict{SufficientNative: true, SufficientToken: true, Degraded: true}))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, "exit code 1", exitCode(1).Error())
}
