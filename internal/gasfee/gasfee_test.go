package gasfee

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"fundguard/internal/chain"
	"fundguard/internal/chain/solana"
	"fundguard/internal/logger"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEVM struct {
	baseFee  *big.Int
	tip      *big.Int
	price    *big.Int
	err      error
	tipCalls int
}

func (f *fakeEVM) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Header{BaseFee: f.baseFee}, nil
}

func (f *fakeEVM) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	f.tipCalls++
	return f.tip, nil
}

func (f *fakeEVM) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.price, nil
}

type fakeFees struct {
	fees []solana.PrioritizationFee
	err  error
}

func (f *fakeFees) GetRecentPrioritizationFees(ctx context.Context, accounts []string) ([]solana.PrioritizationFee, error) {
	return f.fees, f.err
}

type stubSource struct {
	fee *big.Int
	err error
}

func (s *stubSource) Fetch(ctx context.Context) (*big.Int, error) {
	return s.fee, s.err
}

func TestEVMSourceEIP1559(t *testing.T) {
	backend := &fakeEVM{baseFee: big.NewInt(10), tip: big.NewInt(2)}
	fee, err := NewEVMSource(backend, 100_000, 20).Fetch(context.Background())
	require.NoError(t, err)
	// (2*10 + 2) * 100000 * 1.2
	assert.Equal(t, "2640000", fee.String())
}

func TestEVMSourceLegacyGasPrice(t *testing.T) {
	backend := &fakeEVM{price: big.NewInt(5)}
	fee, err := NewEVMSource(backend, 0, 0).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1500000", fee.String())
	assert.Zero(t, backend.tipCalls)
}

func TestEVMSourceCategory(t *testing.T) {
	backend := &fakeEVM{baseFee: big.NewInt(1), tip: big.NewInt(0)}
	src := NewEVMSource(backend, 0, 0)

	fee, err := src.EstimateCategory(context.Background(), CategoryTransfer)
	require.NoError(t, err)
	assert.Equal(t, "42000", fee.String())

	_, err = src.EstimateCategory(context.Background(), Category("bridge"))
	require.Error(t, err)
}

func TestEVMSourceError(t *testing.T) {
	_, err := NewEVMSource(&fakeEVM{err: errors.New("rpc down")}, 0, 0).Fetch(context.Background())
	require.Error(t, err)
}

func TestPercentile90(t *testing.T) {
	assert.Equal(t, uint64(0), Percentile90(nil))
	assert.Equal(t, uint64(7), Percentile90([]uint64{7}))
	assert.Equal(t, uint64(9), Percentile90([]uint64{10, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	assert.Equal(t, uint64(100), Percentile90([]uint64{100, 0, 0, 0, 0}))
}

func TestSVMSource(t *testing.T) {
	samples := make([]solana.PrioritizationFee, 0, 10)
	for i := 1; i <= 10; i++ {
		samples = append(samples, solana.PrioritizationFee{Slot: uint64(i), PrioritizationFee: uint64(i * 10_000)})
	}
	fee, err := NewSVMSource(&fakeFees{fees: samples}, 200_000, 1, 10, nil).Fetch(context.Background())
	require.NoError(t, err)
	// p90 = 90000 micro-lamports/CU * 200000 CU / 1e6 = 18000; + 5000 base; * 1.1
	assert.Equal(t, "25300", fee.String())
}

func TestSVMSourceNoSamplesUsesBaseFee(t *testing.T) {
	fee, err := NewSVMSource(&fakeFees{}, 0, 2, 0, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10000", fee.String())
}

func TestOracleFreshQuote(t *testing.T) {
	o := NewOracle(time.Minute, logger.Discard())
	o.Register(1, &stubSource{fee: big.NewInt(1000)}, big.NewInt(5))

	quote, err := o.GasFee(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, quote.Stale)
	assert.Equal(t, "1000", quote.Amount.String())
}

func TestOracleFallsBackToLastKnown(t *testing.T) {
	src := &stubSource{fee: big.NewInt(1000)}
	o := NewOracle(time.Minute, logger.Discard())
	o.Register(1, src, big.NewInt(5))

	_, err := o.GasFee(context.Background(), 1)
	require.NoError(t, err)

	src.fee, src.err = nil, errors.New("timeout")
	quote, err := o.GasFee(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, quote.Stale)
	assert.Equal(t, "1000", quote.Amount.String())
}

func TestOracleFallsBackToDefault(t *testing.T) {
	o := NewOracle(time.Minute, logger.Discard())
	o.Register(1, &stubSource{err: errors.New("timeout")}, big.NewInt(5))

	quote, err := o.GasFee(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, quote.Stale)
	assert.Equal(t, "5", quote.Amount.String())
}

func TestOracleNoFallback(t *testing.T) {
	o := NewOracle(time.Minute, logger.Discard())
	o.Register(1, &stubSource{err: errors.New("timeout")}, nil)

	_, err := o.GasFee(context.Background(), 1)
	require.Error(t, err)
}

func TestOracleUnknownChain(t *testing.T) {
	_, err := NewOracle(time.Minute, logger.Discard()).GasFee(context.Background(), 42)
	require.ErrorIs(t, err, chain.ErrUnknownChain)
}

type hangingSource struct{}

func (hangingSource) Fetch(ctx context.Context) (*big.Int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestOracleTimeoutFallsBackToDefault(t *testing.T) {
	o := NewOracle(time.Minute, logger.Discard())
	o.Register(1, hangingSource{}, big.NewInt(5))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	quote, err := o.GasFee(ctx, 1)
	require.NoError(t, err)
	assert.True(t, quote.Stale)
	assert.Equal(t, "5", quote.Amount.String())
}

func TestOracleCancelledReturnsError(t *testing.T) {
	o := NewOracle(time.Minute, logger.Discard())
	o.Register(1, hangingSource{}, big.NewInt(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.GasFee(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}
