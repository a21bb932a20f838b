package balance

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"fundguard/internal/chain"
	"fundguard/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	usdc  = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

type fakeEVM struct {
	native  *big.Int
	token   *big.Int
	lastMsg ethereum.CallMsg
	err     error
}

func (f *fakeEVM) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.native, f.err
}

func (f *fakeEVM) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.lastMsg = msg
	if f.err != nil {
		return nil, f.err
	}
	return erc20ABI.Methods["balanceOf"].Outputs.Pack(f.token)
}

type fakeSolana struct {
	native *big.Int
	token  *big.Int
	err    error
}

func (f *fakeSolana) GetBalance(ctx context.Context, owner string) (*big.Int, error) {
	return f.native, f.err
}

func (f *fakeSolana) GetTokenBalance(ctx context.Context, owner, mint string) (*big.Int, error) {
	return f.token, f.err
}

func TestEVMNativeBalance(t *testing.T) {
	bal, err := NewEVMFetcher(&fakeEVM{native: big.NewInt(42)}).NativeBalance(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "42", bal.String())
}

func TestEVMTokenBalanceCallsBalanceOf(t *testing.T) {
	backend := &fakeEVM{token: big.NewInt(1_000_000)}
	bal, err := NewEVMFetcher(backend).TokenBalance(context.Background(), owner, usdc)
	require.NoError(t, err)
	assert.Equal(t, "1000000", bal.String())

	require.NotNil(t, backend.lastMsg.To)
	assert.Equal(t, common.HexToAddress(usdc), *backend.lastMsg.To)
	assert.Equal(t, "70a08231", hex.EncodeToString(backend.lastMsg.Data[:4]))
	assert.Equal(t, common.HexToAddress(owner).Bytes(), backend.lastMsg.Data[16:36])
}

func TestEVMRejectsBadAddress(t *testing.T) {
	_, err := NewEVMFetcher(&fakeEVM{}).NativeBalance(context.Background(), "not-an-address")
	require.Error(t, err)
	_, err = NewEVMFetcher(&fakeEVM{}).TokenBalance(context.Background(), owner, "0x123")
	require.Error(t, err)
}

func TestEVMBackendError(t *testing.T) {
	_, err := NewEVMFetcher(&fakeEVM{err: errors.New("boom")}).TokenBalance(context.Background(), owner, usdc)
	require.Error(t, err)
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	r.Register(1, NewEVMFetcher(&fakeEVM{native: big.NewInt(5), token: big.NewInt(7)}))
	r.Register(101, NewSVMFetcher(&fakeSolana{native: big.NewInt(11), token: big.NewInt(13)}))

	bal, err := r.NativeBalance(context.Background(), owner, 1)
	require.NoError(t, err)
	assert.Equal(t, "5", bal.String())

	bal, err = r.TokenBalance(context.Background(), owner, usdc, 1)
	require.NoError(t, err)
	assert.Equal(t, "7", bal.String())

	bal, err = r.TokenBalance(context.Background(), owner, models.NativeTokenAddress, 1)
	require.NoError(t, err)
	assert.Equal(t, "5", bal.String())

	bal, err = r.TokenBalance(context.Background(), "SolOwner", "Mint111", 101)
	require.NoError(t, err)
	assert.Equal(t, "13", bal.String())

	_, err = r.NativeBalance(context.Background(), owner, 999)
	require.ErrorIs(t, err, chain.ErrUnknownChain)
}

func TestSVMFetcherWrapsErrors(t *testing.T) {
	cause := errors.New("rpc down")
	_, err := NewSVMFetcher(&fakeSolana{err: cause}).NativeBalance(context.Background(), "SolOwner")
	require.ErrorIs(t, err, cause)
}
