package balance

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20BalanceOfABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var erc20ABI = mustParseABI(erc20BalanceOfABI)

type EVMBackend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type EVMFetcher struct {
	backend EVMBackend
}

func NewEVMFetcher(backend EVMBackend) *EVMFetcher {
	return &EVMFetcher{backend: backend}
}

func (f *EVMFetcher) NativeBalance(ctx context.Context, walletAddress string) (*big.Int, error) {
	owner, err := parseAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	bal, err := f.backend.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("Не удалось получить баланс %s: %w", walletAddress, err)
	}
	return bal, nil
}

func (f *EVMFetcher) TokenBalance(ctx context.Context, walletAddress, tokenAddress string) (*big.Int, error) {
	owner, err := parseAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	token, err := parseAddress(tokenAddress)
	if err != nil {
		return nil, err
	}

	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("Не удалось упаковать вызов balanceOf: %w", err)
	}
	out, err := f.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("Не удалось вызвать balanceOf у %s: %w", tokenAddress, err)
	}
	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("Не удалось разобрать ответ balanceOf у %s: %w", tokenAddress, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("Неожиданный ответ balanceOf у %s", tokenAddress)
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("Неожиданный тип ответа balanceOf у %s", tokenAddress)
	}
	return bal, nil
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("Некорректный EVM адрес: %q", address)
	}
	return common.HexToAddress(address), nil
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
