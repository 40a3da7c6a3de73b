package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pool-tick-bot/internal/config"
)

const slot0ABI = `[{"inputs":[],"name":"slot0","outputs":[{"internalType":"uint160","name":"sqrtPriceX96","type":"uint160"},{"internalType":"int24","name":"tick","type":"int24"},{"internalType":"uint16","name":"observationIndex","type":"uint16"},{"internalType":"uint16","name":"observationCardinality","type":"uint16"},{"internalType":"uint16","name":"observationCardinalityNext","type":"uint16"},{"internalType":"uint8","name":"feeProtocol","type":"uint8"},{"internalType":"bool","name":"unlocked","type":"bool"}],"stateMutability":"view","type":"function"}]`

// PoolReader is the price source: it reads slot0 of a single concentrated
// liquidity pool and turns sqrtPriceX96 into a lossy float64 price for the
// decision pipeline.
type PoolReader struct {
	client         *Client
	address        common.Address
	token0Decimals int
	token1Decimals int
	invert         bool
	log            *zap.Logger

	parseOnce sync.Once
	parsed    abi.ABI
	parseErr  error
}

func NewPoolReader(client *Client, cfg config.PoolConfig, log *zap.Logger) (*PoolReader, error) {
	addr := strings.TrimSpace(cfg.Address)
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid pool address %q", cfg.Address)
	}
	return &PoolReader{
		client:         client,
		address:        common.HexToAddress(addr),
		token0Decimals: cfg.Token0Decimals,
		token1Decimals: cfg.Token1Decimals,
		invert:         cfg.InvertPrice,
		log:            log,
	}, nil
}

func (p *PoolReader) poolABI() (abi.ABI, error) {
	p.parseOnce.Do(func() {
		p.parsed, p.parseErr = abi.JSON(strings.NewReader(slot0ABI))
	})
	return p.parsed, p.parseErr
}

// Price returns the current pool price as token1 per token0, adjusted for
// token decimals (or the inverse when invert_price is set).
func (p *PoolReader) Price(ctx context.Context) (float64, error) {
	parsed, err := p.poolABI()
	if err != nil {
		return 0, err
	}
	data, err := parsed.Pack("slot0")
	if err != nil {
		return 0, err
	}
	out, err := p.client.CallContract(ctx, ethereum.CallMsg{To: &p.address, Data: data})
	if err != nil {
		return 0, err
	}
	values, err := parsed.Unpack("slot0", out)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, errors.New("slot0 returned no values")
	}
	sqrtPriceX96, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected sqrtPriceX96 type %T", values[0])
	}
	price := SqrtPriceX96ToPrice(sqrtPriceX96, p.token0Decimals, p.token1Decimals)
	if p.invert {
		price = 1 / price
	}
	return price, nil
}

// SqrtPriceX96ToPrice converts the pool's Q64.96 square-root price into a
// human price of token0 in token1: (sqrt/2^96)^2 * 10^(dec0-dec1). The result
// is deliberately lossy; exact amounts never pass through it.
func SqrtPriceX96ToPrice(sqrtPriceX96 *big.Int, token0Decimals, token1Decimals int) float64 {
	sqrt := new(big.Float).SetInt(sqrtPriceX96)
	q96 := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))
	ratio := new(big.Float).Quo(sqrt, q96)
	ratio.Mul(ratio, ratio)

	shift := token0Decimals - token1Decimals
	if shift != 0 {
		scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(shift))), nil))
		if shift > 0 {
			ratio.Mul(ratio, scale)
		} else {
			ratio.Quo(ratio, scale)
		}
	}
	price, _ := ratio.Float64()
	return price
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
