package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"pool-tick-bot/internal/config"
	"pool-tick-bot/internal/num"
	"pool-tick-bot/internal/strategy"
)

const routerABI = `[{"inputs":[{"components":[{"internalType":"address","name":"tokenIn","type":"address"},{"internalType":"address","name":"tokenOut","type":"address"},{"internalType":"uint24","name":"fee","type":"uint24"},{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"deadline","type":"uint256"},{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMinimum","type":"uint256"},{"internalType":"uint160","name":"sqrtPriceLimitX96","type":"uint160"}],"internalType":"struct ISwapRouter.ExactInputSingleParams","name":"params","type":"tuple"}],"name":"exactInputSingle","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"}],"stateMutability":"payable","type":"function"}]`

const swapDeadline = 5 * time.Minute

// SwapRequest is one trade intent bound to the block it was decided on.
type SwapRequest struct {
	IntentID string
	Block    uint64
	Side     strategy.Side
	Amount   num.Fraction
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Swapper is the execution collaborator: it turns a trade intent into router
// calldata and a signed transaction. A buy spends token1 for token0, a sell
// spends token0 for token1; the Fraction amount is denominated in the token
// being spent. In dry-run mode nothing is signed or sent.
type Swapper struct {
	client *Client
	signer *Signer
	log    *zap.Logger

	router         common.Address
	token0, token1 common.Address
	token0Decimals int
	token1Decimals int
	fee            *big.Int
	gasLimit       uint64
	dryRun         bool

	parseOnce sync.Once
	parsed    abi.ABI
	parseErr  error
}

func NewSwapper(client *Client, signer *Signer, pool config.PoolConfig, exec config.ExecutorConfig, log *zap.Logger) (*Swapper, error) {
	s := &Swapper{
		client:         client,
		signer:         signer,
		log:            log,
		token0Decimals: pool.Token0Decimals,
		token1Decimals: pool.Token1Decimals,
		fee:            new(big.Int).SetUint64(uint64(pool.Fee)),
		gasLimit:       exec.GasLimit,
		dryRun:         exec.DryRun,
	}
	if s.dryRun {
		return s, nil
	}
	if signer == nil {
		return nil, errors.New("signer is required for live execution")
	}
	for _, addr := range []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"executor.router", exec.Router, &s.router},
		{"pool.token0", pool.Token0, &s.token0},
		{"pool.token1", pool.Token1, &s.token1},
	} {
		if !common.IsHexAddress(strings.TrimSpace(addr.value)) {
			return nil, fmt.Errorf("invalid address for %s: %q", addr.name, addr.value)
		}
		*addr.dst = common.HexToAddress(strings.TrimSpace(addr.value))
	}
	return s, nil
}

func (s *Swapper) routerABI() (abi.ABI, error) {
	s.parseOnce.Do(func() {
		s.parsed, s.parseErr = abi.JSON(strings.NewReader(routerABI))
	})
	return s.parsed, s.parseErr
}

// Submit sends the swap and returns the transaction hash. Dry runs log the
// derived order and return a synthetic reference instead.
func (s *Swapper) Submit(ctx context.Context, req SwapRequest) (string, error) {
	if req.Side != strategy.SideBuy && req.Side != strategy.SideSell {
		return "", fmt.Errorf("unknown trade side %q", req.Side)
	}
	tokenIn, tokenOut := s.token0, s.token1
	decimals := s.token0Decimals
	if req.Side == strategy.SideBuy {
		tokenIn, tokenOut = s.token1, s.token0
		decimals = s.token1Decimals
	}
	amountIn := req.Amount.BaseUnits(decimals)
	if amountIn.Sign() <= 0 {
		return "", fmt.Errorf("swap amount %s resolves to zero base units", req.Amount)
	}
	if s.dryRun {
		s.log.Info("dry-run swap",
			zap.String("intent_id", req.IntentID),
			zap.Uint64("block", req.Block),
			zap.String("side", string(req.Side)),
			zap.String("amount", req.Amount.Decimal().String()),
			zap.String("amount_in_base_units", amountIn.String()),
		)
		return "dry-run:" + req.IntentID, nil
	}

	parsed, err := s.routerABI()
	if err != nil {
		return "", err
	}
	deadline := time.Now().Add(swapDeadline).Unix()
	data, err := parsed.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               s.fee,
		Recipient:         s.signer.Address(),
		Deadline:          big.NewInt(deadline),
		AmountIn:          amountIn,
		AmountOutMinimum:  new(big.Int),
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return "", err
	}
	nonce, err := s.client.PendingNonceAt(ctx, s.signer.Address())
	if err != nil {
		return "", err
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", err
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &s.router,
		Value:    new(big.Int),
		Gas:      s.gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := s.signer.SignTx(tx)
	if err != nil {
		return "", err
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	hash := signed.Hash().Hex()
	s.log.Info("swap submitted",
		zap.String("intent_id", req.IntentID),
		zap.Uint64("block", req.Block),
		zap.String("side", string(req.Side)),
		zap.String("amount", req.Amount.Decimal().String()),
		zap.String("tx_hash", hash),
	)
	return hash, nil
}
