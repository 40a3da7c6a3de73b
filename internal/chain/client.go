package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client wraps an eth JSON-RPC connection with a shared rate limiter and a
// per-call timeout. Every chain read and write in the bot goes through it so
// a misbehaving loop cannot hammer the provider.
type Client struct {
	eth     *ethclient.Client
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
}

func Dial(ctx context.Context, url string, timeout time.Duration, rps float64, burst int, log *zap.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Client{
		eth:     eth,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		timeout: timeout,
		log:     log,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) call(ctx context.Context, fn func(context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fn(callCtx)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		number, err = c.eth.BlockNumber(ctx)
		return err
	})
	return number, err
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var out []byte
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.eth.CallContract(ctx, msg, nil)
		return err
	})
	return out, err
}

func (c *Client) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	var nonce uint64
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		nonce, err = c.eth.PendingNonceAt(ctx, address)
		return err
	})
	return nonce, err
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		price, err = c.eth.SuggestGasPrice(ctx)
		return err
	})
	return price, err
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.call(ctx, func(ctx context.Context) error {
		return c.eth.SendTransaction(ctx, tx)
	})
}
