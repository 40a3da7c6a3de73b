// Package heads subscribes to new block headers over a raw JSON-RPC
// websocket. The app falls back to HTTP polling when no ws url is configured,
// so the watcher only has to deliver block numbers, not full headers.
package heads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

type Watcher struct {
	url            string
	reconnectDelay time.Duration
	log            *zap.Logger
}

func New(url string, reconnectDelay time.Duration, log *zap.Logger) *Watcher {
	return &Watcher{url: url, reconnectDelay: reconnectDelay, log: log}
}

type subscribeRequest struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      int      `json:"id"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
}

type notification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Number string `json:"number"`
		} `json:"result"`
	} `json:"params"`
}

// Run delivers each new block number to handler until ctx is canceled,
// reconnecting with a fixed delay on read or dial failures.
func (w *Watcher) Run(ctx context.Context, handler func(blockNumber uint64)) error {
	for {
		err := w.runOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			w.log.Warn("heads subscription dropped", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.reconnectDelay):
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, handler func(uint64)) error {
	conn, _, err := websocket.Dial(ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sub := subscribeRequest{JSONRPC: "2.0", ID: 1, Method: "eth_subscribe", Params: []string{"newHeads"}}
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return err
	}
	// First frame is the subscription ack; anything after is a head.
	if _, _, err := conn.Read(ctx); err != nil {
		return err
	}
	w.log.Info("subscribed to new heads", zap.String("url", w.url))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		number, ok, err := ParseHead(data)
		if err != nil {
			w.log.Warn("dropping malformed head", zap.Error(err))
			continue
		}
		if ok {
			handler(number)
		}
	}
}

// ParseHead extracts the block number from an eth_subscription frame. The
// second result is false for frames that are not head notifications.
func ParseHead(data []byte) (uint64, bool, error) {
	var note notification
	if err := json.Unmarshal(data, &note); err != nil {
		return 0, false, err
	}
	if note.Method != "eth_subscription" {
		return 0, false, nil
	}
	if note.Params.Result.Number == "" {
		return 0, false, errors.New("head notification missing block number")
	}
	number, err := hexutil.DecodeUint64(note.Params.Result.Number)
	if err != nil {
		return 0, false, fmt.Errorf("invalid block number %q: %w", note.Params.Result.Number, err)
	}
	return number, true, nil
}
