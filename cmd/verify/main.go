package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"pool-tick-bot/internal/config"
	"pool-tick-bot/internal/logging"
	"pool-tick-bot/internal/strategy"
)

// verify replays the configured strategy over a price series without
// touching the chain, so a config change can be sanity-checked before it
// goes live.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	pricesArg := flag.String("prices", "", "comma-separated price series to replay")
	pricesFile := flag.String("prices-file", "", "file with one price per line (# comments allowed)")
	startBlock := flag.Uint64("start-block", 17000000, "block number assigned to the first price")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	strat, err := strategy.Build(cfg.Strategy)
	if err != nil {
		fatal(fmt.Errorf("strategy: %w", err))
	}

	prices, err := loadPrices(*pricesArg, *pricesFile)
	if err != nil {
		fatal(err)
	}
	if len(prices) == 0 {
		fatal(errors.New("no prices to replay: pass -prices or -prices-file"))
	}

	type tracker interface {
		Smoothed() (float64, bool)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Block", "Price", "Smoothed", "Action", "Amount")

	buys, sells := 0, 0
	for i, price := range prices {
		block := *startBlock + uint64(i)
		trade := strat.Decide(strategy.TradeContext{PriceLossy: price})

		smoothedLabel := "-"
		if t, ok := strat.(tracker); ok {
			if smoothed, seeded := t.Smoothed(); seeded {
				smoothedLabel = fmt.Sprintf("%.6f", smoothed)
			}
		}
		action, amount := "-", "-"
		if trade != nil {
			action = string(trade.Side)
			amount = trade.Amount.String()
			if trade.Side == strategy.SideBuy {
				buys++
			} else {
				sells++
			}
		}
		table.Append(
			strconv.FormatUint(block, 10),
			fmt.Sprintf("%.6f", price),
			smoothedLabel,
			action,
			amount,
		)
	}
	table.Render()

	fmt.Printf("\nreplayed %d blocks: %d buys, %d sells, %d holds\n",
		len(prices), buys, sells, len(prices)-buys-sells)
}

func loadPrices(arg, path string) ([]float64, error) {
	if arg != "" && path != "" {
		return nil, errors.New("pass either -prices or -prices-file, not both")
	}
	if arg != "" {
		return parsePrices(strings.Split(arg, ","))
	}
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var fields []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields = append(fields, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return parsePrices(fields)
}

func parsePrices(fields []string) ([]float64, error) {
	prices := make([]float64, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		price, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", field, err)
		}
		prices = append(prices, price)
	}
	return prices, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
