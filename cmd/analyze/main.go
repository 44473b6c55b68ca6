// Command analyze runs the aggregation operations offline against a
// recorded session directory or a single JSONL/CSV file and prints the
// result as JSON on stdout.
//
//	analyze -data ./data -session btc-up-or-down-3pm-et -op leaderboard -by volume
//	analyze -file trades.jsonl -op profit -wallet 0xabc...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/quangkl1998/polymarket/internal/analytics"
	"github.com/quangkl1998/polymarket/internal/domain"
	"github.com/quangkl1998/polymarket/internal/store/filetree"
)

func main() {
	var (
		dataDir  = flag.String("data", "data", "recorder data directory")
		file     = flag.String("file", "", "path to a .jsonl or .csv file (overrides -session)")
		session  = flag.String("session", "", "session id to load from the data directory")
		op       = flag.String("op", "stats", "operation: stats, profit, leaderboard, prices, history")
		wallet   = flag.String("wallet", "", "wallet address for stats and profit")
		by       = flag.String("by", "profit", "leaderboard ordering: profit, trades, volume")
		limit    = flag.Int("limit", 20, "leaderboard size")
		outcome  = flag.Int("outcome", -1, "outcome index filter, -1 for all")
		price    = flag.Float64("price", -1, "exact price level to look up, -1 for all levels")
		interval = flag.Int64("interval", 0, "history bucket width in seconds, 0 for per-timestamp detail")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	identifier := *file
	if identifier == "" {
		identifier = *session
	}
	if identifier == "" {
		fatal("either -file or -session is required")
	}

	loader := filetree.NewLoader(*dataDir, logger)
	events, err := loader.Load(context.Background(), identifier)
	if err != nil {
		fatal("load %s: %v", identifier, err)
	}

	var outcomeFilter *int
	if *outcome >= 0 {
		outcomeFilter = outcome
	}

	var result any
	switch *op {
	case "stats":
		if *wallet == "" {
			fatal("-wallet is required for stats")
		}
		result = analytics.ComputeWalletStats(events, domain.NormalizeWallet(*wallet))
	case "profit":
		if *wallet == "" {
			fatal("-wallet is required for profit")
		}
		result = analytics.ComputeWalletProfit(events, domain.NormalizeWallet(*wallet), nil)
	case "leaderboard":
		switch *by {
		case "profit":
			result = analytics.RankByProfit(events, *limit, nil)
		case "trades":
			result = analytics.RankByTradeCount(events, *limit)
		case "volume":
			result = analytics.RankByVolume(events, *limit)
		default:
			fatal("unknown ordering %q", *by)
		}
	case "prices":
		if *price >= 0 {
			level, nearest, err := analytics.LookupPrice(events, *price, outcomeFilter, 2)
			if err != nil {
				result = map[string]any{"error": "no trades at this price", "nearest": nearest}
			} else {
				result = level
			}
		} else {
			result = analytics.AggregateByPrice(events, outcomeFilter)
		}
	case "history":
		if *interval > 0 {
			result = analytics.TrackByInterval(events, *interval, outcomeFilter)
		} else {
			result = analytics.TrackByTimestamp(events, outcomeFilter)
		}
	default:
		fatal("unknown operation %q", *op)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fatal("encode result: %v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "analyze: "+format+"\n", args...)
	os.Exit(1)
}
