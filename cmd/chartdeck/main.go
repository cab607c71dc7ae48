package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/raykavin/chartdeck"
	"github.com/raykavin/chartdeck/chart/web"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/exchange"
	"github.com/raykavin/chartdeck/exchange/binance"

	"github.com/spf13/cobra"
)

const (
	dateLayout = "2006-01-02"
)

// Command line flags
var (
	// Shared flags
	pair      string
	timeframe string

	// Serve command flags
	port       int
	preload    int
	indicators []string

	// Replay command flags
	inputFile  string
	limitHours int

	// Download command flags
	days       int
	startDate  string
	endDate    string
	outputFile string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "chartdeck",
		Short:   "Real-time indicator charting for trading pairs",
		Version: "1.0.0",
	}

	// Add commands
	rootCmd.AddCommand(buildServeCmd())
	rootCmd.AddCommand(buildReplayCmd())
	rootCmd.AddCommand(buildDownloadCmd())

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live chart fed by Binance spot candles",
		RunE:  runServe,
	}

	serveCmd.Flags().StringVarP(&pair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	serveCmd.Flags().StringVarP(&timeframe, "timeframe", "t", "1m", "Candle timeframe (e.g. 1m, 15m, 1h)")
	serveCmd.Flags().IntVar(&port, "port", 8080, "HTTP port for the chart UI")
	serveCmd.Flags().IntVar(&preload, "preload", 0, "Number of historical candles to preload")
	serveCmd.Flags().StringSliceVarP(&indicators, "indicator", "i", []string{"ema", "rsi"},
		"Indicators to load (sma, ema, rsi, macd, bollinger, atr, stochastic, ichimoku)")

	serveCmd.MarkFlagRequired("pair")

	return serveCmd
}

func buildReplayCmd() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a CSV candle file through the indicator engine",
		RunE:  runReplay,
	}

	replayCmd.Flags().StringVarP(&pair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	replayCmd.Flags().StringVarP(&timeframe, "timeframe", "t", "1m", "Source candle timeframe")
	replayCmd.Flags().StringVarP(&inputFile, "input", "f", "", "CSV file with historical candles")
	replayCmd.Flags().IntVar(&limitHours, "limit-hours", 0, "Replay only the last N hours of the file")
	replayCmd.Flags().StringSliceVarP(&indicators, "indicator", "i", []string{"ema", "rsi"},
		"Indicators to load (sma, ema, rsi, macd, bollinger, atr, stochastic, ichimoku)")

	replayCmd.MarkFlagRequired("pair")
	replayCmd.MarkFlagRequired("input")

	return replayCmd
}

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical candles to CSV",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&pair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	downloadCmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to download (default 30 days)")
	downloadCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (e.g. 2021-12-01)")
	downloadCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date (e.g. 2021-12-31)")
	downloadCmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "Timeframe (e.g. 1h)")
	downloadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (e.g. ./btc.csv)")

	downloadCmd.MarkFlagRequired("pair")
	downloadCmd.MarkFlagRequired("timeframe")
	downloadCmd.MarkFlagRequired("output")

	return downloadCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	configs, err := parseIndicators(indicators)
	if err != nil {
		return err
	}

	feeder, err := binance.NewSpot(ctx, chartdeck.DefaultLog)
	if err != nil {
		return err
	}

	chartWeb, err := web.NewChart(chartdeck.DefaultLog,
		web.WithPort(port),
		web.WithTimeframe(timeframe),
	)
	if err != nil {
		return err
	}

	session, err := chartdeck.NewSession(ctx, core.Settings{
		Pair:      pair,
		Timeframe: timeframe,
		Preload:   preload,
	}, feeder, chartdeck.WithSurface(chartWeb))
	if err != nil {
		return err
	}
	defer session.Close()

	server := web.NewChartServer(chartWeb, web.NewStandardHTTPServer(), chartdeck.DefaultLog)
	go func() {
		if err := server.Start(); err != nil {
			chartdeck.DefaultLog.Error(err)
			stop()
		}
	}()

	session.LoadIndicatorSet(configs)

	return session.Run(ctx)
}

func runReplay(cmd *cobra.Command, args []string) error {
	configs, err := parseIndicators(indicators)
	if err != nil {
		return err
	}

	feed, err := exchange.NewCSVFeed(timeframe, exchange.PairFeed{
		Pair:      pair,
		File:      inputFile,
		Timeframe: timeframe,
	})
	if err != nil {
		return err
	}

	if limitHours > 0 {
		feed = feed.Limit(time.Duration(limitHours) * time.Hour)
	}

	session, err := chartdeck.NewSession(cmd.Context(), core.Settings{
		Pair:      pair,
		Timeframe: timeframe,
	}, feed, chartdeck.WithSelectionPolicy(chartdeck.UnrestrictedSelection()))
	if err != nil {
		return err
	}
	defer session.Close()

	session.LoadIndicatorSet(configs)

	return session.Replay(cmd.Context())
}

func runDownload(cmd *cobra.Command, args []string) error {
	feeder, err := binance.NewSpot(cmd.Context(), chartdeck.DefaultLog)
	if err != nil {
		return err
	}

	options, err := buildDownloadOptions()
	if err != nil {
		return err
	}

	return exchange.NewDownloader(feeder, chartdeck.DefaultLog).Download(
		cmd.Context(),
		pair,
		timeframe,
		outputFile,
		options...,
	)
}

// parseIndicators maps indicator kind names from the command line to
// default-parameter configs
func parseIndicators(names []string) ([]core.IndicatorConfig, error) {
	configs := make([]core.IndicatorConfig, 0, len(names))
	for _, name := range names {
		kind := core.IndicatorKind(strings.ToLower(strings.TrimSpace(name)))
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown indicator kind: %s", name)
		}
		configs = append(configs, core.IndicatorConfig{Kind: kind})
	}
	return configs, nil
}

func buildDownloadOptions() ([]exchange.DownloadOption, error) {
	var options []exchange.DownloadOption

	// Add days option if specified
	if days > 0 {
		options = append(options, exchange.WithDays(days))
	}

	// Handle date range options
	if startDate != "" || endDate != "" {
		// Both must be provided together
		if startDate == "" || endDate == "" {
			return nil, fmt.Errorf("start and end dates must be provided together")
		}

		// Parse dates
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date format: %w", err)
		}

		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date format: %w", err)
		}

		options = append(options, exchange.WithInterval(start, end))
	}

	return options, nil
}
