package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"MarketScanner/internal/config"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/report"
	"MarketScanner/internal/universe"
)

func scanCmd(conf func() *config.Config) *cobra.Command {
	var (
		symbols []string
		top     int
		noCSV   bool
		notify  bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the ranked results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := conf()
			if len(symbols) > 0 {
				cfg.Universe = universe.Config{Symbols: symbols}
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			syms, err := a.universe(ctx)
			if err != nil {
				return err
			}
			rep, err := a.scanner.Run(ctx, syms)
			if rep == nil {
				return err
			}
			if werr := report.WriteTable(os.Stdout, rep, top); werr != nil {
				return werr
			}
			if !noCSV && cfg.Output.Dir != "" && len(rep.Results) > 0 {
				path, serr := report.SaveCSV(cfg.Output.Dir, rep)
				if serr != nil {
					return serr
				}
				log.Info().Str("path", path).Msg("results exported")
			}
			if notify && cfg.Telegram.BotToken != "" {
				tn, nerr := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
				if nerr != nil {
					return nerr
				}
				if nerr := tn.SendWithRetry(ctx, notifier.FormatScanReport(rep, top), 3); nerr != nil {
					log.Error().Err(nerr).Msg("send notification")
				}
			}
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "scan these symbols instead of the configured universe")
	cmd.Flags().IntVarP(&top, "top", "n", 20, "number of results to print")
	cmd.Flags().BoolVar(&noCSV, "no-csv", false, "skip the CSV export")
	cmd.Flags().BoolVar(&notify, "notify", false, "send the summary to Telegram")
	return cmd
}

func symbolsCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "Print the resolved scan universe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(conf())
			if err != nil {
				return err
			}
			defer a.Close()

			syms, err := a.universe(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range syms {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			log.Info().Int("count", len(syms)).Msg("universe resolved")
			return nil
		},
	}
}
