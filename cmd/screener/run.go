package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"MarketScanner/internal/config"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/scheduler"
	"MarketScanner/internal/server"
)

func runCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled screener with the Telegram bot and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := conf()
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()

			var nt notifier.Notifier = notifier.NoopNotifier{}
			var tn *notifier.TelegramNotifier
			if cfg.Telegram.BotToken != "" {
				tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
				if err != nil {
					return err
				}
				nt = tn
			} else {
				log.Warn().Msg("telegram.bot_token not set, notifications disabled")
			}

			sched := scheduler.NewScheduler(ctx, a.scanner, a.universe, a.cache, nt, a.metrics)
			sched.OutputDir = cfg.Output.Dir
			sched.TopN = cfg.Scan.TopN
			if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.CachePurgeCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}

			if cfg.HTTP.Addr != "" {
				srv := server.New(cfg.HTTP.Addr, sched, a.metrics)
				go func() {
					if err := srv.ListenAndServe(); err != nil {
						log.Error().Err(err).Msg("http server")
					}
				}()
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(sctx); err != nil {
						log.Warn().Err(err).Msg("http shutdown")
					}
				}()
			}

			if cfg.Schedule.RunOnStart {
				log.Info().Msg("run_on_start enabled, scanning now")
				if err := sched.TriggerScan(); err != nil {
					log.Warn().Err(err).Msg("initial scan")
				}
			}

			log.Info().Msg("screener is running, press Ctrl+C to stop")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
}
