package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/kindredapp/kindred/internal/dispatch"
	"github.com/kindredapp/kindred/internal/quota"
	"github.com/kindredapp/kindred/internal/server"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server with scheduled dispatch",
		Long: "Serves the chat API and registers the two time triggers: the hourly " +
			"dispatch tick and the daily usage reset.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kindred.yaml", "path to Kindred config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, gdb, err := openDB(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gen := newGenerator(cfg, logger)
	relays, err := newRelays(cfg, logger)
	if err != nil {
		return err
	}

	sendHour := cfg.SendHourValue()
	sendWeekday := cfg.SendWeekdayValue()
	d, err := dispatch.New(dispatch.Opts{
		DB:          gdb,
		Generator:   gen,
		Relays:      relays,
		Logger:      logger,
		SendHour:    &sendHour,
		SendWeekday: &sendWeekday,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Trigger boundary: cron owns the clock, the core takes now explicitly.
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Schedule.TickCron, func() {
		if _, err := d.RunTick(ctx, time.Now()); err != nil {
			logger.Error("dispatch tick aborted", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	if _, err := sched.AddFunc(cfg.Schedule.ResetCron, func() {
		n, err := quota.ResetAll(gdb)
		if err != nil {
			logger.Error("usage reset failed", zap.Error(err))
			return
		}
		logger.Info("usage reset", zap.Int64("users", n))
	}); err != nil {
		return fmt.Errorf("schedule reset: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Kindred serving on :%d (tick %q, reset %q)\n",
		cfg.Server.Port, cfg.Schedule.TickCron, cfg.Schedule.ResetCron)

	return server.Start(ctx, server.StartOpts{
		DB:        gdb,
		Generator: gen,
		Port:      cfg.Server.Port,
		MediaDir:  cfg.Media.Dir,
		Logger:    logger,
	})
}
