package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"movie-cinema/internal/bot"
	"movie-cinema/internal/service"
)

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the catalog over Telegram",
		Long: `Starts the Telegram bot. Requires TELEGRAM_TOKEN.

When BACKUP_TIME (HH:MM) or BACKUP_INTERVAL_HOURS is set, an export
snapshot is written to BACKUP_DIR on that schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(a *app) error {
				return runBot(cmd.Context(), a)
			})
		},
	}
}

func runBot(ctx context.Context, a *app) error {
	if err := a.cfg.RequireTelegram(); err != nil {
		return err
	}

	telegramBot, err := bot.New(a.cfg.TelegramToken, a.store, a.cfg.AllowedUserIDs, a.log.Named("bot"))
	if err != nil {
		return err
	}

	if a.cfg.BackupsEnabled() {
		backups := service.NewBackupService(a.store, a.cfg.BackupDir, a.log.Named("backup"))
		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleBackup(a.cfg.BackupTime, a.cfg.BackupInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := backups.Run(jobCtx); err != nil {
				a.log.Error("backup", zap.Error(err))
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		a.log.Info("backups scheduled", zap.String("dir", a.cfg.BackupDir), zap.String("time", a.cfg.BackupTime), zap.Duration("interval", a.cfg.BackupInterval))
	}

	a.log.Info("movie cinema bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
