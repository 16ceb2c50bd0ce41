package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func (c *Cli) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push queued changes and pull remote ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := c.app.Sync.Sync(cmd.Context())
			if err != nil {
				return err
			}
			c.printSession(session)
			return nil
		},
	}
}

func (c *Cli) newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull remote changes without pushing the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := c.app.Sync.Pull(cmd.Context())
			if err != nil {
				return err
			}
			c.printSession(session)
			return nil
		},
	}
}

func (c *Cli) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run auto-sync until interrupted",
		Long: `Запускает автосинхронизацию с интервалом из настроек режима.

База открывается только на время цикла, поэтому 'postboy mode',
'postboy record' и остальные команды из другого терминала работают
параллельно и применяются со следующего цикла.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// bbolt держит эксклюзивную блокировку файла
			if err := c.closeApp(); err != nil {
				return err
			}
			c.io.Println("Watching, press Ctrl+C to stop.")

			for {
				timer := time.NewTimer(c.watchRound(ctx))
				select {
				case <-ctx.Done():
					timer.Stop()
					c.io.Println("Stopped.")
					return nil
				case <-timer.C:
				}
			}
		},
	}
}

// watchRound opens the store, runs one auto-sync round and closes the
// store again. It returns the delay before the next round.
func (c *Cli) watchRound(ctx context.Context) time.Duration {
	app, err := c.open(ctx, c.cfg, c.logger)
	if err != nil {
		c.logger.Warn("Watch: failed to open database, retrying", "error", err)
		return c.cfg.IdleCheckInterval
	}
	defer func() {
		if err := app.Close(); err != nil {
			c.logger.Error("Watch: failed to close database", "error", err)
		}
	}()

	session, wait := app.Sync.AutoSyncRound(ctx)
	if session != nil && ctx.Err() == nil {
		c.printSession(session)
	}
	return wait
}
