package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *Cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync mode, queue and last session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := c.app.Sync.Config(ctx)
			if err != nil {
				return err
			}

			conflicts, err := c.app.Sync.PendingConflicts(ctx)
			if err != nil {
				return err
			}

			q := c.app.Tracker.Queue()
			view := statusView{
				Mode:      string(cfg.Mode),
				Server:    cfg.ServerURL,
				Strategy:  string(cfg.ConflictStrategy),
				AutoSync:  "off",
				DeviceID:  cfg.DeviceID,
				LastSync:  formatTime(cfg.LastSync),
				Pending:   q.Len(),
				Capacity:  q.Capacity(),
				Conflicts: len(conflicts),
			}
			if cfg.AutoSyncEnabled() {
				view.AutoSync = "every " + cfg.Interval().String()
			}

			history, err := c.app.Tracker.History(ctx, 1)
			if err != nil {
				// История не обязательна для вывода статуса
				c.logger.Warn("Failed to load sync history", "error", err)
			}
			if len(history) > 0 {
				last := history[0]
				view.LastSession = &sessionView{
					Outcome:  string(last.Outcome),
					Started:  last.StartedAt.Local().Format(time.DateTime),
					Error:    last.Error,
					Pushed:   len(last.ChangesPushed),
					Pulled:   len(last.ChangesPulled),
					Resolved: len(last.Resolutions),
				}
			}

			if err := statusTmpl.Execute(c.io, view); err != nil {
				return fmt.Errorf("failed to render status: %w", err)
			}

			switch {
			case len(conflicts) > 0:
				c.io.Printf("\n%s Run 'postboy conflicts' to review pending conflicts.\n", yellow("!"))
			case view.Pending > 0 && cfg.IsOnline():
				c.io.Println("\nRun 'postboy sync' to send queued changes.")
			case view.Pending == 0:
				c.io.Printf("\n%s Nothing waiting to be synchronized.\n", green("✓"))
			}
			return nil
		},
	}
}

func (c *Cli) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished sync sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := c.app.Tracker.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				c.io.Println("No sync sessions yet.")
				return nil
			}

			for i := range sessions {
				s := &sessions[i]
				c.io.Printf("%s  %-8s  pushed %d, pulled %d, conflicts %d\n",
					s.StartedAt.Local().Format(time.DateTime), outcomeLabel(s.Outcome),
					len(s.ChangesPushed), len(s.ChangesPulled), len(s.Conflicts))
				if s.Error != "" {
					c.io.Printf("    %s\n", faint(s.Error))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of sessions to show")
	return cmd
}
