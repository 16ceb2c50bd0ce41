package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/validation"
)

type modeFlags struct {
	server   string
	apiKey   string
	strategy string
	interval uint64
}

func (c *Cli) newModeCmd() *cobra.Command {
	var f modeFlags

	cmd := &cobra.Command{
		Use:   "mode <offline|online|manual|hybrid>",
		Short: "Switch sync mode and server settings",
		Long: `Переключает режим синхронизации.

  offline  только локально, сервер и ключ забываются
  online   автосинхронизация с интервалом --interval
  manual   синхронизация только по 'postboy sync'
  hybrid   локальная работа с периодической синхронизацией

Если для online режима не задан --api-key и ключ еще не сохранен,
он запрашивается без эха в терминале.`,
		Example: `  postboy mode online --server https://sync.example.com --interval 120
  postboy mode manual --strategy manual
  postboy mode offline`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := models.ParseSyncMode(args[0])
			if err != nil {
				return usageErrorf("%v", err)
			}

			ctx := cmd.Context()
			cfg, err := c.app.Sync.Config(ctx)
			if err != nil {
				return err
			}

			if err := c.applyMode(cmd, &cfg, mode, f); err != nil {
				return err
			}

			saved, err := c.app.Sync.UpdateConfig(ctx, cfg)
			if err != nil {
				return err
			}

			c.io.Printf("%s mode %s\n", green("Switched to"), saved.Mode)
			if saved.IsOnline() {
				c.io.Printf("Server:    %s\n", saved.ServerURL)
				c.io.Printf("Strategy:  %s\n", saved.ConflictStrategy)
				if saved.AutoSyncEnabled() {
					c.io.Printf("Auto-sync: every %s\n", saved.Interval())
				} else {
					c.io.Println("Auto-sync: off")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.server, "server", "s", "", "sync server URL")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key issued by the server (prompted when missing)")
	cmd.Flags().Uint64Var(&f.interval, "interval", 0, "auto-sync interval in seconds, 0 disables")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "conflict strategy: local_wins, remote_wins, last_write_wins, manual")
	return cmd
}

// applyMode переносит аргументы команды в cfg; флаги, которые не заданы,
// оставляют сохраненные значения
func (c *Cli) applyMode(cmd *cobra.Command, cfg *models.SyncConfig, mode models.SyncMode, f modeFlags) error {
	flags := cmd.Flags()

	if flags.Changed("strategy") {
		strategy, err := models.ParseConflictStrategy(f.strategy)
		if err != nil {
			return usageErrorf("%v", err)
		}
		cfg.ConflictStrategy = strategy
	}

	if mode == models.ModeOffline {
		cfg.GoOffline()
		cfg.AutoSyncInterval = 0
		return nil
	}

	wasOnline := cfg.IsOnline()
	cfg.Mode = mode

	if flags.Changed("server") {
		cfg.ServerURL = strings.TrimRight(f.server, "/")
	}
	if err := validation.ValidateServerURL(cfg.ServerURL); err != nil {
		return usageErrorf("%v (use --server)", err)
	}

	switch {
	case flags.Changed("api-key"):
		cfg.APIKey = f.apiKey
	case cfg.APIKey == "":
		key, err := c.io.ReadPassword("API key: ")
		if err != nil {
			return fmt.Errorf("failed to read api key: %w", err)
		}
		cfg.APIKey = strings.TrimSpace(key)
	}
	if err := validation.ValidateAPIKey(cfg.APIKey); err != nil {
		return usageErrorf("%v", err)
	}

	switch {
	case flags.Changed("interval"):
		if err := validation.ValidateInterval(f.interval); err != nil {
			return usageErrorf("%v", err)
		}
		cfg.AutoSyncInterval = f.interval
	case mode == models.ModeOnlineManual:
		cfg.AutoSyncInterval = 0
	case !wasOnline || cfg.AutoSyncInterval == 0:
		cfg.AutoSyncInterval = models.DefaultAutoSyncInterval
	}

	return nil
}
