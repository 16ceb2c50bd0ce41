// Package cli implements the postboy command line client
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/postboy/internal/client/config"
	"github.com/iudanet/postboy/internal/client/iocli"
	"github.com/iudanet/postboy/internal/logger"
)

// BuildInfo версия сборки, задается через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (built %s, commit %s)", b.Version, b.BuildDate, b.GitCommit)
}

// Cli общее состояние команд
type Cli struct {
	io      iocli.IO
	logOut  io.Writer
	open    Opener
	root    *cobra.Command
	app     *App
	cfg     *config.Config
	logger  *slog.Logger
	cfgFile string
	dbPath  string
}

// New builds the postboy command tree. open is called once before any
// command runs; logs go to logOut.
func New(stdio iocli.IO, open Opener, logOut io.Writer, build BuildInfo) *Cli {
	c := &Cli{io: stdio, open: open, logOut: logOut}

	root := &cobra.Command{
		Use:   "postboy",
		Short: "Postboy - offline-first sync of API collections",
		Long: `Postboy хранит коллекции, запросы и окружения локально и
синхронизирует изменения с сервером, когда он доступен.

Без сервера все работает в режиме offline; изменения копятся в очереди
и отправляются при первой синхронизации в online режиме.`,
		Version:           build.String(),
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetOut(stdio)
	root.SetErr(stdio)

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ~/.postboy/config.yaml)")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "path to local database")

	root.AddCommand(
		c.newStatusCmd(),
		c.newSyncCmd(),
		c.newPullCmd(),
		c.newWatchCmd(),
		c.newPendingCmd(),
		c.newRecordCmd(),
		c.newModeCmd(),
		c.newConflictsCmd(),
		c.newResolveCmd(),
		c.newHistoryCmd(),
	)

	c.root = root
	return c
}

// Execute runs the command for args and returns the process exit code.
// The local store is closed whether the command succeeds or not.
func (c *Cli) Execute(ctx context.Context, args []string) int {
	c.root.SetArgs(args)
	err := c.root.ExecuteContext(ctx)

	if closeErr := c.closeApp(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		printError(c.io, err)
		return 1
	}
	return 0
}

func (c *Cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	c.cfg = cfg
	c.logger = logger.New(cfg.Env, cfg.LogLevel, c.logOut)

	app, err := c.open(cmd.Context(), cfg, c.logger)
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *Cli) closeApp() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// errUsage помечает ошибки неверных аргументов
var errUsage = errors.New("invalid usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
