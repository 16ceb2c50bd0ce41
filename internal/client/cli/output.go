package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/iudanet/postboy/internal/client/iocli"
	"github.com/iudanet/postboy/internal/client/sync"
	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/syncerr"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// hints подсказки по виду ошибки
var hints = map[syncerr.Kind]string{
	syncerr.KindNotConfigured:        "Run 'postboy mode online --server URL' to configure a server.",
	syncerr.KindAuthenticationFailed: "Check the API key with 'postboy mode <mode> --api-key KEY'.",
	syncerr.KindConnectionFailed:     "The server is unreachable. Changes stay queued; try again later.",
	syncerr.KindNetwork:              "The request timed out. Changes stay queued; try again later.",
	syncerr.KindConflict:             "Run 'postboy conflicts' to see what needs a decision.",
	syncerr.KindQueueFull:            "Run 'postboy sync' to drain the queue before recording more changes.",
}

func printError(out iocli.IO, err error) {
	out.Printf("%s %v\n", red("Error:"), err)

	if errors.Is(err, sync.ErrSyncInProgress) {
		out.Println("Another sync is running; try again when it finishes.")
		return
	}
	if kind, ok := syncerr.KindOf(err); ok {
		if hint, ok := hints[kind]; ok {
			out.Println(hint)
		}
	}
}

func outcomeLabel(outcome models.SessionOutcome) string {
	switch outcome {
	case models.OutcomeSuccess:
		return green(string(outcome))
	case models.OutcomeOffline:
		return faint(string(outcome))
	case models.OutcomeConflict:
		return yellow(string(outcome))
	default:
		return red(string(outcome))
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}

// printSession выводит итог одной сессии
func (c *Cli) printSession(session *models.SyncSession) {
	c.io.Printf("Sync %s: pushed %d, pulled %d", outcomeLabel(session.Outcome), len(session.ChangesPushed), len(session.ChangesPulled))
	if len(session.Resolutions) > 0 {
		c.io.Printf(", resolved %d", len(session.Resolutions))
	}
	c.io.Println()

	switch session.Outcome {
	case models.OutcomeOffline:
		c.io.Println("Offline mode: changes stay queued until an online sync.")
	case models.OutcomeConflict:
		c.io.Printf("%s %d conflict(s) need a decision.\n", yellow("!"), len(session.Conflicts))
		c.io.Println("Run 'postboy conflicts' to review and 'postboy resolve' to settle them.")
	}
}

func (c *Cli) printChanges(list []models.Change) error {
	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tID\tOPERATION\tVERSION\tRECORDED")
	for i := range list {
		ch := &list[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", ch.ItemType, ch.ItemID, ch.Operation, ch.Version, ch.Timestamp.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func (c *Cli) printConflicts(list []models.ConflictInfo) error {
	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONFLICT\tITEM\tNAME\tLOCAL\tREMOTE")
	for i := range list {
		cf := &list[i]
		fmt.Fprintf(w, "%s\t%s\t%s\tv%d %s\tv%d %s\n",
			cf.ConflictID, cf.Key().String(), cf.ItemName,
			cf.LocalVersion, cf.LocalTimestamp.Local().Format(time.DateTime),
			cf.RemoteVersion, cf.RemoteTimestamp.Local().Format(time.DateTime))
	}
	return w.Flush()
}
