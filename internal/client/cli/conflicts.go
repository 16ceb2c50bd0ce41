package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/iudanet/postboy/internal/models"
)

func (c *Cli) newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts [conflict-id]",
		Short: "List conflicts waiting for a decision, or show one in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conflicts, err := c.app.Sync.PendingConflicts(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				for i := range conflicts {
					if conflicts[i].ConflictID == args[0] {
						return conflictTmpl.Execute(c.io, &conflicts[i])
					}
				}
				return usageErrorf("no pending conflict %s", args[0])
			}

			if len(conflicts) == 0 {
				c.io.Printf("%s No pending conflicts.\n", green("✓"))
				return nil
			}

			c.io.Printf("%d conflict(s) need a decision:\n\n", len(conflicts))
			if err := c.printConflicts(conflicts); err != nil {
				return err
			}
			c.io.Println("\nRun 'postboy conflicts <id>' for both values.")
			return nil
		},
	}
}

func (c *Cli) newResolveCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "resolve <conflict-id> <local|remote|merged>",
		Short: "Settle a pending conflict and sync",
		Example: `  postboy resolve 6c1e... local
  postboy resolve 6c1e... merged --value '{"name":"Get users v2"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			choice, err := models.ParseConflictChoice(args[1])
			if err != nil {
				return usageErrorf("%v", err)
			}

			if choice != models.ChoiceMerged && value != "" {
				return usageErrorf("--value is only used with merged")
			}

			var resolution models.ConflictResolution
			switch choice {
			case models.ChoiceLocal:
				resolution = models.KeepLocal(args[0])
			case models.ChoiceRemote:
				resolution = models.KeepRemote(args[0])
			case models.ChoiceMerged:
				if value == "" || !json.Valid([]byte(value)) {
					return usageErrorf("merged needs --value with valid JSON")
				}
				resolution = models.Merged(args[0], json.RawMessage(value))
			}

			session, err := c.app.Sync.ResolveConflicts(cmd.Context(), []models.ConflictResolution{resolution})
			if err != nil {
				return err
			}

			c.io.Printf("%s conflict %s with %s\n", green("Resolved"), args[0], choice)
			c.printSession(session)
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "JSON value for a merged resolution")
	return cmd
}
