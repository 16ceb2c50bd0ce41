package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/validation"
)

func (c *Cli) newPendingCmd() *cobra.Command {
	var itemType string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List changes waiting to be synchronized",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			q := c.app.Tracker.Queue()

			var list []models.Change
			if itemType != "" {
				t, err := models.ParseItemType(itemType)
				if err != nil {
					return usageErrorf("%v", err)
				}
				list = q.FilterByItemType(t)
			} else {
				list = q.Snapshot()
			}

			if len(list) == 0 {
				c.io.Println("No pending changes.")
				return nil
			}

			c.io.Printf("%d pending change(s):\n\n", len(list))
			return c.printChanges(list)
		},
	}
	cmd.Flags().StringVarP(&itemType, "type", "t", "", "only changes of this item type (collection, folder, request, environment)")
	return cmd
}

func (c *Cli) newRecordCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "record <type> <id> <create|update|delete>",
		Short: "Record an entity change into the queue",
		Long: `Записывает изменение сущности в очередь синхронизации.

Версия назначается автоматически: следующая после последней известной
для этой сущности. Для create и update нужен --data с JSON содержимым.`,
		Example: `  postboy record request users-get create --data '{"name":"Get users","method":"GET"}'
  postboy record environment staging delete`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemType, err := models.ParseItemType(args[0])
			if err != nil {
				return usageErrorf("%v", err)
			}
			if err := validation.ValidateItemID(args[1]); err != nil {
				return usageErrorf("%v", err)
			}
			op, err := models.ParseOperation(args[2])
			if err != nil {
				return usageErrorf("%v", err)
			}

			var payload json.RawMessage
			switch {
			case op == models.OperationDelete && data != "":
				return usageErrorf("--data is not allowed for delete")
			case op != models.OperationDelete && data == "":
				return usageErrorf("--data is required for %s", op)
			case data != "":
				if !json.Valid([]byte(data)) {
					return usageErrorf("--data must be valid JSON")
				}
				payload = json.RawMessage(data)
			}

			change, err := c.app.Tracker.Record(cmd.Context(), itemType, args[1], op, payload)
			if err != nil {
				return err
			}

			c.io.Printf("%s %s %s v%d\n", green("Recorded"), change.Operation, change.Key().String(), change.Version)
			c.io.Println(faint(fmt.Sprintf("change %s, %d pending", change.ChangeID, c.app.Tracker.Queue().Len())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON payload of the entity")
	return cmd
}
