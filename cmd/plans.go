package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/store"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Inspect saved plan history",
	Long:  "Commands for listing and viewing previously generated plans.",
}

// -- plans list --

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		user, _ := cmd.Flags().GetString("user")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		plans, err := st.ListPlans(ctx, store.PlanFilter{
			UserID: user,
			Status: model.PlanStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "plans list")
		}

		if len(plans) == 0 {
			fmt.Fprintln(os.Stderr, "No plans found.")
			return nil
		}

		formatPlansList(os.Stdout, plans)
		return nil
	},
}

// -- plans show --

var plansShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show full details of a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		plan, err := st.GetPlan(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "plans show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	},
}

func init() {
	plansListCmd.Flags().String("user", "", "filter by user ID")
	plansListCmd.Flags().String("status", "", "filter by plan status (done, failed, needs-clarification)")
	plansListCmd.Flags().Int("limit", 50, "max number of plans to display")

	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansShowCmd)
	rootCmd.AddCommand(plansCmd)
}

// formatPlansList writes a tabular list of plans to w.
func formatPlansList(out io.Writer, plans []model.Plan) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tQUERY\tLOCATION\tSTATUS\tADVENTURES\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t------\t----------\t-------")

	for _, p := range plans {
		query := p.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			truncateID(p.ID),
			query,
			p.Location,
			p.Status,
			p.Result.Metadata.TotalAdventures,
			p.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
