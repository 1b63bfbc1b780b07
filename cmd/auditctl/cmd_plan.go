package main

import (
	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/views"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage annual audit plans",
	}

	res := func() *views.Resource[client.Plan] { return views.Plans(apiClient) }
	id := func(p *client.Plan) string { return p.ID }

	cmd.AddCommand(
		listCmd("plans", res),
		getCmd("plan", res),
		deleteCmd("plan", res),
		formCmd("create", "Create a plan", cobra.NoArgs,
			func([]string) *views.FormView[client.Plan, client.PlanInput] { return views.PlanForm(apiClient, "") },
			planPayload(), id),
		formCmd("update <id>", "Replace a plan", cobra.ExactArgs(1),
			func(args []string) *views.FormView[client.Plan, client.PlanInput] { return views.PlanForm(apiClient, args[0]) },
			planPayload(), id),
	)

	return cmd
}

func planPayload() payload[client.PlanInput] {
	return payload[client.PlanInput]{
		flags: func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.String("title", "", "Plan title")
			f.Int("year", 0, "Plan year")
			f.String("description", "", "Description")
			f.String("status", "", "Status: draft|review|approved|in_progress|completed")
			f.String("audit-type", "", "Audit type: risk-based|compliance|operational|internal")
			f.String("frequency", "", "Frequency: quarterly|bi-annually|annually|adhoc")
			f.String("owner", "", "Plan owner")
			f.String("start", "", "Start date (YYYY-MM-DD)")
			f.String("end", "", "End date (YYYY-MM-DD)")
			f.StringSlice("entity", nil, "Covered entity ID (repeatable)")
			f.StringSlice("personnel", nil, "Assigned personnel (repeatable)")
		},
		apply: func(cmd *cobra.Command, in *client.PlanInput) error {
			setString(cmd, "title", &in.Title)

			if cmd.Flags().Changed("year") {
				year, _ := cmd.Flags().GetInt("year")
				in.Year = &year
			}

			optString(cmd, "description", &in.Description)
			optString(cmd, "status", &in.Status)
			optString(cmd, "audit-type", &in.AuditType)
			optString(cmd, "frequency", &in.Frequency)
			optString(cmd, "owner", &in.Owner)
			optString(cmd, "start", &in.StartDate)
			optString(cmd, "end", &in.EndDate)
			setStrings(cmd, "entity", &in.Entities)
			setStrings(cmd, "personnel", &in.Personnel)

			return nil
		},
	}
}
