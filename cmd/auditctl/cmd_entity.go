package main

import (
	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/views"
)

func newEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage auditable entities",
	}

	res := func() *views.Resource[client.Entity] { return views.Entities(apiClient) }
	id := func(e *client.Entity) string { return e.ID }

	cmd.AddCommand(
		listCmd("entities", res),
		getCmd("entity", res),
		deleteCmd("entity", res),
		formCmd("create", "Create an entity", cobra.NoArgs,
			func([]string) *views.FormView[client.Entity, client.EntityInput] { return views.EntityForm(apiClient, "") },
			entityPayload(), id),
		formCmd("update <id>", "Replace an entity", cobra.ExactArgs(1),
			func(args []string) *views.FormView[client.Entity, client.EntityInput] { return views.EntityForm(apiClient, args[0]) },
			entityPayload(), id),
	)

	return cmd
}

func entityPayload() payload[client.EntityInput] {
	return payload[client.EntityInput]{
		flags: func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.String("name", "", "Entity name")
			f.String("description", "", "Description")
			f.String("risk", "", "Risk level: low|medium|high")
			f.String("parent", "", "Parent entity ID")
		},
		apply: func(cmd *cobra.Command, in *client.EntityInput) error {
			setString(cmd, "name", &in.Name)
			optString(cmd, "description", &in.Description)
			optString(cmd, "risk", &in.RiskLevel)
			optString(cmd, "parent", &in.ParentID)

			return nil
		},
	}
}
