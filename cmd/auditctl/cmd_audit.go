package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/views"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Manage audits and their teams",
	}

	res := func() *views.Resource[client.Audit] { return views.Audits(apiClient) }
	id := func(a *client.Audit) string { return a.ID }

	cmd.AddCommand(
		listCmd("audits", res),
		getCmd("audit", res),
		deleteCmd("audit", res),
		formCmd("create", "Create an audit", cobra.NoArgs,
			func([]string) *views.FormView[client.Audit, client.AuditInput] { return views.AuditForm(apiClient, "") },
			auditPayload(true), id),
		formCmd("update <id>", "Replace an audit", cobra.ExactArgs(1),
			func(args []string) *views.FormView[client.Audit, client.AuditInput] { return views.AuditForm(apiClient, args[0]) },
			auditPayload(false), id),
		newTeamCmd(),
	)

	return cmd
}

func auditPayload(create bool) payload[client.AuditInput] {
	return payload[client.AuditInput]{
		flags: func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.String("title", "", "Audit title")
			f.String("entity", "", "Audited entity ID")
			f.String("plan", "", "Plan ID")
			f.String("description", "", "Description")
			f.String("status", "", "Status: planned|draft|in_progress|review|completed|follow_up|cancelled")
			f.String("start", "", "Start date (YYYY-MM-DD)")
			f.String("end", "", "End date (YYYY-MM-DD)")

			if create {
				f.StringSlice("member", nil, "Team member as <user-id>:<role> (repeatable)")
			}
		},
		apply: func(cmd *cobra.Command, in *client.AuditInput) error {
			setString(cmd, "title", &in.Title)
			optString(cmd, "entity", &in.EntityID)
			optString(cmd, "plan", &in.PlanID)
			optString(cmd, "description", &in.Description)
			optString(cmd, "status", &in.Status)
			optString(cmd, "start", &in.StartDate)
			optString(cmd, "end", &in.EndDate)

			if !create || !cmd.Flags().Changed("member") {
				return nil
			}

			specs, _ := cmd.Flags().GetStringSlice("member")

			members, err := parseMembers(specs)
			if err != nil {
				return err
			}

			in.TeamMembers = members

			return nil
		},
	}
}

// parseMembers parses <user-id>:<role> pairs.
func parseMembers(specs []string) ([]client.TeamMemberInput, error) {
	members := make([]client.TeamMemberInput, 0, len(specs))

	for _, s := range specs {
		userID, role, ok := strings.Cut(s, ":")
		if !ok || userID == "" || role == "" {
			return nil, fmt.Errorf("invalid member %q: want <user-id>:<role>", s)
		}

		members = append(members, client.TeamMemberInput{UserID: userID, Role: role})
	}

	return members, nil
}

func teamTable(team []client.TeamMember) (headers []string, rows [][]string, ids []string) {
	headers = []string{"USER", "EMAIL", "ROLE"}

	for _, tm := range team {
		email := ""
		if tm.User != nil {
			email = tm.User.Email
		}

		rows = append(rows, []string{tm.UserID, email, tm.Role})
		ids = append(ids, tm.UserID)
	}

	return headers, rows, ids
}

func printTeam(cmd *cobra.Command, team []client.TeamMember) error {
	if team == nil {
		team = []client.TeamMember{}
	}

	headers, rows, ids := teamTable(team)

	return outputRows(cmd.OutOrStdout(), team, headers, rows, ids)
}

func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage an audit's team",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <audit-id>",
			Short: "List team members",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				team, err := apiClient.Audits.Team(cmd.Context(), args[0])
				if err != nil {
					return apiErr("list team", err)
				}

				return printTeam(cmd, team)
			},
		},
		&cobra.Command{
			Use:   "assign <audit-id> <user-id> <role>",
			Short: "Add a user to the team",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				tm, err := apiClient.Audits.AssignTeamMember(cmd.Context(), args[0],
					&client.TeamMemberInput{UserID: args[1], Role: args[2]})
				if err != nil {
					return apiErr("assign team member", err)
				}

				return output(cmd.OutOrStdout(), tm, tm.ID)
			},
		},
		&cobra.Command{
			Use:   "replace <audit-id> [<user-id>:<role>...]",
			Short: "Replace the whole team; no members clears it",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				members, err := parseMembers(args[1:])
				if err != nil {
					return err
				}

				team, err := apiClient.Audits.ReplaceTeam(cmd.Context(), args[0], members)
				if err != nil {
					return apiErr("replace team", err)
				}

				return printTeam(cmd, team)
			},
		},
		&cobra.Command{
			Use:   "remove <audit-id> <user-id>",
			Short: "Remove a user from the team",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := apiClient.Audits.RemoveTeamMember(cmd.Context(), args[0], args[1]); err != nil {
					return apiErr("remove team member", err)
				}

				if flagFmt != "quiet" {
					fmt.Fprintln(cmd.OutOrStdout(), "removed")
				}

				return nil
			},
		},
	)

	return cmd
}
