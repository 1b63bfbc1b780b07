package main

import (
	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/views"
)

func newFindingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finding",
		Short: "Manage audit findings",
	}

	res := func() *views.Resource[client.Finding] { return views.Findings(apiClient, "") }
	id := func(f *client.Finding) string { return f.ID }

	var auditID string

	list := &cobra.Command{
		Use:   "list",
		Short: "List findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printList(cmd, "findings", views.Findings(apiClient, auditID))
		},
	}
	list.Flags().StringVar(&auditID, "audit", "", "Only findings of this audit")

	cmd.AddCommand(
		list,
		getCmd("finding", res),
		deleteCmd("finding", res),
		formCmd("create <audit-id>", "Raise a finding in an audit", cobra.ExactArgs(1),
			func(args []string) *views.FormView[client.Finding, client.FindingInput] {
				return views.NewFindingForm(apiClient, args[0])
			},
			findingPayload(), id),
		formCmd("update <id>", "Replace a finding", cobra.ExactArgs(1),
			func(args []string) *views.FormView[client.Finding, client.FindingUpdate] {
				return views.EditFindingForm(apiClient, args[0])
			},
			findingUpdatePayload(), id),
	)

	return cmd
}

func findingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("title", "", "Finding title")
	f.String("description", "", "Description")
	f.String("risk", "", "Risk level: low|medium|high|critical")
	f.String("status", "", "Status: draft|open|in_progress|closed|accepted|follow_up")
}

func findingPayload() payload[client.FindingInput] {
	return payload[client.FindingInput]{
		flags: findingFlags,
		apply: func(cmd *cobra.Command, in *client.FindingInput) error {
			setString(cmd, "title", &in.Title)
			optString(cmd, "description", &in.Description)
			optString(cmd, "risk", &in.RiskLevel)
			optString(cmd, "status", &in.Status)

			return nil
		},
	}
}

func findingUpdatePayload() payload[client.FindingUpdate] {
	return payload[client.FindingUpdate]{
		flags: findingFlags,
		apply: func(cmd *cobra.Command, in *client.FindingUpdate) error {
			setString(cmd, "title", &in.Title)
			optString(cmd, "description", &in.Description)
			optString(cmd, "risk", &in.RiskLevel)
			optString(cmd, "status", &in.Status)

			return nil
		},
	}
}

func newRecommendationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recommendation",
		Aliases: []string{"rec"},
		Short:   "Manage recommendations raised against findings",
	}

	byID := func() *views.Resource[client.Recommendation] { return views.Recommendations(apiClient, "") }
	id := func(r *client.Recommendation) string { return r.ID }

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <finding-id>",
			Short: "List a finding's recommendations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return printList(cmd, "recommendations", views.Recommendations(apiClient, args[0]))
			},
		},
		getCmd("recommendation", byID),
		deleteCmd("recommendation", byID),
		formCmd("create <finding-id>", "Add a recommendation to a finding", cobra.ExactArgs(1),
			func(args []string) *views.FormView[client.Recommendation, client.RecommendationInput] {
				return views.RecommendationForm(apiClient, args[0], "")
			},
			recommendationPayload(), id),
		formCmd("update <id>", "Replace a recommendation", cobra.ExactArgs(1),
			func(args []string) *views.FormView[client.Recommendation, client.RecommendationInput] {
				return views.RecommendationForm(apiClient, "", args[0])
			},
			recommendationPayload(), id),
	)

	return cmd
}

func recommendationPayload() payload[client.RecommendationInput] {
	return payload[client.RecommendationInput]{
		flags: func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.String("description", "", "Recommended action")
			f.String("status", "", "Status: open|in_progress|implemented|closed")
			f.String("assignee", "", "Assigned user ID")
			f.String("due", "", "Due date (YYYY-MM-DD)")
		},
		apply: func(cmd *cobra.Command, in *client.RecommendationInput) error {
			setString(cmd, "description", &in.Description)
			optString(cmd, "status", &in.Status)
			optString(cmd, "assignee", &in.AssignedTo)
			optString(cmd, "due", &in.DueDate)

			return nil
		},
	}
}
