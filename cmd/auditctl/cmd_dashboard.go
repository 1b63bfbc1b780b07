package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show headline counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := apiClient.Dashboard(cmd.Context())
			if err != nil {
				return apiErr("dashboard", err)
			}

			if flagFmt == "table" {
				formatTable(cmd.OutOrStdout(),
					[]string{"AUDITS", "OPEN FINDINGS", "ENTITIES", "HIGH RISK"},
					[][]string{{
						strconv.Itoa(d.Audits),
						strconv.Itoa(d.OpenFindings),
						strconv.Itoa(d.Entities),
						strconv.Itoa(d.HighRisk),
					}})

				return nil
			}

			return output(cmd.OutOrStdout(), d, strconv.Itoa(d.OpenFindings))
		},
	}
}

func newActivityCmd() *cobra.Command {
	var (
		opts  client.ActivityOptions
		since string
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the write-activity log (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("invalid --since %q: want RFC 3339", since)
				}

				opts.Since = &t
			}

			entries, hasMore, err := apiClient.Activity(cmd.Context(), &opts)
			if err != nil {
				return apiErr("activity", err)
			}

			if entries == nil {
				entries = []client.ActivityEntry{}
			}

			rows := make([][]string, len(entries))
			ids := make([]string, len(entries))

			for i, e := range entries {
				ids[i] = strconv.FormatInt(e.ID, 10)
				rows[i] = []string{
					e.CreatedAt.Format(time.RFC3339), e.Actor, e.Action, e.ResourceType, e.ResourceID,
				}
			}

			if err := outputRows(cmd.OutOrStdout(), entries,
				[]string{"TIME", "ACTOR", "ACTION", "TYPE", "RESOURCE"}, rows, ids); err != nil {
				return err
			}

			if hasMore && flagFmt == "table" {
				fmt.Fprintf(cmd.ErrOrStderr(), "more entries available; use --offset %d\n", opts.Offset+len(entries))
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ResourceType, "type", "", "Resource type")
	f.StringVar(&opts.ResourceID, "resource", "", "Resource ID")
	f.StringVar(&opts.Action, "action", "", "Action, e.g. audit.create")
	f.StringVar(&opts.Actor, "actor", "", "Acting user ID")
	f.StringVar(&since, "since", "", "Only entries after this time (RFC 3339)")
	f.IntVar(&opts.Limit, "limit", 50, "Max entries")
	f.IntVar(&opts.Offset, "offset", 0, "Entries to skip")

	return cmd
}
