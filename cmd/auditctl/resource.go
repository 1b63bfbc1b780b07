package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client/views"
)

// printList loads a list view and prints it in the selected format.
func printList[T any](cmd *cobra.Command, noun string, res *views.Resource[T]) error {
	v := views.NewListView(res)
	if err := v.Load(cmd.Context()); err != nil {
		return fmt.Errorf("list %s: %s", noun, v.Error())
	}

	rows := v.Rows()
	if rows == nil {
		rows = []T{}
	}

	header, cells := v.Table()

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = res.ID(&rows[i])
	}

	return outputRows(cmd.OutOrStdout(), rows, header, cells, ids)
}

func listCmd[T any](noun string, res func() *views.Resource[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List " + noun,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printList(cmd, noun, res())
		},
	}
}

func getCmd[T any](noun string, res func() *views.Resource[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewDetailView(res(), args[0])
			if err := v.Load(cmd.Context()); err != nil {
				return fmt.Errorf("get %s: %s", noun, v.Error())
			}

			return output(cmd.OutOrStdout(), v.Row(), args[0])
		},
	}
}

func deleteCmd[T any](noun string, res func() *views.Resource[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewDetailView(res(), args[0])
			if _, err := v.Delete(cmd.Context()); err != nil {
				return fmt.Errorf("delete %s: %s", noun, v.Error())
			}

			if flagFmt != "quiet" {
				fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			}

			return nil
		},
	}
}

// payload binds the flags of a create or update command to its request body.
type payload[In any] struct {
	// flags registers the field flags on cmd.
	flags func(cmd *cobra.Command)
	// apply copies every changed flag onto in.
	apply func(cmd *cobra.Command, in *In) error
}

// formCmd builds a create or update command. The body starts from --data
// JSON and is then overridden by individual flags.
func formCmd[T, In any](
	use, short string,
	args cobra.PositionalArgs,
	form func(args []string) *views.FormView[T, In],
	p payload[In],
	id func(*T) string,
) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := new(In)

			if data != "" {
				dec := json.NewDecoder(strings.NewReader(data))
				dec.DisallowUnknownFields()

				if err := dec.Decode(in); err != nil {
					return fmt.Errorf("parse --data: %w", err)
				}
			}

			if err := p.apply(cmd, in); err != nil {
				return err
			}

			f := form(args)
			if f.Editing() {
				if err := f.Load(cmd.Context()); err != nil {
					return fmt.Errorf("%s: %s", cmd.CommandPath(), f.Error())
				}
			}

			saved, _, err := f.Submit(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("%s: %s", cmd.CommandPath(), f.Error())
			}

			return output(cmd.OutOrStdout(), saved, id(saved))
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Request body as JSON; field flags override it")
	p.flags(cmd)

	return cmd
}

// optString sets *dst from flag name when the flag was given. An empty value
// clears the field.
func optString(cmd *cobra.Command, name string, dst **string) {
	if !cmd.Flags().Changed(name) {
		return
	}

	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		*dst = nil
		return
	}

	*dst = &v
}

func setString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func setStrings(cmd *cobra.Command, name string, dst *[]string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetStringSlice(name)
	}
}
