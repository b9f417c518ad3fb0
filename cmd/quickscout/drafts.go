package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/quickscout/quickscout-go/internal/drafts"
)

func newDraftsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and resubmit unsubmitted match logs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored drafts, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()

				list, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if ok, err := a.output(cmd.OutOrStdout(), list); ok || err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no drafts")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), draftTable(list))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a draft's events",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()

				d, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok, err := a.output(cmd.OutOrStdout(), d); ok || err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "draft %s: match %d, %s, %d events\n", d.ID, d.Match, d.Phase.Label(), len(d.Events))
				if d.LastError != "" {
					fmt.Fprintf(w, "last error: %s\n", d.LastError)
				}
				for _, e := range d.Events {
					fmt.Fprintf(w, "  %s  %-8s %s\n", e.Time.Format("15:04:05.000"), e.Phase, e.Action)
				}
				if d.Comments != "" {
					fmt.Fprintf(w, "comments: %s\n", d.Comments)
				}
				if d.DriveComments != "" {
					fmt.Fprintf(w, "drive comments: %s\n", d.DriveComments)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "resubmit <id>",
			Short: "Submit a stored draft to the backend",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := a.submitClient()
				if err != nil {
					return err
				}
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()

				rec := drafts.NewRecorder(a.logger.Named("drafts"), store)
				if err := rec.Resubmit(cmd.Context(), args[0], client); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "submitted draft %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Discard a stored draft",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted draft %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func draftTable(list []*drafts.Draft) string {
	rows := make([][]string, 0, len(list))
	for _, d := range list {
		side := "right"
		if d.OnLeft {
			side = "left"
		}
		rows = append(rows, []string{
			d.ID,
			strconv.Itoa(d.Match),
			side,
			d.Phase.Label(),
			strconv.Itoa(len(d.Events)),
			d.UpdatedAt.Local().Format(time.DateTime),
			d.LastError,
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "MATCH", "SIDE", "PHASE", "EVENTS", "UPDATED", "LAST ERROR").
		Rows(rows...).
		String()
}
