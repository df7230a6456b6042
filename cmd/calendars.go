package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/coopcal/internal/calendar"
)

func newCalendarsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List the calendars the stored credentials can read",
		Long: `List every calendar visible to the authorized Google account. Use the ID
column as --calendar-id (or calendar_id in the config file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.calendarClient(ctx)
			if err != nil {
				return err
			}
			calendars, err := client.ListCalendars(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(calendars)
			}
			return writeCalendarTable(cmd.OutOrStdout(), calendars, a.cfg.CalendarID)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the calendars as JSON")
	return cmd
}

// writeCalendarTable prints one row per calendar and marks the primary and
// configured calendars.
func writeCalendarTable(w io.Writer, calendars []calendar.CalendarInfo, configured string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUMMARY\tTIMEZONE\tACCESS\t")
	for _, cal := range calendars {
		marks := ""
		if cal.Primary {
			marks += " (primary)"
		}
		if cal.ID == configured {
			marks += " *"
		}
		fmt.Fprintf(tw, "%s\t%s%s\t%s\t%s\t\n", cal.ID, cal.Summary, marks, cal.TimeZone, cal.AccessRole)
	}
	return tw.Flush()
}
