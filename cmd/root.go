package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/coopcal/internal/calendar"
	"github.com/teemow/coopcal/internal/dates"
	"github.com/teemow/coopcal/internal/logging"
)

// Output formats for the month listing.
const (
	outputLog  = "log"
	outputJSON = "json"
	outputICS  = "ics"
)

// rootOptions holds the flags shared by every command. Empty values leave
// the configuration file and environment in charge.
type rootOptions struct {
	configPath      string
	calendarID      string
	timezone        string
	credentialsFile string
	tokenFile       string
	logLevel        string
	logFormat       string
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var output string

	cmd := &cobra.Command{
		Use:   "coopcal YEAR MONTH",
		Short: "List the events of one month of the co-op Google Calendar",
		Long: `coopcal fetches the events of a single month from a Google Calendar and
prints them. MONTH may be a number (1-12) or a month name ("nov").

On first use a browser window opens to authorize read-only calendar access.
The resulting token is stored and refreshed automatically.

It can also run as an MCP (Model Context Protocol) server for AI assistants,
see "coopcal serve".`,
		Example: `  coopcal 2022 11
  coopcal --output ics 2023 march > march.ics`,
		Args:         exactArgs(2),
		SilenceUsage: true,
		Version:      version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonth(cmd, opts, output, args)
		},
	}
	cmd.SetVersionTemplate(`{{printf "coopcal version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the YAML config file (default: $XDG_CONFIG_HOME/coopcal/config.yaml)")
	flags.StringVar(&opts.calendarID, "calendar-id", "", "Google Calendar ID to read. Can also use COOPCAL_CALENDAR_ID env var.")
	flags.StringVar(&opts.timezone, "timezone", "", "IANA timezone for month boundaries. Can also use COOPCAL_TIMEZONE env var.")
	flags.StringVar(&opts.credentialsFile, "credentials", "", "OAuth client secrets JSON. Can also use COOPCAL_CREDENTIALS_FILE env var.")
	flags.StringVar(&opts.tokenFile, "token-file", "", "Where the OAuth token is stored. Can also use COOPCAL_TOKEN_FILE env var.")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", outputLog, "Output format: log, json or ics")

	cmd.AddCommand(newCalendarsCmd(opts))
	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// exactArgs is cobra.ExactArgs with a message naming the expected arguments.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("expected %d arguments (YEAR MONTH), got %d", n, len(args))
		}
		return nil
	}
}

func parseYear(text string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q: must be a number between 1 and 9999", text)
	}
	return year, nil
}

func validateOutput(output string) error {
	switch output {
	case outputLog, outputJSON, outputICS:
		return nil
	default:
		return fmt.Errorf("invalid output %q, must be one of: log, json, ics", output)
	}
}

func runMonth(cmd *cobra.Command, opts *rootOptions, output string, args []string) error {
	year, err := parseYear(args[0])
	if err != nil {
		return err
	}
	month, err := dates.ParseMonth(args[1])
	if err != nil {
		return err
	}
	if err := validateOutput(output); err != nil {
		return err
	}

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

	events, err := client.FetchEvents(ctx, a.source(), year, month)
	if err != nil {
		a.logger.Error("failed to fetch events",
			logging.Calendar(a.cfg.CalendarID),
			logging.Month(year, month),
			logging.Err(err))
		return err
	}

	return writeEvents(cmd.OutOrStdout(), a.logger, events, output)
}

// writeEvents renders events in the requested output format. The log
// format emits one structured record per event.
func writeEvents(w io.Writer, logger *slog.Logger, events []calendar.Event, output string) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if events == nil {
			events = []calendar.Event{}
		}
		return enc.Encode(events)
	case outputICS:
		return calendar.WriteICS(w, events, "-//coopcal//"+version+"//EN")
	default:
		logger.Info("fetched events", slog.Int("count", len(events)))
		for _, ev := range events {
			logger.Info("event",
				slog.String("title", ev.Title),
				slog.String("start", ev.Start.String()),
				slog.String("end", ev.End.String()),
				slog.Bool("isAllDay", ev.IsAllDay))
		}
		return nil
	}
}
