package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/audit/export"
	"mercator-hq/wardgate/pkg/audit/query"
	"mercator-hq/wardgate/pkg/audit/report"
	"mercator-hq/wardgate/pkg/cli"
	"mercator-hq/wardgate/pkg/identity"
)

var auditFlags struct {
	user         string
	timeRange    string
	actor        string
	actions      []string
	actionPrefix string
	resource     string
	queryLimit   int
	exportLimit  int
	offset       int
	order        string
	queryFormat  string
	exportFormat string
	reportFormat string
	output       string
	noHeader     bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the audit trail",
	Long: `Query, export and summarize the audit trail.

Every subcommand authenticates --user, who must hold the etl_service
role. The password is prompted for on a terminal and read from the first
line of stdin otherwise.

Subcommands:
  query   - List audit entries matching filters
  export  - Write matching entries as JSON or CSV
  report  - Security dashboard: activity by role, alerts, clinical reads`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit entries",
	Long: `List audit entries matching filters, newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"

Examples:
  # Recent access denials
  wardgate audit query --user etl_service --action ACCESS_DENIED

  # Everything one user did in a day
  wardgate audit query --user etl_service --actor Dr_House \
    --time-range "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"

  # All clinical reads as JSON
  wardgate audit query --user etl_service --action-prefix READ_ --format json`,
	RunE: runAuditQuery,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit entries",
	Long: `Export audit entries matching filters as JSON or CSV, oldest first.

Examples:
  # Export everything to CSV
  wardgate audit export --user etl_service --format csv --output audit.csv

  # Export one day as JSON
  wardgate audit export --user etl_service --format json \
    --time-range "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"`,
	RunE: runAuditExport,
}

var auditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the security audit dashboard",
	Long: `Generate the security audit dashboard: action counts by role, the five
most recent access denials and failed logins, and the five most recent
clinical reads. Generating the report is itself audited.`,
	RunE: runAuditReport,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditExportCmd, auditReportCmd)

	auditCmd.PersistentFlags().StringVarP(&auditFlags.user, "user", "u", "", "etl_service account to authenticate as")
	auditCmd.PersistentFlags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")

	for _, c := range []*cobra.Command{auditQueryCmd, auditExportCmd} {
		c.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		c.Flags().StringVar(&auditFlags.actor, "actor", "", "filter by acting username")
		c.Flags().StringSliceVar(&auditFlags.actions, "action", nil, "filter by action (repeatable)")
		c.Flags().StringVar(&auditFlags.actionPrefix, "action-prefix", "", "filter by action prefix, e.g. READ_")
		c.Flags().StringVar(&auditFlags.resource, "resource", "", "filter by resource (table name)")
		c.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	}
	auditQueryCmd.Flags().IntVar(&auditFlags.queryLimit, "limit", query.DefaultLimit, "max results")
	auditQueryCmd.Flags().StringVar(&auditFlags.order, "order", "desc", "sort order by time: asc, desc")
	auditQueryCmd.Flags().StringVar(&auditFlags.queryFormat, "format", "text", "output format: text, json, csv")

	auditExportCmd.Flags().IntVar(&auditFlags.exportLimit, "limit", query.MaxLimit, "max entries")
	auditExportCmd.Flags().StringVar(&auditFlags.exportFormat, "format", "json", "output format: json, csv")
	auditExportCmd.Flags().BoolVar(&auditFlags.noHeader, "no-header", false, "omit the CSV header row")

	auditReportCmd.Flags().StringVar(&auditFlags.reportFormat, "format", "text", "output format: text, json")
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.queryFormat, cli.FormatText, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	q, err := buildAuditQuery(auditFlags.queryLimit, auditFlags.order)
	if err != nil {
		return err
	}

	return withAuditActor(cmd, "audit query", func(ctx context.Context, a *app, _ *identity.Identity) error {
		entries, err := a.audit.Query(ctx, q)
		if err != nil {
			return err
		}
		total, err := a.audit.Count(ctx, q)
		if err != nil {
			return err
		}

		return writeOutput(cmd, auditFlags.output, func(w io.Writer) error {
			switch format {
			case cli.FormatCSV:
				return export.NewCSVExporter(true).Export(ctx, entries, w)
			case cli.FormatJSON:
				return export.NewJSONExporter(true).Export(ctx, entries, w)
			default:
				return cli.NewFormatter(cli.FormatText).FormatTo(w, entryTable{entries: entries, total: total, query: q})
			}
		})
	})
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.exportFormat, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	q, err := buildAuditQuery(auditFlags.exportLimit, "asc")
	if err != nil {
		return err
	}

	var exporter audit.Exporter = export.NewJSONExporter(true)
	if format == cli.FormatCSV {
		exporter = export.NewCSVExporter(!auditFlags.noHeader)
	}

	return withAuditActor(cmd, "audit export", func(ctx context.Context, a *app, _ *identity.Identity) error {
		entries, err := a.audit.Query(ctx, q)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, auditFlags.output, func(w io.Writer) error {
			return exporter.Export(ctx, entries, w)
		}); err != nil {
			return err
		}
		if auditFlags.output != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d entries to %s\n", len(entries), auditFlags.output)
		}
		return nil
	})
}

func runAuditReport(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.reportFormat)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	return withAuditActor(cmd, "audit report", func(ctx context.Context, a *app, actor *identity.Identity) error {
		r, err := report.NewBuilder(a.audit, a.recorder).Build(ctx, actor)
		if err != nil {
			return err
		}
		return writeOutput(cmd, auditFlags.output, func(w io.Writer) error {
			if format == cli.FormatJSON {
				return cli.NewFormatter(cli.FormatJSON).FormatTo(w, r)
			}
			return cli.NewFormatter(cli.FormatText).FormatTo(w, reportText{r})
		})
	})
}

// withAuditActor opens the app, authenticates --user as etl_service and
// runs fn. Authorization failures exit with cli.ExitDenied.
func withAuditActor(cmd *cobra.Command, name string, fn func(ctx context.Context, a *app, actor *identity.Identity) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.login(ctx, auditFlags.user)
	if err != nil {
		return cli.NewCommandError(name, err)
	}
	if actor.Role != identity.RoleETLService {
		return cli.NewCommandError(name, denied(report.ErrUnauthorized))
	}

	if err := fn(ctx, a, actor); err != nil {
		if errors.Is(err, report.ErrUnauthorized) {
			err = denied(err)
		}
		return cli.NewCommandError(name, err)
	}
	return nil
}

func buildAuditQuery(limit int, order string) (*audit.Query, error) {
	q := &audit.Query{
		ActorName:    auditFlags.actor,
		ActionPrefix: strings.ToUpper(auditFlags.actionPrefix),
		Resource:     auditFlags.resource,
		Limit:        limit,
		Offset:       auditFlags.offset,
		SortOrder:    strings.ToLower(order),
	}
	for _, a := range auditFlags.actions {
		q.Actions = append(q.Actions, audit.Action(strings.ToUpper(strings.TrimSpace(a))))
	}

	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, cli.NewConfigError("time-range", err.Error())
		}
		q.StartTime, q.EndTime = &start, &end
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, cli.NewConfigError("query", err.Error())
	}
	return q, nil
}

// parseTimeRange parses an RFC3339 interval "start/end".
func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

// writeOutput runs write against path, or the command's stdout when path
// is empty.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// entryTable renders query results as an aligned table.
type entryTable struct {
	entries []*audit.Entry
	total   int64
	query   *audit.Query
}

func (t entryTable) WriteText(w io.Writer) error {
	if t.query.StartTime != nil && t.query.EndTime != nil {
		fmt.Fprintf(w, "Time range: %s to %s\n",
			t.query.StartTime.Format(time.RFC3339),
			t.query.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Showing %d of %d entries\n\n", len(t.entries), t.total)
	if len(t.entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tACTOR\tACTION\tRESOURCE\tDETAIL")
	for _, e := range t.entries {
		actor := e.ActorName
		if actor == "" {
			actor = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Timestamp.UTC().Format(time.DateTime), actor, e.Action, e.Resource, e.Detail)
	}
	return tw.Flush()
}

// reportText renders a report as the text dashboard.
type reportText struct {
	*report.Report
}

func (r reportText) WriteText(w io.Writer) error {
	return report.WriteText(w, r.Report)
}
