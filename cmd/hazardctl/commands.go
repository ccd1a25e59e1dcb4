package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/adapter/analystapi"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/submission"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// options are the flags shared by every subcommand.
type options struct {
	apiURL    string
	csrfToken string
	timeout   time.Duration
	verbose   bool

	clock clockwork.Clock
}

func (o *options) client(cmd *cobra.Command) *analystapi.Client {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return analystapi.NewClient(o.apiURL, o.csrfToken, o.timeout, observability.NewMetricsWith(prometheus.NewRegistry()), logger)
}

func newRootCmd() *cobra.Command {
	opts := &options{clock: clockwork.NewRealClock()}
	return newRootCmdWith(opts)
}

func newRootCmdWith(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "hazardctl",
		Short: "Query the coastal hazard analyst backend",
		Long: `hazardctl talks to the same analyst backend as the dashboard. It lists
hazard reports, prints report counters and the regional risk table, computes
heatmap intensities for a mode and time window, and files hazard reports.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url",
		sharedcfg.EnvOrDefault("ANALYST_API_URL", "http://localhost:8000"), "Analyst backend base URL")
	root.PersistentFlags().StringVar(&opts.csrfToken, "csrf-token", sharedcfg.EnvOrDefault("CSRF_TOKEN", ""), "CSRF token sent on POST requests")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests to stderr")

	root.AddCommand(
		newReportsCmd(opts),
		newStatsCmd(opts),
		newHeatmapCmd(opts),
		newRiskCmd(opts),
		newSubmitCmd(opts),
	)
	return root
}

func fetchReports(ctx context.Context, opts *options, cmd *cobra.Command, q analystapi.MapQuery) ([]domain.HazardReport, error) {
	reports, err := opts.client(cmd).MapData(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch hazard reports: %w", err)
	}
	return reports, nil
}

func newReportsCmd(opts *options) *cobra.Command {
	var window, hazardType, severity string

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List hazard reports inside a time window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := domain.ParseTimeFilter(window)
			reports, err := fetchReports(cmd.Context(), opts, cmd, analystapi.MapQuery{
				TimeFilter: string(filter), HazardType: hazardType, Severity: severity,
			})
			if err != nil {
				return err
			}
			reports = domain.FilterByTime(reports, filter, opts.clock.Now())

			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(out, "No hazard reports in the selected window.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tTYPE\tSEVERITY\tLAT\tLNG\tLOCATION")
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%.4f\t%s\n",
					r.Time.UTC().Format("2006-01-02 15:04"), r.HazardType, severityLabel(r.Severity), r.Lat, r.Lng, r.Location)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printSummary(out, domain.ComputeSummaryStats(reports))
			return nil
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", string(domain.Filter24h), "Time window: 1h, 6h, 24h, 7d or 30d")
	cmd.Flags().StringVar(&hazardType, "type", "", "Only this hazard type")
	cmd.Flags().StringVar(&severity, "severity", "", "Only this severity")
	return cmd
}

func printSummary(w io.Writer, s domain.SummaryStats) {
	fmt.Fprintf(w, "\nTotal: %d  High: %d  Medium: %d  Low: %d\n", s.Total, s.High, s.Medium, s.Low)
}

func severityLabel(s domain.Severity) string {
	if s == domain.SeverityUnknown {
		return "unknown"
	}
	return string(s)
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard report counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := opts.client(cmd).DashboardStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch dashboard stats: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			rows := []struct {
				name  string
				value any
			}{
				{"Total reports", stats.TotalReports},
				{"This month", stats.ThisMonth},
				{"Today", stats.TodayReports},
				{"Critical", stats.CriticalReports},
				{"Pending", stats.PendingReports},
				{"Verified", stats.VerifiedReports},
				{"Urgent", stats.UrgentReports},
				{"Approval rate", fmt.Sprintf("%.1f%%", stats.ApprovalRate)},
			}
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%v\n", r.name, r.value)
			}
			return tw.Flush()
		},
	}
}

func newHeatmapCmd(opts *options) *cobra.Command {
	var mode, window string

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Compute heatmap intensities for a mode and time window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hm := domain.ParseHeatmapMode(mode)
			filter := domain.ParseTimeFilter(window)
			now := opts.clock.Now()

			reports, err := fetchReports(cmd.Context(), opts, cmd, analystapi.MapQuery{TimeFilter: string(filter)})
			if err != nil {
				return err
			}
			reports = domain.FilterByTime(reports, filter, now)
			points, dropped := domain.ValidateHeatmapPoints(domain.HeatmapPoints(reports, hm, now))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode: %s  Window: %s  Points: %d\n", hm, filter, len(points))
			if dropped > 0 {
				fmt.Fprintf(out, "Dropped %d invalid points\n", dropped)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LAT\tLNG\tINTENSITY")
			for _, p := range points {
				fmt.Fprintf(tw, "%.4f\t%.4f\t%.2f\n", p.Lat, p.Lng, p.Intensity)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(domain.ModeDensity), "Heatmap mode: density, severity or time")
	cmd.Flags().StringVarP(&window, "window", "w", string(domain.Filter24h), "Time window: 1h, 6h, 24h, 7d or 30d")
	return cmd
}

func newRiskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "risk",
		Short: "Print the regional risk assessment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			regions, err := opts.client(cmd).RiskAssessment(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "risk assessment unavailable (%v), showing reference values\n", err)
				regions = domain.FallbackRiskAssessment
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REGION\tSCORE\tLEVEL")
			for _, r := range regions {
				fmt.Fprintf(tw, "%s\t%.1f\t%s\n", r.Region, r.Score, r.Level)
			}
			return tw.Flush()
		},
	}
}

func newSubmitCmd(opts *options) *cobra.Command {
	var (
		form     submission.Form
		lat, lng float64
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "File a hazard report",
		Example: `  hazardctl submit --type storm_surge --severity high --lat 19.076 --lng 72.8777 \
    --description "Water over the promenade"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				form.Location = &submission.Point{Lat: lat, Lng: lng}
			}
			svc := submission.NewService(submission.Options{
				Submitter: opts.client(cmd),
				Clock:     opts.clock,
				Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			banner, result, err := svc.Submit(cmd.Context(), form)
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", banner.Level, banner.Message)
			if err != nil {
				return err
			}
			if result.ReportID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Report ID: %s\n", result.ReportID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&form.HazardType, "type", "", "Hazard type code, e.g. tsunami or storm_surge")
	cmd.Flags().StringVar(&form.Severity, "severity", "moderate", "Severity: low, moderate, high or critical")
	cmd.Flags().StringVar(&form.Description, "description", "", "What was observed")
	cmd.Flags().StringVar(&form.ContactNumber, "contact", "", "Contact number")
	cmd.Flags().BoolVar(&form.Urgent, "urgent", false, "Flag the report as urgent")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
