package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/invoice-ai-manager/server/internal/agent/composer"
	"github.com/invoice-ai-manager/server/internal/agent/model"
	"github.com/invoice-ai-manager/server/internal/agent/observers"
	"github.com/invoice-ai-manager/server/internal/query"
	"github.com/invoice-ai-manager/server/internal/schedule"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
)

const defaultActivityLimit = 20

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "invoice-agent",
		Short:        "invoice-agent - invoice dashboard and reminder agent",
		SilenceUsage: true,

		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(observers.Attach(cmd.Context()))
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newInvoicesCmd(opts),
		newSummaryCmd(opts),
		newRunCmd(opts),
		newScheduleCmd(opts),
		newActivityCmd(opts),
		newFollowUpsCmd(opts),
		newEscalationsCmd(opts),
	)
	return root
}

// withApp loads config, wires the App and hands it to fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, app *App) error) error {
	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

// ================ invoices ================

func newInvoicesCmd(opts *rootOptions) *cobra.Command {
	var (
		search string
		status string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List invoices with search, status filter and pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := query.ParseFilter(status)
			if err != nil {
				return err
			}
			st := query.NewState().WithSearch(search).WithStatus(filter).WithPage(page)

			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				records, err := app.Invoices.List(ctx)
				if err != nil {
					return err
				}
				res := query.Query(records, st, app.Config.Query.PageSize)
				return printInvoices(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match invoice number or customer name")
	cmd.Flags().StringVar(&status, "status", string(query.FilterAll), "all, paid, pending or overdue")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "1-based page number")
	cmd.AddCommand(newInvoiceShowCmd(opts), newInvoiceCreateCmd(opts))
	return cmd
}

func newInvoiceShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				inv, err := app.Client.GetInvoice(ctx, args[0])
				if err != nil {
					return err
				}
				printInvoice(cmd.OutOrStdout(), inv)
				return nil
			})
		},
	}
}

func newInvoiceCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		draft  model.InvoiceDraft
		status string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft.Status = model.InvoiceStatus(status)
			if err := validateDraft(draft); err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				inv, err := app.Client.CreateInvoice(ctx, draft)
				if err != nil {
					return err
				}
				logx.Info().Str("id", inv.ID).Str("invoice", inv.InvoiceNumber).Msg("invoice created")
				printInvoice(cmd.OutOrStdout(), inv)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&draft.InvoiceNumber, "number", "", "invoice number, e.g. INV-010")
	cmd.Flags().StringVar(&draft.CustomerName, "customer", "", "customer name")
	cmd.Flags().StringVar(&draft.CustomerEmail, "email", "", "customer billing email")
	cmd.Flags().Float64Var(&draft.Amount, "amount", 0, "amount in USD")
	cmd.Flags().StringVar(&draft.DueDate, "due", "", "due date as YYYY-MM-DD")
	cmd.Flags().StringVar(&status, "status", string(model.StatusPending), "paid, pending or overdue")
	return cmd
}

func validateDraft(d model.InvoiceDraft) error {
	switch {
	case d.InvoiceNumber == "":
		return fmt.Errorf("--number is required")
	case d.CustomerName == "":
		return fmt.Errorf("--customer is required")
	case d.Amount <= 0:
		return fmt.Errorf("--amount must be positive")
	case !d.Status.Valid():
		return fmt.Errorf("unknown status %q", d.Status)
	}
	if _, err := time.Parse(model.DueDateLayout, d.DueDate); err != nil {
		return fmt.Errorf("--due must be YYYY-MM-DD: %w", err)
	}
	return nil
}

func printInvoice(w io.Writer, inv *model.Invoice) {
	fmt.Fprintf(w, "Invoice:  %s (%s)\n", inv.InvoiceNumber, inv.ID)
	fmt.Fprintf(w, "Customer: %s <%s>\n", inv.CustomerName, inv.CustomerEmail)
	fmt.Fprintf(w, "Amount:   %s\n", composer.FormatUSD(inv.Amount))
	fmt.Fprintf(w, "Due:      %s\n", composer.FormatDueDate(*inv))
	fmt.Fprintf(w, "Status:   %s\n", inv.Status)
	if inv.DaysOverdue != nil {
		fmt.Fprintf(w, "Overdue:  %d days\n", *inv.DaysOverdue)
	}
}

func printInvoices(w io.Writer, res query.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INVOICE\tCUSTOMER\tAMOUNT\tDUE\tSTATUS")
	for _, inv := range res.Visible {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			inv.InvoiceNumber, inv.CustomerName, composer.FormatUSD(inv.Amount), inv.DueDate, inv.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(res.Visible) == 0 {
		fmt.Fprintln(w, "No invoices found")
	}
	fmt.Fprintln(w, res.Describe())
	fmt.Fprintf(w, "Page %d of %d\n", res.Page, res.PageCount)
	return nil
}

// ================ summary ================

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show invoice counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				records, err := app.Invoices.List(ctx)
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), query.Summarize(records))
				return nil
			})
		},
	}
}

func printSummary(w io.Writer, b query.Breakdown) {
	fmt.Fprintf(w, "Total Invoices:    %d\n", b.Total)
	fmt.Fprintf(w, "Paid:              %d\n", b.Paid)
	fmt.Fprintf(w, "Pending / Overdue: %d (%d pending, %d overdue)\n", b.Unsettled(), b.Pending, b.Overdue)
	fmt.Fprintf(w, "Total Amount:      %s\n", composer.FormatUSD(b.TotalAmount))
	fmt.Fprintf(w, "Outstanding:       %s\n", composer.FormatUSD(b.OutstandingAmount))
}

// ================ run / schedule ================

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reminder agent once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				res, err := app.Orchestrator.Run(ctx)
				if err != nil {
					return err
				}
				printRun(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func printRun(w io.Writer, res *model.RunResult) {
	for _, o := range res.Outcomes {
		mark := "sent"
		if !o.Sent {
			mark = "failed: " + o.Err
		}
		fmt.Fprintf(w, "  %s -> %s [%s] %s\n", o.InvoiceNumber, o.Recipient, o.Tone, mark)
	}
	if res.DraftCostUSD > 0 {
		fmt.Fprintf(w, "Draft cost: $%.6f\n", res.DraftCostUSD)
	}
	fmt.Fprintln(w, res.Summary)
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the reminder agent on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if expr == "" {
					expr = app.Config.Agent.Schedule
				}
				sched, err := schedule.New(app.Orchestrator, expr, time.Local)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				sched.OnRun = func(res *model.RunResult, err error) {
					if err == nil {
						printRun(out, res)
					}
				}

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if err := sched.Start(ctx); err != nil {
					return err
				}
				fmt.Fprintf(out, "Next run: %s\n", sched.Next().Format(time.RFC1123))

				<-ctx.Done()
				logx.Info().Msg("shutting down scheduler")
				sched.Stop()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&expr, "cron", "", "cron expression, defaults to AGENT_SCHEDULE")
	return cmd
}

// ================ activity / follow-ups / escalations ================

func newActivityCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the agent activity log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				entries, err := app.Activity.Recent(ctx, limit)
				if err != nil {
					return err
				}
				return printActivity(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultActivityLimit, "number of entries to show")
	return cmd
}

func printActivity(w io.Writer, entries []model.ActivityLog) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No agent activity yet")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tACTION\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Format(time.DateTime), e.Type, e.Action, e.Details)
	}
	return tw.Flush()
}

func newFollowUpsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "followups",
		Short: "Show reminder emails sent by the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				items, err := app.FollowUps.List(ctx)
				if err != nil {
					return err
				}
				return printFollowUps(cmd.OutOrStdout(), items)
			})
		},
	}
}

func printFollowUps(w io.Writer, items []model.FollowUp) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No follow-ups sent yet")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENT\tINVOICE\tCUSTOMER\tTONE\tSUBJECT")
	for _, f := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.SentAt.Format(time.DateTime), f.InvoiceNumber, f.CustomerName, f.Tone, f.EmailSubject)
	}
	return tw.Flush()
}

func newEscalationsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "escalations",
		Short: "Show invoices escalated to finance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				items, err := app.Escalations.List(ctx)
				if err != nil {
					return err
				}
				return printEscalations(cmd.OutOrStdout(), items)
			})
		},
	}
}

func printEscalations(w io.Writer, items []model.Escalation) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No escalations")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tINVOICE\tCUSTOMER\tAMOUNT\tDAYS\tPRIORITY\tREASON")
	for _, e := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.CreatedAt.Format(time.DateTime), e.InvoiceNumber, e.CustomerName,
			composer.FormatUSD(e.Amount), e.DaysOverdue, e.Priority, e.Reason)
	}
	return tw.Flush()
}
