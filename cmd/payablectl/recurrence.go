package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// recurrenceFlags are shared by project and simulate
type recurrenceFlags struct {
	anchor      string
	period      string
	count       int
	weekendRule string
	repeatDay   int
}

func (f *recurrenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.anchor, "anchor", "", "due date of the source entry (YYYY-MM-DD) [required]")
	cmd.Flags().StringVar(&f.period, "period", "MONTHLY", "WEEKLY, MONTHLY, SEMIANNUAL or ANNUAL")
	cmd.Flags().IntVar(&f.count, "count", 1, "number of installments after the anchor")
	cmd.Flags().StringVar(&f.weekendRule, "weekend-rule", "KEEP", "KEEP, ANTICIPATE or POSTPONE")
	cmd.Flags().IntVar(&f.repeatDay, "repeat-day", 0, "day of month for MONTHLY and SEMIANNUAL (0 = anchor's day)")
	_ = cmd.MarkFlagRequired("anchor")
}

func (f *recurrenceFlags) rule() finance.RecurrenceRule {
	return finance.RecurrenceRule{
		Period:      finance.RecurrencePeriod(strings.ToUpper(f.period)),
		Count:       f.count,
		WeekendRule: finance.WeekendRule(strings.ToUpper(f.weekendRule)),
		RepeatDay:   f.repeatDay,
	}
}

func (f *recurrenceFlags) project() (time.Time, []time.Time, error) {
	anchor, err := parseDate("anchor", f.anchor)
	if err != nil {
		return time.Time{}, nil, err
	}
	dates, err := finance.ProjectDates(anchor, f.rule())
	if err != nil {
		return time.Time{}, nil, err
	}
	return anchor, dates, nil
}

func newProjectCmd(a *app) *cobra.Command {
	flags := &recurrenceFlags{}
	cmd := &cobra.Command{
		Use:   "project",
		Short: "List the due dates a recurrence rule produces",
		Example: `  # Twelve monthly installments after the end of January, weekends pushed to Monday
  payablectl project --anchor 2026-01-31 --count 12 --weekend-rule POSTPONE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dates, err := flags.project()
			if err != nil {
				return err
			}
			out := make([]string, len(dates))
			for i, d := range dates {
				out[i] = d.Format(dateLayout)
			}
			return a.render(cmd.OutOrStdout(), out, func(w io.Writer) error {
				for i, d := range dates {
					fmt.Fprintf(w, "%3d  %s  %s\n", i+1, d.Format(dateLayout), d.Weekday().String()[:3])
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newSimulateCmd(a *app) *cobra.Command {
	flags := &recurrenceFlags{}
	var amount string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Preview the installments a recurrence would create",
		Long: `Preview the installments a recurrence would create after a source entry.

The source keeps slot 1, so installments are numbered from 2 and every label
carries the final group size.`,
		Example: `  payablectl simulate --anchor 2026-01-30 --amount 300 --count 3 -o json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gross, err := decimal.NewFromString(amount)
			if err != nil || !gross.IsPositive() {
				return fmt.Errorf("--amount must be a positive number, got %q", amount)
			}
			anchor, dates, err := flags.project()
			if err != nil {
				return err
			}

			items := finance.Simulate(finance.PayableEntryFields{GrossAmount: gross, DueDate: anchor}, dates)
			total := decimal.Zero
			for _, it := range items {
				total = total.Add(it.Amount)
			}
			a.log.Debug("simulated recurrence", zap.Int("items", len(items)), zap.String("total", total.StringFixed(2)))

			return a.render(cmd.OutOrStdout(), items, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "LABEL\tDUE DATE\tAMOUNT")
				for _, it := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", it.InstallmentLabel, it.DueDate.Format(dateLayout), it.Amount.StringFixed(2))
				}
				fmt.Fprintf(tw, "TOTAL\t\t%s\n", total.StringFixed(2))
				return tw.Flush()
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&amount, "amount", "", "gross amount of each installment [required]")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
