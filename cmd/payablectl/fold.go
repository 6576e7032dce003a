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
)

// foldResult is the JSON shape of the fold command
type foldResult struct {
	Launches []finance.Launch      `json:"launches"`
	Balance  finance.LedgerBalance `json:"balance"`
	Status   finance.PayableStatus `json:"status"`
}

func newFoldCmd(a *app) *cobra.Command {
	var (
		gross     string
		due       string
		launches  []string
		cancelled bool
	)
	cmd := &cobra.Command{
		Use:   "fold",
		Short: "Apply launches to a gross amount and report balance and status",
		Long: `Apply launches, in order, to a gross amount and report the resulting
net, paid and remaining balance plus the status on the reference date.

Each --launch is TYPE:VALUE or TYPE:MODE:VALUE, optionally followed by
@YYYY-MM-DD. MODE is FIXED (default) or PERCENTAGE; percentages are taken of
the balance remaining just before the launch.`,
		Example: `  payablectl fold --gross 1000 --due 2026-03-01 \
    --launch INTEREST:PERCENTAGE:10@2026-03-10 \
    --launch PAYMENT:1100@2026-03-15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(gross)
			if err != nil || !amount.IsPositive() {
				return fmt.Errorf("--gross must be a positive number, got %q", gross)
			}
			dueDate, err := parseDate("due", due)
			if err != nil {
				return err
			}

			result := foldResult{Launches: make([]finance.Launch, 0, len(launches))}
			balance := finance.Fold(amount, nil)
			for _, raw := range launches {
				req, err := parseLaunch(raw, a.today)
				if err != nil {
					return err
				}
				launch, err := a.ledger.Resolve(balance, req)
				if err != nil {
					return fmt.Errorf("launch %q: %w", raw, err)
				}
				result.Launches = append(result.Launches, launch)
				balance = finance.Fold(amount, result.Launches)
			}
			result.Balance = balance
			result.Status = finance.ResolveStatus(balance, dueDate, cancelled, a.today)

			return a.render(cmd.OutOrStdout(), result, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "TYPE\tOPERATION\tDATE\tAMOUNT")
				for _, l := range result.Launches {
					op := string(l.Operation)
					if l.IsSettlement {
						op += " (settlement)"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.TypeID, op, l.Date.Format(dateLayout), l.Amount.StringFixed(2))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nnet %s  paid %s  remaining %s  status %s\n",
					balance.Net.StringFixed(2), balance.Paid.StringFixed(2), balance.Remaining.StringFixed(2), result.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&gross, "gross", "", "gross amount of the entry [required]")
	cmd.Flags().StringVar(&due, "due", "", "due date of the entry (YYYY-MM-DD) [required]")
	cmd.Flags().StringArrayVar(&launches, "launch", nil, "launch as TYPE[:MODE]:VALUE[@DATE], repeatable")
	cmd.Flags().BoolVar(&cancelled, "cancelled", false, "treat the entry as cancelled")
	_ = cmd.MarkFlagRequired("gross")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

// parseLaunch reads TYPE:VALUE, TYPE:MODE:VALUE and an optional @DATE suffix
func parseLaunch(raw string, today time.Time) (finance.LaunchRequest, error) {
	spec, dateStr, hasDate := strings.Cut(raw, "@")
	req := finance.LaunchRequest{Mode: finance.LaunchModeFixed, Date: today}
	if hasDate {
		d, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return req, fmt.Errorf("launch %q: date must be YYYY-MM-DD", raw)
		}
		req.Date = d
	}

	parts := strings.Split(spec, ":")
	var value string
	switch len(parts) {
	case 2:
		req.TypeID, value = parts[0], parts[1]
	case 3:
		req.TypeID, value = parts[0], parts[2]
		req.Mode = finance.LaunchMode(strings.ToUpper(parts[1]))
	default:
		return req, fmt.Errorf("launch %q: expected TYPE:VALUE or TYPE:MODE:VALUE", raw)
	}
	req.TypeID = strings.ToUpper(req.TypeID)

	v, err := decimal.NewFromString(value)
	if err != nil {
		return req, fmt.Errorf("launch %q: value %q is not a number", raw, value)
	}
	req.Value = v
	return req, nil
}
