package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	financeapp "github.com/erp/payables/internal/application/finance"
	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/infrastructure/config"
	"github.com/erp/payables/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// app carries what every subcommand needs once the root has run
type app struct {
	output   string
	logLevel string
	config   string
	log      *zap.Logger
	ledger   *finance.LedgerEngine
	location *time.Location
	today    time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var today string

	root := &cobra.Command{
		Use:   "payablectl",
		Short: "Preview recurrence schedules and payable ledgers",
		Long: `payablectl runs the payables calculators offline.

It projects recurrence dates, previews the installments a recurrence would
create and folds a list of launches into a balance and status. The launch type
catalogue and timezone come from config.toml or PAYABLES_* environment
variables when present; built-in defaults apply otherwise.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(today)
		},
	}
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format: text or json")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.config, "config", "", "configuration file (default: ./config.toml when present)")
	root.PersistentFlags().StringVar(&today, "today", "", "reference date for statuses (YYYY-MM-DD, default: current date)")

	root.AddCommand(
		newProjectCmd(a),
		newSimulateCmd(a),
		newFoldCmd(a),
		newLaunchTypesCmd(a),
	)
	return root
}

func (a *app) init(today string) error {
	if a.output != "text" && a.output != "json" {
		return fmt.Errorf("unsupported output %q: use text or json", a.output)
	}

	log, err := logger.New(&logger.Config{Level: a.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log

	ledgerCfg := config.LedgerConfig{}
	a.location = time.UTC
	if a.config != "" {
		cfg, err := config.LoadFile(a.config)
		if err != nil {
			return err
		}
		ledgerCfg = cfg.Ledger
		a.location = cfg.App.Location()
	} else if cfg, err := config.Load(); err != nil {
		a.log.Debug("configuration not loaded, using defaults", zap.Error(err))
	} else {
		ledgerCfg = cfg.Ledger
		a.location = cfg.App.Location()
	}
	if a.ledger, err = financeapp.NewLedgerFromConfig(ledgerCfg); err != nil {
		return err
	}

	if today == "" {
		a.today = finance.DateOnly(time.Now().In(a.location))
		return nil
	}
	if a.today, err = parseDate("today", today); err != nil {
		return err
	}
	return nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a date formatted as YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}

// render writes v as indented JSON or hands the writer to text
func (a *app) render(w io.Writer, v any, text func(io.Writer) error) error {
	if a.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}
