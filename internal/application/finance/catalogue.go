package finance

import (
	"strings"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/infrastructure/config"
)

// NewLedgerFromConfig builds the ledger engine from the configured launch type
// catalogue. An empty catalogue means finance.DefaultLaunchTypes.
func NewLedgerFromConfig(cfg config.LedgerConfig) (*finance.LedgerEngine, error) {
	types := finance.DefaultLaunchTypes()
	if len(cfg.LaunchTypes) > 0 {
		types = make([]finance.LaunchType, len(cfg.LaunchTypes))
		for i, lt := range cfg.LaunchTypes {
			types[i] = finance.LaunchType{
				ID:           strings.ToUpper(lt.ID),
				Label:        lt.Label,
				Operation:    finance.LaunchOperation(strings.ToUpper(lt.Operation)),
				IsSettlement: lt.IsSettlement,
			}
		}
	}
	registry, err := finance.NewLaunchTypeRegistry(types)
	if err != nil {
		return nil, err
	}
	return finance.NewLedgerEngine(registry), nil
}
