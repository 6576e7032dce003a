package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PayableEntrySortFields contains allowed sort fields for payable entries
var PayableEntrySortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"entry_number":      true,
	"due_date":          true,
	"issue_date":        true,
	"payment_date":      true,
	"gross_amount":      true,
	"net_amount":        true,
	"paid_amount":       true,
	"installment_label": true,
}
