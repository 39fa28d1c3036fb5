package persistence

import (
	"strings"

	"github.com/tally/backend/internal/domain/ledger"
)

// AccountSortFields contains allowed raw sort fields for accounts
var AccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"balance":    true,
}

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

// TransactionSortFields contains allowed raw sort fields for transaction listings
var TransactionSortFields = map[string]bool{
	"occurred_at": true,
	"created_at":  true,
	"amount":      true,
}

// transactionOrderClause builds an ORDER BY clause for one account's log from
// raw caller input. Unknown fields fall back to occurrence order; the id
// tie-break keeps page windows stable.
func transactionOrderClause(rawField, rawDir string) string {
	field := ValidateSortField(rawField, TransactionSortFields, "occurred_at")
	dir := ValidateSortOrder(rawDir)
	clause := field + " " + dir
	if field != "created_at" {
		clause += ", created_at " + dir
	}
	return clause + ", id " + dir
}

// accountOrderClause maps a ledger sort order to a SQL ORDER BY clause.
// Every clause carries a unique tie-break column so page windows are stable.
func accountOrderClause(sort ledger.SortOrder) string {
	switch sort {
	case ledger.SortNameDesc:
		return "LOWER(name) DESC, id DESC"
	case ledger.SortBalanceHighToLow:
		return "balance DESC, LOWER(name) ASC, id ASC"
	case ledger.SortBalanceLowToHigh:
		return "balance ASC, LOWER(name) ASC, id ASC"
	case ledger.SortRecentlyAdded:
		return "created_at DESC, id DESC"
	case ledger.SortNameAsc:
		return "LOWER(name) ASC, id ASC"
	default:
		return "LOWER(name) ASC, id ASC"
	}
}
