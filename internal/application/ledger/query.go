package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// DefaultPageSize is the page size used when a request does not set one
	DefaultPageSize = 20
	// MaxPageSize caps the page size a caller may request
	MaxPageSize = 100
)

// PageRequest selects one window of the account list. A non-empty Search
// bypasses pagination and returns the full ranked match set.
type PageRequest struct {
	Offset   int
	PageSize int
	Sort     ledger.SortOrder
	Search   string
}

// AccountPage is one window of the account list plus enough bookkeeping
// for the caller to decide whether to fetch the next window.
type AccountPage struct {
	Items   []ledger.Account
	Total   int64
	HasMore bool
}

// TransactionPage is one window of an account's transaction log
type TransactionPage struct {
	Items   []ledger.Transaction
	Total   int64
	HasMore bool
}

// QueryService serves read-only account and transaction views. It never
// writes; sorting and pagination are pushed down to the store, search
// ranking is computed in memory over the full account set.
type QueryService struct {
	store ledger.Store
}

// NewQueryService creates a new QueryService
func NewQueryService(store ledger.Store) *QueryService {
	return &QueryService{store: store}
}

// PageAccounts returns one page of accounts under the requested ordering.
// HasMore is derived from the total row count, not from whether the page
// came back full, so a final exactly-full page reports HasMore=false.
func (q *QueryService) PageAccounts(ctx context.Context, req PageRequest) (*AccountPage, error) {
	if strings.TrimSpace(req.Search) != "" {
		results, err := q.SearchAccounts(ctx, req.Search)
		if err != nil {
			return nil, err
		}
		return &AccountPage{
			Items:   results,
			Total:   int64(len(results)),
			HasMore: false,
		}, nil
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	sortOrder := req.Sort
	if !sortOrder.IsValid() {
		sortOrder = ledger.SortNameAsc
	}

	items, err := q.store.ListAccounts(ctx, ledger.ListOptions{
		Offset: offset,
		Limit:  pageSize,
		Sort:   sortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	total, err := q.store.CountAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	return &AccountPage{
		Items:   items,
		Total:   total,
		HasMore: int64(offset+len(items)) < total,
	}, nil
}

// SearchAccounts matches the query case-insensitively against name, phone,
// email and address, and returns every match ranked: exact name first, then
// name prefix, then word-start within the name, then everything else
// alphabetically.
func (q *QueryService) SearchAccounts(ctx context.Context, query string) ([]ledger.Account, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []ledger.Account{}, nil
	}

	accounts, err := q.store.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortNameAsc})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	matches := make([]ledger.Account, 0)
	for i := range accounts {
		if accountMatches(&accounts[i], needle) {
			matches = append(matches, accounts[i])
		}
	}

	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := searchRank(matches[i].Name, needle), searchRank(matches[j].Name, needle)
		if ri != rj {
			return ri < rj
		}
		return col.CompareString(matches[i].Name, matches[j].Name) < 0
	})

	return matches, nil
}

// accountMatches reports whether any contact field contains the needle
func accountMatches(a *ledger.Account, needle string) bool {
	return strings.Contains(strings.ToLower(a.Name), needle) ||
		strings.Contains(strings.ToLower(a.Phone), needle) ||
		strings.Contains(strings.ToLower(a.Email), needle) ||
		strings.Contains(strings.ToLower(a.Address), needle)
}

// searchRank orders matches by how directly the name matches the needle.
// Lower ranks sort first.
func searchRank(name, needle string) int {
	lower := strings.ToLower(name)
	if lower == needle {
		return 0
	}
	if strings.HasPrefix(lower, needle) {
		return 1
	}
	for _, word := range strings.Fields(lower) {
		if strings.HasPrefix(word, needle) {
			return 2
		}
	}
	return 3
}

// TransactionPageRequest selects one window of an account's log. SortField
// and SortDir pass through raw; the store whitelists the field and
// normalizes the direction, defaulting to occurrence order, newest first.
type TransactionPageRequest struct {
	Offset    int
	PageSize  int
	SortField string
	SortDir   string
}

// ListTransactions returns one window of an account's log. The window and
// ordering are pushed down to the store.
func (q *QueryService) ListTransactions(ctx context.Context, accountID uuid.UUID, req TransactionPageRequest) (*TransactionPage, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	items, err := q.store.ListTransactionsForAccount(ctx, accountID, ledger.TransactionListOptions{
		Offset:    offset,
		Limit:     pageSize,
		SortField: req.SortField,
		SortDir:   req.SortDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	total, err := q.store.CountTransactionsForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	return &TransactionPage{
		Items:   items,
		Total:   total,
		HasMore: int64(offset+len(items)) < total,
	}, nil
}

// Totals aggregates live balances across the whole ledger. OwedToMe sums the
// positive balances, IOwe sums the magnitudes of the negative ones, and Net
// is their difference, so Net always equals the plain sum of all balances.
type Totals struct {
	OwedToMe decimal.Decimal
	IOwe     decimal.Decimal
	Net      decimal.Decimal
}
