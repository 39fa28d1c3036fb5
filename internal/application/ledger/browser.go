package ledger

import (
	"context"
	"sort"

	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Browser accumulates account pages into a single ordered view, the way a
// scrolling list consumes them. It also layers an ephemeral search on top:
// entering a search leaves the browsed pages untouched, and clearing it
// restores them exactly, with no re-query.
//
// Browser is not safe for concurrent use; each consumer owns one.
type Browser struct {
	queries  *QueryService
	pageSize int
	sort     ledger.SortOrder

	accounts []ledger.Account
	total    int64

	searching   bool
	searchQuery string
	results     []ledger.Account
}

// NewBrowser creates a Browser over the given query service.
// A non-positive pageSize falls back to the default.
func NewBrowser(queries *QueryService, pageSize int, sortOrder ledger.SortOrder) *Browser {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if !sortOrder.IsValid() {
		sortOrder = ledger.SortNameAsc
	}
	return &Browser{
		queries:  queries,
		pageSize: pageSize,
		sort:     sortOrder,
	}
}

// LoadMore fetches the next page and merges it into the accumulated view.
// The whole accumulated set is re-sorted after every append, so items whose
// sort key changed between page fetches settle into their correct position.
func (b *Browser) LoadMore(ctx context.Context) error {
	if b.searching {
		return shared.NewDomainError("SEARCH_ACTIVE", "Cannot load pages while a search is active")
	}

	page, err := b.queries.PageAccounts(ctx, PageRequest{
		Offset:   len(b.accounts),
		PageSize: b.pageSize,
		Sort:     b.sort,
	})
	if err != nil {
		return err
	}

	// Mutations between fetches can shift offsets, so a new page may carry
	// an item that is already loaded. Keep the first copy.
	seen := make(map[string]struct{}, len(b.accounts))
	for i := range b.accounts {
		seen[b.accounts[i].ID.String()] = struct{}{}
	}
	for i := range page.Items {
		if _, ok := seen[page.Items[i].ID.String()]; ok {
			continue
		}
		b.accounts = append(b.accounts, page.Items[i])
	}

	b.total = page.Total
	b.resort()
	return nil
}

// HasMore reports whether further pages remain to be loaded
func (b *Browser) HasMore() bool {
	if b.searching {
		return false
	}
	return int64(len(b.accounts)) < b.total
}

// Items returns the currently visible accounts: the ranked search results
// while a search is active, otherwise the accumulated browsed pages.
func (b *Browser) Items() []ledger.Account {
	if b.searching {
		return b.results
	}
	return b.accounts
}

// Total returns the total account count as of the last loaded page
func (b *Browser) Total() int64 {
	return b.total
}

// Sort returns the active sort order
func (b *Browser) Sort() ledger.SortOrder {
	return b.sort
}

// SetSort switches the ordering and restarts pagination from the first page
// under the new order. Loaded pages from the old order are discarded because
// their offsets are meaningless under a different ordering.
func (b *Browser) SetSort(ctx context.Context, sortOrder ledger.SortOrder) error {
	if !sortOrder.IsValid() {
		return shared.NewDomainError("INVALID_SORT", "Unknown sort order")
	}
	if sortOrder == b.sort {
		return nil
	}
	b.sort = sortOrder
	b.accounts = nil
	b.total = 0
	return b.LoadMore(ctx)
}

// Search replaces the visible items with the full ranked match set for the
// query. The browsed pages stay in memory behind it.
func (b *Browser) Search(ctx context.Context, query string) error {
	results, err := b.queries.SearchAccounts(ctx, query)
	if err != nil {
		return err
	}
	b.searching = true
	b.searchQuery = query
	b.results = results
	return nil
}

// Searching reports whether a search is active, and with what query
func (b *Browser) Searching() (bool, string) {
	return b.searching, b.searchQuery
}

// ClearSearch drops the search results and restores the previously browsed
// pages exactly as they were.
func (b *Browser) ClearSearch() {
	b.searching = false
	b.searchQuery = ""
	b.results = nil
}

// resort orders the accumulated set in memory under the active sort order,
// with the same tie-breaks the store applies.
func (b *Browser) resort() {
	col := collate.New(language.Und, collate.IgnoreCase)

	byName := func(i, j int) int {
		if c := col.CompareString(b.accounts[i].Name, b.accounts[j].Name); c != 0 {
			return c
		}
		if b.accounts[i].ID.String() < b.accounts[j].ID.String() {
			return -1
		}
		return 1
	}

	sort.SliceStable(b.accounts, func(i, j int) bool {
		a, z := &b.accounts[i], &b.accounts[j]
		switch b.sort {
		case ledger.SortNameDesc:
			return byName(i, j) > 0
		case ledger.SortBalanceHighToLow:
			if c := a.Balance.Cmp(z.Balance); c != 0 {
				return c > 0
			}
			return byName(i, j) < 0
		case ledger.SortBalanceLowToHigh:
			if c := a.Balance.Cmp(z.Balance); c != 0 {
				return c < 0
			}
			return byName(i, j) < 0
		case ledger.SortRecentlyAdded:
			if !a.CreatedAt.Equal(z.CreatedAt) {
				return a.CreatedAt.After(z.CreatedAt)
			}
			return a.ID.String() > z.ID.String()
		default:
			return byName(i, j) < 0
		}
	})
}
