package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/tally/backend/internal/application/ledger"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/interfaces/http/dto"
	"github.com/tally/backend/internal/interfaces/http/middleware"
)

// LedgerHandler exposes the ledger engine over HTTP
type LedgerHandler struct {
	BaseHandler
	accounts   *ledgerapp.AccountService
	service    *ledgerapp.Service
	queries    *ledgerapp.QueryService
	verifier   *ledgerapp.Verifier
	aggregator *ledgerapp.Aggregator
	snapshots  *ledgerapp.SnapshotService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(
	accounts *ledgerapp.AccountService,
	service *ledgerapp.Service,
	queries *ledgerapp.QueryService,
	verifier *ledgerapp.Verifier,
	aggregator *ledgerapp.Aggregator,
	snapshots *ledgerapp.SnapshotService,
) *LedgerHandler {
	return &LedgerHandler{
		accounts:   accounts,
		service:    service,
		queries:    queries,
		verifier:   verifier,
		aggregator: aggregator,
		snapshots:  snapshots,
	}
}

// RegisterRoutes registers the ledger routes on a router group
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.CreateAccount)
		accounts.GET("", h.ListAccounts)
		accounts.GET("/:id", h.GetAccount)
		accounts.GET("/:id/balance", h.GetBalance)
		accounts.POST("/:id/recalculate", h.RecalculateBalance)
		accounts.GET("/:id/transactions", h.ListTransactions)
	}

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.InsertTransaction)
		transactions.PUT("/:id", h.UpdateTransaction)
		transactions.DELETE("/:id", h.DeleteTransaction)
	}

	ledgerGroup := rg.Group("/ledger")
	{
		ledgerGroup.POST("/verify", h.VerifyBalances)
		ledgerGroup.GET("/totals", h.GetTotals)
		ledgerGroup.GET("/snapshot", h.ExportSnapshot)
		ledgerGroup.POST("/snapshot", h.RestoreSnapshot)
	}
}

// CreateAccount creates a new account with a zero balance
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), ledgerapp.CreateAccountRequest{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.AccountFromDomain(account))
}

// GetAccount returns one account
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.AccountFromDomain(account))
}

// ListAccounts returns a page of accounts, or the full ranked match set
// when a search query is present
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	var req dto.ListAccountsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.queries.PageAccounts(c.Request.Context(), ledgerapp.PageRequest{
		Offset:   req.Offset,
		PageSize: req.PageSize,
		Sort:     ledger.SortOrder(req.Sort),
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.AccountsFromDomain(page.Items), page.Total, req.Offset, len(page.Items), page.HasMore)
}

// GetBalance returns one account's cached balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.BalanceResponse{AccountID: id.String(), Balance: balance})
}

// RecalculateBalance rebuilds one account's balance from its transaction log
func (h *LedgerHandler) RecalculateBalance(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	balance, err := h.service.RecalculateBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.BalanceResponse{AccountID: id.String(), Balance: balance})
}

// ListTransactions returns a page of one account's log, newest first by
// default; sort_field and order query parameters pick another ordering
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.queries.ListTransactions(c.Request.Context(), id, ledgerapp.TransactionPageRequest{
		Offset:    req.Offset,
		PageSize:  req.PageSize,
		SortField: req.SortField,
		SortDir:   req.Order,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.TransactionsFromDomain(page.Items), page.Total, req.Offset, len(page.Items), page.HasMore)
}

// InsertTransaction records a new transaction and moves the balance
func (h *LedgerHandler) InsertTransaction(c *gin.Context) {
	var req dto.InsertTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		h.BadRequest(c, "Invalid account ID")
		return
	}

	insert := ledgerapp.InsertTransactionRequest{
		AccountID:   accountID,
		Direction:   ledger.Direction(req.Direction),
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.OccurredAt != nil {
		insert.OccurredAt = *req.OccurredAt
	}

	id, err := h.service.InsertTransaction(c.Request.Context(), insert)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{"id": id.String()})
}

// UpdateTransaction rewrites a logged transaction in place
func (h *LedgerHandler) UpdateTransaction(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	update := ledgerapp.UpdateTransactionRequest{
		ID:          id,
		Direction:   ledger.Direction(req.Direction),
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.OccurredAt != nil {
		update.OccurredAt = *req.OccurredAt
	}

	if err := h.service.UpdateTransaction(c.Request.Context(), update); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteTransaction removes a transaction and reverses its balance effect
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// VerifyBalances sweeps every account and repairs drifted balances
func (h *LedgerHandler) VerifyBalances(c *gin.Context) {
	repaired, err := h.verifier.VerifyAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.VerifyResponse{Repaired: repaired})
}

// GetTotals returns the aggregate position across all accounts
func (h *LedgerHandler) GetTotals(c *gin.Context) {
	totals, err := h.aggregator.Totals(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.TotalsResponse{
		OwedToMe: totals.OwedToMe,
		IOwe:     totals.IOwe,
		Net:      totals.Net,
	})
}

// ExportSnapshot dumps the whole ledger
func (h *LedgerHandler) ExportSnapshot(c *gin.Context) {
	snap, err := h.snapshots.Export(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, snap)
}

// RestoreSnapshot loads a snapshot into an empty ledger
func (h *LedgerHandler) RestoreSnapshot(c *gin.Context) {
	var snap ledgerapp.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed snapshot payload")
		return
	}

	if err := h.snapshots.Restore(c.Request.Context(), &snap); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// parseID binds and parses the :id path parameter
func (h *LedgerHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}
