package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ledgerapp "github.com/tally/backend/internal/application/ledger"
	"github.com/tally/backend/internal/infrastructure/lock"
	"github.com/tally/backend/internal/infrastructure/persistence"
	"github.com/tally/backend/internal/infrastructure/persistence/models"
	"github.com/tally/backend/internal/interfaces/http/middleware"
	"github.com/tally/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.AccountModel{}, &models.TransactionModel{}))

	store := persistence.NewLedgerStore(db)
	locks := lock.NewKeyedMutex()
	log := zap.NewNop()

	service := ledgerapp.NewService(store, locks, log)
	aggregator := ledgerapp.NewAggregator(store)
	verifier := ledgerapp.NewVerifier(store, locks, log)
	service.Subscribe(aggregator)
	verifier.Subscribe(aggregator)

	ledgerHandler := NewLedgerHandler(
		ledgerapp.NewAccountService(store, log),
		service,
		ledgerapp.NewQueryService(store),
		verifier,
		aggregator,
		ledgerapp.NewSnapshotService(store, service, log),
	)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	middleware.SetupValidator()

	router.NewRouter(engine).
		Register(ledgerHandler).
		Register(NewSystemHandler(&persistence.Database{DB: db})).
		Setup()

	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, "expected success response, got %s", w.Body.String())
	return resp.Data
}

func createTestAccount(t *testing.T, engine *gin.Engine, name string) string {
	t.Helper()
	w := doJSON(t, engine, http.MethodPost, "/api/v1/accounts", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData(t, w)["id"].(string)
}

func TestLedgerAPI_AccountLifecycle(t *testing.T) {
	engine := setupTestServer(t)

	t.Run("create and fetch", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/accounts", gin.H{
			"name":  "Alice",
			"email": "alice@example.com",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, "Alice", data["name"])
		assert.Equal(t, "0", data["balance"])

		w = doJSON(t, engine, http.MethodGet, "/api/v1/accounts/"+data["id"].(string), nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/accounts", gin.H{"name": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown account yields 404", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/accounts/9f3cbb1e-0000-0000-0000-000000000000", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed ID yields 400", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/accounts/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLedgerAPI_TransactionsAndBalance(t *testing.T) {
	engine := setupTestServer(t)
	accountID := createTestAccount(t, engine, "Alice")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/transactions", gin.H{
		"account_id": accountID,
		"direction":  "CREDIT",
		"amount":     "100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	txID := decodeData(t, w)["id"].(string)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", decodeData(t, w)["balance"])

	w = doJSON(t, engine, http.MethodPut, "/api/v1/transactions/"+txID, gin.H{
		"direction": "CREDIT",
		"amount":    "70",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil)
	assert.Equal(t, "70", decodeData(t, w)["balance"])

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/transactions/"+txID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil)
	assert.Equal(t, "0", decodeData(t, w)["balance"])

	t.Run("invalid direction rejected by binding", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/transactions", gin.H{
			"account_id": accountID,
			"direction":  "SIDEWAYS",
			"amount":     "10",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative amount rejected by the engine", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/transactions", gin.H{
			"account_id": accountID,
			"direction":  "CREDIT",
			"amount":     "-10",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown transaction yields 404", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodDelete, "/api/v1/transactions/9f3cbb1e-0000-0000-0000-000000000000", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLedgerAPI_ListTransactions(t *testing.T) {
	engine := setupTestServer(t)
	accountID := createTestAccount(t, engine, "Alice")

	for _, amount := range []string{"10", "30", "20"} {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/transactions", gin.H{
			"account_id": accountID,
			"direction":  "CREDIT",
			"amount":     amount,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	type listing struct {
		Data []struct {
			Amount string `json:"amount"`
		} `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasMore bool  `json:"has_more"`
		} `json:"meta"`
	}

	t.Run("defaults to newest first", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/accounts/"+accountID+"/transactions", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listing
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 3)
		assert.Equal(t, "20", resp.Data[0].Amount)
		assert.Equal(t, int64(3), resp.Meta.Total)
		assert.False(t, resp.Meta.HasMore)
	})

	t.Run("sort_field and order pick the ordering", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet,
			"/api/v1/accounts/"+accountID+"/transactions?sort_field=amount&order=ASC&page_size=2", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listing
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "10", resp.Data[0].Amount)
		assert.Equal(t, "20", resp.Data[1].Amount)
		assert.True(t, resp.Meta.HasMore)
	})

	t.Run("unknown sort_field falls back to occurrence order", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet,
			"/api/v1/accounts/"+accountID+"/transactions?sort_field=password", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listing
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 3)
		assert.Equal(t, "20", resp.Data[0].Amount)
	})
}

func TestLedgerAPI_ListingAndSearch(t *testing.T) {
	engine := setupTestServer(t)

	for i := 0; i < 5; i++ {
		createTestAccount(t, engine, fmt.Sprintf("Account %02d", i))
	}

	t.Run("paged listing carries meta", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/accounts?offset=0&page_size=2&sort=NAME_ASC", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    []struct {
				Name string `json:"name"`
			} `json:"data"`
			Meta struct {
				Total   int64 `json:"total"`
				HasMore bool  `json:"has_more"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, int64(5), resp.Meta.Total)
		assert.True(t, resp.Meta.HasMore)
	})

	t.Run("search returns the full match set", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/accounts?search=account&page_size=2", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []any `json:"data"`
			Meta struct {
				HasMore bool `json:"has_more"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 5)
		assert.False(t, resp.Meta.HasMore)
	})

	t.Run("unknown sort order rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/accounts?sort=SHUFFLED", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLedgerAPI_TotalsAndVerify(t *testing.T) {
	engine := setupTestServer(t)

	alice := createTestAccount(t, engine, "Alice")
	bob := createTestAccount(t, engine, "Bob")
	createTestAccount(t, engine, "Cara")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/transactions", gin.H{
		"account_id": alice, "direction": "CREDIT", "amount": "50",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, engine, http.MethodPost, "/api/v1/transactions", gin.H{
		"account_id": bob, "direction": "DEBIT", "amount": "20",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/ledger/totals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "50", data["owed_to_me"])
	assert.Equal(t, "20", data["i_owe"])
	assert.Equal(t, "30", data["net"])

	w = doJSON(t, engine, http.MethodPost, "/api/v1/ledger/verify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeData(t, w)["repaired"])
}

func TestLedgerAPI_SnapshotRoundTrip(t *testing.T) {
	source := setupTestServer(t)
	alice := createTestAccount(t, source, "Alice")

	w := doJSON(t, source, http.MethodPost, "/api/v1/transactions", gin.H{
		"account_id": alice, "direction": "CREDIT", "amount": "70",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, source, http.MethodGet, "/api/v1/ledger/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var export struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))

	target := setupTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/snapshot", bytes.NewReader(export.Data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	target.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	w = doJSON(t, target, http.MethodGet, "/api/v1/accounts/"+alice+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "70", decodeData(t, w)["balance"])

	t.Run("restore into non-empty ledger conflicts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/snapshot", bytes.NewReader(export.Data))
		req.Header.Set("Content-Type", "application/json")
		target.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestSystemEndpoints(t *testing.T) {
	engine := setupTestServer(t)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/system/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", decodeData(t, w)["message"])

	w = doJSON(t, engine, http.MethodGet, "/api/v1/system/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeData(t, w)["go_version"])
}
