package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally/backend/internal/interfaces/http/router"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping() error { return p.err }

func setupSystemServer(t *testing.T, store Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	router.NewRouter(engine).
		Register(NewSystemHandler(store)).
		Setup()
	return engine
}

func TestSystemPing(t *testing.T) {
	t.Run("pong when the store answers", func(t *testing.T) {
		engine := setupSystemServer(t, stubPinger{})

		w := doJSON(t, engine, http.MethodGet, "/api/v1/system/ping", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", decodeData(t, w)["message"])
	})

	t.Run("reports unavailable when the store is unreachable", func(t *testing.T) {
		engine := setupSystemServer(t, stubPinger{err: errors.New("database is closed")})

		w := doJSON(t, engine, http.MethodGet, "/api/v1/system/ping", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_STORAGE")
	})
}
