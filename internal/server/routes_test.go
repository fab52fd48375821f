package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllaclash/backend/internal/game"
	"github.com/syllaclash/backend/internal/lexicon"
	"github.com/syllaclash/backend/internal/syllable"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	idx := lexicon.Build([]lexicon.Entry{{Word: "apple"}})
	sel := syllable.NewSelector(syllable.Pools{Easy: []string{"a"}})
	return &Server{
		port:     8080,
		registry: game.NewRegistry(idx, sel, game.DefaultConfig()),
	}
}

func TestHealthHandler(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.RegisterRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetAvailableRoomsEmpty(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/rooms-available", nil)
	rec := httptest.NewRecorder()

	s.RegisterRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, resp.RespEndTime, resp.RespStartTime)
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/rooms-available", nil)
	rec := httptest.NewRecorder()

	s.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
