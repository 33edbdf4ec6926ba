package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/vinyltrader/internal/api"
	"github.com/mcoot/vinyltrader/internal/api/apierr"
	"github.com/mcoot/vinyltrader/internal/api/response"
	"github.com/mcoot/vinyltrader/internal/factory"
	"github.com/mcoot/vinyltrader/internal/testutil"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:           testutil.NopLogger(),
		RosterController: app.RosterController,
		GameController:   app.GameController,
	})

	return &testServer{t: t, handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&reqBody).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

// startedGame creates a game with a host and one guest and starts it
func (ts *testServer) startedGame() (gameID, hostID, guestID string) {
	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]any{"display_name": "Host"})
	require.Equal(ts.t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[response.CreateGameResponse](ts.t, rr)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+created.Game.ID+"/players", map[string]any{"display_name": "Guest"})
	require.Equal(ts.t, http.StatusCreated, rr.Code, rr.Body.String())
	guest := decodeBody[response.Player](ts.t, rr)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+created.Game.ID+"/start", map[string]any{"player_id": created.Player.ID})
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())

	return created.Game.ID, created.Player.ID, guest.ID
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	body := decodeBody[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeNotFound, body.Error.Code)
}

func TestCreateAndGetGame(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]any{"display_name": "Host", "max_hours": 6})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[response.CreateGameResponse](t, rr)
	assert.Equal(t, "waiting", created.Game.Status)
	assert.Equal(t, 6, created.Game.MaxHours)
	assert.Equal(t, created.Player.ID, created.Game.HostID)
	assert.Equal(t, "100.00", created.Player.Cash)
	assert.Equal(t, "manhattan", created.Player.Location)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+created.Game.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	overview := decodeBody[response.GameOverview](t, rr)
	assert.Len(t, overview.Players, 1)
	assert.Equal(t, "waiting_for_players", overview.Phase)
}

func TestCreateGameValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]any{"display_name": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[apierr.ErrorResponse](t, rec)
	assert.Equal(t, apierr.CodeInvalidRequest, body.Error.Code)
}

func TestGameNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games/NOPE00", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	body := decodeBody[apierr.ErrorResponse](t, rr)
	assert.Equal(t, "GAME_NOT_FOUND", body.Error.Code)
}

func TestOnlyHostStarts(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]any{"display_name": "Host"})
	created := decodeBody[response.CreateGameResponse](t, rr)
	rr = ts.request(http.MethodPost, "/api/v1/games/"+created.Game.ID+"/players", map[string]any{"display_name": "Guest"})
	guest := decodeBody[response.Player](t, rr)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+created.Game.ID+"/start", map[string]any{"player_id": guest.ID})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+created.Game.ID+"/start", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestActionsBeforeStartAreRefused(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]any{"display_name": "Host"})
	created := decodeBody[response.CreateGameResponse](t, rr)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+created.Player.ID+"/end-turn", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeBody[apierr.ErrorResponse](t, rr)
	assert.Equal(t, "GAME_NOT_STARTED", body.Error.Code)
}

func TestQuoteBuyAndSell(t *testing.T) {
	ts := newTestServer(t)
	gameID, hostID, _ := ts.startedGame()

	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID+"/stores/academy-records/listings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	listings := decodeBody[[]response.Listing](t, rr)
	assert.Len(t, listings, 4)
	for _, l := range listings {
		assert.NotEmpty(t, l.BuyPrice)
	}

	rr = ts.request(http.MethodPost, "/api/v1/quotes", map[string]any{
		"player_id":  hostID,
		"store_id":   "academy-records",
		"product_id": "blue-train",
		"condition":  "good",
		"side":       "BUY",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	quote := decodeBody[response.Quote](t, rr)
	assert.Equal(t, "Good", quote.Condition)
	assert.Equal(t, "buy", quote.Side)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/buy", map[string]any{
		"store_id":       "academy-records",
		"product_id":     "blue-train",
		"condition":      "Good",
		"expected_price": "0.01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeBody[apierr.ErrorResponse](t, rr)
	assert.Equal(t, "QUOTE_MISMATCH", body.Error.Code)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/buy", map[string]any{
		"store_id":       "academy-records",
		"product_id":     "blue-train",
		"condition":      "Good",
		"expected_price": quote.UnitPrice,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	bought := decodeBody[response.BuyResponse](t, rr)
	assert.Equal(t, quote.UnitPrice, bought.Item.PurchasePrice)
	assert.Equal(t, "consumed", bought.Decision.Kind)
	assert.False(t, bought.TurnEnded)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/sell", map[string]any{
		"item_id":  bought.Item.ID,
		"store_id": "academy-records",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	sold := decodeBody[response.SellResponse](t, rr)
	assert.NotNil(t, sold.Quote.CapPrice)

	rr = ts.request(http.MethodGet, "/api/v1/players/"+hostID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	state := decodeBody[response.PlayerState](t, rr)
	assert.Empty(t, state.Inventory)
	assert.Len(t, state.Transactions, 2)
	assert.Equal(t, 2, state.Headroom)
	assert.Equal(t, sold.NewCash, state.Player.Cash)
}

func TestOverflowNeedsConfirmation(t *testing.T) {
	ts := newTestServer(t)
	_, hostID, _ := ts.startedGame()

	rr := ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/actions", map[string]any{"cost": 3})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decision := decodeBody[response.Decision](t, rr)
	assert.Equal(t, "consumed", decision.Kind)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/travel", map[string]any{"region_id": "staten-island"})
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	body := decodeBody[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeOverflowRequired, body.Error.Code)
	require.NotNil(t, body.Error.Overflow)
	assert.Equal(t, 2, body.Error.Overflow.Cost)
	assert.Equal(t, 1, body.Error.Overflow.Overflow)

	rr = ts.request(http.MethodGet, "/api/v1/players/"+hostID, nil)
	state := decodeBody[response.PlayerState](t, rr)
	assert.Equal(t, "manhattan", state.Player.Location)
	assert.Equal(t, 3, state.Player.ActionsUsedThisHour)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/travel", map[string]any{
		"region_id":      "staten-island",
		"allow_overflow": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	travelled := decodeBody[response.TravelResponse](t, rr)
	assert.Equal(t, "staten-island", travelled.Player.Location)
	assert.True(t, travelled.TurnEnded)
	assert.Equal(t, 1, travelled.Player.ActionsOverflow)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/end-turn", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestEndTurnAdvancesHour(t *testing.T) {
	ts := newTestServer(t)
	gameID, hostID, guestID := ts.startedGame()

	rr := ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/end-turn", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeBody[response.TurnResult](t, rr)
	assert.False(t, res.AllCompleted)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil)
	overview := decodeBody[response.GameOverview](t, rr)
	assert.Equal(t, "all_players_acting", overview.Phase)

	rr = ts.request(http.MethodDelete, "/api/v1/games/"+gameID+"/players/"+guestID, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res = decodeBody[response.TurnResult](t, rr)
	assert.True(t, res.AllCompleted)
	assert.Equal(t, 23, res.NewHour)
}

func TestLoans(t *testing.T) {
	ts := newTestServer(t)
	gameID, hostID, _ := ts.startedGame()

	rr := ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/loan/borrow", map[string]any{"amount": "50"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	p := decodeBody[response.Player](t, rr)
	assert.Equal(t, "150.00", p.Cash)
	assert.Equal(t, "50.00", p.Loan)

	rr = ts.request(http.MethodPost, "/api/v1/players/"+hostID+"/loan/repay", map[string]any{"amount": "20"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	p = decodeBody[response.Player](t, rr)
	assert.Equal(t, "130.00", p.Cash)
	assert.Equal(t, "30.00", p.Loan)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID+"/standings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	standings := decodeBody[[]response.Standing](t, rr)
	require.Len(t, standings, 2)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "100.00", standings[0].NetWorth)
}
