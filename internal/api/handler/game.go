package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/vinyltrader/internal/api/request"
	"github.com/mcoot/vinyltrader/internal/api/response"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/game"
	"github.com/mcoot/vinyltrader/internal/services/roster"
)

// GameHandler handles game lifecycle and market endpoints
type GameHandler struct {
	rosterController roster.ControllerInterface
	gameController   game.ControllerInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(rosterController roster.ControllerInterface, gameController game.ControllerInterface) *GameHandler {
	return &GameHandler{
		rosterController: rosterController,
		gameController:   gameController,
	}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, host, err := h.rosterController.CreateGame(r.Context(), req.DisplayName, req.MaxHours)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateGameResponse{
		Game:   response.GameFromModel(g),
		Player: response.PlayerFromModel(host),
	})
}

// Get handles GET /api/v1/games/{game_id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	view, err := h.rosterController.GetGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameOverviewFromModel(view))
}

// Join handles POST /api/v1/games/{game_id}/players
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	var req request.JoinGameRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.rosterController.JoinGame(r.Context(), gameID, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(p))
}

// Leave handles DELETE /api/v1/games/{game_id}/players/{player_id}
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	res, err := h.rosterController.LeaveGame(r.Context(), model.GameID(vars["game_id"]), model.PlayerID(vars["player_id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TurnResultFromModel(res))
}

// Start handles POST /api/v1/games/{game_id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	var req request.StartGameRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	g, err := h.rosterController.StartGame(r.Context(), gameID, model.PlayerID(req.PlayerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Standings handles GET /api/v1/games/{game_id}/standings
func (h *GameHandler) Standings(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	standings, err := h.gameController.Standings(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StandingsFromModel(standings))
}

// Listings handles GET /api/v1/games/{game_id}/stores/{store_id}/listings
func (h *GameHandler) Listings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	listings, err := h.gameController.Market(r.Context(), model.GameID(vars["game_id"]), model.StoreID(vars["store_id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ListingsFromMarket(listings))
}
