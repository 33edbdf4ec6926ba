package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/vinyltrader/internal/api/apierr"
	"github.com/mcoot/vinyltrader/internal/api/handler"
	"github.com/mcoot/vinyltrader/internal/api/middleware"
	"github.com/mcoot/vinyltrader/internal/api/response"
	"github.com/mcoot/vinyltrader/internal/services/game"
	"github.com/mcoot/vinyltrader/internal/services/roster"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	RosterController roster.ControllerInterface
	GameController   game.ControllerInterface
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	gameHandler := handler.NewGameHandler(cfg.RosterController, cfg.GameController)
	playerHandler := handler.NewPlayerHandler(cfg.GameController)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Games
	api.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}/players", gameHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/players/{player_id}", gameHandler.Leave).Methods(http.MethodDelete)
	api.HandleFunc("/games/{game_id}/start", gameHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/standings", gameHandler.Standings).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}/stores/{store_id}/listings", gameHandler.Listings).Methods(http.MethodGet)

	// Prices
	api.HandleFunc("/quotes", playerHandler.Quote).Methods(http.MethodPost)

	// Players
	api.HandleFunc("/players/{player_id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{player_id}/buy", playerHandler.Buy).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/sell", playerHandler.Sell).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/travel", playerHandler.Travel).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/actions", playerHandler.RequestAction).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/actions/confirm", playerHandler.ConfirmOverflow).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/end-turn", playerHandler.EndTurn).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/loan/borrow", playerHandler.Borrow).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/loan/repay", playerHandler.Repay).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
