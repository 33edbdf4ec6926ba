package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/vinyltrader/internal/api/request"
	"github.com/mcoot/vinyltrader/internal/api/response"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/game"
)

// PlayerHandler handles player action endpoints
type PlayerHandler struct {
	gameController game.ControllerInterface
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(gameController game.ControllerInterface) *PlayerHandler {
	return &PlayerHandler{gameController: gameController}
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["player_id"])
}

// Get handles GET /api/v1/players/{player_id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.gameController.PlayerState(r.Context(), playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerStateFromModel(state))
}

// Quote handles POST /api/v1/quotes
func (h *PlayerHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req request.QuoteRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	cond, err := model.ParseCondition(req.Condition)
	if err != nil {
		WriteError(w, err)
		return
	}

	q, err := h.gameController.QuotePrice(r.Context(), game.QuoteRequest{
		PlayerID:  model.PlayerID(req.PlayerID),
		StoreID:   model.StoreID(req.StoreID),
		ProductID: model.ProductID(req.ProductID),
		Condition: cond,
		Side:      model.Side(strings.ToLower(req.Side)),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QuoteFromModel(q))
}

// Buy handles POST /api/v1/players/{player_id}/buy
func (h *PlayerHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req request.BuyRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	cond, err := model.ParseCondition(req.Condition)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.gameController.Buy(r.Context(), game.BuyRequest{
		PlayerID:      playerID(r),
		StoreID:       model.StoreID(req.StoreID),
		ProductID:     model.ProductID(req.ProductID),
		Condition:     cond,
		ExpectedPrice: req.ExpectedPrice,
		AllowOverflow: req.AllowOverflow,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BuyResponseFromResult(res))
}

// Sell handles POST /api/v1/players/{player_id}/sell
func (h *PlayerHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req request.SellRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.gameController.Sell(r.Context(), game.SellRequest{
		PlayerID:      playerID(r),
		ItemID:        model.ItemID(req.ItemID),
		StoreID:       model.StoreID(req.StoreID),
		ExpectedPrice: req.ExpectedPrice,
		AllowOverflow: req.AllowOverflow,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SellResponseFromResult(res))
}

// Travel handles POST /api/v1/players/{player_id}/travel
func (h *PlayerHandler) Travel(w http.ResponseWriter, r *http.Request) {
	var req request.TravelRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.gameController.Travel(r.Context(), game.TravelRequest{
		PlayerID:      playerID(r),
		RegionID:      model.RegionID(req.RegionID),
		AllowOverflow: req.AllowOverflow,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TravelResponseFromResult(res))
}

// RequestAction handles POST /api/v1/players/{player_id}/actions
func (h *PlayerHandler) RequestAction(w http.ResponseWriter, r *http.Request) {
	var req request.ActionRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	d, err := h.gameController.RequestAction(r.Context(), playerID(r), req.Cost)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.DecisionFromModel(d))
}

// ConfirmOverflow handles POST /api/v1/players/{player_id}/actions/confirm
func (h *PlayerHandler) ConfirmOverflow(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmOverflowRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.gameController.ConfirmOverflow(r.Context(), playerID(r), game.OverflowConfirmation{
		Cost:   req.Cost,
		Accept: req.Accept,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ConfirmResponseFromResult(res))
}

// EndTurn handles POST /api/v1/players/{player_id}/end-turn
func (h *PlayerHandler) EndTurn(w http.ResponseWriter, r *http.Request) {
	res, err := h.gameController.EndTurn(r.Context(), playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TurnResultFromModel(res))
}

// Borrow handles POST /api/v1/players/{player_id}/loan/borrow
func (h *PlayerHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req request.LoanRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.gameController.Borrow(r.Context(), playerID(r), req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
}

// Repay handles POST /api/v1/players/{player_id}/loan/repay
func (h *PlayerHandler) Repay(w http.ResponseWriter, r *http.Request) {
	var req request.LoanRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.gameController.Repay(r.Context(), playerID(r), req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
}
