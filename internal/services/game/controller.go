package game

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/dependencies/clock"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/rules"
	"github.com/mcoot/vinyltrader/internal/services/budget"
	"github.com/mcoot/vinyltrader/internal/services/ledger"
	"github.com/mcoot/vinyltrader/internal/services/pricing"
	"github.com/mcoot/vinyltrader/internal/services/travel"
	"github.com/mcoot/vinyltrader/internal/services/turn"
	"github.com/mcoot/vinyltrader/internal/services/txlog"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Controller runs player actions. Every mutating call is one storage
// transaction, retried from the start when it loses a race.
type Controller struct {
	storage storage.Storage
	catalog storage.Catalog
	engine  *pricing.Engine
	ledger  *ledger.Ledger
	budget  *budget.Budget
	turns   *turn.Coordinator
	txlog   *txlog.Log
	rules   rules.Rules
	clock   clock.Clock
	logger  *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	catalog storage.Catalog,
	engine *pricing.Engine,
	ledger *ledger.Ledger,
	budget *budget.Budget,
	turns *turn.Coordinator,
	txlog *txlog.Log,
	rules rules.Rules,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		catalog: catalog,
		engine:  engine,
		ledger:  ledger,
		budget:  budget,
		turns:   turns,
		txlog:   txlog,
		rules:   rules,
		clock:   clock,
		logger:  logger,
	}
}

// QuotePrice returns the authoritative price for one unit. Nothing changes.
func (c *Controller) QuotePrice(ctx context.Context, req QuoteRequest) (model.PriceQuote, error) {
	if !req.Side.Valid() {
		return model.PriceQuote{}, model.ErrInvalidSide
	}
	if !req.Condition.Valid() {
		return model.PriceQuote{}, model.ErrInvalidCondition
	}

	var q model.PriceQuote
	err := c.storage.Atomically(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(ctx, req.PlayerID)
		if err != nil {
			return err
		}
		g, err := tx.GetGame(ctx, p.GameID)
		if err != nil {
			return err
		}
		q, err = c.quote(ctx, tx, g, p, req.StoreID, req.ProductID, req.Condition, req.Side)
		return err
	})
	return q, err
}

// Buy purchases one unit from a store in the player's borough
func (c *Controller) Buy(ctx context.Context, req BuyRequest) (*BuyResult, error) {
	if !req.Condition.Valid() {
		return nil, model.ErrInvalidCondition
	}

	var res *BuyResult
	err := c.atomically(ctx, func(tx storage.Tx) error {
		g, p, err := c.loadActor(ctx, tx, req.PlayerID)
		if err != nil {
			return err
		}
		if err := c.checkStore(ctx, g, p, req.StoreID); err != nil {
			return err
		}

		listing, err := tx.GetStoreListing(ctx, model.ListingKey{
			GameID:    g.ID,
			StoreID:   req.StoreID,
			ProductID: req.ProductID,
			Condition: req.Condition,
		})
		if errors.Is(err, model.ErrListingNotFound) {
			return model.ErrOutOfStock
		}
		if err != nil {
			return err
		}

		q, err := c.quote(ctx, tx, g, p, req.StoreID, req.ProductID, req.Condition, model.SideBuy)
		if err != nil {
			return err
		}
		if err := checkExpected(req.ExpectedPrice, q); err != nil {
			return err
		}

		// Refuse on game rules before asking about overflow
		if err := c.ledger.CheckAcquire(ctx, tx, p, req.ProductID, req.Condition); err != nil {
			return err
		}
		if p.Cash.LessThan(q.UnitPrice) {
			return model.ErrInsufficientFunds
		}
		if listing.Quantity <= 0 {
			return model.ErrOutOfStock
		}

		out, err := c.spend(p, c.rules.BuyCost, req.AllowOverflow)
		if err != nil {
			return err
		}
		item, err := c.ledger.ApplyBuy(ctx, tx, p, listing, req.Condition, q.UnitPrice, g.CurrentHour)
		if err != nil {
			return err
		}
		if err := c.finish(ctx, tx, g, &out); err != nil {
			return err
		}
		res = &BuyResult{Item: item, Quote: q, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("record bought",
		slog.String("player_id", string(req.PlayerID)),
		slog.String("store_id", string(req.StoreID)),
		slog.String("product_id", string(req.ProductID)),
		slog.String("condition", string(req.Condition)),
		slog.String("price", res.Quote.UnitPrice.StringFixed(2)),
	)
	return res, nil
}

// Sell sells one unit of an inventory item to a store in the player's borough
func (c *Controller) Sell(ctx context.Context, req SellRequest) (*SellResult, error) {
	var res *SellResult
	err := c.atomically(ctx, func(tx storage.Tx) error {
		g, p, err := c.loadActor(ctx, tx, req.PlayerID)
		if err != nil {
			return err
		}
		if err := c.checkStore(ctx, g, p, req.StoreID); err != nil {
			return err
		}

		item, err := tx.GetInventoryItemByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if item.PlayerID != p.ID {
			return model.ErrItemNotFound
		}

		q, err := c.quote(ctx, tx, g, p, req.StoreID, item.ProductID, item.Condition, model.SideSell)
		if err != nil {
			return err
		}
		if err := checkExpected(req.ExpectedPrice, q); err != nil {
			return err
		}
		if err := pricing.CheckCap(q); err != nil {
			return err
		}

		out, err := c.spend(p, c.rules.SellCost, req.AllowOverflow)
		if err != nil {
			return err
		}
		delta, err := c.ledger.ApplySell(ctx, tx, p, item, req.StoreID, q, g.CurrentHour)
		if err != nil {
			return err
		}
		if err := c.finish(ctx, tx, g, &out); err != nil {
			return err
		}
		res = &SellResult{Delta: delta, Quote: q, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("record sold",
		slog.String("player_id", string(req.PlayerID)),
		slog.String("store_id", string(req.StoreID)),
		slog.String("item_id", string(req.ItemID)),
		slog.String("price", res.Quote.UnitPrice.StringFixed(2)),
		slog.Bool("capped", res.Quote.Capped),
	)
	return res, nil
}

// Travel moves the player along the cheapest route to another borough
func (c *Controller) Travel(ctx context.Context, req TravelRequest) (*TravelResult, error) {
	var res *TravelResult
	err := c.atomically(ctx, func(tx storage.Tx) error {
		g, p, err := c.loadActor(ctx, tx, req.PlayerID)
		if err != nil {
			return err
		}

		regions, err := c.catalog.ListRegions(ctx)
		if err != nil {
			return err
		}
		planner, err := travel.New(regions)
		if err != nil {
			return err
		}
		route, err := planner.Route(p.Location, req.RegionID)
		if err != nil {
			return err
		}

		out, err := c.spend(p, route.Cost, req.AllowOverflow)
		if err != nil {
			return err
		}
		from := p.Location
		p.Location = req.RegionID
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		err = c.txlog.Append(ctx, tx, &model.TransactionRecord{
			GameID:     g.ID,
			PlayerID:   p.ID,
			Type:       model.TransactionTransport,
			Quantity:   1,
			UnitPrice:  decimal.Zero,
			Hour:       g.CurrentHour,
			FromRegion: from,
			ToRegion:   req.RegionID,
		})
		if err != nil {
			return err
		}
		if err := c.finish(ctx, tx, g, &out); err != nil {
			return err
		}

		if p, err = tx.GetPlayer(ctx, p.ID); err != nil {
			return err
		}
		res = &TravelResult{Route: route, Player: p, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player travelled",
		slog.String("player_id", string(req.PlayerID)),
		slog.String("region_id", string(req.RegionID)),
		slog.Int("cost", res.Route.Cost),
	)
	return res, nil
}

// RequestAction spends cost actions if they fit in the hour. When they do
// not, the returned decision says how many would be borrowed and nothing
// is changed.
func (c *Controller) RequestAction(ctx context.Context, playerID model.PlayerID, cost int) (model.ActionDecision, error) {
	if cost <= 0 {
		return model.ActionDecision{}, model.ErrInvalidCost
	}

	var d model.ActionDecision
	err := c.atomically(ctx, func(tx storage.Tx) error {
		_, p, err := c.loadActor(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if d, err = c.budget.TryConsume(p, cost); err != nil {
			return err
		}
		if d.Kind != model.DecisionConsumed {
			return nil
		}
		return tx.SavePlayer(ctx, p)
	})
	return d, err
}

// ConfirmOverflow answers an earlier overflow decision. Accepting spends the
// rest of the hour, borrows the shortfall and ends the player's turn.
// Declining changes nothing.
func (c *Controller) ConfirmOverflow(ctx context.Context, playerID model.PlayerID, conf OverflowConfirmation) (*ConfirmResult, error) {
	if conf.Cost <= 0 {
		return nil, model.ErrInvalidCost
	}

	var res *ConfirmResult
	err := c.atomically(ctx, func(tx storage.Tx) error {
		g, p, err := c.loadActor(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if !conf.Accept {
			d, err := c.budget.Evaluate(p, conf.Cost)
			if err != nil {
				return err
			}
			res = &ConfirmResult{Outcome: Outcome{Decision: d}}
			return nil
		}

		out, err := c.spend(p, conf.Cost, true)
		if err != nil {
			return err
		}
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		if err := c.finish(ctx, tx, g, &out); err != nil {
			return err
		}
		res = &ConfirmResult{Accepted: true, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Accepted && res.TurnEnded {
		c.logger.Info("overflow confirmed",
			slog.String("player_id", string(playerID)),
			slog.Int("overflow", res.Decision.Overflow),
		)
	}
	return res, nil
}

// EndTurn finishes the player's hour. The last player to finish advances
// the clock for everyone.
func (c *Controller) EndTurn(ctx context.Context, playerID model.PlayerID) (model.TurnResult, error) {
	var res model.TurnResult
	var gameID model.GameID
	err := c.atomically(ctx, func(tx storage.Tx) error {
		g, p, err := c.loadActor(ctx, tx, playerID)
		if err != nil {
			return err
		}
		gameID = g.ID
		if err := c.turns.MarkPlayerDone(p); err != nil {
			return err
		}
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		res, err = c.turns.Settle(ctx, tx, g)
		return err
	})
	if err != nil {
		return model.TurnResult{}, err
	}

	c.logTurn(gameID, playerID, res)
	return res, nil
}

// Borrow adds to the player's loan and cash
func (c *Controller) Borrow(ctx context.Context, playerID model.PlayerID, amount decimal.Decimal) (*model.Player, error) {
	if !amount.IsPositive() {
		return nil, model.ErrInvalidAmount
	}
	amount = amount.Round(2)

	var out *model.Player
	err := c.atomically(ctx, func(tx storage.Tx) error {
		p, err := c.loadBanker(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if p.LoanAmount.Add(amount).GreaterThan(c.rules.MaxLoan) {
			return model.ErrLoanLimitExceeded
		}
		p.LoanAmount = p.LoanAmount.Add(amount)
		p.Cash = p.Cash.Add(amount)
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("loan taken",
		slog.String("player_id", string(playerID)),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("loan", out.LoanAmount.StringFixed(2)),
	)
	return out, nil
}

// Repay pays part or all of the loan from cash
func (c *Controller) Repay(ctx context.Context, playerID model.PlayerID, amount decimal.Decimal) (*model.Player, error) {
	if !amount.IsPositive() {
		return nil, model.ErrInvalidAmount
	}
	amount = amount.Round(2)

	var out *model.Player
	err := c.atomically(ctx, func(tx storage.Tx) error {
		p, err := c.loadBanker(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(p.LoanAmount) {
			return model.Invalid("repayment %s is more than the loan %s", amount.StringFixed(2), p.LoanAmount.StringFixed(2))
		}
		if p.Cash.LessThan(amount) {
			return model.ErrInsufficientFunds
		}
		p.LoanAmount = p.LoanAmount.Sub(amount)
		p.Cash = p.Cash.Sub(amount)
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("loan repaid",
		slog.String("player_id", string(playerID)),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("loan", out.LoanAmount.StringFixed(2)),
	)
	return out, nil
}

// Standings ranks the game's players by net worth, richest first
func (c *Controller) Standings(ctx context.Context, gameID model.GameID) ([]model.Standing, error) {
	var out []model.Standing
	err := c.storage.Atomically(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetGame(ctx, gameID); err != nil {
			return err
		}
		players, err := tx.ListPlayers(ctx, gameID)
		if err != nil {
			return err
		}

		out = make([]model.Standing, 0, len(players))
		for _, p := range players {
			items, err := tx.ListInventory(ctx, p.ID)
			if err != nil {
				return err
			}
			holdings := decimal.Zero
			for _, it := range items {
				holdings = holdings.Add(it.PurchasePrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
			out = append(out, model.Standing{
				PlayerID:    p.ID,
				DisplayName: p.DisplayName,
				Cash:        p.Cash,
				Loan:        p.LoanAmount,
				Holdings:    holdings,
				NetWorth:    p.Cash.Sub(p.LoanAmount).Add(holdings),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b model.Standing) int {
		if n := b.NetWorth.Cmp(a.NetWorth); n != 0 {
			return n
		}
		return cmp.Compare(a.DisplayName, b.DisplayName)
	})
	return out, nil
}

// PlayerState returns the player with their holdings and history
func (c *Controller) PlayerState(ctx context.Context, playerID model.PlayerID) (*PlayerState, error) {
	var out *PlayerState
	err := c.storage.Atomically(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		g, err := tx.GetGame(ctx, p.GameID)
		if err != nil {
			return err
		}
		items, err := tx.ListInventory(ctx, playerID)
		if err != nil {
			return err
		}
		history, err := c.txlog.History(ctx, tx, playerID)
		if err != nil {
			return err
		}
		out = &PlayerState{
			Player:       p,
			Game:         g,
			Inventory:    items,
			Headroom:     c.budget.Headroom(p),
			Transactions: history,
		}
		return nil
	})
	return out, err
}

// MarketListing is a store listing with what one unit costs to buy at the
// current game hour. CurrentPrice is the condition-neutral posted price sell
// quotes start from.
type MarketListing struct {
	*model.StoreListing
	BuyPrice decimal.Decimal
}

// Market lists what a store has on its shelves in a game
func (c *Controller) Market(ctx context.Context, gameID model.GameID, storeID model.StoreID) ([]MarketListing, error) {
	if _, err := c.catalog.GetStore(ctx, storeID); err != nil {
		return nil, err
	}

	var out []MarketListing
	err := c.storage.Atomically(ctx, func(tx storage.Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		listings, err := tx.ListStoreListings(ctx, gameID, storeID)
		if err != nil {
			return err
		}
		out = make([]MarketListing, 0, len(listings))
		for _, l := range listings {
			q, err := c.quote(ctx, tx, g, nil, storeID, l.ProductID, l.Condition, model.SideBuy)
			if err != nil {
				return err
			}
			out = append(out, MarketListing{StoreListing: l, BuyPrice: q.UnitPrice})
		}
		return nil
	})
	return out, err
}

// quote prices one unit against the current game clock. Sell quotes also
// need the player, for the same-store cap.
func (c *Controller) quote(ctx context.Context, tx storage.Tx, g *model.Game, p *model.Player, storeID model.StoreID, productID model.ProductID, cond model.Condition, side model.Side) (model.PriceQuote, error) {
	store, err := c.catalog.GetStore(ctx, storeID)
	if err != nil {
		return model.PriceQuote{}, err
	}
	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return model.PriceQuote{}, err
	}
	region, err := c.catalog.GetRegion(ctx, store.RegionID)
	if err != nil && !errors.Is(err, model.ErrRegionNotFound) {
		return model.PriceQuote{}, err
	}

	in := pricing.Input{
		Product:   product,
		Condition: cond,
		Store:     store,
		Region:    region,
		ClockHour: g.ClockHour(),
		Side:      side,
	}
	if side == model.SideSell {
		listing, err := tx.GetStoreListing(ctx, model.ListingKey{GameID: g.ID, StoreID: storeID, ProductID: productID, Condition: cond})
		switch {
		case err == nil:
			in.PostedPrice = decimal.NewNullDecimal(listing.CurrentPrice)
		case !errors.Is(err, model.ErrListingNotFound):
			return model.PriceQuote{}, err
		}

		if in.LastPurchase, err = c.purchaseOf(ctx, tx, p, productID, cond); err != nil {
			return model.PriceQuote{}, err
		}
	}
	return c.engine.Quote(in)
}

// purchaseOf returns where the player bought the copy of (product, condition)
// they hold and what they paid. With no copy held the latest purchase of the
// product stands in.
func (c *Controller) purchaseOf(ctx context.Context, tx storage.Tx, p *model.Player, productID model.ProductID, cond model.Condition) (*model.PurchaseRecord, error) {
	item, err := tx.GetInventoryItem(ctx, p.ID, productID, cond)
	switch {
	case err == nil:
		return &model.PurchaseRecord{StoreID: item.StoreID, UnitPrice: item.PurchasePrice}, nil
	case !errors.Is(err, model.ErrItemNotFound):
		return nil, err
	}

	last, ok, err := c.txlog.MostRecentPurchase(ctx, tx, p.ID, productID)
	if err != nil || !ok {
		return nil, err
	}
	return &last, nil
}

// loadActor loads a player who is about to spend actions
func (c *Controller) loadActor(ctx context.Context, tx storage.Tx, playerID model.PlayerID) (*model.Game, *model.Player, error) {
	p, err := tx.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	g, err := tx.GetGame(ctx, p.GameID)
	if err != nil {
		return nil, nil, err
	}
	if err := g.CheckActive(); err != nil {
		return nil, nil, err
	}
	if p.TurnCompleted {
		return nil, nil, model.ErrTurnEnded
	}
	return g, p, nil
}

// loadBanker loads a player for a loan change, which costs no actions
func (c *Controller) loadBanker(ctx context.Context, tx storage.Tx, playerID model.PlayerID) (*model.Player, error) {
	p, err := tx.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	g, err := tx.GetGame(ctx, p.GameID)
	if err != nil {
		return nil, err
	}
	if err := g.CheckActive(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkStore checks the store is in the player's borough and open now
func (c *Controller) checkStore(ctx context.Context, g *model.Game, p *model.Player, storeID model.StoreID) error {
	store, err := c.catalog.GetStore(ctx, storeID)
	if err != nil {
		return err
	}
	if store.RegionID != p.Location {
		return model.ErrStoreNotInRegion
	}
	if !store.IsOpen(g.ClockHour()) {
		return model.ErrStoreClosed
	}
	return nil
}

// spend charges cost to the player in memory. Borrowing from the next hour
// needs allowOverflow and ends the player's turn.
func (c *Controller) spend(p *model.Player, cost int, allowOverflow bool) (Outcome, error) {
	d, err := c.budget.TryConsume(p, cost)
	if err != nil {
		return Outcome{}, err
	}
	if d.Kind == model.DecisionConsumed {
		return Outcome{Decision: d}, nil
	}
	if !allowOverflow {
		return Outcome{}, &model.OverflowRequiredError{Decision: d}
	}

	if d, err = c.budget.ApplyOverflow(p, cost); err != nil {
		return Outcome{}, err
	}
	if err := c.turns.MarkPlayerDone(p); err != nil {
		return Outcome{}, err
	}
	return Outcome{Decision: d, TurnEnded: true}, nil
}

// finish runs the barrier check for an action that ended the player's turn.
// The player must already be saved.
func (c *Controller) finish(ctx context.Context, tx storage.Tx, g *model.Game, out *Outcome) error {
	if !out.TurnEnded {
		return nil
	}
	res, err := c.turns.Settle(ctx, tx, g)
	if err != nil {
		return err
	}
	out.Turn = res
	return nil
}

func (c *Controller) logTurn(gameID model.GameID, playerID model.PlayerID, res model.TurnResult) {
	switch {
	case res.GameOver:
		c.logger.Info("game completed",
			slog.String("game_id", string(gameID)),
			slog.String("last_player_id", string(playerID)),
		)
	case res.AllCompleted:
		c.logger.Info("hour advanced",
			slog.String("game_id", string(gameID)),
			slog.Int("current_hour", res.NewHour),
		)
	}
}

func (c *Controller) atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	err := storage.AtomicallyWithRetry(ctx, c.storage, c.rules.MaxTxRetries, fn)
	if model.IsRetryable(err) {
		c.logger.Warn("transaction kept conflicting", slog.Int("attempts", c.rules.MaxTxRetries))
	}
	return err
}

func checkExpected(expected decimal.NullDecimal, q model.PriceQuote) error {
	if expected.Valid && !expected.Decimal.Round(2).Equal(q.UnitPrice) {
		return model.ErrQuoteMismatch
	}
	return nil
}

// ControllerInterface for dependency injection
type ControllerInterface interface {
	QuotePrice(ctx context.Context, req QuoteRequest) (model.PriceQuote, error)
	Buy(ctx context.Context, req BuyRequest) (*BuyResult, error)
	Sell(ctx context.Context, req SellRequest) (*SellResult, error)
	Travel(ctx context.Context, req TravelRequest) (*TravelResult, error)
	RequestAction(ctx context.Context, playerID model.PlayerID, cost int) (model.ActionDecision, error)
	ConfirmOverflow(ctx context.Context, playerID model.PlayerID, conf OverflowConfirmation) (*ConfirmResult, error)
	EndTurn(ctx context.Context, playerID model.PlayerID) (model.TurnResult, error)
	Borrow(ctx context.Context, playerID model.PlayerID, amount decimal.Decimal) (*model.Player, error)
	Repay(ctx context.Context, playerID model.PlayerID, amount decimal.Decimal) (*model.Player, error)
	Standings(ctx context.Context, gameID model.GameID) ([]model.Standing, error)
	PlayerState(ctx context.Context, playerID model.PlayerID) (*PlayerState, error)
	Market(ctx context.Context, gameID model.GameID, storeID model.StoreID) ([]MarketListing, error)
}

var _ ControllerInterface = (*Controller)(nil)
