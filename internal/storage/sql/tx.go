package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

type sqlTx struct {
	tx *sqlx.Tx
}

var _ storage.Tx = (*sqlTx)(nil)

// Row types

type gameRow struct {
	ID             string    `db:"id"`
	HostID         string    `db:"host_id"`
	Status         string    `db:"status"`
	CurrentHour    int       `db:"current_hour"`
	MaxHours       int       `db:"max_hours"`
	StartClockHour int       `db:"start_clock_hour"`
	Version        int64     `db:"version"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func gameRowFrom(g *model.Game) gameRow {
	return gameRow{
		ID:             string(g.ID),
		HostID:         string(g.HostID),
		Status:         string(g.Status),
		CurrentHour:    g.CurrentHour,
		MaxHours:       g.MaxHours,
		StartClockHour: g.StartClockHour,
		Version:        g.Version,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func (r gameRow) toModel() *model.Game {
	return &model.Game{
		ID:             model.GameID(r.ID),
		HostID:         model.PlayerID(r.HostID),
		Status:         model.GameStatus(r.Status),
		CurrentHour:    r.CurrentHour,
		MaxHours:       r.MaxHours,
		StartClockHour: r.StartClockHour,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type playerRow struct {
	ID                string          `db:"id"`
	GameID            string          `db:"game_id"`
	DisplayName       string          `db:"display_name"`
	Cash              decimal.Decimal `db:"cash"`
	LoanAmount        decimal.Decimal `db:"loan_amount"`
	InventoryCapacity int             `db:"inventory_capacity"`
	Location          string          `db:"location"`
	ActionsUsed       int             `db:"actions_used"`
	ActionsOverflow   int             `db:"actions_overflow"`
	TurnCompleted     bool            `db:"turn_completed"`
	Version           int64           `db:"version"`
	JoinedAt          time.Time       `db:"joined_at"`
}

func playerRowFrom(p *model.Player) playerRow {
	return playerRow{
		ID:                string(p.ID),
		GameID:            string(p.GameID),
		DisplayName:       p.DisplayName,
		Cash:              p.Cash,
		LoanAmount:        p.LoanAmount,
		InventoryCapacity: p.InventoryCapacity,
		Location:          string(p.Location),
		ActionsUsed:       p.ActionsUsedThisHour,
		ActionsOverflow:   p.ActionsOverflow,
		TurnCompleted:     p.TurnCompleted,
		Version:           p.Version,
		JoinedAt:          p.JoinedAt,
	}
}

func (r playerRow) toModel() *model.Player {
	return &model.Player{
		ID:                  model.PlayerID(r.ID),
		GameID:              model.GameID(r.GameID),
		DisplayName:         r.DisplayName,
		Cash:                r.Cash,
		LoanAmount:          r.LoanAmount,
		InventoryCapacity:   r.InventoryCapacity,
		Location:            model.RegionID(r.Location),
		ActionsUsedThisHour: r.ActionsUsed,
		ActionsOverflow:     r.ActionsOverflow,
		TurnCompleted:       r.TurnCompleted,
		Version:             r.Version,
		JoinedAt:            r.JoinedAt,
	}
}

type listingRow struct {
	GameID       string          `db:"game_id"`
	StoreID      string          `db:"store_id"`
	ProductID    string          `db:"product_id"`
	Condition    string          `db:"cond"`
	Quantity     int             `db:"quantity"`
	CurrentPrice decimal.Decimal `db:"current_price"`
	Version      int64           `db:"version"`
}

func listingRowFrom(l *model.StoreListing) listingRow {
	return listingRow{
		GameID:       string(l.GameID),
		StoreID:      string(l.StoreID),
		ProductID:    string(l.ProductID),
		Condition:    string(l.Condition),
		Quantity:     l.Quantity,
		CurrentPrice: l.CurrentPrice,
		Version:      l.Version,
	}
}

func (r listingRow) toModel() *model.StoreListing {
	return &model.StoreListing{
		GameID:       model.GameID(r.GameID),
		StoreID:      model.StoreID(r.StoreID),
		ProductID:    model.ProductID(r.ProductID),
		Condition:    model.Condition(r.Condition),
		Quantity:     r.Quantity,
		CurrentPrice: r.CurrentPrice,
		Version:      r.Version,
	}
}

type itemRow struct {
	ID            string          `db:"id"`
	PlayerID      string          `db:"player_id"`
	ProductID     string          `db:"product_id"`
	Condition     string          `db:"cond"`
	Quantity      int             `db:"quantity"`
	PurchasePrice decimal.Decimal `db:"purchase_price"`
	StoreID       string          `db:"store_id"`
	Version       int64           `db:"version"`
	AcquiredAt    time.Time       `db:"acquired_at"`
}

func itemRowFrom(it *model.InventoryItem) itemRow {
	return itemRow{
		ID:            string(it.ID),
		PlayerID:      string(it.PlayerID),
		ProductID:     string(it.ProductID),
		Condition:     string(it.Condition),
		Quantity:      it.Quantity,
		PurchasePrice: it.PurchasePrice,
		StoreID:       string(it.StoreID),
		Version:       it.Version,
		AcquiredAt:    it.AcquiredAt,
	}
}

func (r itemRow) toModel() *model.InventoryItem {
	return &model.InventoryItem{
		ID:            model.ItemID(r.ID),
		PlayerID:      model.PlayerID(r.PlayerID),
		ProductID:     model.ProductID(r.ProductID),
		Condition:     model.Condition(r.Condition),
		Quantity:      r.Quantity,
		PurchasePrice: r.PurchasePrice,
		StoreID:       model.StoreID(r.StoreID),
		Version:       r.Version,
		AcquiredAt:    r.AcquiredAt,
	}
}

type transactionRow struct {
	ID         string          `db:"id"`
	GameID     string          `db:"game_id"`
	PlayerID   string          `db:"player_id"`
	ProductID  string          `db:"product_id"`
	StoreID    string          `db:"store_id"`
	Type       string          `db:"type"`
	Condition  string          `db:"cond"`
	Quantity   int             `db:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	Hour       int             `db:"hour"`
	FromRegion string          `db:"from_region"`
	ToRegion   string          `db:"to_region"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (r transactionRow) toModel() *model.TransactionRecord {
	return &model.TransactionRecord{
		ID:         r.ID,
		GameID:     model.GameID(r.GameID),
		PlayerID:   model.PlayerID(r.PlayerID),
		ProductID:  model.ProductID(r.ProductID),
		StoreID:    model.StoreID(r.StoreID),
		Type:       model.TransactionType(r.Type),
		Condition:  model.Condition(r.Condition),
		Quantity:   r.Quantity,
		UnitPrice:  r.UnitPrice,
		Hour:       r.Hour,
		FromRegion: model.RegionID(r.FromRegion),
		ToRegion:   model.RegionID(r.ToRegion),
		CreatedAt:  r.CreatedAt,
	}
}

const (
	gameColumns        = "id, host_id, status, current_hour, max_hours, start_clock_hour, version, created_at, updated_at"
	playerColumns      = "id, game_id, display_name, cash, loan_amount, inventory_capacity, location, actions_used, actions_overflow, turn_completed, version, joined_at"
	listingColumns     = "game_id, store_id, product_id, cond, quantity, current_price, version"
	itemColumns        = "id, player_id, product_id, cond, quantity, purchase_price, store_id, version, acquired_at"
	transactionColumns = "id, game_id, player_id, product_id, store_id, type, cond, quantity, unit_price, hour, from_region, to_region, created_at"
)

// save inserts when version is zero, otherwise runs a version-checked update.
// The row passed in must carry the version the caller read.
func (t *sqlTx) save(ctx context.Context, version *int64, insert, update string, row func() any) error {
	if *version == 0 {
		*version = 1
		if _, err := t.tx.NamedExecContext(ctx, insert, row()); err != nil {
			*version = 0
			if isUniqueViolation(err) {
				return model.ErrConcurrentModification
			}
			return mapError(err)
		}
		return nil
	}
	res, err := t.tx.NamedExecContext(ctx, update, row())
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrConcurrentModification
	}
	*version++
	return nil
}

// Games

func (t *sqlTx) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var row gameRow
	q := t.tx.Rebind("SELECT " + gameColumns + " FROM games WHERE id = ?")
	if err := t.tx.GetContext(ctx, &row, q, string(id)); err != nil {
		return nil, notFound(err, model.ErrGameNotFound)
	}
	return row.toModel(), nil
}

func (t *sqlTx) SaveGame(ctx context.Context, g *model.Game) error {
	return t.save(ctx, &g.Version,
		`INSERT INTO games (`+gameColumns+`) VALUES (:id, :host_id, :status, :current_hour, :max_hours, :start_clock_hour, :version, :created_at, :updated_at)`,
		`UPDATE games SET host_id = :host_id, status = :status, current_hour = :current_hour, max_hours = :max_hours,
			start_clock_hour = :start_clock_hour, updated_at = :updated_at, version = version + 1
		WHERE id = :id AND version = :version`,
		func() any { return gameRowFrom(g) })
}

// Players

func (t *sqlTx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var row playerRow
	q := t.tx.Rebind("SELECT " + playerColumns + " FROM players WHERE id = ?")
	if err := t.tx.GetContext(ctx, &row, q, string(id)); err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return row.toModel(), nil
}

func (t *sqlTx) SavePlayer(ctx context.Context, p *model.Player) error {
	return t.save(ctx, &p.Version,
		`INSERT INTO players (`+playerColumns+`) VALUES (:id, :game_id, :display_name, :cash, :loan_amount, :inventory_capacity,
			:location, :actions_used, :actions_overflow, :turn_completed, :version, :joined_at)`,
		`UPDATE players SET display_name = :display_name, cash = :cash, loan_amount = :loan_amount,
			inventory_capacity = :inventory_capacity, location = :location, actions_used = :actions_used,
			actions_overflow = :actions_overflow, turn_completed = :turn_completed, version = version + 1
		WHERE id = :id AND version = :version`,
		func() any { return playerRowFrom(p) })
}

func (t *sqlTx) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	_, err := t.tx.ExecContext(ctx, t.tx.Rebind("DELETE FROM players WHERE id = ?"), string(id))
	return mapError(err)
}

func (t *sqlTx) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	var rows []playerRow
	q := t.tx.Rebind("SELECT " + playerColumns + " FROM players WHERE game_id = ?")
	if err := t.tx.SelectContext(ctx, &rows, q, string(gameID)); err != nil {
		return nil, mapError(err)
	}
	out := make([]*model.Player, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	storage.SortPlayers(out)
	return out, nil
}

// Market

func (t *sqlTx) GetStoreListing(ctx context.Context, key model.ListingKey) (*model.StoreListing, error) {
	var row listingRow
	q := t.tx.Rebind("SELECT " + listingColumns + " FROM store_listings WHERE game_id = ? AND store_id = ? AND product_id = ? AND cond = ?")
	err := t.tx.GetContext(ctx, &row, q, string(key.GameID), string(key.StoreID), string(key.ProductID), string(key.Condition))
	if err != nil {
		return nil, notFound(err, model.ErrListingNotFound)
	}
	return row.toModel(), nil
}

func (t *sqlTx) ListStoreListings(ctx context.Context, gameID model.GameID, storeID model.StoreID) ([]*model.StoreListing, error) {
	var rows []listingRow
	q := t.tx.Rebind("SELECT " + listingColumns + " FROM store_listings WHERE game_id = ? AND store_id = ?")
	if err := t.tx.SelectContext(ctx, &rows, q, string(gameID), string(storeID)); err != nil {
		return nil, mapError(err)
	}
	out := make([]*model.StoreListing, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	storage.SortListings(out)
	return out, nil
}

func (t *sqlTx) SaveStoreListing(ctx context.Context, l *model.StoreListing) error {
	return t.save(ctx, &l.Version,
		`INSERT INTO store_listings (`+listingColumns+`) VALUES (:game_id, :store_id, :product_id, :cond, :quantity, :current_price, :version)`,
		`UPDATE store_listings SET quantity = :quantity, current_price = :current_price, version = version + 1
		WHERE game_id = :game_id AND store_id = :store_id AND product_id = :product_id AND cond = :cond AND version = :version`,
		func() any { return listingRowFrom(l) })
}

// Inventory

func (t *sqlTx) GetInventoryItem(ctx context.Context, playerID model.PlayerID, productID model.ProductID, cond model.Condition) (*model.InventoryItem, error) {
	var row itemRow
	q := t.tx.Rebind("SELECT " + itemColumns + " FROM inventory_items WHERE player_id = ? AND product_id = ? AND cond = ?")
	if err := t.tx.GetContext(ctx, &row, q, string(playerID), string(productID), string(cond)); err != nil {
		return nil, notFound(err, model.ErrItemNotFound)
	}
	return row.toModel(), nil
}

func (t *sqlTx) GetInventoryItemByID(ctx context.Context, id model.ItemID) (*model.InventoryItem, error) {
	var row itemRow
	q := t.tx.Rebind("SELECT " + itemColumns + " FROM inventory_items WHERE id = ?")
	if err := t.tx.GetContext(ctx, &row, q, string(id)); err != nil {
		return nil, notFound(err, model.ErrItemNotFound)
	}
	return row.toModel(), nil
}

func (t *sqlTx) ListInventory(ctx context.Context, playerID model.PlayerID) ([]*model.InventoryItem, error) {
	var rows []itemRow
	q := t.tx.Rebind("SELECT " + itemColumns + " FROM inventory_items WHERE player_id = ?")
	if err := t.tx.SelectContext(ctx, &rows, q, string(playerID)); err != nil {
		return nil, mapError(err)
	}
	out := make([]*model.InventoryItem, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	storage.SortInventory(out)
	return out, nil
}

func (t *sqlTx) SaveInventoryItem(ctx context.Context, it *model.InventoryItem) error {
	if it.Version == 0 {
		// The (player, product, condition) unique index would also catch this,
		// but on Postgres a failed statement poisons the transaction
		var n int
		q := t.tx.Rebind("SELECT COUNT(*) FROM inventory_items WHERE player_id = ? AND product_id = ? AND cond = ?")
		if err := t.tx.GetContext(ctx, &n, q, string(it.PlayerID), string(it.ProductID), string(it.Condition)); err != nil {
			return mapError(err)
		}
		if n > 0 {
			return model.ErrDuplicateCondition
		}
	}
	return t.save(ctx, &it.Version,
		`INSERT INTO inventory_items (`+itemColumns+`) VALUES (:id, :player_id, :product_id, :cond, :quantity,
			:purchase_price, :store_id, :version, :acquired_at)`,
		`UPDATE inventory_items SET quantity = :quantity, purchase_price = :purchase_price, store_id = :store_id,
			version = version + 1
		WHERE id = :id AND version = :version`,
		func() any { return itemRowFrom(it) })
}

func (t *sqlTx) DeleteInventoryItem(ctx context.Context, id model.ItemID) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind("DELETE FROM inventory_items WHERE id = ?"), string(id))
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// Transaction log

func (t *sqlTx) AppendTransaction(ctx context.Context, rec *model.TransactionRecord) error {
	row := transactionRow{
		ID:         rec.ID,
		GameID:     string(rec.GameID),
		PlayerID:   string(rec.PlayerID),
		ProductID:  string(rec.ProductID),
		StoreID:    string(rec.StoreID),
		Type:       string(rec.Type),
		Condition:  string(rec.Condition),
		Quantity:   rec.Quantity,
		UnitPrice:  rec.UnitPrice,
		Hour:       rec.Hour,
		FromRegion: string(rec.FromRegion),
		ToRegion:   string(rec.ToRegion),
		CreatedAt:  rec.CreatedAt,
	}
	_, err := t.tx.NamedExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (:id, :game_id, :player_id, :product_id, :store_id, :type, :cond, :quantity, :unit_price,
			:hour, :from_region, :to_region, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("append transaction: %w", mapError(err))
	}
	return nil
}

func (t *sqlTx) MostRecentPurchase(ctx context.Context, playerID model.PlayerID, productID model.ProductID) (model.PurchaseRecord, bool, error) {
	var rows []transactionRow
	q := t.tx.Rebind("SELECT " + transactionColumns + " FROM transactions WHERE player_id = ? AND product_id = ? AND type = ? ORDER BY seq DESC LIMIT 1")
	if err := t.tx.SelectContext(ctx, &rows, q, string(playerID), string(productID), string(model.TransactionBuy)); err != nil {
		return model.PurchaseRecord{}, false, mapError(err)
	}
	if len(rows) == 0 {
		return model.PurchaseRecord{}, false, nil
	}
	return model.PurchaseFrom(rows[0].toModel()), true, nil
}

func (t *sqlTx) ListTransactions(ctx context.Context, playerID model.PlayerID) ([]*model.TransactionRecord, error) {
	var rows []transactionRow
	q := t.tx.Rebind("SELECT " + transactionColumns + " FROM transactions WHERE player_id = ? ORDER BY seq")
	if err := t.tx.SelectContext(ctx, &rows, q, string(playerID)); err != nil {
		return nil, mapError(err)
	}
	out := make([]*model.TransactionRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}
