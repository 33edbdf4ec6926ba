package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a log record
type TransactionType string

const (
	TransactionBuy       TransactionType = "buy"
	TransactionSell      TransactionType = "sell"
	TransactionTransport TransactionType = "transport"
)

// Valid returns true for known types
func (t TransactionType) Valid() bool {
	return t == TransactionBuy || t == TransactionSell || t == TransactionTransport
}

// TransactionRecord is an immutable entry in the transaction log
type TransactionRecord struct {
	ID        string
	GameID    GameID
	PlayerID  PlayerID
	ProductID ProductID // Empty for transport
	StoreID   StoreID   // Empty for transport
	Type      TransactionType
	Condition Condition
	Quantity  int
	UnitPrice decimal.Decimal
	Hour      int // Game hour (CurrentHour) when it happened

	// Transport only
	FromRegion RegionID
	ToRegion   RegionID

	CreatedAt time.Time
}

// PurchaseRecord answers "where, when and for how much was this bought"
type PurchaseRecord struct {
	StoreID   StoreID
	UnitPrice decimal.Decimal
	Hour      int
}

// PurchaseFrom projects a buy record
func PurchaseFrom(rec *TransactionRecord) PurchaseRecord {
	return PurchaseRecord{StoreID: rec.StoreID, UnitPrice: rec.UnitPrice, Hour: rec.Hour}
}
