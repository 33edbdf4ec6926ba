package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so transports can map them without
// knowing every sentinel
type ErrorKind int

const (
	KindInternal   ErrorKind = iota // Infrastructure failure
	KindValidation                  // Bad input shape, no retry
	KindDomainRule                  // Refused by a game rule
	KindConflict                    // Optimistic check failed, retry the whole operation
	KindNotFound                    // Missing player/item/listing/etc
)

// String returns the kind name used in logs
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDomainRule:
		return "domain_rule"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified sentinel error. Compare with errors.Is.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// Not found
	ErrGameNotFound    = newError(KindNotFound, "GAME_NOT_FOUND", "game not found")
	ErrPlayerNotFound  = newError(KindNotFound, "PLAYER_NOT_FOUND", "player not found")
	ErrProductNotFound = newError(KindNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrStoreNotFound   = newError(KindNotFound, "STORE_NOT_FOUND", "store not found")
	ErrRegionNotFound  = newError(KindNotFound, "REGION_NOT_FOUND", "region not found")
	ErrListingNotFound = newError(KindNotFound, "LISTING_NOT_FOUND", "store listing not found")
	ErrItemNotFound    = newError(KindNotFound, "ITEM_NOT_FOUND", "inventory item not found")

	// Validation
	ErrInvalidRequest     = newError(KindValidation, "INVALID_REQUEST", "invalid request")
	ErrInvalidCondition   = newError(KindValidation, "INVALID_CONDITION", "condition must be Mint, Good, Fair or Poor")
	ErrInvalidSide        = newError(KindValidation, "INVALID_SIDE", "side must be buy or sell")
	ErrInvalidCost        = newError(KindValidation, "INVALID_COST", "action cost must be positive")
	ErrInvalidAmount      = newError(KindValidation, "INVALID_AMOUNT", "amount must be positive")
	ErrInvalidTransaction = newError(KindValidation, "INVALID_TRANSACTION", "invalid transaction record")
	ErrAlreadyInRegion    = newError(KindValidation, "ALREADY_IN_REGION", "player is already in that region")

	// Domain rules
	ErrDuplicateCondition = newError(KindDomainRule, "DUPLICATE_CONDITION", "player already owns this product in this condition")
	ErrCapacityExceeded   = newError(KindDomainRule, "CAPACITY_EXCEEDED", "inventory capacity exceeded")
	ErrInsufficientFunds  = newError(KindDomainRule, "INSUFFICIENT_FUNDS", "insufficient funds")
	ErrPriceExceedsCap    = newError(KindDomainRule, "PRICE_EXCEEDS_CAP", "sell price exceeds the same-store cap")
	ErrOutOfStock         = newError(KindDomainRule, "OUT_OF_STOCK", "store has no stock for this listing")
	ErrQuoteMismatch      = newError(KindDomainRule, "QUOTE_MISMATCH", "quoted price no longer matches the market")
	ErrGameNotStarted     = newError(KindDomainRule, "GAME_NOT_STARTED", "game has not started")
	ErrGameComplete       = newError(KindDomainRule, "GAME_COMPLETE", "game is already complete")
	ErrGameInProgress     = newError(KindDomainRule, "GAME_IN_PROGRESS", "game has already started")
	ErrNotHost            = newError(KindDomainRule, "NOT_HOST", "player is not the host")
	ErrNotInGame          = newError(KindDomainRule, "NOT_IN_GAME", "player is not in this game")
	ErrTurnEnded          = newError(KindDomainRule, "TURN_ENDED", "player has already ended this hour")
	ErrStoreNotInRegion   = newError(KindDomainRule, "STORE_NOT_IN_REGION", "store is not in the player's current region")
	ErrStoreClosed        = newError(KindDomainRule, "STORE_CLOSED", "store is closed at this hour")
	ErrNoRoute            = newError(KindDomainRule, "NO_ROUTE", "no route between regions")
	ErrLoanLimitExceeded  = newError(KindDomainRule, "LOAN_LIMIT_EXCEEDED", "loan limit exceeded")

	// Conflicts
	ErrConcurrentModification = newError(KindConflict, "CONCURRENT_MODIFICATION", "concurrent modification, retry the operation")
)

// OverflowRequiredError is returned when an action costs more than the
// player's remaining headroom and overflow was not allowed. Nothing was
// changed; repeat the call with overflow allowed to confirm.
type OverflowRequiredError struct {
	Decision ActionDecision
}

func (e *OverflowRequiredError) Error() string {
	return fmt.Sprintf("action needs %d more action(s) than remain this hour", e.Decision.Overflow)
}

// KindOf returns the classification of err, KindInternal if unclassified
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var oe *OverflowRequiredError
	if errors.As(err, &oe) {
		return KindDomainRule
	}
	return KindInternal
}

// IsRetryable reports whether the whole operation may be retried
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}

// Invalid wraps ErrInvalidRequest with a reason
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
