package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameID uniquely identifies a game
type GameID string

// GameStatus represents the lifecycle stage of a game
type GameStatus string

const (
	GameStatusWaiting   GameStatus = "waiting"   // Host created it, players joining
	GameStatusActive    GameStatus = "active"    // Hours are counting down
	GameStatusCompleted GameStatus = "completed" // Clock reached zero or everyone left
)

// Game is a single trading session shared by all of its players
type Game struct {
	ID     GameID
	HostID PlayerID
	Status GameStatus

	// Clock: CurrentHour counts down from MaxHours to 0
	CurrentHour    int
	MaxHours       int
	StartClockHour int // Hour of day (0-23) at which the first hour begins

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClockHour returns the hour of day (0-23) the game clock currently shows
func (g *Game) ClockHour() int {
	elapsed := g.MaxHours - g.CurrentHour
	h := (g.StartClockHour + elapsed) % 24
	if h < 0 {
		h += 24
	}
	return h
}

// HoursElapsed returns how many hours have been played
func (g *Game) HoursElapsed() int {
	return g.MaxHours - g.CurrentHour
}

// IsOver returns true if the clock has run out
func (g *Game) IsOver() bool {
	return g.CurrentHour <= 0 || g.Status == GameStatusCompleted
}

// CheckActive returns the error describing why actions are not allowed, if any
func (g *Game) CheckActive() error {
	switch g.Status {
	case GameStatusWaiting:
		return ErrGameNotStarted
	case GameStatusCompleted:
		return ErrGameComplete
	}
	return nil
}

// Standing is one row of a game's ranking
type Standing struct {
	PlayerID    PlayerID
	DisplayName string
	Cash        decimal.Decimal
	Loan        decimal.Decimal
	Holdings    decimal.Decimal // Sum of purchase prices of held items
	NetWorth    decimal.Decimal
}
