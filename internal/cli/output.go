package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/vinyltrader/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates an Output writing to the command's streams
func NewOutput(cmd *cobra.Command) *Output {
	return &Output{format: cfg.Output, w: cmd.OutOrStdout(), errW: cmd.ErrOrStderr()}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.CreateGameResponse:
		o.printGame(v.Game)
		o.printPlayer(v.Player)
	case response.GameOverview:
		o.printOverview(v)
	case response.Game:
		o.printGame(v)
	case response.Player:
		o.printPlayer(v)
	case response.PlayerState:
		o.printPlayerState(v)
	case response.Quote:
		o.printQuote(v)
	case []response.Listing:
		o.printListings(v)
	case []response.Standing:
		o.printStandings(v)
	case response.BuyResponse:
		fmt.Fprintf(o.w, "Bought %s (%s) for $%s\n", v.Item.ProductID, v.Item.Condition, v.Quote.UnitPrice)
		o.printOutcome(v.Outcome)
	case response.SellResponse:
		fmt.Fprintf(o.w, "Sold for $%s, cash now $%s\n", v.Amount, v.NewCash)
		if v.Quote.Capped {
			fmt.Fprintln(o.w, "Price capped: sold back to the store it came from")
		}
		o.printOutcome(v.Outcome)
	case response.TravelResponse:
		fmt.Fprintf(o.w, "Travelled %s (%d actions)\n", strings.Join(v.Path, " -> "), v.Cost)
		o.printOutcome(v.Outcome)
	case response.TurnResult:
		o.printTurn(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s (%s in %s)\n", v.Status, v.Server, v.Latency)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s (%s)\n", g.ID, g.Status)
	fmt.Fprintf(o.w, "Hours left: %d of %d, clock %02d:00\n", g.CurrentHour, g.MaxHours, g.ClockHour)
	fmt.Fprintf(o.w, "Host: %s\n", g.HostID)
}

func (o *Output) printOverview(v response.GameOverview) {
	o.printGame(v.Game)
	fmt.Fprintf(o.w, "Phase: %s\n", v.Phase)
	fmt.Fprintf(o.w, "Players (%d):\n", len(v.Players))
	for _, p := range v.Players {
		done := ""
		if p.TurnCompleted {
			done = " [done]"
		}
		fmt.Fprintf(o.w, "  - %s (%s) in %s, $%s%s\n", p.DisplayName, p.ID, p.Location, p.Cash, done)
	}
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Location: %s\n", p.Location)
	fmt.Fprintf(o.w, "Cash: $%s  Loan: $%s\n", p.Cash, p.Loan)
	fmt.Fprintf(o.w, "Actions used: %d (+%d borrowed)\n", p.ActionsUsedThisHour, p.ActionsOverflow)
}

func (o *Output) printPlayerState(s response.PlayerState) {
	o.printPlayer(s.Player)
	fmt.Fprintf(o.w, "Actions left this hour: %d\n", s.Headroom)
	fmt.Fprintf(o.w, "Crate (%d):\n", len(s.Inventory))
	for _, it := range s.Inventory {
		fmt.Fprintf(o.w, "  - %s %s x%d, paid $%s at %s [%s]\n", it.ProductID, it.Condition, it.Quantity, it.PurchasePrice, it.StoreID, it.ID)
	}
}

func (o *Output) printQuote(q response.Quote) {
	fmt.Fprintf(o.w, "%s %s %s at %s: $%s\n", strings.ToUpper(q.Side), q.ProductID, q.Condition, q.StoreID, q.UnitPrice)
	fmt.Fprintf(o.w, "  base $%s x condition %s x specialty %s x region %s x peak %s x margin %s\n",
		q.BasePrice, q.ConditionFactor, q.SpecialtyFactor, q.RegionFactor, q.PeakFactor, q.MarginFactor)
	if q.CapPrice != nil {
		fmt.Fprintf(o.w, "  same-store cap $%s (applied: %t)\n", *q.CapPrice, q.Capped)
	}
}

func (o *Output) printListings(ls []response.Listing) {
	if len(ls) == 0 {
		fmt.Fprintln(o.w, "Nothing in the crates")
		return
	}
	for _, l := range ls {
		fmt.Fprintf(o.w, "%-28s %-5s x%-3d buy $%-8s posted $%s\n", l.ProductID, l.Condition, l.Quantity, l.BuyPrice, l.Price)
	}
}

func (o *Output) printStandings(ss []response.Standing) {
	for _, s := range ss {
		fmt.Fprintf(o.w, "%d. %s  net $%s (cash $%s, crate $%s, loan $%s)\n", s.Rank, s.DisplayName, s.NetWorth, s.Cash, s.Holdings, s.Loan)
	}
}

func (o *Output) printOutcome(out response.Outcome) {
	if out.Decision.Overflow > 0 {
		fmt.Fprintf(o.w, "Borrowed %d actions from the next hour\n", out.Decision.Overflow)
	}
	if out.TurnEnded {
		fmt.Fprintln(o.w, "Your hour is over")
	}
	if out.Turn != nil {
		o.printTurn(*out.Turn)
	}
}

func (o *Output) printTurn(t response.TurnResult) {
	switch {
	case t.GameOver:
		fmt.Fprintln(o.w, "Game over!")
	case t.AllCompleted:
		fmt.Fprintf(o.w, "Everyone is done, %d hours left\n", t.NewHour)
	default:
		fmt.Fprintln(o.w, "Waiting for other players")
	}
}
