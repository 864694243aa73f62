// Package notify delivers engine events to people and other systems.
// Every notifier satisfies engine.Notifier.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/prophunter/engine"
	"github.com/rustyeddy/prophunter/market"
)

// Log writes events to a slog logger. Useful in development and as the
// fallback when no channel is configured.
type Log struct {
	L *slog.Logger
}

func NewLog(l *slog.Logger) *Log {
	if l == nil {
		l = slog.Default()
	}
	return &Log{L: l}
}

func (n *Log) Notify(ctx context.Context, e engine.Event) error {
	title, _ := Format(e)
	n.L.InfoContext(ctx, "notify", "kind", e.Kind, "symbol", e.Symbol,
		"direction", e.Direction, "title", title, "balance", e.Balance)
	return nil
}

// Multi fans an event out to every notifier. All are tried; the errors
// are joined.
type Multi []engine.Notifier

func (m Multi) Notify(ctx context.Context, e engine.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func usd(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func qty(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

func sideWord(d market.Direction) string {
	switch d {
	case market.Long:
		return "BUY"
	case market.Short:
		return "SELL"
	}
	return "NONE"
}

// Format renders an event as a title and a plain-text body.
func Format(e engine.Event) (title, body string) {
	var b strings.Builder
	switch e.Kind {
	case engine.EventOpened:
		icon := "🚀"
		if e.Direction == market.Short {
			icon = "📉"
		}
		title = fmt.Sprintf("%s %s SIGNAL %s (%s)", icon, sideWord(e.Direction), e.Symbol, e.Direction)
		fmt.Fprintf(&b, "Price: %s\n", usd(e.EntryPrice))
		fmt.Fprintf(&b, "Stop Loss: %s\n", usd(e.StopLoss))
		fmt.Fprintf(&b, "Take Profit: %s\n\n", usd(e.TakeProfit))
		fmt.Fprintf(&b, "Risked: %s\n", usd(e.Risked))
		fmt.Fprintf(&b, "Quantity: %s\n", qty(e.Quantity))
		fmt.Fprintf(&b, "Balance: %s", usd(e.Balance))
	case engine.EventBreakEven:
		title = fmt.Sprintf("🛡️ BREAK-EVEN %s (%s)", e.Symbol, e.Direction)
		fmt.Fprintf(&b, "Stop moved to entry: %s\n", usd(e.StopLoss))
		fmt.Fprintf(&b, "Take Profit: %s", usd(e.TakeProfit))
	case engine.EventClosed:
		icon := "✅"
		if e.PnL <= 0 {
			icon = "❌"
		}
		title = fmt.Sprintf("%s CLOSED %s (%s) %s", icon, e.Symbol, e.Direction, e.ExitReason)
		fmt.Fprintf(&b, "Entry: %s\n", usd(e.EntryPrice))
		fmt.Fprintf(&b, "Exit: %s\n", usd(e.ExitPrice))
		fmt.Fprintf(&b, "P/L: %s\n", usd(e.PnL))
		fmt.Fprintf(&b, "Balance: %s", usd(e.Balance))
	case engine.EventHalted:
		title = fmt.Sprintf("⛔ HALTED %s for the day", e.Symbol)
		if e.Reason != "" {
			fmt.Fprintf(&b, "%s\n", e.Reason)
		}
		fmt.Fprintf(&b, "Balance: %s", usd(e.Balance))
	default:
		title = fmt.Sprintf("%s %s", e.Kind, e.Symbol)
		fmt.Fprintf(&b, "Balance: %s", usd(e.Balance))
	}
	return title, b.String()
}
