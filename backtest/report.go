package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rustyeddy/prophunter/journal"
	"github.com/rustyeddy/prophunter/pkg/id"
	"github.com/rustyeddy/prophunter/strategy"
)

// RunInfo describes what was simulated.
type RunInfo struct {
	Symbol       string
	Timeframe    string
	Dataset      string
	Params       strategy.Params
	Stages       []string
	RiskPct      float64
	DailyLossPct float64
}

// NewRun builds the journal record of a finished simulation with a fresh
// run id.
func NewRun(info RunInfo, r Result) journal.BacktestRun {
	st := r.Stats()
	cfg, _ := json.Marshal(info.Params)
	run := journal.BacktestRun{
		RunID:        id.New(),
		Created:      time.Now().UTC(),
		Timeframe:    info.Timeframe,
		Dataset:      info.Dataset,
		Symbol:       info.Symbol,
		Strategy:     strings.Join(info.Stages, " > "),
		Config:       cfg,
		RiskPct:      info.RiskPct,
		DailyLossPct: info.DailyLossPct,
		RR:           info.Params.RewardMultiple,
		Start:        r.StartTime(),
		End:          r.EndTime(),
		Candles:      r.Candles,
		Trades:       st.Trades,
		Wins:         st.Wins,
		Losses:       st.Losses,
		OpenAtEnd:    r.OpenAtEnd != nil,
		HaltedDays:   r.HaltedDays,
		StartBalance: r.InitialBalance,
		EndBalance:   r.FinalBalance,
		NetPL:        st.NetPL,
		ReturnPct:    st.ReturnPct,
		WinRate:      st.WinRate,
		ProfitFactor: st.ProfitFactor,
		MaxDDPct:     st.MaxDrawdownPct,
	}
	if r.OpenAtEnd != nil {
		run.Notes = append(run.Notes, fmt.Sprintf("open at end: %s (excluded from statistics)", r.OpenAtEnd))
	}
	if r.HaltedDays > 0 {
		run.Notes = append(run.Notes, fmt.Sprintf("daily loss limit hit on %d day(s)", r.HaltedDays))
	}
	return run
}

func PrintBacktestRun(w io.Writer, r journal.BacktestRun) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Symbol:        %s\n", r.Symbol)
	fmt.Fprintf(w, "Timeframe:     %s\n", r.Timeframe)
	fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Candles:       %d\n", r.Candles)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk Configuration")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Risk per Trade: %.2f%%\n", r.RiskPct)
	fmt.Fprintf(w, "Daily Limit:   %.2f%%\n", r.DailyLossPct)
	fmt.Fprintf(w, "Risk/Reward:   %.2f\n", r.RR)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate)
	fmt.Fprintf(w, "Halted Days:   %d\n", r.HaltedDays)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.StartBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.EndBalance)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)

	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}
	if r.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDDPct)
	}

	if r.OrgPath != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Org Report:    %s\n", r.OrgPath)
	}

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, note := range r.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}
