package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// TradeFrequency flags accounts that opened too many or too few trades
// within a trailing time window. Either bound is optional; with neither
// configured the rule never violates.
type TradeFrequency struct {
	history History
}

func NewTradeFrequency(history History) *TradeFrequency {
	return &TradeFrequency{history: history}
}

func (r *TradeFrequency) Type() string { return "trade_frequency" }

func (r *TradeFrequency) Description() string {
	return "Detects when an account opens too many or too few trades within a time window."
}

type tradeFrequencyParams struct {
	TimeWindow    time.Duration
	MinOpenTrades *int
	MaxOpenTrades *int
}

func tradeFrequencyParamsFrom(m models.JSONMap) tradeFrequencyParams {
	p := tradeFrequencyParams{
		TimeWindow: time.Duration(m.Int("time_window_minutes", 60)) * time.Minute,
	}
	if v, ok := m.IntOK("min_open_trades"); ok {
		p.MinOpenTrades = &v
	}
	if v, ok := m.IntOK("max_open_trades"); ok {
		p.MaxOpenTrades = &v
	}
	return p
}

func (r *TradeFrequency) Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error) {
	accountID, ok := subject.AccountID()
	if !ok {
		return false, nil
	}

	p := tradeFrequencyParamsFrom(params)
	windowStart := time.Now().Add(-p.TimeWindow)

	count, err := r.history.CountTradesOpenedSince(ctx, accountID, windowStart)
	if err != nil {
		return false, fmt.Errorf("count trades in window: %w", err)
	}

	if p.MinOpenTrades != nil && count < int64(*p.MinOpenTrades) {
		return true, nil
	}
	if p.MaxOpenTrades != nil && count > int64(*p.MaxOpenTrades) {
		return true, nil
	}
	return false, nil
}
