package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// DailyLossLimit flags accounts whose realized loss for the current day
// exceeds a threshold. Works for both trade subjects (reactive) and
// account subjects (periodic).
type DailyLossLimit struct {
	history History
}

func NewDailyLossLimit(history History) *DailyLossLimit {
	return &DailyLossLimit{history: history}
}

func (r *DailyLossLimit) Type() string { return "daily_loss_limit" }

func (r *DailyLossLimit) Description() string {
	return "Detects when the daily realized loss exceeds a configured threshold."
}

type dailyLossLimitParams struct {
	MaxDailyLoss decimal.Decimal
}

func dailyLossLimitParamsFrom(m models.JSONMap) dailyLossLimitParams {
	return dailyLossLimitParams{
		MaxDailyLoss: decimal.NewFromFloat(m.Float("max_daily_loss", 1000)),
	}
}

func (r *DailyLossLimit) Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error) {
	accountID, ok := subject.AccountID()
	if !ok {
		return false, nil
	}

	p := dailyLossLimitParamsFrom(params)

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	dailyPnL, err := r.history.SumProfitClosedSince(ctx, accountID, startOfDay)
	if err != nil {
		return false, fmt.Errorf("sum daily profit: %w", err)
	}

	// A non-negative day is always safe; the limit bounds losses only.
	if !dailyPnL.IsNegative() {
		return false, nil
	}
	return dailyPnL.Abs().GreaterThan(p.MaxDailyLoss), nil
}
