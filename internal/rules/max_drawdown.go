package rules

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// MaxDrawdown flags accounts whose all-time realized loss exceeds a
// threshold, expressed either as a fixed amount or as a percentage of the
// account's initial balance.
type MaxDrawdown struct {
	history History
}

func NewMaxDrawdown(history History) *MaxDrawdown {
	return &MaxDrawdown{history: history}
}

func (r *MaxDrawdown) Type() string { return "max_drawdown" }

func (r *MaxDrawdown) Description() string {
	return "Detects when the total realized loss exceeds a drawdown limit."
}

type maxDrawdownParams struct {
	Amount    decimal.Decimal
	ValueType string
}

func maxDrawdownParamsFrom(m models.JSONMap) maxDrawdownParams {
	return maxDrawdownParams{
		Amount:    decimal.NewFromFloat(m.Float("max_drawdown_amount", 2000)),
		ValueType: m.String("value_type", models.ValueTypeFixed),
	}
}

func (r *MaxDrawdown) Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error) {
	account := subject.Account()
	if account == nil {
		return false, nil
	}

	p := maxDrawdownParamsFrom(params)

	limit := p.Amount
	if p.ValueType == models.ValueTypePercent {
		limit = account.InitialBalance.Mul(p.Amount).Div(decimal.NewFromInt(100))
	}

	totalPnL, err := r.history.SumProfitClosed(ctx, account.ID)
	if err != nil {
		return false, fmt.Errorf("sum total profit: %w", err)
	}

	return totalPnL.IsNegative() && totalPnL.Abs().GreaterThan(limit), nil
}
