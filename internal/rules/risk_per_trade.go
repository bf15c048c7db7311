package rules

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// RiskPerTrade flags trades whose potential loss at the stop-loss level
// exceeds a threshold, fixed or as a percentage of the current balance.
// Trades without a stop-loss never violate; neither do account subjects.
type RiskPerTrade struct{}

func NewRiskPerTrade() *RiskPerTrade { return &RiskPerTrade{} }

func (r *RiskPerTrade) Type() string { return "risk_per_trade" }

func (r *RiskPerTrade) Description() string {
	return "Detects trades that risk more than an allowed amount based on the stop loss."
}

type riskPerTradeParams struct {
	MaxRiskAmount decimal.Decimal
	ValueType     string
}

func riskPerTradeParamsFrom(m models.JSONMap) riskPerTradeParams {
	return riskPerTradeParams{
		MaxRiskAmount: decimal.NewFromFloat(m.Float("max_risk_amount", 100)),
		ValueType:     m.String("value_type", models.ValueTypeFixed),
	}
}

func (r *RiskPerTrade) Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error) {
	trade, ok := subject.Trade()
	if !ok {
		return false, nil
	}
	if !trade.StopLoss.Valid {
		return false, nil
	}

	p := riskPerTradeParamsFrom(params)

	limit := p.MaxRiskAmount
	if p.ValueType == models.ValueTypePercent {
		account := subject.Account()
		if account == nil {
			return false, nil
		}
		limit = account.Balance.Mul(p.MaxRiskAmount).Div(decimal.NewFromInt(100))
	}

	risk := trade.OpenPrice.Sub(trade.StopLoss.Decimal).Abs().Mul(trade.Volume)
	return risk.GreaterThan(limit), nil
}
