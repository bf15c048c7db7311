package rules

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// VolumeConsistency flags trades whose volume deviates from the account's
// recent historical average by more than a configured factor in either
// direction. Accounts with no closed history are exempt.
type VolumeConsistency struct {
	history History
}

func NewVolumeConsistency(history History) *VolumeConsistency {
	return &VolumeConsistency{history: history}
}

func (r *VolumeConsistency) Type() string { return "volume_consistency" }

func (r *VolumeConsistency) Description() string {
	return "Detects trades with volume significantly different from the historical average."
}

type volumeConsistencyParams struct {
	MinFactor      decimal.Decimal
	MaxFactor      decimal.Decimal
	LookbackTrades int
}

func volumeConsistencyParamsFrom(m models.JSONMap) volumeConsistencyParams {
	return volumeConsistencyParams{
		MinFactor:      decimal.NewFromFloat(m.Float("min_factor", 0.5)),
		MaxFactor:      decimal.NewFromFloat(m.Float("max_factor", 2.0)),
		LookbackTrades: m.Int("lookback_trades", 10),
	}
}

func (r *VolumeConsistency) Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error) {
	trade, ok := subject.Trade()
	if !ok {
		return false, nil
	}

	p := volumeConsistencyParamsFrom(params)

	historical, err := r.history.RecentClosedTrades(ctx, trade.AccountID, p.LookbackTrades, trade.ID)
	if err != nil {
		return false, fmt.Errorf("load historical trades: %w", err)
	}
	if len(historical) == 0 {
		return false, nil
	}

	total := decimal.Zero
	for _, t := range historical {
		total = total.Add(t.Volume)
	}
	average := total.Div(decimal.NewFromInt(int64(len(historical))))
	if !average.IsPositive() {
		return false, nil
	}

	minAllowed := average.Mul(p.MinFactor)
	maxAllowed := average.Mul(p.MaxFactor)

	return trade.Volume.LessThan(minAllowed) || trade.Volume.GreaterThan(maxAllowed), nil
}
