package rules

import (
	"context"
	"fmt"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// MaxOpenPositions flags accounts holding more concurrently open trades
// than allowed. This is a detective control: it fires when the count is
// strictly above the limit, not at it.
type MaxOpenPositions struct {
	history History
}

func NewMaxOpenPositions(history History) *MaxOpenPositions {
	return &MaxOpenPositions{history: history}
}

func (r *MaxOpenPositions) Type() string { return "max_open_positions" }

func (r *MaxOpenPositions) Description() string {
	return "Detects when the number of open positions exceeds a configured limit."
}

type maxOpenPositionsParams struct {
	MaxPositions int64
}

func maxOpenPositionsParamsFrom(m models.JSONMap) maxOpenPositionsParams {
	return maxOpenPositionsParams{
		MaxPositions: int64(m.Int("max_positions", 5)),
	}
}

func (r *MaxOpenPositions) Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error) {
	accountID, ok := subject.AccountID()
	if !ok {
		return false, nil
	}

	p := maxOpenPositionsParamsFrom(params)

	open, err := r.history.CountOpenTrades(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("count open trades: %w", err)
	}
	return open > p.MaxPositions, nil
}
