package rules

import (
	"context"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// MinDuration flags closed trades that lasted less than a configured
// minimum number of seconds. Open trades and account subjects never
// violate.
type MinDuration struct{}

func NewMinDuration() *MinDuration { return &MinDuration{} }

func (r *MinDuration) Type() string { return "min_duration" }

func (r *MinDuration) Description() string {
	return "Detects trades that close faster than a minimum allowed duration."
}

type minDurationParams struct {
	MinDurationSeconds int64
}

func minDurationParamsFrom(m models.JSONMap) minDurationParams {
	return minDurationParams{
		MinDurationSeconds: int64(m.Int("min_duration_seconds", 10)),
	}
}

func (r *MinDuration) Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error) {
	trade, ok := subject.Trade()
	if !ok {
		return false, nil
	}
	if !trade.IsClosed() {
		return false, nil
	}
	duration, ok := trade.DurationSeconds()
	if !ok {
		return false, nil
	}

	p := minDurationParamsFrom(params)
	return duration < p.MinDurationSeconds, nil
}
