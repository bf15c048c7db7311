package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// fakeHistory is a canned History implementation for strategy tests.
type fakeHistory struct {
	recentClosed []models.Trade
	openedCount  int64
	openCount    int64
	profitSince  decimal.Decimal
	profitTotal  decimal.Decimal
	err          error
}

func (f *fakeHistory) RecentClosedTrades(ctx context.Context, accountID uuid.UUID, limit int, excludeTradeID uuid.UUID) ([]models.Trade, error) {
	return f.recentClosed, f.err
}

func (f *fakeHistory) CountTradesOpenedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error) {
	return f.openedCount, f.err
}

func (f *fakeHistory) CountOpenTrades(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return f.openCount, f.err
}

func (f *fakeHistory) SumProfitClosedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	return f.profitSince, f.err
}

func (f *fakeHistory) SumProfitClosed(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return f.profitTotal, f.err
}

func closedTrade(openedAgo, heldFor time.Duration) *models.Trade {
	open := time.Now().Add(-openedAgo)
	closeTime := open.Add(heldFor)
	return &models.Trade{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Type:      models.TradeTypeBuy,
		Volume:    decimal.NewFromFloat(1.0),
		OpenTime:  open,
		CloseTime: &closeTime,
		Status:    models.TradeStatusClosed,
	}
}

func TestMinDuration(t *testing.T) {
	ctx := context.Background()
	r := NewMinDuration()

	assert.Equal(t, "min_duration", r.Type())

	t.Run("fast close violates", func(t *testing.T) {
		trade := closedTrade(time.Minute, 5*time.Second)
		violated, err := r.Violated(ctx, TradeSubject(trade), models.JSONMap{"min_duration_seconds": 10})
		require.NoError(t, err)
		assert.True(t, violated)
	})

	t.Run("exactly at threshold does not violate", func(t *testing.T) {
		trade := closedTrade(time.Minute, 10*time.Second)
		violated, err := r.Violated(ctx, TradeSubject(trade), models.JSONMap{"min_duration_seconds": 10})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("open trade is exempt", func(t *testing.T) {
		trade := closedTrade(time.Minute, 5*time.Second)
		trade.CloseTime = nil
		trade.Status = models.TradeStatusOpen
		violated, err := r.Violated(ctx, TradeSubject(trade), models.JSONMap{"min_duration_seconds": 10})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("account subject is exempt", func(t *testing.T) {
		violated, err := r.Violated(ctx, AccountSubject(&models.Account{ID: uuid.New()}), models.JSONMap{})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("default threshold is ten seconds", func(t *testing.T) {
		trade := closedTrade(time.Minute, 9*time.Second)
		violated, err := r.Violated(ctx, TradeSubject(trade), models.JSONMap{})
		require.NoError(t, err)
		assert.True(t, violated)
	})
}

func TestVolumeConsistency(t *testing.T) {
	ctx := context.Background()

	history := func(volumes ...float64) *fakeHistory {
		trades := make([]models.Trade, len(volumes))
		for i, v := range volumes {
			trades[i] = models.Trade{ID: uuid.New(), Volume: decimal.NewFromFloat(v)}
		}
		return &fakeHistory{recentClosed: trades}
	}

	newTrade := func(volume float64) *models.Trade {
		t := closedTrade(time.Hour, time.Hour)
		t.Volume = decimal.NewFromFloat(volume)
		return t
	}

	t.Run("no history exempts", func(t *testing.T) {
		r := NewVolumeConsistency(&fakeHistory{})
		violated, err := r.Violated(ctx, TradeSubject(newTrade(100)), models.JSONMap{})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("volume above max factor violates", func(t *testing.T) {
		r := NewVolumeConsistency(history(1, 1, 1))
		violated, err := r.Violated(ctx, TradeSubject(newTrade(2.5)),
			models.JSONMap{"min_factor": 0.5, "max_factor": 2.0})
		require.NoError(t, err)
		assert.True(t, violated)
	})

	t.Run("volume exactly at max factor does not violate", func(t *testing.T) {
		r := NewVolumeConsistency(history(1, 1, 1))
		violated, err := r.Violated(ctx, TradeSubject(newTrade(2.0)),
			models.JSONMap{"min_factor": 0.5, "max_factor": 2.0})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("volume below min factor violates", func(t *testing.T) {
		r := NewVolumeConsistency(history(2, 2, 2))
		violated, err := r.Violated(ctx, TradeSubject(newTrade(0.5)),
			models.JSONMap{"min_factor": 0.5, "max_factor": 2.0})
		require.NoError(t, err)
		assert.True(t, violated)
	})

	t.Run("history failure surfaces as error", func(t *testing.T) {
		r := NewVolumeConsistency(&fakeHistory{err: errors.New("db gone")})
		_, err := r.Violated(ctx, TradeSubject(newTrade(1)), models.JSONMap{})
		assert.Error(t, err)
	})
}

func TestTradeFrequency(t *testing.T) {
	ctx := context.Background()
	subject := AccountSubject(&models.Account{ID: uuid.New()})

	t.Run("above max violates", func(t *testing.T) {
		r := NewTradeFrequency(&fakeHistory{openedCount: 6})
		violated, err := r.Violated(ctx, subject,
			models.JSONMap{"time_window_minutes": 60, "max_open_trades": 4})
		require.NoError(t, err)
		assert.True(t, violated)
	})

	t.Run("exactly at max does not violate", func(t *testing.T) {
		r := NewTradeFrequency(&fakeHistory{openedCount: 4})
		violated, err := r.Violated(ctx, subject,
			models.JSONMap{"time_window_minutes": 60, "max_open_trades": 4})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("below min violates", func(t *testing.T) {
		r := NewTradeFrequency(&fakeHistory{openedCount: 1})
		violated, err := r.Violated(ctx, subject, models.JSONMap{"min_open_trades": 3})
		require.NoError(t, err)
		assert.True(t, violated)
	})

	t.Run("no bounds never violates", func(t *testing.T) {
		r := NewTradeFrequency(&fakeHistory{openedCount: 1000})
		violated, err := r.Violated(ctx, subject, models.JSONMap{"time_window_minutes": 60})
		require.NoError(t, err)
		assert.False(t, violated)
	})
}

func TestDailyLossLimit(t *testing.T) {
	ctx := context.Background()
	subject := AccountSubject(&models.Account{ID: uuid.New()})
	params := models.JSONMap{"max_daily_loss": 1000}

	cases := []struct {
		name     string
		pnl      float64
		violated bool
	}{
		{"loss beyond limit", -1500, true},
		{"loss exactly at limit", -1000, false},
		{"small loss", -200, false},
		{"profitable day", 500, false},
		{"flat day", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewDailyLossLimit(&fakeHistory{profitSince: decimal.NewFromFloat(tc.pnl)})
			violated, err := r.Violated(ctx, subject, params)
			require.NoError(t, err)
			assert.Equal(t, tc.violated, violated)
		})
	}
}

func TestMaxOpenPositions(t *testing.T) {
	ctx := context.Background()
	subject := AccountSubject(&models.Account{ID: uuid.New()})
	params := models.JSONMap{"max_positions": 5}

	t.Run("above limit violates", func(t *testing.T) {
		r := NewMaxOpenPositions(&fakeHistory{openCount: 6})
		violated, err := r.Violated(ctx, subject, params)
		require.NoError(t, err)
		assert.True(t, violated)
	})

	t.Run("exactly at limit does not violate", func(t *testing.T) {
		r := NewMaxOpenPositions(&fakeHistory{openCount: 5})
		violated, err := r.Violated(ctx, subject, params)
		require.NoError(t, err)
		assert.False(t, violated)
	})
}

func TestMaxDrawdown(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed limit", func(t *testing.T) {
		subject := AccountSubject(&models.Account{ID: uuid.New()})
		params := models.JSONMap{"max_drawdown_amount": 2000, "value_type": models.ValueTypeFixed}

		r := NewMaxDrawdown(&fakeHistory{profitTotal: decimal.NewFromInt(-2500)})
		violated, err := r.Violated(ctx, subject, params)
		require.NoError(t, err)
		assert.True(t, violated)

		r = NewMaxDrawdown(&fakeHistory{profitTotal: decimal.NewFromInt(-2000)})
		violated, err = r.Violated(ctx, subject, params)
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("percent of initial balance", func(t *testing.T) {
		// 10% of 100000 = 10000 allowed drawdown.
		subject := AccountSubject(&models.Account{
			ID:             uuid.New(),
			InitialBalance: decimal.NewFromInt(100000),
		})
		params := models.JSONMap{"max_drawdown_amount": 10, "value_type": models.ValueTypePercent}

		r := NewMaxDrawdown(&fakeHistory{profitTotal: decimal.NewFromInt(-12000)})
		violated, err := r.Violated(ctx, subject, params)
		require.NoError(t, err)
		assert.True(t, violated)

		r = NewMaxDrawdown(&fakeHistory{profitTotal: decimal.NewFromInt(-9000)})
		violated, err = r.Violated(ctx, subject, params)
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("net profit never violates", func(t *testing.T) {
		r := NewMaxDrawdown(&fakeHistory{profitTotal: decimal.NewFromInt(5000)})
		violated, err := r.Violated(ctx, AccountSubject(&models.Account{ID: uuid.New()}),
			models.JSONMap{"max_drawdown_amount": 1})
		require.NoError(t, err)
		assert.False(t, violated)
	})
}

func TestRiskPerTrade(t *testing.T) {
	ctx := context.Background()
	r := NewRiskPerTrade()

	withStop := func(openPrice, stopLoss, volume float64) *models.Trade {
		trade := closedTrade(time.Hour, time.Hour)
		trade.OpenPrice = decimal.NewFromFloat(openPrice)
		trade.StopLoss = decimal.NewNullDecimal(decimal.NewFromFloat(stopLoss))
		trade.Volume = decimal.NewFromFloat(volume)
		return trade
	}

	t.Run("no stop loss never violates", func(t *testing.T) {
		trade := closedTrade(time.Hour, time.Hour)
		violated, err := r.Violated(ctx, TradeSubject(trade), models.JSONMap{"max_risk_amount": 1})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("fixed limit", func(t *testing.T) {
		// |100 - 90| * 20 = 200 at risk.
		violated, err := r.Violated(ctx, TradeSubject(withStop(100, 90, 20)),
			models.JSONMap{"max_risk_amount": 100})
		require.NoError(t, err)
		assert.True(t, violated)

		violated, err = r.Violated(ctx, TradeSubject(withStop(100, 90, 20)),
			models.JSONMap{"max_risk_amount": 200})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("percent of balance", func(t *testing.T) {
		trade := withStop(100, 90, 20)
		trade.Account = &models.Account{ID: trade.AccountID, Balance: decimal.NewFromInt(10000)}

		// 1% of 10000 = 100 allowed, 200 at risk.
		violated, err := r.Violated(ctx, TradeSubject(trade),
			models.JSONMap{"max_risk_amount": 1, "value_type": models.ValueTypePercent})
		require.NoError(t, err)
		assert.True(t, violated)

		// 5% of 10000 = 500 allowed.
		violated, err = r.Violated(ctx, TradeSubject(trade),
			models.JSONMap{"max_risk_amount": 5, "value_type": models.ValueTypePercent})
		require.NoError(t, err)
		assert.False(t, violated)
	})

	t.Run("percent without loaded account is exempt", func(t *testing.T) {
		violated, err := r.Violated(ctx, TradeSubject(withStop(100, 90, 20)),
			models.JSONMap{"max_risk_amount": 1, "value_type": models.ValueTypePercent})
		require.NoError(t, err)
		assert.False(t, violated)
	})
}

func TestRegistry(t *testing.T) {
	registry := NewDefaultRegistry(&fakeHistory{})

	for _, ruleType := range []string{
		"min_duration", "volume_consistency", "trade_frequency",
		"daily_loss_limit", "max_open_positions", "max_drawdown", "risk_per_trade",
	} {
		s, ok := registry.Resolve(ruleType)
		require.True(t, ok, ruleType)
		assert.Equal(t, ruleType, s.Type())
		assert.NotEmpty(t, s.Description())
	}

	_, ok := registry.Resolve("foo_rule")
	assert.False(t, ok)

	assert.Len(t, registry.Types(), 7)
}
