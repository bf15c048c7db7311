package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	return db
}

func createAccount(t *testing.T, db *gorm.DB, login int64) *models.Account {
	t.Helper()
	account := &models.Account{
		Login:          login,
		Balance:        decimal.NewFromInt(10000),
		InitialBalance: decimal.NewFromInt(10000),
	}
	require.NoError(t, NewAccountStore(db).Create(context.Background(), account))
	return account
}

func insertTrade(t *testing.T, db *gorm.DB, accountID uuid.UUID, status string, openTime time.Time, closeTime *time.Time, volume, profit float64) *models.Trade {
	t.Helper()
	trade := &models.Trade{
		AccountID: accountID,
		Type:      models.TradeTypeBuy,
		Volume:    decimal.NewFromFloat(volume),
		OpenTime:  openTime,
		CloseTime: closeTime,
		Profit:    decimal.NewFromFloat(profit),
		Status:    status,
	}
	require.NoError(t, NewTradeStore(db).Create(context.Background(), trade))
	return trade
}

func timePtr(ts time.Time) *time.Time { return &ts }

func TestTradeStoreHistoryQueries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	trades := NewTradeStore(db)
	account := createAccount(t, db, 1001)
	other := createAccount(t, db, 1002)

	now := time.Now()

	oldest := insertTrade(t, db, account.ID, models.TradeStatusClosed,
		now.Add(-3*time.Hour), timePtr(now.Add(-2*time.Hour)), 1.0, -50)
	newest := insertTrade(t, db, account.ID, models.TradeStatusClosed,
		now.Add(-90*time.Minute), timePtr(now.Add(-30*time.Minute)), 2.0, 120)
	open := insertTrade(t, db, account.ID, models.TradeStatusOpen,
		now.Add(-10*time.Minute), nil, 3.0, 0)
	insertTrade(t, db, other.ID, models.TradeStatusClosed,
		now.Add(-time.Hour), timePtr(now.Add(-time.Minute)), 9.0, 500)

	t.Run("recent closed trades order and exclusion", func(t *testing.T) {
		got, err := trades.RecentClosedTrades(ctx, account.ID, 10, uuid.Nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newest.ID, got[0].ID)
		assert.Equal(t, oldest.ID, got[1].ID)

		got, err = trades.RecentClosedTrades(ctx, account.ID, 10, newest.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, oldest.ID, got[0].ID)
	})

	t.Run("count opened since includes still-open trades", func(t *testing.T) {
		count, err := trades.CountTradesOpenedSince(ctx, account.ID, now.Add(-2*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = trades.CountTradesOpenedSince(ctx, account.ID, now.Add(-4*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("count open trades", func(t *testing.T) {
		count, err := trades.CountOpenTrades(ctx, account.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("profit sums skip open trades", func(t *testing.T) {
		sum, err := trades.SumProfitClosed(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(70)), sum.String())

		sum, err = trades.SumProfitClosedSince(ctx, account.ID, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(120)), sum.String())
	})

	t.Run("profit sum is zero without closed trades", func(t *testing.T) {
		empty := createAccount(t, db, 1003)
		sum, err := trades.SumProfitClosed(ctx, empty.ID)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("get preloads account", func(t *testing.T) {
		got, err := trades.Get(ctx, open.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Account)
		assert.Equal(t, account.Login, got.Account.Login)
	})
}

func TestIncidentStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	incidents := NewIncidentStore(db)
	rulesStore := NewRuleStore(db)
	account := createAccount(t, db, 2001)

	rule := &models.RiskRule{
		Name:     "Fast Trade Detection",
		RuleType: "min_duration",
		Severity: models.SeverityHard,
		IsActive: true,
	}
	require.NoError(t, rulesStore.Create(ctx, rule))

	insertIncident := func(triggeredAt time.Time) *models.Incident {
		incident := &models.Incident{
			AccountID:   account.ID,
			RiskRuleID:  rule.ID,
			Details:     models.JSONMap{"rule_type": rule.RuleType},
			TriggeredAt: triggeredAt,
		}
		require.NoError(t, incidents.Create(ctx, incident))
		return incident
	}

	now := time.Now()
	recent := insertIncident(now.Add(-time.Hour))
	insertIncident(now.Add(-10 * 24 * time.Hour))
	stale := insertIncident(now.Add(-40 * 24 * time.Hour))

	t.Run("count recent honors the window", func(t *testing.T) {
		count, err := incidents.CountRecent(ctx, rule.ID, account.ID, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("count recent scoped to rule and account", func(t *testing.T) {
		count, err := incidents.CountRecent(ctx, uuid.New(), account.ID, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("read markers", func(t *testing.T) {
		unread, err := incidents.CountUnread(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, unread)

		require.NoError(t, incidents.MarkRead(ctx, recent.ID, now))
		unread, err = incidents.CountUnread(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, unread)

		listed, err := incidents.List(ctx, nil, true, 50)
		require.NoError(t, err)
		assert.Len(t, listed, 2)

		require.NoError(t, incidents.MarkAllRead(ctx, now))
		unread, err = incidents.CountUnread(ctx)
		require.NoError(t, err)
		assert.Zero(t, unread)
	})

	t.Run("stats by account group severities", func(t *testing.T) {
		stats, err := incidents.StatsByAccount(ctx, account.ID)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, models.SeverityHard, stats[0].Severity)
		assert.EqualValues(t, 3, stats[0].Count)
	})

	t.Run("activity buckets by day", func(t *testing.T) {
		buckets, err := incidents.ActivitySince(ctx, stale.TriggeredAt.Add(-time.Hour))
		require.NoError(t, err)
		assert.NotEmpty(t, buckets)
		var total int64
		for _, b := range buckets {
			total += b.Count
		}
		assert.EqualValues(t, 3, total)
	})
}

func TestAccountStoreStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	accounts := NewAccountStore(db)
	account := createAccount(t, db, 3001)

	require.NoError(t, accounts.DisableTrading(ctx, account.ID))
	got, err := accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnabled, got.Status)
	assert.Equal(t, models.StatusDisabled, got.TradingStatus)

	// A trading-disabled account still qualifies for the sweep.
	enabled, err := accounts.Enabled(ctx)
	require.NoError(t, err)
	assert.Len(t, enabled, 1)

	require.NoError(t, accounts.DisableAccount(ctx, account.ID))
	enabled, err = accounts.Enabled(ctx)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	require.NoError(t, accounts.Restore(ctx, account.ID))
	got, err = accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnabled, got.Status)
	assert.Equal(t, models.StatusEnabled, got.TradingStatus)
}

func TestRuleStoreActiveAndActions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rulesStore := NewRuleStore(db)

	action := &models.ConfiguredAction{
		Name:       "Disable Trading",
		ActionType: models.ActionDisableTrading,
		Config:     models.JSONMap{},
	}
	require.NoError(t, rulesStore.CreateAction(ctx, action))

	active := &models.RiskRule{
		Name:       "Fast Trade Detection",
		RuleType:   "min_duration",
		Parameters: models.JSONMap{"min_duration_seconds": 10},
		Severity:   models.SeverityHard,
		IsActive:   true,
		Actions:    []models.ConfiguredAction{*action},
	}
	require.NoError(t, rulesStore.Create(ctx, active))
	require.NoError(t, rulesStore.Create(ctx, &models.RiskRule{
		Name:     "Dormant Rule",
		RuleType: "max_drawdown",
		Severity: models.SeveritySoft,
		IsActive: false,
	}))

	got, err := rulesStore.Active(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fast Trade Detection", got[0].Name)
	require.Len(t, got[0].Actions, 1)
	assert.Equal(t, models.ActionDisableTrading, got[0].Actions[0].ActionType)

	t.Run("replace actions", func(t *testing.T) {
		webhook := &models.ConfiguredAction{
			Name:       "Webhook Notification",
			ActionType: models.ActionNotifyWebhook,
			Config:     models.JSONMap{"webhook_url": "https://hooks.example.com/x"},
		}
		require.NoError(t, rulesStore.CreateAction(ctx, webhook))
		require.NoError(t, rulesStore.ReplaceActions(ctx, &got[0], []models.ConfiguredAction{*webhook}))

		reloaded, err := rulesStore.Get(ctx, got[0].ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Actions, 1)
		assert.Equal(t, models.ActionNotifyWebhook, reloaded.Actions[0].ActionType)
	})
}

func TestSeedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db))
	require.NoError(t, Seed(ctx, db))

	rules, err := NewRuleStore(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 3)

	actions, err := NewRuleStore(db).ListActions(ctx)
	require.NoError(t, err)
	assert.Len(t, actions, 4)

	active, err := NewRuleStore(db).Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	for _, r := range active {
		assert.NotEmpty(t, r.Actions, r.Name)
	}
}
